package battleship

import (
	"fmt"
	"math"
)

type Player struct {
	id           string
	name         string
	playerNumber int
	isReady      bool
	grid         *Grid
	hits         int
	misses       int
}

func NewPlayer(id, name string, playerNumber int) *Player {
	if name == "" {
		name = fmt.Sprintf("Player %d", playerNumber)
	}
	return &Player{
		id:           id,
		name:         name,
		playerNumber: playerNumber,
		grid:         NewGrid(),
	}
}

func (p *Player) Id() string {
	return p.id
}

func (p *Player) Name() string {
	return p.name
}

func (p *Player) PlayerNumber() int {
	return p.playerNumber
}

func (p *Player) IsReady() bool {
	return p.isReady
}

func (p *Player) Grid() *Grid {
	return p.grid
}

func (p *Player) Hits() int {
	return p.hits
}

func (p *Player) Misses() int {
	return p.misses
}

// Accuracy is the rounded hit percentage, 0 before the first shot.
func (p *Player) Accuracy() int {
	shots := p.hits + p.misses
	if shots == 0 {
		return 0
	}
	return int(math.Round(float64(p.hits) / float64(shots) * 100))
}

func (p *Player) setFleet(grid *Grid) {
	p.grid = grid
	p.isReady = true
}

func (p *Player) recordShot(hit bool) {
	if hit {
		p.hits++
		return
	}
	p.misses++
}

func (p *Player) info() PlayerInfo {
	return PlayerInfo{Id: p.id, Name: p.name, PlayerNumber: p.playerNumber}
}
