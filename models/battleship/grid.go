package battleship

import (
	cerr "github.com/saeidalz13/battleship-arena/internal/error"
)

const (
	GridSize        = 10
	ValidLowerBound = 0
	ValidUpperBound = GridSize - 1
)

type CellState uint8

const (
	CellEmpty CellState = iota
	CellShip
	CellHit
	CellMiss
)

type Coordinates struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func NewCoordinates(row, col int) Coordinates {
	return Coordinates{Row: row, Col: col}
}

func (c Coordinates) inBounds() bool {
	return c.Row >= ValidLowerBound && c.Row <= ValidUpperBound &&
		c.Col >= ValidLowerBound && c.Col <= ValidUpperBound
}

// Shot is the outcome of firing at one cell.
type Shot struct {
	Hit bool
	// Ship is the ship that was hit, nil on a miss.
	Ship *Ship
	Sunk bool
}

// Grid is one player's board: the cell states and the ships placed on
// it. It knows nothing about turns or players.
type Grid struct {
	cells [GridSize][GridSize]CellState
	ships []*Ship
}

func NewGrid() *Grid {
	return &Grid{ships: make([]*Ship, 0, len(FleetSizes))}
}

func (g *Grid) Cell(row, col int) CellState {
	return g.cells[row][col]
}

func (g *Grid) Ships() []*Ship {
	return g.ships
}

// Place validates the ship against the grid bounds, its own geometry
// and every ship already on the grid. The grid is only written once all
// checks pass.
func (g *Grid) Place(ship Ship, orientation Orientation) error {
	if err := ship.validate(orientation); err != nil {
		return err
	}

	for _, pos := range ship.Positions {
		if g.cells[pos.Row][pos.Col] != CellEmpty {
			return cerr.ErrShipOverlap(ship.Name, pos.Row, pos.Col)
		}
	}

	placed := ship.clone()
	for _, pos := range placed.Positions {
		g.cells[pos.Row][pos.Col] = CellShip
	}
	g.ships = append(g.ships, placed)
	return nil
}

// Fire resolves a shot at (row, col). A cell can only ever be resolved
// once.
func (g *Grid) Fire(row, col int) (Shot, error) {
	target := NewCoordinates(row, col)
	if !target.inBounds() {
		return Shot{}, cerr.ErrXorYOutOfGridBound(row, col)
	}

	switch g.cells[row][col] {
	case CellHit, CellMiss:
		return Shot{}, cerr.ErrAttackPositionAlreadyFilled(row, col)

	case CellEmpty:
		g.cells[row][col] = CellMiss
		return Shot{Hit: false}, nil
	}

	g.cells[row][col] = CellHit
	ship := g.shipAt(target)
	return Shot{Hit: true, Ship: ship, Sunk: ship != nil && g.isSunk(ship)}, nil
}

func (g *Grid) IsFleetDestroyed() bool {
	if len(g.ships) == 0 {
		return false
	}
	for _, ship := range g.ships {
		if !g.isSunk(ship) {
			return false
		}
	}
	return true
}

func (g *Grid) SunkenShips() int {
	sunk := 0
	for _, ship := range g.ships {
		if g.isSunk(ship) {
			sunk++
		}
	}
	return sunk
}

func (g *Grid) isSunk(ship *Ship) bool {
	for _, pos := range ship.Positions {
		if g.cells[pos.Row][pos.Col] != CellHit {
			return false
		}
	}
	return true
}

func (g *Grid) shipAt(c Coordinates) *Ship {
	for _, ship := range g.ships {
		if ship.occupies(c) {
			return ship
		}
	}
	return nil
}
