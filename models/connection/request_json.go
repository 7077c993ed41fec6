package connection

import (
	mb "github.com/saeidalz13/battleship-arena/models/battleship"
)

type ReqCreateMatch struct {
	PlayerName string `json:"player_name"`
	MatchName  string `json:"match_name"`
	Password   string `json:"password,omitempty"`
}

type ReqJoinMatch struct {
	MatchId    string `json:"match_id"`
	PlayerName string `json:"player_name"`
	Password   string `json:"password,omitempty"`
}

type ReqShip struct {
	Name        string           `json:"name"`
	Positions   []mb.Coordinates `json:"positions"`
	Orientation string           `json:"orientation,omitempty"`
}

type ReqSubmitFleet struct {
	Ships []ReqShip `json:"ships"`
}

func (r ReqSubmitFleet) Placements() []mb.ShipPlacement {
	placements := make([]mb.ShipPlacement, 0, len(r.Ships))
	for _, s := range r.Ships {
		placements = append(placements, mb.ShipPlacement{
			Ship:        mb.NewShip(s.Name, s.Positions...),
			Orientation: mb.ParseOrientation(s.Orientation),
		})
	}
	return placements
}

type ReqFire struct {
	Row int `json:"row"`
	Col int `json:"col"`
}
