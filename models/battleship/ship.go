package battleship

import (
	"slices"

	cerr "github.com/saeidalz13/battleship-arena/internal/error"
)

// FleetSizes is the only fleet a player may submit, largest first.
var FleetSizes = []int{5, 4, 3, 3, 2}

const (
	ShipNameCarrier    = "Carrier"
	ShipNameBattleship = "Battleship"
	ShipNameCruiser    = "Cruiser"
	ShipNameSubmarine  = "Submarine"
	ShipNameDestroyer  = "Destroyer"
)

type Orientation uint8

const (
	// OrientationAuto infers the axis from the positions.
	OrientationAuto Orientation = iota
	OrientationHorizontal
	OrientationVertical
)

func (o Orientation) String() string {
	switch o {
	case OrientationHorizontal:
		return "horizontal"
	case OrientationVertical:
		return "vertical"
	default:
		return "auto"
	}
}

func ParseOrientation(s string) Orientation {
	switch s {
	case "horizontal", "h":
		return OrientationHorizontal
	case "vertical", "v":
		return OrientationVertical
	default:
		return OrientationAuto
	}
}

type Ship struct {
	Name      string        `json:"name"`
	Positions []Coordinates `json:"positions"`
}

func NewShip(name string, positions ...Coordinates) Ship {
	return Ship{Name: name, Positions: positions}
}

func (sh *Ship) Size() int {
	return len(sh.Positions)
}

func (sh *Ship) occupies(c Coordinates) bool {
	return slices.Contains(sh.Positions, c)
}

func (sh *Ship) clone() *Ship {
	return &Ship{Name: sh.Name, Positions: slices.Clone(sh.Positions)}
}

// validate checks the ship on its own: size, bounds, and that the
// positions form one straight unbroken line along the given axis.
func (sh *Ship) validate(orientation Orientation) error {
	size := sh.Size()
	if size < FleetSizes[len(FleetSizes)-1] || size > FleetSizes[0] {
		return cerr.ErrInvalidShipSize(sh.Name, size)
	}

	for _, pos := range sh.Positions {
		if !pos.inBounds() {
			return cerr.ErrShipOutOfBound(sh.Name, pos.Row, pos.Col)
		}
	}

	sameRow, sameCol := true, true
	for _, pos := range sh.Positions[1:] {
		sameRow = sameRow && pos.Row == sh.Positions[0].Row
		sameCol = sameCol && pos.Col == sh.Positions[0].Col
	}

	var axis []int
	switch {
	case sameRow && (orientation == OrientationHorizontal || orientation == OrientationAuto):
		for _, pos := range sh.Positions {
			axis = append(axis, pos.Col)
		}
	case sameCol && (orientation == OrientationVertical || orientation == OrientationAuto):
		for _, pos := range sh.Positions {
			axis = append(axis, pos.Row)
		}
	case sameRow || sameCol:
		return cerr.ErrShipOrientationMismatch(sh.Name, orientation.String())
	default:
		return cerr.ErrShipNotContiguous(sh.Name)
	}

	slices.Sort(axis)
	for i := 1; i < len(axis); i++ {
		if axis[i] != axis[i-1]+1 {
			return cerr.ErrShipNotContiguous(sh.Name)
		}
	}
	return nil
}

// validateFleetSizes reports ErrInvalidFleet unless the sizes are
// exactly the multiset in FleetSizes.
func validateFleetSizes(ships []ShipPlacement) error {
	sizes := make([]int, 0, len(ships))
	for _, placement := range ships {
		sizes = append(sizes, placement.Ship.Size())
	}
	sorted := slices.Clone(sizes)
	slices.Sort(sorted)
	slices.Reverse(sorted)

	if !slices.Equal(sorted, FleetSizes) {
		return cerr.ErrFleetSizes(sizes)
	}
	return nil
}

// ShipPlacement is one ship of a submitted fleet with its declared
// orientation.
type ShipPlacement struct {
	Ship        Ship
	Orientation Orientation
}

// BuildFleetGrid validates a whole fleet on a fresh grid. Nothing is
// returned unless every ship places cleanly.
func BuildFleetGrid(ships []ShipPlacement) (*Grid, error) {
	if err := validateFleetSizes(ships); err != nil {
		return nil, err
	}

	grid := NewGrid()
	for _, placement := range ships {
		if err := grid.Place(placement.Ship, placement.Orientation); err != nil {
			return nil, err
		}
	}
	return grid, nil
}
