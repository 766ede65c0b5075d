package model

import "fmt"

type Kind int

const (
	Move Kind = iota + 1
	BuildFloor
	BuildDome
	End
	Lose
)

func (k Kind) Name() string {
	switch k {
	case Move:
		return "MOVE"
	case BuildFloor:
		return "BUILD_FLOOR"
	case BuildDome:
		return "BUILD_DOME"
	case End:
		return "END"
	case Lose:
		return "LOSE"
	default:
		return fmt.Sprintf("n/a:%d", k)
	}
}

func (k Kind) Valid() bool {
	return k >= Move && k <= Lose
}

type Direction int

const (
	North Direction = iota
	NorthEast
	East
	SouthEast
	South
	SouthWest
	West
	NorthWest
)

var Directions = []Direction{North, NorthEast, East, SouthEast, South, SouthWest, West, NorthWest}

var offsets = [8][2]int{
	{-1, 0}, {-1, 1}, {0, 1}, {1, 1},
	{1, 0}, {1, -1}, {0, -1}, {-1, -1},
}

func (d Direction) Valid() bool {
	return d >= North && d <= NorthWest
}

// Offset returns the row and column increments of one step, 0,0 for an unknown direction.
func (d Direction) Offset() (int, int) {
	if !d.Valid() {
		return 0, 0
	}
	o := offsets[d]
	return o[0], o[1]
}

func (d Direction) Name() string {
	names := [...]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}
	if !d.Valid() {
		return fmt.Sprintf("n/a:%d", d)
	}
	return names[d]
}

// Action is a single step of a turn. Worker and Dir mean nothing for End and Lose.
// Delta is destination minus origin height for Move and the resulting height for builds.
type Action struct {
	Kind   Kind
	Worker Category
	Dir    Direction
	Delta  int
}

func EndAction() Action {
	return Action{Kind: End}
}

func LoseAction() Action {
	return Action{Kind: Lose}
}

func (a Action) String() string {
	switch a.Kind {
	case End, Lose:
		return a.Kind.Name()
	}
	return fmt.Sprintf("%s w:%d %s d:%+d", a.Kind.Name(), a.Worker, a.Dir.Name(), a.Delta)
}

// ActionLog holds what one player did during the current turn, oldest first.
type ActionLog []Action

func (l ActionLog) count(k Kind) int {
	n := 0
	for _, a := range l {
		if a.Kind == k {
			n++
		}
	}
	return n
}

func (l ActionLog) HasMoved() bool {
	return l.count(Move) > 0
}

func (l ActionLog) HasBuilt() bool {
	return l.count(BuildFloor)+l.count(BuildDome) > 0
}

func (l ActionLog) MovedUp() bool {
	for _, a := range l {
		if a.Kind == Move && a.Delta > 0 {
			return true
		}
	}
	return false
}

// MovedWorker reports which worker made the first move of the turn.
func (l ActionLog) MovedWorker() (Category, bool) {
	for _, a := range l {
		if a.Kind == Move {
			return a.Worker, true
		}
	}
	return 0, false
}

func (l ActionLog) HasEnd() bool {
	return l.count(End) > 0
}

func (l ActionLog) HasLose() bool {
	return l.count(Lose) > 0
}

func (l ActionLog) Terminal() bool {
	return l.HasEnd() || l.HasLose()
}
