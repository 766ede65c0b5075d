package model

type Category int

const (
	Male Category = iota
	Female
)

type Cell struct {
	Row, Col int
	Height   int
	Dome     bool
}

type Board struct {
	Rows, Cols int
	Matrix     [][]*Cell
}

// Worker positions are plain coordinates; the board never points back at workers.
type Worker struct {
	Player   int32
	Category Category
	Row, Col int
	Placed   bool
}

type Player struct {
	Id      int32
	Name    string
	Workers [2]*Worker
	Card    *Card
	Log     ActionLog
	Lost    bool
}

type Game struct {
	Board   *Board
	Players []*Player
	// LastActor is whose enemy restriction is in force.
	LastActor *Player
}

// Power overrides move/build generation and execution for the owner's workers.
type Power interface {
	MoveActions(w *Worker, g *Game) []Action
	BuildActions(w *Worker, g *Game) []Action
	Apply(a Action, p *Player, g *Game) (bool, error)
}

// Restriction filters another player's freshly generated candidates.
type Restriction interface {
	FixEnemyActions(candidates []Action, g *Game, actor *Player) []Action
}

type Card struct {
	Name        string
	Power       Power
	Restriction Restriction
}
