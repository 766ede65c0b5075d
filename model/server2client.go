package model

type ServerMessage struct {
	Setup      []Setup
	Boards     []BoardView
	Placements []PlacementOffer
	Turns      []TurnOffer
	Results    []ActionResult
	Over       []GameOver
}

type Setup struct {
	Rows, Cols int
	PlayerKey  int32
	Players    map[int32]PlayerView
}

type PlayerView struct {
	Id   int32
	Name string
	Card string
	Lost bool
}

type BoardView struct {
	Rows, Cols int
	Cells      []CellView
}

type CellView struct {
	Row, Col  int
	Height    int
	Dome      bool
	HasWorker bool
	PlayerId  int32
	Category  Category
}

type Point struct {
	Row, Col int
}

type PlacementOffer struct {
	PlayerKey int32
	Category  Category
	Free      []Point
}

type TurnOffer struct {
	PlayerKey int32
	Actions   []Action
}

type ActionResult struct {
	PlayerKey int32
	Action    Action
	Success   bool
	Win       bool
	Error     string
}

type GameOver struct {
	Winner int32
}

type ClientMessage struct {
	Action *Action
	Place  *Point
}

func NewBoardView(g *Game) BoardView {
	view := BoardView{Rows: g.Board.Rows, Cols: g.Board.Cols}
	for _, line := range g.Board.Matrix {
		for _, c := range line {
			cv := CellView{Row: c.Row, Col: c.Col, Height: c.Height, Dome: c.Dome}
			if w := g.WorkerAt(c); w != nil {
				cv.HasWorker = true
				cv.PlayerId = w.Player
				cv.Category = w.Category
			}
			view.Cells = append(view.Cells, cv)
		}
	}
	return view
}
