package model

import (
	"errors"
	"fmt"
)

const MaxHeight = 3

var (
	ErrOutOfBounds   = errors.New("out of bounds")
	ErrDomed         = errors.New("cell is domed")
	ErrMaxHeight     = errors.New("cell at max height")
	ErrOccupied      = errors.New("cell is occupied")
	ErrInvalidTarget = errors.New("invalid target")
	ErrEliminated    = errors.New("player eliminated")
)

func NewBoard(rows, cols int) *Board {
	matrix := make([][]*Cell, 0, rows)
	for r := 0; r < rows; r++ {
		line := make([]*Cell, 0, cols)
		for c := 0; c < cols; c++ {
			line = append(line, &Cell{Row: r, Col: c})
		}
		matrix = append(matrix, line)
	}
	return &Board{Rows: rows, Cols: cols, Matrix: matrix}
}

func (b *Board) Cell(row, col int) (*Cell, error) {
	if row < 0 || row >= b.Rows || col < 0 || col >= b.Cols {
		return nil, fmt.Errorf("cell %d,%d: %w", row, col, ErrOutOfBounds)
	}
	return b.Matrix[row][col], nil
}

// Adjacents lists the existing neighbours of c in Directions order.
func (b *Board) Adjacents(c *Cell) []*Cell {
	adj := make([]*Cell, 0, len(Directions))
	for _, d := range Directions {
		if n, err := b.Step(c, d); err == nil {
			adj = append(adj, n)
		}
	}
	return adj
}

func (b *Board) Step(c *Cell, d Direction) (*Cell, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("direction %d: %w", d, ErrOutOfBounds)
	}
	dr, dc := d.Offset()
	return b.Cell(c.Row+dr, c.Col+dc)
}

// DirectionTo finds the direction leading from one cell to an adjacent one.
func DirectionTo(from, to *Cell) (Direction, bool) {
	for _, d := range Directions {
		dr, dc := d.Offset()
		if from.Row+dr == to.Row && from.Col+dc == to.Col {
			return d, true
		}
	}
	return 0, false
}

func HeightDelta(from, to *Cell) int {
	return to.Height - from.Height
}

func (c *Cell) Raise() error {
	if c.Dome {
		return fmt.Errorf("raise %d,%d: %w", c.Row, c.Col, ErrDomed)
	}
	if c.Height >= MaxHeight {
		return fmt.Errorf("raise %d,%d: %w", c.Row, c.Col, ErrMaxHeight)
	}
	c.Height++
	return nil
}

func (c *Cell) Cap() error {
	if c.Dome {
		return fmt.Errorf("cap %d,%d: %w", c.Row, c.Col, ErrDomed)
	}
	c.Dome = true
	return nil
}

func NewPlayer(id int32, name string, card *Card) *Player {
	p := &Player{Id: id, Name: name, Card: card}
	p.Workers[Male] = &Worker{Player: id, Category: Male}
	p.Workers[Female] = &Worker{Player: id, Category: Female}
	return p
}

// Worker returns the placed worker of the given category.
func (p *Player) Worker(cat Category) (*Worker, error) {
	if cat != Male && cat != Female {
		return nil, fmt.Errorf("worker %d: %w", cat, ErrInvalidTarget)
	}
	w := p.Workers[cat]
	if w == nil || !w.Placed {
		return nil, fmt.Errorf("worker %d not on board: %w", cat, ErrInvalidTarget)
	}
	return w, nil
}

func NewGame(board *Board, players ...*Player) *Game {
	return &Game{Board: board, Players: players}
}

func (g *Game) Player(id int32) *Player {
	for _, p := range g.Players {
		if p.Id == id {
			return p
		}
	}
	return nil
}

// Alive lists players still in the game, in seat order.
func (g *Game) Alive() []*Player {
	alive := make([]*Player, 0, len(g.Players))
	for _, p := range g.Players {
		if !p.Lost {
			alive = append(alive, p)
		}
	}
	return alive
}

func (g *Game) WorkerAt(c *Cell) *Worker {
	for _, p := range g.Players {
		for _, w := range p.Workers {
			if w != nil && w.Placed && w.Row == c.Row && w.Col == c.Col {
				return w
			}
		}
	}
	return nil
}

func (g *Game) CellOf(w *Worker) (*Cell, error) {
	if !w.Placed {
		return nil, fmt.Errorf("worker %d of %d: %w", w.Category, w.Player, ErrInvalidTarget)
	}
	return g.Board.Cell(w.Row, w.Col)
}

// FreeCells lists undomed cells without a worker.
func (g *Game) FreeCells() []*Cell {
	free := make([]*Cell, 0, g.Board.Rows*g.Board.Cols)
	for _, line := range g.Board.Matrix {
		for _, c := range line {
			if !c.Dome && g.WorkerAt(c) == nil {
				free = append(free, c)
			}
		}
	}
	return free
}

func (g *Game) PlaceWorker(p *Player, cat Category, row, col int) error {
	if cat != Male && cat != Female {
		return fmt.Errorf("place worker %d: %w", cat, ErrInvalidTarget)
	}
	w := p.Workers[cat]
	if w.Placed {
		return fmt.Errorf("place worker %d: already placed: %w", cat, ErrInvalidTarget)
	}
	c, err := g.Board.Cell(row, col)
	if err != nil {
		return err
	}
	if c.Dome {
		return fmt.Errorf("place worker %d,%d: %w", row, col, ErrDomed)
	}
	if g.WorkerAt(c) != nil {
		return fmt.Errorf("place worker %d,%d: %w", row, col, ErrOccupied)
	}
	w.Row, w.Col, w.Placed = row, col, true
	return nil
}

// MoveWorker relocates w onto a free, undomed cell.
func (g *Game) MoveWorker(w *Worker, to *Cell) error {
	if to.Dome {
		return fmt.Errorf("move to %d,%d: %w", to.Row, to.Col, ErrDomed)
	}
	if other := g.WorkerAt(to); other != nil && other != w {
		return fmt.Errorf("move to %d,%d: %w", to.Row, to.Col, ErrOccupied)
	}
	w.Row, w.Col = to.Row, to.Col
	return nil
}

func (g *Game) SwapWorkers(a, b *Worker) {
	a.Row, a.Col, b.Row, b.Col = b.Row, b.Col, a.Row, a.Col
}

// BeginTurn discards the log of p's previous turn.
func (g *Game) BeginTurn(p *Player) error {
	if p.Lost {
		return fmt.Errorf("begin turn %d: %w", p.Id, ErrEliminated)
	}
	p.Log = nil
	return nil
}

func (g *Game) ForceLose(p *Player) {
	if !p.Log.HasLose() {
		p.Log = append(p.Log, LoseAction())
	}
}

// Eliminate takes p and its workers out of the game.
func (g *Game) Eliminate(p *Player) {
	g.ForceLose(p)
	p.Lost = true
	for _, w := range p.Workers {
		w.Placed = false
	}
	if g.LastActor == p {
		g.LastActor = nil
	}
}
