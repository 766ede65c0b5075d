package rules

import (
	"fmt"

	"github.com/zucenko/santorini/model"
)

// Base is the rule set of a player without a god power.
type Base struct{}

func (Base) MoveActions(w *model.Worker, g *model.Game) []model.Action {
	return moveActions(w, g, nil)
}

func (Base) BuildActions(w *model.Worker, g *model.Game) []model.Action {
	return buildActions(w, g, false)
}

func (Base) Apply(a model.Action, p *model.Player, g *model.Game) (bool, error) {
	return apply(a, p, g, plainMove, climbed)
}

// enterFunc decides whether a move may target a cell held by occupant.
type enterFunc func(to *model.Cell, d model.Direction, w, occupant *model.Worker, g *model.Game) bool

// mover relocates w (and whoever is in its way) from one cell to the next.
type mover func(w *model.Worker, to *model.Cell, d model.Direction, g *model.Game) error

type winCheck func(from, to *model.Cell) bool

func moveActions(w *model.Worker, g *model.Game, enter enterFunc) []model.Action {
	from, err := g.CellOf(w)
	if err != nil {
		return nil
	}
	actions := make([]model.Action, 0, len(model.Directions))
	for _, d := range model.Directions {
		to, err := g.Board.Step(from, d)
		if err != nil || to.Dome {
			continue
		}
		delta := model.HeightDelta(from, to)
		if delta > 1 {
			continue
		}
		if occupant := g.WorkerAt(to); occupant != nil {
			if enter == nil || !enter(to, d, w, occupant, g) {
				continue
			}
		}
		actions = append(actions, model.Action{Kind: model.Move, Worker: w.Category, Dir: d, Delta: delta})
	}
	return actions
}

// buildActions lists floors then domes; anyHeight allows domes below the top level.
func buildActions(w *model.Worker, g *model.Game, anyHeight bool) []model.Action {
	from, err := g.CellOf(w)
	if err != nil {
		return nil
	}
	var floors, domes []model.Action
	for _, d := range model.Directions {
		to, err := g.Board.Step(from, d)
		if err != nil || to.Dome || g.WorkerAt(to) != nil {
			continue
		}
		if to.Height < model.MaxHeight {
			floors = append(floors, model.Action{Kind: model.BuildFloor, Worker: w.Category, Dir: d, Delta: to.Height + 1})
		}
		if to.Height == model.MaxHeight || anyHeight {
			domes = append(domes, model.Action{Kind: model.BuildDome, Worker: w.Category, Dir: d, Delta: to.Height})
		}
	}
	return append(floors, domes...)
}

// target resolves the acting worker and the cell its action points at.
func target(a model.Action, p *model.Player, g *model.Game) (*model.Worker, *model.Cell, *model.Cell, error) {
	w, err := p.Worker(a.Worker)
	if err != nil {
		return nil, nil, nil, err
	}
	from, err := g.CellOf(w)
	if err != nil {
		return nil, nil, nil, err
	}
	to, err := g.Board.Step(from, a.Dir)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%s: %v: %w", a, err, model.ErrInvalidTarget)
	}
	return w, from, to, nil
}

func apply(a model.Action, p *model.Player, g *model.Game, move mover, wins winCheck) (bool, error) {
	switch a.Kind {
	case model.Move:
		w, from, to, err := target(a, p, g)
		if err != nil {
			return false, err
		}
		if err := move(w, to, a.Dir, g); err != nil {
			return false, err
		}
		a.Delta = model.HeightDelta(from, to)
		p.Log = append(p.Log, a)
		return wins(from, to), nil
	case model.BuildFloor:
		_, _, to, err := target(a, p, g)
		if err != nil {
			return false, err
		}
		if g.WorkerAt(to) != nil {
			return false, fmt.Errorf("%s: %w", a, model.ErrOccupied)
		}
		if err := to.Raise(); err != nil {
			return false, err
		}
		a.Delta = to.Height
		p.Log = append(p.Log, a)
		return false, nil
	case model.BuildDome:
		_, _, to, err := target(a, p, g)
		if err != nil {
			return false, err
		}
		if g.WorkerAt(to) != nil {
			return false, fmt.Errorf("%s: %w", a, model.ErrOccupied)
		}
		if err := to.Cap(); err != nil {
			return false, err
		}
		a.Delta = to.Height
		p.Log = append(p.Log, a)
		return false, nil
	case model.End, model.Lose:
		p.Log = append(p.Log, model.Action{Kind: a.Kind})
		return false, nil
	default:
		return false, fmt.Errorf("kind %d: %w", a.Kind, ErrUnknownAction)
	}
}

func plainMove(w *model.Worker, to *model.Cell, _ model.Direction, g *model.Game) error {
	return g.MoveWorker(w, to)
}

func climbed(from, to *model.Cell) bool {
	return from.Height == 2 && to.Height == model.MaxHeight
}
