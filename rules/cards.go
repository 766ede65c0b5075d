package rules

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/zucenko/santorini/model"
)

var ErrUnknownCard = errors.New("unknown card")

var cards = map[string]func() *model.Card{
	"mortal": func() *model.Card {
		return &model.Card{Name: "mortal", Power: Base{}, Restriction: Identity{}}
	},
	"apollo": func() *model.Card {
		return &model.Card{Name: "apollo", Power: Apollo{}, Restriction: Identity{}}
	},
	"athena": func() *model.Card {
		return &model.Card{Name: "athena", Power: Base{}, Restriction: NoClimb{}}
	},
	"atlas": func() *model.Card {
		return &model.Card{Name: "atlas", Power: Atlas{}, Restriction: Identity{}}
	},
	"minotaur": func() *model.Card {
		return &model.Card{Name: "minotaur", Power: Minotaur{}, Restriction: Identity{}}
	},
	"pan": func() *model.Card {
		return &model.Card{Name: "pan", Power: Pan{}, Restriction: Identity{}}
	},
}

// CardByName is meant for setup; the engine only ever uses the returned value.
func CardByName(name string) (*model.Card, error) {
	mk, found := cards[strings.ToLower(strings.TrimSpace(name))]
	if !found {
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownCard)
	}
	return mk(), nil
}

func CardNames() []string {
	names := make([]string, 0, len(cards))
	for n := range cards {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Identity leaves enemy candidates alone.
type Identity struct{}

func (Identity) FixEnemyActions(candidates []model.Action, _ *model.Game, _ *model.Player) []model.Action {
	return candidates
}

// NoClimb forbids opponents to move up after the actor moved up this turn.
type NoClimb struct{}

func (NoClimb) FixEnemyActions(candidates []model.Action, _ *model.Game, actor *model.Player) []model.Action {
	if !actor.Log.MovedUp() {
		return candidates
	}
	kept := make([]model.Action, 0, len(candidates))
	for _, a := range candidates {
		if a.Kind == model.Move && a.Delta > 0 {
			continue
		}
		kept = append(kept, a)
	}
	if len(kept) == 0 {
		return []model.Action{model.LoseAction()}
	}
	return kept
}

// Apollo may move into an opponent's cell, sending that worker to the vacated one.
type Apollo struct{ Base }

func (Apollo) MoveActions(w *model.Worker, g *model.Game) []model.Action {
	return moveActions(w, g, opponent)
}

func (Apollo) Apply(a model.Action, p *model.Player, g *model.Game) (bool, error) {
	return apply(a, p, g, swapMove, climbed)
}

func opponent(_ *model.Cell, _ model.Direction, w, occupant *model.Worker, _ *model.Game) bool {
	return occupant.Player != w.Player
}

func swapMove(w *model.Worker, to *model.Cell, _ model.Direction, g *model.Game) error {
	occupant := g.WorkerAt(to)
	if occupant == nil {
		return g.MoveWorker(w, to)
	}
	if occupant.Player == w.Player || to.Dome {
		return fmt.Errorf("swap into %d,%d: %w", to.Row, to.Col, model.ErrOccupied)
	}
	g.SwapWorkers(w, occupant)
	return nil
}

// Minotaur may push an opponent one cell further in the direction of the move.
type Minotaur struct{ Base }

func (Minotaur) MoveActions(w *model.Worker, g *model.Game) []model.Action {
	return moveActions(w, g, pushable)
}

func (Minotaur) Apply(a model.Action, p *model.Player, g *model.Game) (bool, error) {
	return apply(a, p, g, pushMove, climbed)
}

func pushable(to *model.Cell, d model.Direction, w, occupant *model.Worker, g *model.Game) bool {
	if occupant.Player == w.Player {
		return false
	}
	beyond, err := g.Board.Step(to, d)
	return err == nil && !beyond.Dome && g.WorkerAt(beyond) == nil
}

func pushMove(w *model.Worker, to *model.Cell, d model.Direction, g *model.Game) error {
	occupant := g.WorkerAt(to)
	if occupant == nil {
		return g.MoveWorker(w, to)
	}
	if to.Dome || !pushable(to, d, w, occupant, g) {
		return fmt.Errorf("push from %d,%d: %w", to.Row, to.Col, model.ErrOccupied)
	}
	beyond, _ := g.Board.Step(to, d)
	if err := g.MoveWorker(occupant, beyond); err != nil {
		return err
	}
	return g.MoveWorker(w, to)
}

// Atlas may dome any level.
type Atlas struct{ Base }

func (Atlas) BuildActions(w *model.Worker, g *model.Game) []model.Action {
	return buildActions(w, g, true)
}

// Pan also wins by stepping down two or more levels.
type Pan struct{ Base }

func (Pan) Apply(a model.Action, p *model.Player, g *model.Game) (bool, error) {
	return apply(a, p, g, plainMove, climbedOrDropped)
}

func climbedOrDropped(from, to *model.Cell) bool {
	return climbed(from, to) || model.HeightDelta(from, to) <= -2
}
