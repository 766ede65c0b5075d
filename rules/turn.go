// Package rules decides what a player may do next and applies the chosen action.
//
// The turn phase is never stored: it is read off the player's ActionLog.
// No log entry of kind Move means the player still has to move, a Move without
// a build means the worker that moved has to build, anything else leaves only End.
// The enemy restriction of the player who acted last is applied to every other
// player's candidates, never to the actor's own.
package rules

import (
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/zucenko/santorini/model"
)

var (
	ErrUnknownAction = errors.New("unknown action")
	ErrTurnOver      = errors.New("turn already over")
)

func powerOf(p *model.Player) model.Power {
	if p.Card == nil || p.Card.Power == nil {
		return Base{}
	}
	return p.Card.Power
}

func restrictionOf(p *model.Player) model.Restriction {
	if p.Card == nil || p.Card.Restriction == nil {
		return Identity{}
	}
	return p.Card.Restriction
}

// NextPossibleActions lists the legal actions of p in its current phase.
// It fails with ErrTurnOver once p logged End or Lose.
func NextPossibleActions(p *model.Player, g *model.Game) ([]model.Action, error) {
	if p.Lost {
		return nil, fmt.Errorf("player %d: %w", p.Id, model.ErrEliminated)
	}
	if p.Log.Terminal() {
		return nil, fmt.Errorf("player %d: %w", p.Id, ErrTurnOver)
	}
	power := powerOf(p)
	var actions []model.Action
	switch {
	case !p.Log.HasMoved():
		for _, w := range p.Workers {
			if w != nil && w.Placed {
				actions = append(actions, power.MoveActions(w, g)...)
			}
		}
	case !p.Log.HasBuilt():
		cat, _ := p.Log.MovedWorker()
		w, err := p.Worker(cat)
		if err != nil {
			return nil, err
		}
		actions = power.BuildActions(w, g)
	default:
		actions = []model.Action{model.EndAction()}
	}
	if len(actions) == 0 {
		actions = []model.Action{model.LoseAction()}
	}
	if actor := g.LastActor; actor != nil && actor != p && !actor.Lost {
		actions = restrictionOf(actor).FixEnemyActions(actions, g, actor)
	}
	return actions, nil
}

// ApplyAction performs a on behalf of p and reports whether it wins the game.
// Nothing is mutated when an error is returned.
func ApplyAction(a model.Action, p *model.Player, g *model.Game) (bool, error) {
	if !a.Kind.Valid() {
		return false, fmt.Errorf("kind %d: %w", a.Kind, ErrUnknownAction)
	}
	if p.Lost {
		return false, fmt.Errorf("player %d: %w", p.Id, model.ErrEliminated)
	}
	if p.Log.Terminal() {
		return false, fmt.Errorf("player %d: %w", p.Id, ErrTurnOver)
	}
	win, err := powerOf(p).Apply(a, p, g)
	if err != nil {
		return false, err
	}
	g.LastActor = p
	log.WithFields(log.Fields{
		"player": p.Id,
		"action": a.String(),
		"win":    win,
	}).Debug("action applied")
	return win, nil
}
