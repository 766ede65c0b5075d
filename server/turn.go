package server

import (
	"fmt"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/zucenko/santorini/model"
	"github.com/zucenko/santorini/rules"
)

func NewGameSession(layout *Layout, seats int) *GameSession {
	gs := &GameSession{
		Key:                   uuid.NewString(),
		State:                 GS_NEW,
		Game:                  model.NewGame(layout.Board),
		Layout:                layout,
		Seats:                 seats,
		PlayerSessions:        make([]*PlayerSession, 0, seats),
		Errors:                make(chan int32),
		Events:                make(chan PlayerEvent),
		PlayerConnectRequests: make(chan PlayerConnectRequest),
		done:                  make(chan struct{}),
	}
	gs.publish()
	return gs
}

// seat registers a player in the next free seat; seats are named A, B, C.
func (gs *GameSession) seat(name string, card *model.Card) (int32, error) {
	if len(gs.Game.Players) >= gs.Seats {
		return 0, fmt.Errorf("session %s is full", gs.Key)
	}
	id := int32('A' + len(gs.Game.Players))
	if card == nil {
		card, _ = rules.CardByName("mortal")
	}
	if name == "" {
		name = string(rune(id))
	}
	gs.Game.Players = append(gs.Game.Players, model.NewPlayer(id, name, card))
	log.WithFields(log.Fields{"session": gs.Key, "player": string(rune(id)), "card": card.Name}).Info("player seated")
	if len(gs.Game.Players) < gs.Seats {
		gs.State = GS_WAIT
	}
	return id, nil
}

func (gs *GameSession) full() bool {
	return len(gs.Game.Players) == gs.Seats
}

// start places the layout's preset workers and asks for the first decision.
func (gs *GameSession) start() outbox {
	out := outbox{}
	for _, pr := range gs.Layout.Workers {
		p := gs.Game.Player(pr.Player)
		if p == nil {
			log.Warnf("layout worker for missing player %c ignored", pr.Player)
			continue
		}
		if err := gs.Game.PlaceWorker(p, pr.Category, pr.Row, pr.Col); err != nil {
			log.Warnf("layout worker %c/%d: %v", pr.Player, pr.Category, err)
		}
	}
	views := gs.playerViews()
	for _, p := range gs.Game.Players {
		out.to(p.Id).Setup = []model.Setup{{
			Rows:      gs.Game.Board.Rows,
			Cols:      gs.Game.Board.Cols,
			PlayerKey: p.Id,
			Players:   views,
		}}
	}
	gs.State = GS_SETUP
	gs.broadcastBoard(out)
	gs.advance(out)
	return out
}

func (gs *GameSession) playerViews() map[int32]model.PlayerView {
	views := make(map[int32]model.PlayerView)
	for _, p := range gs.Game.Players {
		views[p.Id] = model.PlayerView{Id: p.Id, Name: p.Name, Card: p.Card.Name, Lost: p.Lost}
	}
	return views
}

func (gs *GameSession) broadcastBoard(out outbox) {
	view := model.NewBoardView(gs.Game)
	out.broadcast(gs.Game, func(m *model.ServerMessage) {
		m.Boards = append(m.Boards, view)
	})
}

func (gs *GameSession) active() *model.Player {
	return gs.Game.Players[gs.Active]
}

// advance asks the next player for a placement while workers are missing, then for actions.
func (gs *GameSession) advance(out outbox) {
	if gs.State == GS_SETUP {
		for _, p := range gs.Game.Alive() {
			for _, w := range p.Workers {
				if w.Placed {
					continue
				}
				gs.Active = gs.seatOf(p)
				gs.Placing = w.Category
				free := gs.Game.FreeCells()
				offer := model.PlacementOffer{PlayerKey: p.Id, Category: w.Category}
				for _, c := range free {
					offer.Free = append(offer.Free, model.Point{Row: c.Row, Col: c.Col})
				}
				out.to(p.Id).Placements = []model.PlacementOffer{offer}
				return
			}
		}
		log.WithField("session", gs.Key).Info("setup done")
		gs.State = GS_PLAY
		gs.Active = gs.seatOf(gs.Game.Alive()[0])
		if err := gs.Game.BeginTurn(gs.active()); err != nil {
			log.Errorf("begin turn: %v", err)
		}
	}
	gs.offer(out)
}

func (gs *GameSession) seatOf(p *model.Player) int {
	for i, other := range gs.Game.Players {
		if other == p {
			return i
		}
	}
	return -1
}

// offer sends the active player its legal actions, resolving forced losses on the way.
func (gs *GameSession) offer(out outbox) {
	for gs.State == GS_PLAY {
		p := gs.active()
		actions, err := rules.NextPossibleActions(p, gs.Game)
		if err != nil {
			log.Errorf("session %s: next actions of %c: %v", gs.Key, p.Id, err)
			gs.State = GS_ERR
			return
		}
		if len(actions) == 1 && actions[0].Kind == model.Lose {
			if _, err := rules.ApplyAction(actions[0], p, gs.Game); err != nil {
				log.Errorf("session %s: lose of %c: %v", gs.Key, p.Id, err)
			}
			out.broadcast(gs.Game, func(m *model.ServerMessage) {
				m.Results = append(m.Results, model.ActionResult{PlayerKey: p.Id, Action: actions[0], Success: true})
			})
			gs.eliminate(p, out)
			continue
		}
		gs.Pending = actions
		out.to(p.Id).Turns = []model.TurnOffer{{PlayerKey: p.Id, Actions: actions}}
		return
	}
}

// nextTurn hands the turn to the next player still in the game.
func (gs *GameSession) nextTurn() {
	n := len(gs.Game.Players)
	for i := 1; i <= n; i++ {
		idx := (gs.Active + i) % n
		if !gs.Game.Players[idx].Lost {
			gs.Active = idx
			break
		}
	}
	gs.Pending = nil
	if err := gs.Game.BeginTurn(gs.active()); err != nil {
		log.Errorf("begin turn: %v", err)
	}
}

func (gs *GameSession) eliminate(p *model.Player, out outbox) {
	wasActive := gs.State == GS_PLAY && gs.active() == p
	gs.Game.Eliminate(p)
	log.WithFields(log.Fields{"session": gs.Key, "player": string(rune(p.Id))}).Info("player eliminated")
	gs.broadcastBoard(out)
	alive := gs.Game.Alive()
	if len(alive) == 1 {
		gs.over(alive[0].Id, out)
		return
	}
	if len(alive) == 0 {
		gs.State = GS_ERR
		return
	}
	if wasActive {
		gs.nextTurn()
	}
}

func (gs *GameSession) over(winner int32, out outbox) {
	gs.State = GS_OVER
	gs.Winner = winner
	gs.Pending = nil
	log.WithFields(log.Fields{"session": gs.Key, "winner": string(rune(winner))}).Info("game over")
	out.broadcast(gs.Game, func(m *model.ServerMessage) {
		m.Over = append(m.Over, model.GameOver{Winner: winner})
	})
}

func (gs *GameSession) reject(out outbox, pe PlayerEvent, a model.Action, err error) {
	log.Warnf("session %s: player %c: %v", gs.Key, pe.Player, err)
	out.to(pe.Player).Results = append(out.to(pe.Player).Results, model.ActionResult{
		PlayerKey: pe.Player,
		Action:    a,
		Error:     err.Error(),
	})
}

// Turn handles one message of a player and returns what everybody has to be told.
func (gs *GameSession) Turn(pe PlayerEvent) outbox {
	out := outbox{}
	switch gs.State {
	case GS_SETUP:
		gs.place(pe, out)
	case GS_PLAY:
		gs.act(pe, out)
	default:
		gs.reject(out, pe, model.Action{}, fmt.Errorf("game is %s", gs.State.Name()))
	}
	return out
}

func (gs *GameSession) place(pe PlayerEvent, out outbox) {
	p := gs.active()
	if pe.Player != p.Id {
		gs.reject(out, pe, model.Action{}, fmt.Errorf("not your placement"))
		return
	}
	if pe.Message.Place == nil {
		gs.reject(out, pe, model.Action{}, fmt.Errorf("placement expected"))
		gs.advance(out)
		return
	}
	at := *pe.Message.Place
	if err := gs.Game.PlaceWorker(p, gs.Placing, at.Row, at.Col); err != nil {
		gs.reject(out, pe, model.Action{}, err)
		gs.advance(out)
		return
	}
	gs.broadcastBoard(out)
	gs.advance(out)
}

func (gs *GameSession) act(pe PlayerEvent, out outbox) {
	p := gs.active()
	if pe.Player != p.Id {
		gs.reject(out, pe, model.Action{}, fmt.Errorf("not your turn"))
		return
	}
	if pe.Message.Action == nil {
		gs.reject(out, pe, model.Action{}, fmt.Errorf("action expected"))
		return
	}
	a := *pe.Message.Action
	if !offered(gs.Pending, a) {
		gs.reject(out, pe, a, fmt.Errorf("%s not offered", a))
		out.to(p.Id).Turns = []model.TurnOffer{{PlayerKey: p.Id, Actions: gs.Pending}}
		return
	}
	win, err := rules.ApplyAction(a, p, gs.Game)
	if err != nil {
		gs.reject(out, pe, a, err)
		out.to(p.Id).Turns = []model.TurnOffer{{PlayerKey: p.Id, Actions: gs.Pending}}
		return
	}
	out.broadcast(gs.Game, func(m *model.ServerMessage) {
		m.Results = append(m.Results, model.ActionResult{PlayerKey: p.Id, Action: a, Success: true, Win: win})
	})
	switch {
	case win:
		gs.broadcastBoard(out)
		gs.over(p.Id, out)
		return
	case a.Kind == model.Lose:
		gs.eliminate(p, out)
	case a.Kind == model.End:
		gs.nextTurn()
	default:
		gs.broadcastBoard(out)
	}
	gs.offer(out)
}

func offered(actions []model.Action, a model.Action) bool {
	for _, o := range actions {
		if o == a {
			return true
		}
	}
	return false
}

// drop handles a lost connection: before the game starts the session dies, later the player loses.
func (gs *GameSession) drop(id int32) outbox {
	out := outbox{}
	for _, ps := range gs.PlayerSessions {
		if ps.Id == id {
			ps.State = PS_ERR
		}
	}
	switch gs.State {
	case GS_NEW, GS_WAIT:
		log.Warnf("session %s: %c left the lobby, killing session", gs.Key, id)
		gs.State = GS_ERR
		for _, ps := range gs.PlayerSessions {
			if ps.Id != id {
				ps.State = PS_ERR_SEC
			}
		}
	case GS_SETUP, GS_PLAY:
		p := gs.Game.Player(id)
		if p == nil || p.Lost {
			return out
		}
		wasActive := gs.active() == p
		gs.Game.ForceLose(p)
		out.broadcast(gs.Game, func(m *model.ServerMessage) {
			m.Results = append(m.Results, model.ActionResult{PlayerKey: id, Action: model.LoseAction(), Success: true})
		})
		gs.eliminate(p, out)
		if gs.State.Finished() {
			return out
		}
		if gs.State == GS_SETUP || wasActive {
			gs.advance(out)
		}
	}
	return out
}

func (gs *GameSession) publish() {
	st := SessionStatus{
		Key:   gs.Key,
		State: gs.State.Name(),
		Seats: gs.Seats,
	}
	for _, p := range gs.Game.Players {
		st.Players = append(st.Players, model.PlayerView{Id: p.Id, Name: p.Name, Card: p.Card.Name, Lost: p.Lost})
	}
	if gs.State == GS_OVER {
		st.Winner = string(rune(gs.Winner))
	}
	gs.mu.Lock()
	gs.status = st
	gs.mu.Unlock()
}

func (gs *GameSession) Status() SessionStatus {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	return gs.status
}
