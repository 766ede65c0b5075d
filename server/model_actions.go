package server

import (
	"encoding/gob"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
	"github.com/zucenko/santorini/model"
	"github.com/zucenko/santorini/rules"
)

func NewGameServer(cfg Config) (*GameServer, error) {
	// fail early on a broken layout rather than on the first join
	if _, err := LoadLayout(cfg.Layout); err != nil {
		return nil, err
	}
	return &GameServer{
		Config:       cfg,
		GameSessions: make([]*GameSession, 0),
		GameRequests: make(chan GameRequest),
		Upgrader:     &websocket.Upgrader{},
	}, nil
}

func (s *GameServer) HandleHttpCall() http.HandlerFunc {
	timeout := s.Config.JoinTimeout
	return func(w http.ResponseWriter, r *http.Request) {
		log.Printf("HandleHttpCall - connection received")

		cardName := r.URL.Query().Get("card")
		if cardName == "" {
			cardName = "mortal"
		}
		card, err := rules.CardByName(cardName)
		if err != nil {
			log.Warnf("HandleHttpCall %v", err)
			w.WriteHeader(GAME_INVALIDE.ToHttp())
			return
		}

		if !websocket.IsWebSocketUpgrade(r) {
			log.Warn("HandleHttpCall not a websocket upgrade")
			w.WriteHeader(HTTP_BAD_REQUEST)
			return
		}

		// Loop never blocks on a handler that already gave up
		gcas := make(chan GameContextAwaiting, 1)
		select {
		case s.GameRequests <- GameRequest{GameContextAwaiting: gcas}:
		case <-time.After(timeout):
			log.Warn("GameRequests TIMEOUTED")
			w.WriteHeader(HTTP_TIMEOUT)
			return
		}

		var gca GameContextAwaiting
		select {
		case gca = <-gcas:
			log.Printf("HandleHttpCall GameContextAwaiting <- code:%d", gca.ResponseCode)
			if gca.ResponseCode != GAME_READY {
				w.WriteHeader(gca.ResponseCode.ToHttp())
				return
			}
		case <-time.After(timeout):
			log.Warnf("HandleHttpCall GameContextAwaiting <- TIMEOUTED")
			go func() {
				if late := <-gcas; late.GameSession != nil {
					s.release(late.GameSession)
				}
			}()
			w.WriteHeader(HTTP_TIMEOUT)
			return
		}
		seated := false
		defer func() {
			if !seated {
				s.release(gca.GameSession)
			}
		}()

		con, err := s.Upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade already answered the client
			log.Printf("HandleHttpCall websocket upgrade err %v", err)
			return
		}
		defer con.Close()

		gameOver := make(chan struct{})
		select {
		case gca.GameSession.PlayerConnectRequests <- PlayerConnectRequest{
			Con:      con,
			GameOver: gameOver,
			Name:     r.URL.Query().Get("name"),
			Card:     card}:
			seated = true
		case <-time.After(timeout):
			log.Warnf("HandleHttpCall PlayerConnectRequests TIMEOUTED")
			return
		}

		log.Info("HandleHttpCall waiting for game over")
		<-gameOver
	}
}

func (s *GameServer) HandleStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(s.Status()); err != nil {
			log.Warnf("HandleStatus encode %v", err)
		}
	}
}

func (s *GameServer) Status() []SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	statuses := make([]SessionStatus, 0, len(s.GameSessions))
	for _, gs := range s.GameSessions {
		statuses = append(statuses, gs.Status())
	}
	return statuses
}

func (s *GameServer) Loop() {
	log.Printf("GameServer.Loop starting")
	for gameReq := range s.GameRequests {
		gs, err := s.session()
		if err != nil {
			log.Errorf("GameServer.Loop cannot create session: %v", err)
			gameReq.GameContextAwaiting <- GameContextAwaiting{ResponseCode: GAME_NOT_FOUND}
			continue
		}
		gameReq.GameContextAwaiting <- GameContextAwaiting{
			ResponseCode: GAME_READY,
			GameSession:  gs,
		}
	}
}

// release gives back a seat whose player never reached the session.
func (s *GameServer) release(gs *GameSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gs.reserved > 0 {
		gs.reserved--
	}
	log.WithField("session", gs.Key).Debugf("seat released, %d reserved", gs.reserved)
}

// Reserved counts the seats promised to joining players across live sessions.
func (s *GameServer) Reserved() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, gs := range s.GameSessions {
		n += gs.reserved
	}
	return n
}

// session reserves a seat in a session with room, creating one when needed.
func (s *GameServer) session() (*GameSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	live := s.GameSessions[:0]
	for _, gs := range s.GameSessions {
		if !gs.Status().Finished() {
			live = append(live, gs)
		}
	}
	s.GameSessions = live
	for _, gs := range s.GameSessions {
		if gs.reserved < gs.Seats {
			gs.reserved++
			return gs, nil
		}
	}
	layout, err := LoadLayout(s.Config.Layout)
	if err != nil {
		return nil, err
	}
	log.Info("create GameSession")
	gs := NewGameSession(layout, s.Config.Players)
	go gs.Loop()
	gs.reserved++
	s.GameSessions = append(s.GameSessions, gs)
	return gs, nil
}

func (st SessionStatus) Finished() bool {
	return st.State == GS_OVER.Name() || st.State == GS_ERR.Name()
}

func (gs *GameSession) Loop() {
	log.WithField("session", gs.Key).Info("GameSession.Loop start")
	defer close(gs.done)
	for !gs.State.Finished() {
		var out outbox
		select {
		case pcr := <-gs.PlayerConnectRequests:
			out = gs.addPlayer(pcr)
		case errPlayer := <-gs.Errors:
			out = gs.drop(errPlayer)
		case pe := <-gs.Events:
			out = gs.Turn(pe)
		}
		gs.deliver(out)
		gs.publish()
	}
	gs.finish()
	log.WithField("session", gs.Key).Infof("GameSession.Loop ended %s", gs.State.Name())
}

func (gs *GameSession) deliver(out outbox) {
	for _, ps := range gs.PlayerSessions {
		m, found := out[ps.Id]
		if !found || ps.State == PS_ERR || ps.State == PS_OVER {
			continue
		}
		ps.MessagesToSend <- *m
	}
}

// finish lets the writers drain and release the waiting http handlers.
func (gs *GameSession) finish() {
	for _, ps := range gs.PlayerSessions {
		if ps.State == PS_PLAY {
			ps.State = PS_OVER
		}
		close(ps.MessagesToSend)
	}
}

func (gs *GameSession) addPlayer(pcr PlayerConnectRequest) outbox {
	id, err := gs.seat(pcr.Name, pcr.Card)
	if err != nil {
		log.Warnf("GameSession.addPlayer %v", err)
		close(pcr.GameOver)
		return nil
	}
	ps := &PlayerSession{
		State:          PS_NEW,
		Id:             id,
		Name:           pcr.Name,
		GameSession:    gs,
		Conn:           pcr.Con,
		GameOver:       pcr.GameOver,
		MessagesToSend: make(chan model.ServerMessage, 32),
	}
	gs.PlayerSessions = append(gs.PlayerSessions, ps)
	if ps.Conn != nil {
		conn := ps.Conn
		conn.SetPingHandler(
			func(message string) error {
				err := conn.WriteControl(websocket.PongMessage, []byte(message), time.Now().Add(time.Second))
				ps.DebugLastPing = time.Now()
				ps.DebugPings++
				if err == websocket.ErrCloseSent {
					return nil
				}
				var ne net.Error
				if errors.As(err, &ne) && ne.Timeout() {
					return nil
				}
				return err
			})
		go ps.LoopChannelRead()
		go ps.LoopChannelWrite()
	}
	if !gs.full() {
		return nil
	}
	for _, other := range gs.PlayerSessions {
		other.State = PS_PLAY
	}
	return gs.start()
}

func (ps *PlayerSession) report() {
	select {
	case ps.GameSession.Errors <- ps.Id:
	case <-ps.GameSession.done:
	}
}

func (ps *PlayerSession) LoopChannelRead() {
	log.Printf("LoopChannelRead STARTED %c", ps.Id)
	for {
		messageType, r, err := ps.Conn.NextReader()
		if err != nil {
			log.Printf("LoopChannelRead %c err reading message from Conn %v", ps.Id, err)
			ps.report()
			break
		}
		log.Debugf("LoopChannelRead received message type: %d", messageType)
		cm := model.ClientMessage{}
		if err := gob.NewDecoder(r).Decode(&cm); err != nil {
			log.Warnf("LoopChannelRead %c cant decode %v", ps.Id, err)
			ps.report()
			break
		}
		ps.DebugInMessages++
		ps.DebugLastMessage = time.Now()
		select {
		case ps.GameSession.Events <- PlayerEvent{Player: ps.Id, Message: cm}:
		case <-ps.GameSession.done:
			log.Printf("LoopChannelRead %c session already over", ps.Id)
			return
		}
	}
	log.Printf("LoopChannelRead ENDED %c", ps.Id)
}

// LoopChannelWrite only consumes, so a full buffer never sticks; a failed
// connection keeps draining until the session closes the channel.
func (ps *PlayerSession) LoopChannelWrite() {
	log.Printf("PlayerSession.LoopChannelWrite STARTED %c", ps.Id)
	defer close(ps.GameOver)
	failed := false
	for mes := range ps.MessagesToSend {
		if failed {
			continue
		}
		if err := ps.write(mes); err != nil {
			log.Warnf("PlayerSession.LoopChannelWrite %c: %v", ps.Id, err)
			failed = true
			go ps.report()
			continue
		}
		ps.DebugOutMessages++
	}
	log.Printf("LoopChannelWrite ENDED %c", ps.Id)
}

func (ps *PlayerSession) write(mes model.ServerMessage) error {
	w, err := ps.Conn.NextWriter(websocket.BinaryMessage)
	if err != nil {
		return err
	}
	if err := gob.NewEncoder(w).Encode(mes); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}
