package server

import (
	"fmt"

	"github.com/gorilla/websocket"
	"github.com/zucenko/santorini/model"
)

const HTTP_SUCCESS = 200
const HTTP_BAD_REQUEST = 400
const HTTP_NOT_FOUND = 404
const HTTP_TIMEOUT = 408

type ResponseCode int

const (
	GAME_READY ResponseCode = iota
	GAME_NOT_FOUND
	GAME_INVALIDE
)

func (h ResponseCode) ToHttp() int {
	switch h {
	case GAME_READY:
		return HTTP_SUCCESS
	case GAME_NOT_FOUND:
		return HTTP_NOT_FOUND
	case GAME_INVALIDE:
		return HTTP_BAD_REQUEST
	default:
		panic(h)
	}
}

func (gss GameSessionState) Name() string {
	switch gss {
	case GS_NEW:
		return "GS_NEW"
	case GS_WAIT:
		return "GS_WAIT"
	case GS_SETUP:
		return "GS_SETUP"
	case GS_PLAY:
		return "GS_PLAY"
	case GS_ERR:
		return "GS_ERR"
	case GS_OVER:
		return "GS_OVER"
	default:
		return fmt.Sprintf("n/a:%d", gss)
	}
}

func (gss GameSessionState) Finished() bool {
	return gss == GS_OVER || gss == GS_ERR
}

func (ps PlayerSessionState) Name() string {
	switch ps {
	case PS_NEW:
		return "NEW"
	case PS_PLAY:
		return "PLAY"
	case PS_OVER:
		return "OVER"
	case PS_ERR:
		return "ERR"
	case PS_ERR_SEC:
		return "ERR_SEC"
	default:
		return "N/A"
	}
}

type GameContextAwaiting struct {
	ResponseCode ResponseCode
	GameSession  *GameSession
}

type GameRequest struct {
	GameContextAwaiting chan GameContextAwaiting
}

type PlayerConnectRequest struct {
	Con      *websocket.Conn
	GameOver chan struct{}
	Name     string
	Card     *model.Card
}

type PlayerEvent struct {
	Player  int32
	Message model.ClientMessage
}

// outbox collects what each player gets after one session step.
type outbox map[int32]*model.ServerMessage

func (o outbox) to(id int32) *model.ServerMessage {
	m, found := o[id]
	if !found {
		m = &model.ServerMessage{}
		o[id] = m
	}
	return m
}

func (o outbox) broadcast(g *model.Game, fill func(m *model.ServerMessage)) {
	for _, p := range g.Players {
		fill(o.to(p.Id))
	}
}
