package server

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/zucenko/santorini/model"
)

type GameServer struct {
	Config       Config
	GameRequests chan GameRequest
	Upgrader     *websocket.Upgrader

	mu           sync.Mutex
	GameSessions []*GameSession
}

type GameSessionState int

const (
	GS_NEW GameSessionState = iota
	GS_WAIT
	GS_SETUP
	GS_PLAY
	GS_ERR
	GS_OVER
)

type GameSession struct {
	Key    string
	State  GameSessionState
	Game   *model.Game
	Layout *Layout
	Seats  int
	// reserved counts seats promised to joining players; guarded by GameServer.mu.
	reserved int

	PlayerSessions []*PlayerSession
	Active         int
	Placing        model.Category
	Pending        []model.Action
	Winner         int32

	Errors                chan int32
	Events                chan PlayerEvent
	PlayerConnectRequests chan PlayerConnectRequest
	done                  chan struct{}

	mu     sync.Mutex
	status SessionStatus
}

type PlayerSessionState int

const (
	PS_NEW PlayerSessionState = iota + 1
	PS_PLAY
	PS_OVER
	PS_ERR
	PS_ERR_SEC
)

type PlayerSession struct {
	State       PlayerSessionState
	Id          int32
	Name        string
	GameSession *GameSession
	Conn        *websocket.Conn
	GameOver    chan struct{}

	MessagesToSend chan model.ServerMessage

	DebugInMessages  int
	DebugOutMessages int
	DebugLastMessage time.Time
	DebugLastPing    time.Time
	DebugPings       int
}

type SessionStatus struct {
	Key     string             `json:"key"`
	State   string             `json:"state"`
	Seats   int                `json:"seats"`
	Players []model.PlayerView `json:"players"`
	Winner  string             `json:"winner,omitempty"`
}
