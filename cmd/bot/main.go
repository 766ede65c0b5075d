package main

import (
	"encoding/gob"
	"flag"
	"math/rand"
	"net/url"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
	"github.com/zucenko/santorini/model"
)

type bot struct {
	conn  *websocket.Conn
	rnd   *rand.Rand
	key   int32
	board model.BoardView
}

func main() {
	var (
		addr = flag.String("url", "ws://localhost:8080/play", "ws url")
		name = flag.String("name", "bot", "player name")
		card = flag.String("card", "mortal", "god card")
		seed = flag.Int64("seed", time.Now().UnixNano(), "random seed")
	)
	flag.Parse()

	u, err := url.Parse(*addr)
	if err != nil {
		log.Fatalf("url: %v", err)
	}
	q := u.Query()
	q.Set("name", *name)
	q.Set("card", *card)
	u.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	b := &bot{conn: conn, rnd: rand.New(rand.NewSource(*seed))}
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	go func() {
		<-stop
		conn.Close()
	}()

	for {
		_, r, err := conn.NextReader()
		if err != nil {
			log.Infof("connection closed: %v", err)
			return
		}
		var m model.ServerMessage
		if err := gob.NewDecoder(r).Decode(&m); err != nil {
			log.Warnf("decode: %v", err)
			return
		}
		if done := b.handle(m); done {
			return
		}
	}
}

func (b *bot) handle(m model.ServerMessage) bool {
	for _, s := range m.Setup {
		b.key = s.PlayerKey
		log.Infof("seated as %c on %dx%d", s.PlayerKey, s.Rows, s.Cols)
	}
	for _, r := range m.Results {
		if r.Error != "" && r.PlayerKey == b.key {
			log.Warnf("rejected %s: %s", r.Action, r.Error)
		}
	}
	if len(m.Boards) > 0 {
		b.board = m.Boards[len(m.Boards)-1]
	}
	for _, p := range m.Placements {
		if p.PlayerKey != b.key || len(p.Free) == 0 {
			continue
		}
		at := p.Free[b.rnd.Intn(len(p.Free))]
		b.send(model.ClientMessage{Place: &at})
	}
	for _, t := range m.Turns {
		if t.PlayerKey != b.key || len(t.Actions) == 0 {
			continue
		}
		a := b.choose(t.Actions)
		b.send(model.ClientMessage{Action: &a})
	}
	for _, o := range m.Over {
		if o.Winner == b.key {
			log.Info("won")
		} else {
			log.Infof("lost, %c won", o.Winner)
		}
		return true
	}
	return false
}

// choose takes a climb onto the top level when there is one, otherwise anything.
func (b *bot) choose(actions []model.Action) model.Action {
	for _, a := range actions {
		if a.Kind != model.Move || a.Delta != 1 {
			continue
		}
		if to, ok := b.target(a); ok && to.Height == model.MaxHeight {
			return a
		}
	}
	return actions[b.rnd.Intn(len(actions))]
}

func (b *bot) target(a model.Action) (model.CellView, bool) {
	var from *model.CellView
	for i, c := range b.board.Cells {
		if c.HasWorker && c.PlayerId == b.key && c.Category == a.Worker {
			from = &b.board.Cells[i]
		}
	}
	if from == nil || !a.Dir.Valid() {
		return model.CellView{}, false
	}
	dr, dc := a.Dir.Offset()
	for _, c := range b.board.Cells {
		if c.Row == from.Row+dr && c.Col == from.Col+dc {
			return c, true
		}
	}
	return model.CellView{}, false
}

func (b *bot) send(cm model.ClientMessage) {
	w, err := b.conn.NextWriter(websocket.BinaryMessage)
	if err != nil {
		log.Warnf("writer: %v", err)
		return
	}
	if err := gob.NewEncoder(w).Encode(cm); err != nil {
		log.Warnf("encode: %v", err)
	}
	w.Close()
}
