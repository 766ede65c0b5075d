package server

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zucenko/santorini/model"
	"github.com/zucenko/santorini/rules"
)

func newSession(t *testing.T, layout string, cards ...string) *GameSession {
	t.Helper()
	l, err := ReadLayout(strings.NewReader(layout))
	require.NoError(t, err)
	gs := NewGameSession(l, len(cards))
	for _, name := range cards {
		card, err := rules.CardByName(name)
		require.NoError(t, err)
		_, err = gs.seat(name, card)
		require.NoError(t, err)
	}
	require.True(t, gs.full())
	return gs
}

func place(row, col int) model.ClientMessage {
	return model.ClientMessage{Place: &model.Point{Row: row, Col: col}}
}

func act(a model.Action) model.ClientMessage {
	return model.ClientMessage{Action: &a}
}

const emptyBoard = `
0 0 0 0 0
0 0 0 0 0
0 0 0 0 0
0 0 0 0 0
0 0 0 0 0
`

func TestSession_SetupPlacement(t *testing.T) {
	gs := newSession(t, emptyBoard, "mortal", "apollo")
	out := gs.start()

	require.Len(t, out['A'].Setup, 1)
	assert.Equal(t, int32('A'), out['A'].Setup[0].PlayerKey)
	assert.Equal(t, "apollo", out['A'].Setup[0].Players['B'].Card)
	require.Len(t, out['A'].Placements, 1)
	assert.Equal(t, model.Male, out['A'].Placements[0].Category)
	assert.Len(t, out['A'].Placements[0].Free, 25)
	assert.Empty(t, out['B'].Placements)
	assert.Equal(t, GS_SETUP, gs.State)

	out = gs.Turn(PlayerEvent{Player: 'B', Message: place(0, 0)})
	require.Len(t, out['B'].Results, 1)
	assert.NotEmpty(t, out['B'].Results[0].Error)

	out = gs.Turn(PlayerEvent{Player: 'A', Message: place(0, 0)})
	require.Len(t, out['A'].Placements, 1)
	assert.Equal(t, model.Female, out['A'].Placements[0].Category)
	assert.Len(t, out['A'].Placements[0].Free, 24)
	assert.Len(t, out['B'].Boards, 1)

	out = gs.Turn(PlayerEvent{Player: 'A', Message: place(0, 0)})
	require.Len(t, out['A'].Results, 1)
	assert.Contains(t, out['A'].Results[0].Error, model.ErrOccupied.Error())
	require.Len(t, out['A'].Placements, 1, "offer repeated")

	out = gs.Turn(PlayerEvent{Player: 'A', Message: place(0, 1)})
	require.Len(t, out['B'].Placements, 1)
	assert.Equal(t, model.Male, out['B'].Placements[0].Category)
	out = gs.Turn(PlayerEvent{Player: 'B', Message: place(4, 4)})
	require.Len(t, out['B'].Placements, 1)
	assert.Equal(t, model.Female, out['B'].Placements[0].Category)
	out = gs.Turn(PlayerEvent{Player: 'B', Message: place(4, 3)})

	assert.Equal(t, GS_PLAY, gs.State)
	assert.Equal(t, 0, gs.Active)
	require.Len(t, out['A'].Turns, 1)
	for _, a := range out['A'].Turns[0].Actions {
		assert.Equal(t, model.Move, a.Kind)
	}
}

const twoPlayers = `
0a 0  0  0  0
0  0  0  0  0
0  0  0A 0  0
0  0  0  0  0
0  0  0  0B 0b
`

func TestSession_TurnCycle(t *testing.T) {
	gs := newSession(t, twoPlayers, "mortal", "mortal")
	out := gs.start()
	require.Equal(t, GS_PLAY, gs.State)
	require.Len(t, out['A'].Turns, 1)
	assert.Empty(t, out['B'].Turns)

	east := model.Action{Kind: model.Move, Worker: model.Male, Dir: model.East}
	out = gs.Turn(PlayerEvent{Player: 'B', Message: act(east)})
	require.Len(t, out['B'].Results, 1)
	assert.Equal(t, "not your turn", out['B'].Results[0].Error)

	bogus := model.Action{Kind: model.Move, Worker: model.Male, Dir: model.East, Delta: 1}
	out = gs.Turn(PlayerEvent{Player: 'A', Message: act(bogus)})
	require.Len(t, out['A'].Results, 1)
	assert.False(t, out['A'].Results[0].Success)
	require.Len(t, out['A'].Turns, 1, "offer repeated")

	out = gs.Turn(PlayerEvent{Player: 'A', Message: act(east)})
	require.Len(t, out['B'].Results, 1)
	assert.True(t, out['B'].Results[0].Success)
	require.Len(t, out['A'].Turns, 1)
	builds := out['A'].Turns[0].Actions
	require.NotEmpty(t, builds)
	assert.Equal(t, model.BuildFloor, builds[0].Kind)

	out = gs.Turn(PlayerEvent{Player: 'A', Message: act(builds[0])})
	require.Len(t, out['A'].Turns, 1)
	assert.Equal(t, []model.Action{model.EndAction()}, out['A'].Turns[0].Actions)

	out = gs.Turn(PlayerEvent{Player: 'A', Message: act(model.EndAction())})
	assert.Equal(t, 1, gs.Active)
	require.Len(t, out['B'].Turns, 1)
	assert.Equal(t, model.Move, out['B'].Turns[0].Actions[0].Kind)
	assert.Empty(t, gs.Game.Player('B').Log)
	assert.True(t, gs.Game.Player('A').Log.HasEnd(), "log kept until A's next turn")
}

func TestSession_Win(t *testing.T) {
	gs := newSession(t, "0a 0 0\n0 2A 3\n0b 0 0B", "mortal", "mortal")
	gs.start()

	win := model.Action{Kind: model.Move, Worker: model.Male, Dir: model.East, Delta: 1}
	out := gs.Turn(PlayerEvent{Player: 'A', Message: act(win)})
	assert.Equal(t, GS_OVER, gs.State)
	require.Len(t, out['B'].Over, 1)
	assert.Equal(t, int32('A'), out['B'].Over[0].Winner)
	assert.True(t, out['A'].Results[0].Win)

	out = gs.Turn(PlayerEvent{Player: 'B', Message: act(win)})
	assert.NotEmpty(t, out['B'].Results[0].Error)

	gs.publish()
	st := gs.Status()
	assert.Equal(t, "GS_OVER", st.State)
	assert.Equal(t, "A", st.Winner)
	assert.True(t, st.Finished())
}

func TestSession_BlockedPlayerLoses(t *testing.T) {
	gs := newSession(t, `
		0A 0X 0a
		2  0B 0X
		0X 0X 0b
	`, "mortal", "mortal")
	out := gs.start()

	assert.Equal(t, GS_OVER, gs.State)
	assert.Equal(t, int32('B'), gs.Winner)
	assert.True(t, gs.Game.Player('A').Lost)
	require.Len(t, out['B'].Over, 1)
	require.NotEmpty(t, out['A'].Results)
	assert.Equal(t, model.Lose, out['A'].Results[0].Action.Kind)
}

func TestSession_ThreePlayerElimination(t *testing.T) {
	gs := newSession(t, `
		0A 0X 0a 0X 0
		2  0X 0X 0X 0
		0X 0  0  0  0
		0  0  0B 0  0b
		0  0c 0  0C 0
	`, "mortal", "mortal", "mortal")
	out := gs.start()

	a := gs.Game.Player('A')
	assert.True(t, a.Lost)
	assert.False(t, a.Workers[model.Male].Placed)
	assert.Equal(t, GS_PLAY, gs.State)
	assert.Equal(t, 1, gs.Active)
	require.Len(t, out['B'].Turns, 1)
	assert.Len(t, gs.Game.Alive(), 2)
}

func TestSession_Disconnect(t *testing.T) {
	gs := newSession(t, twoPlayers, "mortal", "mortal")
	gs.start()
	out := gs.drop('B')
	assert.Equal(t, GS_OVER, gs.State)
	assert.Equal(t, int32('A'), out['A'].Over[0].Winner)
	assert.True(t, gs.Game.Player('B').Log.HasLose())

	l, err := ReadLayout(strings.NewReader(emptyBoard))
	require.NoError(t, err)
	lobby := NewGameSession(l, 2)
	_, err = lobby.seat("solo", nil)
	require.NoError(t, err)
	assert.Equal(t, GS_WAIT, lobby.State)
	lobby.drop('A')
	assert.Equal(t, GS_ERR, lobby.State)
}

func TestSession_ActiveDisconnectPassesTurn(t *testing.T) {
	gs := newSession(t, `
		0a 0  0  0  0
		0  0  0  0  0
		0  0  0A 0  0
		0  0  0  0  0
		0c 0  0C 0B 0b
	`, "mortal", "mortal", "mortal")
	gs.start()
	require.Equal(t, 0, gs.Active)

	out := gs.drop('A')
	assert.Equal(t, GS_PLAY, gs.State)
	assert.Equal(t, 1, gs.Active)
	require.Len(t, out['B'].Turns, 1)
}

func TestSession_AddPlayerDelivers(t *testing.T) {
	l, err := ReadLayout(strings.NewReader(twoPlayers))
	require.NoError(t, err)
	gs := NewGameSession(l, 2)
	card, _ := rules.CardByName("athena")

	assert.Nil(t, gs.addPlayer(PlayerConnectRequest{GameOver: make(chan struct{}), Name: "ann", Card: card}))
	out := gs.addPlayer(PlayerConnectRequest{GameOver: make(chan struct{}), Name: "bob"})
	gs.deliver(out)

	require.Len(t, gs.PlayerSessions, 2)
	first := <-gs.PlayerSessions[0].MessagesToSend
	require.Len(t, first.Setup, 1)
	assert.Equal(t, "athena", first.Setup[0].Players['A'].Card)
	assert.Equal(t, "mortal", first.Setup[0].Players['B'].Card)
	assert.Len(t, first.Turns, 1)
	assert.Equal(t, PS_PLAY, gs.PlayerSessions[1].State)

	third := PlayerConnectRequest{GameOver: make(chan struct{})}
	assert.Nil(t, gs.addPlayer(third))
	_, open := <-third.GameOver
	assert.False(t, open)
}
