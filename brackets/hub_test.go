package brackets

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func waitForClients(t *testing.T, hub *Hub, room string, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.ClientCount(room) == n }, time.Second, 5*time.Millisecond)
}

func TestBroadcastToRoomDeliversOnlyToRoomMembers(t *testing.T) {
	hub := startHub(t)
	room := RoomForTournament(3)

	inRoom := NewClient(hub, nil, room)
	elsewhere := NewClient(hub, nil, RoomForTournament(4))
	require.True(t, hub.Register(context.Background(), inRoom))
	require.True(t, hub.Register(context.Background(), elsewhere))
	waitForClients(t, hub, room, 1)

	hub.BroadcastToRoom(room, WebSocketMessage{Type: MessageTournamentUpdated, Payload: map[string]int{"id": 3}, RoomID: room})

	select {
	case raw := <-inRoom.send:
		var msg WebSocketMessage
		require.NoError(t, json.Unmarshal(raw, &msg))
		assert.Equal(t, MessageTournamentUpdated, msg.Type)
		assert.Equal(t, "tournament_3", msg.RoomID)
	case <-time.After(time.Second):
		t.Fatal("message not delivered")
	}

	assert.Len(t, elsewhere.send, 0)
}

func TestUnregisterClosesSendAndEmptiesRoom(t *testing.T) {
	hub := startHub(t)
	room := RoomForTournament(9)
	client := NewClient(hub, nil, room)
	require.True(t, hub.Register(context.Background(), client))
	waitForClients(t, hub, room, 1)

	hub.Unregister(client)
	waitForClients(t, hub, room, 0)

	_, ok := <-client.send
	assert.False(t, ok)
}
