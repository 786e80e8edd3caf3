package api

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/05nelsonm/zap-desktop/api/types"
)

func TestWSNotifierDeliversNotifications(t *testing.T) {
	notifier := NewWSNotifier()
	t.Cleanup(notifier.Close)

	router := NewRouter([]Route{NewVersionHandler(), NewHealthHandler(), notifier})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + notifier.Pattern()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.Nil(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	// Registration races the dial returning; give the server a beat.
	require.Eventually(t, func() bool {
		notifier.mu.Lock()
		defer notifier.mu.Unlock()
		return len(notifier.conns) == 1
	}, time.Second, 10*time.Millisecond)

	pct := 40
	notifier.Notify(types.Notification{
		Type:       types.NotifyNodeHeight,
		Height:     434100,
		Percentage: &pct,
	})

	require.Nil(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var got types.Notification
	require.Nil(t, conn.ReadJSON(&got))
	assert.Equal(t, types.NotifyNodeHeight, got.Type)
	assert.Equal(t, uint64(434100), got.Height)
	require.NotNil(t, got.Percentage)
	assert.Equal(t, 40, *got.Percentage)
}

func TestWSNotifierDropsDeadConnections(t *testing.T) {
	notifier := NewWSNotifier()
	server := httptest.NewServer(NewRouter([]Route{notifier}))
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + notifier.Pattern()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.Nil(t, err)
	require.Eventually(t, func() bool {
		notifier.mu.Lock()
		defer notifier.mu.Unlock()
		return len(notifier.conns) == 1
	}, time.Second, 10*time.Millisecond)

	require.Nil(t, conn.Close())

	require.Eventually(t, func() bool {
		notifier.mu.Lock()
		defer notifier.mu.Unlock()
		return len(notifier.conns) == 0
	}, time.Second, 10*time.Millisecond)

	// Notifying with nobody listening is fine.
	notifier.Notify(types.Notification{Type: types.NotifySyncStatus, Status: types.SyncComplete})
}
