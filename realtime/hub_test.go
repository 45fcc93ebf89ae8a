package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/camden-git/wallpapersync/services"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunEvent(t *testing.T) {
	now := time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC)
	report := &services.RunReport{
		Tag:       "v42",
		Processed: 3,
		Published: true,
		Series:    []services.SeriesSummary{{Series: "desktop"}, {Series: "mobile"}},
	}

	ev := RunEvent(services.RunKindProcess, report, nil, now)
	assert.Equal(t, EventRunFinished, ev.Type)
	assert.Equal(t, "v42", ev.Tag)
	assert.Equal(t, 3, ev.Processed)
	assert.True(t, ev.Published)
	assert.Equal(t, []string{"desktop", "mobile"}, ev.Series)
	assert.Equal(t, now.Unix(), ev.Timestamp)

	failed := RunEvent(services.RunKindFeedSync, nil, errors.New("no usable feed data"), now)
	assert.Equal(t, EventRunFailed, failed.Type)
	assert.Equal(t, "no usable feed data", failed.Error)
}

func TestHubBroadcastsToWebsocketClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub()
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.RunListener()(services.RunKindPublish, &services.RunReport{Tag: "v7", Published: true}, nil)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var ev Event
	require.NoError(t, json.Unmarshal(msg, &ev))
	assert.Equal(t, EventRunFinished, ev.Type)
	assert.Equal(t, services.RunKindPublish, ev.Kind)
	assert.Equal(t, "v7", ev.Tag)
}
