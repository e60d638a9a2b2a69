package httpserver

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/levelup_storefront/internal/events"
	"github.com/Skotchmaster/levelup_storefront/internal/session"
)

func readFrame(t *testing.T, r *bufio.Reader) []string {
	t.Helper()
	var lines []string
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		if line == "" {
			return lines
		}
		lines = append(lines, line)
	}
}

func TestEvents_StreamsOwnDeviceRedacted(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	srv := httptest.NewServer(h.e)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events", nil)
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: DeviceCookie, Value: testDevice})

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	r := bufio.NewReader(resp.Body)
	assert.Equal(t, []string{": connected"}, readFrame(t, r))

	h.bus.Publish(ctx, events.TopicNotice, "another-device", "not for you")
	h.bus.Publish(ctx, events.TopicSession, testDevice, &session.Session{Email: "ana@levelup.cl", Token: "secret-token", Role: session.RoleUser})

	frame := readFrame(t, r)
	require.Len(t, frame, 3)
	assert.True(t, strings.HasPrefix(frame[0], "id: "))
	assert.Equal(t, "event: session", frame[1])
	assert.Contains(t, frame[2], `"correo":"ana@levelup.cl"`)
	assert.NotContains(t, frame[2], "secret-token")

	h.bus.Publish(ctx, events.TopicNotice, testDevice, "Debes estar registrado para comprar en la tienda.")
	frame = readFrame(t, r)
	require.Len(t, frame, 3)
	assert.Equal(t, "event: notice", frame[1])
	assert.Contains(t, frame[2], "Debes estar registrado")
}
