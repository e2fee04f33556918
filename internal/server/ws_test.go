package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grindsens/repcoach/internal/app"
	"github.com/grindsens/repcoach/internal/tracker"
)

type fakeSource struct {
	mu        sync.Mutex
	listeners []func(app.Update)
	jpeg      []byte
}

func (f *fakeSource) AddListener(fn func(app.Update)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listeners = append(f.listeners, fn)
}

func (f *fakeSource) emit(u app.Update) {
	f.mu.Lock()
	listeners := f.listeners
	f.mu.Unlock()
	for _, fn := range listeners {
		fn(u)
	}
}

func (f *fakeSource) LatestJPEG() ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.jpeg, f.jpeg != nil
}

func TestLandmarksHandler_Broadcast(t *testing.T) {
	src := &fakeSource{}
	h := NewLandmarksHandler(src)

	// No clients yet; must not block or panic.
	src.emit(app.Update{Type: app.UpdateFrame})

	ts := httptest.NewServer(h)
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return h.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	src.emit(app.Update{
		Type:         app.UpdateRep,
		Exercise:     tracker.KindCurl,
		Stage:        tracker.StageUp,
		Reps:         3,
		RepCompleted: true,
	})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var got map[string]any
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, app.UpdateRep, got["type"])
	assert.Equal(t, "curl", got["exercise"])
	assert.Equal(t, "up", got["stage"])
	assert.EqualValues(t, 3, got["reps"])

	conn.Close()
	assert.Eventually(t, func() bool { return h.Clients() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestStreamHandler(t *testing.T) {
	src := &fakeSource{jpeg: []byte{0xff, 0xd8, 0xff, 0xd9}}
	h := NewStreamHandler(src)
	h.interval = 5 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/stream", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "multipart/x-mixed-replace; boundary=frame", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.Equal(t, 1, strings.Count(body, "--frame"), "an unchanged frame is sent once")
	assert.Contains(t, body, "Content-Length: 4")
}

func TestStreamHandler_NoFrames(t *testing.T) {
	h := NewStreamHandler(&fakeSource{})
	h.interval = 5 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stream", nil).WithContext(ctx))

	assert.Empty(t, rec.Body.String())
}
