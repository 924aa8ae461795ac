package session

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

	"github.com/maxcraig112/FIT3162-Canary-sub000/internal/domain"
)

// wsServer accepts session websocket connections and hands them to the test.
type wsServer struct {
	srv      *httptest.Server
	upgrader websocket.Upgrader

	mu       sync.Mutex
	upgrades int
	lastURL  string
	conns    chan *websocket.Conn
}

func newWSServer(t *testing.T) *wsServer {
	t.Helper()
	ws := &wsServer{conns: make(chan *websocket.Conn, 4)}
	ws.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := ws.upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		ws.mu.Lock()
		ws.upgrades++
		ws.lastURL = r.URL.String()
		ws.mu.Unlock()
		ws.conns <- conn
	}))
	t.Cleanup(ws.srv.Close)
	return ws
}

func (ws *wsServer) baseURL() string {
	return "ws" + strings.TrimPrefix(ws.srv.URL, "http")
}

func (ws *wsServer) upgradeCount() int {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return ws.upgrades
}

func (ws *wsServer) accept(t *testing.T) *websocket.Conn {
	t.Helper()
	select {
	case conn := <-ws.conns:
		return conn
	case <-time.After(2 * time.Second):
		t.Fatal("no websocket connection arrived")
		return nil
	}
}

func TestConnectSingleFlight(t *testing.T) {
	ws := newWSServer(t)
	s := New(Config{
		BaseURL:     ws.baseURL(),
		SessionID:   "sess-1",
		AuthToken:   "auth",
		Credentials: NewMemoryCredentials("create-tok", ""),
	})

	var wg sync.WaitGroup
	errs := make([]error, 10)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.Connect(context.Background())
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, 1, ws.upgradeCount(), "concurrent connects must share one socket")
	assert.Equal(t, StateOpen, s.State())
}

func TestConnectOwnerConsumesTokenAndPersistsSessionID(t *testing.T) {
	ws := newWSServer(t)
	creds := NewMemoryCredentials("create-tok", "")
	s := New(Config{
		BaseURL:     ws.baseURL(),
		SessionID:   "sess-1",
		AuthToken:   "auth-tok",
		Credentials: creds,
	})

	require.NoError(t, s.Connect(context.Background()))
	ws.accept(t)

	assert.Equal(t, RoleOwner, s.Role())
	assert.Empty(t, creds.CreateToken(), "one-time token consumed on open")
	assert.Equal(t, "sess-1", creds.SessionID(), "session id persisted for reload continuity")

	ws.mu.Lock()
	url := ws.lastURL
	ws.mu.Unlock()
	assert.Contains(t, url, "/sessions/sess-1/ws/create")
	assert.Contains(t, url, "token=create-tok")
	assert.Contains(t, url, "auth=auth-tok")
}

func TestConnectMemberRole(t *testing.T) {
	ws := newWSServer(t)
	s := New(Config{
		BaseURL:     ws.baseURL(),
		SessionID:   "sess-2",
		Credentials: NewMemoryCredentials("", "join-tok"),
	})

	require.NoError(t, s.Connect(context.Background()))
	assert.Equal(t, RoleMember, s.Role())

	ws.mu.Lock()
	url := ws.lastURL
	ws.mu.Unlock()
	assert.Contains(t, url, "/sessions/sess-2/ws/join")
}

func TestConnectFailsFastWithoutConfiguration(t *testing.T) {
	s := New(Config{Credentials: NewMemoryCredentials("tok", "")})
	assert.Error(t, s.Connect(context.Background()), "missing URL is a configuration error")

	ws := newWSServer(t)
	s = New(Config{BaseURL: ws.baseURL(), Credentials: NewMemoryCredentials("", "")})
	assert.Error(t, s.Connect(context.Background()), "no token means no role")
}

func TestSetImageIDBuffersLatestAndFlushesOnce(t *testing.T) {
	ws := newWSServer(t)
	s := New(Config{
		BaseURL:     ws.baseURL(),
		SessionID:   "sess-1",
		Credentials: NewMemoryCredentials("create-tok", ""),
	})

	// Sent before the socket opens: only the latest survives.
	s.SetImageID("img1")
	s.SetImageID("img2")

	require.NoError(t, s.Connect(context.Background()))
	conn := ws.accept(t)

	var msg setImageIDMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, msgSetImageID, msg.Type)
	assert.Equal(t, "img2", msg.Payload.ImageID, "superseded image id dropped")

	// Once open, sends go straight through.
	s.SetImageID("img3")
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "img3", msg.Payload.ImageID)
}

func TestSnapshotMessagesTriggerRefresh(t *testing.T) {
	ws := newWSServer(t)
	refreshes := make(chan domain.Kind, 4)
	s := New(Config{
		BaseURL:     ws.baseURL(),
		SessionID:   "sess-1",
		Credentials: NewMemoryCredentials("create-tok", ""),
		OnRefresh:   func(kind domain.Kind) { refreshes <- kind },
	})

	require.NoError(t, s.Connect(context.Background()))
	conn := ws.accept(t)

	// Garbage and unknown types must be tolerated, not fatal.
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json at all")))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"unknown_event"}`)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"key_points_snapshot"}`)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"bounding_boxes_snapshot"}`)))

	assert.Equal(t, domain.KindKeypoint, waitKind(t, refreshes))
	assert.Equal(t, domain.KindBoundingBox, waitKind(t, refreshes))
	assert.Equal(t, StateOpen, s.State(), "connection survives malformed input")
}

func waitKind(t *testing.T, ch chan domain.Kind) domain.Kind {
	t.Helper()
	select {
	case k := <-ch:
		return k
	case <-time.After(2 * time.Second):
		t.Fatal("no refresh arrived")
		return 0
	}
}

// settableCredentials lets a test hand out a fresh token after the first
// one was consumed.
type settableCredentials struct {
	MemoryCredentials
}

func (s *settableCredentials) refill(create string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createToken = create
}

func TestRemoteCloseInvokesCallbackAndAllowsFreshConnect(t *testing.T) {
	ws := newWSServer(t)
	creds := &settableCredentials{}
	creds.refill("tok-1")

	closed := make(chan struct{}, 2)
	s := New(Config{
		BaseURL:     ws.baseURL(),
		SessionID:   "sess-1",
		Credentials: creds,
		OnClose:     func() { closed <- struct{}{} },
	})

	require.NoError(t, s.Connect(context.Background()))
	conn := ws.accept(t)

	conn.Close()
	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("navigate-away callback not invoked")
	}
	assert.Equal(t, StateClosed, s.State())

	// Reconnection is not automatic, but a fresh attempt must work.
	creds.refill("tok-2")
	require.NoError(t, s.Connect(context.Background()))
	ws.accept(t)
	assert.Equal(t, 2, ws.upgradeCount())
	assert.Equal(t, StateOpen, s.State())
}

func TestExplicitClose(t *testing.T) {
	ws := newWSServer(t)
	closed := make(chan struct{}, 1)
	s := New(Config{
		BaseURL:     ws.baseURL(),
		SessionID:   "sess-1",
		Credentials: NewMemoryCredentials("tok", ""),
		OnClose:     func() { closed <- struct{}{} },
	})

	require.NoError(t, s.Connect(context.Background()))
	ws.accept(t)

	s.Close()
	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("close callback not invoked")
	}
	assert.Equal(t, StateClosed, s.State())
}
