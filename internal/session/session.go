package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/maxcraig112/FIT3162-Canary-sub000/internal/domain"
)

// State is the lifecycle state of the session connection.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateOpen
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return "disconnected"
	}
}

// Role is fixed for the lifetime of a connection: the owner created the
// session, a member joined it.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleMember Role = "member"
)

// Inbound message types that trigger an annotation refresh.
const (
	msgKeypointsSnapshot     = "key_points_snapshot"
	msgBoundingBoxesSnapshot = "bounding_boxes_snapshot"
	msgSetImageID            = "setImageID"
)

type inboundMessage struct {
	Type string `json:"type"`
}

type setImageIDMessage struct {
	Type    string `json:"type"`
	Payload struct {
		ImageID string `json:"imageID"`
	} `json:"payload"`
}

// Config wires a Synchronizer. BaseURL is the ws(s) endpoint root,
// AuthToken the bearer credential, and Credentials holds the one-time
// create/join token and the persisted session id. OnRefresh is invoked for
// every snapshot notification; OnClose when the connection ends for any
// reason.
type Config struct {
	BaseURL     string
	SessionID   string
	AuthToken   string
	Credentials CredentialStore
	OnRefresh   func(kind domain.Kind)
	OnClose     func()
	Dialer      *websocket.Dialer
}

// Synchronizer maintains the single live socket for a collaborative
// session. It owns the connection exclusively: consumers read role and
// state through accessors and never hold the socket themselves. Concurrent
// Connect calls while an attempt is in flight share that attempt's outcome
// instead of opening a second socket. There is no automatic reconnection; a
// closed synchronizer needs a fresh Connect driven by the surrounding UI.
type Synchronizer struct {
	mu       sync.Mutex
	cfg      Config
	state    State
	role     Role
	conn     *websocket.Conn
	inflight chan struct{}
	lastErr  error

	// Only the latest image id sent before open is kept; superseded sends
	// are dropped, and the buffered id is flushed exactly once on open.
	pendingImageID string
	hasPending     bool
}

// New creates a Synchronizer. Connect must be called before it does
// anything.
func New(cfg Config) *Synchronizer {
	if cfg.Dialer == nil {
		cfg.Dialer = websocket.DefaultDialer
	}
	return &Synchronizer{cfg: cfg}
}

// State returns the current connection state.
func (s *Synchronizer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Role returns the role fixed when the connection opened.
func (s *Synchronizer) Role() Role {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.role
}

// Connect opens the session socket. The role comes from which one-time
// token the credential store holds: a create token makes this the owner
// connection, a join token a member connection. A call made while another
// attempt is in flight waits for that attempt and returns its result.
func (s *Synchronizer) Connect(ctx context.Context) error {
	s.mu.Lock()
	switch s.state {
	case StateOpen:
		s.mu.Unlock()
		return nil
	case StateConnecting:
		done := s.inflight
		s.mu.Unlock()
		<-done
		s.mu.Lock()
		err := s.lastErr
		s.mu.Unlock()
		return err
	}

	if s.cfg.BaseURL == "" {
		s.mu.Unlock()
		return fmt.Errorf("session: websocket URL is not configured")
	}

	var role Role
	var action, token string
	switch {
	case s.cfg.Credentials.CreateToken() != "":
		role, action, token = RoleOwner, "create", s.cfg.Credentials.CreateToken()
	case s.cfg.Credentials.JoinToken() != "":
		role, action, token = RoleMember, "join", s.cfg.Credentials.JoinToken()
	default:
		s.mu.Unlock()
		return fmt.Errorf("session: no create or join token available")
	}

	s.state = StateConnecting
	s.role = role
	done := make(chan struct{})
	s.inflight = done
	s.mu.Unlock()

	query := url.Values{}
	query.Set("token", token)
	query.Set("auth", s.cfg.AuthToken)
	endpoint := fmt.Sprintf("%s/sessions/%s/ws/%s?%s", s.cfg.BaseURL, s.cfg.SessionID, action, query.Encode())

	conn, _, err := s.cfg.Dialer.DialContext(ctx, endpoint, nil)

	s.mu.Lock()
	s.lastErr = err
	if err != nil {
		s.state = StateClosed
		close(done)
		s.mu.Unlock()
		return fmt.Errorf("while opening session socket: %w", err)
	}

	s.conn = conn
	s.state = StateOpen

	// The join/create token is single-use; the session id outlives the page
	// for reload continuity.
	s.cfg.Credentials.ClearTokens()
	s.cfg.Credentials.SetSessionID(s.cfg.SessionID)

	if s.hasPending {
		s.writeImageIDLocked(s.pendingImageID)
		s.hasPending = false
		s.pendingImageID = ""
	}
	close(done)
	s.mu.Unlock()

	go s.readLoop(conn)
	return nil
}

// SetImageID tells the server which image this client is viewing, so it can
// scope its change notifications. Before the socket opens the id is
// buffered, keeping only the latest.
func (s *Synchronizer) SetImageID(imageID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateOpen || s.conn == nil {
		s.pendingImageID = imageID
		s.hasPending = true
		return
	}
	s.writeImageIDLocked(imageID)
}

func (s *Synchronizer) writeImageIDLocked(imageID string) {
	var msg setImageIDMessage
	msg.Type = msgSetImageID
	msg.Payload.ImageID = imageID
	if err := s.conn.WriteJSON(msg); err != nil {
		log.Printf("session: failed to send image id %s: %v", imageID, err)
	}
}

// Close shuts the connection down explicitly.
func (s *Synchronizer) Close() {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn != nil {
		conn.Close()
	}
	s.markClosed()
}

func (s *Synchronizer) markClosed() {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	s.state = StateClosed
	s.conn = nil
	onClose := s.cfg.OnClose
	s.mu.Unlock()

	if onClose != nil {
		onClose()
	}
}

// readLoop dispatches inbound messages until the connection ends. Unknown
// and malformed messages are logged and dropped; they are not fatal.
func (s *Synchronizer) readLoop(conn *websocket.Conn) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			log.Printf("session: connection closed: %v", err)
			s.markClosed()
			return
		}

		var msg inboundMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			log.Printf("session: dropping malformed message: %v", err)
			continue
		}

		switch msg.Type {
		case msgKeypointsSnapshot:
			s.dispatchRefresh(domain.KindKeypoint)
		case msgBoundingBoxesSnapshot:
			s.dispatchRefresh(domain.KindBoundingBox)
		default:
			log.Printf("session: ignoring message type %q", msg.Type)
		}
	}
}

func (s *Synchronizer) dispatchRefresh(kind domain.Kind) {
	if s.cfg.OnRefresh != nil {
		s.cfg.OnRefresh(kind)
	}
}
