package gateway

import (
	"context"
	"fmt"
	"net/http"
)

// Session describes a collaborative session minted by the backend. The
// create token is single-use and belongs to the owner; join tokens are
// minted on demand for collaborators.
type Session struct {
	ID          string `json:"sessionID"`
	CreateToken string `json:"createToken"`
}

type joinTokenResponse struct {
	Token string `json:"token"`
}

// CreateSession asks the backend for a new collaborative session scoped to a
// project. The returned create token opens the owner's websocket exactly
// once.
func (c *Client) CreateSession(ctx context.Context, projectID string) (Session, error) {
	var s Session
	endpoint := fmt.Sprintf("/projects/%s/sessions", projectID)
	if err := c.doRequest(ctx, http.MethodPost, endpoint, nil, &s); err != nil {
		return Session{}, fmt.Errorf("while creating session: %w", err)
	}
	return s, nil
}

// SessionJoinToken mints a single-use join token for an existing session,
// for handing to a collaborator.
func (c *Client) SessionJoinToken(ctx context.Context, sessionID string) (string, error) {
	var resp joinTokenResponse
	endpoint := fmt.Sprintf("/sessions/%s/join-token", sessionID)
	if err := c.doRequest(ctx, http.MethodPost, endpoint, nil, &resp); err != nil {
		return "", fmt.Errorf("while minting join token for session %s: %w", sessionID, err)
	}
	return resp.Token, nil
}
