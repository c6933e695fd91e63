package appwrite

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

// Account is the Appwrite representation of a registered user account.
type Account struct {
	ID        string    `json:"$id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"$createdAt"`
}

// Session is an authenticated Appwrite session. Secret is recovered from the
// response cookies when the API leaves the body field empty.
type Session struct {
	ID     string    `json:"$id"`
	UserID string    `json:"userId"`
	Expire time.Time `json:"expire"`
	Secret string    `json:"secret"`
}

// CreateAccount registers a new account.
func (c *Client) CreateAccount(ctx context.Context, userID, email, password, name string) (*Account, error) {
	req, err := jsonRequest(http.MethodPost, "/account", map[string]string{
		"userId":   userID,
		"email":    email,
		"password": password,
		"name":     name,
	})
	if err != nil {
		return nil, err
	}

	var account Account
	if _, err := c.do(ctx, req, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// GetAccount returns the account owning the session on ctx.
func (c *Client) GetAccount(ctx context.Context) (*Account, error) {
	var account Account
	if _, err := c.do(ctx, request{method: http.MethodGet, path: "/account"}, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// CreateEmailSession signs in with email and password.
func (c *Client) CreateEmailSession(ctx context.Context, email, password string) (*Session, error) {
	req, err := jsonRequest(http.MethodPost, "/account/sessions/email", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}

	var session Session
	resp, err := c.do(ctx, req, &session)
	if err != nil {
		return nil, err
	}
	if session.Secret == "" {
		session.Secret = c.sessionSecret(resp)
	}
	return &session, nil
}

// DeleteSession signs out of the given session. "current" targets the session on ctx.
func (c *Client) DeleteSession(ctx context.Context, sessionID string) error {
	_, err := c.do(ctx, request{
		method: http.MethodDelete,
		path:   "/account/sessions/" + url.PathEscape(sessionID),
	}, nil)
	return err
}
