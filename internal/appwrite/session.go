package appwrite

import (
	"context"
	"encoding/json"
	"net/http"
)

type ctxKey string

const sessionKey ctxKey = "appwriteSession"

// WithSession stores the Appwrite session secret used for requests made with ctx.
func WithSession(ctx context.Context, secret string) context.Context {
	if ctx == nil || secret == "" {
		return ctx
	}
	return context.WithValue(ctx, sessionKey, secret)
}

// SessionFromContext returns the session secret stored by WithSession.
func SessionFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if secret, ok := ctx.Value(sessionKey).(string); ok {
		return secret
	}
	return ""
}

// sessionSecret recovers the session credential from a create-session
// response. Appwrite sets it as the a_session_<project> cookie and mirrors it
// in X-Fallback-Cookies for clients without a cookie jar.
func (c *Client) sessionSecret(resp *http.Response) string {
	name := "a_session_" + c.project
	for _, cookie := range resp.Cookies() {
		if cookie.Name == name && cookie.Value != "" {
			return cookie.Value
		}
	}

	fallback := resp.Header.Get("X-Fallback-Cookies")
	if fallback == "" {
		return ""
	}
	var cookies map[string]string
	if err := json.Unmarshal([]byte(fallback), &cookies); err != nil {
		return ""
	}
	return cookies[name]
}
