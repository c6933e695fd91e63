package appwrite

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// Error is a failure reported by the Appwrite API.
type Error struct {
	Code    int    `json:"code"`
	Type    string `json:"type"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("appwrite: %s (%d %s)", e.Message, e.Code, e.Type)
	}
	return fmt.Sprintf("appwrite: %s (%d)", e.Message, e.Code)
}

func decodeError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	apiErr := &Error{}
	if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	if apiErr.Code == 0 {
		apiErr.Code = resp.StatusCode
	}
	return apiErr
}

// IsUnauthorized reports whether err is Appwrite rejecting the caller's session.
func IsUnauthorized(err error) bool {
	return hasCode(err, http.StatusUnauthorized)
}

// IsConflict reports whether err is Appwrite rejecting a duplicate resource.
func IsConflict(err error) bool {
	return hasCode(err, http.StatusConflict)
}

// IsNotFound reports whether err is Appwrite reporting a missing resource.
func IsNotFound(err error) bool {
	return hasCode(err, http.StatusNotFound)
}

func hasCode(err error, code int) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Code == code
}
