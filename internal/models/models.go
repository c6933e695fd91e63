package models

import (
	"errors"
	"io"
	"strings"
	"time"
)

// User is the profile document linked one-to-one with an Appwrite account.
type User struct {
	ID        string    `json:"id"`
	AccountID string    `json:"accountId"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	Avatar    string    `json:"avatar"`
	CreatedAt time.Time `json:"createdAt"`
}

// Account is the authenticated Appwrite account behind a session.
type Account struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// Session is an Appwrite session created by signing in.
type Session struct {
	ID        string
	UserID    string
	Secret    string
	ExpiresAt time.Time
}

// Post is a published video together with its thumbnail and prompt.
type Post struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Thumbnail   string    `json:"thumbnail"`
	Video       string    `json:"video"`
	Prompt      string    `json:"prompt"`
	Creator     string    `json:"creator"`
	CreatorUser *User     `json:"creatorUser,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// FileType selects how the URL of an uploaded file is derived.
type FileType int

const (
	FileTypeImage FileType = iota + 1
	FileTypeVideo
)

// ErrInvalidFileType is returned for file types other than image and video.
var ErrInvalidFileType = errors.New("invalid file type")

// ParseFileType converts the wire name of a file type.
func ParseFileType(s string) (FileType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "image":
		return FileTypeImage, nil
	case "video":
		return FileTypeVideo, nil
	default:
		return 0, ErrInvalidFileType
	}
}

func (t FileType) String() string {
	switch t {
	case FileTypeImage:
		return "image"
	case FileTypeVideo:
		return "video"
	default:
		return "unknown"
	}
}

// Asset is a binary file picked by the client for upload.
type Asset struct {
	Name     string
	MimeType string
	Size     int64
	Body     io.Reader
}

// VideoForm carries everything needed to publish a post.
type VideoForm struct {
	Title     string
	Prompt    string
	CreatorID string
	Thumbnail *Asset
	Video     *Asset
}

// SessionTokens groups the bearer credentials issued to authenticated users.
type SessionTokens struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}
