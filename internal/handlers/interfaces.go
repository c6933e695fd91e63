package handlers

import (
	"context"

	"github.com/aora/backend/internal/models"
)

// AccountService captures the registration and session operations used by the auth handlers.
type AccountService interface {
	CreateUser(ctx context.Context, email, password, username string) (*models.User, *models.Session, error)
	SignIn(ctx context.Context, email, password string) (*models.Session, error)
	SignOut(ctx context.Context) error
	GetAccount(ctx context.Context) *models.Account
	GetCurrentUser(ctx context.Context) *models.User
}

// PostService captures the post listing and creation operations.
type PostService interface {
	GetCurrentUser(ctx context.Context) *models.User
	GetAllPosts(ctx context.Context) []models.Post
	GetLatestPosts(ctx context.Context) []models.Post
	SearchPosts(ctx context.Context, query string) []models.Post
	GetUserPosts(ctx context.Context, userID string) []models.Post
	CreateVideo(ctx context.Context, form models.VideoForm) (*models.Post, error)
}

// ContentService is everything the HTTP surface needs from the backend.
type ContentService interface {
	AccountService
	PostService
}

// SessionManager issues and refreshes authentication tokens for users.
type SessionManager interface {
	Issue(ctx context.Context, accountID, secret string) (models.SessionTokens, error)
	Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error)
	Revoke(ctx context.Context, sessionID string)
}
