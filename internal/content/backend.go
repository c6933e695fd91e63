package content

import (
	"context"

	"github.com/aora/backend/internal/appwrite"
)

// Accounts covers account registration and session management.
type Accounts interface {
	CreateAccount(ctx context.Context, userID, email, password, name string) (*appwrite.Account, error)
	GetAccount(ctx context.Context) (*appwrite.Account, error)
	CreateEmailSession(ctx context.Context, email, password string) (*appwrite.Session, error)
	DeleteSession(ctx context.Context, sessionID string) error
}

// Documents covers document creation and queries.
type Documents interface {
	CreateDocument(ctx context.Context, databaseID, collectionID, documentID string, data any) (*appwrite.Document, error)
	ListDocuments(ctx context.Context, databaseID, collectionID string, queries ...appwrite.Query) (*appwrite.DocumentList, error)
}

// Files covers uploads and the URLs derived from stored files.
type Files interface {
	CreateFile(ctx context.Context, bucketID, fileID string, in appwrite.InputFile) (*appwrite.File, error)
	FileViewURL(bucketID, fileID string) string
	FilePreviewURL(bucketID, fileID string, opts appwrite.PreviewOptions) string
}

// Avatars derives generated avatar images.
type Avatars interface {
	InitialsURL(name string) string
}

// Backend is everything the service needs from Appwrite. *appwrite.Client implements it.
type Backend interface {
	Accounts
	Documents
	Files
	Avatars
}

var _ Backend = (*appwrite.Client)(nil)
