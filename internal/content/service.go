// Package content implements Aora's backend operations: registration and
// sign-in, post listing and search, file upload and post publishing.
//
// Writes and authentication propagate failures to the caller. Reads log the
// failure and return an empty result.
package content

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/aora/backend/internal/appwrite"
	"github.com/aora/backend/internal/config"
	"github.com/aora/backend/internal/logging"
	"github.com/aora/backend/internal/models"
)

// LatestPostsLimit is the page size of the latest-posts view.
const LatestPostsLimit = 7

const currentSession = "current"

var (
	// ErrInvalidFileType indicates a file type other than image or video.
	ErrInvalidFileType = models.ErrInvalidFileType
	// ErrEmptyFileURL indicates the backend produced no URL for a stored file.
	ErrEmptyFileURL = errors.New("empty file url")
	// ErrAccountNotCreated indicates account registration returned no account.
	ErrAccountNotCreated = errors.New("account not created")
	// ErrMissingAsset indicates a post was submitted without its thumbnail or video.
	ErrMissingAsset = errors.New("thumbnail and video are required")
	// ErrNoSession indicates sign-in succeeded without yielding a usable session.
	ErrNoSession = errors.New("session has no secret")
)

// Service performs the backend operations against an injected Appwrite backend.
type Service struct {
	backend Backend
	cfg     config.Appwrite
	newID   func() string
}

// Option customises a Service.
type Option func(*Service)

// WithIDGenerator replaces the generator of document, file and account ids.
func WithIDGenerator(gen func() string) Option {
	return func(s *Service) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// New constructs a Service bound to the collections and bucket named in cfg.
func New(backend Backend, cfg config.Appwrite, opts ...Option) *Service {
	if backend == nil {
		panic("content: backend must not be nil")
	}
	s := &Service{
		backend: backend,
		cfg:     cfg,
		newID:   appwrite.ID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateUser registers an account, signs in and stores the matching user
// document. The returned session authenticates subsequent calls.
func (s *Service) CreateUser(ctx context.Context, email, password, username string) (*models.User, *models.Session, error) {
	ctx, span := logging.StartSpan(ctx, "content.CreateUser")
	defer span.End()

	account, err := s.backend.CreateAccount(ctx, s.newID(), email, password, username)
	if err != nil {
		return nil, nil, fail(span, "create user", err)
	}
	if account == nil || account.ID == "" {
		return nil, nil, fail(span, "create user", ErrAccountNotCreated)
	}

	avatarURL := s.backend.InitialsURL(username)

	session, err := s.SignIn(ctx, email, password)
	if err != nil {
		return nil, nil, fail(span, "create user", err)
	}

	doc, err := s.backend.CreateDocument(appwrite.WithSession(ctx, session.Secret), s.cfg.DatabaseID, s.cfg.UserCollectionID, s.newID(), userAttributes{
		AccountID: account.ID,
		Email:     email,
		Username:  username,
		Avatar:    avatarURL,
	})
	if err != nil {
		return nil, nil, fail(span, "create user document", err)
	}

	user, err := decodeUser(*doc)
	if err != nil {
		return nil, nil, fail(span, "create user", err)
	}

	span.Logger().Info("user registered", "accountId", account.ID, "userId", user.ID)
	return &user, session, nil
}

// SignIn creates a session for the given credentials.
func (s *Service) SignIn(ctx context.Context, email, password string) (*models.Session, error) {
	ctx, span := logging.StartSpan(ctx, "content.SignIn")
	defer span.End()

	session, err := s.backend.CreateEmailSession(ctx, email, password)
	if err != nil {
		return nil, fail(span, "sign in", err)
	}
	if session == nil || session.Secret == "" {
		return nil, fail(span, "sign in", ErrNoSession)
	}

	return &models.Session{
		ID:        session.ID,
		UserID:    session.UserID,
		Secret:    session.Secret,
		ExpiresAt: session.Expire,
	}, nil
}

// GetAccount returns the account of the session on ctx, or nil when there is
// no session or it cannot be resolved.
func (s *Service) GetAccount(ctx context.Context) *models.Account {
	ctx, span := logging.StartSpan(ctx, "content.GetAccount")
	defer span.End()

	if appwrite.SessionFromContext(ctx) == "" {
		span.Logger().Debug("no session on request")
		return nil
	}

	account, err := s.backend.GetAccount(ctx)
	if appwrite.IsUnauthorized(err) {
		span.Logger().Info("session rejected", "error", err)
		return nil
	}
	if err != nil {
		swallow(span, "get account", err)
		return nil
	}
	if account == nil || account.ID == "" {
		return nil
	}

	return &models.Account{
		ID:        account.ID,
		Email:     account.Email,
		Name:      account.Name,
		CreatedAt: account.CreatedAt,
	}
}

// GetCurrentUser returns the user document linked to the session's account,
// or nil when there is none.
func (s *Service) GetCurrentUser(ctx context.Context) *models.User {
	ctx, span := logging.StartSpan(ctx, "content.GetCurrentUser")
	defer span.End()

	account := s.GetAccount(ctx)
	if account == nil {
		return nil
	}

	list, err := s.backend.ListDocuments(ctx, s.cfg.DatabaseID, s.cfg.UserCollectionID,
		appwrite.Equal("accountId", account.ID),
		appwrite.Limit(1),
	)
	if err != nil {
		swallow(span, "get current user", err)
		return nil
	}
	if list == nil || len(list.Documents) == 0 {
		span.Logger().Warn("no user document for account", "accountId", account.ID)
		return nil
	}

	user, err := decodeUser(list.Documents[0])
	if err != nil {
		swallow(span, "get current user", err)
		return nil
	}
	return &user
}

// GetAllPosts lists every post, newest first.
func (s *Service) GetAllPosts(ctx context.Context) []models.Post {
	return s.listPosts(ctx, "content.GetAllPosts", appwrite.OrderDesc(createdAtAttribute))
}

// GetLatestPosts lists the newest posts, at most LatestPostsLimit of them.
func (s *Service) GetLatestPosts(ctx context.Context) []models.Post {
	posts := s.listPosts(ctx, "content.GetLatestPosts",
		appwrite.OrderDesc(createdAtAttribute),
		appwrite.Limit(LatestPostsLimit),
	)
	if len(posts) > LatestPostsLimit {
		posts = posts[:LatestPostsLimit]
	}
	return posts
}

// SearchPosts lists posts whose title matches query.
func (s *Service) SearchPosts(ctx context.Context, query string) []models.Post {
	return s.listPosts(ctx, "content.SearchPosts", appwrite.Search("title", query))
}

// GetUserPosts lists the posts created by userID, newest first. A failed query
// is logged and yields an empty list like the other listings; it is not
// returned to the caller.
func (s *Service) GetUserPosts(ctx context.Context, userID string) []models.Post {
	return s.listPosts(ctx, "content.GetUserPosts",
		appwrite.Equal("creator", userID),
		appwrite.OrderDesc(createdAtAttribute),
	)
}

func (s *Service) listPosts(ctx context.Context, name string, queries ...appwrite.Query) []models.Post {
	ctx, span := logging.StartSpan(ctx, name)
	defer span.End()

	posts := []models.Post{}

	list, err := s.backend.ListDocuments(ctx, s.cfg.DatabaseID, s.cfg.VideoCollectionID, queries...)
	if err != nil {
		swallow(span, "list posts", err)
		return posts
	}
	if list == nil {
		return posts
	}

	for _, doc := range list.Documents {
		post, err := decodePost(doc)
		if err != nil {
			span.Logger().Warn("skipping undecodable post", "documentId", doc.ID, "error", err)
			continue
		}
		posts = append(posts, post)
	}
	return posts
}

// SignOut deletes the session on ctx. A session Appwrite no longer knows
// counts as signed out.
func (s *Service) SignOut(ctx context.Context) error {
	ctx, span := logging.StartSpan(ctx, "content.SignOut")
	defer span.End()

	if err := s.backend.DeleteSession(ctx, currentSession); err != nil {
		if appwrite.IsNotFound(err) {
			span.Logger().Info("session already gone")
			return nil
		}
		return fail(span, "sign out", err)
	}
	return nil
}

// GetFilePreview returns the URL under which a stored file is displayed:
// the raw view for videos, a 2000x2000 top-anchored preview for images.
func (s *Service) GetFilePreview(ctx context.Context, fileID string, fileType models.FileType) (string, error) {
	_, span := logging.StartSpan(ctx, "content.GetFilePreview")
	defer span.End()

	var fileURL string
	switch fileType {
	case models.FileTypeVideo:
		fileURL = s.backend.FileViewURL(s.cfg.StorageID, fileID)
	case models.FileTypeImage:
		fileURL = s.backend.FilePreviewURL(s.cfg.StorageID, fileID, appwrite.PreviewOptions{
			Width:   2000,
			Height:  2000,
			Gravity: "top",
			Quality: 100,
		})
	default:
		return "", fail(span, "get file preview", ErrInvalidFileType)
	}

	if fileURL == "" {
		return "", fail(span, "get file preview", ErrEmptyFileURL)
	}
	return fileURL, nil
}

// UploadFile stores asset and returns its display URL. A nil asset is not an
// error: nothing is uploaded and the URL is empty.
func (s *Service) UploadFile(ctx context.Context, asset *models.Asset, fileType models.FileType) (string, error) {
	if asset == nil {
		return "", nil
	}

	ctx, span := logging.StartSpan(ctx, "content.UploadFile")
	defer span.End()

	if fileType != models.FileTypeImage && fileType != models.FileTypeVideo {
		return "", fail(span, "upload file", ErrInvalidFileType)
	}

	file, err := s.backend.CreateFile(ctx, s.cfg.StorageID, s.newID(), appwrite.InputFile{
		Name:     asset.Name,
		MimeType: asset.MimeType,
		Size:     asset.Size,
		Body:     asset.Body,
	})
	if err != nil {
		return "", fail(span, "upload file", err)
	}

	span.Logger().Info("file uploaded", "fileId", file.ID, "type", fileType.String(), "size", asset.Size)
	return s.GetFilePreview(ctx, file.ID, fileType)
}

// CreateVideo uploads the thumbnail and the video concurrently and, once
// both have resolved to URLs, stores the post. A failed upload cancels the
// other one and no post is written.
func (s *Service) CreateVideo(ctx context.Context, form models.VideoForm) (*models.Post, error) {
	ctx, span := logging.StartSpan(ctx, "content.CreateVideo")
	defer span.End()

	if form.Thumbnail == nil || form.Video == nil {
		return nil, fail(span, "create video", ErrMissingAsset)
	}

	var thumbnailURL, videoURL string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		u, err := s.UploadFile(gctx, form.Thumbnail, models.FileTypeImage)
		if err != nil {
			return fmt.Errorf("thumbnail: %w", err)
		}
		thumbnailURL = u
		return nil
	})
	g.Go(func() error {
		u, err := s.UploadFile(gctx, form.Video, models.FileTypeVideo)
		if err != nil {
			return fmt.Errorf("video: %w", err)
		}
		videoURL = u
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fail(span, "create video", err)
	}

	doc, err := s.backend.CreateDocument(ctx, s.cfg.DatabaseID, s.cfg.VideoCollectionID, s.newID(), postAttributes{
		Title:     form.Title,
		Thumbnail: thumbnailURL,
		Video:     videoURL,
		Prompt:    form.Prompt,
		Creator:   form.CreatorID,
	})
	if err != nil {
		return nil, fail(span, "create video document", err)
	}

	post, err := decodePost(*doc)
	if err != nil {
		return nil, fail(span, "create video", err)
	}

	span.Logger().Info("post created", "postId", post.ID, "creator", form.CreatorID)
	return &post, nil
}

func fail(span *logging.Span, op string, err error) error {
	span.Fail(err)
	span.Logger().Error(op+" failed", slog.Any("error", err))
	return fmt.Errorf("%s: %w", op, err)
}

func swallow(span *logging.Span, op string, err error) {
	span.Fail(err)
	span.Logger().Error(op+" failed", slog.Any("error", err))
}
