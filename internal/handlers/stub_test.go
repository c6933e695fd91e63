package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/aora/backend/internal/appwrite"
	"github.com/aora/backend/internal/auth"
	"github.com/aora/backend/internal/models"
)

type createdPost struct {
	form      models.VideoForm
	thumbnail string
	video     string
}

type stubContent struct {
	mu sync.Mutex

	user    *models.User
	account *models.Account
	posts   []models.Post

	createUserErr error
	signInErr     error
	signOutErr    error
	createErr     error

	secrets     []string
	searchQuery string
	userPostsID string
	created     []createdPost
	signOuts    int
}

func newStubContent() *stubContent {
	return &stubContent{
		user:    &models.User{ID: "user-1", AccountID: "acct-1", Email: "alice@example.com", Username: "alice"},
		account: &models.Account{ID: "acct-1", Email: "alice@example.com", Name: "alice"},
		posts:   []models.Post{},
	}
}

func (s *stubContent) seen(ctx context.Context) {
	s.mu.Lock()
	s.secrets = append(s.secrets, appwrite.SessionFromContext(ctx))
	s.mu.Unlock()
}

func (s *stubContent) CreateUser(ctx context.Context, email, password, username string) (*models.User, *models.Session, error) {
	s.seen(ctx)
	if s.createUserErr != nil {
		return nil, nil, s.createUserErr
	}
	user := *s.user
	user.Email = email
	user.Username = username
	return &user, &models.Session{ID: "session-1", UserID: user.AccountID, Secret: "secret-1"}, nil
}

func (s *stubContent) SignIn(ctx context.Context, email, password string) (*models.Session, error) {
	s.seen(ctx)
	if s.signInErr != nil {
		return nil, s.signInErr
	}
	return &models.Session{ID: "session-1", UserID: "acct-1", Secret: "secret-1"}, nil
}

func (s *stubContent) SignOut(ctx context.Context) error {
	s.seen(ctx)
	s.mu.Lock()
	s.signOuts++
	s.mu.Unlock()
	return s.signOutErr
}

func (s *stubContent) GetAccount(ctx context.Context) *models.Account {
	s.seen(ctx)
	return s.account
}

func (s *stubContent) GetCurrentUser(ctx context.Context) *models.User {
	s.seen(ctx)
	return s.user
}

func (s *stubContent) GetAllPosts(ctx context.Context) []models.Post {
	s.seen(ctx)
	return s.posts
}

func (s *stubContent) GetLatestPosts(ctx context.Context) []models.Post {
	s.seen(ctx)
	return s.posts
}

func (s *stubContent) SearchPosts(ctx context.Context, query string) []models.Post {
	s.seen(ctx)
	s.mu.Lock()
	s.searchQuery = query
	s.mu.Unlock()
	return []models.Post{}
}

func (s *stubContent) GetUserPosts(ctx context.Context, userID string) []models.Post {
	s.seen(ctx)
	s.mu.Lock()
	s.userPostsID = userID
	s.mu.Unlock()
	return s.posts
}

func (s *stubContent) CreateVideo(ctx context.Context, form models.VideoForm) (*models.Post, error) {
	s.seen(ctx)
	if s.createErr != nil {
		return nil, s.createErr
	}

	thumb, _ := io.ReadAll(form.Thumbnail.Body)
	video, _ := io.ReadAll(form.Video.Body)
	s.mu.Lock()
	s.created = append(s.created, createdPost{form: form, thumbnail: string(thumb), video: string(video)})
	s.mu.Unlock()

	return &models.Post{
		ID:        "post-1",
		Title:     form.Title,
		Prompt:    form.Prompt,
		Creator:   form.CreatorID,
		Thumbnail: "https://cloud.example/thumb",
		Video:     "https://cloud.example/video",
	}, nil
}

func (s *stubContent) lastSecret() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.secrets) == 0 {
		return ""
	}
	return s.secrets[len(s.secrets)-1]
}

type testServer struct {
	content  *stubContent
	manager  *auth.Manager
	store    *auth.InMemorySessionStore
	handler  http.Handler
	tokens   models.SessionTokens
	hasLogin bool
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := auth.NewInMemorySessionStore()
	manager := auth.NewManager(time.Minute, time.Hour, []byte("handler-test-key"), store)
	content := newStubContent()

	return &testServer{
		content: content,
		manager: manager,
		store:   store,
		handler: NewRouter(Dependencies{
			Content:       content,
			Sessions:      manager,
			Authenticator: manager,
		}),
	}
}

// login issues a token pair for the stub account without going through the API.
func (s *testServer) login(t *testing.T) models.SessionTokens {
	t.Helper()
	tokens, err := s.manager.Issue(context.Background(), "acct-1", "secret-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	s.tokens = tokens
	s.hasLogin = true
	return tokens
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	if s.hasLogin && req.Header.Get("Authorization") == "" {
		req.Header.Set("Authorization", "Bearer "+s.tokens.AccessToken)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) sessionID(t *testing.T, tokens models.SessionTokens) string {
	t.Helper()
	session, err := s.manager.Authenticate(context.Background(), tokens.AccessToken)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	return session.ID
}
