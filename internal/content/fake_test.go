package content

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aora/backend/internal/appwrite"
	"github.com/aora/backend/internal/config"
)

var testConfig = config.Appwrite{
	Endpoint:          "https://appwrite.test/v1",
	ProjectID:         "proj",
	DatabaseID:        "db",
	UserCollectionID:  "users",
	VideoCollectionID: "videos",
	StorageID:         "bucket",
}

type createDocumentCall struct {
	collectionID string
	documentID   string
	data         any
	session      string
}

type listDocumentsCall struct {
	collectionID string
	queries      []appwrite.Query
	session      string
}

type createFileCall struct {
	fileID  string
	name    string
	content string
}

// fakeBackend records calls and answers from canned data.
type fakeBackend struct {
	mu sync.Mutex

	account       *appwrite.Account
	createAccErr  error
	getAccountErr error
	session       *appwrite.Session
	sessionErr    error
	deleteErr     error
	createDocErr  error
	listDocs      []appwrite.Document
	listErr       error
	fileErrs      map[string]error

	createdAccounts []string
	sessionsCreated int
	deletedSessions []string
	createDocCalls  []createDocumentCall
	listCalls       []listDocumentsCall
	fileCalls       []createFileCall
	urlCalls        int
}

func (f *fakeBackend) CreateAccount(_ context.Context, userID, email, _, name string) (*appwrite.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createdAccounts = append(f.createdAccounts, userID)
	if f.createAccErr != nil {
		return nil, f.createAccErr
	}
	if f.account != nil {
		return f.account, nil
	}
	return &appwrite.Account{ID: userID, Email: email, Name: name}, nil
}

func (f *fakeBackend) GetAccount(ctx context.Context) (*appwrite.Account, error) {
	if f.getAccountErr != nil {
		return nil, f.getAccountErr
	}
	if f.account == nil {
		return nil, &appwrite.Error{Code: 401, Message: "unauthorized"}
	}
	return f.account, nil
}

func (f *fakeBackend) CreateEmailSession(_ context.Context, _, _ string) (*appwrite.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sessionErr != nil {
		return nil, f.sessionErr
	}
	f.sessionsCreated++
	if f.session != nil {
		return f.session, nil
	}
	return &appwrite.Session{ID: "session-1", UserID: "account-1", Secret: "secret-1", Expire: time.Now().Add(time.Hour)}, nil
}

func (f *fakeBackend) DeleteSession(_ context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletedSessions = append(f.deletedSessions, sessionID)
	return f.deleteErr
}

func (f *fakeBackend) CreateDocument(ctx context.Context, _, collectionID, documentID string, data any) (*appwrite.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createDocCalls = append(f.createDocCalls, createDocumentCall{
		collectionID: collectionID,
		documentID:   documentID,
		data:         data,
		session:      appwrite.SessionFromContext(ctx),
	})
	if f.createDocErr != nil {
		return nil, f.createDocErr
	}

	payload := map[string]any{}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, err
	}
	payload["$id"] = documentID
	payload["$collectionId"] = collectionID
	payload["$createdAt"] = "2024-05-02T18:24:53.123+00:00"
	doc := mustDocument(payload)
	return &doc, nil
}

func (f *fakeBackend) ListDocuments(ctx context.Context, _, collectionID string, queries ...appwrite.Query) (*appwrite.DocumentList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls = append(f.listCalls, listDocumentsCall{
		collectionID: collectionID,
		queries:      queries,
		session:      appwrite.SessionFromContext(ctx),
	})
	if f.listErr != nil {
		return nil, f.listErr
	}
	return &appwrite.DocumentList{Total: len(f.listDocs), Documents: f.listDocs}, nil
}

func (f *fakeBackend) CreateFile(ctx context.Context, _, fileID string, in appwrite.InputFile) (*appwrite.File, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	f.fileCalls = append(f.fileCalls, createFileCall{fileID: fileID, name: in.Name, content: string(data)})
	fileErr := f.fileErrs[in.Name]
	f.mu.Unlock()

	if fileErr != nil {
		return nil, fileErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &appwrite.File{ID: fileID, Name: in.Name}, nil
}

func (f *fakeBackend) FileViewURL(bucketID, fileID string) string {
	f.mu.Lock()
	f.urlCalls++
	f.mu.Unlock()
	return fmt.Sprintf("https://appwrite.test/v1/storage/buckets/%s/files/%s/view", bucketID, fileID)
}

func (f *fakeBackend) FilePreviewURL(bucketID, fileID string, opts appwrite.PreviewOptions) string {
	f.mu.Lock()
	f.urlCalls++
	f.mu.Unlock()
	return fmt.Sprintf("https://appwrite.test/v1/storage/buckets/%s/files/%s/preview?width=%d&height=%d&gravity=%s&quality=%d",
		bucketID, fileID, opts.Width, opts.Height, opts.Gravity, opts.Quality)
}

func (f *fakeBackend) InitialsURL(name string) string {
	return "https://appwrite.test/v1/avatars/initials?name=" + name
}

func mustDocument(payload map[string]any) appwrite.Document {
	raw, err := json.Marshal(payload)
	if err != nil {
		panic(err)
	}
	var doc appwrite.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		panic(err)
	}
	return doc
}

func postDocument(id, title, creator string, createdAt time.Time) appwrite.Document {
	return mustDocument(map[string]any{
		"$id":        id,
		"$createdAt": createdAt.Format(time.RFC3339Nano),
		"title":      title,
		"thumbnail":  "https://cdn.test/" + id + ".png",
		"video":      "https://cdn.test/" + id + ".mp4",
		"prompt":     "prompt for " + id,
		"creator":    creator,
	})
}

func sequentialIDs() func() string {
	var n atomic.Int64
	return func() string {
		return fmt.Sprintf("id-%d", n.Add(1))
	}
}

func newTestService(t *testing.T, backend *fakeBackend) *Service {
	t.Helper()
	return New(backend, testConfig, WithIDGenerator(sequentialIDs()))
}
