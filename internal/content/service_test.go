package content

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/aora/backend/internal/appwrite"
	"github.com/aora/backend/internal/models"
)

func TestCreateUserRegistersSignsInAndStoresProfile(t *testing.T) {
	backend := &fakeBackend{}
	svc := newTestService(t, backend)

	user, session, err := svc.CreateUser(context.Background(), "alice@example.com", "secret123", "alice")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	if backend.sessionsCreated != 1 {
		t.Fatalf("expected one session to be created got %d", backend.sessionsCreated)
	}
	if session == nil || session.Secret != "secret-1" {
		t.Fatalf("unexpected session %+v", session)
	}
	if len(backend.createdAccounts) != 1 {
		t.Fatalf("expected one account got %d", len(backend.createdAccounts))
	}
	if user.AccountID != backend.createdAccounts[0] {
		t.Fatalf("user account id %q does not match created account %q", user.AccountID, backend.createdAccounts[0])
	}
	if user.Username != "alice" || user.Email != "alice@example.com" {
		t.Fatalf("unexpected user %+v", user)
	}
	if user.Avatar == "" || !strings.Contains(user.Avatar, "initials?name=alice") {
		t.Fatalf("expected initials avatar got %q", user.Avatar)
	}

	if len(backend.createDocCalls) != 1 {
		t.Fatalf("expected one document write got %d", len(backend.createDocCalls))
	}
	call := backend.createDocCalls[0]
	if call.collectionID != "users" {
		t.Fatalf("expected user collection got %q", call.collectionID)
	}
	if call.session != "secret-1" {
		t.Fatalf("expected document write under new session got %q", call.session)
	}
}

func TestCreateUserPropagatesAccountFailure(t *testing.T) {
	backend := &fakeBackend{createAccErr: &appwrite.Error{Code: 409, Message: "user already exists"}}
	svc := newTestService(t, backend)

	user, session, err := svc.CreateUser(context.Background(), "alice@example.com", "secret123", "alice")
	if err == nil {
		t.Fatal("expected error")
	}
	if !appwrite.IsConflict(err) {
		t.Fatalf("expected wrapped appwrite conflict got %v", err)
	}
	if user != nil || session != nil {
		t.Fatalf("expected no result on failure got %+v %+v", user, session)
	}
	if backend.sessionsCreated != 0 || len(backend.createDocCalls) != 0 {
		t.Fatal("expected no downstream calls after account failure")
	}
}

func TestCreateUserRejectsEmptyAccount(t *testing.T) {
	backend := &fakeBackend{account: &appwrite.Account{}}
	svc := newTestService(t, backend)

	if _, _, err := svc.CreateUser(context.Background(), "alice@example.com", "secret123", "alice"); !errors.Is(err, ErrAccountNotCreated) {
		t.Fatalf("expected ErrAccountNotCreated got %v", err)
	}
}

func TestCreateUserPropagatesSignInFailure(t *testing.T) {
	backend := &fakeBackend{sessionErr: &appwrite.Error{Code: 401, Message: "invalid credentials"}}
	svc := newTestService(t, backend)

	if _, _, err := svc.CreateUser(context.Background(), "alice@example.com", "secret123", "alice"); !appwrite.IsUnauthorized(err) {
		t.Fatalf("expected unauthorized got %v", err)
	}
	if len(backend.createDocCalls) != 0 {
		t.Fatal("expected no user document without a session")
	}
}

func TestSignInRequiresSecret(t *testing.T) {
	backend := &fakeBackend{session: &appwrite.Session{ID: "s1"}}
	svc := newTestService(t, backend)

	if _, err := svc.SignIn(context.Background(), "alice@example.com", "secret123"); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession got %v", err)
	}
}

func TestGetCurrentUserWithoutSession(t *testing.T) {
	backend := &fakeBackend{account: &appwrite.Account{ID: "account-1"}}
	svc := newTestService(t, backend)

	if user := svc.GetCurrentUser(context.Background()); user != nil {
		t.Fatalf("expected nil user got %+v", user)
	}
	if account := svc.GetAccount(context.Background()); account != nil {
		t.Fatalf("expected nil account got %+v", account)
	}
	if len(backend.listCalls) != 0 {
		t.Fatal("expected no lookups without a session")
	}
}

func TestGetCurrentUserRejectedSession(t *testing.T) {
	backend := &fakeBackend{}
	svc := newTestService(t, backend)

	ctx := appwrite.WithSession(context.Background(), "expired")
	if user := svc.GetCurrentUser(ctx); user != nil {
		t.Fatalf("expected nil user got %+v", user)
	}
}

func TestGetCurrentUserFindsDocument(t *testing.T) {
	backend := &fakeBackend{
		account: &appwrite.Account{ID: "account-1"},
		listDocs: []appwrite.Document{mustDocument(map[string]any{
			"$id":        "user-1",
			"$createdAt": "2024-05-02T18:24:53.123+00:00",
			"accountId":  "account-1",
			"email":      "alice@example.com",
			"username":   "alice",
			"avatar":     "https://appwrite.test/avatar",
		})},
	}
	svc := newTestService(t, backend)

	ctx := appwrite.WithSession(context.Background(), "secret-1")
	user := svc.GetCurrentUser(ctx)
	if user == nil {
		t.Fatal("expected user")
	}

	want := models.User{
		ID:        "user-1",
		AccountID: "account-1",
		Email:     "alice@example.com",
		Username:  "alice",
		Avatar:    "https://appwrite.test/avatar",
		CreatedAt: time.Date(2024, time.May, 2, 18, 24, 53, 123000000, time.UTC),
	}
	if diff := cmp.Diff(want, *user, cmp.Comparer(func(a, b time.Time) bool { return a.Equal(b) })); diff != "" {
		t.Fatalf("unexpected user (-want +got):\n%s", diff)
	}

	wantQueries := []appwrite.Query{appwrite.Equal("accountId", "account-1"), appwrite.Limit(1)}
	if diff := cmp.Diff(wantQueries, backend.listCalls[0].queries); diff != "" {
		t.Fatalf("unexpected queries (-want +got):\n%s", diff)
	}
	if backend.listCalls[0].collectionID != "users" || backend.listCalls[0].session != "secret-1" {
		t.Fatalf("unexpected lookup %+v", backend.listCalls[0])
	}
}

func TestGetCurrentUserNoDocument(t *testing.T) {
	backend := &fakeBackend{account: &appwrite.Account{ID: "account-1"}}
	svc := newTestService(t, backend)

	if user := svc.GetCurrentUser(appwrite.WithSession(context.Background(), "secret-1")); user != nil {
		t.Fatalf("expected nil user got %+v", user)
	}
}

func TestListingQueries(t *testing.T) {
	cases := []struct {
		name string
		call func(*Service) []models.Post
		want []appwrite.Query
	}{
		{
			name: "all posts",
			call: func(s *Service) []models.Post { return s.GetAllPosts(context.Background()) },
			want: []appwrite.Query{appwrite.OrderDesc("$createdAt")},
		},
		{
			name: "latest posts",
			call: func(s *Service) []models.Post { return s.GetLatestPosts(context.Background()) },
			want: []appwrite.Query{appwrite.OrderDesc("$createdAt"), appwrite.Limit(7)},
		},
		{
			name: "search posts",
			call: func(s *Service) []models.Post { return s.SearchPosts(context.Background(), "sunset") },
			want: []appwrite.Query{appwrite.Search("title", "sunset")},
		},
		{
			name: "user posts",
			call: func(s *Service) []models.Post { return s.GetUserPosts(context.Background(), "user-1") },
			want: []appwrite.Query{appwrite.Equal("creator", "user-1"), appwrite.OrderDesc("$createdAt")},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			backend := &fakeBackend{}
			svc := newTestService(t, backend)

			posts := tc.call(svc)
			if posts == nil {
				t.Fatal("expected non-nil slice")
			}
			if len(backend.listCalls) != 1 {
				t.Fatalf("expected one list call got %d", len(backend.listCalls))
			}
			if backend.listCalls[0].collectionID != "videos" {
				t.Fatalf("expected video collection got %q", backend.listCalls[0].collectionID)
			}
			if diff := cmp.Diff(tc.want, backend.listCalls[0].queries); diff != "" {
				t.Fatalf("unexpected queries (-want +got):\n%s", diff)
			}
		})
	}
}

func TestReadsReturnEmptyOnFailure(t *testing.T) {
	backend := &fakeBackend{listErr: errors.New("network down")}
	svc := newTestService(t, backend)
	ctx := context.Background()

	for name, posts := range map[string][]models.Post{
		"all":    svc.GetAllPosts(ctx),
		"latest": svc.GetLatestPosts(ctx),
		"search": svc.SearchPosts(ctx, "x"),
		"user":   svc.GetUserPosts(ctx, "user-1"),
	} {
		if posts == nil || len(posts) != 0 {
			t.Fatalf("%s: expected empty slice got %#v", name, posts)
		}
	}
}

func TestSearchPostsNoMatch(t *testing.T) {
	svc := newTestService(t, &fakeBackend{})

	posts := svc.SearchPosts(context.Background(), "nonexistent-term-xyz")
	if posts == nil || len(posts) != 0 {
		t.Fatalf("expected empty result got %#v", posts)
	}
}

func TestGetLatestPostsCapsAndKeepsOrder(t *testing.T) {
	base := time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)
	var docs []appwrite.Document
	for i := 9; i >= 1; i-- {
		docs = append(docs, postDocument("post-"+string(rune('0'+i)), "title", "user-1", base.Add(time.Duration(i)*time.Hour)))
	}
	svc := newTestService(t, &fakeBackend{listDocs: docs})

	posts := svc.GetLatestPosts(context.Background())
	if len(posts) != LatestPostsLimit {
		t.Fatalf("expected %d posts got %d", LatestPostsLimit, len(posts))
	}
	for i := 1; i < len(posts); i++ {
		if posts[i].CreatedAt.After(posts[i-1].CreatedAt) {
			t.Fatalf("posts not sorted descending at %d: %v after %v", i, posts[i].CreatedAt, posts[i-1].CreatedAt)
		}
	}
}

func TestDecodePostExpandedCreator(t *testing.T) {
	doc := mustDocument(map[string]any{
		"$id":   "post-1",
		"title": "Sunset",
		"creator": map[string]any{
			"$id":      "user-1",
			"username": "alice",
			"avatar":   "https://appwrite.test/avatar",
		},
	})
	svc := newTestService(t, &fakeBackend{listDocs: []appwrite.Document{doc}})

	posts := svc.GetAllPosts(context.Background())
	if len(posts) != 1 {
		t.Fatalf("expected one post got %d", len(posts))
	}
	if posts[0].Creator != "user-1" || posts[0].CreatorUser == nil || posts[0].CreatorUser.Username != "alice" {
		t.Fatalf("unexpected creator %+v", posts[0])
	}
}

func TestSignOutDeletesCurrentSession(t *testing.T) {
	backend := &fakeBackend{}
	svc := newTestService(t, backend)

	if err := svc.SignOut(appwrite.WithSession(context.Background(), "secret-1")); err != nil {
		t.Fatalf("sign out: %v", err)
	}
	if diff := cmp.Diff([]string{"current"}, backend.deletedSessions); diff != "" {
		t.Fatalf("unexpected deleted sessions (-want +got):\n%s", diff)
	}

	backend.deleteErr = &appwrite.Error{Code: 404, Message: "session not found"}
	if err := svc.SignOut(context.Background()); err != nil {
		t.Fatalf("expected missing session to count as signed out got %v", err)
	}

	backend.deleteErr = errors.New("boom")
	if err := svc.SignOut(context.Background()); err == nil {
		t.Fatal("expected sign out failure to propagate")
	}
}

func TestGetFilePreviewShapes(t *testing.T) {
	backend := &fakeBackend{}
	svc := newTestService(t, backend)
	ctx := context.Background()

	image, err := svc.GetFilePreview(ctx, "file-1", models.FileTypeImage)
	if err != nil {
		t.Fatalf("image preview: %v", err)
	}
	video, err := svc.GetFilePreview(ctx, "file-1", models.FileTypeVideo)
	if err != nil {
		t.Fatalf("video preview: %v", err)
	}
	if image == video {
		t.Fatal("expected image and video urls to differ")
	}
	if !strings.Contains(image, "/preview?width=2000&height=2000&gravity=top&quality=100") {
		t.Fatalf("unexpected image url %s", image)
	}
	if !strings.HasSuffix(video, "/view") {
		t.Fatalf("unexpected video url %s", video)
	}
}

func TestGetFilePreviewInvalidType(t *testing.T) {
	backend := &fakeBackend{}
	svc := newTestService(t, backend)

	audio, parseErr := models.ParseFileType("audio")
	if !errors.Is(parseErr, ErrInvalidFileType) {
		t.Fatalf("expected parse failure got %v", parseErr)
	}

	if _, err := svc.GetFilePreview(context.Background(), "file-1", audio); !errors.Is(err, ErrInvalidFileType) {
		t.Fatalf("expected ErrInvalidFileType got %v", err)
	}
	if backend.urlCalls != 0 {
		t.Fatal("expected no backend interaction for invalid type")
	}
}

func TestUploadFileNilAsset(t *testing.T) {
	backend := &fakeBackend{}
	svc := newTestService(t, backend)

	url, err := svc.UploadFile(context.Background(), nil, models.FileTypeImage)
	if err != nil || url != "" {
		t.Fatalf("expected empty no-op result got %q %v", url, err)
	}
	if len(backend.fileCalls) != 0 || backend.urlCalls != 0 {
		t.Fatal("expected no backend calls for nil asset")
	}
}

func TestUploadFileReturnsPreview(t *testing.T) {
	backend := &fakeBackend{}
	svc := newTestService(t, backend)

	url, err := svc.UploadFile(context.Background(), &models.Asset{Name: "thumb.png", MimeType: "image/png", Size: 5, Body: strings.NewReader("thumb")}, models.FileTypeImage)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if len(backend.fileCalls) != 1 || backend.fileCalls[0].content != "thumb" {
		t.Fatalf("unexpected upload calls %+v", backend.fileCalls)
	}
	if !strings.Contains(url, "/files/"+backend.fileCalls[0].fileID+"/preview") {
		t.Fatalf("unexpected url %s", url)
	}
}

func TestUploadFileInvalidTypeSkipsUpload(t *testing.T) {
	backend := &fakeBackend{}
	svc := newTestService(t, backend)

	_, err := svc.UploadFile(context.Background(), &models.Asset{Name: "a.mp3", Body: strings.NewReader("x")}, models.FileType(42))
	if !errors.Is(err, ErrInvalidFileType) {
		t.Fatalf("expected ErrInvalidFileType got %v", err)
	}
	if len(backend.fileCalls) != 0 {
		t.Fatal("expected no upload for invalid type")
	}
}

func TestCreateVideoUploadsBothThenStoresPost(t *testing.T) {
	backend := &fakeBackend{}
	svc := newTestService(t, backend)

	post, err := svc.CreateVideo(context.Background(), models.VideoForm{
		Title:     "Sunset",
		Prompt:    "a sunset over the sea",
		CreatorID: "user-1",
		Thumbnail: &models.Asset{Name: "thumb.png", MimeType: "image/png", Body: strings.NewReader("thumb")},
		Video:     &models.Asset{Name: "clip.mp4", MimeType: "video/mp4", Body: strings.NewReader("video")},
	})
	if err != nil {
		t.Fatalf("create video: %v", err)
	}

	if len(backend.fileCalls) != 2 {
		t.Fatalf("expected two uploads got %d", len(backend.fileCalls))
	}
	if len(backend.createDocCalls) != 1 || backend.createDocCalls[0].collectionID != "videos" {
		t.Fatalf("expected one post document got %+v", backend.createDocCalls)
	}
	if post.Title != "Sunset" || post.Prompt != "a sunset over the sea" || post.Creator != "user-1" {
		t.Fatalf("unexpected post %+v", post)
	}
	if !strings.Contains(post.Thumbnail, "/preview") || !strings.HasSuffix(post.Video, "/view") {
		t.Fatalf("unexpected media urls %q %q", post.Thumbnail, post.Video)
	}
}

func TestCreateVideoThumbnailFailureWritesNothing(t *testing.T) {
	backend := &fakeBackend{fileErrs: map[string]error{"thumb.png": errors.New("quota exceeded")}}
	svc := newTestService(t, backend)

	_, err := svc.CreateVideo(context.Background(), models.VideoForm{
		Title:     "Sunset",
		CreatorID: "user-1",
		Thumbnail: &models.Asset{Name: "thumb.png", Body: strings.NewReader("thumb")},
		Video:     &models.Asset{Name: "clip.mp4", Body: strings.NewReader("video")},
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "quota exceeded") {
		t.Fatalf("expected cause in error got %v", err)
	}
	if len(backend.createDocCalls) != 0 {
		t.Fatal("expected no post document after failed upload")
	}
}

func TestCreateVideoRequiresAssets(t *testing.T) {
	backend := &fakeBackend{}
	svc := newTestService(t, backend)

	_, err := svc.CreateVideo(context.Background(), models.VideoForm{
		Title: "Sunset",
		Video: &models.Asset{Name: "clip.mp4", Body: strings.NewReader("video")},
	})
	if !errors.Is(err, ErrMissingAsset) {
		t.Fatalf("expected ErrMissingAsset got %v", err)
	}
	if len(backend.fileCalls) != 0 || len(backend.createDocCalls) != 0 {
		t.Fatal("expected no backend writes")
	}
}

func TestCreateVideoDocumentFailurePropagates(t *testing.T) {
	backend := &fakeBackend{createDocErr: errors.New("document invalid")}
	svc := newTestService(t, backend)

	_, err := svc.CreateVideo(context.Background(), models.VideoForm{
		Thumbnail: &models.Asset{Name: "thumb.png", Body: strings.NewReader("thumb")},
		Video:     &models.Asset{Name: "clip.mp4", Body: strings.NewReader("video")},
	})
	if err == nil {
		t.Fatal("expected error")
	}
}
