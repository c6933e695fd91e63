package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/aora/backend/internal/content"
	"github.com/aora/backend/internal/logging"
	"github.com/aora/backend/internal/models"
)

// DefaultMaxUploadBytes bounds the multipart body of a new post.
const DefaultMaxUploadBytes = 200 << 20

const multipartMemory = 32 << 20

// PostHandler serves the post listings and post creation.
type PostHandler struct {
	Posts          PostService
	MaxUploadBytes int64
}

// List handles GET /api/v1/posts.
func (h PostHandler) List(w http.ResponseWriter, r *http.Request) {
	respondJSON(r.Context(), w, http.StatusOK, h.Posts.GetAllPosts(r.Context()))
}

// Latest handles GET /api/v1/posts/latest.
func (h PostHandler) Latest(w http.ResponseWriter, r *http.Request) {
	respondJSON(r.Context(), w, http.StatusOK, h.Posts.GetLatestPosts(r.Context()))
}

// Search handles GET /api/v1/posts/search?query=.
func (h PostHandler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if query == "" {
		respondError(ctx, w, http.StatusBadRequest, "query is required")
		return
	}
	respondJSON(ctx, w, http.StatusOK, h.Posts.SearchPosts(ctx, query))
}

// ByUser handles GET /api/v1/users/{userID}/posts.
func (h PostHandler) ByUser(w http.ResponseWriter, r *http.Request) {
	respondJSON(r.Context(), w, http.StatusOK, h.Posts.GetUserPosts(r.Context(), chi.URLParam(r, "userID")))
}

// Create handles POST /api/v1/posts. The body is multipart with the fields
// title and prompt and the files thumbnail and video. The post is attributed
// to the caller's user profile.
func (h PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	limit := h.MaxUploadBytes
	if limit <= 0 {
		limit = DefaultMaxUploadBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(ctx, w, http.StatusRequestEntityTooLarge, "upload too large")
			return
		}
		logger.Warn("invalid post payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	title := strings.TrimSpace(r.FormValue("title"))
	prompt := strings.TrimSpace(r.FormValue("prompt"))
	if title == "" || prompt == "" {
		respondError(ctx, w, http.StatusBadRequest, "title and prompt are required")
		return
	}

	thumbnail, closeThumbnail, err := formAsset(r, "thumbnail")
	if err != nil {
		respondError(ctx, w, http.StatusBadRequest, "thumbnail and video are required")
		return
	}
	defer closeThumbnail()

	video, closeVideo, err := formAsset(r, "video")
	if err != nil {
		respondError(ctx, w, http.StatusBadRequest, "thumbnail and video are required")
		return
	}
	defer closeVideo()

	user := h.Posts.GetCurrentUser(ctx)
	if user == nil {
		respondError(ctx, w, http.StatusUnauthorized, "no user profile for this session")
		return
	}

	post, err := h.Posts.CreateVideo(ctx, models.VideoForm{
		Title:     title,
		Prompt:    prompt,
		CreatorID: user.ID,
		Thumbnail: thumbnail,
		Video:     video,
	})
	if err != nil {
		if errors.Is(err, content.ErrMissingAsset) || errors.Is(err, content.ErrInvalidFileType) {
			respondError(ctx, w, http.StatusBadRequest, err.Error())
			return
		}
		logger.Error("create post failed", "error", err)
		respondError(ctx, w, http.StatusBadGateway, "failed to create post")
		return
	}

	respondJSON(ctx, w, http.StatusCreated, post)
}

func formAsset(r *http.Request, field string) (*models.Asset, func(), error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, func() {}, err
	}
	return &models.Asset{
		Name:     header.Filename,
		MimeType: partContentType(header),
		Size:     header.Size,
		Body:     file,
	}, func() { _ = file.Close() }, nil
}

func partContentType(header *multipart.FileHeader) string {
	if ct := header.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
