package handlers

import (
	"bytes"
	"io"
	"net/http"

	"github.com/aora/backend/internal/logging"
	"github.com/aora/backend/internal/views"
)

const (
	defaultEmptyTitle    = "No Videos Found"
	defaultEmptySubtitle = "No videos created yet"
)

// ViewHandler renders the presentational fragments as HTML.
type ViewHandler struct{}

// EmptyState handles GET /views/empty-state?title=&subtitle=.
func (ViewHandler) EmptyState(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	state := views.EmptyState{Title: q.Get("title"), Subtitle: q.Get("subtitle")}
	if state.Title == "" {
		state.Title = defaultEmptyTitle
	}
	if state.Subtitle == "" {
		state.Subtitle = defaultEmptySubtitle
	}
	renderHTML(w, r, state.Render)
}

// InfoBox handles GET /views/info-box?title=&subtitle=&containerStyles=&titleStyles=.
func (ViewHandler) InfoBox(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	box := views.InfoBox{
		Title:           q.Get("title"),
		Subtitle:        q.Get("subtitle"),
		ContainerStyles: q.Get("containerStyles"),
		TitleStyles:     q.Get("titleStyles"),
	}
	renderHTML(w, r, box.Render)
}

func renderHTML(w http.ResponseWriter, r *http.Request, render func(io.Writer) error) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		logging.FromContext(r.Context()).Error("render view", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
