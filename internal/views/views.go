// Package views renders the presentational fragments shown by the client
// when there is nothing to list and on profile summaries.
package views

import (
	"html/template"
	"io"
	"strings"
)

// CreatePath is where the empty-state call to action navigates.
const CreatePath = "/create"

const emptyStateText = `<div class="justify-center items-center px-4">
<img src="{{.Image}}" class="w-[270px] h-[215px]" alt="">
<h2 class="text-2xl font-psemibold text-white text-center mt-2">{{.Title}}</h2>
<p class="font-pmedium text-sm text-gray-100 mt-2">{{.Subtitle}}</p>
<a href="{{.Target}}" class="w-full my-5 custom-button" role="button">Create Video</a>
</div>
`

const infoBoxText = `<div class="{{.ContainerStyles}}">
<p class="{{.TitleClass}}">{{.Title}}</p>
<p class="text-sm text-gray-100 font-pregular text-center">{{.Subtitle}}</p>
</div>
`

var (
	emptyStateTemplate = template.Must(template.New("empty-state").Parse(emptyStateText))
	infoBoxTemplate    = template.Must(template.New("info-box").Parse(infoBoxText))
)

// EmptyState is shown in place of a list with no entries. Its call to
// action leads to the video creation screen.
type EmptyState struct {
	Title    string
	Subtitle string
}

// Render writes the fragment to w.
func (e EmptyState) Render(w io.Writer) error {
	return emptyStateTemplate.Execute(w, struct {
		Title    string
		Subtitle string
		Image    string
		Target   string
	}{
		Title:    e.Title,
		Subtitle: e.Subtitle,
		Image:    "/assets/images/empty.png",
		Target:   CreatePath,
	})
}

// InfoBox shows a title over a subtitle. The caller styles the container and
// the title; the subtitle style is fixed.
type InfoBox struct {
	Title           string
	Subtitle        string
	ContainerStyles string
	TitleStyles     string
}

// Render writes the fragment to w.
func (b InfoBox) Render(w io.Writer) error {
	titleClass := strings.TrimSpace("text-white text-center font-psemibold " + b.TitleStyles)
	return infoBoxTemplate.Execute(w, struct {
		Title           string
		Subtitle        string
		ContainerStyles string
		TitleClass      string
	}{
		Title:           b.Title,
		Subtitle:        b.Subtitle,
		ContainerStyles: b.ContainerStyles,
		TitleClass:      titleClass,
	})
}
