package root_view

import (
	"html/template"
	"io"

	"punctuation/messages"
	"punctuation/server/tile_views"
)

// HomeData lists every glyph page.
type HomeData struct {
	Title string
	Intro string
	Marks []MarkLink
}

type MarkLink struct {
	Mark  string
	Href  string
	Title string
}

// NewHomeData returns the home page data for the glyph set.
func NewHomeData(glyphs []string) HomeData {
	data := HomeData{
		Title: messages.Get(messages.HomeTitle),
		Intro: messages.Get(messages.HomeIntro),
	}
	for _, glyph := range glyphs {
		data.Marks = append(data.Marks, MarkLink{
			Mark:  glyph,
			Href:  tile_views.MarkPath(glyph),
			Title: messages.Get(messages.GoToMark, glyph),
		})
	}
	return data
}

// PlaceholderData is the glyph page without a glyph.
type PlaceholderData struct {
	Title   string
	Message string
	Home    string
}

func NewPlaceholderData() PlaceholderData {
	return PlaceholderData{
		Title:   messages.Get(messages.HomeTitle),
		Message: messages.Get(messages.NoMark),
		Home:    messages.Get(messages.HomeLinkTitle),
	}
}

var pages = template.Must(template.New("pages").Parse(`
{{ define "home" }}` + head + `
	<body>
		<p>{{ .Intro }}</p>
		<ul class="marks">
		{{- range .Marks }}
			<li><a href="{{ .Href }}" title="{{ .Title }}">{{ .Mark }}</a></li>
		{{- end }}
		</ul>
	</body>
</html>
{{ end }}
{{ define "placeholder" }}` + head + `
	<body>
		<p>{{ .Message }}</p>
		<p><a href="/">{{ .Home }}</a></p>
	</body>
</html>
{{ end }}`))

// RenderHome writes the home page.
func RenderHome(w io.Writer, data HomeData) error {
	return pages.ExecuteTemplate(w, "home", data)
}

// RenderPlaceholder writes the page shown when no glyph was given.
func RenderPlaceholder(w io.Writer, data PlaceholderData) error {
	return pages.ExecuteTemplate(w, "placeholder", data)
}
