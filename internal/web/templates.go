package web

import (
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/justestif/moodtunes/internal/clustering"
	"github.com/justestif/moodtunes/internal/mood"
)

// Templates manages HTML template rendering.
type Templates struct {
	templates map[string]*template.Template
	partials  map[string]*template.Template
	funcs     template.FuncMap
}

// NewTemplates creates a new template manager by loading templates from the given filesystem.
func NewTemplates(templatesFS fs.FS) (*Templates, error) {
	t := &Templates{
		templates: make(map[string]*template.Template),
		partials:  make(map[string]*template.Template),
		funcs:     defaultFuncs(),
	}

	if err := t.load(templatesFS); err != nil {
		return nil, err
	}

	return t, nil
}

// Render renders a page template with the given data.
func (t *Templates) Render(w io.Writer, page string, data any) error {
	tmpl, ok := t.templates[page]
	if !ok {
		return fmt.Errorf("template %q not found", page)
	}

	// Execute the "base" template which includes the page content
	return tmpl.ExecuteTemplate(w, "base", data)
}

// RenderPartial renders a partial template (without base layout) with the given data.
// A partial file defines a template named after the file.
func (t *Templates) RenderPartial(w io.Writer, partial string, data any) error {
	tmpl, ok := t.partials[partial]
	if !ok {
		return fmt.Errorf("partial %q not found", partial)
	}
	return tmpl.ExecuteTemplate(w, partial, data)
}

// load parses all templates from the filesystem.
func (t *Templates) load(templatesFS fs.FS) error {
	layouts, err := fs.Glob(templatesFS, "layouts/*.html")
	if err != nil {
		return fmt.Errorf("finding layouts: %w", err)
	}

	partials, err := fs.Glob(templatesFS, "partials/*.html")
	if err != nil {
		return fmt.Errorf("finding partials: %w", err)
	}

	pages, err := fs.Glob(templatesFS, "pages/*.html")
	if err != nil {
		return fmt.Errorf("finding pages: %w", err)
	}
	if len(pages) == 0 {
		return fmt.Errorf("no page templates found")
	}

	// Common files to include with every page
	commonFiles := append(layouts, partials...)

	for _, page := range pages {
		name := templateName(page)
		files := append([]string{page}, commonFiles...)

		tmpl, err := template.New(name).Funcs(t.funcs).ParseFS(templatesFS, files...)
		if err != nil {
			return fmt.Errorf("parsing template %s: %w", name, err)
		}
		t.templates[name] = tmpl
	}

	// Partials are also rendered on their own for fetch() fragments
	for _, partial := range partials {
		name := templateName(partial)

		tmpl, err := template.New(name).Funcs(t.funcs).ParseFS(templatesFS, partial)
		if err != nil {
			return fmt.Errorf("parsing partial %s: %w", name, err)
		}
		t.partials[name] = tmpl
	}

	return nil
}

func templateName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), ".html")
}

// defaultFuncs returns the default template functions.
func defaultFuncs() template.FuncMap {
	return template.FuncMap{
		// moodColor returns an HSL color for a feature centroid.
		// Energy maps to hue (cool indigo to warm orange), valence to
		// saturation and lightness. Centroids without features get grey.
		"moodColor": func(centroid map[string]float64) template.CSS {
			energy, okE := centroid["energy"]
			valence, okV := centroid["valence"]
			if !okE || !okV {
				return "hsl(0, 0%, 55%)"
			}
			hue := 264 - (energy * 229)
			if hue < 0 {
				hue += 360
			}
			saturation := 60 + (valence * 40)
			lightness := 40 + (valence * 20)
			return template.CSS(fmt.Sprintf("hsl(%.0f, %.0f%%, %.0f%%)", hue, saturation, lightness))
		},

		"moodEmoji": moodEmoji,

		// ago formats a time as "3 minutes ago"
		"ago": humanize.Time,

		// percent formats a 0-1 confidence as "87%"
		"percent": func(f float64) string {
			return fmt.Sprintf("%.0f%%", f*100)
		},

		// formatTime formats a time as "15:04:05"
		"formatTime": func(t time.Time) string {
			return t.Format(time.TimeOnly)
		},

		"join": strings.Join,

		// add adds two integers (for 1-based indexing in loops)
		"add": func(a, b int) int {
			return a + b
		},
	}
}

func moodEmoji(m mood.Mood) string {
	switch m {
	case mood.Happy:
		return "😊"
	case mood.Sad:
		return "😢"
	case mood.Angry:
		return "😠"
	case mood.Fear:
		return "😨"
	case mood.Surprised:
		return "😮"
	case mood.Disgust:
		return "🤢"
	case mood.Energetic:
		return "⚡"
	case mood.Calm:
		return "🌿"
	default:
		return "😐"
	}
}

// PageData contains common data passed to all page templates.
type PageData struct {
	Title       string
	User        *UserData
	Flash       *FlashMessage
	CurrentPath string
}

// UserData contains authenticated user information.
type UserData struct {
	ID   string
	Name string
}

// FlashMessage represents a temporary notification message.
type FlashMessage struct {
	Type    string // "success", "error", "warning", "info"
	Message string
}

// HomePageData contains data for the home page template.
type HomePageData struct {
	PageData
	Authenticated   bool
	Pipeline        string
	ServerCamera    bool // Frames come from the server camera, not the browser
	Playlist        *PlaylistData
	Recommendations *RecommendationsData
}

// PlaylistData summarizes the loaded playlist.
type PlaylistData struct {
	ID         string
	Total      int
	Classified int
	Dropped    int
	Buckets    []mood.BucketCount
	Profile    clustering.Profile
	LoadedAt   time.Time
}

// RecommendationsData contains data for the recommendations partial.
type RecommendationsData struct {
	Reading *mood.Reading
	Mood    mood.Mood
	Tracks  []mood.Entry
	DrawnAt time.Time
	Fresh   bool   // False when the cached set was reused
	Empty   string // Shown when the mood's bucket has no tracks
	Error   string
}
