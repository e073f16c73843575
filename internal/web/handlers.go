package web

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"golang.org/x/oauth2"

	"github.com/justestif/moodtunes/internal/auth"
	"github.com/justestif/moodtunes/internal/capture"
	"github.com/justestif/moodtunes/internal/clustering"
	"github.com/justestif/moodtunes/internal/emotion"
	"github.com/justestif/moodtunes/internal/ingest"
	"github.com/justestif/moodtunes/internal/mood"
	"github.com/justestif/moodtunes/internal/recommend"
	"github.com/justestif/moodtunes/internal/spotify"
	"github.com/justestif/moodtunes/internal/tags"
)

const (
	oauthStateCookie = "oauth_state"

	// maxFrameBody bounds a POST /recommend body: a base64 frame plus form overhead.
	maxFrameBody = capture.MaxUploadSize*4/3 + 64<<10

	emptyBucketMessage = "No tracks in your playlist match this mood"
)

// Catalog is the user's music catalog, authorized with their token.
// *spotify.Client implements it.
type Catalog interface {
	ingest.Catalog
	recommend.PlaylistWriter
	CurrentUser(ctx context.Context) (id, displayName string, err error)
	Token() (*oauth2.Token, error)
}

// Connector opens a catalog authorized with token.
type Connector func(ctx context.Context, token *oauth2.Token) Catalog

// Authorizer runs the OAuth authorization code flow.
// *auth.Authenticator implements it.
type Authorizer interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, expectedState string, r *http.Request) (*oauth2.Token, error)
}

// Handlers contains HTTP handlers for the web application.
type Handlers struct {
	auth      Authorizer
	connect   Connector
	sessions  SessionManager
	templates *Templates
	taxonomy  mood.Taxonomy
	tagger    tags.TagService
	profile   clustering.Config
	sampler   *emotion.Sampler
	selector  *recommend.Selector
	size      int
	camera    capture.Source
	now       func() time.Time
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(cfg ServerConfig, sessions SessionManager, templates *Templates) *Handlers {
	size := cfg.RecommendationSize
	if size <= 0 {
		size = recommend.DefaultSize(cfg.Taxonomy)
	}

	return &Handlers{
		auth:      cfg.Auth,
		connect:   cfg.Connect,
		sessions:  sessions,
		templates: templates,
		taxonomy:  cfg.Taxonomy,
		tagger:    cfg.Tagger,
		profile:   cfg.Profile,
		sampler:   cfg.Sampler,
		selector:  cfg.Selector,
		size:      size,
		camera:    cfg.Camera,
		now:       time.Now,
	}
}

// Home handles the home page (GET /).
func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	session := h.sessions.GetFromRequest(r)

	data := HomePageData{
		PageData: PageData{
			Title:       "MoodTunes",
			CurrentPath: r.URL.Path,
		},
		Authenticated: session != nil,
		Pipeline:      h.taxonomy.Name(),
		ServerCamera:  h.camera != nil,
	}

	if session != nil {
		data.User = &UserData{
			ID:   session.UserID,
			Name: session.UserName,
		}
		data.Flash = session.PopFlash()

		if res, loadedAt := session.Playlist(); res != nil {
			data.Playlist = &PlaylistData{
				ID:         res.PlaylistID,
				Total:      res.Total,
				Classified: res.Classified,
				Dropped:    res.Dropped,
				Buckets:    res.Index.Counts(),
				Profile:    res.Profile,
				LoadedAt:   loadedAt,
			}
		}

		if set, ok := session.Current(); ok {
			data.Recommendations = recommendationsData(session.LastReading(), set, false)
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.Render(w, "home", data); err != nil {
		h.reportError(r, fmt.Errorf("rendering home: %w", err))
		http.Error(w, "Failed to render template", http.StatusInternalServerError)
		return
	}
}

// LoadPlaylist builds the session's mood index from a playlist reference (POST /playlist).
func (h *Handlers) LoadPlaylist(w http.ResponseWriter, r *http.Request) {
	session := h.sessions.GetFromRequest(r)
	if session == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	catalog := h.connect(r.Context(), session.Token())
	service := ingest.NewService(catalog, h.taxonomy,
		ingest.WithTagService(h.tagger),
		ingest.WithProfileConfig(h.profile),
	)

	res, err := service.Ingest(r.Context(), r.FormValue("playlist"))
	h.keepToken(session, catalog)

	switch {
	case errors.Is(err, spotify.ErrInvalidReference):
		session.SetFlash("error", "That doesn't look like a Spotify playlist link or URI.")
	case err != nil:
		h.reportError(r, err)
		session.SetFlash("error", "Couldn't load that playlist from Spotify. Please try again.")
	default:
		session.SetPlaylist(res, h.now())
		session.SetFlash("success", fmt.Sprintf("Loaded %d tracks: %d classified, %d skipped.",
			res.Total, res.Classified, res.Dropped))
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Recommend samples the user's mood and renders recommendations (POST /recommend).
// The response is the recommendations partial.
func (h *Handlers) Recommend(w http.ResponseWriter, r *http.Request) {
	session := h.sessions.GetFromRequest(r)
	if session == nil {
		h.renderRecommendations(w, r, http.StatusUnauthorized, &RecommendationsData{Error: "Log in with Spotify first."})
		return
	}

	if res, _ := session.Playlist(); res == nil {
		h.renderRecommendations(w, r, http.StatusConflict, &RecommendationsData{Error: "Load a playlist first."})
		return
	}

	src, err := h.frameSource(w, r)
	if err != nil {
		log.Printf("WARN: reading uploaded frame: %v", err)
		h.renderRecommendations(w, r, http.StatusBadRequest, &RecommendationsData{Error: "That frame couldn't be read. Please try again."})
		return
	}

	reading, err := h.sampler.Sample(r.Context(), src)
	if err != nil {
		h.reportError(r, err)
		h.renderRecommendations(w, r, http.StatusServiceUnavailable, &RecommendationsData{Error: "Couldn't read from the camera. Please try again."})
		return
	}

	set, fresh, err := session.Recommend(reading, func(idx *mood.Index) recommend.Set {
		return h.selector.Draw(reading.Mood, idx, h.size, reading.At)
	})
	if err != nil {
		h.renderRecommendations(w, r, http.StatusConflict, &RecommendationsData{Error: "Load a playlist first."})
		return
	}

	h.renderRecommendations(w, r, http.StatusOK, recommendationsData(&reading, set, fresh))
}

// SaveRecommendations saves the current set as a new playlist (POST /recommendations/save).
func (h *Handlers) SaveRecommendations(w http.ResponseWriter, r *http.Request) {
	session := h.sessions.GetFromRequest(r)
	if session == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	set, ok := session.Current()
	if !ok || set.Empty() {
		session.SetFlash("warning", "There are no recommendations to save yet.")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	catalog := h.connect(r.Context(), session.Token())
	name := strings.TrimSpace(r.FormValue("name"))
	public := r.FormValue("public") == "on"

	res, err := recommend.NewPersister(catalog).Save(r.Context(), name, set, public)
	h.keepToken(session, catalog)

	switch {
	case errors.Is(err, recommend.ErrNothingToSave):
		session.SetFlash("warning", "None of these tracks could be found on Spotify.")
	case err != nil:
		h.reportError(r, err)
		session.SetFlash("error", "Couldn't save the playlist. Please try again.")
	default:
		msg := fmt.Sprintf("Saved %d tracks to a new playlist.", res.Added)
		if res.Skipped > 0 {
			msg += fmt.Sprintf(" %d local tracks were not found on Spotify.", res.Skipped)
		}
		session.SetFlash("success", msg)
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Healthz reports liveness (GET /healthz).
func (h *Handlers) Healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

// Login initiates the Spotify OAuth flow (GET /auth/login).
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	// Generate state for CSRF protection
	state, err := auth.NewState()
	if err != nil {
		http.Error(w, "Failed to generate state", http.StatusInternalServerError)
		return
	}

	// Store state in cookie for validation on callback
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   300, // 5 minutes
	})

	http.Redirect(w, r, h.auth.AuthURL(state), http.StatusTemporaryRedirect)
}

// Callback handles the OAuth callback from Spotify (GET /callback).
func (h *Handlers) Callback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil {
		http.Error(w, "Missing state cookie", http.StatusBadRequest)
		return
	}

	// Clear state cookie
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})

	token, err := h.auth.Exchange(r.Context(), stateCookie.Value, r)
	switch {
	case errors.Is(err, auth.ErrStateMismatch):
		http.Error(w, "State mismatch", http.StatusBadRequest)
		return
	case errors.Is(err, auth.ErrAccessDenied):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		h.reportError(r, err)
		http.Error(w, "Failed to get token", http.StatusInternalServerError)
		return
	}

	catalog := h.connect(r.Context(), token)
	userID, userName, err := catalog.CurrentUser(r.Context())
	if err != nil {
		h.reportError(r, err)
		http.Error(w, "Failed to get user info", http.StatusInternalServerError)
		return
	}

	session, err := h.sessions.Create(r.Context(), token, userID, userName)
	if err != nil {
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		return
	}

	h.sessions.SetCookie(w, session)
	http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
}

// Logout clears the session and redirects to home (POST /auth/logout).
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	session := h.sessions.GetFromRequest(r)
	if session != nil {
		h.sessions.Delete(r.Context(), session.ID)
	}

	h.sessions.ClearCookie(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// frameSource returns the server camera when one is configured, otherwise the
// frame the browser posted as a data URL.
func (h *Handlers) frameSource(w http.ResponseWriter, r *http.Request) (capture.Source, error) {
	if h.camera != nil {
		return h.camera, nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxFrameBody)
	return capture.ParseDataURL(r.FormValue("frame"))
}

func (h *Handlers) renderRecommendations(w http.ResponseWriter, r *http.Request, status int, data *RecommendationsData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.templates.RenderPartial(w, "recommendations", data); err != nil {
		h.reportError(r, fmt.Errorf("rendering recommendations: %w", err))
	}
}

// keepToken stores a token the catalog refreshed during the request.
func (h *Handlers) keepToken(session *Session, catalog Catalog) {
	token, err := catalog.Token()
	if err != nil {
		return
	}
	session.SetToken(token)
}

// reportError logs err and sends it to Sentry when the request carries a hub.
func (h *Handlers) reportError(r *http.Request, err error) {
	log.Printf("ERROR: %s %s: %v", r.Method, r.URL.Path, err)
	if hub := sentry.GetHubFromContext(r.Context()); hub != nil {
		hub.CaptureException(err)
	}
}

func recommendationsData(reading *mood.Reading, set recommend.Set, fresh bool) *RecommendationsData {
	data := &RecommendationsData{
		Reading: reading,
		Mood:    set.Mood,
		Tracks:  set.Tracks,
		DrawnAt: set.DrawnAt,
		Fresh:   fresh,
	}
	if set.Empty() {
		data.Empty = emptyBucketMessage
	}
	return data
}
