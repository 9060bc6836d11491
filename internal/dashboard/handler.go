// Package dashboard serves the server-rendered tracker pages. It reads all
// data through the tracker REST API.
package dashboard

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/d2sandbox/tracker/internal/destiny"
	"github.com/d2sandbox/tracker/pkg/d2api"
)

//go:embed templates/*.html
var templateFS embed.FS

// API is the part of the tracker API the dashboard uses
type API interface {
	FetchUser(ctx context.Context, name string) (*d2api.User, error)
	AddUser(ctx context.Context, name string, platform int) error
	FetchCharacters(ctx context.Context, playerID int64) ([]d2api.Character, error)
	FetchStats(ctx context.Context, filters d2api.StatsFilter) (*d2api.Stats, error)
	Modes(ctx context.Context) ([]d2api.Mode, error)
}

// Handler renders the dashboard pages
type Handler struct {
	api       API
	templates *template.Template
	logger    logrus.FieldLogger
}

// NewHandler parses the page templates
func NewHandler(api API, logger logrus.FieldLogger) (*Handler, error) {
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"formatDate": formatDate,
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Handler{api: api, templates: tmpl, logger: logger}, nil
}

// Routes returns the dashboard router
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.Home)
	r.Post("/search", h.Search)
	r.Get("/results", h.Results)

	return r
}

func (h *Handler) render(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := h.templates.ExecuteTemplate(&buf, name, data); err != nil {
		h.logger.WithError(err).WithField("template", name).Error("failed to render page")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// Home handles GET /
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, "home.html", newSearchView("", ""))
}

// Search handles POST /search. An unknown user is registered on the selected
// platform and looked up once more.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render(w, http.StatusBadRequest, "home.html", &searchView{Error: "Invalid form submission."})
		return
	}

	username := strings.TrimSpace(r.PostForm.Get("username"))
	platform := r.PostForm.Get("platform")
	view := newSearchView(username, platform)

	if username == "" {
		view.Error = "Please enter a Bungie Name."
		h.render(w, http.StatusBadRequest, "home.html", view)
		return
	}

	ctx := r.Context()
	_, err := h.api.FetchUser(ctx, username)
	if err == nil {
		h.redirectToResults(w, r, username)
		return
	}

	log := h.logger.WithField("bng_username", username)
	if !d2api.IsNotFound(err) {
		log.WithError(err).Warn("user search failed")
		view.Error = err.Error()
		h.render(w, http.StatusOK, "home.html", view)
		return
	}

	if platform == "" {
		view.Error = "User not found (404). Please select a platform to add them."
		h.render(w, http.StatusOK, "home.html", view)
		return
	}
	platformInt, convErr := strconv.Atoi(platform)
	if convErr != nil {
		view.Error = "Invalid platform selected."
		h.render(w, http.StatusBadRequest, "home.html", view)
		return
	}

	log.WithField("platform", platformInt).Info("user not found, adding")
	if err := h.api.AddUser(ctx, username, platformInt); err != nil {
		view.Error = "Failed to add user: " + err.Error()
		h.render(w, http.StatusOK, "home.html", view)
		return
	}
	if _, err := h.api.FetchUser(ctx, username); err != nil {
		view.Error = "Failed to add user: " + err.Error()
		h.render(w, http.StatusOK, "home.html", view)
		return
	}

	h.redirectToResults(w, r, username)
}

func (h *Handler) redirectToResults(w http.ResponseWriter, r *http.Request, username string) {
	http.Redirect(w, r, "/results?user="+url.QueryEscape(username), http.StatusSeeOther)
}

// Results handles GET /results. Submitting the filter form reloads this page
// with the filter values in the query string.
func (h *Handler) Results(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	username := strings.TrimSpace(q.Get("user"))
	if username == "" {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	ctx := r.Context()
	user, err := h.api.FetchUser(ctx, username)
	if err != nil {
		h.logger.WithError(err).WithField("bng_username", username).Warn("results for unknown user")
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	view := &resultsView{
		User:        user,
		Platform:    valueOr(user.Platform, "N/A"),
		DateCreated: formatDate(user.DateCreated),
		LastPlayed:  formatDate(user.DateLastPlayed),
		DestinyID:   strconv.FormatInt(user.DestinyID, 10),
	}
	view.CharacterIDs, view.IDsMessage = characterIDList(user.CharacterIDs)

	selectedChar := q.Get("character_id")
	selectedMode := q.Get("mode")
	activityName := strings.TrimSpace(q.Get("activity_name"))
	if selectedMode != "" {
		activityName = ""
	}
	view.ActivityName = activityName
	view.Refresh = q.Get("refresh") != ""

	view.Characters = h.characterOptions(ctx, user, view.CharacterIDs, selectedChar)
	modes, modeLabel := h.modeOptions(ctx, selectedMode)
	view.Modes = modes

	if q.Has("apply") {
		if selectedChar == "" {
			view.FilterError = "Please select a character."
		} else {
			filters := d2api.StatsFilter{
				CharacterID:  selectedChar,
				Mode:         modeLabel,
				ActivityName: activityName,
				Refresh:      view.Refresh,
			}
			stats, err := h.api.FetchStats(ctx, filters)
			if err != nil {
				view.StatsError = err.Error()
			} else {
				view.Stats = stats
			}
		}
	}

	h.render(w, http.StatusOK, "results.html", view)
}

// characterOptions labels each character by class. Without character details
// the stored id list is used with placeholder labels.
func (h *Handler) characterOptions(ctx context.Context, user *d2api.User, ids []string, selected string) []option {
	var opts []option
	characters, err := h.api.FetchCharacters(ctx, user.PlayerID)
	if err != nil {
		h.logger.WithError(err).WithField("player_id", user.PlayerID).Warn("failed to load characters")
	}
	if len(characters) > 0 {
		for _, c := range characters {
			opts = append(opts, option{
				Value:    c.BngCharacterID,
				Label:    characterLabel(c.BngCharacterID, c.Class),
				Selected: c.BngCharacterID == selected,
			})
		}
		return opts
	}
	for _, id := range ids {
		opts = append(opts, option{Value: id, Label: characterLabel(id, ""), Selected: id == selected})
	}
	return opts
}

// modeOptions builds the mode select and returns the label of the selected
// mode, which is what the stats endpoint is sent.
func (h *Handler) modeOptions(ctx context.Context, selected string) ([]option, string) {
	modes, err := h.api.Modes(ctx)
	if err != nil || len(modes) == 0 {
		modes = modes[:0]
		for _, m := range destiny.ActivityModes() {
			modes = append(modes, d2api.Mode{Value: m.Value, Label: m.Label})
		}
	}

	var label string
	opts := make([]option, len(modes))
	for i, m := range modes {
		value := strconv.Itoa(m.Value)
		opts[i] = option{Value: value, Label: m.Label, Selected: value == selected}
		if value == selected {
			label = m.Label
		}
	}
	return opts, label
}
