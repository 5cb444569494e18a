// Package assessment serves the health risk form over HTTP: an HTML page that
// works without JavaScript and a small JSON API over the same sessions.
package assessment

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/kilianp07/healthpredictor/core/form"
	"github.com/kilianp07/healthpredictor/core/model"
	"github.com/kilianp07/healthpredictor/core/view"
	"github.com/kilianp07/healthpredictor/infra/logger"
)

//go:embed templates/*.html
var templateFS embed.FS

// CookieName holds the session identifier.
const CookieName = "hp_session"

// Pinger reports whether the prediction backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler serves the form page and the JSON API.
type Handler struct {
	store     *SessionStore
	templates *template.Template
	log       logger.Logger
	pinger    Pinger
	router    *chi.Mux
}

// Option configures a Handler.
type Option func(*Handler)

// WithPinger makes /healthz report backend reachability.
func WithPinger(p Pinger) Option { return func(h *Handler) { h.pinger = p } }

// NewHandler parses the embedded templates and sets up the routes.
func NewHandler(store *SessionStore, opts ...Option) (*Handler, error) {
	funcMap := template.FuncMap{
		"fixed": func(v float64) string { return fmt.Sprintf("%.2f", v) },
	}
	templates, err := template.New("").Funcs(funcMap).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	h := &Handler{
		store:     store,
		templates: templates,
		log:       logger.New("assessment-api"),
		router:    chi.NewRouter(),
	}
	for _, o := range opts {
		o(h)
	}
	h.setupMiddleware()
	h.setupRoutes()
	return h, nil
}

func (h *Handler) setupMiddleware() {
	h.router.Use(middleware.RequestID)
	h.router.Use(middleware.Logger)
	h.router.Use(middleware.Recoverer)
}

func (h *Handler) setupRoutes() {
	h.router.Get("/healthz", h.handleHealth)

	h.router.Group(func(r chi.Router) {
		r.Use(h.withSession)
		r.Get("/", h.handleIndex)
		r.Post("/", h.handleSubmitForm)
		r.Route("/api", func(r chi.Router) {
			r.Post("/field", h.handleField)
			r.Post("/predict", h.handlePredict)
			r.Get("/state", h.handleState)
		})
	})
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

type ctxKey struct{}

// withSession resolves the session cookie, creating a session on first visit.
func (h *Handler) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var ctrl *form.Controller
		if c, err := r.Cookie(CookieName); err == nil {
			ctrl, _ = h.store.Get(c.Value)
		}
		if ctrl == nil {
			ctrl = h.store.Create()
			http.SetCookie(w, &http.Cookie{
				Name:     CookieName,
				Value:    ctrl.SessionID(),
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
			h.log.Debugf("new session %s", ctrl.SessionID())
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, ctrl)))
	})
}

func controllerFrom(r *http.Request) *form.Controller {
	ctrl, _ := r.Context().Value(ctxKey{}).(*form.Controller)
	return ctrl
}

type pageData struct {
	view.View
	FieldErrors map[string]string
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, http.StatusOK, controllerFrom(r).Snapshot(), nil)
}

// handleSubmitForm applies every posted field and submits. Rejected fields
// leave the state untouched and cancel the submission.
func (h *Handler) handleSubmitForm(w http.ResponseWriter, r *http.Request) {
	ctrl := controllerFrom(r)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	fieldErrs := make(map[string]string)
	for _, f := range model.Fields() {
		key := f.String()
		if _, ok := r.PostForm[key]; !ok {
			continue
		}
		if err := ctrl.UpdateField(key, r.PostForm.Get(key)); err != nil {
			fieldErrs[key] = err.Error()
		}
	}
	if len(fieldErrs) > 0 {
		h.renderPage(w, http.StatusBadRequest, ctrl.Snapshot(), fieldErrs)
		return
	}
	h.renderPage(w, http.StatusOK, ctrl.Submit(r.Context()), nil)
}

func (h *Handler) renderPage(w http.ResponseWriter, status int, s form.Snapshot, fieldErrs map[string]string) {
	var buf bytes.Buffer
	if err := h.templates.ExecuteTemplate(&buf, "index.html", pageData{View: view.Build(s), FieldErrors: fieldErrs}); err != nil {
		h.log.Errorf("template error: %v", err)
		http.Error(w, "Template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		h.log.Errorf("write page: %v", err)
	}
}

type fieldRequest struct {
	Name  string          `json:"name"`
	Value json.RawMessage `json:"value"`
}

// rawValue accepts the value as a JSON number or string.
func (f fieldRequest) rawValue() string {
	var s string
	if err := json.Unmarshal(f.Value, &s); err == nil {
		return s
	}
	return string(f.Value)
}

func (h *Handler) handleField(w http.ResponseWriter, r *http.Request) {
	ctrl := controllerFrom(r)
	var req fieldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, fmt.Errorf("decode body: %w", err))
		return
	}
	if err := ctrl.UpdateField(req.Name, req.rawValue()); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	h.writeJSON(w, http.StatusOK, ctrl.Snapshot())
}

func (h *Handler) handlePredict(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, controllerFrom(r).Submit(r.Context()))
}

type stateResponse struct {
	Snapshot form.Snapshot `json:"snapshot"`
	View     view.View     `json:"view"`
}

func (h *Handler) handleState(w http.ResponseWriter, r *http.Request) {
	s := controllerFrom(r).Snapshot()
	h.writeJSON(w, http.StatusOK, stateResponse{Snapshot: s, View: view.Build(s)})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	out := map[string]any{"status": "ok", "sessions": h.store.Len()}
	if h.pinger != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		if err := h.pinger.Ping(ctx); err != nil {
			h.log.Warnf("backend ping: %v", err)
			out["backend"] = "down"
		} else {
			out["backend"] = "up"
		}
	}
	h.writeJSON(w, http.StatusOK, out)
}

func (h *Handler) writeError(w http.ResponseWriter, status int, err error) {
	var fe *model.FieldError
	body := map[string]string{"error": err.Error()}
	if errors.As(err, &fe) {
		body["field"] = fe.Field
	}
	h.writeJSON(w, status, body)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Errorf("encode response: %v", err)
	}
}
