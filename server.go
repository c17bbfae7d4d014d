package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"

	"github.com/stevecastle/asciistereo/appconfig"
	"github.com/stevecastle/asciistereo/auth"
	"github.com/stevecastle/asciistereo/history"
	"github.com/stevecastle/asciistereo/renderer"
	"github.com/stevecastle/asciistereo/stereogram"
	"github.com/stevecastle/asciistereo/stream"
	"github.com/stevecastle/asciistereo/textio"
)

// maxListLimit caps ?limit= on the list endpoint.
const maxListLimit = 500

// server reads its settings through appconfig.Get on every request.
type server struct {
	store *history.Store
	auth  *auth.Service
	hub   *stream.Hub
}

func newServer(store *history.Store, authSvc *auth.Service, hub *stream.Hub) *server {
	renderer.AuthMiddleware = func(next http.Handler, _ renderer.AuthRole) http.Handler {
		return authSvc.Middleware(next)
	}
	return &server{store: store, auth: authSvc, hub: hub}
}

func (s *server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", renderer.ApplyMiddlewares(s.indexHandler, renderer.RolePublic))
	mux.HandleFunc("GET /renders/{id}", renderer.ApplyMiddlewares(s.renderPageHandler, renderer.RolePublic))
	mux.HandleFunc("POST /api/stereograms", renderer.ApplyMiddlewares(s.createHandler, renderer.RolePublic))
	mux.HandleFunc("GET /api/stereograms", renderer.ApplyMiddlewares(s.listHandler, renderer.RolePublic))
	mux.HandleFunc("GET /api/stereograms/{id}", renderer.ApplyMiddlewares(s.getHandler, renderer.RolePublic))
	mux.HandleFunc("DELETE /api/stereograms/{id}", renderer.ApplyMiddlewares(s.deleteHandler, renderer.RoleAdmin))
	mux.HandleFunc("POST /api/login", renderer.ApplyMiddlewares(s.loginHandler, renderer.RolePublic))
	mux.HandleFunc("GET /api/users", renderer.ApplyMiddlewares(s.listUsersHandler, renderer.RoleAdmin))
	mux.HandleFunc("DELETE /api/users/{name}", renderer.ApplyMiddlewares(s.deleteUserHandler, renderer.RoleAdmin))
	mux.HandleFunc("GET /health", renderer.ApplyMiddlewares(s.healthHandler, renderer.RolePublic))
	mux.Handle("GET /stream", renderer.Logger(s.hub))
	// Preflight for every route.
	mux.HandleFunc("OPTIONS /", renderer.ApplyMiddlewares(func(http.ResponseWriter, *http.Request) {}, renderer.RolePublic))
	return mux
}

// -----------------------------------------------------------------------------
// Pages
// -----------------------------------------------------------------------------

type IndexTemplateData struct {
	Renders        []history.Render
	Total          int
	DefaultShift   int
	DefaultRescale float64
}

type RenderTemplateData struct{ Render history.Render }

func (s *server) indexHandler(w http.ResponseWriter, r *http.Request) {
	cfg := appconfig.Get()
	renders, err := s.store.List(r.Context(), cfg.HistoryLimit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	total, err := s.store.Count(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	data := IndexTemplateData{
		Renders:        renders,
		Total:          total,
		DefaultShift:   cfg.DefaultShift,
		DefaultRescale: cfg.DefaultRescale,
	}
	if err := renderer.Templates().ExecuteTemplate(w, "index", data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *server) renderPageHandler(w http.ResponseWriter, r *http.Request) {
	rec, err := s.store.Get(r.Context(), r.PathValue("id"))
	if errors.Is(err, history.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if err := renderer.Templates().ExecuteTemplate(w, "render", RenderTemplateData{Render: rec}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// -----------------------------------------------------------------------------
// API
// -----------------------------------------------------------------------------

type createRequest struct {
	DepthMap string   `json:"depth_map"`
	Pattern  *string  `json:"pattern,omitempty"`
	Shift    int      `json:"shift,omitempty"`
	Width    int      `json:"width,omitempty"`
	Height   int      `json:"height,omitempty"`
	Rescale  *float64 `json:"rescale,omitempty"`
	Seed     *int64   `json:"seed,omitempty"`
	Record   *bool    `json:"record,omitempty"`
}

type renderResponse struct {
	ID            string    `json:"id,omitempty"`
	CreatedAt     time.Time `json:"created_at,omitzero"`
	Shift         int       `json:"shift"`
	Width         int       `json:"width"`
	Height        int       `json:"height"`
	Rescale       float64   `json:"rescale"`
	Seed          int64     `json:"seed"`
	PatternSource string    `json:"pattern_source"`
	Output        string    `json:"output"`
}

type listResponse struct {
	Renders []history.Render `json:"renders"`
	Total   int              `json:"total"`
}

func readJSONBody(w http.ResponseWriter, r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, textio.MaxFileSize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return fmt.Errorf("unexpected data after JSON body")
	}
	return nil
}

func (s *server) createHandler(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := readJSONBody(w, r, &req); err != nil {
		renderer.WriteError(w, http.StatusBadRequest, "", "bad json: "+err.Error())
		return
	}

	cfg := appconfig.Get()
	opts := stereogram.Options{
		Shift:   req.Shift,
		Width:   req.Width,
		Height:  req.Height,
		Rescale: req.Rescale,
		Workers: cfg.Workers,
	}
	if opts.Shift == 0 {
		opts.Shift = cfg.DefaultShift
	}
	if opts.Rescale == nil {
		rescale := cfg.DefaultRescale
		opts.Rescale = &rescale
	}
	if req.Seed != nil {
		opts.Seed = *req.Seed
	} else {
		opts.Seed = rand.Int64()
	}
	if req.Pattern != nil {
		opts.PatternLines = textio.SplitLines(*req.Pattern)
	}

	res, err := stereogram.Generate(r.Context(), textio.SplitLines(req.DepthMap), opts)
	if err != nil {
		if kind := stereogram.Kind(err); kind != "" {
			renderer.WriteError(w, http.StatusUnprocessableEntity, kind, err.Error())
			return
		}
		renderer.WriteError(w, http.StatusInternalServerError, "", err.Error())
		return
	}

	resp := renderResponse{
		Shift:         res.Shift,
		Width:         res.Width,
		Height:        res.Height,
		Rescale:       res.Rescale,
		Seed:          res.Seed,
		PatternSource: res.PatternSource,
		Output:        res.Stereogram.String(),
	}
	status := http.StatusOK
	if req.Record == nil || *req.Record {
		rec, err := s.store.Record(r.Context(), history.FromResult(res, req.DepthMap, history.OriginHTTP))
		if err != nil {
			renderer.WriteError(w, http.StatusInternalServerError, "", err.Error())
			return
		}
		resp.ID, resp.CreatedAt = rec.ID, rec.CreatedAt
		status = http.StatusCreated
		s.hub.Publish(stream.Event{Type: stream.RenderCreated, ID: rec.ID, Title: rec.Title(), CreatedAt: rec.CreatedAt})
	}
	renderer.WriteJSON(w, status, resp)
}

func (s *server) listHandler(w http.ResponseWriter, r *http.Request) {
	limit := appconfig.Get().HistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			renderer.WriteError(w, http.StatusBadRequest, "", "limit must be a non-negative integer")
			return
		}
		limit = n
		if n == 0 || n > maxListLimit {
			limit = maxListLimit
		}
	}
	renders, err := s.store.List(r.Context(), limit)
	if err != nil {
		renderer.WriteError(w, http.StatusInternalServerError, "", err.Error())
		return
	}
	total, err := s.store.Count(r.Context())
	if err != nil {
		renderer.WriteError(w, http.StatusInternalServerError, "", err.Error())
		return
	}
	renderer.WriteJSON(w, http.StatusOK, listResponse{Renders: renders, Total: total})
}

func (s *server) getHandler(w http.ResponseWriter, r *http.Request) {
	rec, err := s.store.Get(r.Context(), r.PathValue("id"))
	if errors.Is(err, history.ErrNotFound) {
		renderer.WriteError(w, http.StatusNotFound, "", err.Error())
		return
	}
	if err != nil {
		renderer.WriteError(w, http.StatusInternalServerError, "", err.Error())
		return
	}
	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if _, err := io.WriteString(w, rec.Output); err != nil {
			log.Printf("Error writing render %s: %v", rec.ID, err)
		}
		return
	}
	renderer.WriteJSON(w, http.StatusOK, rec)
}

func (s *server) deleteHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	err := s.store.Delete(r.Context(), id)
	if errors.Is(err, history.ErrNotFound) {
		renderer.WriteError(w, http.StatusNotFound, "", err.Error())
		return
	}
	if err != nil {
		renderer.WriteError(w, http.StatusInternalServerError, "", err.Error())
		return
	}
	if c, ok := auth.ClaimsFromContext(r.Context()); ok {
		log.Printf("Render %s deleted by %s", id, c.Username)
	}
	s.hub.Publish(stream.Event{Type: stream.RenderDeleted, ID: id})
	w.WriteHeader(http.StatusNoContent)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *server) loginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := readJSONBody(w, r, &req); err != nil {
		renderer.WriteError(w, http.StatusBadRequest, "", "bad json: "+err.Error())
		return
	}
	token, err := s.auth.Login(req.Username, req.Password)
	if errors.Is(err, auth.ErrInvalidCreds) {
		renderer.WriteError(w, http.StatusUnauthorized, "", err.Error())
		return
	}
	if err != nil {
		renderer.WriteError(w, http.StatusInternalServerError, "", err.Error())
		return
	}
	renderer.WriteJSON(w, http.StatusOK, map[string]string{"token": token})
}

type usersResponse struct {
	Users []auth.User `json:"users"`
}

func (s *server) listUsersHandler(w http.ResponseWriter, r *http.Request) {
	users, err := s.auth.ListUsers()
	if err != nil {
		renderer.WriteError(w, http.StatusInternalServerError, "", err.Error())
		return
	}
	if users == nil {
		users = []auth.User{}
	}
	renderer.WriteJSON(w, http.StatusOK, usersResponse{Users: users})
}

func (s *server) deleteUserHandler(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	err := s.auth.DeleteUser(name)
	switch {
	case errors.Is(err, auth.ErrUserNotFound):
		renderer.WriteError(w, http.StatusNotFound, "", err.Error())
		return
	case errors.Is(err, auth.ErrLastUser):
		renderer.WriteError(w, http.StatusConflict, "", err.Error())
		return
	case err != nil:
		renderer.WriteError(w, http.StatusInternalServerError, "", err.Error())
		return
	}
	if c, ok := auth.ClaimsFromContext(r.Context()); ok {
		log.Printf("User %s deleted by %s", name, c.Username)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) healthHandler(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	count, err := s.store.Count(r.Context())
	if err != nil {
		log.Printf("Health check: %v", err)
		status = "degraded"
	}
	renderer.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().Unix(),
		"renders":   count,
		"stream":    s.hub.Stats(),
	})
}
