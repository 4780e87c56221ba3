// Package server serves a live preview of the size tokens: the stylesheet,
// a JSON API over the size manager, breakpoint lookups and a websocket
// channel that pushes stylesheet and breakpoint changes to browsers.
package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/conneroisu/sizekit/internal/errors"
	"github.com/conneroisu/sizekit/internal/logging"
	"github.com/conneroisu/sizekit/internal/manager"
	"github.com/conneroisu/sizekit/internal/preset"
	"github.com/conneroisu/sizekit/internal/responsive"
	"github.com/conneroisu/sizekit/internal/tokens"
	"github.com/conneroisu/sizekit/internal/version"
)

// maxBodySize bounds JSON request bodies.
const maxBodySize = 64 << 10

// Default budget for state changing API requests per client IP.
const (
	defaultMutationsPerMinute = 120
	defaultMutationBurst      = 20
)

// Options configures a Server.
type Options struct {
	Host           string
	Port           int
	AllowedOrigins []string
	StyleID        string

	// Breakpoints for viewport and container matching. Nil uses the defaults.
	Breakpoints []responsive.Breakpoint
	Matching    responsive.MatcherOptions
	Observer    responsive.ObserverOptions

	// MutationsPerMinute and MutationBurst limit POST and PATCH requests
	// per client IP. Zero uses the defaults; negative disables the limit.
	MutationsPerMinute int
	MutationBurst      int
}

// Server is the preview HTTP server.
type Server struct {
	mgr      *manager.Manager
	hub      *Hub
	matcher  *responsive.Matcher
	observer *responsive.ContainerObserver
	opts     Options
	logger   logging.Logger
	limiter  *ipRateLimiter

	mu         sync.Mutex
	httpServer *http.Server
	listener   net.Listener
}

// New creates a server over mgr. hub should be the sink the manager writes
// to so stylesheet changes reach connected browsers; nil creates a hub
// that only serves the current stylesheet on connect.
func New(mgr *manager.Manager, hub *Hub, opts Options, logger logging.Logger) (*Server, error) {
	if mgr == nil {
		return nil, errors.NewValidationError(errors.ErrCodeConfigInvalid, "server requires a size manager")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if hub == nil {
		hub = NewHub(logger)
	}
	if opts.Host == "" {
		opts.Host = "localhost"
	}

	opts.Matching.Logger = logger
	matcher, err := responsive.NewMatcher(opts.Breakpoints, opts.Matching)
	if err != nil {
		return nil, err
	}

	opts.Observer.Logger = logger
	opts.Observer.Matching = opts.Matching

	if opts.MutationsPerMinute == 0 {
		opts.MutationsPerMinute = defaultMutationsPerMinute
	}
	if opts.MutationBurst == 0 {
		opts.MutationBurst = defaultMutationBurst
	}

	s := &Server{
		mgr:      mgr,
		hub:      hub,
		matcher:  matcher,
		observer: responsive.NewContainerObserver(opts.Observer),
		opts:     opts,
		logger:   logger.WithComponent("server"),
		limiter:  newIPRateLimiter(opts.MutationsPerMinute, opts.MutationBurst),
	}
	hub.handle = s.handleMessage

	return s, nil
}

// Hub returns the server's websocket hub.
func (s *Server) Hub() *Hub { return s.hub }

// Handler returns the server's routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handlePreview)
	mux.HandleFunc("GET /tokens.css", s.handleCSS)
	mux.HandleFunc("GET /api/config", s.handleGetConfig)
	mux.HandleFunc("PATCH /api/config", s.handlePatchConfig)
	mux.HandleFunc("GET /api/presets", s.handlePresets)
	mux.HandleFunc("POST /api/presets/{name}/apply", s.handleApplyPreset)
	mux.HandleFunc("GET /api/breakpoints", s.handleBreakpoints)
	mux.HandleFunc("GET /api/breakpoint", s.handleBreakpoint)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("/ws", s.handleWebSocket)

	return s.middleware().apply(mux)
}

// Start listens on the configured address and serves until ctx is done or
// Shutdown is called.
func (s *Server) Start(ctx context.Context) error {
	addr := net.JoinHostPort(s.opts.Host, strconv.Itoa(s.opts.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.NewIOError(errors.ErrCodeInternalFailure, "listen on "+addr, err)
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	s.mu.Lock()
	s.httpServer = srv
	s.listener = ln
	s.mu.Unlock()

	s.logger.Info(ctx, "preview server listening", "addr", ln.Addr().String())

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn(shutdownCtx, err, "server shutdown failed")
		}
	}()

	if err := srv.Serve(ln); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return errors.NewIOError(errors.ErrCodeInternalFailure, "serve", err)
	}

	return nil
}

// Addr returns the bound address once Start is listening.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}

	return s.listener.Addr().String()
}

// Shutdown disconnects clients, stops container observation and stops the
// HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()
	s.observer.Close()

	s.mu.Lock()
	srv := s.httpServer
	s.httpServer = nil
	s.mu.Unlock()

	if srv == nil {
		return nil
	}

	return srv.Shutdown(ctx)
}

func (s *Server) handleCSS(w http.ResponseWriter, r *http.Request) {
	css := s.mgr.CSS()

	if raw := r.URL.Query().Get("base"); raw != "" {
		px, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			s.writeError(w, r, errors.NewValidationError(errors.ErrCodeBaseSizeRange, "base must be a number"))
			return
		}
		if err := preset.ValidateBaseSize(px); err != nil {
			s.writeError(w, r, err)
			return
		}
		css = s.mgr.Generator().Generate(px)
	}

	if minify, _ := strconv.ParseBool(r.URL.Query().Get("minify")); minify {
		css = tokens.Minify(css)
	}

	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write([]byte(css))
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.mgr.State())
}

func (s *Server) handlePatchConfig(w http.ResponseWriter, r *http.Request) {
	var patch manager.Patch
	if err := decodeJSON(w, r, &patch); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.mgr.SetConfig(r.Context(), patch); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, s.mgr.State())
}

type presetView struct {
	preset.Preset
	Active bool `json:"active"`
}

func (s *Server) handlePresets(w http.ResponseWriter, r *http.Request) {
	current := s.mgr.CurrentPreset()
	presets := s.mgr.Presets()

	views := make([]presetView, len(presets))
	for i, p := range presets {
		views[i] = presetView{Preset: p, Active: p.Name == current}
	}

	s.writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleApplyPreset(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if !s.mgr.ApplyPreset(r.Context(), name) {
		if s.mgr.Destroyed() {
			s.writeError(w, r, errors.ErrDestroyed)
			return
		}
		s.writeError(w, r, errors.NewLookupError(errors.ErrCodeUnknownPreset, fmt.Sprintf("preset %q not found", name)))
		return
	}

	s.writeJSON(w, http.StatusOK, s.mgr.State())
}

type breakpointView struct {
	responsive.Breakpoint
	Range string `json:"range"`
}

func (s *Server) handleBreakpoints(w http.ResponseWriter, r *http.Request) {
	bps := s.matcher.Breakpoints()
	views := make([]breakpointView, len(bps))
	for i, bp := range bps {
		views[i] = breakpointView{Breakpoint: bp, Range: bp.Range()}
	}

	s.writeJSON(w, http.StatusOK, views)
}

// BreakpointResponse answers a width lookup.
type BreakpointResponse struct {
	Width   int      `json:"width"`
	Current string   `json:"current,omitempty"`
	Active  []string `json:"active"`
}

func (s *Server) handleBreakpoint(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("width")
	width, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		s.writeError(w, r, errors.NewValidationError(errors.ErrCodeInvalidBP, "width must be a number"))
		return
	}

	px := responsive.ToWidth(width)
	resp := BreakpointResponse{
		Width:  px,
		Active: responsive.Names(s.matcher.MatchAll(px)),
	}
	if bp, ok := s.matcher.Find(px); ok {
		resp.Current = bp.Name
	}

	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if s.mgr.Destroyed() {
		status = "destroyed"
		code = http.StatusServiceUnavailable
	}

	s.writeJSON(w, code, map[string]any{
		"status":  status,
		"version": version.GetVersion(),
		"preset":  s.mgr.CurrentPreset(),
		"clients": s.hub.Len(),
	})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if !s.checkOrigin(r) {
		s.logger.Warn(r.Context(), nil, "websocket origin rejected", "origin", r.Header.Get("Origin"))
		http.Error(w, "Origin not allowed", http.StatusForbidden)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.originPatterns(),
	})
	if err != nil {
		s.logger.Warn(r.Context(), err, "websocket upgrade failed")
		return
	}

	s.hub.serve(r.Context(), conn)
}

// checkOrigin accepts same-host origins and configured origins. Requests
// without an Origin header are rejected.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return false
	}

	u, err := url.Parse(origin)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}

	if strings.EqualFold(u.Host, r.Host) {
		return true
	}
	for _, pattern := range s.originPatterns() {
		if pattern == "*" || strings.EqualFold(pattern, u.Host) {
			return true
		}
	}

	return false
}

// originPatterns converts configured origins to host patterns.
func (s *Server) originPatterns() []string {
	patterns := make([]string, 0, len(s.opts.AllowedOrigins))
	for _, origin := range s.opts.AllowedOrigins {
		if u, err := url.Parse(origin); err == nil && u.Host != "" {
			patterns = append(patterns, u.Host)
			continue
		}
		patterns = append(patterns, origin)
	}

	return patterns
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(err, errors.ErrorTypeValidation, errors.ErrCodeConfigInvalid, "invalid request body")
	}

	return nil
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	resp := errorResponse{Error: err.Error(), Code: errors.Code(err)}

	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(r.Context(), err, "request failed", "path", r.URL.Path)
	}

	s.writeJSON(w, status, resp)
}

func statusFor(err error) int {
	var typed *errors.Error
	if !stderrors.As(err, &typed) {
		return http.StatusInternalServerError
	}

	switch typed.Type {
	case errors.ErrorTypeValidation:
		return http.StatusBadRequest
	case errors.ErrorTypeLookup:
		return http.StatusNotFound
	case errors.ErrorTypeLifecycle:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn(context.Background(), err, "encoding response failed")
	}
}
