// Package web serves the dashboard as a local web page backed by the same
// controller the terminal views use.
package web

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/runnerr0/quix/internal/dashboard"
	"github.com/runnerr0/quix/internal/metrics"
	"github.com/runnerr0/quix/internal/view"
)

// Options configures a Server.
type Options struct {
	View       view.Options
	DefaultTab view.Tab
	// AutoReload is how often the page reloads itself. Zero disables it.
	AutoReload time.Duration
	Logger     *slog.Logger
}

// Server is the gin application.
type Server struct {
	ctrl    *dashboard.Controller
	metrics *metrics.Recorder
	opts    Options
	logger  *slog.Logger
	tmpl    *template.Template
	engine  *gin.Engine
}

// New wires the routes. rec may be nil, in which case /metrics is not served.
func New(ctrl *dashboard.Controller, rec *metrics.Recorder, opts Options) *Server {
	gin.SetMode(gin.ReleaseMode)
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.DefaultTab == view.TabNone {
		opts.DefaultTab = view.TabNews
	}

	s := &Server{
		ctrl:    ctrl,
		metrics: rec,
		opts:    opts,
		logger:  logger,
		tmpl:    template.Must(template.New("dashboard").Funcs(templateFuncs).Parse(dashboardHTML)),
	}

	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())
	r.GET("/", s.handleIndex)
	r.GET("/api/view", s.handleView)
	r.GET("/api/state", s.handleState)
	r.POST("/collect", s.handleCollect)
	r.POST("/refresh", s.handleRefresh)
	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	if rec != nil {
		r.GET("/metrics", gin.WrapH(rec.Handler()))
	}
	s.engine = r
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler { return s.engine }

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	if err := ValidateListenAddr(addr); err != nil {
		return err
	}
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.engine,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.logger.Info("dashboard listening", "url", ListenURL(addr))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

// viewState reads ?tab= and ?expanded= into a fresh view state.
func (s *Server) viewState(c *gin.Context) (view.ViewState, error) {
	vs := view.NewViewState(s.opts.DefaultTab)
	if tab := c.Query("tab"); tab != "" {
		t, err := view.ParseTab(tab)
		if err != nil {
			return vs, err
		}
		vs.Tab = t
	}
	switch c.Query("expanded") {
	case "1", "true", "yes":
		vs.Expanded = true
	}
	if sec := c.Query("section"); sec != "" {
		section, err := view.ParseSection(sec)
		if err != nil {
			return vs, err
		}
		vs.Navigate(section)
	}
	return vs, nil
}

func (s *Server) page(vs view.ViewState) view.Page {
	st := s.ctrl.State()
	now := st.CurrentTime
	if now.IsZero() {
		now = time.Now()
	}
	return view.BuildPage(st.Data(), vs, now, s.opts.View)
}

type indexData struct {
	Page        view.Page
	Reload      int
	NewsURL     string
	ChatterURL  string
	ToggleURL   string
	Sections    []view.Section
	Hint        string
	InitMessage string
	Initialized bool
}

func pageURL(tab view.Tab, expanded bool) string {
	q := url.Values{}
	q.Set("tab", string(tab))
	if expanded {
		q.Set("expanded", "1")
	}
	return "/?" + q.Encode()
}

func (s *Server) handleIndex(c *gin.Context) {
	vs, err := s.viewState(c)
	if err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}
	p := s.page(vs)
	data := indexData{
		Page:        p,
		Reload:      int(s.opts.AutoReload / time.Second),
		NewsURL:     pageURL(view.TabNews, vs.Expanded),
		ChatterURL:  pageURL(view.TabChatter, vs.Expanded),
		ToggleURL:   pageURL(vs.Tab, !vs.Expanded),
		Sections:    view.Sections(),
		Hint:        view.MsgNoEventsHint,
		InitMessage: view.MsgInitializing,
		Initialized: !p.Initializing,
	}

	var sb strings.Builder
	if err := s.tmpl.Execute(&sb, data); err != nil {
		s.logger.Error("render dashboard", "err", err)
		c.String(http.StatusInternalServerError, "render failed")
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(sb.String()))
}

func (s *Server) handleView(c *gin.Context) {
	vs, err := s.viewState(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, s.page(vs))
}

func (s *Server) handleState(c *gin.Context) {
	c.JSON(http.StatusOK, s.ctrl.State())
}

// handleCollect triggers collection. Form posts from the page are redirected
// back to it; API callers get JSON.
func (s *Server) handleCollect(c *gin.Context) {
	err := s.ctrl.TriggerCollect(c.Request.Context())
	if c.Query("redirect") != "" {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"ok": true, "message": "collection triggered"})
}

func (s *Server) handleRefresh(c *gin.Context) {
	res := s.ctrl.Refresh(c.Request.Context())
	failed := make([]string, 0, len(res.Errors))
	for _, slot := range res.Failed() {
		failed = append(failed, string(slot))
	}
	if c.Query("redirect") != "" {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ok":           res.OK(),
		"failed":       failed,
		"last_updated": res.State.LastUpdated,
		"duration_ms":  res.Duration.Milliseconds(),
	})
}

// ValidateListenAddr accepts ":port" and "host:port".
func ValidateListenAddr(addr string) error {
	trimmed := strings.TrimSpace(addr)
	if trimmed == "" {
		return errors.New("listen address cannot be empty")
	}
	if strings.HasPrefix(trimmed, ":") {
		return nil
	}
	if _, _, err := net.SplitHostPort(trimmed); err != nil {
		return fmt.Errorf("invalid listen address %q: %w", trimmed, err)
	}
	return nil
}

// ListenURL is the browsable URL for a listen address.
func ListenURL(addr string) string {
	trimmed := strings.TrimSpace(addr)
	switch {
	case strings.HasPrefix(trimmed, ":"):
		return "http://127.0.0.1" + trimmed
	case strings.HasPrefix(trimmed, "0.0.0.0:"):
		return "http://127.0.0.1:" + strings.TrimPrefix(trimmed, "0.0.0.0:")
	case strings.HasPrefix(trimmed, "[::]:"):
		return "http://127.0.0.1:" + strings.TrimPrefix(trimmed, "[::]:")
	}
	return "http://" + trimmed
}
