// ABOUTME: Web UI server with embedded templates
// ABOUTME: Gin engine serving the home, guide, calendar, checklist and chat pages
package web

import (
	"context"
	"crypto/rand"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/jaksim/jaksim/chat"
	"github.com/jaksim/jaksim/checklist"
	"github.com/jaksim/jaksim/config"
	"github.com/jaksim/jaksim/gcal"
	"github.com/jaksim/jaksim/models"
	"github.com/jaksim/jaksim/session"
	"go.uber.org/zap"
)

//go:embed templates/*
var templatesFS embed.FS

const (
	cookieName    = config.AppName
	sessionIDKey  = "sid"
	sessionCtxKey = "jaksim.session"
)

// Authorizer is the Google authorization flow as used by the web UI.
type Authorizer interface {
	State() gcal.AuthState
	BeginLogin(redirectURL string) (string, string, error)
	Complete(ctx context.Context, state, code string) (*models.Credential, error)
	Logout() error
}

// EventService performs calendar event operations.
type EventService interface {
	ListUpcoming(ctx context.Context, limit int) ([]models.CalendarEvent, error)
	Create(ctx context.Context, fields models.EventFields) (*models.CalendarEvent, error)
	Update(ctx context.Context, id string, fields models.EventFields) (*models.CalendarEvent, error)
	Delete(ctx context.Context, id string) error
}

// EventsFactory returns an EventService authorized for the current credential.
type EventsFactory func(ctx context.Context) (EventService, error)

// Deps are the collaborators of the web UI.
type Deps struct {
	Config    *config.Config
	Auth      Authorizer
	Events    EventsFactory
	Checklist checklist.Store
	Sessions  *session.Registry
	Logger    *zap.Logger

	// Chat is nil when the provider is not configured; ChatErr says why.
	Chat    chat.Streamer
	ChatErr error
}

type Server struct {
	cfg       *config.Config
	loc       *time.Location
	auth      Authorizer
	events    EventsFactory
	checklist checklist.Store
	sessions  *session.Registry
	chat      chat.Streamer
	chatErr   error
	logger    *zap.Logger

	engine *gin.Engine
	now    func() time.Time
}

func NewServer(d Deps) (*Server, error) {
	if d.Config == nil || d.Auth == nil || d.Events == nil || d.Checklist == nil || d.Sessions == nil {
		return nil, errors.New("web server is missing a dependency")
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Chat == nil && d.ChatErr == nil {
		d.ChatErr = chat.ErrMissingAPIKey
	}

	funcMap := template.FuncMap{
		"add": func(a, b int) int {
			return a + b
		},
		"dayOf": dayOf,
	}

	tmpl, err := template.New("").Funcs(funcMap).ParseFS(templatesFS, "templates/*.html", "templates/partials/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	secret := []byte(d.Config.SessionSecret)
	if len(secret) == 0 {
		// Sessions do not survive a restart without a configured secret.
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("failed to generate session secret: %w", err)
		}
	}
	store := cookie.NewStore(secret)
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int(d.Config.SessionIdle / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	s := &Server{
		cfg:       d.Config,
		loc:       d.Config.Location(),
		auth:      d.Auth,
		events:    d.Events,
		checklist: d.Checklist,
		sessions:  d.Sessions,
		chat:      d.Chat,
		chatErr:   d.ChatErr,
		logger:    d.Logger,
		now:       time.Now,
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger(d.Logger), sessions.Sessions(cookieName, store), s.attachSession)
	engine.SetHTMLTemplate(tmpl)
	s.routes(engine)
	s.engine = engine

	return s, nil
}

func (s *Server) routes(r *gin.Engine) {
	r.GET("/", s.handleHome)
	r.GET("/guide", s.handleGuide)
	r.GET("/health", s.handleHealth)

	r.GET("/auth/google/login", s.handleLogin)
	r.GET("/auth/google/callback", s.handleCallback)
	r.POST("/auth/logout", s.handleLogout)

	r.GET("/calendar", s.handleCalendar)
	r.GET("/calendar.ics", s.handleICS)
	r.POST("/calendar/events", s.handleCreateEvent)
	r.POST("/calendar/events/:id", s.handleUpdateEvent)
	r.POST("/calendar/events/:id/delete", s.handleDeleteEvent)
	r.GET("/api/events", s.handleAPIEvents)

	r.GET("/checklist", s.handleChecklist)
	r.POST("/checklist/tasks", s.handleAddTask)
	r.POST("/checklist/tasks/:index/toggle", s.handleToggleTask)
	r.POST("/checklist/save", s.handleSaveChecklist)
	r.POST("/checklist/purge", s.handlePurgeChecklist)

	r.GET("/chat", s.handleChat)
	r.POST("/chat/stream", s.handleChatStream)
	r.POST("/chat/reset", s.handleChatReset)
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on the configured address until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.sweepSessions(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting web server", zap.String("url", "http://"+s.cfg.Listen))
		errCh <- srv.ListenAndServe()
	}()

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

func (s *Server) sweepSessions(ctx context.Context) {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.sessions.Sweep(); n > 0 {
				s.logger.Debug("expired idle sessions", zap.Int("count", n))
			}
		}
	}
}

// attachSession resolves the browser's session from the signed cookie,
// starting a new one when the cookie is missing or the session expired.
func (s *Server) attachSession(c *gin.Context) {
	cs := sessions.Default(c)
	id, _ := cs.Get(sessionIDKey).(string)

	st, ok := s.sessions.Get(id)
	if !ok {
		st = s.sessions.Start()
		cs.Set(sessionIDKey, st.ID)
		if err := cs.Save(); err != nil {
			s.logger.Error("failed to save session cookie", zap.Error(err))
		}
	}
	c.Set(sessionCtxKey, st)
	c.Next()
}

func currentSession(c *gin.Context) *session.Session {
	return c.MustGet(sessionCtxKey).(*session.Session)
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		// Query strings are never logged; callbacks carry OAuth codes.
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

// page is the data passed to layout.html.
type page struct {
	Title           string
	ContentTemplate string
	Flashes         []session.Flash
	Data            any
}

func (s *Server) render(c *gin.Context, status int, title, content string, data any) {
	c.HTML(status, "layout.html", page{
		Title:           title,
		ContentTemplate: content,
		Flashes:         currentSession(c).TakeFlashes(),
		Data:            data,
	})
}

func (s *Server) redirect(c *gin.Context, location string) {
	c.Redirect(http.StatusSeeOther, location)
}

func (s *Server) flashError(c *gin.Context, msg string, err error) {
	if err != nil {
		s.logger.Warn(msg, zap.Error(err))
		msg = fmt.Sprintf("%s: %v", msg, err)
	}
	currentSession(c).AddFlash(session.FlashError, msg)
}

func (s *Server) flashInfo(c *gin.Context, msg string) {
	currentSession(c).AddFlash(session.FlashInfo, msg)
}

func (s *Server) today() string {
	return checklist.DateKey(s.now().In(s.loc))
}

func (s *Server) handleHome(c *gin.Context) {
	s.render(c, http.StatusOK, "작심지킴", "home-content", nil)
}

func (s *Server) handleGuide(c *gin.Context) {
	s.render(c, http.StatusOK, "사용 설명서", "guide-content", nil)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"google": s.auth.State().String(),
		"chat":   s.chat != nil,
	})
}
