package api

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/jorisv/dienst-catalogus/internal/auth"
	"github.com/jorisv/dienst-catalogus/internal/config"
	"github.com/jorisv/dienst-catalogus/internal/db"
	"github.com/jorisv/dienst-catalogus/internal/ingest"
	"github.com/jorisv/dienst-catalogus/internal/models"
	"github.com/jorisv/dienst-catalogus/internal/search"
)

type Server struct {
	Store       *db.Store
	Searcher    *search.Searcher
	AuthService *auth.Service
	Echo        *echo.Echo
	DB          *pgxpool.Pool
	Cfg         *config.Config

	// Background job tracking
	jobMu      sync.Mutex
	runningJob *backgroundJob
}

type backgroundJob struct {
	ID        string             `json:"id"`
	Status    string             `json:"status"` // running, completed, failed
	StartedAt time.Time          `json:"started_at"`
	EndedAt   time.Time          `json:"ended_at,omitempty"`
	Result    any                `json:"result,omitempty"`
	Error     string             `json:"error,omitempty"`
	Cancel    context.CancelFunc `json:"-"`
}

var (
	adminSecretOnce    sync.Once
	adminSecretRuntime string
	adminSecretErr     error
)

func NewServer(pool *pgxpool.Pool, cfg *config.Config) (*Server, error) {
	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, "X-Admin-Secret"},
	}))

	store := db.NewStore(pool)
	authService, err := auth.NewService(pool, cfg.JWTSecret)
	if err != nil {
		return nil, err
	}

	s := &Server{
		DB:          pool,
		Store:       store,
		Searcher:    search.NewSearcher(store, time.Duration(cfg.StoreTimeoutSeconds)*time.Second),
		AuthService: authService,
		Echo:        e,
		Cfg:         cfg,
	}

	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.Echo.GET("/health", s.handleHealth)
	api := s.Echo.Group("/api/v1")
	api.POST("/search", s.handleSearch)
	api.GET("/diensten/:id", s.handleGetDienst)
	api.GET("/stats", s.handleGetStats)

	// Admin Routes (Ingest)
	admin := api.Group("")
	admin.Use(s.adminMiddleware)
	admin.POST("/ingest", s.handleTriggerIngest)
	admin.GET("/admin/job/:id", s.handleJobStatus)

	// Auth Routes
	api.POST("/auth/signup", s.handleSignup)
	api.POST("/auth/login", s.handleLogin)

	// Protected Routes (Saved Diensten)
	saved := api.Group("/saved")
	saved.Use(s.AuthService.Middleware)
	saved.POST("/:id", s.handleSaveDienst)
	saved.DELETE("/:id", s.handleUnsaveDienst)
	saved.GET("", s.handleGetSavedDiensten)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

// searchRequest mirrors search.Request with an optional limit so an omitted
// limit gets a sane default instead of zero hits.
type searchRequest struct {
	Query        string                     `json:"query"`
	Themes       []string                   `json:"themas"`
	Municipality string                     `json:"gemeente"`
	Profile      *models.AssociationProfile `json:"profiel"`
	SortBy       string                     `json:"sort"`
	SortOrder    string                     `json:"order"`
	Offset       int                        `json:"offset"`
	Limit        *int                       `json:"limit"`
}

const defaultSearchLimit = 10

func (s *Server) handleSearch(c echo.Context) error {
	var body searchRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	limit := defaultSearchLimit
	if body.Limit != nil {
		limit = *body.Limit
	}

	result, err := s.Searcher.Search(c.Request().Context(), search.Request{
		Query:        body.Query,
		Themes:       body.Themes,
		Municipality: body.Municipality,
		Profile:      body.Profile,
		SortBy:       body.SortBy,
		SortOrder:    body.SortOrder,
		Offset:       body.Offset,
		Limit:        limit,
	})
	if err != nil {
		if errors.Is(err, search.ErrStoreUnavailable) {
			c.Logger().Errorf("Search failed: %v", err)
			return c.JSON(http.StatusBadGateway, map[string]string{"error": "Document store unavailable"})
		}
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, result)
}

func (s *Server) handleGetDienst(c echo.Context) error {
	id := c.Param("id")
	dienst, err := s.Store.GetDienst(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, dienst)
}

func (s *Server) handleGetStats(c echo.Context) error {
	stats, err := s.Store.Stats(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, stats)
}

func (s *Server) handleTriggerIngest(c echo.Context) error {
	s.jobMu.Lock()
	if s.runningJob != nil && s.runningJob.Status == "running" {
		job := s.runningJob
		s.jobMu.Unlock()
		return c.JSON(http.StatusConflict, map[string]interface{}{
			"error":  "An ingest job is already running",
			"job_id": job.ID,
		})
	}

	srcCfg, err := ingest.LoadSourceConfig()
	if err != nil {
		s.jobMu.Unlock()
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if s.Cfg.CMSBaseURL != "" {
		srcCfg.BaseURL = s.Cfg.CMSBaseURL
	}

	// context.WithoutCancel detaches from the HTTP lifecycle but preserves
	// trace values. We add our own timeout for safety.
	jobCtx, jobCancel := context.WithTimeout(
		context.WithoutCancel(c.Request().Context()), 30*time.Minute,
	)

	jobID := uuid.New().String()[:8]
	job := &backgroundJob{
		ID:        jobID,
		Status:    "running",
		StartedAt: time.Now(),
		Cancel:    jobCancel,
	}
	s.runningJob = job
	s.jobMu.Unlock()

	// Run in background goroutine; this handler returns 202 immediately.
	go func() {
		defer jobCancel()
		pipeline := ingest.NewPipeline(ingest.NewFetcher(*srcCfg), s.Store)

		stats, err := pipeline.Run(jobCtx)
		if err != nil {
			s.jobMu.Lock()
			job.Status = "failed"
			job.Error = err.Error()
			job.EndedAt = time.Now()
			s.jobMu.Unlock()
			log.Printf("[ingest-job %s] failed: %v", jobID, err)
			return
		}

		s.jobMu.Lock()
		job.Status = "completed"
		job.EndedAt = time.Now()
		job.Result = stats
		s.jobMu.Unlock()
		log.Printf("[ingest-job %s] completed: indexed=%d", jobID, stats.RecordsIndexed)
	}()

	return c.JSON(http.StatusAccepted, map[string]interface{}{
		"message": "Ingest job started",
		"job_id":  jobID,
		"poll":    fmt.Sprintf("/api/v1/admin/job/%s", jobID),
	})
}

func (s *Server) handleJobStatus(c echo.Context) error {
	queried := c.Param("id")
	s.jobMu.Lock()
	job := s.runningJob
	s.jobMu.Unlock()

	if job == nil || job.ID != queried {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "job not found"})
	}

	s.jobMu.Lock()
	resp := map[string]interface{}{
		"id":         job.ID,
		"status":     job.Status,
		"started_at": job.StartedAt,
	}
	if !job.EndedAt.IsZero() {
		resp["ended_at"] = job.EndedAt
		resp["duration"] = job.EndedAt.Sub(job.StartedAt).String()
	}
	if job.Result != nil {
		resp["result"] = job.Result
	}
	if job.Error != "" {
		resp["error"] = job.Error
	}
	s.jobMu.Unlock()

	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleSignup(c echo.Context) error {
	var req auth.SignupRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	resp, err := s.AuthService.Signup(c.Request().Context(), req)
	if err != nil {
		if err == auth.ErrUserExists {
			return c.JSON(http.StatusConflict, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusCreated, resp)
}

func (s *Server) handleLogin(c echo.Context) error {
	var req auth.LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	resp, err := s.AuthService.Login(c.Request().Context(), req)
	if err != nil {
		if err == auth.ErrInvalidCreds {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, resp)
}

// Protected Handlers

func (s *Server) handleSaveDienst(c echo.Context) error {
	ctx := c.Request().Context()
	userID, err := auth.GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	dienstID := c.Param("id")
	if _, err := s.Store.GetDienst(ctx, dienstID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Unknown dienst"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to save dienst"})
	}

	if err := s.AuthService.SaveDienst(ctx, userID, dienstID); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to save dienst"})
	}

	return c.NoContent(http.StatusOK)
}

func (s *Server) handleUnsaveDienst(c echo.Context) error {
	ctx := c.Request().Context()
	userID, err := auth.GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	if err := s.AuthService.UnsaveDienst(ctx, userID, c.Param("id")); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to unsave dienst"})
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "unsaved"})
}

func (s *Server) handleGetSavedDiensten(c echo.Context) error {
	ctx := c.Request().Context()
	userID, err := auth.GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	diensten, err := s.AuthService.GetSavedDiensten(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch saved diensten"})
	}

	if diensten == nil {
		diensten = []models.Dienst{}
	}

	return c.JSON(http.StatusOK, diensten)
}

func (s *Server) Start(port string) error {
	return s.Echo.Start(":" + port)
}

func (s *Server) adminMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		secret, err := adminSecret(s.Cfg.AdminSecret)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Server admin configuration error"})
		}

		// Check X-Admin-Secret header or Bearer token
		authHeader := c.Request().Header.Get("Authorization")
		adminHeader := c.Request().Header.Get("X-Admin-Secret")

		if adminHeader == secret {
			return next(c)
		}
		if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
			if authHeader[7:] == secret {
				return next(c)
			}
		}

		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized admin access"})
	}
}

func adminSecret(configured string) (string, error) {
	adminSecretOnce.Do(func() {
		if configured != "" {
			adminSecretRuntime = configured
			return
		}

		buf := make([]byte, 48)
		if _, err := rand.Read(buf); err != nil {
			adminSecretErr = fmt.Errorf("failed to generate ADMIN_SECRET fallback: %w", err)
			return
		}

		adminSecretRuntime = base64.RawURLEncoding.EncodeToString(buf)
		log.Print("ADMIN_SECRET is not set; using ephemeral in-memory fallback secret")
	})

	if adminSecretErr != nil {
		return "", adminSecretErr
	}
	if adminSecretRuntime == "" {
		return "", fmt.Errorf("admin secret unavailable")
	}

	return adminSecretRuntime, nil
}
