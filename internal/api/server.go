package api

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/crypto/bcrypt"

	"github.com/david/tender-tracker/internal/db"
)

// SummaryReportName is the report key under which the analyzer summary is stored.
const SummaryReportName = "summary_report"

const maxLimit = 1000

// RunLister lists recorded pipeline runs.
type RunLister interface {
	ListRuns(ctx context.Context, limit int) ([]db.Run, error)
}

// JobFunc is a long-running admin task. Its result is reported by the job
// status endpoint.
type JobFunc func(ctx context.Context) (any, error)

type Config struct {
	Source          Source
	Runs            RunLister // nil disables /admin/runs
	Analyze         JobFunc   // nil disables /admin/analyze
	AdminSecretHash []byte
	CORSOrigins     []string
}

type Server struct {
	Echo       *echo.Echo
	source     Source
	runs       RunLister
	analyze    JobFunc
	secretHash []byte

	// Background job tracking
	jobMu      sync.Mutex
	runningJob *backgroundJob
}

type backgroundJob struct {
	ID        string             `json:"id"`
	Status    string             `json:"status"` // running, completed, failed, cancelled
	StartedAt time.Time          `json:"started_at"`
	EndedAt   time.Time          `json:"ended_at,omitempty"`
	Result    any                `json:"result,omitempty"`
	Error     string             `json:"error,omitempty"`
	Cancel    context.CancelFunc `json:"-"`
	done      chan struct{}
}

func NewServer(cfg Config) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	allowedOrigins := append([]string{"http://localhost:4200"}, cfg.CORSOrigins...)
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: allowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, "X-Admin-Secret"},
	}))

	s := &Server{
		Echo:       e,
		source:     cfg.Source,
		runs:       cfg.Runs,
		analyze:    cfg.Analyze,
		secretHash: cfg.AdminSecretHash,
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	s.Echo.GET("/health", s.handleHealth)
	api := s.Echo.Group("/api/v1")
	api.GET("/tenders", s.handleListTenders)
	api.GET("/buildings", s.handleListBuildings)
	api.GET("/summary", s.handleGetSummary)

	admin := api.Group("/admin")
	admin.Use(s.adminMiddleware)
	admin.GET("/runs", s.handleListRuns)
	admin.POST("/analyze", s.handleAnalyze)
	admin.GET("/job/:id", s.handleJobStatus)
	admin.DELETE("/job/:id", s.handleCancelJob)
}

func (s *Server) Start(port string) error {
	return s.Echo.Start(":" + port)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

// parseListParams reads limit (default 100) and order (asc|desc, default desc).
func parseListParams(c echo.Context) (db.ListParams, error) {
	p := db.ListParams{Limit: db.DefaultLimit, Descending: true}

	if raw := strings.TrimSpace(c.QueryParam("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 || limit > maxLimit {
			return p, fmt.Errorf("limit must be an integer between 1 and %d", maxLimit)
		}
		p.Limit = limit
	}

	switch strings.ToLower(strings.TrimSpace(c.QueryParam("order"))) {
	case "", "desc":
		p.Descending = true
	case "asc":
		p.Descending = false
	default:
		return p, errors.New("order must be asc or desc")
	}
	return p, nil
}

func (s *Server) handleListTenders(c echo.Context) error {
	p, err := parseListParams(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	tenders, err := s.source.Tenders(c.Request().Context(), p)
	if err != nil {
		return s.sourceError(c, "tenders", err)
	}
	return c.JSON(http.StatusOK, tenders)
}

func (s *Server) handleListBuildings(c echo.Context) error {
	p, err := parseListParams(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	buildings, err := s.source.Buildings(c.Request().Context(), p)
	if err != nil {
		return s.sourceError(c, "buildings", err)
	}
	return c.JSON(http.StatusOK, buildings)
}

func (s *Server) handleGetSummary(c echo.Context) error {
	raw, err := s.source.Summary(c.Request().Context())
	if err != nil {
		return s.sourceError(c, "summary", err)
	}
	return c.JSONBlob(http.StatusOK, raw)
}

func (s *Server) sourceError(c echo.Context, what string, err error) error {
	if errors.Is(err, ErrNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": what + " not available"})
	}
	c.Logger().Errorf("Failed to load %s: %v", what, err)
	return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
}

func (s *Server) handleListRuns(c echo.Context) error {
	if s.runs == nil {
		return c.JSON(http.StatusNotImplemented, map[string]string{"error": "run bookkeeping is not configured"})
	}

	limit := 20
	if l, err := strconv.Atoi(c.QueryParam("limit")); err == nil && l > 0 && l <= 200 {
		limit = l
	}

	runs, err := s.runs.ListRuns(c.Request().Context(), limit)
	if err != nil {
		c.Logger().Errorf("Failed to list runs: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}
	if runs == nil {
		runs = []db.Run{}
	}
	return c.JSON(http.StatusOK, runs)
}

func (s *Server) handleAnalyze(c echo.Context) error {
	if s.analyze == nil {
		return c.JSON(http.StatusNotImplemented, map[string]string{"error": "analysis is not configured"})
	}

	s.jobMu.Lock()
	if s.runningJob != nil && s.runningJob.Status == "running" {
		job := s.runningJob
		s.jobMu.Unlock()
		return c.JSON(http.StatusConflict, map[string]interface{}{
			"error":  "An analysis job is already running",
			"job_id": job.ID,
		})
	}

	// Detached from the request so the job outlives the 202 response.
	jobCtx, jobCancel := context.WithTimeout(
		context.WithoutCancel(c.Request().Context()), 30*time.Minute,
	)

	jobID := uuid.New().String()[:8]
	job := &backgroundJob{
		ID:        jobID,
		Status:    "running",
		StartedAt: time.Now(),
		Cancel:    jobCancel,
		done:      make(chan struct{}),
	}
	s.runningJob = job
	s.jobMu.Unlock()

	go func() {
		defer close(job.done)
		defer jobCancel()

		result, err := s.analyze(jobCtx)

		s.jobMu.Lock()
		defer s.jobMu.Unlock()
		job.EndedAt = time.Now()
		if err != nil && errors.Is(jobCtx.Err(), context.Canceled) {
			job.Status = "cancelled"
			job.Error = err.Error()
			log.Printf("[analyze-job %s] cancelled", jobID)
			return
		}
		if err != nil {
			job.Status = "failed"
			job.Error = err.Error()
			log.Printf("[analyze-job %s] failed: %v", jobID, err)
			return
		}
		job.Status = "completed"
		job.Result = result
		log.Printf("[analyze-job %s] completed in %s", jobID, job.EndedAt.Sub(job.StartedAt))
	}()

	return c.JSON(http.StatusAccepted, map[string]interface{}{
		"message": "Analysis job started",
		"job_id":  jobID,
		"poll":    fmt.Sprintf("/api/v1/admin/job/%s", jobID),
	})
}

func (s *Server) handleJobStatus(c echo.Context) error {
	queried := c.Param("id")

	s.jobMu.Lock()
	defer s.jobMu.Unlock()
	job := s.runningJob
	if job == nil || job.ID != queried {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "job not found"})
	}

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
	return c.JSON(http.StatusOK, resp)
}

// handleCancelJob cancels the running analysis job. The job reports
// "cancelled" once the analysis returns.
func (s *Server) handleCancelJob(c echo.Context) error {
	queried := c.Param("id")

	s.jobMu.Lock()
	defer s.jobMu.Unlock()
	job := s.runningJob
	if job == nil || job.ID != queried {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "job not found"})
	}
	if job.Status != "running" {
		return c.JSON(http.StatusConflict, map[string]string{"error": "job is not running", "status": job.Status})
	}

	job.Cancel()
	return c.JSON(http.StatusAccepted, map[string]string{"message": "Cancellation requested", "job_id": job.ID})
}

// adminMiddleware accepts the admin secret in X-Admin-Secret or as a Bearer
// token and checks it against the configured bcrypt hash.
func (s *Server) adminMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if len(s.secretHash) == 0 {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Server admin configuration error"})
		}

		candidate := c.Request().Header.Get("X-Admin-Secret")
		if candidate == "" {
			authHeader := c.Request().Header.Get("Authorization")
			if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
				candidate = authHeader[7:]
			}
		}

		if candidate != "" && bcrypt.CompareHashAndPassword(s.secretHash, []byte(candidate)) == nil {
			return next(c)
		}
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized admin access"})
	}
}

// AdminSecretHashFromEnv returns ADMIN_SECRET_HASH as-is, or a bcrypt hash of
// ADMIN_SECRET. Without either an ephemeral random secret is hashed, which
// effectively locks the admin routes.
func AdminSecretHashFromEnv() ([]byte, error) {
	if hash := strings.TrimSpace(os.Getenv("ADMIN_SECRET_HASH")); hash != "" {
		if _, err := bcrypt.Cost([]byte(hash)); err != nil {
			return nil, fmt.Errorf("invalid ADMIN_SECRET_HASH: %w", err)
		}
		return []byte(hash), nil
	}

	secret := strings.TrimSpace(os.Getenv("ADMIN_SECRET"))
	if secret == "" {
		buf := make([]byte, 48)
		if _, err := rand.Read(buf); err != nil {
			return nil, fmt.Errorf("failed to generate ADMIN_SECRET fallback: %w", err)
		}
		secret = base64.RawURLEncoding.EncodeToString(buf)
		log.Print("ADMIN_SECRET is not set; using ephemeral in-memory fallback secret")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash admin secret: %w", err)
	}
	return hash, nil
}
