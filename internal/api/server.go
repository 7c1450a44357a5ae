package api

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/david/event-finder/internal/ai"
	"github.com/david/event-finder/internal/db"
	"github.com/david/event-finder/internal/importer"
	"github.com/david/event-finder/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type Server struct {
	Store       *db.Store
	Coordinator *importer.Coordinator
	Enricher    *importer.Enricher
	Echo        *echo.Echo
	DB          *pgxpool.Pool
}

var (
	adminSecretOnce    sync.Once
	adminSecretRuntime string
	adminSecretErr     error
)

func NewServer(pool *pgxpool.Pool) *Server {
	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	// CORS: allow frontend origins from env or default to localhost
	allowedOrigins := []string{"http://localhost:3000"}
	if extra := os.Getenv("CORS_ORIGINS"); extra != "" {
		for _, o := range strings.Split(extra, ",") {
			o = strings.TrimSpace(o)
			if o != "" {
				allowedOrigins = append(allowedOrigins, o)
			}
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: allowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, "X-Admin-Secret"},
	}))

	store := db.NewStore(pool)

	// AI client is nil without OPENAI_API_KEY; enrichment and the city
	// fallback degrade gracefully in that case.
	var aiClient importer.AI
	if c := ai.NewClientFromEnv(); c != nil {
		aiClient = c
	} else {
		log.Print("⚠️ OPENAI_API_KEY not set; AI enrichment and city inference disabled")
	}

	location := &importer.LocationResolver{AI: aiClient}
	chain := importer.NewFetchChain(importer.NewCollyFetcher(), importer.NewChromeRenderer(), location)
	enricher := &importer.Enricher{Store: store, AI: aiClient}
	coordinator := importer.NewCoordinator(store, chain, enricher)

	s := &Server{
		DB:          pool,
		Store:       store,
		Coordinator: coordinator,
		Enricher:    enricher,
		Echo:        e,
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	s.Echo.GET("/health", s.handleHealth)

	api := s.Echo.Group("/api/v1")
	api.GET("/events", s.handleListEvents)
	api.GET("/events/:id", s.handleGetEvent)
	api.GET("/events/:id/related", s.handleRelatedEvents)
	api.POST("/events/:id/view", s.handleTrackView)
	api.GET("/stats", s.handleGetStats)

	admin := api.Group("")
	admin.Use(s.adminMiddleware)
	admin.POST("/import", s.handleImport)
	admin.POST("/events/:id/enrich", s.handleEnrichEvent)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

type importBody struct {
	URL         string `json:"url"`
	ForceUpdate bool   `json:"force_update"`
	// Progressive returns the basic record immediately and enriches in
	// the background. Defaults to true when omitted.
	Progressive *bool `json:"progressive"`
}

func (s *Server) handleImport(c echo.Context) error {
	var body importBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"success": false, "error": "Invalid request body"})
	}
	if strings.TrimSpace(body.URL) == "" {
		return c.JSON(http.StatusBadRequest, map[string]any{"success": false, "error": "url is required"})
	}

	req := importer.ImportRequest{URL: strings.TrimSpace(body.URL), ForceUpdate: body.ForceUpdate}
	progressive := body.Progressive == nil || *body.Progressive

	var result *importer.ImportResult
	var err error
	if progressive {
		result, err = s.Coordinator.ImportProgressive(c.Request().Context(), req)
	} else {
		result, err = s.Coordinator.Import(c.Request().Context(), req)
	}

	if err != nil {
		if ie, ok := importer.AsImportError(err); ok {
			log.Printf("[api] import failed (%s) for %s: %v", ie.Kind, req.URL, err)
			return c.JSON(importErrorStatus(ie), map[string]any{"success": false, "error": ie.Message})
		}
		log.Printf("[api] import failed for %s: %v", req.URL, err)
		return c.JSON(http.StatusInternalServerError, map[string]any{"success": false, "error": "Import failed unexpectedly"})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success":       true,
		"event":         result.Event,
		"message":       result.Message,
		"ai_processing": result.AIProcessing,
	})
}

func importErrorStatus(ie *importer.ImportError) int {
	switch ie.Kind {
	case importer.FailAlreadyImported:
		return http.StatusConflict
	case importer.FailUnsupportedPlatform, importer.FailInvalidURLFormat:
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}

func (s *Server) handleEnrichEvent(c echo.Context) error {
	if !s.Enricher.Available() {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "AI enrichment is not configured"})
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid event id"})
	}

	ev, err := s.Store.GetEvent(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if ev == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Event not found"})
	}

	s.Enricher.EnrichBoth(c.Request().Context(), id)

	enriched, err := s.Store.GetEvent(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, enriched)
}

func (s *Server) handleListEvents(c echo.Context) error {
	params := db.ListParams{
		Query:     c.QueryParam("q"),
		City:      c.QueryParam("city"),
		EventType: c.QueryParam("event_type"),
		Category:  c.QueryParam("category"),
		FromDate:  c.QueryParam("from"),
	}
	if v := c.QueryParam("limit"); v != "" {
		fmt.Sscanf(v, "%d", &params.Limit)
	}
	if v := c.QueryParam("offset"); v != "" {
		fmt.Sscanf(v, "%d", &params.Offset)
	}

	result, err := s.Store.ListEvents(c.Request().Context(), params)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, result)
}

func (s *Server) handleGetEvent(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid event id"})
	}
	ev, err := s.Store.GetEvent(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if ev == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Event not found"})
	}
	return c.JSON(http.StatusOK, ev)
}

func (s *Server) handleRelatedEvents(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid event id"})
	}
	events, err := s.Store.RelatedEvents(c.Request().Context(), id, 5)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if events == nil {
		events = []models.Event{}
	}
	return c.JSON(http.StatusOK, events)
}

func (s *Server) handleTrackView(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid event id"})
	}
	if err := s.Store.IncrementViewCount(c.Request().Context(), id); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleGetStats(c echo.Context) error {
	stats, err := s.Store.GetStats(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, stats)
}

func (s *Server) Start(port string) error {
	return s.Echo.Start(":" + port)
}

func (s *Server) adminMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		secret, err := adminSecret()
		if err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Server admin configuration error"})
		}

		authHeader := c.Request().Header.Get("Authorization")
		adminHeader := c.Request().Header.Get("X-Admin-Secret")

		if adminHeader == secret {
			return next(c)
		}
		if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
			if authHeader[7:] == secret {
				return next(c)
			}
		}

		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized admin access"})
	}
}

func adminSecret() (string, error) {
	adminSecretOnce.Do(func() {
		secret := strings.TrimSpace(os.Getenv("ADMIN_SECRET"))
		if secret != "" {
			adminSecretRuntime = secret
			return
		}

		buf := make([]byte, 48)
		if _, err := rand.Read(buf); err != nil {
			adminSecretErr = fmt.Errorf("failed to generate ADMIN_SECRET fallback: %w", err)
			return
		}

		adminSecretRuntime = base64.RawURLEncoding.EncodeToString(buf)
		log.Print("⚠️ ADMIN_SECRET is not set; using ephemeral in-memory fallback secret")
	})

	if adminSecretErr != nil {
		return "", adminSecretErr
	}
	if adminSecretRuntime == "" {
		return "", fmt.Errorf("admin secret unavailable")
	}
	return adminSecretRuntime, nil
}
