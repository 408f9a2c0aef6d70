package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"campusattend/internal/attendance"
	"campusattend/internal/auth"
	"campusattend/internal/config"
	"campusattend/internal/httpmiddleware"
	"campusattend/internal/queue"
	"campusattend/internal/schedule"
	"campusattend/internal/store"
	"campusattend/internal/strategy"
)

func main() {
	cfg := config.Load()

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	var docs store.DocStore
	var db *store.DB
	if cfg.StoreBackend == "memory" {
		docs = store.NewMemoryDocStore()
		log.Println("using in-memory document store")
	} else {
		var err error
		db, err = store.NewDB(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		pg := store.NewPostgresDocStore(db.Client)
		if err := pg.EnsureSchema(context.Background()); err != nil {
			return err
		}
		docs = pg
	}

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "campusattend:marks")
	}

	repo := attendance.NewRepository(docs)
	svc := attendance.NewService(repo, strategy.NewClassifier(nil))

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(corsMiddleware())
	r.Use(securityHeaders())
	r.Use(httpmiddleware.NewSimpleTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin).GinMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/healthz", func(c *gin.Context) {
		redisHealthy := redisClient.Healthy(c.Request.Context())
		dbHealthy := cfg.StoreBackend == "memory" || db != nil
		status := http.StatusOK
		if !redisHealthy || !dbHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": "ok", "redis": redisHealthy, "db": dbHealthy})
	})

	r.POST("/v1/auth/token", func(c *gin.Context) {
		var req struct {
			StaffID string `json:"staff_id" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		tokens, err := auth.Issue(req.StaffID, auth.RoleStaff, cfg.JWTIssuer, cfg.JWTSigningKey, cfg.AccessTTL, cfg.RefreshTTL)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{
			"access_token":  tokens.AccessToken,
			"refresh_token": tokens.RefreshToken,
			"expires_at":    tokens.AccessExp.Unix(),
		})
	})

	// Strategy preview for event-creation UIs: no persistence, no auth.
	r.POST("/v1/strategy/detect", func(c *gin.Context) {
		d, ok := bindDescriptor(c)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, svc.Detect(d))
	})

	authGroup := r.Group("/v1", auth.StaffAuth(cfg.JWTSigningKey, cfg.JWTIssuer))

	authGroup.PUT("/events/:eventID/attendance-config", func(c *gin.Context) {
		d, ok := bindDescriptor(c)
		if !ok {
			return
		}
		cfgDoc, err := svc.EnsureConfig(c.Request.Context(), c.Param("eventID"), d)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, cfgDoc)
	})

	authGroup.GET("/events/:eventID/attendance-config", func(c *gin.Context) {
		cfgDoc, err := svc.GetConfig(c.Request.Context(), c.Param("eventID"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, cfgDoc)
	})

	authGroup.POST("/events/:eventID/attendance", func(c *gin.Context) {
		var req struct {
			ParticipantID string `json:"participant_id" binding:"required"`
			SessionID     string `json:"session_id"`
			Present       *bool  `json:"present" binding:"required"`
			MarkedBy      string `json:"marked_by"`
			Method        string `json:"method"`
			Notes         string `json:"notes"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		markedBy := req.MarkedBy
		if markedBy == "" {
			markedBy = claimsSubject(c)
		}

		eventID := c.Param("eventID")
		ev, err := svc.Mark(c.Request.Context(), attendance.MarkRequest{
			EventID:       eventID,
			ParticipantID: req.ParticipantID,
			SessionID:     req.SessionID,
			Present:       *req.Present,
			MarkedBy:      markedBy,
			Method:        req.Method,
			Notes:         req.Notes,
		})
		if err != nil {
			writeError(c, err)
			return
		}

		msg := queue.NewMarkMessage(queue.MarkEvent{
			EventID:       eventID,
			ParticipantID: req.ParticipantID,
			Status:        string(ev.Status),
			Percentage:    ev.Percentage,
		})
		if err := q.Publish(c.Request.Context(), msg); err != nil {
			log.Printf("queue publish failed: %v", err)
		}

		c.JSON(http.StatusOK, gin.H{"status": ev.Status, "percentage": ev.Percentage})
	})

	authGroup.POST("/events/:eventID/attendance/bulk", func(c *gin.Context) {
		var req struct {
			Items []attendance.BulkItem `json:"items" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		report := svc.MarkBulk(c.Request.Context(), c.Param("eventID"), claimsSubject(c), req.Items)
		for _, item := range report.Succeeded {
			msg := queue.NewMarkMessage(queue.MarkEvent{
				EventID:       c.Param("eventID"),
				ParticipantID: item.ParticipantID,
				Status:        string(item.Status),
				Percentage:    item.Percentage,
			})
			if err := q.Publish(c.Request.Context(), msg); err != nil {
				log.Printf("queue publish failed: %v", err)
			}
		}
		c.JSON(http.StatusOK, report)
	})

	authGroup.GET("/events/:eventID/attendance/:participantID", func(c *gin.Context) {
		status, err := svc.Status(c.Request.Context(), c.Param("eventID"), c.Param("participantID"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, status)
	})

	authGroup.GET("/events/:eventID/analytics", func(c *gin.Context) {
		eventID := c.Param("eventID")
		registered := 0
		if v := c.Query("registered"); v != "" {
			if parsed, err := strconv.Atoi(v); err == nil {
				registered = parsed
			}
		}

		// Cache-aside: the worker refreshes this key after every mark.
		cacheKey := "attana:" + eventID
		if raw, err := redisClient.Client.Get(c.Request.Context(), cacheKey).Bytes(); err == nil {
			var cached attendance.EventAnalytics
			if json.Unmarshal(raw, &cached) == nil && registered == 0 {
				c.JSON(http.StatusOK, cached)
				return
			}
		}

		analytics, err := svc.Analytics(c.Request.Context(), eventID, registered)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, analytics)
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting server on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}

	log.Println("Server exited")
	return nil
}

// bindDescriptor parses the event descriptor DTO shared by the detect
// and config endpoints.
func bindDescriptor(c *gin.Context) (strategy.Descriptor, bool) {
	var req struct {
		Name             string    `json:"name" binding:"required"`
		Type             string    `json:"type"`
		Description      string    `json:"description"`
		Start            time.Time `json:"start" binding:"required"`
		End              time.Time `json:"end" binding:"required"`
		Venue            string    `json:"venue"`
		RegistrationMode string    `json:"registration_mode"`
		MaxTeamSize      int       `json:"max_team_size"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return strategy.Descriptor{}, false
	}
	mode := strategy.ModeIndividual
	if req.RegistrationMode == string(strategy.ModeTeam) {
		mode = strategy.ModeTeam
	}
	return strategy.Descriptor{
		Name:             req.Name,
		Type:             req.Type,
		Description:      req.Description,
		Start:            req.Start,
		End:              req.End,
		Venue:            req.Venue,
		RegistrationMode: mode,
		MaxTeamSize:      req.MaxTeamSize,
	}, true
}

func claimsSubject(c *gin.Context) string {
	claimsAny, _ := c.Get("claims")
	claims, _ := claimsAny.(auth.Claims)
	return claims.Subject
}

// writeError maps the engine's sentinel errors to HTTP statuses.
// Anything else is a persistence failure the caller may retry.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, schedule.ErrInvalidTimeRange):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, attendance.ErrConfigNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, attendance.ErrMissingSessionID),
		errors.Is(err, attendance.ErrUnknownSession):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	}
}

// CORS middleware for browser requests
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Security headers middleware
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
