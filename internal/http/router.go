// Package httpapi wires the gateway's HTTP transport (Gin) to the services,
// middleware and handlers the dashboard talks to.
//
// @title       Retail Chat Gateway API
// @version     1.0
// @description Chat history, answers, festival alerts and mail relay for the retail sales dashboard.
// @BasePath    /api/v1
package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/tbourn/retail-chat-dashboard/docs"
	"github.com/tbourn/retail-chat-dashboard/internal/config"
	"github.com/tbourn/retail-chat-dashboard/internal/domain"
	"github.com/tbourn/retail-chat-dashboard/internal/festivals"
	"github.com/tbourn/retail-chat-dashboard/internal/http/handlers"
	"github.com/tbourn/retail-chat-dashboard/internal/http/middleware"
	"github.com/tbourn/retail-chat-dashboard/internal/mailrelay"
	"github.com/tbourn/retail-chat-dashboard/internal/repo"
	"github.com/tbourn/retail-chat-dashboard/internal/search"
	"github.com/tbourn/retail-chat-dashboard/internal/services"
)

// chatRepoShim adapts the repo free functions to services.ChatRepo.
type chatRepoShim struct{}

func (chatRepoShim) CreateChat(ctx context.Context, db *gorm.DB, userID, title string) (*domain.Chat, error) {
	return repo.CreateChat(ctx, db, userID, title)
}

func (chatRepoShim) GetChat(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Chat, error) {
	return repo.GetChat(ctx, db, id, userID)
}

func (chatRepoShim) UpdateChatTitle(ctx context.Context, db *gorm.DB, id, userID, title string) error {
	return repo.UpdateChatTitle(ctx, db, id, userID, title)
}

func (chatRepoShim) DeleteChat(ctx context.Context, db *gorm.DB, id, userID string) error {
	return repo.DeleteChat(ctx, db, id, userID)
}

func (chatRepoShim) CountChats(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	return repo.CountChats(ctx, db, userID)
}

func (chatRepoShim) ListChatsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Chat, error) {
	return repo.ListChatsPage(ctx, db, userID, offset, limit)
}

func (chatRepoShim) LeastRecentChatIDs(ctx context.Context, db *gorm.DB, userID string, n int) ([]string, error) {
	return repo.LeastRecentChatIDs(ctx, db, userID, n)
}

// Services is what RegisterRoutes mounts. BuildServices assembles the
// production set from configuration; tests may substitute fakes.
type Services struct {
	Chats     handlers.ChatService
	Messages  handlers.MessageService
	Festivals handlers.FestivalService
	Mail      handlers.MailService
}

// BuildServices loads the playbook and festival calendar (embedded copies
// unless paths are configured), picks the responder and constructs the
// services over db.
func BuildServices(db *gorm.DB, cfg config.Config) (Services, error) {
	idx := search.DefaultPlaybook()
	if cfg.PlaybookPath != "" {
		loaded, err := search.LoadPlaybook(cfg.PlaybookPath)
		if err != nil {
			return Services{}, fmt.Errorf("load playbook: %w", err)
		}
		idx = loaded
	}
	cal := festivals.Default()
	if cfg.FestivalsPath != "" {
		loaded, err := festivals.Load(cfg.FestivalsPath)
		if err != nil {
			return Services{}, fmt.Errorf("load festivals: %w", err)
		}
		cal = loaded
	}

	var responder services.Responder = &services.PlaybookResponder{
		Index:     idx,
		Calendar:  cal,
		Threshold: cfg.Threshold,
	}
	if cfg.OpenAI.APIKey != "" {
		o := services.NewOpenAIResponder(cfg.OpenAI.APIKey, cfg.OpenAI.Model, responder)
		o.MaxTokens = cfg.OpenAI.MaxTokens
		responder = o
	}

	chats := services.NewChatService(db, chatRepoShim{})
	chats.MaxChats = cfg.MaxChatsPerUser

	return Services{
		Chats: chats,
		Messages: &services.MessageService{
			DB:             db,
			Responder:      responder,
			MaxPromptRunes: cfg.MaxPromptRunes,
			MaxReplyRunes:  cfg.MaxReplyRunes,
			TitleLocale:    language.English,
		},
		Festivals: &services.FestivalService{Calendar: cal, DaysAhead: cfg.FestivalDaysAhead},
		Mail:      &services.MailService{Relay: mailrelay.New(cfg.MailWebhookURL, cfg.MailTimeout)},
	}, nil
}

// RegisterRoutes attaches middleware and endpoints to r and mounts the API
// under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry
//  2. RequestID, then Identity (X-User-ID)
//  3. RedactingLogger
//  4. Recovery, after the logger so panics carry the request logger
//  5. Body size limit
//  6. Metrics
//  7. Idempotency validator, before the limiter so replays bypass it
//  8. Rate limiter on unsafe methods only; the dashboard polls with GETs
//  9. CORS, security headers and gzip
func RegisterRoutes(r *gin.Engine, db *gorm.DB, svc Services, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID(), middleware.Identity())
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{middleware.HeaderIdempotencyKey},
		SkipPaths:   []string{"/health", "/metrics"},
	}))
	r.Use(middleware.Recovery())
	r.Use(limitBody(1 << 20))

	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{MaxLen: 200},
		func(ctx context.Context, userID, chatID, key string, now time.Time) (bool, error) {
			rec, err := repo.FindReplay(ctx, db, userID, chatID, key, now)
			if err != nil {
				return false, nil
			}
			return rec.Live(now), nil
		},
	))

	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP(),
		http.MethodPost, http.MethodPut, http.MethodDelete)
	r.Use(rl.Handler())

	r.Use(corsMiddleware(cfg.CORS.AllowedOrigins)...)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      true,
		EnablePolicy: true,
	}))
	if cfg.GzipEnabled {
		r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics", "/swagger"})))
	}

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	if cfg.SwaggerEnabled {
		docs.SwaggerInfo.BasePath = cfg.APIBasePath
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	h := handlers.New(handlers.Deps{
		Chats:          svc.Chats,
		Messages:       svc.Messages,
		Festivals:      svc.Festivals,
		Mail:           svc.Mail,
		DB:             db,
		IdempotencyTTL: cfg.IdempotencyTTL,
		MaxPromptRunes: cfg.MaxPromptRunes,
	})

	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		api.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

		api.POST("/chats", h.CreateChat)
		api.GET("/chats", h.ListChats)
		api.DELETE("/chats/:id", h.DeleteChat)
		api.PUT("/chats/:id/title", h.UpdateChatTitle)

		api.GET("/chats/:id/messages", h.ListMessages)
		api.POST("/chats/:id/messages", h.PostMessage)

		api.GET("/festivals", h.ListFestivals)
		api.POST("/mail", h.TriggerMail)
	}
}

// corsMiddleware allows every origin when none are configured, otherwise
// echoes allow-listed origins.
func corsMiddleware(origins []string) []gin.HandlerFunc {
	base := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", middleware.HeaderUserID, middleware.HeaderIdempotencyKey, "If-None-Match"},
		ExposeHeaders:    []string{"X-Request-ID", "ETag", middleware.HeaderIdempotencyReplayed, "Retry-After"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		base.AllowAllOrigins = true
		return []gin.HandlerFunc{
			// ACAO even without an Origin header, so curl and health probes see it.
			func(c *gin.Context) {
				c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
				c.Next()
			},
			cors.New(base),
		}
	}

	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	base.AllowOrigins = origins
	return []gin.HandlerFunc{
		func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		},
		cors.New(base),
	}
}

// limitBody caps request bodies at maxBytes.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
