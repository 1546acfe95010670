package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/oopsinfosolutions/feed-sub001/config"
	"github.com/oopsinfosolutions/feed-sub001/internal/api/handler"
	"github.com/oopsinfosolutions/feed-sub001/internal/api/middleware"
	"github.com/oopsinfosolutions/feed-sub001/internal/model"
	"github.com/oopsinfosolutions/feed-sub001/pkg/jwt"
	"github.com/oopsinfosolutions/feed-sub001/pkg/redis"
)

// Setup builds the gin engine. rdb may be nil; revocation and rate limiting
// are then skipped.
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.MaxMultipartMemory = cfg.Storage.MaxImageBytes

	var (
		blacklist middleware.Blacklist
		limiter   middleware.Limiter
	)
	if rdb != nil {
		blacklist = rdb
		limiter = rdb
	}

	// ── global middleware ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// ── accounts (public) ──
	authLimit := middleware.RateLimit(limiter, cfg.Auth.RateLimit, cfg.Auth.RateWindow)
	r.POST("/signup", authLimit, h.Auth.Signup)
	r.POST("/login", authLimit, h.Auth.Login)

	// ── authenticated ──
	authorized := r.Group("")
	authorized.Use(middleware.JWTAuth(jwtMgr, blacklist))
	{
		authorized.POST("/logout", h.Auth.Logout)
		authorized.GET("/me", h.User.GetCurrentUser)
		authorized.GET("/user_id", h.User.GetByUserID)
		authorized.GET("/users", h.User.ListUsers)

		authorized.GET("/shipment", h.Shipment.ListShipments)
		authorized.GET("/shipment/:id", h.Shipment.GetShipment)
		authorized.POST("/add_shipment", h.Shipment.CreateShipment)
		authorized.PUT("/update-shipment/:id", h.Shipment.UpdateShipment)
		authorized.DELETE("/delete-shipment/:id", h.Shipment.DeleteShipment)

		authorized.GET("/images/:key", h.Image.GetImage)
		authorized.GET("/export/shipments", middleware.RoleAuth(model.UserTypeAdmin), h.Export.ExportShipments)
	}

	return r
}
