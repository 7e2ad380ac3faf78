package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"community_hub/internal/config"
	"community_hub/internal/handler"
	"community_hub/internal/middleware"
	"community_hub/internal/pkg"
	"community_hub/internal/service"
	"community_hub/internal/session"
)

// Deps 路由依赖，由 main 组装
type Deps struct {
	Config   *config.Config
	DB       *gorm.DB
	Sessions session.Store
	Events   pkg.Publisher
	Metrics  *pkg.Metrics
	Log      *logrus.Logger
}

func InitRouter(d Deps) *gin.Engine {
	cfg := d.Config
	switch cfg.GinMode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
		gin.SetMode(cfg.GinMode)
	}
	if d.Metrics == nil {
		d.Metrics = pkg.NewMetrics()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger(d.Log))
	r.Use(middleware.Metrics(d.Metrics))
	if len(cfg.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", middleware.CSRFHeaderName},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	csrf := pkg.NewCSRFIssuer(cfg.CSRFSecret, cfg.CSRFTTL)
	if cfg.CSRFEnabled {
		r.Use(middleware.CSRF(csrf, "/register", "/login"))
	}
	r.Use(middleware.Session(d.Sessions, d.Log))

	svcDeps := service.Deps{
		DB:             d.DB,
		Sessions:       d.Sessions,
		Events:         d.Events,
		Metrics:        d.Metrics,
		Log:            d.Log,
		PublishTimeout: cfg.KafkaPublishTimeout,
	}
	user := handler.NewUserHandler(
		service.NewUserService(svcDeps),
		csrf,
		handler.CookieOptions{Secure: cfg.CookieSecure, SessionTTL: cfg.SessionTTL},
		d.Log,
	)
	community := handler.NewCommunityHandler(service.NewCommunityService(svcDeps), cfg.MaxIconBytes, d.Log)
	post := handler.NewPostHandler(service.NewPostService(svcDeps), d.Log)
	health := handler.NewHealthHandler(d.DB, d.Log)

	auth := middleware.RequireLogin()
	limiter := middleware.NewRateLimiter(cfg.LoginRatePerSec, cfg.LoginBurst)

	// 账号相关接口
	r.POST("/register", limiter.Handler(), user.Register)
	r.POST("/login", limiter.Handler(), user.Login)
	r.POST("/logout", auth, user.Logout)
	r.GET("/check_login", auth, user.CheckLogin)
	r.GET("/get_csrf_token", user.CSRFToken)

	api := r.Group("/api")
	{
		api.GET("/get_communities", community.List)
		api.GET("/search_communities", community.Search)
		api.GET("/community/:id", community.Detail)
	}

	// 登录态接口
	authed := api.Group("")
	authed.Use(auth)
	{
		authed.POST("/create_communities", community.Create)
		authed.POST("/community/:id/posts", post.AddPost)
		authed.POST("/community/:id/join", community.Join)
		authed.GET("/community/:id/membership", community.Membership)
		authed.GET("/my_communities", community.MyCommunities)
		authed.GET("/notifications", post.Notifications)
	}

	r.GET("/healthz", health.Healthz)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Metrics.Registry, promhttp.HandlerOpts{})))

	return r
}
