package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/xiebiao/library/docs"
	"github.com/xiebiao/library/internal/domain/user"
	"github.com/xiebiao/library/internal/infrastructure/config"
	"github.com/xiebiao/library/internal/infrastructure/storage"
	"github.com/xiebiao/library/internal/interface/http/dto"
	"github.com/xiebiao/library/internal/interface/http/handler"
	"github.com/xiebiao/library/internal/interface/http/middleware"
	apperrors "github.com/xiebiao/library/pkg/errors"
	"github.com/xiebiao/library/pkg/response"
)

const slowRequest = 3 * time.Second

// Handlers 路由依赖的全部处理器
type Handlers struct {
	Auth   *handler.AuthHandler
	Author *handler.AuthorHandler
	Book   *handler.BookHandler
	User   *handler.UserHandler
}

// New 创建Gin引擎并注册全部路由
//
// 中间件顺序：Recovery → RequestID → Logger → Metrics → Tracing → CORS
func New(cfg *config.Config, log *zap.Logger, h Handlers, auth *middleware.Authenticator) (*gin.Engine, error) {
	switch cfg.Server.Mode {
	case gin.ReleaseMode, gin.TestMode:
		gin.SetMode(cfg.Server.Mode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	if err := dto.RegisterValidators(); err != nil {
		return nil, err
	}

	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.Logger(log, slowRequest),
		middleware.Metrics(),
		middleware.Tracing(cfg.Tracing.ServiceName),
		middleware.CORS(cfg.Server.CORSOrigins),
	)

	r.NoRoute(func(c *gin.Context) {
		response.Error(c, apperrors.ErrEndpointNotFound)
	})

	r.GET("/ping", func(c *gin.Context) {
		response.Success(c, gin.H{"message": "pong", "status": "healthy"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.StaticFS(storage.PublicPrefix, gin.Dir(cfg.Upload.Dir, false))

	// 生产环境不暴露接口文档
	if gin.Mode() == gin.DebugMode {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	admin := auth.Authorize(user.RoleAdmin)
	member := auth.Authorize(user.RoleUser, user.RoleAdmin)
	id := middleware.ValidateID()

	v1 := r.Group("/api/v1")
	{
		v1.POST("/login", h.Auth.Login)
		v1.POST("/logout", member, h.Auth.Logout)

		authors := v1.Group("/authors")
		{
			authors.POST("", admin, h.Author.Create)
			authors.GET("", h.Author.List)
			authors.GET("/:id", id, h.Author.Get)
			authors.PUT("/:id", admin, id, h.Author.Update)
			authors.DELETE("/:id", admin, id, h.Author.Delete)
		}

		books := v1.Group("/books")
		{
			books.POST("", admin, h.Book.Create)
			books.GET("", h.Book.List)
			books.GET("/search", h.Book.Search)
			books.GET("/:id", id, h.Book.Get)
			books.PUT("/:id/basicInfo", admin, id, h.Book.UpdateBasicInfo)
			books.PUT("/:id/borrowInfo", member, id, h.Book.Borrow)
			books.PUT("/:id/returnInfo", member, id, h.Book.Return)
			books.PUT("/:id/image", admin, id, h.Book.UpdateImage)
			books.DELETE("/:id", admin, id, h.Book.Delete)
		}

		users := v1.Group("/users")
		{
			users.POST("", h.User.Create)
			users.GET("", admin, h.User.List)
			users.GET("/:id", member, id, h.User.Get)
			users.PUT("/:id", member, id, h.User.Update)
			users.DELETE("/:id", admin, id, h.User.Delete)
		}
	}

	return r, nil
}
