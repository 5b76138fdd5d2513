package main

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appauth "github.com/xiebiao/library/internal/application/auth"
	appbook "github.com/xiebiao/library/internal/application/book"
	"github.com/xiebiao/library/internal/domain/author"
	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/infrastructure/config"
	"github.com/xiebiao/library/internal/infrastructure/identity"
	"github.com/xiebiao/library/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/library/internal/infrastructure/storage"
	"github.com/xiebiao/library/internal/interface/http/middleware"
	"github.com/xiebiao/library/pkg/jwt"
	"github.com/xiebiao/library/pkg/logger"
	"github.com/xiebiao/library/pkg/mq"
)

// App 组装完成的应用
type App struct {
	Config *config.Config
	Logger *zap.Logger
	Server *http.Server
}

// provideLogger 按配置创建zap Logger并设为全局Logger
func provideLogger(cfg *config.Config) (*zap.Logger, func(), error) {
	l, err := logger.New(logger.Options{
		Level:        cfg.Log.Level,
		Format:       cfg.Log.Format,
		Output:       cfg.Log.Output,
		EnableCaller: cfg.Log.EnableCaller,
	})
	if err != nil {
		return nil, nil, err
	}
	restore := zap.ReplaceGlobals(l)
	return l, func() {
		_ = l.Sync()
		restore()
	}, nil
}

// provideRedisClient Redis客户端，退出时关闭连接池
func provideRedisClient(cfg *config.Config) (*goredis.Client, func(), error) {
	client, err := redis.NewClient(cfg)
	if err != nil {
		return nil, nil, err
	}
	return client, func() { _ = client.Close() }, nil
}

func provideJWTManager(cfg *config.Config) *jwt.Manager {
	return jwt.NewManager(cfg.JWT.Secret, jwt.SessionTTL)
}

func provideAuthorService(repo author.Repository, books book.Repository) author.Service {
	return author.NewService(repo, books)
}

func provideBookService(repo book.Repository, authors author.Service) book.Service {
	return book.NewService(repo, authors)
}

func provideCoverStorage(cfg *config.Config) (appbook.CoverStorage, error) {
	return storage.NewLocalStorage(cfg)
}

func provideVerifier(cfg *config.Config) identity.Verifier {
	return identity.NewGoogleVerifier(cfg)
}

func provideSessionStore(s *redis.SessionStore) appauth.SessionStore {
	return s
}

func provideBlacklist(s *redis.SessionStore) middleware.Blacklist {
	return s
}

// providePublisher 启用MQ时连接RabbitMQ，否则事件直接丢弃
func providePublisher(cfg *config.Config, log *zap.Logger) (mq.Publisher, func(), error) {
	if !cfg.MQ.Enabled {
		log.Info("消息队列未启用，借阅事件不会发布")
		return mq.NoopPublisher{}, func() {}, nil
	}

	p, err := mq.NewRabbitPublisher(cfg.MQ.URL, cfg.MQ.Exchange)
	if err != nil {
		return nil, nil, fmt.Errorf("连接RabbitMQ失败: %w", err)
	}
	return p, func() {
		if err := p.Close(); err != nil {
			log.Warn("关闭RabbitMQ连接失败", zap.Error(err))
		}
	}, nil
}

func provideServer(cfg *config.Config, engine *gin.Engine) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}
