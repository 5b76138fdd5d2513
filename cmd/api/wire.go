//go:build wireinject
// +build wireinject

// 运行 `wire gen ./cmd/api` 重新生成 wire_gen.go

package main

import (
	"github.com/google/wire"

	appauth "github.com/xiebiao/library/internal/application/auth"
	appauthor "github.com/xiebiao/library/internal/application/author"
	appbook "github.com/xiebiao/library/internal/application/book"
	appuser "github.com/xiebiao/library/internal/application/user"
	"github.com/xiebiao/library/internal/domain/user"
	"github.com/xiebiao/library/internal/infrastructure/config"
	"github.com/xiebiao/library/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/library/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/library/internal/interface/http/handler"
	"github.com/xiebiao/library/internal/interface/http/middleware"
	"github.com/xiebiao/library/internal/interface/http/router"
)

// infrastructureSet 日志、数据库、Redis、存储、外部身份、消息队列
var infrastructureSet = wire.NewSet(
	provideLogger,
	mysql.NewDB,
	provideRedisClient,
	redis.NewSessionStore,
	provideSessionStore,
	provideBlacklist,
	provideCoverStorage,
	provideVerifier,
	providePublisher,
	provideJWTManager,
)

// repositorySet 仓储
var repositorySet = wire.NewSet(
	mysql.NewUserRepository,
	mysql.NewBookRepository,
	mysql.NewAuthorRepository,
	mysql.NewTxManager,
)

// domainSet 领域服务
var domainSet = wire.NewSet(
	user.NewService,
	provideAuthorService,
	provideBookService,
)

// applicationSet 用例
var applicationSet = wire.NewSet(
	appauthor.NewAuthorUseCase,
	appbook.NewCreateBookUseCase,
	appbook.NewBookQueryUseCase,
	appbook.NewUpdateBookUseCase,
	appbook.NewUpdateBookImageUseCase,
	appbook.NewDeleteBookUseCase,
	appbook.NewLoanUseCase,
	appuser.NewUserUseCase,
	appuser.NewDeleteUserUseCase,
	appauth.NewLoginUseCase,
	appauth.NewLogoutUseCase,
)

// interfaceSet 处理器、中间件、路由
var interfaceSet = wire.NewSet(
	handler.NewAuthHandler,
	handler.NewAuthorHandler,
	handler.NewBookHandler,
	handler.NewUserHandler,
	middleware.NewAuthenticator,
	wire.Struct(new(router.Handlers), "*"),
	router.New,
	provideServer,
)

// InitializeApp 组装整个应用，返回的cleanup按创建的逆序释放资源
func InitializeApp(cfg *config.Config) (*App, func(), error) {
	wire.Build(
		infrastructureSet,
		repositorySet,
		domainSet,
		applicationSet,
		interfaceSet,
		wire.Struct(new(App), "*"),
	)
	return nil, nil, nil
}
