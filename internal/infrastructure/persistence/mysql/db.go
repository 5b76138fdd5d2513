package mysql

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/xiebiao/library/internal/infrastructure/config"
)

// NewDB 创建数据库连接
// 设计说明：
// 1. 使用GORM v2作为ORM框架
// 2. 配置连接池参数（MaxOpenConns、MaxIdleConns、ConnMaxLifetime）
// 3. 开发环境开启SQL日志，生产环境关闭
// 4. 自动迁移表结构（AutoMigrate）
func NewDB(cfg *config.Config) (*gorm.DB, error) {
	db, err := Open(mysql.Open(cfg.Database.DSN()), cfg.Server.Mode == "debug")
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取SQL DB失败: %w", err)
	}

	// 学习要点：合理的连接池配置对性能至关重要
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("数据库连接测试失败: %w", err)
	}

	zap.L().Info("数据库连接成功", zap.String("host", cfg.Database.Host), zap.String("db", cfg.Database.DBName))

	// 注意：生产环境应使用专门的迁移工具（如golang-migrate）
	if err := AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("数据库迁移失败: %w", err)
	}

	return db, nil
}

// Open 按方言打开连接（MySQL用于运行，SQLite用于测试）
// TranslateError让驱动的唯一键冲突统一为gorm.ErrDuplicatedKey
func Open(dialector gorm.Dialector, debug bool) (*gorm.DB, error) {
	logLevel := logger.Silent
	if debug {
		logLevel = logger.Info
	}

	return gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
}

// AutoMigrate 自动迁移表结构
// 学习要点：AutoMigrate只会创建表、添加字段，不会删除或修改现有字段
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&AuthorModel{},
		&BookModel{},
		&BookAuthorModel{},
		&UserModel{},
	); err != nil {
		return err
	}
	return binaryAuthorNames(db)
}

// binaryAuthorNameDDL 作者名按字节比较，"Thomas Hardy"与"thomas hardy"是两个作者
const binaryAuthorNameDDL = "ALTER TABLE authors MODIFY full_name VARCHAR(191) " +
	"CHARACTER SET utf8mb4 COLLATE utf8mb4_bin NOT NULL COMMENT '作者全名'"

// binaryAuthorNames MySQL默认排序规则不区分大小写，需要把full_name改为utf8mb4_bin
// GORM没有列级collate标签；SQLite默认BINARY比较，无需处理
func binaryAuthorNames(db *gorm.DB) error {
	if db.Dialector.Name() != "mysql" {
		return nil
	}
	return db.Exec(binaryAuthorNameDDL).Error
}

// AuthorModel GORM作者模型
// 设计说明：
// 1. 这是infrastructure层的数据模型，包含GORM tag
// 2. full_name唯一索引保证作者按名字解析的幂等性
// 3. full_name在MySQL上为utf8mb4_bin，大小写不同视为不同作者（见binaryAuthorNames）
type AuthorModel struct {
	ID        string `gorm:"primaryKey;size:36"`
	FullName  string `gorm:"uniqueIndex;size:191;not null;comment:作者全名"`
	Biography string `gorm:"type:text;comment:简介"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName 指定表名
func (AuthorModel) TableName() string {
	return "authors"
}

// BookModel GORM图书模型
// 设计说明:
// 1. ISBN13有唯一索引,防止重复
// 2. genres以JSON数组存储(datatypes.JSON)
// 3. 借阅字段可空,status=false时三者同时写入,归还时同时置NULL
// 4. borrower_id索引用于回填User.BorrowedBooks
// 5. 硬删除:删除后ISBN可以重新使用
type BookModel struct {
	ID            string            `gorm:"primaryKey;size:36"`
	Title         string            `gorm:"index;size:255;not null;comment:书名"`
	Description   string            `gorm:"type:text;comment:描述"`
	ISBN13        string            `gorm:"column:isbn13;uniqueIndex;size:13;not null;comment:ISBN-13"`
	Publisher     string            `gorm:"size:255;not null;comment:出版社"`
	PublishedDate time.Time         `gorm:"not null;comment:出版日期"`
	Genres        datatypes.JSON    `gorm:"comment:类型(JSON数组)"`
	Status        bool              `gorm:"not null;default:true;comment:true可借 false已借出"`
	BorrowerID    *string           `gorm:"index;size:36;comment:借阅人"`
	BorrowDate    *time.Time        `gorm:"comment:借出日期"`
	ReturnDate    *time.Time        `gorm:"comment:应还日期"`
	Image         string            `gorm:"size:500;comment:封面路径"`
	Authors       []BookAuthorModel `gorm:"foreignKey:BookID"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TableName 指定表名
func (BookModel) TableName() string {
	return "books"
}

// BookAuthorModel 图书-作者关联
// position保存作者署名顺序
type BookAuthorModel struct {
	BookID   string `gorm:"primaryKey;size:36"`
	Position int    `gorm:"primaryKey;autoIncrement:false"`
	AuthorID string `gorm:"index;size:36;not null"`
}

// TableName 指定表名
func (BookAuthorModel) TableName() string {
	return "book_authors"
}

// UserModel GORM用户模型
type UserModel struct {
	ID        string `gorm:"primaryKey;size:36"`
	FirstName string `gorm:"size:100;not null;comment:名"`
	LastName  string `gorm:"size:100;not null;comment:姓"`
	Email     string `gorm:"uniqueIndex;size:191;not null;comment:邮箱"`
	Role      string `gorm:"size:10;not null;default:USER;comment:角色(USER/ADMIN)"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName 指定表名
func (UserModel) TableName() string {
	return "users"
}
