// Package sqlstore 提供基于 GORM 的关系型存储实现（PostgreSQL / SQLite）
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"book-factory/internal/config"
	"book-factory/pkg/logger"
)

var tracer = otel.Tracer("sqlstore")

// Client 数据库客户端（GORM）
type Client struct {
	db     *gorm.DB
	driver string
}

// NewClient 按配置的驱动打开数据库并校验连接
func NewClient(cfg *config.Config) (*Client, error) {
	dbCfg := &cfg.Database

	level := gormlogger.Warn
	if cfg.App.Debug {
		level = gormlogger.Info
	}
	gormConfig := &gorm.Config{
		Logger: gormlogger.New(slogWriter{}, gormlogger.Config{
			SlowThreshold:             dbCfg.SlowQuery,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		}),
	}

	var (
		db  *gorm.DB
		err error
	)
	switch dbCfg.Driver {
	case config.DriverPostgres:
		db, err = gorm.Open(postgres.Open(dbCfg.Postgres.DSN()), gormConfig)
	case config.DriverSQLite:
		if dir := filepath.Dir(dbCfg.SQLite.Path); dir != "." && !strings.HasPrefix(dbCfg.SQLite.Path, "file:") {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create sqlite directory: %w", err)
			}
		}
		db, err = gorm.Open(sqlite.Open(sqliteDSN(dbCfg.SQLite.Path)), gormConfig)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", dbCfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if dbCfg.Driver == config.DriverSQLite {
		// SQLite 单写者，多连接只会换来 "database is locked"
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(dbCfg.Postgres.MaxOpenConns)
		sqlDB.SetMaxIdleConns(dbCfg.Postgres.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(dbCfg.Postgres.ConnMaxLifetime)
		sqlDB.SetConnMaxIdleTime(dbCfg.Postgres.ConnMaxIdleTime)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Client{db: db, driver: dbCfg.Driver}, nil
}

// NewClientFromDB 包装已打开的连接（测试与 CLI 使用）
func NewClientFromDB(db *gorm.DB) *Client {
	return &Client{db: db, driver: db.Dialector.Name()}
}

// sqliteDSN 打开外键约束，保证级联删除生效
func sqliteDSN(path string) string {
	if strings.Contains(path, "_foreign_keys") {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_foreign_keys=on&_busy_timeout=5000"
}

// DB 获取 GORM DB 实例
func (c *Client) DB() *gorm.DB {
	return c.db
}

// Driver 当前驱动名
func (c *Client) Driver() string {
	return c.driver
}

// SqlDB 获取底层 sql.DB
func (c *Client) SqlDB() (*sql.DB, error) {
	return c.db.DB()
}

// Close 关闭数据库连接
func (c *Client) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// HealthCheck 健康检查
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "sqlstore.HealthCheck")
	defer span.End()

	var result int
	if err := c.db.WithContext(ctx).Raw("SELECT 1").Scan(&result).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("health check failed: %w", err)
	}
	return nil
}

// slogWriter 把 GORM 日志转发到 slog
type slogWriter struct{}

func (slogWriter) Printf(format string, args ...any) {
	logger.Default().Info(strings.TrimSpace(fmt.Sprintf(format, args...)), "component", "gorm")
}
