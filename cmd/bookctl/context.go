package main

import (
	"context"
	"os"
	"strings"
	"sync"

	"github.com/joho/godotenv"

	"book-factory/internal/config"
	"book-factory/internal/wire"
	"book-factory/pkg/logger"
)

type commandContext struct {
	configDir *string
	logLevel  *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	toolkitOnce sync.Once
	toolkit     *wire.Toolkit
	cleanup     func()
	toolkitErr  error
}

func newCommandContext(configDir, logLevel *string) *commandContext {
	return &commandContext{
		configDir: configDir,
		logLevel:  logLevel,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		_ = godotenv.Load()

		dir := strings.TrimSpace(*c.configDir)
		if dir == "" {
			dir = os.Getenv(config.ConfigDirEnv)
		}
		if dir == "" {
			dir = "configs"
		}
		cfg, err := config.LoadFrom(dir)
		if err != nil {
			c.configErr = err
			return
		}
		// 标准输出留给命令结果
		logger.InitWithWriter(os.Stderr, *c.logLevel, "text")
		c.config = cfg
	})
	return c.config, c.configErr
}

// ensureToolkit 惰性装配服务，只有真正访问数据库的命令才连接
func (c *commandContext) ensureToolkit(ctx context.Context) (*wire.Toolkit, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	c.toolkitOnce.Do(func() {
		c.toolkit, c.cleanup, c.toolkitErr = wire.InitializeToolkit(ctx, cfg)
	})
	return c.toolkit, c.toolkitErr
}

func (c *commandContext) close() {
	if c.cleanup != nil {
		c.cleanup()
		c.cleanup = nil
	}
}
