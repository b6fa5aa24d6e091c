package config

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitLogger 设置全局日志
// 开发环境输出便于阅读的控制台格式，生产环境输出JSON
func InitLogger(cfg Config) {
	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.IsProduction() {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Str("service", "foodconnect").Logger()
		return
	}
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "2006-01-02 15:04:05"})
}

// StartServer 启动HTTP服务器并处理优雅关闭
// 该函数负责：
// 1. 在单独的goroutine中启动HTTP服务器
// 2. 监听系统信号
// 3. 收到信号后等待活跃连接完成再退出
func StartServer(app *fiber.App, port string) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- app.Listen(fmt.Sprintf(":%s", port))
	}()
	log.Info().Str("port", port).Msg("服务器已启动")

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		log.Info().Str("signal", sig.String()).Msg("收到终止信号，开始优雅关闭")
	}

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error().Err(err).Msg("服务器关闭时发生错误")
		return err
	}
	log.Info().Msg("服务器已安全关闭")
	return nil
}
