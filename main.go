package main

import (
	"context"

	"github.com/rs/zerolog/log"

	"foodconnect/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("加载配置失败")
	}
	config.InitLogger(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := config.InitApp(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("应用程序初始化失败")
	}
	defer app.Close()

	if err := config.StartServer(app.Fiber, cfg.ServerPort); err != nil {
		log.Error().Err(err).Msg("服务器异常退出")
	}
}
