package config

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"foodconnect/database"
	"foodconnect/handlers"
	"foodconnect/notify"
	"foodconnect/routes"
	"foodconnect/services"
	"foodconnect/store"
	"foodconnect/utils"
)

// App 组装完成的应用，Close释放所有外部连接
type App struct {
	Fiber    *fiber.App
	Services *services.Services
	closers  []func() error
}

// Close 按创建的逆序关闭外部连接
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Warn().Err(err).Msg("关闭资源失败")
		}
	}
}

// InitApp 初始化整个应用程序
// 该函数是应用程序启动的核心，负责：
// 1. 根据STORE_DRIVER打开MySQL或本地文件存储
// 2. 选择登录限制器（配置了Redis时使用Redis）
// 3. 组装通知发布者（站内通知，配置了Kafka时同时发布事件）
// 4. 创建业务服务和Fiber实例
func InitApp(ctx context.Context, cfg Config) (*App, error) {
	app := &App{}

	st, err := openStore(cfg, app)
	if err != nil {
		app.Close()
		return nil, err
	}

	var limiter utils.LoginGuard
	lockDuration := time.Duration(cfg.LoginLockMinutes) * time.Minute
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			app.Close()
			return nil, errors.Wrap(err, "连接Redis失败")
		}
		app.closers = append(app.closers, client.Close)
		limiter = utils.NewRedisLoginLimiter(client, "foodconnect:login", cfg.LoginMaxAttempts, lockDuration)
		log.Info().Str("addr", cfg.RedisAddr).Msg("登录限制使用Redis")
	} else {
		memLimiter := utils.NewLoginLimiter(cfg.LoginMaxAttempts, lockDuration)
		go memLimiter.Run(ctx, time.Hour)
		limiter = memLimiter
	}

	publishers := []notify.Publisher{notify.NewInbox(st)}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher := notify.NewKafka(notify.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaNotifyTopic))
		app.closers = append(app.closers, kafkaPublisher.Close)
		publishers = append(publishers, kafkaPublisher)
		log.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", cfg.KafkaNotifyTopic).Msg("通知事件发布到Kafka")
	}

	jwtManager, err := utils.NewJWTManager(cfg.JWTSecret, cfg.Env)
	if err != nil {
		app.Close()
		return nil, err
	}

	app.Services = services.New(st, notify.New(publishers...), jwtManager, limiter, services.Options{
		DefaultCommissionRate: cfg.DefaultCommissionRate,
		TokenTTL:              cfg.TokenTTL,
	})

	if cfg.AdminEmail != "" {
		if _, err := app.Services.Auth.CreateAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			app.Close()
			return nil, errors.Wrap(err, "创建管理员失败")
		}
	}

	app.Fiber = SetupApp(app.Services)
	log.Info().Str("store", cfg.StoreDriver).Float64("commission_rate", cfg.DefaultCommissionRate).Msg("应用程序初始化完成")
	return app, nil
}

// openStore 根据配置打开存储
func openStore(cfg Config, app *App) (store.Store, error) {
	if cfg.StoreDriver == StoreFile {
		st, err := store.NewFileStore(cfg.DataFile)
		if err != nil {
			return nil, err
		}
		log.Info().Str("file", cfg.DataFile).Msg("使用本地文件存储")
		return st, nil
	}

	db, err := database.Open(database.Options{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		Name:     cfg.DBName,
		Debug:    !cfg.IsProduction(),
	})
	if err != nil {
		return nil, err
	}
	if sqlDB, err := db.DB(); err == nil {
		app.closers = append(app.closers, sqlDB.Close)
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	return store.NewGormStore(db), nil
}

// SetupApp 创建并配置Fiber应用实例
// 该函数负责：
// 1. 创建新的Fiber实例并设置统一的错误处理
// 2. 配置全局中间件
// 3. 设置路由
func SetupApp(svc *services.Services) *fiber.App {
	app := fiber.New(fiber.Config{
		CaseSensitive: true,
		ServerHeader:  "FoodConnect",
		BodyLimit:     4 * 1024 * 1024,
		ErrorHandler:  handlers.ErrorHandler,
		// 使用标准JSON编码器，确保正确处理UTF-8字符
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
		Immutable:    true,
		AppName:      "FoodConnect API",
		ReadTimeout:  30 * time.Second, // 读取超时时间，防止慢客户端攻击
		WriteTimeout: 30 * time.Second, // 写入超时时间
		IdleTimeout:  60 * time.Second, // 空闲超时时间
	})

	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{
		Format:     "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
		Output:     os.Stdout,
	}))

	// 防止应用因panic而崩溃
	app.Use(recover.New())

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
		MaxAge:       int(12 * time.Hour.Seconds()),
	}))

	routes.SetupRoutes(app, handlers.New(svc), svc.Auth)
	return app
}
