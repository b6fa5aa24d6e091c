// Package database 提供MySQL连接和表结构迁移
// 该包负责：
// - 建立数据库连接（数据库不存在时自动创建）
// - 配置连接池
// - 执行数据库迁移
package database

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"foodconnect/models"
)

// Options 数据库连接参数
type Options struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	Debug    bool // 为true时打印所有SQL
}

// Open 建立数据库连接
// 该函数负责：
// 1. 连接MySQL服务器并创建数据库（如果不存在）
// 2. 连接目标数据库，开启TranslateError以便识别唯一约束冲突
// 3. 配置连接池参数
func Open(opts Options) (*gorm.DB, error) {
	level := logger.Warn
	if opts.Debug {
		level = logger.Info
	}
	gormLogger := logger.New(&log.Logger, logger.Config{
		SlowThreshold:             time.Second, // 慢查询阈值
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true, // 记录不存在是正常业务分支
		Colorful:                  false,
	})

	// 先连接MySQL服务器（不指定数据库），以便在数据库不存在时创建它
	dsnWithoutDB := fmt.Sprintf("%s:%s@tcp(%s:%s)/?charset=utf8mb4&parseTime=True&loc=Local",
		opts.User, opts.Password, opts.Host, opts.Port)
	tempDB, err := gorm.Open(mysql.Open(dsnWithoutDB), &gorm.Config{Logger: gormLogger})
	if err != nil {
		return nil, errors.Wrap(err, "连接MySQL服务器失败")
	}
	createDBSQL := fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s` CHARACTER SET utf8mb4 COLLATE utf8mb4_unicode_ci", opts.Name)
	if err := tempDB.Exec(createDBSQL).Error; err != nil {
		return nil, errors.Wrap(err, "创建数据库失败")
	}
	if sqlDB, err := tempDB.DB(); err == nil {
		_ = sqlDB.Close()
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local&collation=utf8mb4_unicode_ci",
		opts.User, opts.Password, opts.Host, opts.Port, opts.Name)
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "无法连接到数据库")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "无法获取底层数据库连接")
	}
	sqlDB.SetMaxOpenConns(25)                  // 最大打开连接数
	sqlDB.SetMaxIdleConns(10)                  // 最大空闲连接数
	sqlDB.SetConnMaxLifetime(time.Hour)        // 连接最大生存时间
	sqlDB.SetConnMaxIdleTime(30 * time.Minute) // 空闲连接最大生存时间

	log.Info().Str("host", opts.Host).Str("port", opts.Port).Str("db", opts.Name).Msg("数据库连接成功")
	return db, nil
}

// Migrate 执行数据库迁移
// 使用GORM的AutoMigrate创建缺少的表、字段和索引，
// 报名和佣金在(campaign_id, influencer_id)上的唯一索引也由此创建
func Migrate(db *gorm.DB) error {
	log.Info().Msg("开始数据库迁移")

	db = db.Set("gorm:table_options", "ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci")
	err := db.AutoMigrate(
		// 用户和会话
		&models.User{},
		&models.UserToken{},
		// 资料
		&models.Restaurant{},
		&models.Influencer{},
		&models.FollowerChangeRequest{},
		// 活动、报名和佣金
		&models.Campaign{},
		&models.Application{},
		&models.Commission{},
		// 站内通知
		&models.Notification{},
	)
	if err != nil {
		return errors.Wrap(err, "数据库迁移失败")
	}

	log.Info().Msg("数据库迁移成功")
	return nil
}
