// Package storetest 提供不连接数据库的GORM测试工具
// DryRun模式下语句只生成不执行，按顺序记录SQL和事务边界，用来校验加锁顺序和查询条件
package storetest

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var errDryRun = errors.New("storetest: dry run connection does not execute statements")

// Log 按执行顺序记录的语句
// 事务开始记为 "BEGIN <隔离级别>"，提交和回滚记为 "COMMIT"、"ROLLBACK"
type Log struct {
	mu      sync.Mutex
	entries []string
}

func (l *Log) add(entry string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
}

// Entries 返回记录的副本
func (l *Log) Entries() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.entries...)
}

// Last 返回最后一条记录
func (l *Log) Last() string {
	entries := l.Entries()
	if len(entries) == 0 {
		return ""
	}
	return entries[len(entries)-1]
}

// Reset 清空记录
func (l *Log) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
}

// AfterBegin 返回第一个事务开始之后的记录，没有事务时返回nil
func (l *Log) AfterBegin() []string {
	entries := l.Entries()
	for i, entry := range entries {
		if strings.HasPrefix(entry, "BEGIN") {
			return entries[i+1:]
		}
	}
	return nil
}

// sqlLogger 把每条语句的完整SQL写入Log
type sqlLogger struct {
	log *Log
}

func (s sqlLogger) LogMode(logger.LogLevel) logger.Interface { return s }

func (s sqlLogger) Info(context.Context, string, ...interface{}) {}

func (s sqlLogger) Warn(context.Context, string, ...interface{}) {}

func (s sqlLogger) Error(context.Context, string, ...interface{}) {}

func (s sqlLogger) Trace(_ context.Context, _ time.Time, fc func() (string, int64), _ error) {
	statement, _ := fc()
	s.log.add(statement)
}

// pool 实现gorm.ConnPoolBeginner，自身不是事务，GORM才会调用BeginTx而不是建保存点
type pool struct {
	log *Log
}

func (p *pool) BeginTx(_ context.Context, opts *sql.TxOptions) (gorm.ConnPool, error) {
	level := sql.LevelDefault
	if opts != nil {
		level = opts.Isolation
	}
	p.log.add("BEGIN " + level.String())
	return &tx{log: p.log}, nil
}

func (p *pool) PrepareContext(context.Context, string) (*sql.Stmt, error) { return nil, errDryRun }
func (p *pool) ExecContext(context.Context, string, ...interface{}) (sql.Result, error) {
	return nil, errDryRun
}
func (p *pool) QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error) {
	return nil, errDryRun
}
func (p *pool) QueryRowContext(context.Context, string, ...interface{}) *sql.Row { return nil }

// tx 实现gorm.TxCommitter
type tx struct {
	log *Log
}

func (t *tx) Commit() error   { t.log.add("COMMIT"); return nil }
func (t *tx) Rollback() error { t.log.add("ROLLBACK"); return nil }

func (t *tx) PrepareContext(context.Context, string) (*sql.Stmt, error) { return nil, errDryRun }
func (t *tx) ExecContext(context.Context, string, ...interface{}) (sql.Result, error) {
	return nil, errDryRun
}
func (t *tx) QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error) {
	return nil, errDryRun
}
func (t *tx) QueryRowContext(context.Context, string, ...interface{}) *sql.Row { return nil }

// DryRunMySQL 打开一个使用MySQL方言、只生成SQL的连接
// 查询不会返回数据：First不报ErrRecordNotFound，RowsAffected恒为0
func DryRunMySQL() (*gorm.DB, *Log, error) {
	log := &Log{}
	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      &pool{log: log},
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		DryRun:                 true,
		DisableAutomaticPing:   true,
		SkipDefaultTransaction: true,
		TranslateError:         true,
		Logger:                 sqlLogger{log: log},
	})
	if err != nil {
		return nil, nil, err
	}
	return db, log, nil
}
