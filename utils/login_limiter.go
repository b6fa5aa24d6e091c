package utils

import (
	"context"
	"math"
	"strings"
	"sync"
	"time"
)

// LoginGuard 登录失败限制
// 连续失败达到上限后锁定账号一段时间，防止暴力破解
type LoginGuard interface {
	// IsLocked 返回账号是否被锁定及剩余锁定分钟数
	IsLocked(ctx context.Context, account string) (bool, int, error)
	// RecordFailedLogin 记录一次失败，返回本次是否触发锁定及锁定分钟数
	RecordFailedLogin(ctx context.Context, account string) (bool, int, error)
	// ResetAttempts 登录成功后清除失败记录
	ResetAttempts(ctx context.Context, account string) error
}

// staleAfter 超过该时间没有新的失败且未锁定的记录会被清理
const staleAfter = 24 * time.Hour

// lockMinutes 剩余锁定时间向上取整为分钟
func lockMinutes(d time.Duration) int {
	return int(math.Ceil(d.Minutes()))
}

// normalizeAccount 账号忽略首尾空白和大小写，两种限制器共用
func normalizeAccount(account string) string {
	return strings.ToLower(strings.TrimSpace(account))
}

// failureRecord 单个账号的失败记录
type failureRecord struct {
	failures    int
	lastFailure time.Time
	lockedUntil time.Time
}

// LoginLimiter 进程内的登录限制器，未配置Redis时使用
// 只适合单实例部署，多实例时改用RedisLoginLimiter
type LoginLimiter struct {
	mu           sync.Mutex
	records      map[string]*failureRecord
	maxAttempts  int
	lockDuration time.Duration
	now          func() time.Time
}

var _ LoginGuard = (*LoginLimiter)(nil)

// NewLoginLimiter 创建进程内登录限制器，maxAttempts不大于0时使用5
func NewLoginLimiter(maxAttempts int, lockDuration time.Duration) *LoginLimiter {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &LoginLimiter{
		records:      make(map[string]*failureRecord),
		maxAttempts:  maxAttempts,
		lockDuration: lockDuration,
		now:          time.Now,
	}
}

// Run 按interval清理过期记录，直到ctx取消
func (l *LoginLimiter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.cleanup()
		}
	}
}

func (l *LoginLimiter) cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for account, rec := range l.records {
		if !now.Before(rec.lockedUntil) && now.Sub(rec.lastFailure) > staleAfter {
			delete(l.records, account)
		}
	}
}

// RecordFailedLogin 记录一次失败
// 达到上限时锁定账号并把计数清零，解锁后重新计算
func (l *LoginLimiter) RecordFailedLogin(_ context.Context, account string) (bool, int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	account = normalizeAccount(account)
	rec := l.records[account]
	if rec == nil {
		rec = &failureRecord{}
		l.records[account] = rec
	}
	rec.failures++
	rec.lastFailure = now

	if rec.failures < l.maxAttempts {
		return false, 0, nil
	}
	rec.failures = 0
	rec.lockedUntil = now.Add(l.lockDuration)
	return true, lockMinutes(l.lockDuration), nil
}

// IsLocked 检查账号是否处于锁定期
func (l *LoginLimiter) IsLocked(_ context.Context, account string) (bool, int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec := l.records[normalizeAccount(account)]
	if rec == nil {
		return false, 0, nil
	}
	remaining := rec.lockedUntil.Sub(l.now())
	if remaining <= 0 {
		return false, 0, nil
	}
	return true, lockMinutes(remaining), nil
}

// ResetAttempts 清除账号的失败记录
func (l *LoginLimiter) ResetAttempts(_ context.Context, account string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.records, normalizeAccount(account))
	return nil
}

// RemainingAttempts 距离锁定还剩几次失败机会
func (l *LoginLimiter) RemainingAttempts(account string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec := l.records[normalizeAccount(account)]
	if rec == nil {
		return l.maxAttempts
	}
	return max(l.maxAttempts-rec.failures, 0)
}
