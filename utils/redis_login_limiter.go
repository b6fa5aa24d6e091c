package utils

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// 失败计数和加锁在一个脚本里完成，多实例部署时计数不会丢失
// KEYS[1] 失败计数  KEYS[2] 锁定标记
// ARGV[1] 最大失败次数  ARGV[2] 锁定毫秒数
var recordFailureScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
if current >= tonumber(ARGV[1]) then
  redis.call("SET", KEYS[2], "1", "PX", ARGV[2])
  redis.call("DEL", KEYS[1])
  return 1
end
return 0
`)

// RedisLoginLimiter 基于Redis的登录限制器，多个实例共享失败计数
type RedisLoginLimiter struct {
	client       redis.UniversalClient
	prefix       string
	maxAttempts  int
	lockDuration time.Duration
}

// NewRedisLoginLimiter 创建Redis登录限制器
func NewRedisLoginLimiter(client redis.UniversalClient, prefix string, maxAttempts int, lockDuration time.Duration) *RedisLoginLimiter {
	prefix = strings.TrimSuffix(strings.TrimSpace(prefix), ":")
	if prefix == "" {
		prefix = "foodconnect:login"
	}
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	if lockDuration < time.Second {
		lockDuration = time.Second
	}
	return &RedisLoginLimiter{
		client:       client,
		prefix:       prefix,
		maxAttempts:  maxAttempts,
		lockDuration: lockDuration,
	}
}

func (r *RedisLoginLimiter) keys(account string) (string, string) {
	account = normalizeAccount(account)
	return fmt.Sprintf("%s:fail:%s", r.prefix, account), fmt.Sprintf("%s:lock:%s", r.prefix, account)
}

// IsLocked 检查账号是否被锁定
func (r *RedisLoginLimiter) IsLocked(ctx context.Context, account string) (bool, int, error) {
	_, lockKey := r.keys(account)
	ttl, err := r.client.PTTL(ctx, lockKey).Result()
	if err != nil {
		return false, 0, errors.Wrap(err, "查询登录锁定状态失败")
	}
	if ttl <= 0 {
		return false, 0, nil
	}
	return true, lockMinutes(ttl), nil
}

// RecordFailedLogin 记录登录失败，达到上限时锁定账号
func (r *RedisLoginLimiter) RecordFailedLogin(ctx context.Context, account string) (bool, int, error) {
	failKey, lockKey := r.keys(account)
	locked, err := recordFailureScript.Run(ctx, r.client, []string{failKey, lockKey}, r.maxAttempts, r.lockDuration.Milliseconds()).Int()
	if err != nil {
		return false, 0, errors.Wrap(err, "记录登录失败次数失败")
	}
	if locked == 1 {
		return true, lockMinutes(r.lockDuration), nil
	}
	return false, 0, nil
}

// ResetAttempts 清除失败计数和锁定
func (r *RedisLoginLimiter) ResetAttempts(ctx context.Context, account string) error {
	failKey, lockKey := r.keys(account)
	if err := r.client.Del(ctx, failKey, lockKey).Err(); err != nil {
		return errors.Wrap(err, "清除登录失败记录失败")
	}
	return nil
}
