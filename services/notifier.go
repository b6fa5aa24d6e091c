package services

import (
	"context"

	"github.com/rs/zerolog/log"
)

// Notifier 通知发送接口
// 发送是尽力而为的，失败只记录日志，不影响已经提交的业务数据
type Notifier interface {
	Notify(ctx context.Context, userID uint, kind string, payload map[string]interface{}) error
}

// notify 发送通知并吞掉错误
func notify(ctx context.Context, notifier Notifier, userID uint, kind string, payload map[string]interface{}) {
	if notifier == nil || userID == 0 {
		return
	}
	if err := notifier.Notify(ctx, userID, kind, payload); err != nil {
		log.Warn().Err(err).Uint("user_id", userID).Str("kind", kind).Msg("发送通知失败")
	}
}
