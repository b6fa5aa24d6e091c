package notify

import (
	"context"
	"errors"
)

// Notifier 把一次通知分发给多个发布者
// 某个发布者失败不影响其他发布者，所有错误合并后返回
type Notifier struct {
	publishers []Publisher
}

// New 创建通知分发器，nil发布者会被忽略
func New(publishers ...Publisher) *Notifier {
	n := &Notifier{}
	for _, p := range publishers {
		if p != nil {
			n.publishers = append(n.publishers, p)
		}
	}
	return n
}

// Notify 构造事件并发送给所有发布者
func (n *Notifier) Notify(ctx context.Context, userID uint, kind string, payload map[string]interface{}) error {
	event := NewEvent(userID, kind, payload)
	var errs []error
	for _, p := range n.publishers {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
