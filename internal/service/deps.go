package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"community_hub/internal/pkg"
	"community_hub/internal/session"
)

// Deps 服务层共享依赖，启动时构造一次显式注入
type Deps struct {
	DB       *gorm.DB
	Sessions session.Store
	Events   pkg.Publisher
	Metrics  *pkg.Metrics
	Log      logrus.FieldLogger
	Now      func() time.Time

	// PublishTimeout 单个事件发送的上限，超时只记日志
	PublishTimeout time.Duration
}

const defaultPublishTimeout = 2 * time.Second

func (d Deps) withDefaults() Deps {
	if d.Log == nil {
		d.Log = logrus.StandardLogger()
	}
	if d.Events == nil {
		d.Events = &pkg.LogPublisher{Log: d.Log}
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.PublishTimeout <= 0 {
		d.PublishTimeout = defaultPublishTimeout
	}
	return d
}

func (d Deps) now() time.Time {
	return d.Now().UTC()
}

// publish 写操作已提交，事件发送失败只记录日志。
// 与请求的取消解耦，但受 PublishTimeout 限制，不会拖住响应。
func (d Deps) publish(ctx context.Context, ev pkg.Event) {
	ev.OccurredAt = d.now()
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.PublishTimeout)
	defer cancel()
	if err := d.Events.Publish(ctx, ev); err != nil {
		d.Log.WithError(err).WithField("event", ev.Type).Warn("publish event failed")
	}
}
