package pkg

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	EventCommunityCreated = "community.created"
	EventMembershipJoined = "membership.joined"
	EventPostCreated      = "post.created"
)

// Event 写操作提交后对外发布的领域事件
type Event struct {
	Type        string    `json:"type"`
	CommunityID uint64    `json:"community_id"`
	UserID      uint64    `json:"user_id"`
	PostID      uint64    `json:"post_id,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// LogPublisher 未配置 kafka 时的默认实现，只打日志
type LogPublisher struct {
	Log logrus.FieldLogger
}

func (p *LogPublisher) Publish(_ context.Context, ev Event) error {
	p.Log.WithFields(logrus.Fields{
		"event":        ev.Type,
		"community_id": ev.CommunityID,
		"user_id":      ev.UserID,
		"post_id":      ev.PostID,
	}).Info("event published")
	return nil
}

func (p *LogPublisher) Close() error { return nil }
