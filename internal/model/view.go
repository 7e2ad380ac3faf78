package model

import (
	"encoding/base64"
	"time"
)

// TimeLayout 对外输出的 ISO-8601 时间格式，统一为 UTC
const TimeLayout = time.RFC3339Nano

func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

type CreatorView struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
}

type MemberView struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
	JoinedAt string `json:"joined_at"`
}

type PostView struct {
	ID        uint64 `json:"id"`
	Content   string `json:"content"`
	Author    string `json:"author"`
	Timestamp string `json:"timestamp"`
}

type CommunityView struct {
	ID          uint64        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Icon        *string       `json:"icon"`
	Rules       string        `json:"rules"`
	CreatedAt   string        `json:"created_at"`
	Creator     CreatorView   `json:"creator"`
	Members     *[]MemberView `json:"members,omitempty"`
	Posts       *[]PostView   `json:"posts,omitempty"`
}

// NotificationView 通知列表项：新帖子 + 所属社区名
type NotificationView struct {
	CommunityID   uint64 `json:"community_id"`
	CommunityName string `json:"community_name"`
	Content       string `json:"content"`
	Author        string `json:"author"`
	Timestamp     string `json:"timestamp"`
}

// NewCommunityView 序列化社区。
// posts 只有在 includeMembers 同时为 true 时才会输出，两个开关是耦合的。
// 调用方需要事先 Preload Creator / Memberships.User / Posts.Author。
func NewCommunityView(c *Community, includeMembers, includePosts bool) CommunityView {
	v := CommunityView{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		Rules:       c.Rules,
		CreatedAt:   FormatTime(c.CreatedAt),
		Creator: CreatorView{
			ID:       c.Creator.ID,
			Username: c.Creator.Username,
		},
	}
	if len(c.Icon) > 0 {
		icon := base64.StdEncoding.EncodeToString(c.Icon)
		v.Icon = &icon
	}

	if !includeMembers {
		return v
	}
	members := make([]MemberView, 0, len(c.Memberships))
	for _, m := range c.Memberships {
		members = append(members, MemberView{
			ID:       m.User.ID,
			Username: m.User.Username,
			JoinedAt: FormatTime(m.JoinedAt),
		})
	}
	v.Members = &members

	if includePosts {
		posts := make([]PostView, 0, len(c.Posts))
		for i := range c.Posts {
			posts = append(posts, NewPostView(&c.Posts[i]))
		}
		v.Posts = &posts
	}
	return v
}

func NewCommunityViews(list []Community) []CommunityView {
	out := make([]CommunityView, 0, len(list))
	for i := range list {
		out = append(out, NewCommunityView(&list[i], false, false))
	}
	return out
}

func NewPostView(p *Post) PostView {
	return PostView{
		ID:        p.ID,
		Content:   p.Content,
		Author:    p.Author.Username,
		Timestamp: FormatTime(p.Timestamp),
	}
}

func NewNotificationView(p *Post) NotificationView {
	return NotificationView{
		CommunityID:   p.CommunityID,
		CommunityName: p.Community.Name,
		Content:       p.Content,
		Author:        p.Author.Username,
		Timestamp:     FormatTime(p.Timestamp),
	}
}
