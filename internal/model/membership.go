package model

import "time"

// Membership 用户与社区的参与关系，(user_id, community_id) 唯一
type Membership struct {
	ID          uint64    `gorm:"primaryKey"`
	UserID      uint64    `gorm:"not null;index;uniqueIndex:uk_membership_user_community"`
	CommunityID uint64    `gorm:"not null;index;uniqueIndex:uk_membership_user_community"`
	JoinedAt    time.Time `gorm:"not null"`

	User      User      `gorm:"foreignKey:UserID"`
	Community Community `gorm:"foreignKey:CommunityID"`
}
