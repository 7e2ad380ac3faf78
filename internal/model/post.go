package model

import "time"

type Post struct {
	ID          uint64    `gorm:"primaryKey"`
	Content     string    `gorm:"type:text;not null"`
	Timestamp   time.Time `gorm:"not null;index:idx_post_comm_time,priority:2,sort:desc"`
	AuthorID    uint64    `gorm:"not null;index"`
	CommunityID uint64    `gorm:"not null;index:idx_post_comm_time,priority:1"`

	Author    User      `gorm:"foreignKey:AuthorID"`
	Community Community `gorm:"foreignKey:CommunityID"`
}
