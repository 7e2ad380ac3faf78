package model

import "time"

type Community struct {
	ID          uint64 `gorm:"primaryKey"`
	Name        string `gorm:"uniqueIndex;size:150;not null"`
	Description string `gorm:"type:text;not null"`
	Rules       string `gorm:"type:text;not null"`
	Icon        []byte // 原始图片字节，未上传为 NULL
	CreatorID   uint64 `gorm:"not null;index"`
	CreatedAt   time.Time

	Creator     User         `gorm:"foreignKey:CreatorID"`
	Memberships []Membership `gorm:"foreignKey:CommunityID"`
	Posts       []Post       `gorm:"foreignKey:CommunityID"`
}
