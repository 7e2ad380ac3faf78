package model

import "time"

type User struct {
	ID           uint64  `gorm:"primaryKey"`
	Username     string  `gorm:"uniqueIndex;size:100;not null"`
	ExternalID   *string `gorm:"column:user_id;uniqueIndex;size:100"` // 登录用的外部ID，可为空
	PasswordHash string  `gorm:"size:255;not null"`
	CreatedAt    time.Time
}
