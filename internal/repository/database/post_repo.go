package database

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"community_hub/internal/model"
)

type PostRepository struct {
	DB *gorm.DB
}

func (r *PostRepository) Create(ctx context.Context, post *model.Post) error {
	return translate(r.DB.WithContext(ctx).Omit("Author", "Community").Create(post).Error)
}

// RecentByCommunities 多个社区中最新的帖子，按时间倒序，同一时间按 id 倒序
func (r *PostRepository) RecentByCommunities(ctx context.Context, communityIDs []uint64, limit int) ([]model.Post, error) {
	if len(communityIDs) == 0 {
		return []model.Post{}, nil
	}
	var list []model.Post
	err := r.DB.WithContext(ctx).
		Preload("Author").
		Preload("Community").
		Where("community_id IN ?", communityIDs).
		Order(clause.OrderBy{Columns: []clause.OrderByColumn{
			{Column: clause.Column{Name: "timestamp"}, Desc: true},
			{Column: clause.Column{Name: "id"}, Desc: true},
		}}).
		Limit(limit).
		Find(&list).Error
	return list, err
}
