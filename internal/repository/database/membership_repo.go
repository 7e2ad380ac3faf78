package database

import (
	"context"

	"gorm.io/gorm"

	"community_hub/internal/model"
)

type MembershipRepository struct {
	DB *gorm.DB
}

// Create 依赖唯一索引 uk_membership_user_community，重复加入返回 ErrDuplicate
func (r *MembershipRepository) Create(ctx context.Context, m *model.Membership) error {
	return translate(r.DB.WithContext(ctx).Omit("User", "Community").Create(m).Error)
}

func (r *MembershipRepository) IsMember(ctx context.Context, userID, communityID uint64) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.Membership{}).
		Where("user_id = ? AND community_id = ?", userID, communityID).
		Count(&count).Error
	return count > 0, err
}

func (r *MembershipRepository) CommunityIDsByUser(ctx context.Context, userID uint64) ([]uint64, error) {
	var ids []uint64
	err := r.DB.WithContext(ctx).Model(&model.Membership{}).
		Where("user_id = ?", userID).
		Pluck("community_id", &ids).Error
	return ids, err
}
