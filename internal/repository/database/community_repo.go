package database

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"community_hub/internal/model"
)

type CommunityRepository struct {
	DB *gorm.DB
}

// Create 事务内插入，失败自动回滚
func (r *CommunityRepository) Create(ctx context.Context, c *model.Community) error {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Omit("Creator", "Memberships", "Posts").Create(c).Error
	})
	return translate(err)
}

// FindByID 只读取社区本身和创建者
func (r *CommunityRepository) FindByID(ctx context.Context, id uint64) (*model.Community, error) {
	return r.FindDetail(ctx, id, false, false)
}

// FindDetail 按需预加载成员和帖子
func (r *CommunityRepository) FindDetail(ctx context.Context, id uint64, withMembers, withPosts bool) (*model.Community, error) {
	q := r.DB.WithContext(ctx).Preload("Creator")
	if withMembers {
		q = q.Preload("Memberships", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		}).Preload("Memberships.User")
	}
	if withPosts {
		q = q.Preload("Posts", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		}).Preload("Posts.Author")
	}

	var community model.Community
	if err := q.First(&community, id).Error; err != nil {
		return nil, translate(err)
	}
	return &community, nil
}

func (r *CommunityRepository) Exists(ctx context.Context, id uint64) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.Community{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *CommunityRepository) List(ctx context.Context) ([]model.Community, error) {
	var list []model.Community
	err := r.DB.WithContext(ctx).Preload("Creator").Order("id ASC").Find(&list).Error
	return list, err
}

// SearchByName 名称不区分大小写的子串匹配，query 中的 % 和 _ 按字面处理。
// 两侧都交给数据库 LOWER，大小写折叠规则与驱动一致（sqlite 只折叠 ASCII）。
func (r *CommunityRepository) SearchByName(ctx context.Context, query string) ([]model.Community, error) {
	pattern := "%" + escapeLike(query) + "%"
	var list []model.Community
	err := r.DB.WithContext(ctx).Preload("Creator").
		Where("LOWER(name) LIKE LOWER(?) ESCAPE '!'", pattern).
		Order("id ASC").
		Find(&list).Error
	return list, err
}

// ListByMember 用户已加入的社区
func (r *CommunityRepository) ListByMember(ctx context.Context, userID uint64) ([]model.Community, error) {
	var list []model.Community
	err := r.DB.WithContext(ctx).Preload("Creator").
		Joins("JOIN memberships ON memberships.community_id = communities.id").
		Where("memberships.user_id = ?", userID).
		Order("memberships.id ASC").
		Find(&list).Error
	return list, err
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
