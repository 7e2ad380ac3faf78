package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"community_hub/internal/model"
	"community_hub/internal/pkg"
	"community_hub/internal/repository/database"
)

type CommunityService struct {
	deps       Deps
	repo       *database.CommunityRepository
	memberRepo *database.MembershipRepository
}

type CreateCommunityInput struct {
	Name        string
	Description string
	Rules       string
	Icon        []byte // nil 表示未上传
	CreatorID   uint64
}

func NewCommunityService(d Deps) *CommunityService {
	d = d.withDefaults()
	return &CommunityService{
		deps:       d,
		repo:       &database.CommunityRepository{DB: d.DB},
		memberRepo: &database.MembershipRepository{DB: d.DB},
	}
}

// CreateCommunity 校验在写库之前完成；名称唯一由索引保证
func (s *CommunityService) CreateCommunity(ctx context.Context, in CreateCommunityInput) (*model.Community, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" || strings.TrimSpace(in.Description) == "" || strings.TrimSpace(in.Rules) == "" {
		return nil, newError(ErrInvalidInput, "name, description and rules are required")
	}
	if in.CreatorID == 0 {
		return nil, newError(ErrUnauthorized, "login required")
	}

	community := &model.Community{
		Name:        name,
		Description: in.Description,
		Rules:       in.Rules,
		CreatorID:   in.CreatorID,
		CreatedAt:   s.deps.now(),
	}
	if len(in.Icon) > 0 {
		community.Icon = in.Icon
	}

	if err := s.repo.Create(ctx, community); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, newError(ErrConflict, "community name already exists")
		}
		return nil, err
	}

	if s.deps.Metrics != nil {
		s.deps.Metrics.CommunitiesCreated.Inc()
	}
	s.deps.publish(ctx, pkg.Event{Type: pkg.EventCommunityCreated, CommunityID: community.ID, UserID: in.CreatorID})
	return community, nil
}

// GetCommunity 社区详情；posts 只在 includeMembers 时才会输出
func (s *CommunityService) GetCommunity(ctx context.Context, id uint64, includeMembers, includePosts bool) (model.CommunityView, error) {
	c, err := s.repo.FindDetail(ctx, id, includeMembers, includeMembers && includePosts)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return model.CommunityView{}, newError(ErrNotFound, "Community not found")
		}
		return model.CommunityView{}, err
	}
	return model.NewCommunityView(c, includeMembers, includePosts), nil
}

func (s *CommunityService) ListCommunities(ctx context.Context) ([]model.CommunityView, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return model.NewCommunityViews(list), nil
}

// SearchCommunities 空查询返回全部
func (s *CommunityService) SearchCommunities(ctx context.Context, query string) ([]model.CommunityView, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.ListCommunities(ctx)
	}
	list, err := s.repo.SearchByName(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search communities: %w", err)
	}
	return model.NewCommunityViews(list), nil
}

// JoinCommunity 重复加入由唯一索引拦截后转换为 ErrConflict
func (s *CommunityService) JoinCommunity(ctx context.Context, userID, communityID uint64) error {
	ok, err := s.repo.Exists(ctx, communityID)
	if err != nil {
		return err
	}
	if !ok {
		return newError(ErrNotFound, "Community not found")
	}

	err = s.memberRepo.Create(ctx, &model.Membership{
		UserID:      userID,
		CommunityID: communityID,
		JoinedAt:    s.deps.now(),
	})
	if err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return newError(ErrConflict, "Already a member")
		}
		return err
	}

	if s.deps.Metrics != nil {
		s.deps.Metrics.MembershipsCreated.Inc()
	}
	s.deps.publish(ctx, pkg.Event{Type: pkg.EventMembershipJoined, CommunityID: communityID, UserID: userID})
	return nil
}

func (s *CommunityService) IsMember(ctx context.Context, userID, communityID uint64) (bool, error) {
	return s.memberRepo.IsMember(ctx, userID, communityID)
}

func (s *CommunityService) ListMyCommunities(ctx context.Context, userID uint64) ([]model.CommunityView, error) {
	list, err := s.repo.ListByMember(ctx, userID)
	if err != nil {
		return nil, err
	}
	return model.NewCommunityViews(list), nil
}
