package service

import (
	"context"
	"errors"
	"strings"

	"community_hub/internal/model"
	"community_hub/internal/pkg"
	"community_hub/internal/repository/database"
)

// NotificationLimit 通知列表最多返回的帖子数
const NotificationLimit = 10

type PostService struct {
	deps          Deps
	repo          *database.PostRepository
	userRepo      *database.UserRepository
	communityRepo *database.CommunityRepository
	memberRepo    *database.MembershipRepository
}

func NewPostService(d Deps) *PostService {
	d = d.withDefaults()
	return &PostService{
		deps:          d,
		repo:          &database.PostRepository{DB: d.DB},
		userRepo:      &database.UserRepository{DB: d.DB},
		communityRepo: &database.CommunityRepository{DB: d.DB},
		memberRepo:    &database.MembershipRepository{DB: d.DB},
	}
}

// AddPost 发帖
func (s *PostService) AddPost(ctx context.Context, communityID, authorID uint64, content string) (model.PostView, error) {
	if strings.TrimSpace(content) == "" {
		return model.PostView{}, newError(ErrInvalidInput, "Content is required")
	}

	ok, err := s.communityRepo.Exists(ctx, communityID)
	if err != nil {
		return model.PostView{}, err
	}
	if !ok {
		return model.PostView{}, newError(ErrNotFound, "Community not found")
	}

	author, err := s.userRepo.FindByID(ctx, authorID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return model.PostView{}, newError(ErrUnauthorized, "login required")
		}
		return model.PostView{}, err
	}

	post := &model.Post{
		Content:     content,
		Timestamp:   s.deps.now(),
		AuthorID:    author.ID,
		CommunityID: communityID,
	}
	if err := s.repo.Create(ctx, post); err != nil {
		return model.PostView{}, err
	}
	post.Author = *author

	if s.deps.Metrics != nil {
		s.deps.Metrics.PostsCreated.Inc()
	}
	s.deps.publish(ctx, pkg.Event{Type: pkg.EventPostCreated, CommunityID: communityID, UserID: author.ID, PostID: post.ID})
	return model.NewPostView(post), nil
}

// Notifications 用户所在社区的最新帖子
func (s *PostService) Notifications(ctx context.Context, userID uint64) ([]model.NotificationView, error) {
	ids, err := s.memberRepo.CommunityIDsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	posts, err := s.repo.RecentByCommunities(ctx, ids, NotificationLimit)
	if err != nil {
		return nil, err
	}

	out := make([]model.NotificationView, 0, len(posts))
	for i := range posts {
		out = append(out, model.NewNotificationView(&posts[i]))
	}
	return out, nil
}
