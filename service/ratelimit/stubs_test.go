package ratelimit

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"
	"forum-gate-service/entity"
)

var errStoreUnavailable = errors.New("store is not available")

type postStoreStub struct {
	posts []entity.Post
	err   error
}

func (s *postStoreStub) RecentByUser(ctx context.Context, userId string, since time.Time) ([]entity.Post, error) {
	if s.err != nil {
		return nil, s.err
	}
	result := make([]entity.Post, 0)
	for _, post := range s.posts {
		if post.UserId == userId && !post.Draft && !post.PostedAt.Before(since) {
			result = append(result, post)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].PostedAt.Equal(result[j].PostedAt) {
			return result[i].PostedAt.After(result[j].PostedAt)
		}
		return result[i].Id < result[j].Id
	})
	return result, nil
}

func (s *postStoreStub) ById(ctx context.Context, postId string) (*entity.Post, error) {
	if s.err != nil {
		return nil, s.err
	}
	for _, post := range s.posts {
		if post.Id == postId {
			return &post, nil
		}
	}
	return nil, nil
}

func (s *postStoreStub) NotAuthoredBy(ctx context.Context, postIds []string, userId string) ([]entity.Post, error) {
	if s.err != nil {
		return nil, s.err
	}
	result := make([]entity.Post, 0)
	for _, id := range postIds {
		for _, post := range s.posts {
			if post.Id == id && !post.IsAuthor(userId) {
				result = append(result, post)
			}
		}
	}
	return result, nil
}

type commentStoreStub struct {
	comments []entity.Comment
	err      error
}

func (s *commentStoreStub) RecentByUser(ctx context.Context, userId string, since time.Time, limit int) ([]entity.Comment, error) {
	return s.search(userId, "", since, limit)
}

func (s *commentStoreStub) RecentByUserOnPost(ctx context.Context, userId string, postId string, since time.Time, limit int) ([]entity.Comment, error) {
	return s.search(userId, postId, since, limit)
}

func (s *commentStoreStub) search(userId string, postId string, since time.Time, limit int) ([]entity.Comment, error) {
	if s.err != nil {
		return nil, s.err
	}
	result := make([]entity.Comment, 0)
	for _, comment := range s.comments {
		if comment.UserId != userId || comment.PostedAt.Before(since) {
			continue
		}
		if postId != "" && comment.PostId != postId {
			continue
		}
		result = append(result, comment)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].PostedAt.Equal(result[j].PostedAt) {
			return result[i].PostedAt.After(result[j].PostedAt)
		}
		return result[i].Id < result[j].Id
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

type moderationStoreStub struct {
	action      *entity.ModeratorAction
	activeTypes map[string]bool
	err         error
}

func (s *moderationStoreStub) ActiveRateLimit(ctx context.Context, userId string) (*entity.ModeratorAction, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.action, nil
}

func (s *moderationStoreStub) HasActiveAction(ctx context.Context, userId string, actionType string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	return s.activeTypes[actionType], nil
}
