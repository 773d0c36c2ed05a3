package ratelimit

import (
	"context"
	"time"

	"forum-gate-service/entity"
)

const (
	defaultPostIntervalSeconds    = 30
	defaultMaxPostsPer24Hours     = 5
	defaultCommentIntervalSeconds = 8

	standardLookbackHours = 24
)

type PostStore interface {
	// RecentByUser returns the user's non-draft posts with postedAt >= since,
	// ordered by postedAt desc, id asc on equal timestamps
	RecentByUser(ctx context.Context, userId string, since time.Time) ([]entity.Post, error)
	ById(ctx context.Context, postId string) (*entity.Post, error)
	// NotAuthoredBy filters postIds down to posts the user neither authored nor coauthored
	NotAuthoredBy(ctx context.Context, postIds []string, userId string) ([]entity.Post, error)
}

type CommentStore interface {
	// RecentByUser returns the user's comments with postedAt >= since,
	// ordered by postedAt desc, id asc on equal timestamps.
	// limit <= 0 means no limit.
	RecentByUser(ctx context.Context, userId string, since time.Time, limit int) ([]entity.Comment, error)
	RecentByUserOnPost(ctx context.Context, userId string, postId string, since time.Time, limit int) ([]entity.Comment, error)
}

type ModerationStore interface {
	ActiveRateLimit(ctx context.Context, userId string) (*entity.ModeratorAction, error)
	HasActiveAction(ctx context.Context, userId string, actionType string) (bool, error)
}

type Settings struct {
	PostIntervalSeconds    int
	MaxPostsPer24Hours     int
	CommentIntervalSeconds int
	// nil disables the rule
	CommentKarmaThreshold *int
	// nil or out of (0;1] disables the rule
	CommentDownvoteRatio *float64
	ExemptPostAuthors    bool
}

func DefaultSettings() Settings {
	return Settings{
		PostIntervalSeconds:    defaultPostIntervalSeconds,
		MaxPostsPer24Hours:     defaultMaxPostsPer24Hours,
		CommentIntervalSeconds: defaultCommentIntervalSeconds,
	}
}

// normalized replaces malformed values with defaults instead of failing the evaluation
func (s Settings) normalized() Settings {
	if s.PostIntervalSeconds <= 0 {
		s.PostIntervalSeconds = defaultPostIntervalSeconds
	}
	if s.MaxPostsPer24Hours <= 0 {
		s.MaxPostsPer24Hours = defaultMaxPostsPer24Hours
	}
	if s.CommentIntervalSeconds <= 0 {
		s.CommentIntervalSeconds = defaultCommentIntervalSeconds
	}
	if s.CommentDownvoteRatio != nil {
		ratio := *s.CommentDownvoteRatio
		if ratio <= 0 || ratio > 1 {
			s.CommentDownvoteRatio = nil
		}
	}
	return s
}
