package service

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/txix-open/isp-kit/log"
	"forum-gate-service/domain"
	"forum-gate-service/entity"
)

type LimitEventsRepo interface {
	Increment(ctx context.Context, rateLimitType string, today time.Time) (int64, error)
}

type CommentVerdictSource interface {
	NextAbleToComment(ctx context.Context, user entity.User, postId string) (*domain.RateLimitInfo, error)
}

type HitRecorder struct {
	limiter CommentVerdictSource
	repo    LimitEventsRepo
	logger  log.Logger
}

// repo may be nil, recording is disabled then
func NewHitRecorder(limiter CommentVerdictSource, repo LimitEventsRepo, logger log.Logger) HitRecorder {
	return HitRecorder{
		limiter: limiter,
		repo:    repo,
		logger:  logger,
	}
}

// Record counts the event of a user hitting a comment rate limit with their
// just accepted comment. The universal cooldown is ignored, everyone hits it.
// Best effort: a failure here must never fail the accepted write.
func (s HitRecorder) Record(ctx context.Context, user entity.User) {
	if s.repo == nil {
		return
	}

	info, err := s.limiter.NextAbleToComment(ctx, user, "")
	lockErr := domain.ModeratorCommentLockError{}
	if errors.As(err, &lockErr) {
		info = &domain.RateLimitInfo{RateLimitType: domain.RateLimitTypeModerator}
		err = nil
	}
	if err != nil {
		s.logger.Error(ctx, errors.WithMessage(err, "rate limit hit: evaluate"))
		return
	}
	if info == nil || info.RateLimitType == domain.RateLimitTypeUniversal {
		return
	}

	_, err = s.repo.Increment(ctx, string(info.RateLimitType), time.Now())
	if err != nil {
		s.logger.Error(ctx, errors.WithMessage(err, "rate limit hit: increment counter"))
		return
	}
	s.logger.Info(ctx, "comment rate limit hit",
		log.String("rateLimitType", string(info.RateLimitType)),
		log.String("userId", user.Id),
	)
}
