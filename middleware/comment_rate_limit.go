package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"forum-gate-service/domain"
	"forum-gate-service/entity"
	"forum-gate-service/httperrors"
	"forum-gate-service/request"
)

const (
	commentsCreateEndpoint = "/comments/create"
)

type CommentLimiter interface {
	NextAbleToComment(ctx context.Context, user entity.User, postId string) (*domain.RateLimitInfo, error)
	PostSpecificLimit(ctx context.Context, user entity.User, postId string) (*domain.RateLimitInfo, error)
}

type LimitHitRecorder interface {
	Record(ctx context.Context, user entity.User)
}

type commentPayload struct {
	PostId string `json:"postId"`
}

func CommentRateLimit(limiter CommentLimiter, recorder LimitHitRecorder) Middleware {
	return func(next Handler) Handler {
		return HandlerFunc(func(ctx *request.Context) error {
			if ctx.Endpoint() != commentsCreateEndpoint {
				return next.Handle(ctx)
			}

			user, err := ctx.User()
			if err != nil {
				return errors.WithMessage(err, "comment rate limit: get user")
			}

			doc := commentPayload{}
			err = peekBody(ctx, &doc)
			if err != nil {
				return errors.WithMessage(err, "comment rate limit")
			}

			info, err := limiter.NextAbleToComment(ctx.Context(), user, doc.PostId)
			lockErr := domain.ModeratorCommentLockError{}
			if errors.As(err, &lockErr) {
				return httperrors.New(
					http.StatusTooManyRequests,
					lockErr.ActionDescription,
					errors.Errorf("comment rate limit: moderator lock for user '%s'", user.Id),
				)
			}
			if err != nil {
				return errors.WithMessage(err, "comment rate limit: evaluate")
			}
			if info != nil && info.NextEligible.After(time.Now()) {
				return rateLimitError(
					fmt.Sprintf("Rate limit: You cannot comment until %s", info.NextEligible.Format(time.RFC3339)),
					*info,
					errors.Errorf("comment rate limit: user '%s' is limited by rule '%s'", user.Id, info.RateLimitType),
				)
			}

			if doc.PostId != "" {
				info, err = limiter.PostSpecificLimit(ctx.Context(), user, doc.PostId)
				if err != nil {
					return errors.WithMessage(err, "comment rate limit: evaluate post specific")
				}
				if info != nil && info.NextEligible.After(time.Now()) {
					return rateLimitError(
						fmt.Sprintf("Rate limit: You cannot comment on this post until %s", info.NextEligible.Format(time.RFC3339)),
						*info,
						errors.Errorf("comment rate limit: user '%s' is limited by rule '%s'", user.Id, info.RateLimitType),
					)
				}
			}

			err = next.Handle(ctx)
			if err == nil {
				// the response must not wait for hit accounting
				go recorder.Record(context.WithoutCancel(ctx.Context()), user)
			}
			return err
		})
	}
}
