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
	postsCreateEndpoint = "/posts/create"
	postsUpdateEndpoint = "/posts/update"
)

type PostLimiter interface {
	NextAbleToPost(ctx context.Context, user entity.User) (*domain.RateLimitInfo, error)
}

type PostGetter interface {
	ById(ctx context.Context, postId string) (*entity.Post, error)
}

type postPayload struct {
	Id    string `json:"_id"`
	Draft bool   `json:"draft"`
}

func PostRateLimit(limiter PostLimiter, posts PostGetter) Middleware {
	return func(next Handler) Handler {
		return HandlerFunc(func(ctx *request.Context) error {
			switch ctx.Endpoint() {
			case postsCreateEndpoint, postsUpdateEndpoint:
			default:
				return next.Handle(ctx)
			}

			user, err := ctx.User()
			if err != nil {
				return errors.WithMessage(err, "post rate limit: get user")
			}

			doc := postPayload{}
			err = peekBody(ctx, &doc)
			if err != nil {
				return errors.WithMessage(err, "post rate limit")
			}

			enforce := false
			switch ctx.Endpoint() {
			case postsCreateEndpoint:
				enforce = !doc.Draft
			case postsUpdateEndpoint:
				// only undrafting is rate limited, not other edits
				if doc.Id != "" && !doc.Draft {
					stored, err := posts.ById(ctx.Context(), doc.Id)
					if err != nil {
						return errors.WithMessage(err, "post rate limit: get stored post")
					}
					enforce = stored != nil && stored.Draft
				}
			}
			if !enforce {
				return next.Handle(ctx)
			}

			info, err := limiter.NextAbleToPost(ctx.Context(), user)
			if err != nil {
				return errors.WithMessage(err, "post rate limit: evaluate")
			}
			if info != nil && info.NextEligible.After(time.Now()) {
				return rateLimitError(
					fmt.Sprintf("Rate limit: You cannot post until %s", info.NextEligible.Format(time.RFC3339)),
					*info,
					errors.Errorf("post rate limit: user '%s' is limited by rule '%s'", user.Id, info.RateLimitType),
				)
			}

			return next.Handle(ctx)
		})
	}
}

func rateLimitError(userMessage string, info domain.RateLimitInfo, internalError error) httperrors.HttpError {
	return httperrors.
		New(http.StatusTooManyRequests, userMessage, internalError).
		WithDetails(map[string]interface{}{
			"nextEligible":     info.NextEligible,
			"rateLimitType":    info.RateLimitType,
			"rateLimitMessage": info.RateLimitMessage,
		})
}
