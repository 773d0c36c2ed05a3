package repository

import (
	"context"

	"github.com/pkg/errors"
	"github.com/txix-open/isp-kit/grpc/client"
	"forum-gate-service/entity"
)

const (
	moderationActiveRateLimit = "forum-backend/moderation/active_rate_limit"
	moderationHasActiveAction = "forum-backend/moderation/has_active_action"
)

type Moderation struct {
	cli *client.Client
}

func NewModeration(cli *client.Client) Moderation {
	return Moderation{
		cli: cli,
	}
}

func (r Moderation) ActiveRateLimit(ctx context.Context, userId string) (*entity.ModeratorAction, error) {
	resp := entity.ActiveRateLimitResponse{}
	err := r.cli.Invoke(moderationActiveRateLimit).
		JsonRequestBody(entity.ActiveRateLimitRequest{UserId: userId}).
		JsonResponseBody(&resp).
		Do(ctx)
	if err != nil {
		return nil, errors.WithMessagef(err, "grpc client invoke: %s", moderationActiveRateLimit)
	}
	return resp.Action, nil
}

func (r Moderation) HasActiveAction(ctx context.Context, userId string, actionType string) (bool, error) {
	resp := entity.HasActiveActionResponse{}
	err := r.cli.Invoke(moderationHasActiveAction).
		JsonRequestBody(entity.HasActiveActionRequest{UserId: userId, Type: actionType}).
		JsonResponseBody(&resp).
		Do(ctx)
	if err != nil {
		return false, errors.WithMessagef(err, "grpc client invoke: %s", moderationHasActiveAction)
	}
	return resp.Active, nil
}
