package repository

import (
	"context"

	"github.com/pkg/errors"
	"github.com/txix-open/isp-kit/grpc/client"
	"forum-gate-service/domain"
	"forum-gate-service/entity"
)

const (
	usersByToken = "forum-backend/users/by_token"
	usersById    = "forum-backend/users/by_id"
)

type Users struct {
	cli *client.Client
}

func NewUsers(cli *client.Client) Users {
	return Users{
		cli: cli,
	}
}

func (r Users) Authenticate(ctx context.Context, token string) (*domain.AuthenticateResponse, error) {
	resp := entity.UserByTokenResponse{}
	err := r.cli.Invoke(usersByToken).
		JsonRequestBody(entity.UserByTokenRequest{Token: token}).
		JsonResponseBody(&resp).
		Do(ctx)
	if err != nil {
		return nil, errors.WithMessagef(err, "grpc client invoke: %s", usersByToken)
	}
	return &domain.AuthenticateResponse{
		Authenticated: resp.Authenticated,
		ErrorReason:   resp.ErrorReason,
		User:          resp.User,
	}, nil
}

func (r Users) ById(ctx context.Context, userId string) (*entity.User, error) {
	resp := entity.User{}
	err := r.cli.Invoke(usersById).
		JsonRequestBody(entity.UserByIdRequest{UserId: userId}).
		JsonResponseBody(&resp).
		Do(ctx)
	if err != nil {
		return nil, errors.WithMessagef(err, "grpc client invoke: %s", usersById)
	}
	return &resp, nil
}
