package repository

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/txix-open/isp-kit/grpc/client"
	"forum-gate-service/entity"
)

const (
	postsSearch        = "forum-backend/posts/search"
	postsById          = "forum-backend/posts/by_id"
	postsNotAuthoredBy = "forum-backend/posts/not_authored_by"
)

type Posts struct {
	cli *client.Client
}

func NewPosts(cli *client.Client) Posts {
	return Posts{
		cli: cli,
	}
}

func (r Posts) RecentByUser(ctx context.Context, userId string, since time.Time) ([]entity.Post, error) {
	draft := false
	resp := make([]entity.Post, 0)
	err := r.cli.Invoke(postsSearch).
		JsonRequestBody(entity.PostSearchRequest{
			UserId:      userId,
			PostedAtGte: since,
			Draft:       &draft,
		}).
		JsonResponseBody(&resp).
		Do(ctx)
	if err != nil {
		return nil, errors.WithMessagef(err, "grpc client invoke: %s", postsSearch)
	}
	return resp, nil
}

func (r Posts) ById(ctx context.Context, postId string) (*entity.Post, error) {
	resp := entity.Post{}
	err := r.cli.Invoke(postsById).
		JsonRequestBody(entity.PostByIdRequest{PostId: postId}).
		JsonResponseBody(&resp).
		Do(ctx)
	if err != nil {
		return nil, errors.WithMessagef(err, "grpc client invoke: %s", postsById)
	}
	if resp.Id == "" {
		return nil, nil
	}
	return &resp, nil
}

func (r Posts) NotAuthoredBy(ctx context.Context, postIds []string, userId string) ([]entity.Post, error) {
	resp := make([]entity.Post, 0)
	err := r.cli.Invoke(postsNotAuthoredBy).
		JsonRequestBody(entity.PostsNotAuthoredByRequest{
			PostIds: postIds,
			UserId:  userId,
		}).
		JsonResponseBody(&resp).
		Do(ctx)
	if err != nil {
		return nil, errors.WithMessagef(err, "grpc client invoke: %s", postsNotAuthoredBy)
	}
	return resp, nil
}
