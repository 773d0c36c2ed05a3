package repository

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/txix-open/isp-kit/grpc/client"
	"forum-gate-service/entity"
)

const (
	commentsSearch = "forum-backend/comments/search"
)

type Comments struct {
	cli *client.Client
}

func NewComments(cli *client.Client) Comments {
	return Comments{
		cli: cli,
	}
}

// the backend orders by postedAt desc, id asc on equal timestamps
func (r Comments) RecentByUser(ctx context.Context, userId string, since time.Time, limit int) ([]entity.Comment, error) {
	return r.search(ctx, entity.CommentSearchRequest{
		UserId:      userId,
		PostedAtGte: since,
		Limit:       limit,
	})
}

func (r Comments) RecentByUserOnPost(ctx context.Context, userId string, postId string, since time.Time, limit int) ([]entity.Comment, error) {
	return r.search(ctx, entity.CommentSearchRequest{
		UserId:      userId,
		PostId:      postId,
		PostedAtGte: since,
		Limit:       limit,
	})
}

func (r Comments) search(ctx context.Context, req entity.CommentSearchRequest) ([]entity.Comment, error) {
	resp := make([]entity.Comment, 0)
	err := r.cli.Invoke(commentsSearch).
		JsonRequestBody(req).
		JsonResponseBody(&resp).
		Do(ctx)
	if err != nil {
		return nil, errors.WithMessagef(err, "grpc client invoke: %s", commentsSearch)
	}
	return resp, nil
}
