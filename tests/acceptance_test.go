// nolint:canonicalheader
package tests

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"forum-gate-service/assembly"
	"forum-gate-service/conf"
	"forum-gate-service/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"github.com/txix-open/isp-kit/grpc/client"
	"github.com/txix-open/isp-kit/http/httpcli"
	"github.com/txix-open/isp-kit/lb"
	"github.com/txix-open/isp-kit/log"
	"github.com/txix-open/isp-kit/test"
	"github.com/txix-open/isp-kit/test/grpct"
	"github.com/txix-open/isp-kit/test/httpt"
)

const sessionToken = "session-token"

type commentDoc struct {
	Id     string `json:"_id"`
	PostId string `json:"postId"`
	Body   string `json:"body"`
}

type postDoc struct {
	Id    string `json:"_id"`
	Title string `json:"title"`
	Draft bool   `json:"draft"`
}

// forumBackendState is what the mocked forum backend serves to the gate
type forumBackendState struct {
	user     entity.User
	posts    []entity.Post
	comments []entity.Comment
	action   *entity.ModeratorAction
}

type GateTestSuite struct {
	suite.Suite
}

func (s *GateTestSuite) TestCommentAccepted() {
	test, require := test.New(s.T())
	state := &forumBackendState{user: entity.User{Id: "user-1"}}
	srv, target := s.startGate(test, state)

	req := commentDoc{Id: uuid.New().String(), PostId: "post-1", Body: "hello"}
	resp := commentDoc{}
	_, err := httpcli.New().Post(srv.URL+"/forum/comments/create").
		Header("x-session-token", sessionToken).
		JsonRequestBody(req).
		JsonResponseBody(&resp).
		StatusCodeToError().
		Do(context.Background())
	require.NoError(err)
	require.EqualValues(req, resp)
	require.EqualValues(1, target.calls)
}

func (s *GateTestSuite) TestCommentCooldownRejected() {
	test, require := test.New(s.T())
	state := &forumBackendState{
		user: entity.User{Id: "user-1"},
		comments: []entity.Comment{{
			Id:       "c1",
			UserId:   "user-1",
			PostId:   "post-1",
			PostedAt: time.Now().Add(-3 * time.Second),
		}},
	}
	srv, target := s.startGate(test, state)

	req := commentDoc{Id: uuid.New().String(), PostId: "post-1", Body: "hello again"}
	_, err := httpcli.New().Post(srv.URL+"/forum/comments/create").
		Header("x-session-token", sessionToken).
		JsonRequestBody(req).
		StatusCodeToError().
		Do(context.Background())
	errResp := httpcli.ErrorResponse{}
	require.ErrorAs(err, &errResp)
	require.EqualValues(http.StatusTooManyRequests, errResp.StatusCode)
	require.EqualValues(0, target.calls)
}

func (s *GateTestSuite) TestCommentModeratorLockRejected() {
	test, require := test.New(s.T())
	state := &forumBackendState{
		user: entity.User{Id: "user-1"},
		posts: []entity.Post{{
			Id:       "post-1",
			UserId:   "somebody-else",
			PostedAt: time.Now().Add(-48 * time.Hour),
		}},
		comments: []entity.Comment{{
			Id:       "c1",
			UserId:   "user-1",
			PostId:   "post-1",
			PostedAt: time.Now().Add(-2 * time.Hour),
		}},
		action: &entity.ModeratorAction{Type: entity.RateLimitOnePerDay, UserId: "user-1"},
	}
	srv, target := s.startGate(test, state)

	req := commentDoc{Id: uuid.New().String(), PostId: "post-1", Body: "hello"}
	_, err := httpcli.New().Post(srv.URL+"/forum/comments/create").
		Header("x-session-token", sessionToken).
		JsonRequestBody(req).
		StatusCodeToError().
		Do(context.Background())
	errResp := httpcli.ErrorResponse{}
	require.ErrorAs(err, &errResp)
	require.EqualValues(http.StatusTooManyRequests, errResp.StatusCode)
	require.EqualValues(0, target.calls)
}

func (s *GateTestSuite) TestPostDailyCapRejected() {
	test, require := test.New(s.T())
	now := time.Now()
	posts := make([]entity.Post, 0)
	for i := 1; i <= 6; i++ {
		posts = append(posts, entity.Post{
			Id:       uuid.New().String(),
			UserId:   "user-1",
			PostedAt: now.Add(-time.Duration(i) * time.Hour),
		})
	}
	state := &forumBackendState{user: entity.User{Id: "user-1"}, posts: posts}
	srv, target := s.startGate(test, state)

	req := postDoc{Id: uuid.New().String(), Title: "one post too many"}
	_, err := httpcli.New().Post(srv.URL+"/forum/posts/create").
		Header("x-session-token", sessionToken).
		JsonRequestBody(req).
		StatusCodeToError().
		Do(context.Background())
	errResp := httpcli.ErrorResponse{}
	require.ErrorAs(err, &errResp)
	require.EqualValues(http.StatusTooManyRequests, errResp.StatusCode)
	require.EqualValues(0, target.calls)
}

func (s *GateTestSuite) TestDraftPostAccepted() {
	test, require := test.New(s.T())
	now := time.Now()
	posts := make([]entity.Post, 0)
	for i := 1; i <= 6; i++ {
		posts = append(posts, entity.Post{
			Id:       uuid.New().String(),
			UserId:   "user-1",
			PostedAt: now.Add(-time.Duration(i) * time.Hour),
		})
	}
	state := &forumBackendState{user: entity.User{Id: "user-1"}, posts: posts}
	srv, target := s.startGate(test, state)

	req := postDoc{Id: uuid.New().String(), Title: "work in progress", Draft: true}
	resp := postDoc{}
	_, err := httpcli.New().Post(srv.URL+"/forum/posts/create").
		Header("x-session-token", sessionToken).
		JsonRequestBody(req).
		JsonResponseBody(&resp).
		StatusCodeToError().
		Do(context.Background())
	require.NoError(err)
	require.EqualValues(req, resp)
	require.EqualValues(1, target.calls)
}

func (s *GateTestSuite) TestUndraftingRejected() {
	test, require := test.New(s.T())
	now := time.Now()
	draft := entity.Post{
		Id:       "draft-1",
		UserId:   "user-1",
		PostedAt: now.Add(-30 * time.Hour),
		Draft:    true,
	}
	state := &forumBackendState{
		user: entity.User{Id: "user-1"},
		posts: []entity.Post{
			draft,
			{Id: "p1", UserId: "user-1", PostedAt: now.Add(-10 * time.Second)},
		},
	}
	srv, target := s.startGate(test, state)

	req := postDoc{Id: "draft-1", Title: "finally done"}
	_, err := httpcli.New().Post(srv.URL+"/forum/posts/update").
		Header("x-session-token", sessionToken).
		JsonRequestBody(req).
		StatusCodeToError().
		Do(context.Background())
	errResp := httpcli.ErrorResponse{}
	require.ErrorAs(err, &errResp)
	require.EqualValues(http.StatusTooManyRequests, errResp.StatusCode)
	require.EqualValues(0, target.calls)
}

func (s *GateTestSuite) TestInvalidJsonBodyRejected() {
	test, require := test.New(s.T())
	state := &forumBackendState{user: entity.User{Id: "user-1"}}
	srv, target := s.startGate(test, state)

	for _, endpoint := range []string{"/forum/comments/create", "/forum/posts/create", "/forum/posts/update"} {
		httpReq, err := http.NewRequest(http.MethodPost, srv.URL+endpoint, strings.NewReader("{not json"))
		require.NoError(err)
		httpReq.Header.Set("x-session-token", sessionToken)
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := http.DefaultClient.Do(httpReq)
		require.NoError(err)
		require.NoError(resp.Body.Close())
		require.EqualValues(http.StatusBadRequest, resp.StatusCode)
	}
	require.EqualValues(0, target.calls)
}

func (s *GateTestSuite) TestMissingSessionTokenRejected() {
	test, require := test.New(s.T())
	state := &forumBackendState{user: entity.User{Id: "user-1"}}
	srv, target := s.startGate(test, state)

	req := commentDoc{Id: uuid.New().String(), PostId: "post-1", Body: "hello"}
	_, err := httpcli.New().Post(srv.URL+"/forum/comments/create").
		JsonRequestBody(req).
		StatusCodeToError().
		Do(context.Background())
	errResp := httpcli.ErrorResponse{}
	require.ErrorAs(err, &errResp)
	require.EqualValues(http.StatusUnauthorized, errResp.StatusCode)
	require.EqualValues(0, target.calls)
}

type targetBackend struct {
	calls int
}

func (s *GateTestSuite) startGate(test *test.Test, state *forumBackendState) (*httptest.Server, *targetBackend) {
	require := test.Assert()

	target := &targetBackend{}
	targetService := httpt.NewMock(test)
	targetService.POST("/comments/create", func(req commentDoc) commentDoc {
		target.calls++
		return req
	})
	targetService.POST("/posts/create", func(req postDoc) postDoc {
		target.calls++
		return req
	})
	targetService.POST("/posts/update", func(req postDoc) postDoc {
		target.calls++
		return req
	})
	targetUrl, err := url.Parse(targetService.BaseURL())
	require.NoError(err)
	rr := lb.NewRoundRobin([]string{targetUrl.Host})

	forumCli := s.forumBackendMock(test, state)
	locator := assembly.NewLocator(test.Logger(), nil, map[string]*lb.RoundRobin{"forum": rr}, forumCli)

	config := conf.Remote{
		Http:    conf.Http{MaxRequestBodySizeInMb: 1, ProxyTimeoutInSec: 15},
		Logging: conf.Logging{LogLevel: log.DebugLevel, RequestLogEnable: true, BodyLogEnable: true},
		Caching: conf.Caching{AuthenticationDataInSec: 1},
	}
	locations := []conf.Location{{
		SkipAuth:     false,
		PathPrefix:   "/forum",
		Protocol:     "http",
		TargetModule: "forum",
	}}
	handler, err := locator.Handler(config, locations, nil)
	require.NoError(err)

	srv := httptest.NewServer(handler)
	s.T().Cleanup(srv.Close)
	return srv, target
}

func (s *GateTestSuite) forumBackendMock(test *test.Test, state *forumBackendState) *client.Client {
	service, cli := grpct.NewMock(test)
	service.Mock("forum-backend/users/by_token", func(req entity.UserByTokenRequest) entity.UserByTokenResponse {
		if req.Token != sessionToken {
			return entity.UserByTokenResponse{ErrorReason: "unknown token"}
		}
		user := state.user
		return entity.UserByTokenResponse{Authenticated: true, User: &user}
	}).Mock("forum-backend/users/by_id", func(req entity.UserByIdRequest) entity.User {
		return state.user
	}).Mock("forum-backend/posts/search", func(req entity.PostSearchRequest) []entity.Post {
		result := make([]entity.Post, 0)
		for _, post := range state.posts {
			if post.UserId != req.UserId || post.PostedAt.Before(req.PostedAtGte) {
				continue
			}
			if req.Draft != nil && post.Draft != *req.Draft {
				continue
			}
			result = append(result, post)
		}
		return result
	}).Mock("forum-backend/posts/by_id", func(req entity.PostByIdRequest) entity.Post {
		for _, post := range state.posts {
			if post.Id == req.PostId {
				return post
			}
		}
		return entity.Post{}
	}).Mock("forum-backend/posts/not_authored_by", func(req entity.PostsNotAuthoredByRequest) []entity.Post {
		result := make([]entity.Post, 0)
		for _, id := range req.PostIds {
			for _, post := range state.posts {
				if post.Id == id && !post.IsAuthor(req.UserId) {
					result = append(result, post)
				}
			}
		}
		return result
	}).Mock("forum-backend/comments/search", func(req entity.CommentSearchRequest) []entity.Comment {
		result := make([]entity.Comment, 0)
		for _, comment := range state.comments {
			if comment.UserId != req.UserId || comment.PostedAt.Before(req.PostedAtGte) {
				continue
			}
			if req.PostId != "" && comment.PostId != req.PostId {
				continue
			}
			result = append(result, comment)
		}
		if req.Limit > 0 && len(result) > req.Limit {
			result = result[:req.Limit]
		}
		return result
	}).Mock("forum-backend/moderation/active_rate_limit", func(req entity.ActiveRateLimitRequest) entity.ActiveRateLimitResponse {
		return entity.ActiveRateLimitResponse{Action: state.action}
	}).Mock("forum-backend/moderation/has_active_action", func(req entity.HasActiveActionRequest) entity.HasActiveActionResponse {
		return entity.HasActiveActionResponse{Active: false}
	})
	return cli
}

func TestGateTestSuite(t *testing.T) {
	t.Parallel()
	suite.Run(t, new(GateTestSuite))
}
