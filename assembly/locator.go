package assembly

import (
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"forum-gate-service/conf"
	"forum-gate-service/middleware"
	"forum-gate-service/proxy"
	"forum-gate-service/repository"
	"forum-gate-service/service"
	"forum-gate-service/service/ratelimit"

	"github.com/pkg/errors"
	"github.com/txix-open/isp-kit/grpc/client"
	"github.com/txix-open/isp-kit/lb"
	"github.com/txix-open/isp-kit/log"
)

type Locator struct {
	logger                      log.Logger
	grpcClientByModuleName      map[string]*client.Client
	httpHostManagerByModuleName map[string]*lb.RoundRobin
	forumCli                    *client.Client
}

func NewLocator(
	logger log.Logger,
	grpcClientByModuleName map[string]*client.Client,
	httpHostManagerByModuleName map[string]*lb.RoundRobin,
	forumCli *client.Client,
) Locator {
	return Locator{
		logger:                      logger,
		grpcClientByModuleName:      grpcClientByModuleName,
		httpHostManagerByModuleName: httpHostManagerByModuleName,
		forumCli:                    forumCli,
	}
}

func (l Locator) Handler(config conf.Remote, locations []conf.Location, redisCli redis.UniversalClient) (http.Handler, error) {
	usersRepo := repository.NewUsers(l.forumCli)
	postsRepo := repository.NewPosts(l.forumCli)
	commentsRepo := repository.NewComments(l.forumCli)
	moderationRepo := repository.NewModeration(l.forumCli)

	userCache := repository.NewUserCache(time.Duration(config.Caching.AuthenticationDataInSec) * time.Second)
	authentication := service.NewAuthentication(userCache, usersRepo)

	settings := rateLimitSettings(config.RateLimits)
	postLimiter := ratelimit.NewPost(postsRepo, moderationRepo, settings)
	commentLimiter := ratelimit.NewComment(commentsRepo, postsRepo, moderationRepo, settings)

	var limitEventsRepo service.LimitEventsRepo
	if config.RateLimits.RecordLimitHits && redisCli != nil {
		limitEventsRepo = repository.NewLimitEvents(redisCli)
	}
	hitRecorder := service.NewHitRecorder(commentLimiter, limitEventsRepo, l.logger)

	mux := http.NewServeMux()
	for _, location := range locations {
		var proxyFunc middleware.Handler
		switch location.Protocol {
		case conf.GrpcProtocol:
			cli := l.grpcClientByModuleName[location.TargetModule]
			proxyFunc = proxy.NewGrpc(cli, location.SkipAuth, time.Duration(config.Http.ProxyTimeoutInSec)*time.Second)
		case conf.HttpProtocol:
			hostManager := l.httpHostManagerByModuleName[location.TargetModule]
			proxyFunc = proxy.NewHttp(hostManager, location.SkipAuth, time.Duration(config.Http.ProxyTimeoutInSec)*time.Second)
		case conf.WsProtocol:
			hostManager := l.httpHostManagerByModuleName[location.TargetModule]
			proxyFunc = proxy.NewWs(hostManager, location.SkipAuth)
		default:
			return nil, errors.Errorf("not supported protocol %s", location.Protocol)
		}

		middlewares := []middleware.Middleware{
			middleware.RequestId(),
			middleware.Logger(l.logger, config.Logging.RequestLogEnable, config.Logging.BodyLogEnable && location.Protocol != conf.WsProtocol),
			middleware.ErrorHandler(l.logger),
		}
		if !location.SkipAuth {
			middlewares = append(middlewares,
				middleware.Authenticate(authentication),
				// both limiters pick out their write endpoints themselves
				middleware.PostRateLimit(postLimiter, postsRepo),
				middleware.CommentRateLimit(commentLimiter, hitRecorder),
			)
		}
		handler := middleware.Chain(proxyFunc, middlewares...)

		entrypoint := middleware.Entrypoint(
			config.Http.MaxRequestBodySizeInMb*1024*1024, //nolint:mnd
			handler,
			location.PathPrefix,
			l.logger,
		)
		mux.Handle(fmt.Sprintf("%s/", location.PathPrefix), entrypoint)
	}

	return mux, nil
}

// malformed threshold values fail closed inside ratelimit.Settings
func rateLimitSettings(config conf.RateLimits) ratelimit.Settings {
	settings := ratelimit.DefaultSettings()
	if config.PostIntervalInSec > 0 {
		settings.PostIntervalSeconds = config.PostIntervalInSec
	}
	if config.MaxPostsPer24Hours > 0 {
		settings.MaxPostsPer24Hours = config.MaxPostsPer24Hours
	}
	if config.CommentIntervalInSec > 0 {
		settings.CommentIntervalSeconds = config.CommentIntervalInSec
	}
	settings.CommentKarmaThreshold = config.CommentKarmaThreshold
	settings.CommentDownvoteRatio = config.CommentDownvoteRatio
	settings.ExemptPostAuthors = config.ExemptPostAuthors
	return settings
}
