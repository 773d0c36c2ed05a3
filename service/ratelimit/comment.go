package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"forum-gate-service/domain"
	"forum-gate-service/entity"
)

const (
	lowKarmaWindow      = 30 * time.Minute
	lowKarmaMaxComments = 4

	postSpecificWindowHours = 24 * 7
	postSpecificMaxComments = 3
)

type Comment struct {
	comments   CommentStore
	posts      PostStore
	moderation ModerationStore
	settings   Settings
	now        func() time.Time
}

func NewComment(comments CommentStore, posts PostStore, moderation ModerationStore, settings Settings) Comment {
	return Comment{
		comments:   comments,
		posts:      posts,
		moderation: moderation,
		settings:   settings.normalized(),
		now:        time.Now,
	}
}

// NextAbleToComment returns the policy verdict for commenting, nil if the user
// may comment now. Unlike the post rules the comment rules are not combined:
// the first applicable rule wins. The universal cooldown is checked even for
// exempt users to protect against double-commenting.
func (s Comment) NextAbleToComment(ctx context.Context, user entity.User, postId string) (*domain.RateLimitInfo, error) {
	exempt, err := s.shouldIgnoreRateLimits(ctx, user, postId)
	if err != nil {
		return nil, errors.WithMessage(err, "check rate limit exemption")
	}

	if !exempt {
		info, err := s.moderatorLimit(ctx, user)
		if err != nil {
			return nil, err
		}
		if info != nil {
			return info, nil
		}

		info, err = s.karmaOrDownvoteRatioLimit(ctx, user)
		if err != nil {
			return nil, err
		}
		if info != nil {
			return info, nil
		}
	}

	return s.universalCooldown(ctx, user)
}

// PostSpecificLimit enforces the moderator-assigned cap of three comments per
// post per week, independently of NextAbleToComment.
func (s Comment) PostSpecificLimit(ctx context.Context, user entity.User, postId string) (*domain.RateLimitInfo, error) {
	if postId == "" {
		return nil, nil
	}
	exempt, err := s.shouldIgnoreRateLimits(ctx, user, postId)
	if err != nil {
		return nil, errors.WithMessage(err, "check rate limit exemption")
	}
	if exempt {
		return nil, nil
	}

	active, err := s.moderation.HasActiveAction(ctx, user.Id, entity.RateLimitThreeCommentsPerPostPerWeek)
	if err != nil {
		return nil, errors.WithMessage(err, "moderation has active action")
	}
	if !active {
		return nil, nil
	}

	window := postSpecificWindowHours * time.Hour
	comments, err := s.comments.RecentByUserOnPost(ctx, user.Id, postId, s.now().Add(-window), postSpecificMaxComments)
	if err != nil {
		return nil, errors.WithMessage(err, "comments recent by user on post")
	}
	if len(comments) < postSpecificMaxComments {
		return nil, nil
	}
	return &domain.RateLimitInfo{
		NextEligible:     comments[postSpecificMaxComments-1].PostedAt.Add(window),
		RateLimitType:    domain.RateLimitTypeModerator,
		RateLimitMessage: "A moderator has rate limited your ability to comment more than three times per post per week.",
	}, nil
}

// Admins and moderators are always exempt. For a specific post all users are
// exempt when the post opted out of rate limits, and on forum variants with
// ExemptPostAuthors the author is exempt on their own posts.
func (s Comment) shouldIgnoreRateLimits(ctx context.Context, user entity.User, postId string) (bool, error) {
	if user.IsAdmin() || user.IsMemberOf(entity.ModeratorsGroup) {
		return true, nil
	}
	if postId == "" {
		return false, nil
	}
	post, err := s.posts.ById(ctx, postId)
	if err != nil {
		return false, errors.WithMessage(err, "posts by id")
	}
	if post == nil {
		return false, nil
	}
	if post.IgnoreRateLimits {
		return true, nil
	}
	if s.settings.ExemptPostAuthors && post.IsAuthor(user.Id) {
		return true, nil
	}
	return false, nil
}

// moderatorLimit applies a moderator-assigned limit. A comment on somebody
// else's post inside the timeframe locks commenting for the whole timeframe,
// any other comment only delays until the timeframe since it elapses.
func (s Comment) moderatorLimit(ctx context.Context, user entity.User) (*domain.RateLimitInfo, error) {
	action, err := s.moderation.ActiveRateLimit(ctx, user.Id)
	if err != nil {
		return nil, errors.WithMessage(err, "moderation active rate limit")
	}
	if action == nil || action.TimeframeHours() <= 0 {
		return nil, nil
	}

	window := time.Duration(action.TimeframeHours()) * time.Hour
	comments, err := s.comments.RecentByUser(ctx, user.Id, s.now().Add(-window), 0)
	if err != nil {
		return nil, errors.WithMessage(err, "comments recent by user")
	}
	if len(comments) == 0 {
		return nil, nil
	}

	onOthersPosts, err := s.hasCommentsOnOthersPosts(ctx, user, comments)
	if err != nil {
		return nil, err
	}
	if onOthersPosts {
		return nil, domain.ModeratorCommentLockError{ActionDescription: action.Description()}
	}

	return &domain.RateLimitInfo{
		NextEligible:     comments[0].PostedAt.Add(window),
		RateLimitType:    domain.RateLimitTypeModerator,
		RateLimitMessage: "A moderator has rate limited you.",
	}, nil
}

func (s Comment) hasCommentsOnOthersPosts(ctx context.Context, user entity.User, comments []entity.Comment) (bool, error) {
	postIds := make([]string, 0, len(comments))
	seen := map[string]bool{}
	for _, comment := range comments {
		if comment.PostId == "" || seen[comment.PostId] {
			continue
		}
		seen[comment.PostId] = true
		postIds = append(postIds, comment.PostId)
	}
	if len(postIds) == 0 {
		return false, nil
	}

	othersPosts, err := s.posts.NotAuthoredBy(ctx, postIds, user.Id)
	if err != nil {
		return false, errors.WithMessage(err, "posts not authored by")
	}
	return len(othersPosts) > 0, nil
}

func (s Comment) karmaOrDownvoteRatioLimit(ctx context.Context, user entity.User) (*domain.RateLimitInfo, error) {
	lowKarma := s.settings.CommentKarmaThreshold != nil && user.Karma < *s.settings.CommentKarmaThreshold
	highDownvoteRatio := s.downvoteRatioExceeded(user)
	if !lowKarma && !highDownvoteRatio {
		return nil, nil
	}

	comments, err := s.comments.RecentByUser(ctx, user.Id, s.now().Add(-lowKarmaWindow), lowKarmaMaxComments)
	if err != nil {
		return nil, errors.WithMessage(err, "comments recent by user")
	}
	if len(comments) < lowKarmaMaxComments {
		return nil, nil
	}

	info := &domain.RateLimitInfo{
		NextEligible:  comments[lowKarmaMaxComments-1].PostedAt.Add(lowKarmaWindow),
		RateLimitType: domain.RateLimitTypeDownvoteRatio,
	}
	if lowKarma {
		info.RateLimitType = domain.RateLimitTypeLowKarma
		info.RateLimitMessage = "You'll be able to post more comments as your karma increases."
	}
	return info, nil
}

// downvoteRatioExceeded compares the share of received downvotes against the
// configured threshold. The per-category counters are denormalized and known
// to drift, so the ratio only counts when they sum within 5% of the total,
// otherwise the rule is skipped for that user.
func (s Comment) downvoteRatioExceeded(user entity.User) bool {
	if s.settings.CommentDownvoteRatio == nil {
		return false
	}
	sumOfVoteCounts := user.SmallUpvoteReceivedCount + user.BigUpvoteReceivedCount +
		user.SmallDownvoteReceivedCount + user.BigDownvoteReceivedCount
	diff := sumOfVoteCounts - user.VoteReceivedCount
	if diff < 0 {
		diff = -diff
	}
	countsAreValid := user.VoteReceivedCount > 0 &&
		float64(diff)/float64(user.VoteReceivedCount) <= 0.05
	if !countsAreValid {
		return false
	}

	downvotes := user.SmallDownvoteReceivedCount + user.BigDownvoteReceivedCount
	ratio := float64(downvotes) / float64(user.VoteReceivedCount)
	return ratio > *s.settings.CommentDownvoteRatio
}

func (s Comment) universalCooldown(ctx context.Context, user entity.User) (*domain.RateLimitInfo, error) {
	interval := time.Duration(s.settings.CommentIntervalSeconds) * time.Second
	comments, err := s.comments.RecentByUser(ctx, user.Id, s.now().Add(-interval), 1)
	if err != nil {
		return nil, errors.WithMessage(err, "comments recent by user")
	}
	if len(comments) == 0 {
		return nil, nil
	}
	return &domain.RateLimitInfo{
		NextEligible:     comments[0].PostedAt.Add(interval),
		RateLimitType:    domain.RateLimitTypeUniversal,
		RateLimitMessage: fmt.Sprintf("All users need to wait %d seconds between comments to prevent double-commenting", s.settings.CommentIntervalSeconds),
	}, nil
}
