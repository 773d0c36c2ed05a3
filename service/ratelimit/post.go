package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"forum-gate-service/domain"
	"forum-gate-service/entity"
)

type Post struct {
	posts      PostStore
	moderation ModerationStore
	settings   Settings
	now        func() time.Time
}

func NewPost(posts PostStore, moderation ModerationStore, settings Settings) Post {
	return Post{
		posts:      posts,
		moderation: moderation,
		settings:   settings.normalized(),
		now:        time.Now,
	}
}

// NextAbleToPost returns the policy verdict for creating or undrafting a post,
// nil if the user may post now. A user must satisfy all applicable rules
// simultaneously, so the rules are combined by the latest next eligible date.
func (s Post) NextAbleToPost(ctx context.Context, user entity.User) (*domain.RateLimitInfo, error) {
	if user.IsAdmin() || user.IsMemberOf(entity.ModeratorsGroup) || user.IsMemberOf(entity.BypassPostRateLimit) {
		return nil, nil
	}

	action, err := s.moderation.ActiveRateLimit(ctx, user.Id)
	if err != nil {
		return nil, errors.WithMessage(err, "moderation active rate limit")
	}
	moderatorHours := 0
	lookbackHours := standardLookbackHours
	if action != nil && action.TimeframeHours() > 0 {
		moderatorHours = action.TimeframeHours()
		lookbackHours = moderatorHours
	}

	now := s.now()
	posts, err := s.posts.RecentByUser(ctx, user.Id, now.Add(-time.Duration(lookbackHours)*time.Hour))
	if err != nil {
		return nil, errors.WithMessage(err, "posts recent by user")
	}

	candidates := make([]*domain.RateLimitInfo, 0, 3)
	if moderatorHours > 0 {
		if next := nextAfterOldestInWindow(posts, time.Duration(moderatorHours)*time.Hour, now); next != nil {
			candidates = append(candidates, &domain.RateLimitInfo{
				NextEligible:     *next,
				RateLimitType:    domain.RateLimitTypeModerator,
				RateLimitMessage: "A moderator has rate limited you.",
			})
		}
	}
	if next := s.nextAfterDailyCap(posts, now); next != nil {
		candidates = append(candidates, &domain.RateLimitInfo{
			NextEligible:     *next,
			RateLimitType:    domain.RateLimitTypeUniversal,
			RateLimitMessage: fmt.Sprintf("Users cannot submit more than %d posts per day.", s.settings.MaxPostsPer24Hours),
		})
	}
	if next := nextAfterLatestInWindow(posts, time.Duration(s.settings.PostIntervalSeconds)*time.Second, now); next != nil {
		candidates = append(candidates, &domain.RateLimitInfo{
			NextEligible:     *next,
			RateLimitType:    domain.RateLimitTypeUniversal,
			RateLimitMessage: fmt.Sprintf("Users cannot submit more than 1 post per %d seconds.", s.settings.PostIntervalSeconds),
		})
	}

	return mostRestrictive(candidates), nil
}

// nextAfterOldestInWindow finds the oldest post still inside the trailing
// window and shifts it forward by the whole window
func nextAfterOldestInWindow(posts []entity.Post, window time.Duration, now time.Time) *time.Time {
	boundary := now.Add(-window)
	var oldest *entity.Post
	for i := range posts {
		if posts[i].PostedAt.After(boundary) {
			oldest = &posts[i]
		}
	}
	if oldest == nil {
		return nil
	}
	next := oldest.PostedAt.Add(window)
	return &next
}

func nextAfterLatestInWindow(posts []entity.Post, window time.Duration, now time.Time) *time.Time {
	if len(posts) == 0 || !posts[0].PostedAt.After(now.Add(-window)) {
		return nil
	}
	next := posts[0].PostedAt.Add(window)
	return &next
}

// nextAfterDailyCap allows exactly MaxPostsPer24Hours posts in the trailing
// 24 hours; one more blocks the user until the cap-th most recent post
// leaves the window
func (s Post) nextAfterDailyCap(posts []entity.Post, now time.Time) *time.Time {
	boundary := now.Add(-standardLookbackHours * time.Hour)
	inWindow := 0
	for i := range posts {
		if posts[i].PostedAt.After(boundary) {
			inWindow++
		}
	}
	if inWindow <= s.settings.MaxPostsPer24Hours {
		return nil
	}
	next := posts[s.settings.MaxPostsPer24Hours-1].PostedAt.Add(standardLookbackHours * time.Hour)
	return &next
}

// mostRestrictive picks the candidate with the latest next eligible date,
// earlier candidates winning ties
func mostRestrictive(candidates []*domain.RateLimitInfo) *domain.RateLimitInfo {
	var result *domain.RateLimitInfo
	for _, candidate := range candidates {
		if result == nil || candidate.NextEligible.After(result.NextEligible) {
			result = candidate
		}
	}
	return result
}
