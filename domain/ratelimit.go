package domain

import (
	"time"
)

type RateLimitType string

const (
	RateLimitTypeModerator     RateLimitType = "moderator"
	RateLimitTypeLowKarma      RateLimitType = "lowKarma"
	RateLimitTypeUniversal     RateLimitType = "universal"
	RateLimitTypeDownvoteRatio RateLimitType = "downvoteRatio"
)

// RateLimitInfo is a policy verdict: the earliest time the action becomes
// allowed, the rule that produced it and a user-facing explanation.
type RateLimitInfo struct {
	NextEligible     time.Time
	RateLimitType    RateLimitType
	RateLimitMessage string
}
