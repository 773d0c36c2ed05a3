package entity

const (
	RateLimitOnePerDay                   = "rateLimitOnePerDay"
	RateLimitOnePerThreeDays             = "rateLimitOnePerThreeDays"
	RateLimitOnePerWeek                  = "rateLimitOnePerWeek"
	RateLimitOnePerFortnight             = "rateLimitOnePerFortnight"
	RateLimitOnePerMonth                 = "rateLimitOnePerMonth"
	RateLimitThreeCommentsPerPostPerWeek = "rateLimitThreeCommentsPerPostPerWeek"
)

// hours of the timeframe a moderator-assigned limit spans
var timeframeByActionType = map[string]int{
	RateLimitOnePerDay:       24,
	RateLimitOnePerThreeDays: 24 * 3,
	RateLimitOnePerWeek:      24 * 7,
	RateLimitOnePerFortnight: 24 * 14,
	RateLimitOnePerMonth:     730,
}

var descriptionByActionType = map[string]string{
	RateLimitOnePerDay:                   "Rate Limit (1 per day)",
	RateLimitOnePerThreeDays:             "Rate Limit (1 per 3 days)",
	RateLimitOnePerWeek:                  "Rate Limit (1 per week)",
	RateLimitOnePerFortnight:             "Rate Limit (1 per fortnight)",
	RateLimitOnePerMonth:                 "Rate Limit (1 per month)",
	RateLimitThreeCommentsPerPostPerWeek: "Rate Limit (3 comments per post per week)",
}

// ModeratorAction is an active restriction a moderator placed on a user.
type ModeratorAction struct {
	Type   string
	UserId string
}

func (a ModeratorAction) TimeframeHours() int {
	return timeframeByActionType[a.Type]
}

func (a ModeratorAction) Description() string {
	description, ok := descriptionByActionType[a.Type]
	if !ok {
		return "A moderator has rate limited you."
	}
	return description
}
