package entity

import (
	"slices"
	"time"
)

const (
	AdminsGroup         = "admins"
	ModeratorsGroup     = "moderators"
	BypassPostRateLimit = "canBypassPostRateLimit"
)

type User struct {
	Id     string
	Groups []string
	Karma  int

	SmallUpvoteReceivedCount   int
	BigUpvoteReceivedCount     int
	SmallDownvoteReceivedCount int
	BigDownvoteReceivedCount   int
	VoteReceivedCount          int
}

func (u User) IsAdmin() bool {
	return u.IsMemberOf(AdminsGroup)
}

func (u User) IsMemberOf(group string) bool {
	return slices.Contains(u.Groups, group)
}

type Post struct {
	Id               string
	UserId           string
	CoauthorUserIds  []string
	PostedAt         time.Time
	Draft            bool
	IgnoreRateLimits bool
}

func (p Post) IsAuthor(userId string) bool {
	return p.UserId == userId || slices.Contains(p.CoauthorUserIds, userId)
}

type Comment struct {
	Id       string
	UserId   string
	PostId   string
	PostedAt time.Time
}
