package entity

import (
	"time"
)

type UserByTokenRequest struct {
	Token string
}

type UserByTokenResponse struct {
	Authenticated bool
	ErrorReason   string
	User          *User
}

type UserByIdRequest struct {
	UserId string
}

type PostSearchRequest struct {
	UserId      string
	PostedAtGte time.Time
	Draft       *bool
	Limit       int
}

type PostByIdRequest struct {
	PostId string
}

type PostsNotAuthoredByRequest struct {
	PostIds []string
	UserId  string
}

type CommentSearchRequest struct {
	UserId      string
	PostId      string
	PostedAtGte time.Time
	Limit       int
}

type ActiveRateLimitRequest struct {
	UserId string
}

type ActiveRateLimitResponse struct {
	Action *ModeratorAction
}

type HasActiveActionRequest struct {
	UserId string
	Type   string
}

type HasActiveActionResponse struct {
	Active bool
}
