package domain

import (
	"github.com/pkg/errors"
)

var (
	ErrNotAuthenticated        = errors.New("authenticate failed")
	ErrAuthenticationCacheMiss = errors.New("authentication not found in cache")
)

// ModeratorCommentLockError rejects commenting for the whole moderator
// timeframe, without a next eligible date.
type ModeratorCommentLockError struct {
	ActionDescription string
}

func (e ModeratorCommentLockError) Error() string {
	return e.ActionDescription
}
