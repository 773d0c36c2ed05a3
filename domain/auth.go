package domain

import (
	"forum-gate-service/entity"
)

type AuthenticateResponse struct {
	Authenticated bool
	ErrorReason   string
	User          *entity.User
}
