package dto

import (
	"time"

	"github.com/vibast-solutions/ms-go-jobtracker/app/entity"
)

type SessionResult struct {
	User      *entity.User
	Token     string
	ExpiresAt time.Time
	Remember  bool
}
