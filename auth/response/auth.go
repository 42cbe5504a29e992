package response

import (
	"github.com/evermart/storefront/internal/session"
)

type Auth struct {
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	User         session.User `json:"user"`
}
