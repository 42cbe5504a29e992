package request

import (
	"github.com/rs/zerolog"
)

type Login struct {
	Email    string `validate:"required,email" json:"email"`
	Password string `validate:"required,min=8" json:"password"`
}

// MarshalZerologObject keeps the password out of the logs.
func (l Login) MarshalZerologObject(e *zerolog.Event) {
	e.Str("email", l.Email).Str("password", "***")
}

type Register struct {
	Name     string `validate:"required"       json:"name"`
	Email    string `validate:"required,email" json:"email"`
	Password string `validate:"required,min=8" json:"password"`
}

func (r Register) MarshalZerologObject(e *zerolog.Event) {
	e.Str("name", r.Name).Str("email", r.Email).Str("password", "***")
}
