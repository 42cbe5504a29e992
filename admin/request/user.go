package request

import (
	"net/url"
	"strconv"
)

type UpdateRole struct {
	Role string `validate:"required,oneof=customer staff admin" json:"role"`
}

type UpdateStatus struct {
	Active bool `json:"active"`
}

type FindUsers struct {
	Role   string
	Search string
	Page   int `validate:"gte=0"`
}

func (f FindUsers) QueryString() string {
	values := url.Values{}
	if f.Role != "" {
		values.Set("role", f.Role)
	}
	if f.Search != "" {
		values.Set("search", f.Search)
	}
	if f.Page > 0 {
		values.Set("page", strconv.Itoa(f.Page))
	}
	return values.Encode()
}
