package response

import (
	"github.com/google/uuid"
)

type Category struct {
	ID       uuid.UUID  `json:"id"`
	Name     string     `json:"name"`
	Slug     string     `json:"slug"`
	ParentID *uuid.UUID `json:"parent_id,omitempty"`
	Children []Category `json:"children,omitempty"`
}
