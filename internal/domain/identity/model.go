package identity

import "time"

// Identity maps a badge to a registered person.
type Identity struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	ExternalRef string    `json:"externalRef"`
	BadgeCode   string    `json:"badgeCode"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CreateRequest defines identity registration inputs.
type CreateRequest struct {
	Name        string `json:"name" validate:"required,max=120"`
	ExternalRef string `json:"external_ref" validate:"required,digits,max=32"`
	BadgeCode   string `json:"badge_code" validate:"required,max=64"`
}

// UpdateRequest replaces the editable fields of an identity.
type UpdateRequest struct {
	ID          string `json:"id" validate:"required"`
	Name        string `json:"name" validate:"required,max=120"`
	ExternalRef string `json:"external_ref" validate:"required,digits,max=32"`
	BadgeCode   string `json:"badge_code" validate:"required,max=64"`
}
