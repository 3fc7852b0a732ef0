// internal/models/preference.go
package models

const (
	DefaultLimit = 10
	MaxLimit     = 50
)

// UserPreference is the request body shared by every recommendation endpoint.
// Unset fields serialize as null.
type UserPreference struct {
	Location          *string  `json:"location" validate:"omitempty"`
	MinRating         *float64 `json:"min_rating" validate:"omitempty,gte=0,lte=5"`
	MinPrice          *int     `json:"min_price" validate:"omitempty,gte=0"`
	MaxPrice          *int     `json:"max_price" validate:"omitempty,gte=0"`
	PreferredCuisines []string `json:"preferred_cuisines" validate:"omitempty,max=20,dive,max=64"`
	Limit             int      `json:"limit" validate:"gte=1,lte=50"`
}

// NewUserPreference returns a preference with the default limit, ready to be
// decoded into so that an omitted limit keeps the default.
func NewUserPreference() UserPreference {
	return UserPreference{Limit: DefaultLimit}
}

// WithLimit returns a copy of p with a different limit.
func (p UserPreference) WithLimit(limit int) UserPreference {
	p.Limit = limit
	return p
}
