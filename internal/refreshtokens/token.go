package refreshtokens

import "time"

// RefreshToken is one outstanding renewal grant. The opaque ID doubles as
// the signed cookie value. At most one non-expired row exists per user;
// rotation is always delete-then-create, never update-in-place.
type RefreshToken struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	RememberMe bool      `json:"rememberMe"`
	ExpiresAt  time.Time `json:"expiresAt"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Expired reports whether the validity deadline has passed at now.
func (t *RefreshToken) Expired(now time.Time) bool {
	return !t.ExpiresAt.After(now)
}
