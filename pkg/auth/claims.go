package auth

import (
	"github.com/festpay/festpay-backend/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Branding is the event-look snapshot denormalized into every session token at
// login so clients never need an extra lookup. Staleness is bounded by the
// token lifetime.
type Branding struct {
	EventName  string  `json:"event_name"`
	LogoURL    *string `json:"logo_url,omitempty"`
	BannerURL  *string `json:"banner_url,omitempty"`
	ThemeColor *string `json:"theme_color,omitempty"`
}

// AccessTokenPayload captures the data available when minting a JWT. SubjectID
// points at the organizer, stall, cashier, or wallet row depending on Role.
type AccessTokenPayload struct {
	SubjectID uuid.UUID
	EventID   *uuid.UUID
	Role      enums.ActorRole
	Branding  *Branding
	JTI       string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	SubjectID uuid.UUID       `json:"subject_id"`
	EventID   *uuid.UUID      `json:"event_id,omitempty"`
	Role      enums.ActorRole `json:"role"`
	Branding  *Branding       `json:"branding,omitempty"`
	jwt.RegisteredClaims
}
