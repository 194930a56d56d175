package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/festpay/festpay-backend/pkg/config"
	"github.com/festpay/festpay-backend/pkg/enums"
)

func testConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "unit-test-secret",
		Issuer:            "festpay-test",
		ExpirationMinutes: 30,
	}
}

func TestMintAndParseRoundtrip(t *testing.T) {
	cfg := testConfig()
	eventID := uuid.New()
	theme := "#112233"
	payload := AccessTokenPayload{
		SubjectID: uuid.New(),
		EventID:   &eventID,
		Role:      enums.ActorRoleStall,
		Branding: &Branding{
			EventName:  "Summer Fest",
			ThemeColor: &theme,
		},
		JTI: "fixed-token-id",
	}

	token, err := MintAccessToken(cfg, time.Now(), payload)
	if err != nil {
		t.Fatalf("MintAccessToken: %v", err)
	}

	claims, err := ParseAccessToken(cfg, token)
	if err != nil {
		t.Fatalf("ParseAccessToken: %v", err)
	}

	if claims.SubjectID != payload.SubjectID {
		t.Errorf("subject = %s, want %s", claims.SubjectID, payload.SubjectID)
	}
	if claims.EventID == nil || *claims.EventID != eventID {
		t.Error("event id must roundtrip")
	}
	if claims.Role != enums.ActorRoleStall {
		t.Errorf("role = %s, want stall", claims.Role)
	}
	if claims.Branding == nil || claims.Branding.EventName != "Summer Fest" {
		t.Fatal("branding must roundtrip")
	}
	if claims.Branding.ThemeColor == nil || *claims.Branding.ThemeColor != theme {
		t.Error("theme color must roundtrip")
	}
	if claims.ID != "fixed-token-id" {
		t.Errorf("jti = %s, want fixed-token-id", claims.ID)
	}
}

func TestMintGeneratesJTIWhenMissing(t *testing.T) {
	token, err := MintAccessToken(testConfig(), time.Now(), AccessTokenPayload{
		SubjectID: uuid.New(),
		Role:      enums.ActorRoleOrganizer,
	})
	if err != nil {
		t.Fatalf("MintAccessToken: %v", err)
	}

	claims, err := ParseAccessToken(testConfig(), token)
	if err != nil {
		t.Fatalf("ParseAccessToken: %v", err)
	}
	if claims.ID == "" {
		t.Error("expected an auto-generated jti")
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	token, err := MintAccessToken(testConfig(), time.Now(), AccessTokenPayload{
		SubjectID: uuid.New(),
		Role:      enums.ActorRoleOrganizer,
	})
	if err != nil {
		t.Fatalf("MintAccessToken: %v", err)
	}

	other := testConfig()
	other.Secret = "different-secret"
	if _, err := ParseAccessToken(other, token); err == nil {
		t.Error("expected verification failure with wrong secret")
	}
}

func TestParseRejectsWrongIssuer(t *testing.T) {
	token, err := MintAccessToken(testConfig(), time.Now(), AccessTokenPayload{
		SubjectID: uuid.New(),
		Role:      enums.ActorRoleOrganizer,
	})
	if err != nil {
		t.Fatalf("MintAccessToken: %v", err)
	}

	other := testConfig()
	other.Issuer = "someone-else"
	if _, err := ParseAccessToken(other, token); err == nil {
		t.Error("expected issuer mismatch failure")
	}
}

func TestParseRejectsExpiredToken(t *testing.T) {
	token, err := MintAccessToken(testConfig(), time.Now().Add(-2*time.Hour), AccessTokenPayload{
		SubjectID: uuid.New(),
		Role:      enums.ActorRoleVisitor,
	})
	if err != nil {
		t.Fatalf("MintAccessToken: %v", err)
	}

	if _, err := ParseAccessToken(testConfig(), token); err == nil {
		t.Error("expected expired token to fail")
	}
}

func TestMintRejectsInvalidPayload(t *testing.T) {
	if _, err := MintAccessToken(testConfig(), time.Now(), AccessTokenPayload{Role: enums.ActorRoleOrganizer}); err == nil {
		t.Error("expected missing subject to fail")
	}
	if _, err := MintAccessToken(testConfig(), time.Now(), AccessTokenPayload{SubjectID: uuid.New(), Role: "superuser"}); err == nil {
		t.Error("expected unknown role to fail")
	}
}
