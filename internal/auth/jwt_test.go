package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret-at-least-32-chars-long-for-security"

func TestTokenManager_IssueAndValidate_Success(t *testing.T) {
	manager := NewTokenManager(testSecret, "docstore-test", 15*time.Minute)

	token, err := manager.Issue("user-1", "session-1")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	claims, err := manager.Validate(token)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if claims.UserID != "user-1" {
		t.Errorf("expected user-1, got %q", claims.UserID)
	}
	if claims.SessionID != "session-1" {
		t.Errorf("expected session-1, got %q", claims.SessionID)
	}
}

func TestTokenManager_ZeroTTLNeverExpires(t *testing.T) {
	manager := NewTokenManager(testSecret, "docstore-test", 0)

	token, err := manager.Issue("u", "s")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	parsed, _, err := jwt.NewParser().ParseUnverified(token, &jwt.RegisteredClaims{})
	if err != nil {
		t.Fatalf("ParseUnverified failed: %v", err)
	}
	if exp, _ := parsed.Claims.GetExpirationTime(); exp != nil {
		t.Errorf("expected no expiry, got %v", exp)
	}
}

func TestTokenManager_Validate_Expired(t *testing.T) {
	manager := NewTokenManager(testSecret, "docstore-test", -1*time.Hour)

	token, err := manager.Issue("u", "s")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	if _, err := manager.Validate(token); err == nil {
		t.Fatal("expected error for expired token, got nil")
	}
}

func TestTokenManager_Validate_InvalidSignature(t *testing.T) {
	issuer := NewTokenManager(testSecret, "docstore-test", time.Minute)
	other := NewTokenManager("another-secret-at-least-32-chars-long-xx", "docstore-test", time.Minute)

	token, err := issuer.Issue("u", "s")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	if _, err := other.Validate(token); err == nil {
		t.Fatal("expected error for token signed with a different secret")
	}
}

func TestTokenManager_Validate_WrongIssuer(t *testing.T) {
	a := NewTokenManager(testSecret, "issuer-a", time.Minute)
	b := NewTokenManager(testSecret, "issuer-b", time.Minute)

	token, err := a.Issue("u", "s")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	_, err = b.Validate(token)
	if err == nil || !strings.Contains(err.Error(), "invalid issuer") {
		t.Fatalf("expected invalid issuer error, got %v", err)
	}
}

func TestTokenManager_Validate_Malformed(t *testing.T) {
	manager := NewTokenManager(testSecret, "docstore-test", time.Minute)

	for _, token := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, err := manager.Validate(token); err == nil {
			t.Errorf("expected error for %q", token)
		}
	}
}

func TestTokenManager_Validate_RejectsNoneAlgorithm(t *testing.T) {
	manager := NewTokenManager(testSecret, "docstore-test", time.Minute)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject: "u", ID: "s", Issuer: "docstore-test",
	})
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("SignedString failed: %v", err)
	}

	if _, err := manager.Validate(token); err == nil {
		t.Fatal("expected error for alg=none token")
	}
}

func TestTokenManager_Issue_RequiresIDs(t *testing.T) {
	manager := NewTokenManager(testSecret, "docstore-test", time.Minute)

	if _, err := manager.Issue("", "s"); err == nil {
		t.Error("expected error for empty user id")
	}
	if _, err := manager.Issue("u", ""); err == nil {
		t.Error("expected error for empty session id")
	}
}

func TestPasswordHasher(t *testing.T) {
	h := NewPasswordHasher(4)

	hash, err := h.Hash("123456")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if hash == "123456" {
		t.Fatal("hash equals plaintext")
	}
	if !h.Compare(hash, "123456") {
		t.Error("expected matching password")
	}
	if h.Compare(hash, "654321") {
		t.Error("expected mismatching password")
	}
	if h.Compare("not-a-hash", "123456") {
		t.Error("expected failure on malformed hash")
	}
}

func TestNewPasswordHasher_ClampsCost(t *testing.T) {
	if got := NewPasswordHasher(0).cost; got != 10 {
		t.Errorf("expected default cost 10, got %d", got)
	}
	if got := NewPasswordHasher(100).cost; got != 10 {
		t.Errorf("expected default cost 10, got %d", got)
	}
}
