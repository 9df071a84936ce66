package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ojalink/ojalink/libs/auth"
)

func TestPasswordHashing(t *testing.T) {
	password := "pass12345"
	hash, err := hashPassword(password)
	if err != nil {
		t.Fatalf("hashPassword failed: %v", err)
	}
	if hash == "" {
		t.Fatal("expected non-empty hash")
	}
	if err := verifyPassword(hash, password); err != nil {
		t.Fatalf("verifyPassword should succeed: %v", err)
	}
	if err := verifyPassword(hash, "wrong-pass"); err == nil {
		t.Fatal("verifyPassword should fail for wrong password")
	}
}

func TestHS256SignerRoundTrip(t *testing.T) {
	signer := NewHS256Signer("test-secret")
	token, err := signer.Sign(auth.Claims{
		Sub:       "acc-1",
		AccountID: "acc-1",
		Role:      "owner",
		Iat:       time.Now().Unix(),
		Exp:       time.Now().Add(time.Hour).Unix(),
	})
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}

	claims, err := signer.Verify(token)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if claims.AccountID != "acc-1" || claims.Role != "owner" {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	if _, err := NewHS256Signer("other-secret").Verify(token); err == nil {
		t.Fatal("verify should fail with wrong secret")
	}
}

func TestSignup_RejectsBadInput(t *testing.T) {
	h := NewAuthHandler(NewHS256Signer("s"), nil, nil, nil, nil, nil, time.Hour, "")

	cases := []struct {
		name string
		body string
	}{
		{"missing fields", `{"email":"a@b.co"}`},
		{"short password", `{"business_name":"Ada Salon","email":"a@b.co","password":"short"}`},
		{"invalid json", `{`},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/signup", strings.NewReader(tc.body))
		rec := httptest.NewRecorder()
		h.Signup(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", tc.name, rec.Code)
		}
	}
}

func TestMe_RejectsMissingOrInvalidToken(t *testing.T) {
	h := NewAuthHandler(NewHS256Signer("s"), nil, nil, nil, nil, nil, time.Hour, "")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	rec := httptest.NewRecorder()
	h.Me(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without Authorization header, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = httptest.NewRecorder()
	h.Me(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for garbage token, got %d", rec.Code)
	}
}
