package main

import (
	"net/http"
	"strings"
	"time"

	"github.com/ojalink/ojalink/libs/auth"
	"github.com/ojalink/ojalink/libs/config"
)

type authConfig struct {
	jwtSecret string
	jwks      *auth.JWKSClient
}

func authConfigFromEnv() authConfig {
	cfg := authConfig{jwtSecret: config.String("JWT_SECRET", "dev-secret")}
	if url := config.String("JWKS_URL", ""); url != "" {
		ttl := time.Duration(intEnv("JWKS_CACHE_SECONDS", 300)) * time.Second
		cfg.jwks = auth.NewJWKSClient(url, ttl)
	}
	return cfg
}

// requireAuth verifies the bearer token and replaces any caller-supplied
// identity headers with values taken from the verified claims. Downstream
// services trust these headers, so they must never pass through unchecked.
func requireAuth(next http.Handler, jwtSecret string, jwksClient *auth.JWKSClient) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			http.Error(w, "missing or invalid Authorization header", http.StatusUnauthorized)
			return
		}

		claims, err := verifyToken(token, jwtSecret, jwksClient)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		r.Header.Del("X-User-Id")
		r.Header.Del("X-Account-Id")
		r.Header.Del("X-Role")
		r.Header.Set("X-User-Id", claims.Sub)
		r.Header.Set("X-Account-Id", claims.AccountID)
		r.Header.Set("X-Role", claims.Role)
		next.ServeHTTP(w, r)
	})
}

// verifyToken picks RS256 via JWKS when the token header asks for it,
// otherwise falls back to the shared HS256 secret.
func verifyToken(token, jwtSecret string, jwksClient *auth.JWKSClient) (*auth.Claims, error) {
	if jwksClient != nil {
		header, err := auth.ParseHeader(token)
		if err != nil {
			return nil, err
		}
		if header.Alg == "RS256" && header.Kid != "" {
			pub, err := jwksClient.Get(header.Kid)
			if err != nil {
				return nil, err
			}
			return auth.VerifyRS256(token, pub)
		}
	}
	return auth.ParseAndVerifyHS256(token, jwtSecret)
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	return token, token != ""
}

func requireRole(next http.Handler, roles ...string) http.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := allowed[r.Header.Get("X-Role")]; !ok {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
