/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package backend

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	applog "opsdash/internal/log"
	"opsdash/internal/storage"
)

// DevSecret signs tokens when no secret is configured. Never use it outside development.
const DevSecret = "dev-secret-change-me"

// IssuerKeyHeader carries the credential POST /api/auth/token requires once a real
// AuthSecret is configured.
const IssuerKeyHeader = "X-Opsdash-Issuer-Key"

// tokenIssuer is the "iss" claim of every bearer token; tokens from other issuers are refused.
const tokenIssuer = "opsdash"

var (
	errTokenMalformed = errors.New("malformed token")
	errTokenSignature = errors.New("token signature mismatch")
	errTokenExpired   = errors.New("token expired")
	errIssuerDenied   = errors.New("token issuance requires a valid issuer key")
)

// signer mints and checks HS256 JWT bearer tokens whose subject is the layout user.
type signer struct {
	key []byte
	now func() time.Time
}

func newSigner(secret string) *signer {
	return &signer{key: []byte(secret), now: time.Now}
}

func (s *signer) issue(subject string, ttl time.Duration) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(ttl)
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    tokenIssuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return tok, exp, nil
}

// verify returns the token's subject, or storage.AnonymousUser for a token minted without one.
func (s *signer) verify(token string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) { return s.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return "", errTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return "", errTokenSignature
	default:
		return "", fmt.Errorf("%w: %v", errTokenMalformed, err)
	}
	if claims.Subject == "" {
		return storage.AnonymousUser, nil
	}
	return claims.Subject, nil
}

// issuerAllowed gates token issuance. On the dev secret anyone may mint tokens; with a real
// secret the request must present issuerKey, and an empty issuerKey disables issuance.
func issuerAllowed(r *http.Request, authSecret, issuerKey string) bool {
	if authSecret == DevSecret {
		return true
	}
	if issuerKey == "" {
		return false
	}
	got := r.Header.Get(IssuerKeyHeader)
	return subtle.ConstantTimeCompare([]byte(got), []byte(issuerKey)) == 1
}

// authenticate puts the bearer token's subject on the request context as the layout user.
// No Authorization header means the anonymous user; anything unverifiable is a 401.
func authenticate(s *signer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := storage.AnonymousUser
			if h := r.Header.Get("Authorization"); h != "" {
				scheme, token, _ := strings.Cut(h, " ")
				if !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
					respondError(w, http.StatusUnauthorized, errors.New("expected a bearer token"))
					return
				}
				sub, err := s.verify(strings.TrimSpace(token))
				if err != nil {
					respondError(w, http.StatusUnauthorized, err)
					return
				}
				user = sub
			}
			next.ServeHTTP(w, r.WithContext(applog.ContextWithUser(r.Context(), user)))
		})
	}
}
