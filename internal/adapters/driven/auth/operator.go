// Package auth implements the operator-only guard on POST
// /api/v1/ingest, grounded on the teacher's adapters/driven/auth
// Adapter: bcrypt for the token hash at rest, golang-jwt/jwt/v5 for
// the bearer token itself.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// operatorClaims carries a single recognition claim: the bearer is
// "the operator", not a specific user identity. Spec §1 scopes
// write-side auth no further than this.
type operatorClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

const operatorRole = "operator"

// Operator issues and verifies the single-claim JWT that gates the
// ingest endpoint, and verifies that token's value against a bcrypt
// hash configured at rest (INGEST_OPERATOR_TOKEN_HASH).
type Operator struct {
	signingKey []byte
	tokenHash  string
	ttl        time.Duration
}

// NewOperator constructs the guard. tokenHash is a bcrypt hash of the
// shared operator secret; signingKey signs issued JWTs.
func NewOperator(signingKey []byte, tokenHash string) *Operator {
	return &Operator{signingKey: signingKey, tokenHash: tokenHash, ttl: time.Hour}
}

// IssueToken verifies candidateSecret against the configured bcrypt
// hash and, on success, signs a short-lived operator JWT.
func (o *Operator) IssueToken(candidateSecret string) (string, error) {
	if err := bcrypt.CompareHashAndPassword([]byte(o.tokenHash), []byte(candidateSecret)); err != nil {
		return "", fmt.Errorf("auth: invalid operator secret: %w", err)
	}

	now := time.Now()
	claims := operatorClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(o.ttl)),
		},
		Role: operatorRole,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(o.signingKey)
}

// VerifyToken checks signature, expiry, and the operator role claim.
func (o *Operator) VerifyToken(tokenString string) error {
	claims := &operatorClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return o.signingKey, nil
	})
	if err != nil {
		return fmt.Errorf("auth: invalid token: %w", err)
	}
	if !token.Valid {
		return errors.New("auth: token not valid")
	}
	if claims.Role != operatorRole {
		return errors.New("auth: token missing operator role")
	}
	return nil
}

// HashSecret is the setup-time helper an operator runs once to
// produce the value stored as INGEST_OPERATOR_TOKEN_HASH.
func HashSecret(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
