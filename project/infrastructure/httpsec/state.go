package httpsec

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const stateIssuer = "timebot"

// stateClaims は OAuth の state に埋め込むクレームです
type stateClaims struct {
	jwt.RegisteredClaims
}

// SignState は subject（連携を開始したメンバー）を含む署名付き state を発行します
func SignState(secret, subject string, now time.Time, ttl time.Duration) (string, error) {
	claims := stateClaims{RegisteredClaims: jwt.RegisteredClaims{
		Issuer:    stateIssuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("state 署名失敗: %w", err)
	}
	return s, nil
}

// VerifyState は state を検証し、subject を返します
func VerifyState(secret, state string, now time.Time) (string, error) {
	var claims stateClaims
	_, err := jwt.ParseWithClaims(state, &claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(stateIssuer),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		return "", fmt.Errorf("state 検証失敗: %w", err)
	}
	return claims.Subject, nil
}
