package auth

import (
	"errors"
	"time"

	"bakery/internal/domain/model"

	"github.com/golang-jwt/jwt/v5"
)

const DeliveryPartnerRole = "DELIVERY_PARTNER"

// JWTを発行する約束
type AccessTokenIssuer interface {
	Issue(userID int64, role model.Role, tokenVersion int, now time.Time) (token string, expiresAt time.Time, err error)
}

// 顧客・管理者のセッションJWT（HS256）
type JWTIssuer struct {
	secret []byte
	ttl    time.Duration
}

func NewJWTIssuer(secret string, ttl time.Duration) *JWTIssuer {
	return &JWTIssuer{secret: []byte(secret), ttl: ttl}
}

func (i *JWTIssuer) Issue(userID int64, role model.Role, tokenVersion int, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(i.ttl)

	claims := jwt.MapClaims{
		"sub":  userID,
		"role": string(role),
		"tv":   tokenVersion,
		"iat":  now.Unix(),
		"exp":  expiresAt.Unix(),
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, expiresAt, nil
}

// 配達員トークンのclaims {id, phone, role, tv}
type DeliveryClaims struct {
	ID           int64  `json:"id"`
	Phone        string `json:"phone"`
	Role         string `json:"role"`
	TokenVersion int    `json:"tv"`
	jwt.RegisteredClaims
}

// 配達員用bearerトークン（セッションとは別の鍵）
type DeliveryTokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

func NewDeliveryTokenIssuer(secret string, ttl time.Duration) *DeliveryTokenIssuer {
	return &DeliveryTokenIssuer{secret: []byte(secret), ttl: ttl}
}

func (i *DeliveryTokenIssuer) Issue(p model.DeliveryPartner, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(i.ttl)
	claims := DeliveryClaims{
		ID:           p.ID,
		Phone:        p.Phone,
		Role:         DeliveryPartnerRole,
		TokenVersion: p.TokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

var ErrInvalidDeliveryToken = errors.New("invalid delivery token")

// 署名・期限・roleを確認してclaimsを返す
func ParseDeliveryToken(secret string, raw string) (DeliveryClaims, error) {
	var claims DeliveryClaims
	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return DeliveryClaims{}, ErrInvalidDeliveryToken
	}
	if claims.Role != DeliveryPartnerRole || claims.ID <= 0 || claims.TokenVersion < 0 {
		return DeliveryClaims{}, ErrInvalidDeliveryToken
	}
	return claims, nil
}
