package auth

import (
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	domainerrors "MoriTags/internal/errors"
)

// CookieName 会话 Cookie 名称
const CookieName = "mori_session"

const tokenIssuer = "mori-tags"

// SessionClaims 会话令牌声明，Subject 为用户ID
type SessionClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// UserID 解析 Subject
func (c *SessionClaims) UserID() (int64, error) {
	return strconv.ParseInt(c.Subject, 10, 64)
}

// Sessions 签发与校验会话令牌。令牌本身无状态，登出时把 JTI 记入内存吊销表。
type Sessions struct {
	secret []byte
	ttl    time.Duration

	revoked sync.Map // jti -> 过期时间
}

func NewSessions(secret string, ttl time.Duration) *Sessions {
	return &Sessions{secret: []byte(secret), ttl: ttl}
}

// TTL 会话有效期
func (s *Sessions) TTL() time.Duration {
	return s.ttl
}

// Issue 为身份签发令牌
func (s *Sessions) Issue(identity Identity) (string, time.Time, error) {
	now := time.Now()
	expirationTime := now.Add(s.ttl)

	claims := &SessionClaims{
		Username: identity.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(identity.ID, 10),
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expirationTime, nil
}

// Parse 校验令牌，失败统一返回 Unauthorized
func (s *Sessions) Parse(tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return s.secret, nil
	}, jwt.WithIssuer(tokenIssuer))
	if err != nil || !token.Valid {
		return nil, domainerrors.Unauthorized("Invalid or expired session")
	}

	if _, ok := s.revoked.Load(claims.ID); ok {
		return nil, domainerrors.Unauthorized("Session has been logged out")
	}
	if _, err := claims.UserID(); err != nil {
		return nil, domainerrors.Unauthorized("Invalid or expired session")
	}
	return claims, nil
}

// Revoke 吊销令牌，并顺带清理已过期的吊销记录
func (s *Sessions) Revoke(claims *SessionClaims) {
	if claims == nil || claims.ID == "" {
		return
	}
	expiresAt := time.Now().Add(s.ttl)
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	s.revoked.Store(claims.ID, expiresAt)

	now := time.Now()
	s.revoked.Range(func(key, value interface{}) bool {
		if value.(time.Time).Before(now) {
			s.revoked.Delete(key)
		}
		return true
	})
}
