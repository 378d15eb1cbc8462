package auth

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// 凭据模式
const (
	ModePlain  = "plain"
	ModeBcrypt = "bcrypt"
)

// Credentials 凭据的存储编码与校验
type Credentials interface {
	Encode(password string) (string, error)
	Verify(stored, submitted string) bool
}

// NewCredentials 按模式创建；空字符串视为 plain
func NewCredentials(mode string) (Credentials, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", ModePlain:
		return PlainCredentials{}, nil
	case ModeBcrypt:
		return BcryptCredentials{Cost: bcrypt.DefaultCost}, nil
	default:
		return nil, fmt.Errorf("未知的凭据模式: %s", mode)
	}
}

// PlainCredentials 明文保存、逐字比较
type PlainCredentials struct{}

func (PlainCredentials) Encode(password string) (string, error) {
	return password, nil
}

func (PlainCredentials) Verify(stored, submitted string) bool {
	return stored == submitted
}

// BcryptCredentials bcrypt 哈希
type BcryptCredentials struct {
	Cost int
}

func (b BcryptCredentials) Encode(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), b.Cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (b BcryptCredentials) Verify(stored, submitted string) bool {
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(submitted)) == nil
}
