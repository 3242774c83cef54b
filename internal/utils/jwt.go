package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "sft-go"

// JWTClaims 会话声明
type JWTClaims struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
	jwt.RegisteredClaims
}

// JWTManager JWT管理器
type JWTManager struct {
	secret []byte
	method jwt.SigningMethod
	ttl    time.Duration
}

// NewJWTManager 创建JWT管理器
func NewJWTManager(secretKey string, algorithm string, expireTime time.Duration) *JWTManager {
	method := jwt.GetSigningMethod(algorithm)
	if method == nil {
		method = jwt.SigningMethodHS256
	}
	return &JWTManager{
		secret: []byte(secretKey),
		method: method,
		ttl:    expireTime,
	}
}

// ExpireSeconds 返回Token有效期(秒)
func (j *JWTManager) ExpireSeconds() int64 {
	return int64(j.ttl / time.Second)
}

// GenerateToken 为用户签发Token
func (j *JWTManager) GenerateToken(userID uint, username string, isAdmin bool) (string, error) {
	now := time.Now()
	claims := &JWTClaims{
		UserID:   userID,
		Username: username,
		IsAdmin:  isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   username,
			ExpiresAt: jwt.NewNumericDate(now.Add(j.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(j.method, claims).SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("签发Token失败: %w", err)
	}
	return signed, nil
}

// ValidateToken 校验Token并返回声明
func (j *JWTManager) ValidateToken(tokenString string) (*JWTClaims, error) {
	claims := &JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(token *jwt.Token) (interface{}, error) {
			return j.secret, nil
		},
		jwt.WithValidMethods([]string{j.method.Alg()}),
		jwt.WithIssuer(tokenIssuer),
	)
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.UserID == 0 {
		return nil, errors.New("无效的Token")
	}
	return claims, nil
}
