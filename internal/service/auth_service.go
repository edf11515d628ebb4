package service

import (
	"strings"
	"time"

	"github.com/shiling-next/internal/config"
	"github.com/shiling-next/internal/models"
	"github.com/shiling-next/internal/repository"

	"github.com/golang-jwt/jwt/v5"
)

// AuthService 运营令牌校验服务，签发由账号系统负责
type AuthService struct {
	secret    string
	adminRepo repository.AdminRepository
}

// NewAuthService 创建运营令牌校验服务
func NewAuthService(cfg config.JWTConfig, adminRepo repository.AdminRepository) *AuthService {
	return &AuthService{
		secret:    strings.TrimSpace(cfg.SecretKey),
		adminRepo: adminRepo,
	}
}

// JWTClaims JWT 声明
type JWTClaims struct {
	AdminID      uint   `json:"admin_id"`
	Username     string `json:"username"`
	TokenVersion uint64 `json:"token_version"`
	jwt.RegisteredClaims
}

// GenerateJWT 生成 JWT Token，供账号系统联调与测试使用
func (s *AuthService) GenerateJWT(admin *models.Admin, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(ttl)
	claims := JWTClaims{
		AdminID:      admin.ID,
		Username:     admin.Username,
		TokenVersion: admin.TokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseJWT 解析 JWT Token
func (s *AuthService) ParseJWT(tokenString string) (*JWTClaims, error) {
	if s.secret == "" {
		return nil, ErrInvalidToken
	}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := parser.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.secret), nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid && claims.AdminID > 0 {
		return claims, nil
	}
	return nil, ErrInvalidToken
}

// Authenticate 校验令牌并确认账号仍然有效
func (s *AuthService) Authenticate(tokenString string) (*models.Admin, *JWTClaims, error) {
	claims, err := s.ParseJWT(tokenString)
	if err != nil {
		return nil, nil, err
	}
	admin, err := s.adminRepo.GetByID(claims.AdminID)
	if err != nil {
		return nil, nil, err
	}
	if admin == nil {
		return nil, nil, ErrInvalidToken
	}
	if admin.Disabled {
		return nil, nil, ErrAdminDisabled
	}
	if admin.TokenVersion != claims.TokenVersion {
		return nil, nil, ErrTokenRevoked
	}
	return admin, claims, nil
}
