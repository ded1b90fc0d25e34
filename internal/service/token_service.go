package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/padala-next/internal/config"
	"github.com/padala-next/internal/constants"

	"github.com/golang-jwt/jwt/v5"
)

const defaultTokenExpireHours = 24

// TokenClaims 接口令牌声明
type TokenClaims struct {
	UserID   uint   `json:"uid"`
	Role     string `json:"role"`
	DriverID uint   `json:"driver_id,omitempty"`
	jwt.RegisteredClaims
}

// TokenService 接口令牌签发与校验
// 令牌只标识调用方，具体权限由 casbin 策略判定
type TokenService struct {
	secret []byte
	expire time.Duration
	now    func() time.Time
}

// NewTokenService 创建令牌服务
func NewTokenService(cfg config.JWTConfig) (*TokenService, error) {
	secret := strings.TrimSpace(cfg.SecretKey)
	if secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	hours := cfg.ExpireHours
	if hours <= 0 {
		hours = defaultTokenExpireHours
	}
	return &TokenService{
		secret: []byte(secret),
		expire: time.Duration(hours) * time.Hour,
		now:    time.Now,
	}, nil
}

// Issue 签发令牌，骑手角色必须绑定骑手 ID
func (s *TokenService) Issue(userID uint, role string, driverID uint) (string, time.Time, error) {
	if userID == 0 {
		return "", time.Time{}, fmt.Errorf("%w: user id is required", ErrRoleInvalid)
	}
	role = strings.ToLower(strings.TrimSpace(role))
	switch role {
	case constants.RoleOps, constants.RoleFinance:
		driverID = 0
	case constants.RoleDriver:
		if driverID == 0 {
			return "", time.Time{}, fmt.Errorf("%w: driver role requires driver id", ErrRoleInvalid)
		}
	default:
		return "", time.Time{}, fmt.Errorf("%w: %q", ErrRoleInvalid, role)
	}

	now := s.now()
	expiresAt := now.Add(s.expire)
	claims := TokenClaims{
		UserID:   userID,
		Role:     role,
		DriverID: driverID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", userID),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Parse 解析并校验令牌
func (s *TokenService) Parse(tokenString string) (*TokenClaims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	token, err := parser.ParseWithClaims(strings.TrimSpace(tokenString), &TokenClaims{}, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid || claims.UserID == 0 {
		return nil, ErrTokenInvalid
	}
	if claims.Role == constants.RoleDriver && claims.DriverID == 0 {
		return nil, fmt.Errorf("%w: driver token without driver id", ErrTokenInvalid)
	}
	return claims, nil
}
