package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenInvalid = errors.New("token is invalid")
	ErrTokenExpired = errors.New("token has expired")
)

// Claims JWT 声明，id 为身份存储中的用户ID
type Claims struct {
	UserID string `json:"id"`
	jwt.RegisteredClaims
}

// TokenService HS256 令牌服务
// 签发由 CRUD 层在登录时完成，网关只做校验；两边共享同一个密钥
type TokenService struct {
	secretKey    []byte
	accessExpire time.Duration
	now          func() time.Time
}

// NewTokenService 创建令牌服务
func NewTokenService(secretKey string, accessExpire time.Duration) *TokenService {
	return &TokenService{
		secretKey:    []byte(secretKey),
		accessExpire: accessExpire,
		now:          time.Now,
	}
}

// Generate 为用户签发访问令牌
func (s *TokenService) Generate(userID string) (string, error) {
	now := s.now()
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessExpire)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "campus-api",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secretKey)
}

// Validate 校验签名和过期时间，返回声明
func (s *TokenService) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return s.secretKey, nil
	}, jwt.WithTimeFunc(s.now))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}

	if claims.UserID == "" {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}

// AccessExpire 获取访问令牌有效期
func (s *TokenService) AccessExpire() time.Duration {
	return s.accessExpire
}
