package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenService_GenerateAndValidate(t *testing.T) {
	service := NewTokenService("test-secret-key", time.Hour)

	token, err := service.Generate("u-12345")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := service.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "u-12345", claims.UserID)
	assert.Equal(t, "campus-api", claims.Issuer)
}

func TestTokenService_Invalid(t *testing.T) {
	service := NewTokenService("test-secret-key", time.Hour)

	_, err := service.Validate("invalid-token")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenService_Expired(t *testing.T) {
	// 过期时长为负数，签出即过期
	service := NewTokenService("test-secret-key", -time.Hour)

	token, err := service.Generate("u-12345")
	require.NoError(t, err)

	_, err = service.Validate(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokenService_WrongSecretKey(t *testing.T) {
	service1 := NewTokenService("secret-key-1", time.Hour)
	service2 := NewTokenService("secret-key-2", time.Hour)

	token, err := service1.Generate("u-12345")
	require.NoError(t, err)

	_, err = service2.Validate(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenService_RejectsNonHMAC(t *testing.T) {
	service := NewTokenService("test-secret-key", time.Hour)

	claims := &Claims{
		UserID: "u-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = service.Validate(unsigned)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenService_MissingUserID(t *testing.T) {
	service := NewTokenService("test-secret-key", time.Hour)

	token, err := service.Generate("")
	require.NoError(t, err)

	_, err = service.Validate(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenService_AccessExpire(t *testing.T) {
	service := NewTokenService("k", 2*time.Hour)
	assert.Equal(t, 2*time.Hour, service.AccessExpire())
}
