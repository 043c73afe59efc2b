package service

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"

	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/internal/dto"
	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/internal/models"
	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/pkg/config"
	appErrors "github.com/LaurentK2002/exhibit-flow-guardian-sub000/pkg/errors"
)

// TokenService verifies bearer tokens from the identity provider and mints
// development tokens with the same shape.
type TokenService struct {
	config    config.JWTConfig
	validator *validator.Validate
	now       func() time.Time
}

// NewTokenService constructs the service.
func NewTokenService(cfg config.JWTConfig, validate *validator.Validate) *TokenService {
	if validate == nil {
		validate = dto.NewValidator()
	}
	if cfg.Expiration <= 0 {
		cfg.Expiration = 12 * time.Hour
	}
	return &TokenService{config: cfg, validator: validate, now: func() time.Time { return time.Now().UTC() }}
}

// ValidateToken parses and validates an access token returning the claims.
func (s *TokenService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	}, jwt.WithTimeFunc(s.now), jwt.WithIssuer(s.config.Issuer))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	if !claims.Principal().Valid() {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "token does not carry a known role")
	}
	return claims, nil
}

// Issue signs a token for the given principal.
func (s *TokenService) Issue(req models.IssueTokenRequest) (*models.IssuedToken, error) {
	if role, ok := models.ParseRole(string(req.Role)); ok {
		req.Role = role
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid token request")
	}
	ttl := req.TTL
	if ttl == 0 {
		ttl = s.config.Expiration
	}
	issuedAt := s.now()
	expiresAt := issuedAt.Add(ttl)
	claims := &models.JWTClaims{
		UserID:      req.UserID,
		Role:        req.Role,
		Name:        req.Name,
		BadgeNumber: req.BadgeNumber,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   req.UserID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.Secret))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign token")
	}
	return &models.IssuedToken{AccessToken: signed, ExpiresAt: expiresAt}, nil
}
