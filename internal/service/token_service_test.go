package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/internal/models"
	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/pkg/config"
	appErrors "github.com/LaurentK2002/exhibit-flow-guardian-sub000/pkg/errors"
)

func newTestTokenService() *TokenService {
	svc := NewTokenService(config.JWTConfig{Secret: "test-secret", Issuer: "exhibit-flow", Expiration: time.Hour}, nil)
	svc.now = fixedClock
	return svc
}

func TestTokenServiceIssueAndValidate(t *testing.T) {
	svc := newTestTokenService()

	issued, err := svc.Issue(models.IssueTokenRequest{UserID: "eo-1", Role: "Exhibit_Officer", Name: "Cpl. Juma", BadgeNumber: "E-001"})
	require.NoError(t, err)
	require.Equal(t, fixedNow.Add(time.Hour), issued.ExpiresAt)

	claims, err := svc.ValidateToken(issued.AccessToken)
	require.NoError(t, err)
	p := claims.Principal()
	require.Equal(t, models.RoleExhibitOfficer, p.Role)
	require.Equal(t, "eo-1", p.ID)
	require.Equal(t, "Cpl. Juma", p.Officer().Name)
	require.Equal(t, "E-001", p.Officer().Badge)
}

func TestTokenServiceRejectsBadTokens(t *testing.T) {
	svc := newTestTokenService()

	_, err := svc.Issue(models.IssueTokenRequest{UserID: "x-1", Role: "janitor", Name: "X", BadgeNumber: "X-1"})
	require.ErrorIs(t, err, appErrors.ErrValidation)

	issued, err := svc.Issue(models.IssueTokenRequest{UserID: "an-1", Role: models.RoleAnalyst, Name: "Analyst", BadgeNumber: "N-001", TTL: time.Minute})
	require.NoError(t, err)

	other := NewTokenService(config.JWTConfig{Secret: "other-secret", Issuer: "exhibit-flow"}, nil)
	other.now = fixedClock
	_, err = other.ValidateToken(issued.AccessToken)
	require.ErrorIs(t, err, appErrors.ErrUnauthorized)

	foreign := NewTokenService(config.JWTConfig{Secret: "test-secret", Issuer: "someone-else"}, nil)
	foreign.now = fixedClock
	_, err = foreign.ValidateToken(issued.AccessToken)
	require.ErrorIs(t, err, appErrors.ErrUnauthorized)

	svc.now = func() time.Time { return fixedNow.Add(2 * time.Minute) }
	_, err = svc.ValidateToken(issued.AccessToken)
	require.ErrorIs(t, err, appErrors.ErrUnauthorized)

	_, err = svc.ValidateToken("not-a-token")
	require.ErrorIs(t, err, appErrors.ErrUnauthorized)
}
