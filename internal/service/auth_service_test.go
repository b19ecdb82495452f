package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/escolaware/escola-api/internal/models"
	appErrors "github.com/escolaware/escola-api/pkg/errors"
)

const testTokenSecret = "test-secret-key-for-tokens"

type mockAuthUserRepo struct {
	byEmail map[string]*models.User
	linked  map[string]string
}

func newMockAuthUserRepo() *mockAuthUserRepo {
	return &mockAuthUserRepo{
		byEmail: make(map[string]*models.User),
		linked:  make(map[string]string),
	}
}

func (m *mockAuthUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	u, ok := m.byEmail[email]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copy := *u
	return &copy, nil
}

func (m *mockAuthUserRepo) LinkExternalID(_ context.Context, id, externalID string) error {
	m.linked[id] = externalID
	return nil
}

func signTestToken(t *testing.T, secret string, claims models.IdentityClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func testAuthConfig() AuthConfig {
	return AuthConfig{
		TokenSecret: testTokenSecret,
		Issuer:      "https://idp.example.com",
		Audience:    []string{"escola-api"},
		Leeway:      time.Minute,
	}
}

func testIdentityClaims(email string) models.IdentityClaims {
	return models.IdentityClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "idp-subject-1",
			Issuer:    "https://idp.example.com",
			Audience:  jwt.ClaimStrings{"escola-api"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		Email: email,
	}
}

func TestAuthServiceValidateToken(t *testing.T) {
	svc := NewAuthService(newMockAuthUserRepo(), zap.NewNop(), testAuthConfig())
	tokenString := signTestToken(t, testTokenSecret, testIdentityClaims("ana@example.com"))

	claims, err := svc.ValidateToken(tokenString)
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", claims.Email)
	assert.Equal(t, "idp-subject-1", claims.Subject)
}

func TestAuthServiceValidateTokenWrongSecret(t *testing.T) {
	svc := NewAuthService(newMockAuthUserRepo(), zap.NewNop(), testAuthConfig())
	tokenString := signTestToken(t, "another-secret", testIdentityClaims("ana@example.com"))

	_, err := svc.ValidateToken(tokenString)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceValidateTokenExpired(t *testing.T) {
	svc := NewAuthService(newMockAuthUserRepo(), zap.NewNop(), testAuthConfig())
	claims := testIdentityClaims("ana@example.com")
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-2 * time.Hour))

	_, err := svc.ValidateToken(signTestToken(t, testTokenSecret, claims))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceValidateTokenWithinLeeway(t *testing.T) {
	svc := NewAuthService(newMockAuthUserRepo(), zap.NewNop(), testAuthConfig())
	claims := testIdentityClaims("ana@example.com")
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-30 * time.Second))

	_, err := svc.ValidateToken(signTestToken(t, testTokenSecret, claims))
	require.NoError(t, err)
}

func TestAuthServiceValidateTokenWrongIssuer(t *testing.T) {
	svc := NewAuthService(newMockAuthUserRepo(), zap.NewNop(), testAuthConfig())
	claims := testIdentityClaims("ana@example.com")
	claims.Issuer = "https://other.example.com"

	_, err := svc.ValidateToken(signTestToken(t, testTokenSecret, claims))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceValidateTokenNoEmail(t *testing.T) {
	svc := NewAuthService(newMockAuthUserRepo(), zap.NewNop(), testAuthConfig())

	_, err := svc.ValidateToken(signTestToken(t, testTokenSecret, testIdentityClaims("")))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceResolveAccount(t *testing.T) {
	repo := newMockAuthUserRepo()
	repo.byEmail["ana@example.com"] = &models.User{
		ID: "user-1", SchoolID: "school-1", Email: "ana@example.com",
		FullName: "Ana Souza", Role: models.RoleDirector, Active: true,
	}
	svc := NewAuthService(repo, zap.NewNop(), testAuthConfig())

	claims := testIdentityClaims("Ana@Example.com")
	account, err := svc.ResolveAccount(context.Background(), &claims)
	require.NoError(t, err)
	assert.Equal(t, "user-1", account.UserID)
	assert.Equal(t, "school-1", account.SchoolID)
	assert.Equal(t, models.RoleDirector, account.Role)
	assert.Equal(t, "idp-subject-1", repo.linked["user-1"])
}

func TestAuthServiceResolveAccountNotOnboarded(t *testing.T) {
	svc := NewAuthService(newMockAuthUserRepo(), zap.NewNop(), testAuthConfig())

	claims := testIdentityClaims("unknown@example.com")
	_, err := svc.ResolveAccount(context.Background(), &claims)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotOnboarded.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceResolveAccountInactive(t *testing.T) {
	repo := newMockAuthUserRepo()
	repo.byEmail["ana@example.com"] = &models.User{
		ID: "user-1", SchoolID: "school-1", Email: "ana@example.com", Active: false,
	}
	svc := NewAuthService(repo, zap.NewNop(), testAuthConfig())

	claims := testIdentityClaims("ana@example.com")
	_, err := svc.ResolveAccount(context.Background(), &claims)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceResolveAccountSkipsRelink(t *testing.T) {
	external := "idp-subject-1"
	repo := newMockAuthUserRepo()
	repo.byEmail["ana@example.com"] = &models.User{
		ID: "user-1", SchoolID: "school-1", Email: "ana@example.com",
		ExternalID: &external, Active: true,
	}
	svc := NewAuthService(repo, zap.NewNop(), testAuthConfig())

	claims := testIdentityClaims("ana@example.com")
	_, err := svc.ResolveAccount(context.Background(), &claims)
	require.NoError(t, err)
	assert.NotContains(t, repo.linked, "user-1")
}
