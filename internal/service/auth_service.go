package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/escolaware/escola-api/internal/models"
	appErrors "github.com/escolaware/escola-api/pkg/errors"
)

type authUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	LinkExternalID(ctx context.Context, id, externalID string) error
}

// AuthConfig defines how identity-provider tokens are verified.
type AuthConfig struct {
	TokenSecret string
	Issuer      string
	Audience    []string
	Leeway      time.Duration
}

// AuthService validates identity-provider tokens and resolves the local
// account behind them. The provider owns credentials and sessions; this
// service only maps a verified token to a users row.
type AuthService struct {
	repo   authUserRepository
	logger *zap.Logger
	config AuthConfig
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(repo authUserRepository, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{repo: repo, logger: logger, config: config}
}

// ValidateToken parses and verifies a provider-issued token.
func (s *AuthService) ValidateToken(tokenString string) (*models.IdentityClaims, error) {
	options := []jwt.ParserOption{
		jwt.WithLeeway(s.config.Leeway),
	}
	if s.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(s.config.Issuer))
	}
	for _, audience := range s.config.Audience {
		options = append(options, jwt.WithAudience(audience))
	}

	token, err := jwt.ParseWithClaims(tokenString, &models.IdentityClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.TokenSecret), nil
	}, options...)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.IdentityClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	if claims.Email == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "token carries no email")
	}

	return claims, nil
}

// ResolveAccount maps verified claims to a local account. A token whose
// email has no users row is authenticated with the provider but unknown
// here, which the caller must treat as not onboarded rather than as a
// bad token.
func (s *AuthService) ResolveAccount(ctx context.Context, claims *models.IdentityClaims) (*models.Account, error) {
	email := strings.ToLower(strings.TrimSpace(claims.Email))

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotOnboarded, "no account for this identity")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve account")
	}

	if !user.Active {
		return nil, appErrors.Clone(appErrors.ErrInactiveAccount, "account is inactive")
	}

	if claims.Subject != "" && (user.ExternalID == nil || *user.ExternalID != claims.Subject) {
		if err := s.repo.LinkExternalID(ctx, user.ID, claims.Subject); err != nil {
			s.logger.Warn("failed to link identity subject", zap.String("user_id", user.ID), zap.Error(err))
		}
	}

	return &models.Account{
		UserID:   user.ID,
		SchoolID: user.SchoolID,
		Email:    user.Email,
		Role:     user.Role,
	}, nil
}
