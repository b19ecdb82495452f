package models

import "github.com/golang-jwt/jwt/v5"

// IdentityClaims are the claims carried by tokens issued by the hosted
// identity provider. Only the subject and email are relied upon; roles
// and tenancy come from the local account record.
type IdentityClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// Account is the request-scoped principal resolved from an identity
// token: the local user joined with its role and school context.
type Account struct {
	UserID   string   `json:"user_id"`
	SchoolID string   `json:"school_id"`
	Email    string   `json:"email"`
	Role     UserRole `json:"role"`
}
