// Package auth reads what the client may know about its user from the backend token.
// Tokens are never verified here: the backend is the only party that can trust them.
package auth

import (
	"github.com/dgrijalva/jwt-go"

	"github.com/trezcool/gradebook/core"
)

// Claims mirrors the claims the backend puts in its tokens.
type Claims struct {
	jwt.StandardClaims
	Username  string   `json:"username,omitempty"`
	Email     string   `json:"email,omitempty"`
	IsStudent bool     `json:"is_student,omitempty"` // -> STUDENT PORTAL
	IsTeacher bool     `json:"is_teacher,omitempty"` // -> TEACHER PORTAL
	Roles     []string `json:"roles,omitempty"`
}

// ParseClaims decodes the token's claims without verifying its signature.
// Opaque (non JWT) tokens give empty Claims.
func ParseClaims(token string) Claims {
	var claims Claims
	if token == "" {
		return claims
	}
	if _, _, err := new(jwt.Parser).ParseUnverified(token, &claims); err != nil {
		return Claims{}
	}
	return claims
}

// Identity returns who the claims are about.
func (c Claims) Identity() core.Identity {
	return core.Identity{
		ID:       c.Subject,
		Username: c.Username,
		Email:    c.Email,
	}
}

// LandingPath is where an authenticated user is sent after logging in.
func (c Claims) LandingPath() string {
	if c.IsTeacher && !c.IsStudent {
		return "/teacher-dashboard"
	}
	return "/dashboard"
}
