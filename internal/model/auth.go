package model

import "github.com/golang-jwt/jwt/v5"

// AdminClaims are JWT claims for the admin panel
type AdminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// LoginRequest is the request body for admin login
type LoginRequest struct {
	Password string `json:"password"`
}

// LoginResponse is returned after successful login
type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
}
