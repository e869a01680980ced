package auth

import "github.com/golang-jwt/jwt/v5"

// Principal is the resolved identity of a request
type Principal struct {
	Type int    // core.LocalUser or core.RequesterTypePartner
	ID   string
	Tier string
}

// Claims is the payload of tokens this server issues and accepts.
// Partner tokens carry partner_id; user tokens carry only the subject.
type Claims struct {
	PartnerID string `json:"partner_id,omitempty"`
	Tier      string `json:"tier,omitempty"`
	jwt.RegisteredClaims
}

type tokenRequest struct {
	APIKey string `json:"api_key"`
}

// TokenResponse is the token exchange result
type TokenResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
	ExpiresIn int    `json:"expires_in"`
}
