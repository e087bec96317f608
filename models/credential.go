// ABOUTME: Persisted Google authorization bundle
// ABOUTME: Field names match the on-disk credential file
package models

import "time"

// Credential is the access/refresh token bundle authorizing calendar calls.
// A Credential without a RefreshToken cannot be renewed silently.
type Credential struct {
	Token        string     `json:"token"`
	RefreshToken string     `json:"refresh_token"`
	TokenURI     string     `json:"token_uri"`
	ClientID     string     `json:"client_id"`
	ClientSecret string     `json:"client_secret"`
	Scopes       []string   `json:"scopes"`
	Expiry       *time.Time `json:"expiry,omitempty"`
}

// Expired reports whether the access token's validity window has elapsed at now.
// A credential without a recorded expiry is treated as still valid.
func (c *Credential) Expired(now time.Time) bool {
	if c == nil || c.Token == "" {
		return true
	}
	if c.Expiry == nil || c.Expiry.IsZero() {
		return false
	}
	return !now.Before(*c.Expiry)
}

// CanRefresh reports whether the credential carries a refresh token.
func (c *Credential) CanRefresh() bool {
	return c != nil && c.RefreshToken != ""
}
