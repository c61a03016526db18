package auth

import "github.com/heartmarshall/docstore/internal/domain"

// AuthResult is returned by Register and Login.
type AuthResult struct {
	User        domain.Record
	SessionID   string
	AccessToken string
}

// Value returns the user record with its access token, as sent to the
// client.
func (r *AuthResult) Value() domain.Record {
	out := r.User.Clone()
	if out == nil {
		out = domain.Record{}
	}
	out["accessToken"] = r.AccessToken
	return out
}
