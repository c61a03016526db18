package auth

import (
	"strings"

	"github.com/heartmarshall/docstore/internal/domain"
)

const fieldPassword = "password"

// Credentials holds the identity and password taken from a request body.
type Credentials struct {
	Identity string
	Password string
}

// credentialsFrom extracts credentials from body. Both must be non-empty
// strings.
func credentialsFrom(body domain.Record, identityField string) (Credentials, error) {
	identity, _ := body[identityField].(string)
	password, _ := body[fieldPassword].(string)

	c := Credentials{Identity: strings.TrimSpace(identity), Password: password}
	if c.Identity == "" || c.Password == "" {
		return Credentials{}, domain.Errorf(domain.ErrBadRequest, "Missing fields")
	}
	return c, nil
}
