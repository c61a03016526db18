package seed

import (
	"fmt"

	"github.com/heartmarshall/docstore/internal/domain"
)

type passwordHasher interface {
	Hash(password string) (string, error)
}

// HashPasswords replaces the plaintext password of every seeded user in
// the users collection with a hashedPassword. Users that already carry a
// hash are left alone. It returns how many passwords were hashed.
func (d *Data) HashPasswords(h passwordHasher, users string) (int, error) {
	n := 0
	for id, user := range d.Protected[users] {
		plain, ok := user["password"].(string)
		if !ok {
			continue
		}
		delete(user, "password")
		if _, hashed := user[domain.FieldHashedPassword]; hashed {
			continue
		}

		hash, err := h.Hash(plain)
		if err != nil {
			return n, fmt.Errorf("seed.HashPasswords: user %s: %w", id, err)
		}
		user[domain.FieldHashedPassword] = hash
		n++
	}
	return n, nil
}
