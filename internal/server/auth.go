package server

import (
	"crypto/subtle"
	"fmt"
	"net/http"

	"pagerbridge/internal/domain"
	"pagerbridge/internal/pager"
)

// KeyAuthenticator checks the shared-secret channel key header in constant
// time. It is the production domain.Authenticator.
type KeyAuthenticator struct {
	key string
}

func NewKeyAuthenticator(key string) *KeyAuthenticator {
	return &KeyAuthenticator{key: key}
}

func (a *KeyAuthenticator) Authenticate(r *http.Request) error {
	got := r.Header.Get(pager.HeaderChannelKey)
	if got == "" {
		return fmt.Errorf("%w: missing %s header", domain.ErrUnauthorized, pager.HeaderChannelKey)
	}
	if subtle.ConstantTimeCompare([]byte(got), []byte(a.key)) != 1 {
		return fmt.Errorf("%w: key mismatch", domain.ErrUnauthorized)
	}
	return nil
}
