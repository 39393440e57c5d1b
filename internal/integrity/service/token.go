package service

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// newAnonymousToken creates the unguessable retrieval key for a submitted
// report. It is derived from the system randomness source only, never from
// any property of the submitting caller.
func newAnonymousToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("could not generate anonymous token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
