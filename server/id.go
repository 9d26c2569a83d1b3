package server

import (
	"crypto/rand"
	"errors"
	"fmt"
)

// idAlphabet has 64 url-safe symbols, so a random byte maps onto it without bias.
const idAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789-_"

const (
	SheetIdLength     = 12
	deleteTokenLength = 32
	sheetIdAttempts   = 4
)

var errNoFreeSheetId = errors.New("no free sheet id")

// randomString returns n symbols of idAlphabet read from crypto/rand.
func randomString(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("random string: %w", err)
	}
	for i := range b {
		b[i] = idAlphabet[b[i]%byte(len(idAlphabet))]
	}

	return string(b), nil
}

// newSheetId picks an unused sheet id, giving up after a few collisions.
func (s *Server) newSheetId() (string, error) {
	for range sheetIdAttempts {
		id, err := randomString(SheetIdLength)
		if err != nil {
			return "", err
		}

		taken, err := s.sheetExists(id)
		if err != nil {
			return "", err
		}
		if !taken {
			return id, nil
		}
	}

	return "", errNoFreeSheetId
}
