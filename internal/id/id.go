// Package id generates short random identifiers for connections and object names.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// tokenAlphabet keeps tokens safe inside slugs and object keys.
const tokenAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// Generate creates a prefixed id, e.g. "sse-V1StGXR8_Z5jdHi6B-myT".
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is like Generate but panics when the system has no entropy.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}

// Token returns n random lowercase alphanumeric characters.
func Token(n int) (string, error) {
	tok, err := gonanoid.Generate(tokenAlphabet, n)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return tok, nil
}
