// Package main issues an access token signed with the backend secret, for
// local development against the API.
//
// Usage:
//
//	AUTH_JWT_SECRET=... go run ./cmd/token -email artista@example.com
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/galeriaarte/galeria-server/internal/auth"
)

var (
	userID   = flag.String("user", "", "User id (default: random)")
	email    = flag.String("email", "", "User email")
	audience = flag.String("audience", auth.DefaultAudience, "Token audience")
	ttl      = flag.Duration("ttl", time.Hour, "Token lifetime")
)

func main() {
	flag.Parse()

	secret := os.Getenv("AUTH_JWT_SECRET")
	if secret == "" {
		fmt.Fprintln(os.Stderr, "AUTH_JWT_SECRET is required")
		os.Exit(2)
	}

	id := uuid.New()
	if *userID != "" {
		parsed, err := uuid.Parse(*userID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid user id: %v\n", err)
			os.Exit(2)
		}
		id = parsed
	}

	verifier, err := auth.NewVerifier(secret, *audience)
	if err != nil {
		fmt.Fprintf(os.Stderr, "verifier: %v\n", err)
		os.Exit(1)
	}

	token, err := verifier.Issue(auth.User{ID: id, Email: *email}, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "issue token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
