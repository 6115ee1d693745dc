// Command devtoken mints a bearer token signed with the server's JWT settings
// for local testing against the API.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"

	jwttoken "github.com/vishvendra9627/tourist-safety-app/internal/jwt_token"
	"github.com/vishvendra9627/tourist-safety-app/internal/platform/config"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	email := flag.String("email", "", "owner email to embed in the token")
	subject := flag.String("subject", "", "token subject; a random uuid when empty")
	ttl := flag.Duration("ttl", cfg.Auth.TokenTTL, "token lifetime")
	flag.Parse()

	if *email == "" {
		fmt.Fprintln(os.Stderr, "devtoken: -email is required")
		os.Exit(2)
	}
	if *subject == "" {
		*subject = uuid.NewString()
	}

	svc := jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.JWTIssuer, cfg.Auth.JWTAudience)
	token, err := svc.GenerateAccessToken(*email, *subject, *ttl)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(token)
}
