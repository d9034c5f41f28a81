// Command admintoken mints a bearer token for the admin stats endpoint.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/jarvistext/jarvis-backend/internal/auth"
)

func main() {
	subject := flag.String("subject", "ops", "token subject")
	flag.Parse()

	secret := os.Getenv("JARVIS_JWT_SECRET")
	if secret == "" {
		log.Fatal("JARVIS_JWT_SECRET is required")
	}

	token, err := auth.NewJWTService(secret, "jarvis").GenerateAdminToken(*subject)
	if err != nil {
		log.Fatal("Failed to generate token:", err)
	}

	fmt.Println(token)
}
