package main

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	token := flag.String("token", "", "Admin token to hash (generated randomly if empty)")
	cost := flag.Int("cost", bcrypt.DefaultCost, "bcrypt cost factor")
	outputJSON := flag.Bool("json", false, "Output as JSON")

	flag.Parse()

	plaintext := *token
	if plaintext == "" {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			fmt.Fprintf(os.Stderr, "Error generating random token: %v\n", err)
			os.Exit(1)
		}
		plaintext = base64.RawURLEncoding.EncodeToString(buf)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), *cost)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error hashing token: %v\n", err)
		os.Exit(1)
	}

	if *outputJSON {
		output := map[string]string{
			"token": plaintext,
			"hash":  string(hash),
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(output)
	} else {
		fmt.Println("Admin Token Generated")
		fmt.Println("=====================")
		fmt.Printf("Token:  %s\n", plaintext)
		fmt.Printf("Hash:   %s\n", hash)
		fmt.Println()
		fmt.Println("Usage:")
		fmt.Printf("  export ADMIN_TOKEN_HASH='%s'\n", hash)
		fmt.Printf("  curl -H 'Authorization: Bearer %s' -X POST http://localhost:8080/v1/admin/sync\n", plaintext)
	}
}
