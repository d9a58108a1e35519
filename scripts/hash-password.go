package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/quizadmin/quiz-admin-server/internal/util"
)

// Prints an argon2id hash suitable for admins.password_hash. Without an
// argument the password is taken from ADMIN_PASSWORD (a .env file is honored).
func main() {
	password := ""
	if len(os.Args) >= 2 {
		password = os.Args[1]
	} else {
		_ = godotenv.Load()
		password = os.Getenv("ADMIN_PASSWORD")
	}

	if password == "" {
		fmt.Fprintf(os.Stderr, "Usage: go run scripts/hash-password.go <password>\n")
		os.Exit(1)
	}

	hash, err := util.NewPasswordHasher(util.DefaultArgon2Params).Hash(password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(hash)
}
