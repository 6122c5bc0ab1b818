package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/traxaero/interfaces/internal/config"
	"github.com/traxaero/interfaces/internal/middleware"
	"github.com/traxaero/interfaces/internal/utils"
)

// mint_token prints a bearer token for the admin API, signed with the
// configured jwt.secret.
func main() {
	userID := flag.Uint("user-id", 1, "user id claim")
	username := flag.String("username", "", "username claim")
	role := flag.String("role", middleware.RoleAdmin, "role claim (admin or operator)")
	hours := flag.Int("hours", 0, "lifetime in hours (defaults to jwt.expire_hour)")
	flag.Parse()

	if *username == "" {
		fmt.Fprintln(os.Stderr, "-username is required")
		os.Exit(2)
	}

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *hours <= 0 {
		*hours = cfg.JWT.ExpireHour
	}

	utils.SetJWTSecret(cfg.JWT.Secret)
	token, err := utils.GenerateToken(*userID, *username, *role, *hours)
	if err != nil {
		fmt.Printf("Failed to sign token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
