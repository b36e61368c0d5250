package main

import (
	"os"

	"github.com/goliatone/go-auth-jwt/cmd/authd/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
