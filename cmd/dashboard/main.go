// Command dashboard is the terminal chat dashboard for the retail sales
// assistant, plus a few one-shot helpers (login, logout, mail, relay).
package main

import (
	"os"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
