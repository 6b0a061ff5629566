package main

import (
	"github.com/joho/godotenv"

	"marketdesk/internal/cli"
)

func main() {
	// Missing .env files are fine; environment variables still apply.
	_ = godotenv.Load()

	cli.Execute()
}
