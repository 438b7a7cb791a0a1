package main

import (
	"os"

	"github.com/Davide9292/Vibe-Coding-Award-sub000/pkg/logger"
	_ "github.com/joho/godotenv/autoload"
)

func main() {
	logger.Init("info")
	if err := newRootCommand().Execute(); err != nil {
		logger.Error().Err(err).Msg("Error executing command")
		os.Exit(1)
	}
}
