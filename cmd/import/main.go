package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/aific/finances-backend/internal/cli"
	"github.com/aific/finances-backend/internal/infrastructure/config"
)

func main() {
	// Optional .env for local development
	_ = godotenv.Load()

	var configFile string
	flag.StringVar(&configFile, "config", "", "Configuration file path")
	flags := cli.ParseImportFlags()

	path := configFile
	if path == "" {
		path = "config.yaml"
	}
	cfg := config.LoadOrEnvWithPath(path)

	if err := cli.RunImport(cfg, flags); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
