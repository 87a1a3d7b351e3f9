package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/paceline/auth-front/internal"
	"github.com/paceline/auth-front/internal/config"
	"github.com/paceline/auth-front/internal/log"
)

var BuildVersion = "dev"

func generateDefaultConfig(path string) error {
	defaultConfig := map[string]any{
		"server": map[string]any{
			"baseURL":     "https://auth.yourcompany.com",
			"addr":        ":8080",
			"resourceURL": "https://api.yourcompany.com",
			"allowedOrigins": []string{
				"https://app.yourcompany.com",
			},
		},
		"oauth": map[string]any{
			"jwtSecret":      map[string]string{"$env": "JWT_SECRET"},
			"accessTokenTtl": "1h",
			"recordTtl":      "10m",
		},
		"upstream": map[string]any{
			"provider":     "strava",
			"clientId":     "your-strava-client-id",
			"clientSecret": map[string]string{"$env": "STRAVA_CLIENT_SECRET"},
			"scopes":       []string{"read", "activity:read_all"},
		},
		"storage": map[string]any{
			"backend": "memory",
		},
		"jobs": map[string]any{
			"queue": "memory",
		},
	}

	data, err := json.MarshalIndent(defaultConfig, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func main() {
	conf := flag.String("config", "", "path to config file (required)")
	version := flag.Bool("version", false, "print version and exit")
	help := flag.Bool("help", false, "print help and exit")
	configInit := flag.String("config-init", "", "generate default config file at specified path")
	validate := flag.Bool("validate", false, "validate config file and exit")
	flag.Parse()
	if *help {
		flag.Usage()
		return
	}
	if *version {
		fmt.Println(BuildVersion)
		return
	}
	if *configInit != "" {
		if err := generateDefaultConfig(*configInit); err != nil {
			log.LogError("Failed to generate config: %v", err)
			os.Exit(1)
		}
		fmt.Printf("Generated default config at: %s\n", *configInit)
		return
	}

	if *conf == "" {
		fmt.Fprintf(os.Stderr, "Error: -config flag is required\n")
		fmt.Fprintf(os.Stderr, "Run with -help for usage information\n")
		os.Exit(1)
	}

	cfg, err := config.Load(*conf)
	if err != nil {
		log.LogError("Failed to load config: %v", err)
		os.Exit(1)
	}

	if *validate {
		fmt.Printf("Config %s is valid\n", *conf)
		return
	}

	log.LogInfoWithFields("main", "Starting auth-front", map[string]any{
		"version": BuildVersion,
		"config":  *conf,
	})

	ctx := context.Background()
	authFront, err := internal.NewAuthFront(ctx, cfg)
	if err != nil {
		log.LogError("Failed to create authorization server: %v", err)
		os.Exit(1)
	}

	if err := authFront.Run(); err != nil {
		log.LogError("Failed to start server: %v", err)
		os.Exit(1)
	}
}
