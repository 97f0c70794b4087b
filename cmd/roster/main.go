package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/mesikahq/patient-dashboard/internal/config"
	"github.com/mesikahq/patient-dashboard/internal/directory"
	"github.com/mesikahq/patient-dashboard/internal/logging"
	"github.com/mesikahq/patient-dashboard/internal/patient"
)

func main() {
	// Parse command line flags
	format := flag.String("format", "yaml", "Output format: yaml or json")
	flag.Parse()

	if *format != "yaml" && *format != "json" {
		log.Fatalf("Unknown format %q. Use -format yaml or -format json", *format)
	}

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Error loading .env file: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Logs go to stderr so stdout carries only the roster
	logger, err := logging.New(cfg.Log.Level, "console", "patient-roster")
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loader := directory.NewLoader(directory.LoaderConfig{
		URL:      cfg.API.URL,
		Username: cfg.API.Username,
		Password: cfg.API.Password,
		Timeout:  cfg.API.Timeout,
	}, logger, nil)

	roster, err := loader.Load(ctx)
	if err != nil {
		logger.Error("Error fetching patients", zap.Error(err))
		os.Exit(1)
	}

	if err := write(os.Stdout, *format, roster); err != nil {
		logger.Error("Failed to write roster", zap.Error(err))
		os.Exit(1)
	}
}

func write(w io.Writer, format string, roster []patient.Patient) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(roster)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(roster); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
