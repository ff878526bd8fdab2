package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/moudsen/mailGraph/internal/api"
	"github.com/moudsen/mailGraph/internal/cleanup"
	"github.com/moudsen/mailGraph/internal/config"
	"github.com/moudsen/mailGraph/internal/dispatch"
	"github.com/moudsen/mailGraph/internal/logging"
	"github.com/moudsen/mailGraph/internal/models"
)

func main() {
	configPath := flag.String("config", "config.json", "path to the JSON config file")
	flag.Parse()

	args := flag.Args()
	command := "serve"
	if len(args) > 0 {
		command = args[0]
	}

	switch command {
	case "serve":
		runServe(*configPath)
	case "test":
		runTest(*configPath)
	case "cleanup":
		runCleanup(*configPath)
	case "config":
		runConfig(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q (expected serve, test, cleanup or config)\n", command)
		os.Exit(1)
	}
}

func runServe(configPath string) {
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.CheckPaths(); err != nil {
		log.Fatalf("Startup check failed: %v", err)
	}

	router := api.NewRouter(cfg)
	log.Printf("Starting mailGraph on %s", cfg.Listen)
	if err := router.Run(cfg.Listen); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// runTest synthesizes the inbound payload from local configuration and runs
// one notification end to end, printing the result. Debug logging is on so
// the full trace lands on stdout.
func runTest(configPath string) {
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.CheckPaths(); err != nil {
		log.Fatalf("Startup check failed: %v", err)
	}
	if cfg.Test.Recipient == "" || cfg.Test.BaseURL == "" {
		log.Fatalf("Test mode requires test_recipient and test_base_url in the config file")
	}

	req := models.Request{
		EventID:     cfg.Test.EventID,
		Recipient:   cfg.Test.Recipient,
		BaseURL:     cfg.Test.BaseURL,
		Duration:    cfg.Test.Duration,
		GraphWidth:  450,
		GraphHeight: 120,
		Period:      "48h",
		Debug:       true,
		Info:        map[string]string{},
	}
	if req.BaseURL[len(req.BaseURL)-1] != '/' {
		req.BaseURL += "/"
	}

	logger := logging.New(cfg.Paths.Log, true)
	orchestrator, err := dispatch.NewForRequest(cfg, req, logger)
	if err != nil {
		log.Fatalf("Setup failed: %v", err)
	}

	messageID, err := orchestrator.Run(context.Background(), req)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	fmt.Printf("{\"messageId\":%q}\n", messageID)
}

func runCleanup(configPath string) {
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := logging.New("", false)
	imageAge := time.Duration(cfg.Retention.ImageDays) * 24 * time.Hour
	logAge := time.Duration(cfg.Retention.LogDays) * 24 * time.Hour

	removed, err := cleanup.Sweep(cfg.Paths.Images, imageAge, logger)
	if err != nil {
		log.Fatalf("Image cleanup failed: %v", err)
	}
	logger.Infof("# Removed %d aged images", removed)

	removed, err = cleanup.Sweep(cfg.Paths.Log, logAge, logger)
	if err != nil {
		log.Fatalf("Log cleanup failed: %v", err)
	}
	logger.Infof("# Removed %d aged log files", removed)
}

// runConfig edits the flat key/value config file:
// config <file> create|add|replace|remove|list [key] [value]
func runConfig(args []string) {
	if len(args) < 2 {
		fmt.Println("Usage: mailgraph config <file> <command>")
		fmt.Println("CREATE                         create a new config file")
		fmt.Println("ADD '<key>' '<value>'          add a new keypair to the config file")
		fmt.Println("REPLACE '<key>' '<newvalue>'   change value for a specific key")
		fmt.Println("REMOVE '<key>'                 remove the specific key")
		fmt.Println("LIST                           list configured keys/values")
		os.Exit(1)
	}

	path := args[0]
	command := args[1]
	rest := args[2:]

	fail := func(format string, fArgs ...any) {
		fmt.Fprintf(os.Stderr, format+"\n", fArgs...)
		os.Exit(1)
	}

	mustRead := func() map[string]string {
		if _, err := os.Stat(path); err != nil {
			fail("Config file not found. Create a new one with CREATE command or specify correct path?")
		}
		values, err := config.ReadFile(path)
		if err != nil {
			fail("Invalid JSON format in config file?!")
		}
		return values
	}

	switch {
	case strings.EqualFold(command, "create"):
		if _, err := os.Stat(path); err == nil {
			fail("Config file already exists.")
		}
		if err := config.WriteFile(path, map[string]string{}); err != nil {
			fail("Cannot create config file: %v", err)
		}
		fmt.Println("New config file created")

	case strings.EqualFold(command, "add"):
		values := mustRead()
		if len(rest) < 1 {
			fail("No key specified?")
		}
		if _, exists := values[rest[0]]; exists {
			fail("Key already exists. Use REPLACE to modify value or REMOVE key first.")
		}
		if len(rest) < 2 {
			fail("No value specified?")
		}
		values[rest[0]] = rest[1]
		if err := config.WriteFile(path, values); err != nil {
			fail("Cannot write config file: %v", err)
		}

	case strings.EqualFold(command, "replace"):
		values := mustRead()
		if len(rest) < 1 {
			fail("No key specified?")
		}
		if _, exists := values[rest[0]]; !exists {
			fail("Key does not exist. Use ADD to add a new key and value.")
		}
		if len(rest) < 2 {
			fail("No value specified?")
		}
		values[rest[0]] = rest[1]
		if err := config.WriteFile(path, values); err != nil {
			fail("Cannot write config file: %v", err)
		}

	case strings.EqualFold(command, "remove"):
		values := mustRead()
		if len(rest) < 1 {
			fail("No key specified?")
		}
		if _, exists := values[rest[0]]; !exists {
			fail("Key does not exist.")
		}
		if len(rest) > 1 {
			fail("No value expected?")
		}
		delete(values, rest[0])
		if err := config.WriteFile(path, values); err != nil {
			fail("Cannot write config file: %v", err)
		}

	case strings.EqualFold(command, "list"):
		values := mustRead()
		for key, value := range values {
			fmt.Printf("  %q => %q\n", key, value)
		}

	default:
		fail("Unknown command?")
	}
}
