// Command quote prices a cart file against a running server for one or more
// leasing durations, printing the local estimate when the server cannot answer.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"leasing_market/internal/logger"
	"leasing_market/pkg/priceclient"

	"go.uber.org/zap"
)

func main() {
	server := flag.String("server", "http://localhost:8080", "marketplace base URL")
	itemsPath := flag.String("items", "cart.json", "JSON array of cart items")
	durations := flag.String("durations", "36", "comma separated leasing durations in months")
	timeout := flag.Duration("timeout", 10*time.Second, "per request timeout")
	flag.Parse()

	zapLogger, err := logger.New(os.Getenv("APP_ENV"))
	if err != nil {
		log.Fatal("Failed to build logger:", err)
	}
	defer zapLogger.Sync()

	raw, err := os.ReadFile(*itemsPath)
	if err != nil {
		zapLogger.Fatal("Failed to read items", zap.Error(err))
	}
	var items []priceclient.Item
	if err := json.Unmarshal(raw, &items); err != nil {
		zapLogger.Fatal("Failed to parse items", zap.Error(err))
	}

	recomputer := priceclient.NewRecomputer(priceclient.NewClient(*server, *timeout), zapLogger)
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")

	for _, field := range strings.Split(*durations, ",") {
		months, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil || months <= 0 {
			zapLogger.Fatal("Invalid duration", zap.String("value", field))
		}
		recomputer.Recompute(context.Background(), items, months)
		if err := encoder.Encode(recomputer.Snapshot().Rounded()); err != nil {
			zapLogger.Fatal("Failed to write snapshot", zap.Error(err))
		}
	}
}
