package httputil_test

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/stockpick/pkg/config"
	"github.com/wonny/stockpick/pkg/httputil"
	"github.com/wonny/stockpick/pkg/logger"
)

// Example_paced demonstrates a paced client for scraping
func Example_paced() {
	cfg := &config.Config{
		Env:       "production",
		LogLevel:  "info",
		LogFormat: "json",
	}
	log := logger.New(cfg)

	// 3 req/s, 5s timeout, two retries
	client := httputil.NewWithTimeout(cfg, log, 5*time.Second).
		WithPacing(3, 1).
		WithRetry(2, 500*time.Millisecond)

	body, err := client.GetBody(context.Background(), "https://finance.naver.com/")
	if err != nil {
		fmt.Printf("Request failed: %v\n", err)
		return
	}

	fmt.Printf("Fetched %d bytes\n", len(body))
}
