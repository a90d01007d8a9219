package config_test

import (
	"fmt"

	"github.com/wonny/stockpick/pkg/config"
)

// Example demonstrates how to use the config package
func Example() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		return
	}

	// 전송 모드에서만 텔레그램 자격증명 필요
	if err := cfg.RequireDelivery(); err != nil {
		fmt.Printf("Delivery disabled: %v\n", err)
	}

	fmt.Printf("Environment: %s\n", cfg.Env)
	fmt.Printf("Inference enabled: %v\n", cfg.Inference.Enabled())
}
