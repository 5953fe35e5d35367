package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"raccoonbt/config"
	rlog "raccoonbt/utils/log"
)

func main() {
	configPath := flag.String("config", "backtest.yaml", "backtest config yaml")
	flag.Parse()

	cfg, err := config.LoadFromFile(*configPath)
	if err != nil {
		rlog.Fatal(err)
	}
	if err := rlog.SetLevel(cfg.LogLevel); err != nil {
		rlog.Fatal(err)
	}

	// Ctrl+C 로 그리드 탐색을 중단할 수 있게
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, nil); err != nil {
		rlog.Fatalf("backtest failed: %v", err)
	}
	rlog.Infof("Backtest completed.")
}
