package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/wtnb75/hellostatic"
)

// Fixed address, current directory, one connection at
// a time, 1024-byte buffer and literal prefix matching.
func realMain() error {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})))

	ctx := context.Background()
	server, err := hellostatic.New(ctx, hellostatic.LegacyConfig())
	if err != nil {
		return err
	}
	return server.ListenAndServe(ctx)
}

func main() {
	if err := realMain(); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
