// Command workspace-server starts the TCP collaboration server.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/collabws/workspace-server/internal/directory"
	"github.com/collabws/workspace-server/internal/server"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// main parses configuration, seeds the user directory, and serves until
// interrupted.
func main() {
	// Flags
	addr := flag.String("addr", ":5556", "listen address")
	usersFile := flag.String("users", "", "YAML users file (built-in seed when empty)")
	sweep := flag.Duration("sweep", 15*time.Second, "liveness sweep interval")
	idle := flag.Duration("idle", 30*time.Second, "quiet time before a liveness probe")
	grace := flag.Duration("grace", 30*time.Second, "time allowed to answer a probe")
	flag.Parse()

	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", *addr),
	)

	var (
		dir *directory.MemDirectory
		err error
	)
	if *usersFile != "" {
		dir, err = directory.Load(*usersFile)
	} else {
		dir, err = directory.NewMem(directory.DefaultSeeds())
	}
	if err != nil {
		logger.Fatal("load user directory", zap.Error(err))
	}

	// Context with OS signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.New(server.Config{
		Addr:          *addr,
		SweepInterval: *sweep,
		IdleAfter:     *idle,
		Grace:         *grace,
	}, dir, logger)

	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}
