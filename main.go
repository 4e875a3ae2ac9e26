// Command sheets-sync mirrors the tables of a public spreadsheet into JSON files.
//
// It runs once by default, or keeps the files fresh on a schedule with watch and
// serve, the latter also publishing the tables over HTTP.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/giygas/sheets-sync/logging"
	"github.com/joho/godotenv"
)

func main() {
	loadEnv()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCommand().ExecuteContext(ctx)
	stop()

	if err != nil && !errors.Is(err, context.Canceled) {
		logging.Error("sheets-sync failed", "error", err)
		_ = logging.Close()
		os.Exit(1)
	}

	_ = logging.Close()
}

// loadEnv reads .env from the working directory, then from the executable directory.
// A missing file is fine, the environment and defaults apply.
func loadEnv() {
	if err := godotenv.Load(); err == nil {
		return
	}

	ex, err := os.Executable()
	if err != nil {
		return
	}

	_ = godotenv.Load(filepath.Join(filepath.Dir(ex), ".env"))
}
