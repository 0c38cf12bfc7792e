// Command kpiserver serves the generated KPI tables over HTTP, streams
// pipeline progress over a websocket and regenerates the tables on request or
// on the configured schedule.
package main

import (
	"log/slog"
	"os"

	"github.com/lucbra21/audaxIndex/internal/app"
)

func main() {
	application, err := app.NewApplication()
	if err != nil {
		slog.Error("Failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		slog.Error("Application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
