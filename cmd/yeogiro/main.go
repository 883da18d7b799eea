// Command yeogiro runs the disaster shelter API server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"yeogiro/internal/app"
	"yeogiro/internal/config"
	"yeogiro/pkg/contracts"
)

func main() {
	configFile := flag.String("config", "", "path to a YAML config file (overrides "+config.ConfigFileEnv+")")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(contracts.GetVersionString())
		return
	}
	if *configFile != "" {
		if err := os.Setenv(config.ConfigFileEnv, *configFile); err != nil {
			slog.Error("Failed to set config file", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	application, err := app.NewApplication(nil)
	if err != nil {
		slog.Error("Failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := application.Run(context.Background()); err != nil {
		application.Logger.Error("Application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
