// Command fitcoach is the FitCoachAI terminal client.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"FitCoachAI/internal/cli"
	"FitCoachAI/internal/coach"
	"FitCoachAI/internal/fitclient"
	"github.com/rs/zerolog"
)

func main() {
	defaultPath, err := cli.ConfigPath()
	if err != nil {
		defaultPath = "config.toml"
	}

	configPath := flag.String("config", defaultPath, "path to the TOML config file")
	chatName := flag.String("chat", "", "chat to open: treino or dieta")
	verbose := flag.Bool("v", false, "log client diagnostics to stderr")
	flag.Parse()

	cfg, err := cli.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *chatName != "" {
		ct, err := coach.ParseChatType(*chatName)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: unknown chat %q (use treino or dieta)\n", *chatName)
			os.Exit(2)
		}
		cfg.Chat = ct
	}

	logger := zerolog.Nop()
	if *verbose {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).With().Timestamp().Logger()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	input := cli.NewLineReader(filepath.Dir(*configPath))
	app := cli.NewApp(cfg, fitclient.New(cfg.ServerURL, nil), fitclient.StaticToken(cfg.Token), cli.Options{
		ConfigPath: *configPath,
		Out:        os.Stdout,
		Confirm:    input,
		Logger:     &logger,
	})

	err = app.Run(ctx, input)
	app.Close()
	input.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
