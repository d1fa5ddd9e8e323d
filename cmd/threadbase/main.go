package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/dvarga/threadbase/internal/config"
	"github.com/dvarga/threadbase/internal/shell"
	"github.com/dvarga/threadbase/internal/store"
)

func main() {
	var (
		mailDir = pflag.String("dir", "", "post directory (overrides config)")
		command = pflag.StringP("command", "c", "", "run a single command and exit")
	)
	pflag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if *mailDir != "" {
		cfg.MailDir = *mailDir
	}

	if err := os.MkdirAll(cfg.MailDir, 0o755); err != nil {
		logger.Fatal().Err(err).Str("dir", cfg.MailDir).Msg("failed to create post directory")
	}

	s := store.New()
	if err := s.LoadDir(cfg.MailDir); err != nil {
		logger.Fatal().Err(err).Str("dir", cfg.MailDir).Msg("failed to load posts")
	}
	logger.Info().Int("posts", s.Len()).Str("dir", cfg.MailDir).Msg("post database loaded")

	sh := shell.New(s, cfg.MailDir, os.Stdout, logger)

	if *command != "" {
		if _, err := sh.Execute(*command); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := sh.Run(os.Stdin); err != nil {
		logger.Fatal().Err(err).Msg("shell failed")
	}
}
