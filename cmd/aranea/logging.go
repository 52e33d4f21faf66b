package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/shaniidev/aranea/internal/config"
	"github.com/shaniidev/aranea/internal/utils"
)

// newLogger opens <domainDir>/logs/aranea.log for appending. The level comes
// from LOG_LEVEL and -v forces debug.
func newLogger(cfg *config.Config, domainDir string) (*logrus.Logger, *os.File, error) {
	dir := filepath.Join(domainDir, "logs")
	if err := utils.EnsureDir(dir); err != nil {
		return nil, nil, fmt.Errorf("create log directory: %w", err)
	}
	file, err := os.OpenFile(filepath.Join(dir, "aranea.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}

	log := logrus.New()
	log.SetOutput(file)
	log.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
	log.SetLevel(logLevel(cfg.Verbose, os.Getenv("LOG_LEVEL")))
	return log, file, nil
}

func logLevel(verbose bool, env string) logrus.Level {
	if verbose {
		return logrus.DebugLevel
	}
	if lvl, err := logrus.ParseLevel(env); err == nil {
		return lvl
	}
	return logrus.InfoLevel
}
