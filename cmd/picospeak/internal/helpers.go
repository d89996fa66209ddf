package internal

import (
	"fmt"
	"runtime"

	"github.com/sipeed/picospeak/pkg/config"
	"github.com/sipeed/picospeak/pkg/logger"
)

const Logo = "🔊"

var (
	version   = "dev"
	gitCommit string
	buildTime string
	goVersion string
)

// ExitError carries a process exit code out of a command's RunE. Whatever
// the user needs to see has already been printed.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// Failure is the exit error for every failed operation.
var Failure = &ExitError{Code: 1}

// LoadConfig reads the environment and applies its logging settings.
func LoadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	if err := setupLogging(cfg.Log); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setupLogging(cfg config.LogConfig) error {
	level, err := logger.ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("PICOSPEAK_LOG_LEVEL: %w", err)
	}
	logger.SetLevel(level)

	if cfg.File != "" {
		if err := logger.EnableFileLogging(cfg.File); err != nil {
			return err
		}
	}
	return nil
}

// FormatVersion returns the version string with optional git commit
func FormatVersion() string {
	v := version
	if gitCommit != "" {
		v += fmt.Sprintf(" (git: %s)", gitCommit)
	}
	return v
}

// FormatBuildInfo returns build time and go version info
func FormatBuildInfo() (string, string) {
	build := buildTime
	goVer := goVersion
	if goVer == "" {
		goVer = runtime.Version()
	}
	return build, goVer
}

// GetVersion returns the version string
func GetVersion() string {
	return version
}
