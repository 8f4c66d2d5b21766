package internal

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/tinyland-inc/botfleet/pkg/config"
)

const Logo = "🤖"

var (
	version   = "dev"
	gitCommit string
)

func GetConfigPath() string {
	if path := os.Getenv("BOTFLEET_CONFIG"); path != "" {
		return path
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".botfleet", "config.json")
}

func LoadConfig() (*config.Config, error) {
	return config.LoadConfig(GetConfigPath())
}

// FormatVersion returns the version string with optional git commit
func FormatVersion() string {
	v := version
	if gitCommit != "" {
		v += fmt.Sprintf(" (git: %s)", gitCommit)
	}
	return v
}
