package config

import (
	"os"
	"path/filepath"
)

const AppName = "gridsync"

var (
	// AppConfigDir is ~/.config/gridsync
	AppConfigDir string

	// AppStateDir is ~/.local/state/gridsync
	AppStateDir string

	// AppConfigFile is ~/.config/gridsync/gridsync.yaml
	AppConfigFile string

	// AppCredentialsFile is ~/.config/gridsync/credentials
	AppCredentialsFile string

	// AppLogFile is ~/.local/state/gridsync/gridsync.log
	AppLogFile string
)

// InitLocs initializes all application directory paths. It respects
// XDG environment variables if set.
func InitLocs() error {
	home := userHomeDir()

	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		configHome = filepath.Join(home, ".config")
	}
	stateHome := os.Getenv("XDG_STATE_HOME")
	if stateHome == "" {
		stateHome = filepath.Join(home, ".local", "state")
	}

	AppConfigDir = filepath.Join(configHome, AppName)
	AppStateDir = filepath.Join(stateHome, AppName)
	AppConfigFile = filepath.Join(AppConfigDir, AppName+".yaml")
	AppCredentialsFile = filepath.Join(AppConfigDir, "credentials")
	AppLogFile = filepath.Join(AppStateDir, AppName+".log")

	for _, dir := range []string{AppConfigDir, AppStateDir} {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return err
		}
	}
	return nil
}

func userHomeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
