package config

import (
	"os"
	"path/filepath"
)

// Config holds runtime settings for the pwdbox CLI.
//
// Fields:
//   - DataDir: directory holding the vault database.
//   - DatabaseFile: database file name inside DataDir.
//   - BackupDir: directory where default-named backups are written.
//   - BackupKeepCount: how many backup files a cleanup run keeps.
//   - LogLevel: debug, info, warn or error.
type Config struct {
	DataDir         string `env:"DATA_DIR"`
	DatabaseFile    string `env:"DATABASE_FILE"`
	BackupDir       string `env:"BACKUP_DIR"`
	BackupKeepCount int    `env:"BACKUP_KEEP_COUNT"`
	LogLevel        string `env:"LOG_LEVEL"`
}

// LoadDefaults populates c with sensible defaults. The vault lives under
// ~/.pwdbox; if the home directory cannot be resolved, the current directory
// is used instead.
func (c *Config) LoadDefaults() {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	c.DataDir = filepath.Join(home, ".pwdbox")
	c.DatabaseFile = "pwdbox.db"
	c.BackupDir = filepath.Join(c.DataDir, "backups")
	c.BackupKeepCount = 5
	c.LogLevel = "info"
}

// DatabasePath is the full path of the vault database file.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, c.DatabaseFile)
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present), environment variables, and command-line flags. Later
// sources take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
