package config

import (
	"github.com/caarlos0/env/v11"
)

// parseEnv overlays Config with PWDBOX_-prefixed environment variables,
// e.g. PWDBOX_DATA_DIR or PWDBOX_BACKUP_KEEP_COUNT.
func parseEnv(cfg *Config) {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: "PWDBOX_"}); err != nil {
		panic(err)
	}
}
