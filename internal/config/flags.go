package config

import (
	"flag"
	"os"

	"github.com/pwdbox/pwdbox/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-d string   vault data directory
//	-b string   backup directory
//	-k int      how many backups cleanup keeps
//	-l string   log level
//
// os.Args is filtered with flagx.FilterArgs so flags owned by other
// components do not trip the parser.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-d", "-b", "-k", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.DataDir, "d", cfg.DataDir, "vault data directory")
	fs.StringVar(&cfg.BackupDir, "b", cfg.BackupDir, "backup directory")
	fs.IntVar(&cfg.BackupKeepCount, "k", cfg.BackupKeepCount, "number of backups cleanup keeps")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level (debug, info, warn, error)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
