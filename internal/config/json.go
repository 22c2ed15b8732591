package config

import (
	"encoding/json"
	"os"

	"github.com/pwdbox/pwdbox/internal/flagx"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Only fields
// present in the file overwrite the running Config.
type JsonConfig struct {
	DataDir         *string `json:"data_dir"`
	DatabaseFile    *string `json:"database_file"`
	BackupDir       *string `json:"backup_dir"`
	BackupKeepCount *int    `json:"backup_keep_count"`
	LogLevel        *string `json:"log_level"`
}

// parseJson overlays Config with values loaded from a JSON file.
//
// The file path comes from the -c/-config flags via flagx.JsonConfigFlags;
// when neither is given, no JSON is loaded. Read and unmarshal errors panic,
// a broken config file should stop startup.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.DataDir != nil {
		cfg.DataDir = *jc.DataDir
	}
	if jc.DatabaseFile != nil {
		cfg.DatabaseFile = *jc.DatabaseFile
	}
	if jc.BackupDir != nil {
		cfg.BackupDir = *jc.BackupDir
	}
	if jc.BackupKeepCount != nil {
		cfg.BackupKeepCount = *jc.BackupKeepCount
	}
	if jc.LogLevel != nil {
		cfg.LogLevel = *jc.LogLevel
	}
}
