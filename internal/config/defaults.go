package config

// GetDefaults returns the default configuration values
func GetDefaults() map[string]interface{} {
	return map[string]interface{}{
		"schema_dir":    ".",
		"data_dir":      ".",
		"output":        "text",
		"quiet":         false,
		"verbose":       false,
		"show_progress": true,
		"history_file":  "~/.yaql/history",
		"export_dir":    ".",
		"minimize_yaml": false,
	}
}
