package helpers

import (
	"strconv"

	"github.com/Jeffail/gabs"
)

// config Saves the bot-config
var config *gabs.Container

// LoadConfig loads the config from $path into $config
func LoadConfig(path string) {
	json, err := gabs.ParseJSONFile(path)

	if err != nil {
		panic(err)
	}

	config = json
}

// GetConfig is a config getter
func GetConfig() *gabs.Container {
	return config
}

// GetConfigString reads a string value at $path, returns "" if the key
// is absent or holds a different type. Missing configuration must not
// crash the engines, callers skip the operation instead.
func GetConfigString(path string) string {
	if config == nil || !config.ExistsP(path) {
		return ""
	}

	value, ok := config.Path(path).Data().(string)
	if !ok {
		return ""
	}

	return value
}

// GetConfigInt reads a numeric value at $path. JSON numbers decode as
// float64, string values get parsed as a convenience. Returns $fallback
// if the key is absent or unparseable.
func GetConfigInt(path string, fallback int) int {
	if config == nil || !config.ExistsP(path) {
		return fallback
	}

	switch value := config.Path(path).Data().(type) {
	case float64:
		return int(value)
	case string:
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return fallback
		}
		return parsed
	}

	return fallback
}

// GetConfigBool reads a boolean value at $path
func GetConfigBool(path string, fallback bool) bool {
	if config == nil || !config.ExistsP(path) {
		return fallback
	}

	value, ok := config.Path(path).Data().(bool)
	if !ok {
		return fallback
	}

	return value
}

// GetConfigStringSlice reads an array of strings at $path
func GetConfigStringSlice(path string) (values []string) {
	if config == nil || !config.ExistsP(path) {
		return values
	}

	children, err := config.Path(path).Children()
	if err != nil {
		return values
	}

	for _, child := range children {
		if value, ok := child.Data().(string); ok && value != "" {
			values = append(values, value)
		}
	}

	return values
}
