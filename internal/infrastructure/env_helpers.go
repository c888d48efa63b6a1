package infrastructure

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// lookupEnv parses key, falling back to defaultValue when it is unset, blank
// or does not parse.
func lookupEnv[T any](key string, defaultValue T, parse func(string) (T, error)) T {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := parse(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// GetEnvAsInt gets environment variable as int with default value
func GetEnvAsInt(key string, defaultValue int) int {
	return lookupEnv(key, defaultValue, strconv.Atoi)
}

// GetEnvAsDuration gets environment variable as duration with default value
func GetEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	return lookupEnv(key, defaultValue, time.ParseDuration)
}

// GetEnvAsString gets environment variable as string with default value
func GetEnvAsString(key string, defaultValue string) string {
	return lookupEnv(key, defaultValue, func(v string) (string, error) { return v, nil })
}

func GetEnvAsBool(key string, defaultValue bool) bool {
	return lookupEnv(key, defaultValue, strconv.ParseBool)
}

func GetEnvAsFloat(key string, defaultValue float64) float64 {
	return lookupEnv(key, defaultValue, func(v string) (float64, error) { return strconv.ParseFloat(v, 64) })
}
