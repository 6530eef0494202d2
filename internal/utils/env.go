package utils

import (
	"os"
	"strconv"
	"strings"

	"github.com/FrejusAdedemi/wim-plateform/internal/logger"
)

func GetEnv(key, defaultVal string, log *logger.Logger) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		if log != nil {
			log.Debug("Env var not set, using default", "key", key, "default", defaultVal)
		}
		return defaultVal
	}
	return v
}

func GetEnvAsInt(key string, defaultVal int, log *logger.Logger) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		if log != nil {
			log.Warn("Env var is not an int, using default", "key", key, "value", v, "default", defaultVal)
		}
		return defaultVal
	}
	return i
}
