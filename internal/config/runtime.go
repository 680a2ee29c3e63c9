package config

import (
	"os"
	"strconv"
)

type Runtime struct {
	HTTPAddr      string
	CacheMaxItems int
	RuleMaxPasses int
	ObsBuffer     int
	TopN          int
	LogLevel      string
	RulesFile     string
}

func Load() Runtime {
	return Runtime{
		HTTPAddr:      getenv("HTTP_ADDR", ":8080"),
		CacheMaxItems: getenvInt("DIAG_CACHE_MAX_ITEMS", 1024, 1),
		RuleMaxPasses: getenvInt("RULES_MAX_PASSES", 1000, 1),
		ObsBuffer:     getenvInt("DIAG_OBS_BUFFER", 4096, 1),
		TopN:          getenvInt("DIAG_TOP_N", 3, 1),
		LogLevel:      getenv("LOG_LEVEL", "info"),
		RulesFile:     os.Getenv("RULES_FILE"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback, min int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < min {
		return fallback
	}
	return v
}
