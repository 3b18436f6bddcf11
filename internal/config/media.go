package config

import (
	"os"
	"strconv"
	"strings"
)

type MediaConfig struct {
	UploadDir         string
	MaxFileSizeBytes  int64
	AllowedExtensions []string
	PublicPathPrefix  string
}

func LoadMediaConfig() *MediaConfig {
	return &MediaConfig{
		UploadDir:         getEnv("MEDIA_UPLOAD_DIR", "uploads"),
		MaxFileSizeBytes:  getEnvAsInt64("MEDIA_MAX_FILE_SIZE", 5*1024*1024),
		AllowedExtensions: getEnvAsList("MEDIA_ALLOWED_EXTENSIONS", []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}),
		PublicPathPrefix:  getEnv("MEDIA_PUBLIC_PREFIX", "/uploads/"),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvAsInt64(key string, defaultVal int64) int64 {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.ParseInt(val, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsList(key string, defaultVal []string) []string {
	if val := os.Getenv(key); val != "" {
		parts := strings.Split(val, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, strings.ToLower(p))
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultVal
}
