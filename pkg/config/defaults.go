package config

import (
	"github.com/knadh/koanf/providers/confmap"
)

func DefaultConfig() map[string]interface{} {
	return map[string]interface{}{
		"database": map[string]interface{}{
			"driver":  "sqlite",
			"path":    "lms-reminder.db",
			"port":    5432,
			"sslmode": "disable",
		},
		"redis": map[string]interface{}{
			"url":        "",
			"key_prefix": "lmsr:",
		},
		"telegram": map[string]interface{}{
			"token":   "",
			"chat_id": 0,
		},
		"backend": map[string]interface{}{
			"base_url": "http://localhost:8000",
			"timeout":  "30s",
			"timezone": "UTC",
		},
		"reminders": map[string]interface{}{
			"sync_interval":     "1h",
			"dispatch_interval": "1m",
			"history_capacity":  50,
		},
		"logging": map[string]interface{}{
			"level":      "info",
			"format":     "text",
			"gorm_level": "warn",
			"slow_query": "200ms",
		},
	}
}

func NewDefaultProvider() *confmap.Confmap {
	return confmap.Provider(DefaultConfig(), ".")
}
