package config

import "github.com/loykin/itemd/internal/logger"

func defaultLog() logger.Config {
	return logger.Config{Level: "info", Format: "text"}
}
