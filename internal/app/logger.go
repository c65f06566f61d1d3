package app

import (
	"strings"

	"github.com/prashan-s/cinema-labs/pkg/logger"
)

// ConfigureLogging wires the process-wide logger from the configured level.
// An empty level means info, which keeps the production encoder; "debug"
// switches to the development encoder used by the sync CLI's --verbose flag.
func ConfigureLogging(level string) error {
	level = strings.TrimSpace(level)
	if level == "" {
		level = "info"
	}
	return logger.Init(level)
}
