package main

import (
	"os"

	"xtags/internal/logging"
)

func main() {
	logger := logging.NewLogger(logging.Config{
		Format: logging.HumanFormat,
		Level:  logging.InfoLevel,
	})

	if err := rootCmd.Execute(); err != nil {
		logger.Error("Command failed", map[string]interface{}{
			"error": err.Error(),
		})
		printSuggestedFixes(os.Stderr, err)
		os.Exit(1)
	}
}
