package common

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbor/models"
)

var (
	globalLogger arbor.ILogger
	loggerMutex  sync.RWMutex
)

// GetLogger returns the global logger instance
func GetLogger() arbor.ILogger {
	loggerMutex.RLock()
	if globalLogger != nil {
		loggerMutex.RUnlock()
		return globalLogger
	}
	loggerMutex.RUnlock()

	loggerMutex.Lock()
	defer loggerMutex.Unlock()

	if globalLogger == nil {
		globalLogger = arbor.NewLogger().WithConsoleWriter(consoleWriter("15:04:05"))
	}
	return globalLogger
}

// InitLogger builds the logger from the logging section and stores it globally
func InitLogger(config *Config) arbor.ILogger {
	loggerMutex.Lock()
	defer loggerMutex.Unlock()

	timeFormat := config.Logging.TimeFormat
	if timeFormat == "" {
		timeFormat = "15:04:05"
	}

	logger := arbor.NewLogger()

	hasFileOutput := false
	hasStdoutOutput := false
	for _, output := range config.Logging.Output {
		switch output {
		case "file":
			hasFileOutput = true
		case "stdout", "console":
			hasStdoutOutput = true
		}
	}

	if hasFileOutput {
		if logFile, err := logFilePath(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: file logging disabled: %v\n", err)
		} else {
			logger = logger.WithFileWriter(models.WriterConfiguration{
				Type:       models.LogWriterTypeFile,
				FileName:   logFile,
				TimeFormat: timeFormat,
				MaxSize:    50 * 1024 * 1024,
				MaxBackups: 3,
				TextOutput: true,
			})
		}
	}

	if hasStdoutOutput || !hasFileOutput {
		logger = logger.WithConsoleWriter(consoleWriter(timeFormat))
	}

	logger = logger.WithLevelFromString(config.Logging.Level)

	globalLogger = logger
	return logger
}

func consoleWriter(timeFormat string) models.WriterConfiguration {
	return models.WriterConfiguration{
		Type:       models.LogWriterTypeConsole,
		TimeFormat: timeFormat,
		TextOutput: true,
	}
}

// logFilePath places folio.log in a logs directory next to the executable
func logFilePath() (string, error) {
	execPath, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to get executable path: %w", err)
	}
	logsDir := filepath.Join(filepath.Dir(execPath), "logs")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create logs directory: %w", err)
	}
	return filepath.Join(logsDir, "folio.log"), nil
}
