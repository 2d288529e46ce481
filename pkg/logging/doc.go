// Package logging provides structured logging utilities for recipekit components.
//
// # Overview
//
// This package wraps the standard library slog package with recipekit-specific defaults
// and conventions for consistent logging across all components. It supports
// environment-based log level configuration, module/version context injection,
// and automatic source location tracking for debug logs.
//
// # Features
//
//   - Structured JSON logging to stderr
//   - Environment-based log level configuration (LOG_LEVEL)
//   - Automatic module and version context
//   - Source location tracking for debug logs
//   - Flexible log level parsing
//   - Integration with standard library log package
//
// # Log Levels
//
// Supported log levels (case-insensitive):
//   - DEBUG: Detailed diagnostic information with source location
//   - INFO: General informational messages (default)
//   - WARN/WARNING: Warning messages for potentially problematic situations
//   - ERROR: Error messages for failures requiring attention
//
// # Usage
//
// Setting the default logger (recommended):
//
//	func main() {
//	    logging.SetDefaultStructuredLogger("recipekit", "v1.0.0")
//	    defer slog.Info("application started")
//
//	    // Use slog as normal
//	    slog.Info("packaging", "reference", "QtPromise/master")
//	    slog.Debug("detailed state", "data", complexObject)
//	    slog.Error("operation failed", "error", err)
//	}
//
// Creating a custom logger:
//
//	logger := logging.NewStructuredLogger("recipekit", "v2.0.0", "debug")
//	logger.Info("stage started", "stage", "source")
//
// Setting explicit log level:
//
//	logging.SetDefaultStructuredLoggerWithLevel("recipekit", "v1.0.0", "warn")
//
// Converting standard library logger:
//
//	stdLogger := logging.NewLogLogger(slog.LevelInfo, false)
//	stdLogger.Println("legacy log message")
//
// # Environment Configuration
//
// The LOG_LEVEL environment variable controls logging verbosity:
//
//	LOG_LEVEL=debug recipekit create
//	LOG_LEVEL=error recipekit upload --dir ./pkg --to oci://localhost:5000/qtpromise
//
// If LOG_LEVEL is not set, defaults to INFO level.
//
// # Output Format
//
// All logs are written to stderr in JSON format:
//
//	{
//	    "time": "2025-01-15T10:30:00.123Z",
//	    "level": "INFO",
//	    "msg": "package created",
//	    "module": "recipekit",
//	    "version": "v1.0.0",
//	    "files": 17
//	}
//
// Debug logs include source location:
//
//	{
//	    "time": "2025-01-15T10:30:00.123Z",
//	    "level": "DEBUG",
//	    "source": {
//	        "function": "pipeline.(*Runner).Create",
//	        "file": "pipeline.go",
//	        "line": 45
//	    },
//	    "msg": "stage started",
//	    "module": "recipekit",
//	    "version": "v1.0.0"
//	}
//
// # Best Practices
//
// 1. Set default logger early in main():
//
//	func main() {
//	    logging.SetDefaultStructuredLogger("myapp", version)
//	    defer slog.Info("application started")
//	    // ...
//	}
//
// 2. Include context in log messages:
//
//	slog.Info("stage completed",
//	    "stage", "package",
//	    "files", 17,
//	    "duration", elapsed,
//	)
//
// 3. Use appropriate log levels:
//
//	slog.Debug("copy rule staged", "rule", r)  // Development/troubleshooting
//	slog.Info("package created")               // Normal operations
//	slog.Warn("failed to remove source tree")  // Potential issues
//	slog.Error("clone failed")                 // Errors requiring action
//
// 4. Log errors with context:
//
//	slog.Error("stage failed",
//	    "error", err,
//	    "stage", stage,
//	    "invocation", invocationID,
//	)
//
// # Integration
//
// This package is used by:
//   - pkg/cli - CLI command logging
//   - pkg/pipeline - stage lifecycle logging
//   - pkg/source - fetch logging
//   - pkg/packager - copy logging
//
// All components share consistent logging format and configuration.
package logging
