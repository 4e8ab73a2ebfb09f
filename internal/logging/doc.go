// Package logging configures the process-wide slog logger.
//
// Records go to a size-rotated log file and to stderr. The console only
// shows warnings unless verbose output is requested.
package logging
