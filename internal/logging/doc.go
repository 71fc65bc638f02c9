// Package logging provides opt-in file-based logging with rotation for
// docbert. When DOCBERT_LOG is set or --debug is passed, structured
// JSON logs are written to ~/.docbert/logs/ for troubleshooting.
//
// By default, logging is minimal and goes to stderr only.
package logging
