// Package logging provides opt-in file-based logging with rotation for
// cicli and indexworker. When --debug is set, comprehensive JSON logs are
// written to ~/.codeintel/logs/ for troubleshooting; by default logging
// stays on stderr only.
package logging
