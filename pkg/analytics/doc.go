// Package analytics defines the monetization event model and the Emitter
// collaborator interface the engine emits through. Transport is out of
// scope: the slog emitter covers local/log-pipeline use and the Recorder
// backs tests.
package analytics
