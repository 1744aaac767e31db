// Package task runs portrait batches in the background. Jobs are persisted
// before they are queued, so a restart recovers pending and interrupted work,
// and HTTP handlers can report job status while generation is in progress.
package task
