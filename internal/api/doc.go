// Package api exposes portrait generation over HTTP: synchronous generation,
// background batch jobs, existence checks, downloads of images and prompts,
// and a health endpoint. Handlers translate HTTP concerns to the portrait,
// task and storage packages and never leak internal error text.
package api
