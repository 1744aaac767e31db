// Package generation defines the ports between the portrait pipeline and the
// external AI/LLM services it depends on. ImageGenerator produces image bytes
// from a prompt; TextQuerier answers free-text and search-grounded queries
// used for research, reference discovery, fact checking and holistic
// evaluation. The Gemini adapter in internal/platform/gemini implements both,
// and tests substitute in-memory fakes.
package generation
