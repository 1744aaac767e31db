// Package config loads the portrait generator settings with viper.
//
// Values come from, in increasing precedence: built-in defaults, an optional
// YAML file, and PORTRAIT_* environment variables (PORTRAIT_LLM_MODEL,
// PORTRAIT_GENERATION_OUTPUT_DIR, ...). GOOGLE_API_KEY, GEMINI_MODEL and
// OUTPUT_DIR are accepted as fallbacks. The result is checked with
// validator struct tags before it is returned.
package config
