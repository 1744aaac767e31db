// Package portrait orchestrates the generation of one subject in one or
// more styles: research, reference lookup, prompt building, image
// generation, post-processing, evaluation and bounded retry.
//
// Styles are generated concurrently. Every requested style gets exactly one
// evaluation entry in the result whether it succeeds, fails or is skipped
// because its portrait already exists.
package portrait
