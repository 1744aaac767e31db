// Package storage keeps generated portraits and their prompts in the output
// directory. The filename derived from subject and style is the only key, so
// an existing file means the portrait has already been produced.
package storage
