// Package mocks provides centralized mock implementations for testing.
//
// This package contains mock implementations of the generation ports used
// throughout the application, facilitating consistent testing across the
// codebase without network access. Each mock records its calls so tests can
// assert how many vendor API calls a code path made.
//
// Usage:
//
//	gen := mocks.NewMockImageGeneratorWithImage(768, 1024)
//	text := &mocks.MockTextQuerier{Response: "BIRTH YEAR: 1815"}
//
//	// Use the mocks in your test, then:
//	assert.Equal(t, 4, gen.Calls())
package mocks
