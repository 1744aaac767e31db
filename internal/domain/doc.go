// Package domain contains the core entities of the portrait pipeline:
// portrait styles, researched subject data, reference images and the
// result records produced by generation and evaluation. It also owns the
// filename rules that make the output directory the primary store.
package domain
