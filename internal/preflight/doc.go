// Package preflight checks a generation request before an image call is
// spent on it: subject data sanity, optional grounded fact checks, style,
// prompt quality, reference quality and known pitfalls. Results are
// advisory; callers decide whether to proceed.
package preflight
