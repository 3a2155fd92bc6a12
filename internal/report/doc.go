// Package report renders the session report in different output
// formats: a human-readable terminal summary, JSON for tooling, and
// Markdown for sharing.
package report
