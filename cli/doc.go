// Package cli implements the command-line interface for csswrap.
//
// The cli package provides:
// - Command-line argument parsing and validation
// - Report rendering as text, Markdown or JSON
// - An interactive pager for long reports
// - Opening the online validator in a browser
package cli
