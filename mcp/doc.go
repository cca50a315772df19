// Package mcp implements the Model Context Protocol server for csswrap.
//
// It exposes a single validate_css tool that runs a validation and returns
// the report as JSON.
package mcp
