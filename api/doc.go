// Package api runs one validation: it localizes the resource under test,
// invokes the CSS validator on the local copy and maps the report back to
// the remote URIs.
package api
