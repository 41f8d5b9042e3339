// Package decode parses the record payload located in a sheet page.
//
// The payload is a JavaScript object literal rather than strict JSON: keys
// may be unquoted, strings single-quoted, and trailing commas appear. It is
// decoded as JSON5, and only the first value is read, so whatever follows
// the literal in the script is ignored.
package decode
