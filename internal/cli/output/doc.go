// Package output provides output formatting for objhost-cli.
//
//   - formatter.go: Formatter interface and factory
//   - table.go: aligned tables for Tabular values, key/value fallback
//   - json.go: indented JSON
//   - yaml.go: YAML keyed by the JSON field names
//   - spinner.go: progress animation while waiting on the server
package output
