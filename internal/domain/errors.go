package domain

import "fmt"

// DataSourceError reports a failed read against the metrics source.
type DataSourceError struct {
	Op    string
	Query string
	Err   error
}

func (e *DataSourceError) Error() string {
	return fmt.Sprintf("data source: %s: %v", e.Op, e.Err)
}

func (e *DataSourceError) Unwrap() error {
	return e.Err
}

// SchemaError rejects a whole batch because one row is malformed.
// Row is 1-based; 0 means the batch as a whole (e.g. a missing column).
type SchemaError struct {
	Row    int
	Field  string
	Reason string
	Err    error
}

func (e *SchemaError) Error() string {
	if e.Row == 0 {
		return fmt.Sprintf("schema: %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("schema: row %d: %s: %s", e.Row, e.Field, e.Reason)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}
