package pricedash

import "fmt"

// ConnectionError reports that the database could not be reached or rejected
// the credentials.
type ConnectionError struct {
	Host string
	Port string
	Err  error
}

func (e *ConnectionError) Error() string {
	if e.Host == "" {
		return fmt.Sprintf("unable to connect to database: %v", e.Err)
	}
	return fmt.Sprintf("unable to connect to database at %s:%s: %v", e.Host, e.Port, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// ParseError reports a malformed uploaded file. Line is 1-based and zero when
// the failure is not tied to a row.
type ParseError struct {
	File string
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse %s: line %d: %v", e.File, e.Line, e.Err)
	}
	return fmt.Sprintf("parse %s: %v", e.File, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
