package pricedash

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKinds(t *testing.T) {
	cause := errors.New("password authentication failed")

	connErr := fmt.Errorf("render: %w", &ConnectionError{Host: "db", Port: "5432", Err: cause})
	var ce *ConnectionError
	assert.ErrorAs(t, connErr, &ce)
	assert.ErrorIs(t, connErr, cause)
	assert.EqualError(t, ce, "unable to connect to database at db:5432: password authentication failed")
	assert.EqualError(t, &ConnectionError{Err: cause}, "unable to connect to database: password authentication failed")

	parseErr := &ParseError{File: "p.csv", Line: 4, Err: errors.New("invalid price")}
	assert.EqualError(t, parseErr, "parse p.csv: line 4: invalid price")
	assert.EqualError(t, &ParseError{File: "p.xlsx", Err: errors.New("bad zip")}, "parse p.xlsx: bad zip")
	assert.False(t, errors.As(parseErr, &ce))
}
