package types

import (
	"errors"
	"fmt"
)

type ErrorKind int

const (
	KindNone ErrorKind = iota // no error
	KindTransport
	KindConfig
	KindRaceInProgress
	KindClockSkew
	KindTimeout
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "None"
	case KindTransport:
		return "TransportError"
	case KindConfig:
		return "ConfigError"
	case KindRaceInProgress:
		return "RaceInProgress"
	case KindClockSkew:
		return "ClockSkew"
	case KindTimeout:
		return "Timeout"
	}

	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

var (
	// ErrEmptyHead is returned by a block source when the node has no chain head to report.
	ErrEmptyHead = errors.New("empty chain head response")

	ErrRaceInProgress = errors.New("a race is already in progress")
	ErrNoActiveRace   = errors.New("no race has been armed")
)

type ConfigError struct {
	Field string
	Err   error
}

func NewConfigError(field string, format string, args ...interface{}) error {
	return &ConfigError{
		Field: field,
		Err:   fmt.Errorf(format, args...),
	}
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error [%s]: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

func (e *ConfigError) Kind() ErrorKind {
	return KindConfig
}

// PollError is the classified failure of one poll cycle. It is stored in PollerState and never
// stops the poll loop.
type PollError struct {
	Kind ErrorKind
	Err  error
}

func NewTransportError(err error) *PollError {
	return &PollError{
		Kind: KindTransport,
		Err:  err,
	}
}

func (e *PollError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *PollError) Unwrap() error {
	return e.Err
}

func (e *PollError) MarshalText() ([]byte, error) {
	return []byte(e.Error()), nil
}
