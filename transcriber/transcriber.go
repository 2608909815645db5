package transcriber

import (
	"context"
	"fmt"
)

// Transcriber is the remote speech-to-text boundary: one shot per call,
// no internal retries. The caller decides what a failure means.
type Transcriber interface {
	Name() string
	// Transcribe sends a complete WAV recording (16 kHz mono s16) and
	// returns the recognized text. lang is an optional ISO-639-1 hint;
	// empty means auto-detect. Errors are always *Error.
	Transcribe(ctx context.Context, wav []byte, lang string) (string, error)
}

type ErrorKind int

const (
	// KindConnection: the request never produced an HTTP response
	// (DNS, dial, TLS, timeout).
	KindConnection ErrorKind = iota
	// KindAPI: the service answered with a non-200 status.
	KindAPI
	// KindOther: anything else (malformed response, cancelled context).
	KindOther
)

// Error is the closed error type for the transcription boundary.
type Error struct {
	Kind    ErrorKind
	Code    int // HTTP status for KindAPI, else 0
	Message string
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindConnection:
		return "connection failed: " + e.Message
	case KindAPI:
		return fmt.Sprintf("API error %d: %s", e.Code, e.Message)
	default:
		return e.Message
	}
}

func connErr(err error) *Error {
	return &Error{Kind: KindConnection, Message: err.Error()}
}

func apiErr(code int, msg string) *Error {
	return &Error{Kind: KindAPI, Code: code, Message: msg}
}

func otherErr(format string, args ...any) *Error {
	return &Error{Kind: KindOther, Message: fmt.Sprintf(format, args...)}
}
