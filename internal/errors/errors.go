// internal/errors/errors.go
package errors

import (
	"errors"
	"fmt"
)

// Kind is a stable classification of wallet errors. Callers decide whether to
// retry or how to present a failure by Kind only.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindInsufficientFunds
	KindSimulation
	KindTransientNetwork
	KindOnChainRejection
	KindConfirmationTimeout
	KindMetadataUnavailable
	KindBuild
)

var kindNames = map[Kind]string{
	KindInternal:            "internal",
	KindValidation:          "validation",
	KindInsufficientFunds:   "insufficient_funds",
	KindSimulation:          "simulation",
	KindTransientNetwork:    "transient_network",
	KindOnChainRejection:    "on_chain_rejection",
	KindConfirmationTimeout: "confirmation_timeout",
	KindMetadataUnavailable: "metadata_unavailable",
	KindBuild:               "build",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is a classified wallet error.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error

	// Logs holds program logs for simulation failures.
	Logs []string
	// Payload is the raw ledger error for on-chain rejections.
	Payload interface{}
}

func (e *Error) Error() string {
	msg := e.Msg
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err == nil {
		return msg
	}
	return fmt.Sprintf("%s: %v", msg, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, op, msg string) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg}
}

func Wrap(kind Kind, op, msg string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg, Err: cause}
}

func Validation(op, msg string) *Error {
	return New(KindValidation, op, msg)
}

func As(err error) (*Error, bool) {
	var target *Error
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// KindOf returns the kind of the outermost classified error in the chain,
// or KindInternal for unclassified errors.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return KindInternal
}

func Is(err error, kind Kind) bool {
	if err == nil {
		return false
	}
	return KindOf(err) == kind
}

// Retryable reports whether the operation that produced err may be repeated
// with an identical payload.
func Retryable(err error) bool {
	return Is(err, KindTransientNetwork)
}

// Ambiguous reports whether the outcome of a submitted transaction is unknown.
func Ambiguous(err error) bool {
	return Is(err, KindConfirmationTimeout)
}
