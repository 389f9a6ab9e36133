// Package fault tags failures of the scoring pipeline with a kind so that the
// outermost boundary can decide how to degrade.
package fault

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindResourceUnavailable
	KindProcessing
)

var (
	ErrValidation          = errors.New("validation error")
	ErrResourceUnavailable = errors.New("resource unavailable")
	ErrProcessing          = errors.New("processing fault")
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindResourceUnavailable:
		return "resource_unavailable"
	case KindProcessing:
		return "processing"
	default:
		return "unknown"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindValidation:
		return ErrValidation
	case KindResourceUnavailable:
		return ErrResourceUnavailable
	case KindProcessing:
		return ErrProcessing
	default:
		return nil
	}
}

// Fault is a failure raised by a pipeline stage.
type Fault struct {
	Kind Kind
	Op   string
	Err  error
}

func (f *Fault) Error() string {
	if f.Err == nil {
		return fmt.Sprintf("%s: %s", f.Op, f.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", f.Op, f.Kind, f.Err)
}

func (f *Fault) Unwrap() error { return f.Err }

// Is reports whether target is the sentinel error of the fault kind.
func (f *Fault) Is(target error) bool {
	s := f.Kind.sentinel()
	return s != nil && target == s
}

func Validation(op, message string) error {
	return &Fault{Kind: KindValidation, Op: op, Err: errors.New(message)}
}

func Processing(op string, err error) error {
	return &Fault{Kind: KindProcessing, Op: op, Err: err}
}

func Unavailable(op string, err error) error {
	return &Fault{Kind: KindResourceUnavailable, Op: op, Err: err}
}

// KindOf returns the kind of the first fault in the chain of err.
func KindOf(err error) Kind {
	var f *Fault
	if errors.As(err, &f) {
		return f.Kind
	}
	return KindUnknown
}
