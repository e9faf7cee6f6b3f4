package model

import (
	"errors"
	"fmt"
	"strings"
)

type DiagnosticKind int

const (
	MalformedNote DiagnosticKind = iota + 1
	UnsupportedPitch
	IrresolvableTubeConflict
	PartSerializationFailure
)

var (
	ErrMalformedNote            = errors.New("malformed note")
	ErrUnsupportedPitch         = errors.New("unsupported pitch")
	ErrIrresolvableTubeConflict = errors.New("irresolvable tube conflict")
	ErrPartSerializationFailure = errors.New("part serialization failure")
)

func (k DiagnosticKind) sentinel() error {
	switch k {
	case MalformedNote:
		return ErrMalformedNote
	case UnsupportedPitch:
		return ErrUnsupportedPitch
	case IrresolvableTubeConflict:
		return ErrIrresolvableTubeConflict
	case PartSerializationFailure:
		return ErrPartSerializationFailure
	}
	return nil
}

func (k DiagnosticKind) String() string {
	switch k {
	case MalformedNote:
		return "MalformedNote"
	case UnsupportedPitch:
		return "UnsupportedPitch"
	case IrresolvableTubeConflict:
		return "IrresolvableTubeConflict"
	case PartSerializationFailure:
		return "PartSerializationFailure"
	}
	return fmt.Sprintf("DiagnosticKind(%d)", int(k))
}

func (k DiagnosticKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *DiagnosticKind) UnmarshalText(text []byte) error {
	for c := MalformedNote; c <= PartSerializationFailure; c++ {
		if c.String() == string(text) {
			*k = c
			return nil
		}
	}
	return fmt.Errorf("unknown diagnostic kind %q", text)
}

// Diagnostic is a recoverable (or voice-fatal) problem found during a run.
// It satisfies error so callers can use errors.Is against the Err* kinds.
type Diagnostic struct {
	Kind      DiagnosticKind `json:"kind"`
	Detail    string         `json:"detail,omitempty"`
	Notes     []Note         `json:"notes,omitempty"`
	Tube      *TubeIdentity  `json:"tube,omitempty"`
	Required  int            `json:"required,omitempty"`
	Available int            `json:"available,omitempty"`
	Performer int            `json:"performer,omitempty"`
	Cause     error          `json:"-"`
}

func (d Diagnostic) Error() string {
	var b strings.Builder
	b.WriteString(d.Kind.String())
	switch d.Kind {
	case MalformedNote, UnsupportedPitch:
		if len(d.Notes) > 0 {
			n := d.Notes[0]
			fmt.Fprintf(&b, ": %s at tick %d (%s)", n.Pitch.Name(), n.Onset, n.Location())
		}
	case IrresolvableTubeConflict:
		if d.Tube != nil {
			fmt.Fprintf(&b, ": %v needs %d copies, %d available", *d.Tube, d.Required, d.Available)
		}
	case PartSerializationFailure:
		fmt.Fprintf(&b, ": performer %d", d.Performer)
	}
	if d.Detail != "" {
		b.WriteString(": ")
		b.WriteString(d.Detail)
	}
	if d.Cause != nil {
		b.WriteString(": ")
		b.WriteString(d.Cause.Error())
	}
	return b.String()
}

func (d Diagnostic) Is(target error) bool {
	return target == d.Kind.sentinel()
}

func (d Diagnostic) Unwrap() error {
	return d.Cause
}

type Diagnostics []Diagnostic

func (ds Diagnostics) Count(kind DiagnosticKind) int {
	var n int
	for _, d := range ds {
		if d.Kind == kind {
			n++
		}
	}
	return n
}

func (ds Diagnostics) Has(kind DiagnosticKind) bool {
	return ds.Count(kind) > 0
}

func (ds Diagnostics) Filter(kind DiagnosticKind) Diagnostics {
	var res Diagnostics
	for _, d := range ds {
		if d.Kind == kind {
			res = append(res, d)
		}
	}
	return res
}

// Err joins every diagnostic into one error, nil when empty.
func (ds Diagnostics) Err() error {
	if len(ds) == 0 {
		return nil
	}
	errs := make([]error, len(ds))
	for i, d := range ds {
		errs[i] = d
	}
	return errors.Join(errs...)
}
