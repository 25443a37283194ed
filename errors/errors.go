package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in the pipeline the error occurred
type Phase string

const (
	PhaseLayout   Phase = "layout"   // field tree construction
	PhaseLoad     Phase = "load"     // layout and workbook files
	PhaseResolve  Phase = "resolve"  // value lookup and conversion
	PhaseAssemble Phase = "assemble" // byte buffer assembly
	PhaseEncode   Phase = "encode"   // HEX / S-record output
	PhaseBuild    Phase = "build"    // multi-block orchestration
)

// Kind categorizes the error
type Kind string

const (
	KindInvalidGeometry Kind = "invalid_geometry"
	KindMissingDefault  Kind = "missing_default"
	KindLengthMismatch  Kind = "length_mismatch"
	KindTypeConversion  Kind = "type_conversion"
	KindBlockOverflow   Kind = "block_overflow"
	KindAddressConflict Kind = "address_conflict"
	KindNotFound        Kind = "not_found"
	KindInvalidInput    Kind = "invalid_input"
	KindInvalidData     Kind = "invalid_data"
	KindUnsupported     Kind = "unsupported"
	KindIO              Kind = "io"
	KindCanceled        Kind = "canceled"
)

// Sentinels for errors.Is. They carry no Phase, so they match any phase.
var (
	ErrLayout          = &Error{Kind: KindInvalidGeometry}
	ErrMissingDefault  = &Error{Kind: KindMissingDefault}
	ErrLengthMismatch  = &Error{Kind: KindLengthMismatch}
	ErrTypeConversion  = &Error{Kind: KindTypeConversion}
	ErrBlockOverflow   = &Error{Kind: KindBlockOverflow}
	ErrAddressConflict = &Error{Kind: KindAddressConflict}
	ErrNotFound        = &Error{Kind: KindNotFound}
)

// Error is the structured error type used throughout nvmbuild
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Block  string
	File   string
	Detail string
	Path   []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Block != "" {
		b.WriteString(" in block ")
		b.WriteString(e.Block)
		if e.File != "" {
			b.WriteString(" (")
			b.WriteString(e.File)
			b.WriteByte(')')
		}
	}

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(JoinPath(e.Path))
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error.
// A target without a Phase matches on Kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Phase == "" {
		return e.Kind == t.Kind
	}
	return e.Phase == t.Phase && e.Kind == t.Kind
}

// JoinPath renders a field path. Index segments like "[3]" attach to the
// previous segment without a dot.
func JoinPath(path []string) string {
	var b strings.Builder
	for i, seg := range path {
		if i > 0 && !strings.HasPrefix(seg, "[") {
			b.WriteByte('.')
		}
		b.WriteString(seg)
	}
	return b.String()
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Block sets the block name
func (b *Builder) Block(name string) *Builder {
	b.err.Block = name
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for the pipeline's error taxonomy

// Layout creates a malformed geometry error
func Layout(path []string, detail string, args ...any) *Error {
	return &Error{
		Phase:  PhaseLayout,
		Kind:   KindInvalidGeometry,
		Path:   path,
		Detail: fmt.Sprintf(detail, args...),
	}
}

// MissingDefault reports that no column yielded a value for the key
func MissingDefault(path []string, key string) *Error {
	return &Error{
		Phase:  PhaseResolve,
		Kind:   KindMissingDefault,
		Path:   path,
		Value:  key,
		Detail: fmt.Sprintf("no value for %q in any column; the Default column must be populated", key),
	}
}

// LengthMismatch reports a referenced range with the wrong number of entries
func LengthMismatch(path []string, want, got int) *Error {
	return &Error{
		Phase:  PhaseResolve,
		Kind:   KindLengthMismatch,
		Path:   path,
		Value:  got,
		Detail: fmt.Sprintf("expected %d elements, got %d", want, got),
	}
}

// TypeConversion reports a raw cell that cannot become the declared type
func TypeConversion(path []string, raw any, target string, reason string) *Error {
	detail := fmt.Sprintf("cannot convert %v to %s", raw, target)
	if reason != "" {
		detail += ": " + reason
	}
	return &Error{
		Phase:  PhaseResolve,
		Kind:   KindTypeConversion,
		Path:   path,
		Value:  raw,
		Detail: detail,
	}
}

// BlockOverflow reports a payload that exceeds the declared allocation.
// used is an end offset and may lie past 4 GiB.
func BlockOverflow(used uint64, allocated uint32, what string) *Error {
	over := used - uint64(allocated)
	return &Error{
		Phase:  PhaseAssemble,
		Kind:   KindBlockOverflow,
		Value:  over,
		Detail: fmt.Sprintf("%s needs %d bytes but the block allocates %d (overflow by %d)", what, used, allocated, over),
	}
}

// AddressConflict reports two byte ranges that overlap
func AddressConflict(phase Phase, a, b uint32, detail string) *Error {
	msg := fmt.Sprintf("ranges at 0x%08X and 0x%08X overlap", a, b)
	if detail != "" {
		msg += ": " + detail
	}
	return &Error{
		Phase:  phase,
		Kind:   KindAddressConflict,
		Value:  b,
		Detail: msg,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Value:  name,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string, args ...any) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: fmt.Sprintf(detail, args...),
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// ParseFailed creates a file parsing error
func ParseFailed(what string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInvalidData,
		Detail: fmt.Sprintf("parse %s", what),
		Cause:  cause,
	}
}

// IO wraps a filesystem error
func IO(phase Phase, op, name string, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindIO,
		Detail: fmt.Sprintf("%s %s", op, name),
		Cause:  cause,
	}
}

// WithPath returns a copy of err with prefix prepended to its path.
// Errors other than *Error are wrapped as resolve errors.
func WithPath(err error, prefix ...string) error {
	if err == nil {
		return nil
	}
	e, ok := err.(*Error)
	if !ok {
		return &Error{Phase: PhaseResolve, Kind: KindInvalidData, Path: prefix, Cause: err}
	}
	cp := *e
	cp.Path = append(append([]string(nil), prefix...), e.Path...)
	return &cp
}

// InBlock attaches block and layout file context to err.
func InBlock(block, file string, err error) error {
	if err == nil {
		return nil
	}
	e, ok := err.(*Error)
	if !ok {
		return &Error{Phase: PhaseBuild, Kind: KindIO, Block: block, File: file, Cause: err}
	}
	cp := *e
	cp.Block = block
	cp.File = file
	return &cp
}
