package collectas

import (
	"errors"
	"fmt"
	"strings"
)

// Issue codes (exported consts for IDE completion and type safety by convention)
const (
	CodeUnrecognizedDescriptor = "unrecognized_descriptor"
	CodeEmptyTypeTarget        = "empty_type_target"
	CodeInfiniteSequence       = "infinite_sequence"
	CodeEmptyElemUndetermined  = "empty_elem_undetermined"
	CodeDimensionMismatch      = "dimension_mismatch"
	CodeArity                  = "arity"
	CodeElementConversion      = "element_conversion"
	// Input problems outside the collect algorithm itself.
	CodeInvalidType = "invalid_type"
	CodeParseError  = "parse_error"
)

// Sentinels reachable with errors.Is on any Issues value carrying the
// matching code.
var (
	ErrUnrecognizedDescriptor = errors.New("collectas: unrecognized descriptor")
	ErrEmptyTypeTarget        = errors.New("collectas: output type is uninhabited")
	ErrInfiniteSequence       = errors.New("collectas: infinite sequence into a finite container")
	ErrEmptyElemUndetermined  = errors.New("collectas: element type of empty sequence undetermined")
	ErrDimensionMismatch      = errors.New("collectas: dimension mismatch")
	ErrArity                  = errors.New("collectas: arity mismatch")
	ErrElementConversion      = errors.New("collectas: element conversion failed")
)

var codeSentinels = map[string]error{
	CodeUnrecognizedDescriptor: ErrUnrecognizedDescriptor,
	CodeEmptyTypeTarget:        ErrEmptyTypeTarget,
	CodeInfiniteSequence:       ErrInfiniteSequence,
	CodeEmptyElemUndetermined:  ErrEmptyElemUndetermined,
	CodeDimensionMismatch:      ErrDimensionMismatch,
	CodeArity:                  ErrArity,
	CodeElementConversion:      ErrElementConversion,
}

// Issue represents a single collect failure.
type Issue struct {
	Path    string // JSON Pointer into the input sequence (for example: /3); empty for the whole input.
	Code    string // One of the codes listed above.
	Message string
	Hint    string // Optional: remediation hints.
	Cause   error  // Optional: underlying error.
	// Params carries structured parameters (e.g., {"want":2, "got":1})
	// for i18n and observability.
	Params map[string]any
}

// Issues is a collection of collect errors that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := min(n, maxShown)
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := iss[i]
		// e.g. element_conversion at /2: element conversion failed
		path := it.Path
		if path == "" {
			path = "/"
		}
		fmt.Fprintf(b, "%s at %s", it.Code, path)
		if it.Message != "" {
			fmt.Fprintf(b, ": %s", it.Message)
		}
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// Unwrap exposes each issue's cause and code sentinel so errors.Is and
// errors.As see through Issues.
func (iss Issues) Unwrap() []error {
	var out []error
	for _, it := range iss {
		if it.Cause != nil {
			out = append(out, it.Cause)
		}
		if s, ok := codeSentinels[it.Code]; ok {
			out = append(out, s)
		}
	}
	return out
}

// HasCode reports whether err carries an issue with the given code.
func HasCode(err error, code string) bool {
	iss, ok := AsIssues(err)
	if !ok {
		return false
	}
	for _, it := range iss {
		if it.Code == code {
			return true
		}
	}
	return false
}

// AppendIssues appends issues to the destination, initializing the slice when
// needed.
func AppendIssues(dst Issues, more ...Issue) Issues {
	if dst == nil {
		dst = Issues{}
	}
	dst = append(dst, more...)
	return dst
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}
