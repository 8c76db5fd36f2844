package diag

import "fmt"

// Severity classifies how a diagnostic should be treated by the caller.
type Severity int

const (
	Error Severity = iota
	Warning
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	default:
		return "unknown"
	}
}

// Kind identifies the failure class of a diagnostic. The analyzer only ever
// produces the kinds listed here; reporters key their messages off it.
type Kind int

const (
	KindUnknownEnum Kind = iota
	KindDuplicateConverter
	KindInvalidPrimaryKeyDeclaration
	KindDuplicateColumn
	KindDuplicateResultColumnName
	KindUnknownTable
	KindUnknownColumn
	KindUnknownGenerator
	KindArityMismatch
	KindPositionalArityMismatch
	KindUnmatchedField
	KindScalarTypeMismatch
	KindNotAList
	KindNoUsableConstructor
)

var kindNames = map[Kind]string{
	KindUnknownEnum:                  "UnknownEnum",
	KindDuplicateConverter:           "DuplicateConverter",
	KindInvalidPrimaryKeyDeclaration: "InvalidPrimaryKeyDeclaration",
	KindDuplicateColumn:              "DuplicateColumn",
	KindDuplicateResultColumnName:    "DuplicateResultColumnName",
	KindUnknownTable:                 "UnknownTable",
	KindUnknownColumn:                "UnknownColumn",
	KindUnknownGenerator:             "UnknownGenerator",
	KindArityMismatch:                "ArityMismatch",
	KindPositionalArityMismatch:      "PositionalArityMismatch",
	KindUnmatchedField:               "UnmatchedField",
	KindScalarTypeMismatch:           "ScalarTypeMismatch",
	KindNotAList:                     "NotAList",
	KindNoUsableConstructor:          "NoUsableConstructor",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// Span locates a diagnostic in the source file the declaration was parsed
// from. Lines and columns are 1-based; a zero Span means "no location".
type Span struct {
	File      string
	Line      int
	Column    int
	EndLine   int
	EndColumn int
}

func (s Span) IsZero() bool {
	return s == Span{}
}

func (s Span) String() string {
	if s.IsZero() {
		return "<unknown>"
	}
	return fmt.Sprintf("%s:%d:%d", s.File, s.Line, s.Column)
}

// Diagnostic is an immutable finding produced during analysis. The core never
// prints diagnostics itself; it hands them to a reporting collaborator.
type Diagnostic struct {
	Severity Severity
	Kind     Kind
	Message  string
	Span     Span
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s (%s)", d.Span, d.Severity, d.Message, d.Kind)
}

// Errorf builds an error-severity diagnostic.
func Errorf(kind Kind, span Span, format string, args ...any) Diagnostic {
	return Diagnostic{
		Severity: Error,
		Kind:     kind,
		Message:  fmt.Sprintf(format, args...),
		Span:     span,
	}
}

// Warningf builds a warning-severity diagnostic.
func Warningf(kind Kind, span Span, format string, args ...any) Diagnostic {
	return Diagnostic{
		Severity: Warning,
		Kind:     kind,
		Message:  fmt.Sprintf(format, args...),
		Span:     span,
	}
}

// List is an ordered accumulation of diagnostics for a single file. Analysis
// continues past recoverable findings, so a list may mix severities.
type List []Diagnostic

// Add appends a diagnostic and returns the extended list.
func (l List) Add(d Diagnostic) List {
	return append(l, d)
}

// Merge appends all diagnostics from other, preserving order.
func (l List) Merge(other List) List {
	return append(l, other...)
}

// HasErrors reports whether any diagnostic in the list is error severity.
func (l List) HasErrors() bool {
	for _, d := range l {
		if d.Severity == Error {
			return true
		}
	}
	return false
}

// OfKind returns the diagnostics matching kind, in order.
func (l List) OfKind(kind Kind) List {
	var out List
	for _, d := range l {
		if d.Kind == kind {
			out = append(out, d)
		}
	}
	return out
}
