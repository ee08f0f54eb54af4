package errors

import (
	"bufio"
	"fmt"
	"os"
	"runtime"
	"strings"
)

// Category groups error codes by the layer that raises them.
type Category string

const (
	CategoryRuntime  Category = "runtime"
	CategorySetup    Category = "setup"
	CategoryProtocol Category = "protocol"
	CategoryConfig   Category = "config"
	CategoryCLI      Category = "cli"
)

// Location identifies where an error originated.
type Location struct {
	File     string
	Line     int
	Column   int
	Function string
}

// String formats the location as file:line[:column].
func (l *Location) String() string {
	if l == nil {
		return ""
	}
	s := l.File
	if l.Line > 0 {
		s = fmt.Sprintf("%s:%d", s, l.Line)
		if l.Column > 0 {
			s = fmt.Sprintf("%s:%d", s, l.Column)
		}
	}
	return s
}

// Error is a structured, coded error with enough context to act on.
type Error struct {
	// Code is the registry code, e.g. "E101".
	Code string

	// Category is the layer that raised the error.
	Category Category

	// Message is a one-line description.
	Message string

	// Detail explains the cause in plain language.
	Detail string

	// Location is the source position the error refers to.
	Location *Location

	// Context holds source lines around Location.
	Context []string

	// Value is the offending value, for assertion failures.
	Value any

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Wrapped
}

// WithLocation records a source position and reads the lines around it.
func (e *Error) WithLocation(file string, line, column int) *Error {
	e.Location = &Location{File: file, Line: line, Column: column}
	e.Context = readContextLines(file, line, 5)
	return e
}

// WithCaller records the caller skip frames above WithCaller, including
// its function name.
func (e *Error) WithCaller(skip int) *Error {
	pc, file, line, ok := runtime.Caller(skip + 1)
	if !ok {
		return e
	}
	e.Location = &Location{File: file, Line: line}
	if fn := runtime.FuncForPC(pc); fn != nil {
		e.Location.Function = fn.Name()
	}
	e.Context = readContextLines(file, line, 5)
	return e
}

// WithValue records the offending value.
func (e *Error) WithValue(v any) *Error {
	e.Value = v
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *Error) WithSuggestion(s string) *Error {
	e.Suggestion = s
	return e
}

// WithDetail replaces the registered explanation.
func (e *Error) WithDetail(d string) *Error {
	e.Detail = d
	return e
}

// Wrap wraps another error.
func (e *Error) Wrap(err error) *Error {
	e.Wrapped = err
	return e
}

// readContextLines reads lines around the specified line number from a file.
func readContextLines(filename string, targetLine, contextSize int) []string {
	file, err := os.Open(filename)
	if err != nil {
		return nil
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	lineNum := 0
	startLine := targetLine - contextSize/2
	endLine := targetLine + contextSize/2

	for scanner.Scan() {
		lineNum++
		if lineNum >= startLine && lineNum <= endLine {
			lines = append(lines, strings.TrimRight(scanner.Text(), " \t"))
		}
		if lineNum > endLine {
			break
		}
	}
	return lines
}

// New creates an Error from a registered code.
func New(code string) *Error {
	t, ok := registry[code]
	if !ok {
		return &Error{Code: code, Message: "Unknown error"}
	}
	return &Error{
		Code:     code,
		Category: t.Category,
		Message:  t.Message,
		Detail:   t.Detail,
	}
}

// Newf creates an uncoded Error with a formatted message.
func Newf(category Category, format string, args ...any) *Error {
	return &Error{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps err under code unless it already is an *Error.
func FromError(err error, code string) *Error {
	if err == nil {
		return nil
	}
	if e, ok := err.(*Error); ok {
		return e
	}
	return New(code).Wrap(err)
}
