package errors

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// ANSI color codes for terminal output.
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
	colorBold   = "\033[1m"
)

// Formatter renders errors for a terminal.
type Formatter struct {
	// Color enables ANSI escapes.
	Color bool
}

func (f Formatter) paint(code, text string) string {
	if !f.Color {
		return text
	}
	return code + text + colorReset
}

// Format renders e across several lines: header, location with source
// context, detail, offending value and hint.
func (f Formatter) Format(e *Error) string {
	var b strings.Builder

	b.WriteString(f.paint(colorRed+colorBold, "ERROR "))
	if e.Code != "" {
		b.WriteString(f.paint(colorBold, e.Code+": "))
	}
	b.WriteString(e.Message)
	b.WriteString("\n")

	if e.Location != nil {
		b.WriteString("\n  ")
		b.WriteString(f.paint(colorCyan, e.Location.String()))
		if e.Location.Function != "" {
			b.WriteString(f.paint(colorGray, " in "+e.Location.Function))
		}
		b.WriteString("\n")

		if len(e.Context) > 0 {
			b.WriteString("\n")
			first := e.Location.Line - len(e.Context)/2
			for i, line := range e.Context {
				n := first + i
				marker := "    "
				if n == e.Location.Line {
					marker = "  " + f.paint(colorRed, "→ ")
				}
				fmt.Fprintf(&b, "%s%4d%s%s\n", marker, n, f.paint(colorGray, " │ "), line)
				if n == e.Location.Line && e.Location.Column > 0 {
					b.WriteString("       ")
					b.WriteString(f.paint(colorGray, "│ "))
					b.WriteString(strings.Repeat(" ", e.Location.Column-1))
					b.WriteString(f.paint(colorRed, "^"))
					b.WriteString("\n")
				}
			}
		}
	}

	if e.Detail != "" {
		b.WriteString("\n")
		for _, line := range wrapText(e.Detail, 70) {
			b.WriteString("  ")
			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	if e.Value != nil {
		b.WriteString("\n  ")
		b.WriteString(f.paint(colorYellow, "Value: "))
		fmt.Fprintf(&b, "%#v\n", e.Value)
	}

	if e.Wrapped != nil {
		b.WriteString("\n  ")
		b.WriteString(f.paint(colorGray, "Cause: "))
		b.WriteString(e.Wrapped.Error())
		b.WriteString("\n")
	}

	if e.Suggestion != "" {
		b.WriteString("\n  ")
		b.WriteString(f.paint(colorCyan, "Hint: "))
		b.WriteString(e.Suggestion)
		b.WriteString("\n")
	}

	return b.String()
}

// Compact renders e on one line.
func Compact(e *Error) string {
	var b strings.Builder
	if e.Location != nil {
		b.WriteString(e.Location.String())
		b.WriteString(": ")
	}
	b.WriteString(e.Error())
	return b.String()
}

type jsonError struct {
	Code       string    `json:"code,omitempty"`
	Category   Category  `json:"category"`
	Message    string    `json:"message"`
	Detail     string    `json:"detail,omitempty"`
	Location   *Location `json:"location,omitempty"`
	Value      string    `json:"value,omitempty"`
	Suggestion string    `json:"suggestion,omitempty"`
	Cause      string    `json:"cause,omitempty"`
}

// MarshalJSON encodes the error for machine consumers such as the CLI's
// --format json output.
func (e *Error) MarshalJSON() ([]byte, error) {
	j := jsonError{
		Code:       e.Code,
		Category:   e.Category,
		Message:    e.Message,
		Detail:     e.Detail,
		Location:   e.Location,
		Suggestion: e.Suggestion,
	}
	if e.Value != nil {
		j.Value = fmt.Sprintf("%#v", e.Value)
	}
	if e.Wrapped != nil {
		j.Cause = e.Wrapped.Error()
	}
	return json.Marshal(j)
}

// wrapText wraps text to the specified width.
func wrapText(text string, width int) []string {
	if text == "" {
		return nil
	}
	var lines []string
	var current strings.Builder
	for _, word := range strings.Fields(text) {
		if current.Len() > 0 && current.Len()+len(word)+1 > width {
			lines = append(lines, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}
	return lines
}

// Print writes err to w, formatted when it is an *Error.
func Print(w io.Writer, err error, color bool) {
	if e, ok := err.(*Error); ok {
		fmt.Fprint(w, Formatter{Color: color}.Format(e))
		return
	}
	fmt.Fprintf(w, "%s %s\n", Formatter{Color: color}.paint(colorRed+colorBold, "ERROR"), err)
}
