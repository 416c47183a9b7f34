package script

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrScript is matched by every *Error.
var ErrScript = errors.New("script error")

// EvalError is one parse or runtime error reported by the interpreter.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// Error reports a failed script load or generation. Cause, when set, is
// the Go error a builtin returned, so sentinel checks such as
// errors.Is(err, space.ErrStaleRecord) work through a script.
type Error struct {
	Script string
	Errors []EvalError
	Cause  error
}

func (e *Error) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, ee := range e.Errors {
		msgs[i] = ee.Error()
	}
	return fmt.Sprintf("script %s: %s", e.Script, strings.Join(msgs, "; "))
}

func (e *Error) Is(target error) bool {
	return target == ErrScript
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into EvalError values,
// extracting the line number when the message carries one.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
		}
	}
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}

func scriptError(name string, err, cause error) *Error {
	return &Error{Script: name, Errors: parseZygomysError(err), Cause: cause}
}
