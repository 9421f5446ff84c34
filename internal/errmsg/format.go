// Package errmsg classifies errors by kind and provides consistent
// formatting for user-facing messages.
package errmsg

import (
	"errors"
	"fmt"
	"strings"
)

// Op represents an operation that can fail.
type Op string

// Operation constants - grouped by domain.
const (
	// Probing
	OpProbeImage Op = "read image dimensions"
	OpProbeVideo Op = "probe video stream"

	// Canvas and text drawing
	OpCanvasCreate Op = "create canvas"
	OpTextOverlay  Op = "draw text overlay"
	OpTextMeasure  Op = "measure text dimensions"

	// Frame and stream handling
	OpFrameExtract  Op = "extract video frames"
	OpFrameAssemble Op = "assemble frames"
	OpAudioExtract  Op = "extract audio"
	OpStreamJoin    Op = "join video and audio streams"

	// Rendering
	OpFrameRender Op = "render frame"

	// Run management
	OpRunStart    Op = "start generation run"
	OpSaveText    Op = "save text file"
	OpHistorySave Op = "record run history"
	OpHistoryLoad Op = "load run history"
	OpConfigLoad  Op = "load configuration"
)

// Kind classifies an error by what went wrong rather than where.
type Kind int

const (
	KindUnknown Kind = iota

	// KindConfiguration marks an invalid or missing argument combination,
	// detected before any work is dispatched.
	KindConfiguration

	// KindInput marks a source file that does not exist or whose format
	// cannot be read.
	KindInput

	// KindTool marks a non-zero exit from an external tool invocation.
	KindTool

	// KindGuard marks a generation entry point invoked while the same
	// runner already has a run in flight.
	KindGuard
)

// Error carries a kind, the operation that failed and the underlying cause.
type Error struct {
	Kind Kind
	Op   Op
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Configuration creates a configuration-kind error.
func Configuration(format string, args ...any) error {
	return &Error{Kind: KindConfiguration, Err: fmt.Errorf(format, args...)}
}

// Input creates an input-kind error for op.
func Input(op Op, err error) error {
	return &Error{Kind: KindInput, Op: op, Err: err}
}

// Tool creates an external-tool error for op, embedding the tool's captured
// output when there is any.
func Tool(op Op, output string, err error) error {
	output = strings.TrimSpace(output)
	if output != "" {
		err = fmt.Errorf("%w\n%s", err, output)
	}
	return &Error{Kind: KindTool, Op: op, Err: err}
}

// Guard creates a guard-kind error.
func Guard(format string, args ...any) error {
	return &Error{Kind: KindGuard, Err: fmt.Errorf(format, args...)}
}

// KindOf reports the kind of err, or KindUnknown for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// OpOf reports the operation tagged on err, or the empty Op.
func OpOf(err error) Op {
	var e *Error
	if errors.As(err, &e) {
		return e.Op
	}
	return ""
}

// Format creates a user-friendly error message.
func Format(op Op, err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Failed to %s: %v", op, err)
}

// FormatWith creates an error message with additional context.
func FormatWith(op Op, context string, err error) string {
	if err == nil {
		return ""
	}
	if context == "" {
		return Format(op, err)
	}
	return fmt.Sprintf("Failed to %s '%s': %v", op, context, err)
}
