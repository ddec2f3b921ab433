// Package transcript renders turn events as the running chat transcript text.
package transcript

import (
	"fmt"
	"io"
	"strings"

	"pyramid/internal/orchestrator"
)

const (
	Banner        = "Pyramid Model Conference ◭"
	ErrorMark     = "❌"
	AllFailedText = ErrorMark + " All agents failed to respond. Please try again."
)

// Writer is an orchestrator.Sink that writes transcript text to an
// io.Writer. The first write error is kept and later writes are skipped.
type Writer struct {
	w   io.Writer
	err error
}

var _ orchestrator.Sink = (*Writer)(nil)

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Err reports the first write failure, if any.
func (t *Writer) Err() error {
	return t.err
}

func (t *Writer) write(s string) {
	if t.err != nil {
		return
	}
	_, t.err = io.WriteString(t.w, s)
}

func (t *Writer) TurnStarted(userText, timestamp string) {
	t.write(fmt.Sprintf("\n%s | You: %s\n", timestamp, userText))
	t.write(fmt.Sprintf("\n%s | Assistant: ", timestamp))
}

func (t *Writer) AgentStarted(displayName, modelID string) {
	t.write("\n\n" + UsingLine(displayName, modelID) + "\n")
}

func (t *Writer) TextIncrement(text string) {
	t.write(text)
}

func (t *Writer) AgentError(displayName, message string) {
	t.write("\n" + ErrorLine(displayName, message) + "\n")
}

func (t *Writer) AgentEnded(displayName string) {
	t.write("\n" + EndLine(displayName) + "\n")
}

func (t *Writer) AllAgentsFailed() {
	t.write("\n" + AllFailedText + "\n")
}

func (t *Writer) Info(message string) {
	t.write("\n" + message + "\n")
}

func UsingLine(displayName, modelID string) string {
	return fmt.Sprintf("--- Using %s (%s) ---", displayName, modelID)
}

func EndLine(displayName string) string {
	return fmt.Sprintf("--- End of %s response ---", displayName)
}

func ErrorLine(displayName, message string) string {
	return fmt.Sprintf("%s Error with %s: %s", ErrorMark, displayName, message)
}

// LineKind classifies a rendered transcript line for styling.
type LineKind int

const (
	LinePlain LineKind = iota
	LineUser
	LineSeparator
	LineError
)

// Classify reports what kind of transcript line text is.
func Classify(line string) LineKind {
	trimmed := strings.TrimSpace(line)
	switch {
	case strings.HasPrefix(trimmed, ErrorMark):
		return LineError
	case strings.HasPrefix(trimmed, "--- Using ") || strings.HasPrefix(trimmed, "--- End of "):
		return LineSeparator
	case strings.Contains(trimmed, " | You: "):
		return LineUser
	default:
		return LinePlain
	}
}
