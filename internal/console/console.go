// File: internal/console/console.go
package console

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Severity of an operator-facing line
type Severity int

const (
	Info Severity = iota
	Comment
	Error
)

func (s Severity) String() string {
	switch s {
	case Comment:
		return "comment"
	case Error:
		return "error"
	default:
		return "info"
	}
}

// Writes line-oriented, severity-tagged messages for the operator
type Writer struct {
	out    io.Writer
	styles map[Severity]lipgloss.Style
	styled bool
}

// Creates a Writer on out. When styled is true, lines are colored according to the
// terminal profile detected for out; otherwise they are written verbatim.
func NewWriter(out io.Writer, styled bool) *Writer {
	renderer := lipgloss.NewRenderer(out)
	return &Writer{
		out:    out,
		styled: styled,
		styles: map[Severity]lipgloss.Style{
			Info:    renderer.NewStyle().Foreground(lipgloss.Color("2")),
			Comment: renderer.NewStyle().Foreground(lipgloss.Color("3")),
			Error:   renderer.NewStyle().Foreground(lipgloss.Color("15")).Background(lipgloss.Color("1")),
		},
	}
}

func (w *Writer) Writeln(severity Severity, msg string) {
	if w.styled {
		msg = w.styles[severity].Render(msg)
	}
	fmt.Fprintln(w.out, msg)
}

func (w *Writer) Info(msg string) {
	w.Writeln(Info, msg)
}

func (w *Writer) Comment(msg string) {
	w.Writeln(Comment, msg)
}

func (w *Writer) Error(msg string) {
	w.Writeln(Error, msg)
}

func (w *Writer) Infof(format string, args ...interface{}) {
	w.Writeln(Info, fmt.Sprintf(format, args...))
}

func (w *Writer) Errorf(format string, args ...interface{}) {
	w.Writeln(Error, fmt.Sprintf(format, args...))
}

// Out exposes the underlying stream for callers that render their own blocks (tables)
func (w *Writer) Out() io.Writer {
	return w.out
}
