// File: internal/ui/prompt/prompt.go
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Prompter asks the operator to confirm destructive replica operations
type Prompter interface {
	// Confirm shows message and succeeds only if the operator types expectedValue
	Confirm(message string, expectedValue string) (bool, error)
}

// StandardPrompter reads answers line by line from in and writes questions to out
type StandardPrompter struct {
	reader *bufio.Reader
	writer io.Writer
}

func NewStandardPrompter(in io.Reader, out io.Writer) *StandardPrompter {
	return &StandardPrompter{
		reader: bufio.NewReader(in),
		writer: out,
	}
}

func (p *StandardPrompter) Confirm(message string, expectedValue string) (bool, error) {
	if expectedValue == "" {
		return false, fmt.Errorf("expected confirmation value cannot be empty")
	}

	fmt.Fprintln(p.writer, message)
	fmt.Fprintf(p.writer, "Type '%s' to continue: ", expectedValue)

	input, err := p.reader.ReadString('\n')
	// A closed stdin yields an empty answer, which never confirms
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("error reading user input: %w", err)
	}

	return strings.TrimSpace(input) == expectedValue, nil
}

// AutoConfirm is used when the operator passed --force
type AutoConfirm struct{}

func (AutoConfirm) Confirm(message string, expectedValue string) (bool, error) {
	return true, nil
}
