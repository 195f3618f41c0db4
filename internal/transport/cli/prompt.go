package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Prompter asks for single-line answers on an interactive terminal
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPrompter creates a prompter reading answers from in
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{
		in:  bufio.NewReader(in),
		out: out,
	}
}

// Ask prints label and returns the trimmed answer. Empty answers are rejected.
func (p *Prompter) Ask(label string) (string, error) {
	fmt.Fprintf(p.out, "%s ", label)

	line, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("failed to read answer: %w", err)
	}

	answer := strings.TrimSpace(line)
	if answer == "" {
		return "", fmt.Errorf("no answer given for %q", label)
	}

	return answer, nil
}
