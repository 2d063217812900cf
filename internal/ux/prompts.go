package ux

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrNoInput is returned when input ends before an answer is given.
var ErrNoInput = errors.New("input closed before an answer was given")

// LineConfirmer asks yes/no questions on a line-oriented terminal. An empty
// answer means no; anything other than y, yes, n or no is asked again.
type LineConfirmer struct {
	reader *bufio.Reader
	out    io.Writer
}

// NewLineConfirmer creates a LineConfirmer reading from in and prompting on
// out. Nil arguments default to the process streams.
func NewLineConfirmer(in io.Reader, out io.Writer) *LineConfirmer {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stderr
	}
	return &LineConfirmer{reader: bufio.NewReader(in), out: out}
}

type lineResult struct {
	line string
	err  error
}

// Confirm prompts with question and waits for an answer or for ctx to end.
func (c *LineConfirmer) Confirm(ctx context.Context, question string) (bool, error) {
	for {
		fmt.Fprintf(c.out, "%s (y/N): ", question)

		line, err := c.readLine(ctx)
		if err != nil {
			fmt.Fprintln(c.out)
			return false, err
		}

		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true, nil
		case "", "n", "no":
			return false, nil
		default:
			fmt.Fprintln(c.out, "Please answer y or n.")
		}
	}
}

func (c *LineConfirmer) readLine(ctx context.Context) (string, error) {
	done := make(chan lineResult, 1)
	go func() {
		line, err := c.reader.ReadString('\n')
		done <- lineResult{line: line, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		if r.err != nil {
			if errors.Is(r.err, io.EOF) && strings.TrimSpace(r.line) != "" {
				return r.line, nil
			}
			if errors.Is(r.err, io.EOF) {
				return "", ErrNoInput
			}
			return "", fmt.Errorf("read answer: %w", r.err)
		}
		return r.line, nil
	}
}
