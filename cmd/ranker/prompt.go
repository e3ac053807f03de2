package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

const promptText = "Enter the search string: "

var errEmptyTerm = errors.New("search string is empty")

// readTerm reads one line from in. The prompt goes to out only when
// interactive, so piped input produces no stray output.
func readTerm(in io.Reader, out io.Writer, interactive bool) (string, error) {
	if interactive {
		if _, err := fmt.Fprint(out, promptText); err != nil {
			return "", err
		}
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read search string: %w", err)
	}
	term := strings.TrimSpace(line)
	if term == "" {
		return "", errEmptyTerm
	}
	return term, nil
}
