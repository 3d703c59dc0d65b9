package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/UnknownOlympus/landscout/internal/daterange"
)

const rule = "============================================================"

// PromptRange asks for the search period until a valid one is entered.
// It returns io.ErrUnexpectedEOF when the input ends first.
func PromptRange(in io.Reader, out io.Writer, maxSpanDays int) (daterange.Range, error) {
	scanner := bufio.NewScanner(in)

	fmt.Fprintln(out, rule)
	fmt.Fprintln(out, "Land transaction permit collection")
	fmt.Fprintln(out, rule)
	fmt.Fprintf(out, "* Longest search period: %d days\n", maxSpanDays)
	fmt.Fprintln(out, "* Date format: YYYY-MM-DD (e.g. 2025-11-01)")

	for {
		start, ok := ask(scanner, out, "Start date: ")
		if !ok {
			return daterange.Range{}, io.ErrUnexpectedEOF
		}
		end, ok := ask(scanner, out, "End date: ")
		if !ok {
			return daterange.Range{}, io.ErrUnexpectedEOF
		}

		rng, err := daterange.Parse(start, end, maxSpanDays)
		if err == nil {
			fmt.Fprintf(out, "\nSearch period: %s\n", rng)
			fmt.Fprintln(out, rule)
			return rng, nil
		}

		fmt.Fprintf(out, "Error: %s. Please try again.\n\n", describe(err))
	}
}

func ask(scanner *bufio.Scanner, out io.Writer, label string) (string, bool) {
	fmt.Fprint(out, label)
	if !scanner.Scan() {
		return "", false
	}

	return strings.TrimSpace(scanner.Text()), true
}

// describe turns a validation error into the hint shown to the user.
func describe(err error) string {
	switch {
	case errors.Is(err, daterange.ErrInvalidFormat):
		return "dates must be in YYYY-MM-DD format"
	case errors.Is(err, daterange.ErrStartAfterEnd):
		return "the start date is after the end date"
	default:
		return err.Error()
	}
}
