package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func printJSON(cmd *cobra.Command, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return sysError(fmt.Errorf("marshal output: %w", err))
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

// readInput reads a file argument; "-" reads stdin.
func (a *app) readInput(name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(a.in)
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, userError(fmt.Errorf("read %s: %w", name, err))
	}
	return data, nil
}

func relTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.Time(t)
}

func dateRange(start, end string) string {
	switch {
	case start == "" && end == "":
		return "-"
	case end == "" || end == start:
		return start
	case start == "":
		return "until " + end
	}
	return start + " → " + end
}

func money(amount float64, currency string) string {
	return humanize.CommafWithDigits(amount, 2) + " " + currency
}
