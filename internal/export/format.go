// Package export renders simulated breaths as tables, charts and terminal
// plots.
package export

import (
	"fmt"
	"strings"

	"github.com/rs/xid"
)

// Format is a tabular output format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat parses a table format name, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatCSV, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown table format %q (want csv or json)", s)
	}
}

// DefaultName returns a fresh file name of the form breath_<xid>.<ext>.
func DefaultName(ext string) string {
	return "breath_" + xid.New().String() + "." + strings.TrimPrefix(ext, ".")
}
