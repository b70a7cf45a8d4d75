package output

import (
	"strconv"
	"strings"

	"github.com/grailbio/base/errors"
)

// Format is an alignment output format.
type Format int

const (
	// SAM writes a SAM file with one record per alignment.
	SAM Format = iota
	// TSV writes one tab-separated line per alignment, including the gapped
	// alignment strings.
	TSV
)

func (f Format) String() string {
	switch f {
	case SAM:
		return "sam"
	case TSV:
		return "tsv"
	}
	return "Format(" + strconv.Itoa(int(f)) + ")"
}

// ParseFormat parses "sam" or "tsv".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "sam":
		return SAM, nil
	case "tsv", "txt":
		return TSV, nil
	}
	return 0, errors.E(errors.Invalid, "unknown output format", strconv.Quote(s))
}

// FormatFromPath guesses the format from the file extension, ignoring a
// trailing ".gz" or ".bgz".  Unknown extensions select SAM.
func FormatFromPath(path string) Format {
	path = strings.TrimSuffix(strings.TrimSuffix(path, ".gz"), ".bgz")
	if strings.HasSuffix(path, ".tsv") || strings.HasSuffix(path, ".txt") {
		return TSV
	}
	return SAM
}
