package reads

import (
	"strconv"

	"github.com/grailbio/base/errors"
)

// Mode selects how reads are encoded and scored.
type Mode int

const (
	// Letter reads are plain nucleotide sequences.
	Letter Mode = iota
	// Colour reads are SOLiD colour-space sequences led by a primer base.
	Colour
	// Paired reads are consecutive records of mate pairs, scored jointly.
	Paired
)

func (m Mode) String() string {
	switch m {
	case Letter:
		return "letter"
	case Colour:
		return "colour"
	case Paired:
		return "paired"
	}
	return "Mode(" + strconv.Itoa(int(m)) + ")"
}

// ParseMode parses the String form of a Mode.  "ls" and "cs" are accepted as
// aliases.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "letter", "ls":
		return Letter, nil
	case "colour", "color", "cs":
		return Colour, nil
	case "paired":
		return Paired, nil
	}
	return Letter, errors.E(errors.Invalid, "unknown mode", strconv.Quote(s))
}
