package reads

import (
	"math"
	"strconv"
	"strings"

	"github.com/grailbio/base/errors"
)

// Threshold is a value given either absolutely or as a percentage of a
// read-dependent maximum.
type Threshold struct {
	Value   float64
	Percent bool
}

// ParseThreshold parses "68%" or "68.0" as a percentage and "68" as an
// absolute value.
func ParseThreshold(s string) (Threshold, error) {
	t := Threshold{Percent: strings.ContainsAny(s, "%.")}
	v, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(s), "%"), 64)
	if err != nil {
		return Threshold{}, errors.E(errors.Invalid, "bad threshold", strconv.Quote(s), err)
	}
	if v < 0 {
		return Threshold{}, errors.E(errors.Invalid, "negative threshold", strconv.Quote(s))
	}
	t.Value = v
	return t, nil
}

// Percentage returns a percent Threshold.
func Percentage(v float64) Threshold { return Threshold{Value: v, Percent: true} }

// Absolute returns an absolute Threshold.
func Absolute(v int) Threshold { return Threshold{Value: float64(v)} }

func (t Threshold) String() string {
	if t.Percent {
		return strconv.FormatFloat(t.Value, 'f', 2, 64) + "%"
	}
	return strconv.Itoa(int(t.Value))
}

// Score resolves a score threshold for a read of readLen bases: a
// percentage of the perfect score readLen*match, rounded down.
func (t Threshold) Score(readLen, match int) int {
	if !t.Percent {
		return int(t.Value)
	}
	return int(math.Floor(float64(match*readLen) * t.Value / 100))
}

// Window resolves a window length for a read of readLen bases: a percentage
// of readLen, rounded up.
func (t Threshold) Window(readLen int) int {
	if !t.Percent {
		return int(t.Value)
	}
	return int(math.Ceil(float64(readLen) * t.Value / 100))
}
