package align

// Origin tags the predecessor of one plane of a matrix cell.  The diagonal
// plane holds alignments ending with a base pair, the north plane those
// ending with a read base against a reference gap, and the west plane those
// ending with a reference base against a read gap.
type Origin uint8

const (
	// Restart marks a plane clamped to zero: the local alignment starts after
	// this cell.
	Restart Origin = iota
	NorthFromNorth
	NorthFromDiag
	WestFromDiag
	WestFromWest
	DiagFromNorth
	DiagFromDiag
	DiagFromWest
)

var originNames = [...]string{
	Restart:        "restart",
	NorthFromNorth: "north<-north",
	NorthFromDiag:  "north<-diag",
	WestFromDiag:   "west<-diag",
	WestFromWest:   "west<-west",
	DiagFromNorth:  "diag<-north",
	DiagFromDiag:   "diag<-diag",
	DiagFromWest:   "diag<-west",
}

func (o Origin) String() string {
	if int(o) < len(originNames) {
		return originNames[o]
	}
	return "invalid"
}

// Op is one column of an alignment.
type Op uint8

const (
	// OpMatch pairs a reference base with a read base; the bases may differ.
	OpMatch Op = iota + 1
	// OpReadGap is a reference base against a gap in the read (a deletion
	// from the reference, CIGAR 'D').
	OpReadGap
	// OpRefGap is a read base against a gap in the reference (an insertion
	// into the reference, CIGAR 'I').
	OpRefGap
)

func (op Op) String() string {
	switch op {
	case OpMatch:
		return "M"
	case OpReadGap:
		return "D"
	case OpRefGap:
		return "I"
	}
	return "?"
}
