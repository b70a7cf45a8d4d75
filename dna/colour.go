package dna

// PrimerBase is the base assumed to precede a contig when converting it to
// colour space.
const PrimerBase = T

// Colour returns the colour between two adjacent bases.  The result is N if
// either base is ambiguous.
func Colour(prev, cur byte) byte {
	if prev > T || cur > T {
		return N
	}
	return prev ^ cur
}

// ToColours converts letter codes to colours, assuming the base prior to
// codes[0] is prior.  dst is resized to len(codes) and returned.
func ToColours(dst, codes []byte, prior byte) []byte {
	dst = resize(dst, len(codes))
	for i, c := range codes {
		dst[i] = Colour(prior, c)
		prior = c
	}
	return dst
}

// ColourCode maps a colour character ('0'..'3', '.') to its code.
func ColourCode(ascii byte) byte {
	if ascii >= '0' && ascii <= '3' {
		return ascii - '0'
	}
	return N
}

// ParseColourRead splits a colour-space read such as "T0123." into its
// primer base and its colour codes.  ok is false when the first character is
// not a base.
func ParseColourRead(ascii []byte) (primer byte, colours []byte, ok bool) {
	if len(ascii) == 0 {
		return N, nil, false
	}
	primer = Code(ascii[0])
	if primer > T {
		return N, nil, false
	}
	colours = make([]byte, len(ascii)-1)
	for i, b := range ascii[1:] {
		colours[i] = ColourCode(b)
	}
	return primer, colours, true
}

// ColoursToLetters decodes colours into letter codes, starting from primer.
// An unreadable colour yields N at its position; decoding resumes from the
// last known base.
func ColoursToLetters(dst, colours []byte, primer byte) []byte {
	dst = resize(dst, len(colours))
	prev := primer
	for i, c := range colours {
		if c > T || prev > T {
			dst[i] = N
			continue
		}
		prev ^= c
		dst[i] = prev
	}
	return dst
}

// ColourString renders colour codes as '0'..'3' and '.'.
func ColourString(colours []byte) string {
	buf := make([]byte, len(colours))
	for i, c := range colours {
		if c > T {
			buf[i] = '.'
		} else {
			buf[i] = '0' + c
		}
	}
	return string(buf)
}

func resize(buf []byte, n int) []byte {
	if cap(buf) < n {
		return make([]byte, n)
	}
	return buf[:n]
}
