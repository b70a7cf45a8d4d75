package dna

import (
	"github.com/grailbio/base/simd"
)

// 2-bit base codes.
const (
	A byte = 0
	C byte = 1
	G byte = 2
	T byte = 3
	// N marks an ambiguous base or an unreadable colour.
	N byte = 4
)

var (
	asciiToCode [256]byte
	codeToASCII = [...]byte{'A', 'C', 'G', 'T', 'N'}
)

func init() {
	for i := range asciiToCode {
		asciiToCode[i] = N
	}
	asciiToCode['A'] = A
	asciiToCode['a'] = A
	asciiToCode['C'] = C
	asciiToCode['c'] = C
	asciiToCode['G'] = G
	asciiToCode['g'] = G
	asciiToCode['T'] = T
	asciiToCode['t'] = T
}

// Valid reports whether code is one of A, C, G, T.
func Valid(code byte) bool { return code < N }

// Code returns the 2-bit code of an ASCII base, or N.
func Code(ascii byte) byte { return asciiToCode[ascii] }

// Letter returns the ASCII letter for code.  Ambiguous codes map to 'N'.
func Letter(code byte) byte {
	if code > N {
		return 'N'
	}
	return codeToASCII[code]
}

// Encode appends the codes of ascii to dst and returns the extended slice.
func Encode(dst, ascii []byte) []byte {
	for _, b := range ascii {
		dst = append(dst, asciiToCode[b])
	}
	return dst
}

// EncodeString is Encode for a string.
func EncodeString(s string) []byte {
	dst := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		dst[i] = asciiToCode[s[i]]
	}
	return dst
}

// Decode appends the ASCII letters of codes to dst.
func Decode(dst, codes []byte) []byte {
	for _, c := range codes {
		dst = append(dst, Letter(c))
	}
	return dst
}

// String renders codes as ASCII letters.
func String(codes []byte) string {
	return string(Decode(make([]byte, 0, len(codes)), codes))
}

// ReverseComplementInplace reverse-complements a sequence of base codes.
// Complementing a 2-bit code is XOR with 3; ambiguous codes stay ambiguous.
func ReverseComplementInplace(codes []byte) {
	simd.Reverse8Inplace(codes)
	simd.XorConst8Inplace(codes, 3)
}

// ReverseComplement returns a reverse-complemented copy of codes.
func ReverseComplement(codes []byte) []byte {
	dst := make([]byte, len(codes))
	copy(dst, codes)
	ReverseComplementInplace(dst)
	return dst
}

// CountAmbiguous returns the number of codes that are not A, C, G or T.
func CountAmbiguous(codes []byte) int {
	n := 0
	for _, c := range codes {
		if c > T {
			n++
		}
	}
	return n
}
