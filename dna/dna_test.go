package dna_test

import (
	"testing"

	"github.com/grailbio/rmap/dna"
	"github.com/grailbio/testutil/expect"
)

func TestEncodeDecode(t *testing.T) {
	codes := dna.EncodeString("ACgtNx")
	expect.EQ(t, codes, []byte{dna.A, dna.C, dna.G, dna.T, dna.N, dna.N})
	expect.EQ(t, dna.String(codes), "ACGTNN")
	expect.EQ(t, dna.CountAmbiguous(codes), 2)
	expect.True(t, dna.Valid(dna.T))
	expect.False(t, dna.Valid(dna.N))
}

func TestReverseComplement(t *testing.T) {
	for _, test := range []struct {
		in, want string
	}{
		{"", ""},
		{"A", "T"},
		{"ACGTN", "NACGT"},
		{"AACCGGTTA", "TAACCGGTT"},
		{"GATTACA", "TGTAATC"},
	} {
		got := dna.ReverseComplement(dna.EncodeString(test.in))
		expect.EQ(t, dna.String(got), test.want, "input %q", test.in)
	}
}

func TestColours(t *testing.T) {
	letters := dna.EncodeString("ACGTTA")
	colours := dna.ToColours(nil, letters, dna.PrimerBase)
	expect.EQ(t, dna.ColourString(colours), "313103")
	expect.EQ(t, dna.String(dna.ColoursToLetters(nil, colours, dna.PrimerBase)), "ACGTTA")

	primer, cs, ok := dna.ParseColourRead([]byte("T0.2"))
	expect.True(t, ok)
	expect.EQ(t, primer, dna.T)
	expect.EQ(t, cs, []byte{0, dna.N, 2})
	expect.EQ(t, dna.String(dna.ColoursToLetters(nil, cs, primer)), "TNC")

	_, _, ok = dna.ParseColourRead([]byte("0123"))
	expect.False(t, ok)
}
