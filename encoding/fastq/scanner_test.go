package fastq

import (
	"bytes"
	"strings"
	"testing"

	"github.com/grailbio/testutil/expect"
	"github.com/pkg/errors"
)

const fq = `@NB500956:89:HW2FHBGX2:1:11101:25648:1069 1:N:0:ATCACG
ATACAGGCCTGANCCACTGTGCCCAGNCTANNTNATTANTGAANANAGAATNGTTNTAAATANANNNNNTNTNNNC
+
AAAAAEEEEEEE#EEAEEEEEEEEEE#EEE##E#EEEE#EEEE#E#EEEEE#EEE#EEEAEE#A#####E#E###E
@NB500956:89:HW2FHBGX2:1:11101:13871:1070 1:N:0:ATCACG
CTCAACTCTGAGNCAGACAGAAATACNTTTNNTNTGAGTTACANCNTTCTTTTTCNACATATNCNNNNNTNGNNNT
+
AAAAAEEEEEEE#EEEEEEEEEEEEE#EEE##E#EEEEEEEEE#E#EEEEEEEEE#EAEEEE#A#####E#A###E
@NB500956:89:HW2FHBGX2:1:11101:9975:1070 1:N:0:ATCACG
GAGTAACCACGTNCCCATGGCCACAGNTGANNGNGTCACACCTNANCCGGGAGAGNCAATCCNGNNNNNGNANNNC
+
AAAAAEEEEEEE#EEEEEEEEEAEEE#EEA##E#EEEEEEEE<#E#<EEEEEEEE#<EEEA/#/#####A#E###A
`

func stringScanner(s string) *Scanner {
	return NewScanner(bytes.NewReader([]byte(s)))
}

func scanErr(s string) error {
	sc := stringScanner(s)
	for sc.Scan() {
	}
	return sc.Err()
}

func TestFASTQ(t *testing.T) {
	s := stringScanner(fq)
	expect.True(t, s.Scan(), s.Err())
	expect.EQ(t, s.Name(), "NB500956:89:HW2FHBGX2:1:11101:25648:1069")
	expect.EQ(t, string(s.Seq()), "ATACAGGCCTGANCCACTGTGCCCAGNCTANNTNATTANTGAANANAGAATNGTTNTAAATANANNNNNTNTNNNC")
	expect.EQ(t, string(s.Qual()), "AAAAAEEEEEEE#EEAEEEEEEEEEE#EEE##E#EEEE#EEEE#E#EEEEE#EEE#EEEAEE#A#####E#E###E")
	n := 1
	for s.Scan() {
		n++
	}
	expect.EQ(t, n, 3)
	expect.NoError(t, s.Err())
	expect.False(t, s.Scan())
}

func TestBadFASTQ(t *testing.T) {
	expect.EQ(t, errors.Cause(scanErr("12312#")), ErrInvalid)
	expect.EQ(t, errors.Cause(scanErr("@1234\n123")), ErrShort)
	expect.EQ(t, errors.Cause(scanErr("@r\nACGT\n-\nIIII\n")), ErrInvalid)
	expect.EQ(t, errors.Cause(scanErr("@r\nACGT\n+\nIII\n")), ErrInvalid)
	expect.NoError(t, scanErr(""))
}

func TestPairScanner(t *testing.T) {
	r1 := "@p1/1\nACGT\n+\nIIII\n@p2/1\nGGGG\n+\nIIII\n"
	r2 := "@p1/2\nTTTT\n+\nIIII\n@p2/2\nCCCC\n+\nIIII\n"
	p := NewPairScanner(strings.NewReader(r1), strings.NewReader(r2))
	var names []string
	for p.Scan() {
		names = append(names, p.R1().Name()+","+p.R2().Name())
	}
	expect.NoError(t, p.Err())
	expect.EQ(t, names, []string{"p1/1,p1/2", "p2/1,p2/2"})

	p = NewPairScanner(strings.NewReader(r1), strings.NewReader(r2[:strings.Index(r2, "@p2")]))
	for p.Scan() {
	}
	expect.EQ(t, p.Err(), ErrDiscordant)
}
