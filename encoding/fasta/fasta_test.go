package fasta_test

import (
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/rmap/encoding/fasta"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

type record struct {
	name, seq string
}

func scanAll(data string) ([]record, error) {
	var recs []record
	sc := fasta.NewScanner(strings.NewReader(data))
	for sc.Scan() {
		recs = append(recs, record{sc.Name(), string(sc.Seq())})
	}
	return recs, sc.Err()
}

func TestScan(t *testing.T) {
	data := ">seq1\n" + "ACGTA\nCGTAC\nGT\n" + ">seq2 A viral sequence\n" + "ACGT\r\n" + "\n" + "ACGT"
	recs, err := scanAll(data)
	expect.NoError(t, err)
	expect.EQ(t, recs, []record{{"seq1", "ACGTACGTACGT"}, {"seq2", "ACGTACGT"}})
}

func TestScanEmpty(t *testing.T) {
	recs, err := scanAll("")
	expect.NoError(t, err)
	expect.EQ(t, len(recs), 0)

	recs, err = scanAll(">a\n>b\nAC\n")
	expect.NoError(t, err)
	expect.EQ(t, recs, []record{{"a", ""}, {"b", "AC"}})
}

func TestScanLongLine(t *testing.T) {
	seq := strings.Repeat("ACGT", 1<<19) // longer than the read buffer
	recs, err := scanAll(">long\n" + seq + "\n>short\nA\n")
	expect.NoError(t, err)
	expect.EQ(t, len(recs), 2)
	expect.EQ(t, len(recs[0].seq), len(seq))
	expect.EQ(t, recs[1], record{"short", "A"})
}

func TestScanMalformed(t *testing.T) {
	_, err := scanAll("ACGT\n>a\nAC\n")
	expect.NotNil(t, err)
}

func TestOpen(t *testing.T) {
	dir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	path := filepath.Join(dir, "x.fa")
	assert.NoError(t, ioutil.WriteFile(path, []byte(">x\nAC\nGT\n"), 0600))

	ctx := vcontext.Background()
	sc, err := fasta.Open(ctx, path)
	assert.NoError(t, err)
	expect.True(t, sc.Scan())
	expect.EQ(t, sc.Name(), "x")
	expect.EQ(t, string(sc.Seq()), "ACGT")
	expect.False(t, sc.Scan())
	expect.NoError(t, sc.Err())
	expect.NoError(t, sc.Close(ctx))

	_, err = fasta.Open(ctx, filepath.Join(dir, "missing.fa"))
	expect.NotNil(t, err)
}
