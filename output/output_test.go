package output

import (
	"bytes"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/rmap/align"
	"github.com/grailbio/rmap/mapper"
	"github.com/grailbio/rmap/reads"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
	"github.com/klauspost/compress/gzip"
)

var testContigs = []mapper.ContigInfo{{Name: "chr1", Length: 100}, {Name: "chr2", Length: 50}}

// testAlignment returns an alignment of a 9-base read whose bases 1..6 align
// to window bases 2..6 with one inserted read base.
func testAlignment(t *testing.T, reverse bool) *mapper.Alignment {
	g := reads.NewRegistry(reads.Letter)
	r, err := g.Add("r1", [][]byte{[]byte("GACGTAACC")}, reads.Opts{
		Mode:           reads.Letter,
		Window:         reads.Percentage(115),
		Prefilter:      reads.Percentage(50),
		Final:          reads.Percentage(50),
		Match:          10,
		MaxHitsPerRead: 1,
	})
	assert.NoError(t, err)
	return &mapper.Alignment{
		Read:         r,
		Contig:       "chr1",
		ContigLen:    100,
		Reverse:      reverse,
		WindowOffset: 10,
		Result: align.Result{
			Score:       50 - 47,
			GenomeStart: 2, GenomeEnd: 6,
			ReadStart: 1, ReadEnd: 6,
			Matches:     5,
			Insertions:  1,
			GenomeAlign: "CGT-AA",
			ReadAlign:   "ACGTAA",
			Ops:         []align.Op{align.OpMatch, align.OpMatch, align.OpMatch, align.OpRefGap, align.OpMatch, align.OpMatch},
		},
	}
}

func TestCigar(t *testing.T) {
	a := testAlignment(t, false)
	expect.EQ(t, cigar(&a.Result, 9, false).String(), "1S3M1I2M2S")
	expect.EQ(t, cigar(&a.Result, 9, true).String(), "2S2M1I3M1S")

	full := align.Result{ReadStart: 0, ReadEnd: 3, Ops: []align.Op{align.OpMatch, align.OpReadGap, align.OpReadGap, align.OpMatch, align.OpMatch, align.OpMatch}}
	expect.EQ(t, cigar(&full, 4, false).String(), "1M2D3M")
}

func samRecords(t *testing.T, out string) (header []string, records [][]string) {
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if strings.HasPrefix(line, "@") {
			header = append(header, line)
			continue
		}
		records = append(records, strings.Split(line, "\t"))
	}
	return
}

func TestSAM(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, SAM, testContigs)
	assert.NoError(t, err)
	assert.NoError(t, w.Write(testAlignment(t, false)))
	assert.NoError(t, w.Write(testAlignment(t, true)))
	assert.NoError(t, w.Close(vcontext.Background()))
	expect.EQ(t, w.Len(), 2)

	header, records := samRecords(t, buf.String())
	expect.True(t, strings.Contains(strings.Join(header, "\n"), "@SQ\tSN:chr1\tLN:100"), header)
	expect.True(t, strings.Contains(strings.Join(header, "\n"), "@SQ\tSN:chr2\tLN:50"), header)
	assert.EQ(t, len(records), 2)

	fwd := records[0]
	expect.EQ(t, fwd[0], "r1")
	expect.EQ(t, fwd[1], "0")
	expect.EQ(t, fwd[2], "chr1")
	expect.EQ(t, fwd[3], "13")
	expect.EQ(t, fwd[4], "255")
	expect.EQ(t, fwd[5], "1S3M1I2M2S")
	expect.EQ(t, fwd[9], "GACGTAACC")
	expect.EQ(t, fwd[10], "*")
	expect.True(t, strings.Contains(strings.Join(fwd[11:], "\t"), "AS:i:3"), fwd)
	expect.True(t, strings.Contains(strings.Join(fwd[11:], "\t"), "NM:i:1"), fwd)

	rev := records[1]
	// Reverse strand, and secondary since the read was already reported.
	expect.EQ(t, rev[1], "272")
	expect.EQ(t, rev[3], "84")
	expect.EQ(t, rev[5], "2S2M1I3M1S")
	expect.EQ(t, rev[9], "GGTTACGTC")
}

func TestSAMQual(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, SAM, testContigs)
	assert.NoError(t, err)
	for _, reverse := range []bool{false, true} {
		a := testAlignment(t, reverse)
		qual := []byte("ABCDEFGHI")
		for i := range qual {
			qual[i] -= 33
		}
		a.Read.Mates[0].Qual = qual
		assert.NoError(t, w.Write(a))
	}
	assert.NoError(t, w.Close(vcontext.Background()))

	_, records := samRecords(t, buf.String())
	assert.EQ(t, len(records), 2)
	expect.EQ(t, records[0][10], "ABCDEFGHI")
	expect.EQ(t, records[1][9], "GGTTACGTC")
	expect.EQ(t, records[1][10], "IHGFEDCBA")
}

func TestSAMUnknownContig(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, SAM, testContigs[1:])
	assert.NoError(t, err)
	expect.NotNil(t, w.Write(testAlignment(t, false)))
}

func TestTSV(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, TSV, nil)
	assert.NoError(t, err)
	assert.NoError(t, w.Write(testAlignment(t, true)))
	assert.NoError(t, w.Close(vcontext.Background()))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.EQ(t, len(lines), 2)
	expect.EQ(t, lines[0], tsvHeader)
	expect.EQ(t, lines[1], "r1\t1\tchr1\t-\t84\t88\t3\t5\t0\t1\t0\t2\t7\tCGT-AA\tACGTAA")
}

func TestCreateGzip(t *testing.T) {
	dir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	ctx := vcontext.Background()
	path := filepath.Join(dir, "out.tsv.gz")
	format := FormatFromPath(path)
	expect.EQ(t, format, TSV)

	w, err := Create(ctx, path, format, testContigs)
	assert.NoError(t, err)
	assert.NoError(t, w.Write(testAlignment(t, false)))
	assert.NoError(t, w.Close(ctx))

	f, err := os.Open(path)
	assert.NoError(t, err)
	defer f.Close()
	gz, err := gzip.NewReader(f)
	assert.NoError(t, err)
	data, err := ioutil.ReadAll(gz)
	assert.NoError(t, err)
	expect.True(t, strings.HasPrefix(string(data), tsvHeader+"\n"))
	expect.True(t, strings.Contains(string(data), "r1\t1\tchr1\t+\t13\t17\t"))
}

func TestCreateBGZF(t *testing.T) {
	dir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	ctx := vcontext.Background()
	path := filepath.Join(dir, "out.sam.bgz")
	format := FormatFromPath(path)
	expect.EQ(t, format, SAM)

	w, err := Create(ctx, path, format, testContigs)
	assert.NoError(t, err)
	assert.NoError(t, w.Write(testAlignment(t, false)))
	assert.NoError(t, w.Close(ctx))

	data, err := ioutil.ReadFile(path)
	assert.NoError(t, err)
	// BGZF blocks carry the "BC" extra subfield.
	expect.True(t, bytes.Equal(data[12:14], []byte("BC")))
	gz, err := gzip.NewReader(bytes.NewReader(data))
	assert.NoError(t, err)
	text, err := ioutil.ReadAll(gz)
	assert.NoError(t, err)
	_, records := samRecords(t, string(text))
	assert.EQ(t, len(records), 1)
	expect.EQ(t, records[0][5], "1S3M1I2M2S")
}

func TestFormat(t *testing.T) {
	for _, test := range []struct {
		in   string
		want Format
	}{
		{"sam", SAM},
		{"TSV", TSV},
		{"txt", TSV},
	} {
		f, err := ParseFormat(test.in)
		assert.NoError(t, err)
		expect.EQ(t, f, test.want)
	}
	_, err := ParseFormat("bam")
	expect.NotNil(t, err)
	expect.EQ(t, FormatFromPath("x.sam.gz"), SAM)
	expect.EQ(t, FormatFromPath("x.out"), SAM)
	expect.EQ(t, SAM.String(), "sam")
}
