package mapper_test

import (
	"fmt"
	"io/ioutil"
	"math/rand"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/rmap/dna"
	"github.com/grailbio/rmap/mapper"
	"github.com/grailbio/rmap/reads"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
	"github.com/stretchr/testify/require"
)

func randomSeq(r *rand.Rand, n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = "ACGT"[r.Intn(4)]
	}
	return string(b)
}

func revComp(s string) string {
	return dna.String(dna.ReverseComplement(dna.EncodeString(s)))
}

// substitute replaces base i of s with a different base.
func substitute(s string, i int) string {
	b := []byte(s)
	b[i] = "CGTA"[strings.IndexByte("ACGT", b[i])]
	return string(b)
}

type placement struct {
	contig  string
	pos     int
	reverse bool
}

type testGenome struct {
	dir   string
	paths []string
	names []string
	seqs  []string
}

func writeGenome(t *testing.T, r *rand.Rand, dir string, lens ...int) testGenome {
	g := testGenome{dir: dir}
	var buf strings.Builder
	for i, n := range lens {
		name := fmt.Sprintf("chr%d", i+1)
		seq := randomSeq(r, n)
		g.names = append(g.names, name)
		g.seqs = append(g.seqs, seq)
		buf.WriteString(">" + name + " test contig\n")
		for off := 0; off < len(seq); off += 60 {
			end := off + 60
			if end > len(seq) {
				end = len(seq)
			}
			buf.WriteString(seq[off:end] + "\n")
		}
	}
	path := filepath.Join(dir, "genome.fa")
	require.NoError(t, ioutil.WriteFile(path, []byte(buf.String()), 0600))
	g.paths = []string{path}
	return g
}

func collect(t *testing.T, s *mapper.Session, genome mapper.Genome) map[string][]*mapper.Alignment {
	got := map[string][]*mapper.Alignment{}
	err := s.Run(vcontext.Background(), genome, mapper.SinkFunc(func(a *mapper.Alignment) error {
		key := a.Read.Name
		if len(a.Read.Mates) > 1 {
			key = fmt.Sprintf("%s/%d", key, a.Mate+1)
		}
		got[key] = append(got[key], a)
		return nil
	}))
	require.NoError(t, err)
	return got
}

func TestRunLetter(t *testing.T) {
	dir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	r := rand.New(rand.NewSource(5))
	genome := writeGenome(t, r, dir, 3000, 2000)

	const readLen = 50
	want := map[string]placement{}
	var data strings.Builder
	for i := 0; i < 40; i++ {
		c := r.Intn(len(genome.seqs))
		pos := 100 + r.Intn(len(genome.seqs[c])-200)
		seq := substitute(genome.seqs[c][pos:pos+readLen], 10+r.Intn(30))
		rev := i%2 == 1
		if rev {
			seq = revComp(seq)
		}
		name := fmt.Sprintf("read%d", i)
		want[name] = placement{genome.names[c], pos, rev}
		data.WriteString(">" + name + "\n" + seq + "\n")
	}
	readsPath := filepath.Join(dir, "reads.fa")
	require.NoError(t, ioutil.WriteFile(readsPath, []byte(data.String()), 0600))

	opts := mapper.DefaultOpts
	opts.Seeds = "11110111,1111111"
	g, err := reads.Load(vcontext.Background(), readsPath, opts.ReadOpts())
	assert.NoError(t, err)
	s, err := mapper.NewSession(opts, g)
	assert.NoError(t, err)
	defer s.Close()

	got := collect(t, s, mapper.FileGenome{Paths: genome.paths})
	for name, p := range want {
		alns := got[name]
		require.True(t, len(alns) >= 1, "read %s not mapped", name)
		a := alns[0]
		expect.EQ(t, a.Contig, p.contig, name)
		expect.EQ(t, a.Reverse, p.reverse, name)
		expect.EQ(t, a.RefStart(), p.pos, name)
		expect.EQ(t, a.RefEnd(), p.pos+readLen-1, name)
		expect.EQ(t, a.Result.Score, (readLen-1)*10-15, name)
		expect.EQ(t, a.Result.Mismatches, 1, name)
		for _, b := range alns {
			expect.True(t, b.Result.Score >= a.Read.Mates[0].FinalThreshold)
		}
	}
	st := s.Stats()
	expect.EQ(t, st.ReadsMatched, len(want))
	expect.EQ(t, st.ScoreMismatches, 0)
	expect.EQ(t, st.BacktraceErrors, 0)
	expect.EQ(t, st.Contigs, 2)
}

func TestRunColour(t *testing.T) {
	r := rand.New(rand.NewSource(6))
	contig := randomSeq(r, 1500)
	genome := mapper.MemGenome{Names: []string{"chrC"}, Seqs: []string{contig}}

	const readLen = 40
	var data strings.Builder
	positions := []int{100, 700, 1300}
	for i, pos := range positions {
		colours := dna.ToColours(nil, dna.EncodeString(contig[pos:pos+readLen]), dna.PrimerBase)
		fmt.Fprintf(&data, ">c%d\nT%s\n", i, dna.ColourString(colours))
	}
	opts := mapper.DefaultOpts
	opts.Mode = reads.Colour
	opts.Seeds = "1111111"
	opts.ForwardOnly = true
	g := reads.NewRegistry(reads.Colour)
	require.NoError(t, g.Scan(fastaScanner(data.String()), opts.ReadOpts()))
	s, err := mapper.NewSession(opts, g)
	assert.NoError(t, err)
	defer s.Close()

	got := collect(t, s, genome)
	for i, pos := range positions {
		alns := got[fmt.Sprintf("c%d", i)]
		require.True(t, len(alns) >= 1, "read c%d not mapped", i)
		expect.EQ(t, alns[0].RefStart(), pos)
		expect.EQ(t, alns[0].Result.Score, readLen*10)
		expect.EQ(t, alns[0].Result.ReadAlign, contig[pos:pos+readLen])
	}
}

func TestRunColourError(t *testing.T) {
	r := rand.New(rand.NewSource(8))
	contig := randomSeq(r, 1500)
	genome := mapper.MemGenome{Names: []string{"chrC"}, Seqs: []string{contig}}

	const readLen, errPos = 50, 25
	var data strings.Builder
	positions := []int{100, 700, 1300}
	for i, pos := range positions {
		colours := dna.ToColours(nil, dna.EncodeString(contig[pos:pos+readLen]), dna.PrimerBase)
		colours[errPos] ^= 2
		fmt.Fprintf(&data, ">c%d\nT%s\n", i, dna.ColourString(colours))
	}
	opts := mapper.DefaultOpts
	opts.Mode = reads.Colour
	opts.Seeds = "1111111"
	opts.ForwardOnly = true
	g := reads.NewRegistry(reads.Colour)
	require.NoError(t, g.Scan(fastaScanner(data.String()), opts.ReadOpts()))
	s, err := mapper.NewSession(opts, g)
	assert.NoError(t, err)
	defer s.Close()

	got := collect(t, s, genome)
	for i, pos := range positions {
		alns := got[fmt.Sprintf("c%d", i)]
		require.True(t, len(alns) >= 1, "read c%d not mapped", i)
		a := alns[0]
		seg := contig[pos : pos+readLen]
		want := []byte(seg)
		want[errPos] = dna.Letter(dna.Code(seg[errPos]) ^ 2)
		expect.EQ(t, a.RefStart(), pos)
		expect.EQ(t, a.RefEnd(), pos+readLen-1)
		expect.EQ(t, a.Result.Score, (readLen-1)*10-15)
		expect.EQ(t, a.Result.Mismatches, 1)
		expect.EQ(t, a.Result.GenomeAlign, seg)
		expect.EQ(t, a.Result.ReadAlign, string(want))
	}
	st := s.Stats()
	expect.EQ(t, st.ReadsMatched, len(positions))
	expect.EQ(t, st.ScoreMismatches, 0)
}

func TestRunPaired(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	contig := randomSeq(r, 2000)
	genome := mapper.MemGenome{Names: []string{"chrP"}, Seqs: []string{contig}}

	const pos, mateLen = 600, 30
	data := fmt.Sprintf(">p/1\n%s\n>p/2\n%s\n", contig[pos:pos+mateLen], contig[pos+10:pos+10+mateLen])
	opts := mapper.DefaultOpts
	opts.Mode = reads.Paired
	opts.Seeds = "1111111"
	g := reads.NewRegistry(reads.Paired)
	require.NoError(t, g.Scan(fastaScanner(data), opts.ReadOpts()))
	s, err := mapper.NewSession(opts, g)
	assert.NoError(t, err)
	defer s.Close()

	got := collect(t, s, genome)
	require.True(t, len(got["p/1"]) >= 1)
	require.True(t, len(got["p/2"]) >= 1)
	expect.EQ(t, got["p/1"][0].RefStart(), pos)
	expect.EQ(t, got["p/2"][0].RefStart(), pos+10)
	expect.EQ(t, got["p/1"][0].Result.Score, mateLen*10)
	expect.False(t, got["p/1"][0].Reverse)
}
