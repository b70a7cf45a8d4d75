package main

import (
	"bytes"
	"flag"
	"fmt"
	"io/ioutil"
	"math/rand"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/rmap/mapper"
	"github.com/grailbio/rmap/reads"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

func TestMapFlags(t *testing.T) {
	opts := mapper.DefaultOpts
	fs := flag.NewFlagSet("map", flag.ContinueOnError)
	bindMapFlags(fs, &opts)
	assert.NoError(t, fs.Parse([]string{
		"-mode", "cs", "-s", "1111,11011", "-n", "3", "-w", "30", "-h", "75%", "-v", "55.5", "-g", "30", "-C",
	}))
	expect.EQ(t, opts.Mode, reads.Colour)
	expect.EQ(t, opts.Seeds, "1111,11011")
	expect.EQ(t, opts.MatchesPerWindow, 3)
	expect.EQ(t, opts.Window, reads.Absolute(30))
	expect.EQ(t, opts.FullThreshold, reads.Percentage(75))
	expect.EQ(t, opts.PrefilterThreshold, reads.Percentage(55.5))
	expect.EQ(t, opts.Params.ReadGapOpen, 30)
	expect.EQ(t, opts.Params.RefGapOpen, 40)
	expect.True(t, opts.ReverseOnly)
	expect.NoError(t, opts.Validate())

	fs = flag.NewFlagSet("map", flag.ContinueOnError)
	fs.SetOutput(ioutil.Discard)
	bindMapFlags(fs, &opts)
	expect.NotNil(t, fs.Parse([]string{"-mode", "protein"}))
}

func TestDescribeSeeds(t *testing.T) {
	var buf bytes.Buffer
	assert.NoError(t, describeSeeds(&buf, []string{"1101", "111:0|4"}))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.EQ(t, len(lines), 2)
	expect.True(t, strings.Contains(lines[0], "span=4\tweight=3\tkeys=64"), lines[0])
	expect.True(t, strings.Contains(lines[1], "offsets=[0 4]"), lines[1])
	expect.NotNil(t, describeSeeds(&buf, []string{"12"}))
}

func randomSeq(r *rand.Rand, n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = "ACGT"[r.Intn(4)]
	}
	return string(b)
}

func TestRunMap(t *testing.T) {
	dir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	ctx := vcontext.Background()
	r := rand.New(rand.NewSource(11))
	contig := randomSeq(r, 1000)
	genomePath := filepath.Join(dir, "genome.fa")
	assert.NoError(t, ioutil.WriteFile(genomePath, []byte(">chrT\n"+contig+"\n"), 0600))
	var data strings.Builder
	for i, pos := range []int{50, 400, 900} {
		fmt.Fprintf(&data, ">r%d\n%s\n", i, contig[pos:pos+40])
	}
	readsPath := filepath.Join(dir, "reads.fa")
	assert.NoError(t, ioutil.WriteFile(readsPath, []byte(data.String()), 0600))

	flags := mapFlags{opts: mapper.DefaultOpts, out: filepath.Join(dir, "out.tsv")}
	flags.opts.Seeds = "11111111"
	flags.opts.ForwardOnly = true
	assert.NoError(t, runMap(ctx, flags, readsPath, []string{genomePath}))
	out, err := ioutil.ReadFile(flags.out)
	assert.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	assert.EQ(t, len(lines), 4)
	expect.True(t, strings.HasPrefix(lines[1], "r0\t1\tchrT\t+\t51\t90\t400\t"), lines[1])

	flags.out = filepath.Join(dir, "out.sam")
	assert.NoError(t, runMap(ctx, flags, readsPath, []string{genomePath}))
	out, err = ioutil.ReadFile(flags.out)
	assert.NoError(t, err)
	expect.True(t, strings.HasPrefix(string(out), "@"), string(out))
	expect.True(t, strings.Contains(string(out), "\tchrT\t401\t255\t40M\t"), string(out))

	r1 := filepath.Join(dir, "r1.fq")
	r2 := filepath.Join(dir, "r2.fq")
	assert.NoError(t, ioutil.WriteFile(r1, []byte("@p/1\n"+contig[200:230]+"\n+\n"+strings.Repeat("I", 30)+"\n"), 0600))
	assert.NoError(t, ioutil.WriteFile(r2, []byte("@p/2\n"+contig[210:240]+"\n+\n"+strings.Repeat("I", 30)+"\n"), 0600))
	flags.mates = r2
	flags.out = filepath.Join(dir, "pairs.tsv")
	assert.NoError(t, runMap(ctx, flags, r1, []string{genomePath}))
	out, err = ioutil.ReadFile(flags.out)
	assert.NoError(t, err)
	expect.True(t, strings.Contains(string(out), "p\t1\tchrT\t+\t201\t230\t300\t"), string(out))
	expect.True(t, strings.Contains(string(out), "p\t2\tchrT\t+\t211\t240\t300\t"), string(out))
	flags.mates = ""

	var buf bytes.Buffer
	assert.NoError(t, indexStats(ctx, &buf, flags.opts, readsPath))
	expect.True(t, strings.Contains(buf.String(), "slots=65536\thashed=false"), buf.String())
}
