package mapper_test

import (
	"strings"

	"github.com/grailbio/rmap/encoding/fasta"
)

func fastaScanner(data string) *fasta.Scanner {
	return fasta.NewScanner(strings.NewReader(data))
}
