// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package dna holds the compact nucleotide encodings used by the mapper.
//
// Sequences are stored one base per byte as 2-bit codes: A=0, C=1, G=2,
// T=3.  Any value above 3 (normally N) is ambiguous.  Colour-space (SOLiD)
// sequences use the same representation: colour c between bases x and y is
// x^y, and an unreadable colour ('.') is encoded as N.
package dna
