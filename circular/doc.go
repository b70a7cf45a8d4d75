// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package circular provides the fixed-size ring buffers that the genome
// scanner keeps for every read while it walks a strand.
package circular
