// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// ExitCoder is implemented by errors that carry their own exit status.
type ExitCoder interface {
	ExitCode() int
}

// Fatal writes "error: err" to stderr and exits. Errors implementing
// ExitCoder choose the exit status; everything else exits 1.
func Fatal(err error) {
	os.Exit(report(os.Stderr, err))
}

// report writes err to w and returns the exit status Fatal uses.
func report(w io.Writer, err error) int {
	var coder ExitCoder
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	fmt.Fprintf(w, "error: %v\n", err)
	return 1
}
