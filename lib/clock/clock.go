// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Clock abstracts the time operations used by pollers. Any function
// that would call time.Now, time.After or time.Sleep takes a Clock
// instead.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// After returns a channel that receives the current time once d
	// has elapsed. If d <= 0 the channel is ready immediately.
	After(d time.Duration) <-chan time.Time

	// Sleep blocks the calling goroutine for at least d.
	Sleep(d time.Duration)
}
