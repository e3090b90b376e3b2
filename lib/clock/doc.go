// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides the injectable time source used by code that
// waits on the network subsystem.
//
// Production code receives Real(). Tests receive Fake(), which stands
// still until the test calls Advance. A goroutine that calls After or
// Sleep on a FakeClock registers a pending waiter; tests call
// WaitForTimers before Advance so that the advance never races the
// registration:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	go poll(c)
//	c.WaitForTimers(1)
//	c.Advance(time.Second)
package clock
