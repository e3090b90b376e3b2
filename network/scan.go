// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package network

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"
)

// scanNetworks requests a scan on device, waits for it within the
// scan policy's budget, and returns the filtered SSIDs. The timer
// waits and reply waits happen off the loop thread.
func (h *Handlers) scanNetworks(ctx context.Context, s *session, device Device) ([]string, error) {
	requested := h.clock.Now()

	_, err := request(ctx, s, func(Client) *Pending[struct{}] { return device.RequestScan() })
	if err != nil {
		return nil, fmt.Errorf("requesting wireless scan: %w", err)
	}

	completed, err := h.awaitScan(ctx, s, device, requested)
	if err != nil {
		return nil, err
	}
	if !completed {
		if h.scan.FailOnTimeout {
			return nil, fmt.Errorf("polling %d times at %s: %w", h.scan.Attempts, h.scan.Interval, ErrScanTimeout)
		}
		h.logger.Warn("wireless scan did not complete, using current access points",
			"attempts", h.scan.Attempts,
			"interval", h.scan.Interval,
		)
	}

	raw, err := h.readSSIDs(ctx, s, device)
	if err != nil {
		return nil, fmt.Errorf("reading access points: %w", err)
	}
	return FilterSSIDs(raw), nil
}

// readSSIDs reads the SSID of every access point device sees. Access
// points vanish while being enumerated; one whose SSID cannot be read
// is left out.
func (h *Handlers) readSSIDs(ctx context.Context, s *session, device Device) ([][]byte, error) {
	points, err := request(ctx, s, func(Client) *Pending[[]ObjectPath] { return device.ListAccessPoints() })
	if err != nil {
		return nil, err
	}
	pending, err := requestEach(ctx, s, points, func(_ Client, point ObjectPath) *Pending[[]byte] {
		return device.SSID(point)
	})
	if err != nil {
		return nil, err
	}
	raw := make([][]byte, 0, len(pending))
	for i, ssid := range pending {
		value, err := ssid.Wait(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			h.logger.Debug("skipping access point", "path", string(points[i]), "error", err)
			continue
		}
		raw = append(raw, value)
	}
	return raw, nil
}

// awaitScan polls the device's last scan time until it is after
// requested. It reports false when the budget runs out.
func (h *Handlers) awaitScan(ctx context.Context, s *session, device Device, requested time.Time) (bool, error) {
	for attempt := 1; attempt <= h.scan.Attempts; attempt++ {
		select {
		case <-h.clock.After(h.scan.Interval):
		case <-ctx.Done():
			return false, ctx.Err()
		}

		last, err := request(ctx, s, func(Client) *Pending[time.Time] { return device.LastScan() })
		if err != nil {
			return false, fmt.Errorf("reading last scan time: %w", err)
		}
		if last.After(requested) {
			h.logger.Debug("wireless scan completed", "attempt", attempt)
			return true, nil
		}
	}
	return false, nil
}

// FilterSSIDs converts raw SSIDs to strings. SSIDs that are empty or
// not valid UTF-8 are dropped, as are repeats; the first occurrence
// keeps its position. The result is never nil.
func FilterSSIDs(raw [][]byte) []string {
	seen := make(map[string]bool, len(raw))
	ssids := make([]string, 0, len(raw))
	for _, ssid := range raw {
		if len(ssid) == 0 || !utf8.Valid(ssid) {
			continue
		}
		name := string(ssid)
		if seen[name] {
			continue
		}
		seen[name] = true
		ssids = append(ssids, name)
	}
	return ssids
}
