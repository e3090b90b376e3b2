// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"context"
	"fmt"
)

// Submit sends command to the Loop and waits for its single response.
//
// The three outcomes are: the handler's Response; the handler's error
// chain; or a bridge failure (queue closed, request abandoned), which
// matches ErrBridge. Every error carries a leading "failed to <action>"
// frame. If ctx ends first, Submit abandons the request and returns
// ctx.Err(); the handler still runs to completion.
func (s *Sender) Submit(ctx context.Context, command Command) (Response, error) {
	action := command.Kind().Action()

	request, completion := NewRequest(command)
	if err := s.Send(request); err != nil {
		return nil, fmt.Errorf("failed to %s: %w", action, err)
	}

	response, err := completion.Wait(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to %s: %w", action, err)
	}
	return response, nil
}
