// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/bureau-foundation/netbridge/lib/codec"
)

// dialTimeout is the maximum time to wait for a connection to the
// socket. It covers only the connect phase.
const dialTimeout = 5 * time.Second

// defaultResponseTimeout is how long the client waits for a response
// when ctx carries no deadline. Callers expecting slower answers, such
// as a Wi-Fi listing under a long scan budget, set a deadline on ctx.
const defaultResponseTimeout = 75 * time.Second

// maxResponseSize is the maximum size of a single CBOR response.
const maxResponseSize = 1024 * 1024

// ServiceError is returned by Call when the server responds with
// ok=false. Causes is the server's rendering of the failure's cause
// chain, outermost first; it may be empty.
type ServiceError struct {
	Action  string
	Message string
	Causes  []string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("service error on %q: %s", e.Action, e.Message)
}

// ServiceClient sends CBOR requests to a netbridge socket. Each Call
// opens a new connection (matching the server's one-request-per-
// connection model), sends the request, reads the response, and
// closes the connection.
type ServiceClient struct {
	socketPath string
}

// NewServiceClient creates a client for the socket at socketPath. No
// connection is made until Call.
func NewServiceClient(socketPath string) *ServiceClient {
	return &ServiceClient{socketPath: socketPath}
}

// Call sends a CBOR request to the service and decodes the response.
//
// The fields parameter may contain any action-specific request fields;
// the client adds "action" automatically. Pass nil for actions that
// take no parameters.
//
// On success, if result is non-nil and the response contains data,
// the data is CBOR-decoded into result. On failure (ok=false), returns
// a *ServiceError. Connection and encoding errors are returned as
// plain errors.
func (c *ServiceClient) Call(ctx context.Context, action string, fields map[string]any, result any) error {
	request := buildRequest(action, fields)

	response, err := c.send(ctx, request)
	if err != nil {
		return fmt.Errorf("calling %q on %s: %w", action, c.socketPath, err)
	}

	if !response.OK {
		return &ServiceError{
			Action:  action,
			Message: response.Error,
			Causes:  response.Causes,
		}
	}

	if result != nil && len(response.Data) > 0 {
		if err := codec.Unmarshal(response.Data, result); err != nil {
			return fmt.Errorf("decoding response data for %q: %w", action, err)
		}
	}

	return nil
}

// buildRequest copies the caller's fields and sets "action".
func buildRequest(action string, fields map[string]any) map[string]any {
	request := make(map[string]any, len(fields)+1)
	for key, value := range fields {
		request[key] = value
	}
	request["action"] = action
	return request
}

// send connects to the socket, writes the request, and reads the
// response.
func (c *ServiceClient) send(ctx context.Context, request any) (*Response, error) {
	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "unix", c.socketPath)
	if err != nil {
		return nil, fmt.Errorf("connecting: %w", err)
	}
	defer conn.Close()

	if err := codec.NewEncoder(conn).Encode(request); err != nil {
		return nil, fmt.Errorf("writing request: %w", err)
	}

	// Half-close so the server's read side sees EOF cleanly.
	if unixConn, ok := conn.(*net.UnixConn); ok {
		unixConn.CloseWrite()
	}

	conn.SetReadDeadline(responseDeadline(ctx, time.Now()))

	var response Response
	if err := codec.NewDecoder(io.LimitReader(conn, maxResponseSize)).Decode(&response); err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	return &response, nil
}

// responseDeadline is ctx's deadline, or defaultResponseTimeout from
// now when ctx has none.
func responseDeadline(ctx context.Context, now time.Time) time.Time {
	if deadline, ok := ctx.Deadline(); ok {
		return deadline
	}
	return now.Add(defaultResponseTimeout)
}
