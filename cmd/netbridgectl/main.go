// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// netbridgectl queries a running netbridge daemon over its control
// socket.
//
// Usage:
//
//	netbridgectl [--socket path] [--json] [--color mode] [--timeout duration] <command>
//
// Commands:
//
//	connectivity   NetworkManager's connectivity state
//	connections    saved connection profiles
//	wifi           visible Wi-Fi networks (triggers a scan)
//	health         daemon and worker loop state
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/netbridge/api"
	"github.com/bureau-foundation/netbridge/bridge"
	"github.com/bureau-foundation/netbridge/lib/config"
	"github.com/bureau-foundation/netbridge/lib/process"
	"github.com/bureau-foundation/netbridge/lib/service"
	"github.com/bureau-foundation/netbridge/lib/tui"
	"github.com/bureau-foundation/netbridge/lib/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		process.Fatal(err)
	}
}

// subcommand maps a command-line verb to a socket action.
type subcommand struct {
	name    string
	action  string
	summary string
}

var subcommands = []subcommand{
	{"connectivity", string(bridge.KindCheckConnectivity), "NetworkManager's connectivity state"},
	{"connections", string(bridge.KindListConnections), "saved connection profiles"},
	{"wifi", string(bridge.KindListWiFiNetworks), "visible Wi-Fi networks (triggers a scan)"},
	{"health", api.HealthAction, "daemon and worker loop state"},
}

func lookup(name string) (subcommand, bool) {
	for _, command := range subcommands {
		if command.name == name {
			return command, true
		}
	}
	return subcommand{}, false
}

// exitError carries an exit status for a failure already reported to
// the user.
type exitError struct{ code int }

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }
func (e *exitError) ExitCode() int { return e.code }

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var socketPath string
	var jsonOutput bool
	var timeout time.Duration
	var colorMode string
	var showVersion bool

	flagSet := pflag.NewFlagSet("netbridgectl", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.StringVar(&socketPath, "socket", config.Default().Socket.Path, "netbridge control socket")
	flagSet.BoolVar(&jsonOutput, "json", false, "print the response as JSON")
	flagSet.StringVar(&colorMode, "color", tui.ColorAuto, "color output: auto, always or never")
	flagSet.DurationVar(&timeout, "timeout", 90*time.Second, "maximum time to wait for the daemon (wifi needs more than the daemon's scan budget)")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")
	flagSet.BoolP("help", "h", false, "show help")
	flagSet.Usage = func() { printHelp(stderr, flagSet) }

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(stdout, flagSet)
		return nil
	}
	if showVersion {
		fmt.Fprintf(stdout, "netbridgectl %s\n", version.Info())
		return nil
	}

	rest := flagSet.Args()
	if len(rest) != 1 {
		printHelp(stderr, flagSet)
		return &exitError{code: 2}
	}
	command, ok := lookup(rest[0])
	if !ok {
		return fmt.Errorf("unknown command %q (run netbridgectl --help)", rest[0])
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out, err := newRenderer(stdout, jsonOutput, colorMode)
	if err != nil {
		return err
	}
	errOut, err := newRenderer(stderr, false, colorMode)
	if err != nil {
		return err
	}

	if err := execute(ctx, service.NewServiceClient(socketPath), command, out); err != nil {
		var serviceErr *service.ServiceError
		if errors.As(err, &serviceErr) {
			errOut.failure(serviceErr)
			return &exitError{code: 1}
		}
		return err
	}
	return nil
}

// caller is the part of *service.ServiceClient netbridgectl uses.
type caller interface {
	Call(ctx context.Context, action string, fields map[string]any, result any) error
}

func execute(ctx context.Context, client caller, command subcommand, out *renderer) error {
	switch command.action {
	case string(bridge.KindCheckConnectivity):
		var response bridge.ConnectivityResponse
		if err := client.Call(ctx, command.action, nil, &response); err != nil {
			return err
		}
		return out.connectivity(response)
	case string(bridge.KindListConnections):
		var response bridge.ConnectionsResponse
		if err := client.Call(ctx, command.action, nil, &response); err != nil {
			return err
		}
		return out.connections(response)
	case string(bridge.KindListWiFiNetworks):
		var response bridge.WiFiNetworksResponse
		if err := client.Call(ctx, command.action, nil, &response); err != nil {
			return err
		}
		return out.wifi(response)
	case api.HealthAction:
		var health api.Health
		if err := client.Call(ctx, command.action, nil, &health); err != nil {
			return err
		}
		return out.health(health)
	default:
		return fmt.Errorf("no renderer for action %q", command.action)
	}
}

func printHelp(w io.Writer, flagSet *pflag.FlagSet) {
	styles := tui.NewStyles(tui.DefaultTheme, lipgloss.NewRenderer(w))
	fmt.Fprintf(w, "%s\n\n", styles.Header.Render("netbridgectl: query a running netbridge daemon"))
	fmt.Fprintf(w, "Usage: netbridgectl [flags] <command>\n\n")
	fmt.Fprintf(w, "%s\n", styles.Header.Render("Commands:"))
	for _, command := range subcommands {
		fmt.Fprintf(w, "  %-14s %s\n", command.name, styles.Faint.Render(command.summary))
	}
	fmt.Fprintf(w, "\n%s\n", styles.Header.Render("Flags:"))
	fmt.Fprint(w, flagSet.FlagUsages())
}
