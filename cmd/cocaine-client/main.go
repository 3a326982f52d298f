// Command cocaine-client connects to a cocaine-speaking endpoint, invokes
// one named event with a JSON-array argument list, and prints every
// frame the server dispatches back until the event's upstream protocol
// chokes.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/danmuck/cocaine"
	"github.com/danmuck/cocaine/internal/observability"
	"github.com/danmuck/cocaine/session"
	"github.com/danmuck/cocaine/wire"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:10053", "host:port of the cocaine endpoint")
	tag := flag.String("event", "", "event tag to invoke, e.g. app.enqueue")
	argsJSON := flag.String("args", "[]", "JSON array of arguments for the event")
	upstreamType := flag.Uint64("upstream-type", 0, "message type that terminates the upstream (choke)")
	mute := flag.Bool("mute", false, "treat the event as mute (push, no receiver)")
	timeout := flag.Duration("timeout", 10*time.Second, "overall deadline for connect + invoke")
	tlsEnabled := flag.Bool("tls", false, "enable TLS on the transport")
	tlsCA := flag.String("tls-ca", "", "PEM CA bundle for server verification")
	flag.Parse()

	logger := observability.InitLogger("cocaine-client")

	if *tag == "" {
		fmt.Fprintln(os.Stderr, "cocaine-client: -event is required")
		os.Exit(1)
	}

	var args []any
	if err := json.Unmarshal([]byte(*argsJSON), &args); err != nil {
		fmt.Fprintf(os.Stderr, "cocaine-client: parse -args: %v\n", err)
		os.Exit(1)
	}

	if err := run(logger, *addr, *tag, args, *upstreamType, *mute, *timeout, *tlsEnabled, *tlsCA); err != nil {
		fmt.Fprintf(os.Stderr, "cocaine-client: %v\n", err)
		os.Exit(1)
	}
}

func run(logger zerolog.Logger, addr, tag string, args []any, upstreamType uint64, mute bool, timeout time.Duration, tlsEnabled bool, tlsCA string) error {
	cfg := session.DefaultConfig()
	cfg.TLS.Enabled = tlsEnabled
	cfg.TLS.CAFile = tlsCA

	upstream := wire.NewProtocol(nil)
	if !mute {
		upstream = wire.NewProtocol(map[uint64]wire.ProtocolState{
			upstreamType: {Terminal: true},
		})
	}
	registry := wire.StaticRegistry{
		tag: {InitialType: 0, Dispatch: wire.NewProtocol(nil), Upstream: upstream},
	}

	sess := cocaine.New(cfg, registry, logger)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	host, portStr, err := splitHostPort(addr)
	if err != nil {
		return err
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return fmt.Errorf("cocaine-client: invalid port %q: %w", portStr, err)
	}

	connFut := sess.Connect(ctx, wire.TCPEndpoint(host, uint16(port)))
	if dialErr, getErr := connFut.Get(); getErr != nil {
		return getErr
	} else if dialErr != nil {
		return dialErr
	}
	defer sess.Disconnect()

	if mute {
		if err := cocaine.Push(ctx, sess, tag, args); err != nil {
			return err
		}
		fmt.Println("pushed")
		return nil
	}

	_, rx, err := cocaine.Invoke(ctx, sess, tag, args)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(os.Stdout)
	defer w.Flush()
	for {
		f, err := rx.Next(ctx)
		if err != nil {
			return nil
		}
		var decoded []any
		if decErr := wire.UnmarshalArgs(f, &decoded); decErr == nil {
			pretty, _ := json.Marshal(decoded)
			fmt.Fprintf(w, "type=%d args=%s\n", f.Type, pretty)
		} else {
			fmt.Fprintf(w, "type=%d (undecodable args)\n", f.Type)
		}
	}
}

func splitHostPort(addr string) (host, port string, err error) {
	idx := strings.LastIndex(addr, ":")
	if idx < 0 {
		return "", "", fmt.Errorf("cocaine-client: address %q missing port", addr)
	}
	return addr[:idx], addr[idx+1:], nil
}
