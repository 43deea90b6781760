// wsping checks that a gateway answers: it sends one ping (or a token check with -token) and waits for pong.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	json "github.com/goccy/go-json"

	"github.com/e-zhydzetski/wsgate/pkg/gateway"
)

func main() {
	addr := flag.String("addr", "ws://localhost:5586/ws", "gateway endpoint")
	tok := flag.String("token", "", "session token; when set the guarded check operation is used instead of ping")
	timeout := flag.Duration("timeout", 5*time.Second, "overall timeout")
	flag.Parse()

	if err := run(*addr, *tok, *timeout); err != nil {
		fmt.Fprintln(os.Stderr, "wsping:", err)
		os.Exit(1)
	}
}

func run(addr, tok string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	peer, err := gateway.Dial(ctx, addr)
	if err != nil {
		return err
	}
	defer peer.Close(nil)

	req := gateway.Envelope{Operation: gateway.OpPing}
	if tok != "" {
		req = gateway.Envelope{Operation: gateway.OpUser, Token: tok}
	}

	start := time.Now()
	if err := peer.Send(req); err != nil {
		return err
	}

	select {
	case env, ok := <-peer.Envelopes():
		if !ok {
			return fmt.Errorf("connection closed: %v", peer.Err())
		}
		switch env.Operation {
		case gateway.OpPong:
			fmt.Printf("pong from %s in %v\n", addr, time.Since(start).Round(time.Microsecond))
			return nil
		case gateway.OpInvalidPayload:
			var data gateway.InvalidPayloadData
			_ = json.Unmarshal(env.Data, &data)
			return fmt.Errorf("rejected: %s", data.Msg)
		default:
			return fmt.Errorf("unexpected %v", env.Operation)
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}
