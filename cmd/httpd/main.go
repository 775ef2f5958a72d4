// Command httpd is an HTTP/1.0 origin server with a bounded-concurrency
// admission/dispatch subsystem: a fixed worker pool drains a
// capacity-limited queue fed by a single accepting goroutine, applying
// one of four overload policies whenever occupancy reaches capacity.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"http10admit/internal/admission"
	"http10admit/internal/config"
	"http10admit/internal/dispatcher"
	"http10admit/internal/handler"
	"http10admit/internal/workerpool"
)

// scriptLatencyFloor keeps dynamic-script handler latency in the
// "hundreds of milliseconds" band the admission subsystem is meant to be
// exercised under, even when the script itself runs instantly.
const scriptLatencyFloor = 200 * time.Millisecond

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	cfg, err := config.ParseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := run(cfg, log); err != nil {
		log.Error().Err(err).Msg("httpd: fatal")
		os.Exit(1)
	}
}

func run(cfg config.Config, log zerolog.Logger) error {
	addr := fmt.Sprintf(":%d", cfg.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getwd: %w", err)
	}

	log.Info().
		Int("port", cfg.Port).
		Int("threads", cfg.Threads).
		Int("queue_size", cfg.QueueSize).
		Str("policy", cfg.Policy.String()).
		Str("doc_root", wd).
		Msg("httpd: starting")

	q := admission.NewQueue(cfg.QueueSize, cfg.Policy, log)
	h := handler.New(wd, scriptLatencyFloor, log)
	pool := workerpool.New(cfg.Threads, q, h, log)
	d := dispatcher.New(ln, q, log)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	pool.Run(gctx)

	g.Go(func() error {
		return d.Serve(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		// Unblocks the accept loop; Accept returns net.ErrClosed, which
		// Serve treats as a clean shutdown once ctx is also done.
		return ln.Close()
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("serve: %w", err)
	}

	log.Info().Msg("httpd: shut down cleanly")
	return nil
}
