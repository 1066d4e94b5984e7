// Command spider is the example CLI runner for the crawl core (§4.10):
// a thin wrapper around internal/cli, explicitly out-of-core.
package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/rohmanhakim/spider/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cli.Execute(ctx)
}
