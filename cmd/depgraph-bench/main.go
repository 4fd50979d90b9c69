// Command depgraph-bench runs a synthetic dependency-graph build workload
// described by a scenario HCL file, exercising the depgraph engine
// against whichever of its three reference queue implementations the
// scenario selects.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/vk/depgraph/internal/cli"
	"github.com/vk/depgraph/internal/ctxlog"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	ctx := ctxlog.WithLogger(context.Background(), logger)

	root := cli.NewRootCommand()
	root.SetContext(ctx)
	if err := root.Execute(); err != nil {
		logger.Error("depgraph-bench failed", "err", err)
		os.Exit(1)
	}
}
