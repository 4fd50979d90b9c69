// Package cli builds the depgraph-bench command tree. It replaces the
// teacher's own flag.FlagSet-based parser with Cobra for command
// structure and Viper for flag/environment-variable binding, the way
// Iron-Ham-claudio wires its own command tree; the teacher's parser is
// kept only as the grounding for how flags get validated and turned into
// a config struct (see runScenario's own minimal queue-kind check below).
package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vk/depgraph"
	"github.com/vk/depgraph/internal/benchconfig"
	"github.com/vk/depgraph/internal/ctxlog"
	"github.com/vk/depgraph/internal/halving"
	"github.com/vk/depgraph/internal/render"
	"github.com/vk/depgraph/queue"
)

// NewRootCommand builds the depgraph-bench root command with its "run"
// and "validate" subcommands.
func NewRootCommand() *cobra.Command {
	v := viper.New()

	root := &cobra.Command{
		Use:           "depgraph-bench",
		Short:         "Run synthetic dependency-graph build workloads",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().String("scenario", "scenario.hcl", "path to a scenario HCL file")
	_ = v.BindPFlag("scenario", root.PersistentFlags().Lookup("scenario"))
	v.SetEnvPrefix("DEPGRAPH_BENCH")
	v.AutomaticEnv()

	root.AddCommand(newValidateCommand(v))
	root.AddCommand(newRunCommand(v))
	return root
}

func newValidateCommand(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Parse a scenario file and print it without running it",
		RunE: func(cmd *cobra.Command, args []string) error {
			scenario, err := benchconfig.Load(v.GetString("scenario"))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "queue=%s workers=%d top_key=%d iterations=%d\n",
				scenario.Queue, scenario.Workers, scenario.TopKey, scenario.Iterations)
			return nil
		},
	}
}

func newRunCommand(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run a scenario and print a summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			scenario, err := benchconfig.Load(v.GetString("scenario"))
			if err != nil {
				return err
			}
			return runScenario(cmd.Context(), cmd.OutOrStdout(), scenario)
		},
	}
}

func runScenario(ctx context.Context, out io.Writer, scenario *benchconfig.Scenario) error {
	var q queue.Queue
	switch benchconfig.QueueKind(scenario.Queue) {
	case benchconfig.QueueInline:
		q = queue.NewInline()
	case benchconfig.QueuePool:
		q = queue.NewPool(scenario.Workers)
	case benchconfig.QueuePriority:
		priority := queue.NewPriority(scenario.Workers)
		q = priority.High()
	default:
		return fmt.Errorf("cli: unknown queue kind %q", scenario.Queue)
	}

	render.Scenario(out, scenario.Queue, scenario.Workers, scenario.TopKey)

	provider := depgraph.NewMapBuilderProvider[int, float64]()
	builder := halving.NewBuilder(scenario.Iterations)
	provider.Fallback = func(int) (depgraph.Builder[int, float64], bool) {
		return builder, true
	}
	engine := depgraph.New[int, float64](provider, q)

	log := ctxlog.FromContext(ctx)
	start := time.Now()
	_, err := engine.BuildObject(ctx, scenario.TopKey)
	elapsed := time.Since(start)

	summary := render.Summary{
		Queue:   scenario.Queue,
		Workers: scenario.Workers,
		TopKey:  scenario.TopKey,
		Elapsed: elapsed,
	}
	if err != nil {
		summary.Failed = 1
		render.Failure(out, scenario.TopKey, err)
		log.Warn("🔥 scenario failed", "top_key", scenario.TopKey, "err", err)
	} else {
		summary.Built = 1
		summary.Throughput = 1 / elapsed.Seconds()
	}
	render.Table(out, summary)
	return err
}
