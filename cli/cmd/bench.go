// Copyright 2025 NetApp, Inc. All Rights Reserved.

package cmd

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
	"k8s.io/apimachinery/pkg/util/wait"

	. "github.com/netapp/guts/logging"
	"github.com/netapp/guts/pkg/eventbus"
	"github.com/netapp/guts/pkg/eventbus/types"
	antspool "github.com/netapp/guts/pkg/workerpool/ants"
	"github.com/netapp/guts/utils/errors"
)

const (
	benchPolicy = types.ThreadPolicy("bench")

	BenchPolicyCurrent    = "current"
	BenchPolicyPooled     = "pooled"
	BenchPolicySequential = "sequential"
)

// BenchOptions sizes one benchmark run.
type BenchOptions struct {
	Subscribers int
	Events      int
	Publishers  int
	Policy      string
	Workers     int
	Timeout     time.Duration
}

// BenchResult is what a benchmark run measured.
type BenchResult struct {
	Subscribers int           `json:"subscribers"`
	Events      int           `json:"events"`
	Publishers  int           `json:"publishers"`
	Policy      string        `json:"policy"`
	Delivered   int64         `json:"delivered"`
	Failed      int64         `json:"failed"`
	Elapsed     time.Duration `json:"elapsed"`
	PerSecond   float64       `json:"deliveriesPerSecond"`
}

var benchOpts = BenchOptions{}

func init() {
	RootCmd.AddCommand(benchCmd)
	addBenchFlags(benchCmd.Flags(), &benchOpts)
}

func addBenchFlags(flags *pflag.FlagSet, opts *BenchOptions) {
	flags.IntVar(&opts.Subscribers, "subscribers", 100, "Number of subscriber objects")
	flags.IntVar(&opts.Events, "events", 10000, "Number of events published")
	flags.IntVar(&opts.Publishers, "publishers", 4, "Number of concurrent publishers")
	flags.StringVar(&opts.Policy, "policy", BenchPolicyCurrent, "Consumer thread policy: current|pooled|sequential")
	flags.IntVar(&opts.Workers, "workers", runtime.NumCPU(), "Pool size of the pooled policy")
	flags.DurationVar(&opts.Timeout, "timeout", time.Minute, "Maximum time to wait for deliveries")
}

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Publish events to many subscribers and report the delivery rate",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := GenerateRequestContext(cmd.Context(), "", ContextSourceCLI, WorkflowCLIBench, LogLayerCLI)
		result, err := RunBench(ctx, benchOpts)
		if err != nil {
			return err
		}
		return writeBenchResult(cmd.OutOrStdout(), result)
	},
}

type benchEvent struct {
	Seq int
}

type benchSubscriber struct {
	delivered *atomic.Int64
	policy    types.ThreadPolicy
}

func (b *benchSubscriber) EventMethods() []types.MethodSpec {
	var opts []types.MethodOption
	if b.policy != types.PolicyNone {
		opts = append(opts, types.InPolicy(b.policy))
	}
	return []types.MethodSpec{types.Consumes("OnEvent", opts...)}
}

func (b *benchSubscriber) OnEvent(benchEvent) {
	b.delivered.Add(1)
}

func (o BenchOptions) validate() error {
	if o.Subscribers < 1 || o.Events < 1 || o.Publishers < 1 {
		return errors.InvalidInputError("subscribers, events and publishers must be positive")
	}
	if o.Timeout <= 0 {
		return errors.InvalidInputError("timeout must be positive")
	}
	return nil
}

// RunBench registers opts.Subscribers subscribers on one channel, publishes opts.Events events from
// opts.Publishers goroutines and waits until every delivery was made or failed.
func RunBench(ctx context.Context, opts BenchOptions) (*BenchResult, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	var delivered, failed atomic.Int64
	serviceOpts := []eventbus.Option{
		eventbus.WithChannels(types.KeyOf[benchEvent]()),
		eventbus.WithExceptionHandler(eventbus.ExceptionHandlerFunc(func(context.Context, types.Failure) {
			failed.Add(1)
		})),
	}

	policy := benchPolicy
	switch opts.Policy {
	case BenchPolicyCurrent:
		policy = types.PolicyNone
	case BenchPolicyPooled:
		serviceOpts = append(serviceOpts, eventbus.WithPooledPolicy(policy, antspool.NewConfig(
			antspool.WithName(string(policy)),
			antspool.WithNumWorkers(opts.Workers),
		)))
	case BenchPolicySequential:
		// The whole run is one burst, so the backlog warning stays quiet.
		serviceOpts = append(serviceOpts, eventbus.WithSequentialPolicy(policy, opts.Events+1))
	default:
		return nil, errors.InvalidInputError("unknown bench policy %q", opts.Policy)
	}

	service, err := eventbus.NewService(ctx, serviceOpts...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := service.Close(ctx); closeErr != nil {
			Logc(ctx).WithError(closeErr).Warn("Could not close bench event service.")
		}
	}()

	subscribers := make([]*benchSubscriber, opts.Subscribers)
	for i := range subscribers {
		subscribers[i] = &benchSubscriber{delivered: &delivered, policy: policy}
		if _, err = eventbus.Register(ctx, service.Hook(), subscribers[i]); err != nil {
			return nil, err
		}
	}

	channel, err := eventbus.GetChannel[benchEvent](ctx, service)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for p := range opts.Publishers {
		g.Go(func() error {
			for seq := p; seq < opts.Events; seq += opts.Publishers {
				if err := gctx.Err(); err != nil {
					return err
				}
				if err := channel.Publish(gctx, benchEvent{Seq: seq}); err != nil {
					return err
				}
			}
			return nil
		})
	}
	if err = g.Wait(); err != nil {
		return nil, fmt.Errorf("publishing failed; %w", err)
	}

	expected := int64(opts.Subscribers) * int64(opts.Events)
	err = wait.PollUntilContextTimeout(ctx, 5*time.Millisecond, opts.Timeout, true,
		func(context.Context) (bool, error) {
			return delivered.Load()+failed.Load() >= expected, nil
		})
	elapsed := time.Since(start)
	runtime.KeepAlive(subscribers)
	if err != nil {
		return nil, fmt.Errorf("only %d of %d deliveries completed; %w", delivered.Load()+failed.Load(), expected, err)
	}

	result := &BenchResult{
		Subscribers: opts.Subscribers,
		Events:      opts.Events,
		Publishers:  opts.Publishers,
		Policy:      opts.Policy,
		Delivered:   delivered.Load(),
		Failed:      failed.Load(),
		Elapsed:     elapsed,
	}
	if elapsed > 0 {
		result.PerSecond = float64(result.Delivered) / elapsed.Seconds()
	}

	Logc(ctx).WithFields(LogFields{
		"policy":    result.Policy,
		"delivered": result.Delivered,
		"elapsed":   result.Elapsed,
	}).Debug("Benchmark completed.")
	return result, nil
}

func writeBenchResult(w io.Writer, result *BenchResult) error {
	if done, err := writeStructured(w, result); done {
		return err
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Policy", "Subscribers", "Events", "Publishers", "Delivered", "Failed", "Elapsed",
		"Deliveries/s"})
	table.Append([]string{
		result.Policy,
		strconv.Itoa(result.Subscribers),
		humanize.Comma(int64(result.Events)),
		strconv.Itoa(result.Publishers),
		humanize.Comma(result.Delivered),
		humanize.Comma(result.Failed),
		result.Elapsed.Round(time.Microsecond).String(),
		humanize.Comma(int64(result.PerSecond)),
	})
	table.Render()
	return nil
}
