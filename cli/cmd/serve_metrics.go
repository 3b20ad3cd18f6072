// Copyright 2025 NetApp, Inc. All Rights Reserved.

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/netapp/guts/config"
	"github.com/netapp/guts/frontend/metrics"
	. "github.com/netapp/guts/logging"
	"github.com/netapp/guts/pkg/eventbus"
	"github.com/netapp/guts/pkg/eventbus/types"
	"github.com/netapp/guts/utils/errors"
)

const demoTopic = "demo"

// ServeOptions configures the metrics demo.
type ServeOptions struct {
	ConfigFile string
	Address    string
	Port       string
	Interval   time.Duration
	Duration   time.Duration
	TLS        metrics.TLSConfig
}

var serveOpts = ServeOptions{}

func init() {
	RootCmd.AddCommand(serveMetricsCmd)
	flags := serveMetricsCmd.Flags()
	flags.StringVarP(&serveOpts.ConfigFile, "filename", "f", "", "Configuration file of the event service")
	flags.StringVar(&serveOpts.Address, "address", "", "Metrics listen address (default from the configuration)")
	flags.StringVar(&serveOpts.Port, "port", "", "Metrics listen port (default from the configuration)")
	flags.DurationVar(&serveOpts.Interval, "interval", time.Second, "Period of the demo publisher")
	flags.DurationVar(&serveOpts.Duration, "duration", 0, "Stop after this long (default: until interrupted)")
	flags.StringVar(&serveOpts.TLS.CertFile, "tls-cert", "", "Server certificate; enables HTTPS")
	flags.StringVar(&serveOpts.TLS.KeyFile, "tls-key", "", "Server private key")
	flags.StringVar(&serveOpts.TLS.CACertFile, "tls-ca", "", "CA certificate verifying client certificates")
	flags.StringVar(&serveOpts.TLS.ClientCommonName, "tls-client-name", "",
		"Required client certificate common name; enables mutual TLS")
}

var serveMetricsCmd = &cobra.Command{
	Use:   "serve-metrics",
	Short: "Run a demo event service and serve its metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return ServeMetrics(ctx, cmd.OutOrStdout(), serveOpts)
	},
}

type heartbeat struct {
	Seq int64
}

type heartbeatCounter struct {
	seen atomic.Int64
}

func (h *heartbeatCounter) EventMethods() []types.MethodSpec {
	return []types.MethodSpec{types.Consumes("OnHeartbeat", types.WithTopic(demoTopic))}
}

func (h *heartbeatCounter) OnHeartbeat(heartbeat) {
	h.seen.Add(1)
}

// ServeMetrics publishes a heartbeat every opts.Interval and serves the service metrics until ctx ends or
// opts.Duration elapses. The bound address is written to w once the server is up.
func ServeMetrics(ctx context.Context, w io.Writer, opts ServeOptions) error {
	if opts.Interval <= 0 {
		return errors.InvalidInputError("interval must be positive")
	}

	file := config.DefaultFile()
	if opts.ConfigFile != "" {
		var err error
		if file, err = config.LoadFile(opts.ConfigFile); err != nil {
			return err
		}
	}
	serviceOpts, err := eventbus.OptionsFromFile(file)
	if err != nil {
		return err
	}
	serviceOpts = append(serviceOpts, eventbus.WithChannels(types.KeyOf[heartbeat](demoTopic)))

	address, port := file.Metrics.Address, file.Metrics.Port
	if opts.Address != "" {
		address = opts.Address
	}
	if opts.Port != "" {
		port = opts.Port
	}

	ctx = GenerateRequestContext(ctx, "", ContextSourceCLI, WorkflowEventPublish, LogLayerCLI)
	service, err := eventbus.NewService(ctx, serviceOpts...)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := service.Close(ctx); closeErr != nil {
			Logc(ctx).WithError(closeErr).Warn("Could not close event service.")
		}
	}()

	var serverOpts []metrics.Option
	if opts.TLS.CertFile != "" {
		serverOpts = append(serverOpts, metrics.WithTLS(opts.TLS))
	}
	server, err := metrics.NewServer(address, port, service.Gatherer(), serverOpts...)
	if err != nil {
		return err
	}
	if err = server.Activate(); err != nil {
		return err
	}
	defer func() {
		if deactivateErr := server.Deactivate(); deactivateErr != nil {
			Logc(ctx).WithError(deactivateErr).Warn("Could not stop metrics frontend.")
		}
	}()
	_, _ = fmt.Fprintf(w, "Serving %s on %s%s\n", server.GetName(), server.Addr(), config.MetricsPath)

	counter := &heartbeatCounter{}
	if _, err = eventbus.Register(ctx, service.Hook(), counter); err != nil {
		return err
	}
	channel, err := eventbus.GetChannel[heartbeat](ctx, service, demoTopic)
	if err != nil {
		return err
	}

	if opts.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Duration)
		defer cancel()
	}

	ticker := time.NewTicker(opts.Interval)
	defer ticker.Stop()
	var seq int64
	for {
		select {
		case <-ctx.Done():
			_, _ = fmt.Fprintf(w, "Published %d heartbeats, %d delivered\n", seq, counter.seen.Load())
			return nil
		case <-ticker.C:
			seq++
			if err = channel.Publish(ctx, heartbeat{Seq: seq}); err != nil {
				return err
			}
		}
	}
}
