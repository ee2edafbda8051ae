package main

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jingkaihe/distill/pkg/logger"
	"github.com/jingkaihe/distill/pkg/telemetry"
	"github.com/jingkaihe/distill/pkg/version"
)

var shutdownTracing telemetry.ShutdownFunc

// tracingConfig reads the tracing section of the configuration
func tracingConfig() telemetry.Config {
	return telemetry.Config{
		Enabled:        viper.GetBool("tracing.enabled"),
		ServiceName:    "distill",
		ServiceVersion: version.Get().Version,
		SamplerType:    viper.GetString("tracing.sampler"),
		SamplerRatio:   viper.GetFloat64("tracing.ratio"),
	}
}

// startTracing initializes the OpenTelemetry tracing system
func startTracing(cmd *cobra.Command) error {
	if shutdownTracing != nil {
		return nil
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	shutdown, err := telemetry.InitTracer(ctx, tracingConfig())
	if err != nil {
		return err
	}
	shutdownTracing = shutdown
	return nil
}

// stopTracing flushes pending spans. It is safe to call more than once.
func stopTracing(ctx context.Context) {
	if shutdownTracing == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	shutdown := shutdownTracing
	shutdownTracing = nil
	if err := shutdown(ctx); err != nil {
		logger.G(ctx).WithError(err).Warn("failed to shut down tracing")
	}
}

// sensitiveFlags are never recorded as span attributes
var sensitiveFlags = map[string]bool{"password": true, "token": true, "key": true, "api-key": true}

// withTracing wraps a Cobra command with tracing
func withTracing(cmd *cobra.Command) *cobra.Command {
	originalRun := cmd.Run

	cmd.Run = func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		attrs := []attribute.KeyValue{
			attribute.String("command.name", cmd.Name()),
			attribute.String("command.path", cmd.CommandPath()),
			attribute.Int("args.count", len(args)),
		}
		cmd.Flags().Visit(func(flag *pflag.Flag) {
			if !sensitiveFlags[flag.Name] {
				attrs = append(attrs, attribute.String("flag."+flag.Name, flag.Value.String()))
			}
		})

		ctx, span := telemetry.Tracer().Start(ctx, "cli.command", trace.WithAttributes(attrs...))
		defer span.End()

		cmd.SetContext(ctx)
		originalRun(cmd, args)
		span.SetStatus(codes.Ok, "")
	}

	return cmd
}

// Initialize global flags for tracing
func init() {
	rootCmd.PersistentFlags().Bool("tracing-enabled", false, "Enable OpenTelemetry tracing")
	rootCmd.PersistentFlags().String("tracing-sampler", "ratio", "Tracing sampler type (always, never, ratio)")
	rootCmd.PersistentFlags().Float64("tracing-ratio", 1, "Sampling ratio when using ratio sampler")

	viper.BindPFlag("tracing.enabled", rootCmd.PersistentFlags().Lookup("tracing-enabled"))
	viper.BindPFlag("tracing.sampler", rootCmd.PersistentFlags().Lookup("tracing-sampler"))
	viper.BindPFlag("tracing.ratio", rootCmd.PersistentFlags().Lookup("tracing-ratio"))
}
