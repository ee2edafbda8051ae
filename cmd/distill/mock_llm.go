package main

import (
	"context"
	"net"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jingkaihe/distill/pkg/logger"
	"github.com/jingkaihe/distill/pkg/mockllm"
	"github.com/jingkaihe/distill/pkg/presenter"
)

var mockLLMCmd = &cobra.Command{
	Use:   "mock-llm",
	Short: "Serve canned OpenAI, Anthropic and Gemini completions",
	Long: `Start a local server that answers chat completion, messages and
generateContent requests with a canned skill, so the pipeline can run
without a real provider:

  distill mock-llm --addr :5001 &
  DISTILL_OPENAI_BASE_URL=http://localhost:5001/v1 OPENAI_API_KEY=mock \
    distill run --provider openai --input guide.md --output-json skills.json`,
	Run: func(cmd *cobra.Command, _ []string) {
		addr, _ := cmd.Flags().GetString("addr")
		config, err := parseServerAddr(addr)
		if err != nil {
			presenter.Error(err, "Invalid --addr")
			exit(cmd.Context(), 1)
		}

		server, err := mockllm.NewServer(config)
		if err != nil {
			presenter.Error(err, "Failed to create mock server")
			exit(cmd.Context(), 1)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		logger.G(ctx).WithField("addr", server.Address()).Info("mock llm server listening")
		if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			presenter.Error(err, "Mock server stopped")
			exit(cmd.Context(), 1)
		}
	},
}

func init() {
	mockLLMCmd.Flags().String("addr", ":5001", "Listen address (host:port)")
}

// parseServerAddr splits host:port; an empty host listens on all interfaces
func parseServerAddr(addr string) (*mockllm.ServerConfig, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse address %q", addr)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid port %q", portStr)
	}
	if host == "" {
		host = "0.0.0.0"
	}
	config := &mockllm.ServerConfig{Host: host, Port: port}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}
