package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/solatis/pactkeeper/internal/consumer"
	"github.com/solatis/pactkeeper/internal/core/config"
	"github.com/solatis/pactkeeper/internal/core/db"
	"github.com/solatis/pactkeeper/internal/core/server"
	"github.com/solatis/pactkeeper/internal/pact"
	"github.com/spf13/cobra"
)

var mockServerCmd = &cobra.Command{
	Use:   "mock-server",
	Short: "Serve the interactions of a pact from a capturing mock provider",
	Long: `Serve the interactions of a pact from a capturing mock provider.

The pact comes from --pact (file, directory, http(s) URL or s3://bucket/key)
or, with --provider and no --pact, from the configured pact broker.

Without --expect the server runs until interrupted. With --expect N it stops
once N requests arrived or the request timeout elapsed. The verification
result is printed on exit and a failing result exits non-zero.`,
	RunE: runMockServer,
}

func init() {
	rootCmd.AddCommand(mockServerCmd)
	mockServerCmd.Flags().String("pact", "", "pact file, directory, URL or s3:// location")
	mockServerCmd.Flags().String("consumer", "", "select the pact for this consumer")
	mockServerCmd.Flags().String("provider", "", "select the pact for this provider (required for broker sources)")
	mockServerCmd.Flags().Int("expect", 0, "stop after this many requests (0 runs until interrupted)")
	mockServerCmd.Flags().String("host", "127.0.0.1", "mock server host")
	mockServerCmd.Flags().Int("port", 0, "mock server port (0 picks a free port)")
	mockServerCmd.Flags().Int("control-port", 0, "gRPC health port (0 disables)")
	mockServerCmd.Flags().Duration("timeout", 0, "request timeout for --expect (overrides config)")
	mockServerCmd.Flags().Bool("no-write", false, "do not write the pact on success")
}

func runMockServer(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	ms := cfg.MockServer

	if cmd.Flags().Changed("host") {
		ms.Host, _ = cmd.Flags().GetString("host")
	}
	if cmd.Flags().Changed("port") {
		ms.Port, _ = cmd.Flags().GetInt("port")
	}
	if cmd.Flags().Changed("control-port") {
		ms.ControlPort, _ = cmd.Flags().GetInt("control-port")
	}
	if cmd.Flags().Changed("timeout") {
		ms.RequestTimeout, _ = cmd.Flags().GetDuration("timeout")
	}

	pactArg, _ := cmd.Flags().GetString("pact")
	consumerName, _ := cmd.Flags().GetString("consumer")
	providerName, _ := cmd.Flags().GetString("provider")
	expect, _ := cmd.Flags().GetInt("expect")
	noWrite, _ := cmd.Flags().GetBool("no-write")

	src, err := resolveSource(pactArg, providerName, cfg.Broker)
	if err != nil {
		return err
	}

	pacts, err := pact.NewLoader().Load(ctx, src)
	if err != nil {
		if len(pacts) == 0 {
			return fmt.Errorf("failed to load pacts: %w", err)
		}
		slog.Warn("some pacts failed to load", "source", src.Description(), "error", err)
	}

	p, err := selectPact(pacts, consumerName, providerName)
	if err != nil {
		return err
	}

	var opts []consumer.RunOption
	if noWrite {
		opts = append(opts, consumer.WithWriter(nil))
	}

	if dbURL != "" {
		database, err := db.Open(dbURL)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer database.Close()

		queries, err := db.LoadQueries(database)
		if err != nil {
			return fmt.Errorf("failed to load queries: %w", err)
		}
		opts = append(opts, consumer.WithRecorder(db.NewRunStore(queries)))
	}

	var control *server.ControlServer
	if ms.ControlPort > 0 {
		control = server.NewControlServer(ms)
		if _, err := control.Listen(); err != nil {
			return fmt.Errorf("failed to start control server: %w", err)
		}
		go func() {
			if err := control.Start(ctx); err != nil {
				slog.Error("control server stopped", "error", err)
			}
		}()
		defer func() {
			if err := control.Shutdown(context.Background()); err != nil {
				slog.Warn("control server shutdown", "error", err)
			}
		}()
	}

	slog.Info("Starting pactkeeper mock server",
		"version", Version,
		"consumer", p.Consumer.Name,
		"provider", p.Provider.Name,
		"source", src.Description())

	result := consumer.RunConsumerTest(ctx, p, ms, func(ctx context.Context, s *consumer.MockServer) error {
		fmt.Fprintln(cmd.OutOrStdout(), s.URL())
		if control != nil {
			control.SetServing(true)
			defer control.SetServing(false)
		}

		if expect <= 0 {
			<-ctx.Done()
			slog.Info("Shutting down gracefully...")
			return nil
		}
		err := s.WaitForRequests(ctx, expect)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}, opts...)

	fmt.Fprintln(cmd.OutOrStdout(), result.Description())
	return consumer.Validate(result)
}

// resolveSource maps the --pact argument to a pact source. An empty argument
// with a provider selects the configured broker.
func resolveSource(arg, provider string, broker config.BrokerConfig) (pact.Source, error) {
	switch {
	case arg == "" && provider != "":
		if broker.URL == "" {
			return nil, fmt.Errorf("--provider without --pact requires broker.url (or PACT_BROKER_URL)")
		}
		return broker.Source(provider), nil
	case arg == "":
		return nil, fmt.Errorf("--pact required")
	case strings.HasPrefix(arg, "s3://"):
		return pact.S3Source{URL: arg}, nil
	case strings.HasPrefix(arg, "http://"), strings.HasPrefix(arg, "https://"):
		return pact.URLSource{URL: arg}, nil
	}

	info, err := os.Stat(arg)
	if err != nil {
		return nil, fmt.Errorf("failed to access pact location: %w", err)
	}
	if info.IsDir() {
		return pact.DirectorySource{Dir: arg}, nil
	}
	return pact.FileSource{Path: arg}, nil
}

// selectPact picks the single pact matching the consumer and provider filters.
func selectPact(pacts []*pact.Pact, consumerName, providerName string) (*pact.Pact, error) {
	var matched []*pact.Pact
	for _, p := range pacts {
		if consumerName != "" && p.Consumer.Name != consumerName {
			continue
		}
		if providerName != "" && p.Provider.Name != providerName {
			continue
		}
		matched = append(matched, p)
	}

	switch len(matched) {
	case 0:
		return nil, fmt.Errorf("no pact matches consumer %q and provider %q", consumerName, providerName)
	case 1:
		return matched[0], nil
	default:
		names := make([]string, len(matched))
		for i, p := range matched {
			names[i] = pact.FileName(p)
		}
		return nil, fmt.Errorf("%d pacts loaded (%s); narrow with --consumer or --provider",
			len(matched), strings.Join(names, ", "))
	}
}
