package main

import (
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nightgrid/captiond/internal/api"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the extraction and rule-management API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		engine, err := initEngine(st)
		if err != nil {
			return err
		}
		if engine == nil {
			zap.L().Warn("no Anthropic key configured, POST /api/v1/extract disabled")
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		// A typed nil *consensus.Engine is a non-nil api.Extractor.
		var extractor api.Extractor
		if engine != nil {
			extractor = engine
		}

		srv := api.NewServer(port, extractor, st)
		if err := srv.Start(ctx); err != nil {
			return eris.Wrap(err, "server listen")
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
