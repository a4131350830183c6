package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/thywilljoshua/study-buddy/internal/observability"
	"github.com/thywilljoshua/study-buddy/internal/server"
	"github.com/thywilljoshua/study-buddy/internal/session"
)

func serveCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the study API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				a.cfg.Server.Addr = addr
			}

			var metrics *observability.Metrics
			if a.cfg.Metrics.Enabled {
				metrics = observability.NewMetrics()
			}
			gen, err := a.generator(cmd.Context(), metrics)
			if err != nil {
				return err
			}
			mgr := session.NewManager(gen, session.Options{
				MaxSessions: a.cfg.Session.MaxSessions,
				TTL:         a.cfg.Session.TTL,
				Logger:      a.log.Named("session"),
				Metrics:     metrics,
			})
			srv := server.New(a.cfg.Server, mgr, metrics, a.cfg.Metrics.Path, a.log.Named("http"))

			a.log.Info("starting studybuddy",
				zap.String("addr", a.cfg.Server.Addr),
				zap.String("model", a.cfg.AI.Model),
				zap.Bool("metrics", metrics != nil))
			return srv.Run(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}
