package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	ginlib "github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/jeja2023/tp/gin"
)

var serveAddr string

func init() {
	ServeCommand.Flags().StringVar(&serveAddr, "addr", "", "address to listen on, the configured one by default")

	addCommands(&RootCmd, &ServeCommand)
}

var ServeCommand = cobra.Command{
	Use:              "serve",
	Short:            "Serve the local web view",
	Long:             "Serve the task table, the task pages, the map and the upload preview on a local address",
	PersistentPreRun: authenticated,
	RunE: func(cmd *cobra.Command, args []string) error {
		if env == "prod" {
			ginlib.SetMode(ginlib.ReleaseMode)
		}

		addr := serveAddr
		if addr == "" {
			addr = config.Serve.Address
		}

		handler := gin.New(gin.Dependencies{
			Sessions: app.sessions,
			Tasks:    app.tasks,
			Files:    app.exports,
			Map:      app.overlay,
			Uploader: app.upload,
			Logger:   logger,
			Hosts:    gin.LocalHosts(addr),
		})
		server := &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		errc := make(chan error, 1)
		go func() {
			logger.Printf("listening on http://%s", addr)
			errc <- server.ListenAndServe()
		}()

		select {
		case err := <-errc:
			return err
		case <-ctx.Done():
		}

		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdown)
	},
}
