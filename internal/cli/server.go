package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quiz-client/internal/app"
	transport "quiz-client/internal/transport/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
)

// NewServeCmd builds the subcommand that starts the local browser bridge.
func NewServeCmd(flags *rootFlags) *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the attempt flow to a local browser over websocket",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), flags, port)
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "port to listen on (default from config or 8090)")
	return cmd
}

func runServer(ctx context.Context, flags *rootFlags, portFlag string) error {
	rt, err := newRuntime(flags, os.Stderr)
	if err != nil {
		return err
	}
	defer rt.Close()

	finalPort := portFlag
	if finalPort == "" {
		finalPort = rt.cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8090"
	}

	client, err := rt.client(rt.cookies)
	if err != nil {
		return err
	}
	api := cachedQuizAPI{Client: client, questions: rt.questionSource(client)}
	resolver := app.NewSessionResolver(client, rt.log.WithField("component", "session"))

	newMachine := func(r *http.Request) *app.AttemptMachine {
		log := rt.log.WithField("request_id", middleware.GetReqID(r.Context()))
		return app.NewAttemptMachine(resolver, api, log, app.WithSessionStore(rt.cookies))
	}
	wsHandler := transport.NewWSHandler(newMachine, rt.log.WithField("component", "ws"))

	server := &http.Server{
		Addr:        ":" + finalPort,
		Handler:     transport.NewRouter(wsHandler, rt.log),
		ReadTimeout: 15 * time.Second,
	}

	go func() {
		rt.log.WithField("port", finalPort).Info("starting browser bridge")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			rt.log.WithError(err).Error("failed to start server")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		rt.log.Info("shutting down server...")
	case <-ctx.Done():
		rt.log.Info("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
