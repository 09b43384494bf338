package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"bizdocs-backend/controllers"
	"bizdocs-backend/database"
	"bizdocs-backend/routes"

	"github.com/spf13/cobra"
)

var skipMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		rt, err := newRuntime(ctx)
		if err != nil {
			return err
		}
		defer rt.Close()

		if rt.db != nil && !skipMigrate {
			if err := database.Migrate(rt.db); err != nil {
				return err
			}
		}

		h := controllers.New(rt.stores, rt.docs, rt.cfg.PageSize)
		h.Ping = rt.ping
		app := routes.NewApp(rt.cfg, h)

		go func() {
			<-ctx.Done()
			log.Printf("[server] shutting down")
			if err := app.ShutdownWithContext(context.Background()); err != nil {
				log.Printf("[server] shutdown: %v", err)
			}
		}()

		log.Printf("[server] listening on :%s", rt.cfg.Port)
		return app.Listen(":" + rt.cfg.Port)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "Do not run migrations before serving.")
}
