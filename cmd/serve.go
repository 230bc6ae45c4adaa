package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/josephlewis42/iocsh/core/console"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the interactive console over SSH.",
	Long: `Serve the interactive console over SSH.

Every connection gets its own interpreter sharing the command table and
environment. Users and passwords come from the console section of the
configuration and interactive sessions are recorded.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		os.Stdin.Close()
		cmd.SilenceUsage = true
		log.Println("Initializing server...")

		a, err := newApp(cmd, true)
		if err != nil {
			return err
		}
		defer a.Close()

		dir, err := os.Getwd()
		if err != nil {
			return err
		}

		server, err := console.New(console.Options{
			Config:  a.cfg,
			Table:   a.table,
			Env:     a.env,
			Fs:      afero.NewOsFs(),
			Dir:     dir,
			Events:  a.events,
			History: a.history,
			Logger:  log.Default(),
		})
		if err != nil {
			return err
		}

		go func() {
			if err := server.ListenAndServe(); err != nil {
				log.Fatal(err)
			}
		}()

		sigs := make(chan os.Signal, 1)

		log.Println("- Starting interrupt handler")
		signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
		sig := <-sigs
		log.Printf("Got signal %q, terminating...", sig)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			log.Printf("Server shutdown failed: %s", err)
		}
		log.Print("Server exited")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
