// Command placer is the coordinator daemon: it loads a host configuration
// and consumer keyring, supervises one fetcher per configured source, and
// places decrypted, verified files onto disk.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"placer.io/config"
	"placer.io/coordinator"
	"placer.io/pflags"
	"placer.io/plog"
)

func main() {
	plog.Register(plog.NewDevLogger(os.Stderr))

	pflags.ConfigFile = "/etc/placer/placer.toml"

	root := &cobra.Command{
		Use:   "placer",
		Short: "Secure, event-driven file placement service",
		RunE:  run,
	}
	pflags.Register(root)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	if err := pflags.ApplyLogLevel(); err != nil {
		plog.Error.Printf("%v", err)
		os.Exit(1)
	}

	cfg, err := config.Load(pflags.ConfigFile)
	if err != nil {
		plog.Error.Printf("error loading config: %v", err)
		os.Exit(1)
	}

	c, err := coordinator.New(cfg)
	if err != nil {
		plog.Error.Printf("error configuring coordinator: %v", err)
		os.Exit(1)
	}
	defer c.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := c.Run(ctx); err != nil {
		plog.Error.Printf("%v", err)
		os.Exit(1)
	}
	return nil
}
