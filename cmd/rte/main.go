package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tpcc-service/config"
	"tpcc-service/internal/util"

	"github.com/spf13/cobra"
)

var (
	globalConfig  *config.Config
	globalContext context.Context
	globalCancel  context.CancelFunc

	endpoint string
	logLevel string
)

func main() {
	globalConfig = config.Load()
	if err := util.InitLogger(globalConfig.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	globalContext, globalCancel = context.WithCancel(context.Background())

	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	closeDone := make(chan struct{}, 1)
	go func() {
		sig := <-sc
		fmt.Printf("\nGot signal [%v] to exit.\n", sig)
		globalCancel()

		select {
		case <-sc:
			fmt.Printf("\nGot signal [%v] again to exit.\n", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			fmt.Print("\nWait 30s for closed, force exit\n")
			os.Exit(1)
		case <-closeDone:
			return
		}
	}()

	rootCmd := &cobra.Command{
		Use:   "tpcc-rte",
		Short: "TPC-C workload generator",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return util.SetLogLevel(logLevel)
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&endpoint, "endpoint", globalConfig.Generator.Endpoint, "Base URL of the tpcc service")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		newPrepareCommand(),
		newRunCommand(),
		newStatusCommand(),
	)

	code := 0
	if err := rootCmd.ExecuteContext(globalContext); err != nil {
		code = 1
	}

	globalCancel()
	closeDone <- struct{}{}
	util.SyncLogger()
	os.Exit(code)
}
