package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"tpcc-service/internal/models"
	"tpcc-service/internal/rte"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func printCounts(c models.TableCounts) {
	tb := tablewriter.NewWriter(os.Stdout)
	tb.SetHeader([]string{"Table", "Rows"})
	for _, row := range []struct {
		name string
		n    int64
	}{
		{"warehouse", c.Warehouses},
		{"district", c.Districts},
		{"customer", c.Customers},
		{"history", c.Histories},
		{"orders", c.Orders},
		{"new_order", c.NewOrders},
		{"order_line", c.OrderLines},
		{"stock", c.Stocks},
		{"item", c.Items},
	} {
		tb.Append([]string{row.name, strconv.FormatInt(row.n, 10)})
	}
	tb.Render()
}

func printStatistics(s models.Statistics) {
	tb := tablewriter.NewWriter(os.Stdout)
	tb.SetHeader([]string{"Transaction", "Count", "Avg ms"})
	for _, row := range []struct {
		name string
		k    models.KindStatistics
	}{
		{"New-Order", s.NewOrder},
		{"Payment", s.Payment},
		{"Order-Status", s.OrderStatus},
		{"Delivery", s.Delivery},
		{"Stock-Level", s.StockLevel},
		{"Customer by id", s.CustomerByID},
		{"Customer by name", s.CustomerByName},
	} {
		avg := 0.0
		if row.k.Count > 0 {
			avg = row.k.Seconds * 1000 / float64(row.k.Count)
		}
		tb.Append([]string{row.name, strconv.FormatUint(row.k.Count, 10), strconv.FormatFloat(avg, 'f', 2, 64)})
	}
	tb.Render()
}

func newPrepareCommand() *cobra.Command {
	var scale int32
	cmd := &cobra.Command{
		Use:   "prepare",
		Short: "Rebuild and load the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			if scale < 1 {
				return fmt.Errorf("scale factor must be at least 1")
			}
			start := time.Now()
			status, err := rte.NewHTTPClient(endpoint).Prepare(cmd.Context(), scale)
			if err != nil {
				return err
			}
			fmt.Printf("Prepared scale factor %d in %s, database size %d bytes\n",
				scale, time.Since(start).Round(time.Millisecond), status.DatabaseBytes)
			printCounts(status.Counts)
			return nil
		},
	}
	cmd.Flags().Int32VarP(&scale, "scale-factor", "s", 1, "Number of warehouses")
	return cmd
}

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show table counts and transaction statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := rte.NewHTTPClient(endpoint).Status(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("Database size %d bytes\n", status.DatabaseBytes)
			printCounts(status.Counts)
			printStatistics(status.Statistics)
			return nil
		},
	}
}

func newRunCommand() *cobra.Command {
	g := globalConfig.Generator
	var (
		mix  []int
		seed int64
	)
	cfg, err := rte.ConfigFromGenerator(g)
	if err != nil {
		log.Fatalf("Invalid generator defaults: %v", err)
	}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Drive the transaction mix and report throughput",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := rte.MixFromWeights(mix)
			if err != nil {
				return err
			}
			cfg.Mix = m
			if cmd.Flags().Changed("seed") {
				cfg.Seed = seed
			}

			report, err := rte.NewRunner(rte.NewHTTPClient(endpoint), cfg).Run(cmd.Context())
			if report != nil {
				report.Render(os.Stdout)
			}
			return err
		},
	}

	f := cmd.Flags()
	f.IntVarP(&cfg.Concurrency, "concurrency", "c", g.Concurrency, "Terminals per warehouse")
	f.DurationVar(&cfg.RampUp, "ramp-up", g.RampUp, "Warm-up time before measuring")
	f.DurationVar(&cfg.Measure, "measure", g.Measure, "Length of the measurement window")
	f.DurationVar(&cfg.RampDown, "ramp-down", g.RampDown, "Time to keep running after measuring")
	f.DurationVar(&cfg.RequestTimeout, "timeout", g.RequestTimeout, "Per-request timeout")
	f.Float64Var(&cfg.WaitFactor, "wait", g.WaitFactor, "Scale of keying and think times, 0 disables them")
	f.IntSliceVar(&mix, "mix", g.Mix, "Weights of New-Order, Payment, Order-Status, Delivery and Stock-Level")
	f.IntVar(&cfg.RollbackPercent, "rollback", g.RollbackPercent, "Percent of New-Orders that roll back")
	f.IntVar(&cfg.RemotePercent, "remote", g.RemotePercent, "Percent of order lines supplied by another warehouse")
	f.BoolVar(&cfg.DeferDelivery, "defer-delivery", g.DeferDelivery, "Queue deliveries instead of running them inline")
	f.Int64Var(&seed, "seed", 0, "Random seed, defaults to the current time")
	return cmd
}
