package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/oopsinfosolutions/feed-sub001/pkg/endpoint"
)

func newProbeCmd(a *app) *cobra.Command {
	var (
		endpoints []string
		attempts  int
		delay     time.Duration
		backoff   bool
	)

	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Print the first API endpoint whose health check answers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r := endpoint.NewResolver(&a.cfg.Client, a.logger)
			if cmd.Flags().Changed("endpoint") {
				r.Endpoints = endpoints
			}
			if cmd.Flags().Changed("attempts") {
				r.MaxAttempts = attempts
			}
			if cmd.Flags().Changed("delay") {
				r.Delay = delay
			}
			if cmd.Flags().Changed("backoff") {
				r.Backoff = backoff
			}

			url, err := r.Resolve(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), url)
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&endpoints, "endpoint", "e", nil, "candidate base URL, repeatable, tried in order")
	cmd.Flags().IntVar(&attempts, "attempts", 0, "rounds over all candidates")
	cmd.Flags().DurationVar(&delay, "delay", 0, "wait between rounds")
	cmd.Flags().BoolVar(&backoff, "backoff", false, "grow the wait exponentially")
	return cmd
}
