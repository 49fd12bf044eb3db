package main

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			status, err := client.Status(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Running:       %v (pid %d)\n", status.Running, status.PID)
			fmt.Fprintf(out, "Jobs database: %s\n", status.JobsDBPath)
			fmt.Fprintf(out, "Lock file:     %s\n", status.LockFilePath)
			fmt.Fprintf(out, "Active jobs:   %d\n", status.ActiveJobs)
			fmt.Fprintf(out, "Cached keys:   %d\n", status.CachedKeys)

			if len(status.Counts) > 0 {
				keys := make([]string, 0, len(status.Counts))
				for key := range status.Counts {
					keys = append(keys, key)
				}
				sort.Strings(keys)
				rows := make([][]string, 0, len(keys))
				for _, key := range keys {
					rows = append(rows, []string{key, strconv.Itoa(status.Counts[key])})
				}
				fmt.Fprintln(out, renderTable([]string{"Status", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
			}
			return nil
		},
	}
}

func newJobsCommand(ctx *commandContext) *cobra.Command {
	var statuses []string

	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List work items",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			items, err := client.Jobs(cmd.Context(), statuses...)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(items) == 0 {
				fmt.Fprintln(out, "No work items")
				return nil
			}
			rows := make([][]string, 0, len(items))
			for _, item := range items {
				detail := item.AssetID
				if item.Error != "" {
					detail = item.Error
				}
				rows = append(rows, []string{
					item.Fingerprint,
					item.Kind,
					item.Status,
					item.UpdatedAt.Local().Format(time.DateTime),
					detail,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Fingerprint", "Kind", "Status", "Updated", "Asset / Error"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&statuses, "status", nil, "Filter by status (queued, processing, completed, failed)")
	return cmd
}

func newJobCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "job <fingerprint>",
		Short: "Poll one fingerprint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			job, err := client.Job(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Fingerprint: %s\n", job.Fingerprint)
			fmt.Fprintf(out, "Status:      %s\n", job.Status)
			if job.Asset != nil {
				fmt.Fprintf(out, "Asset:       %s\n", job.Asset.URL)
				if job.Asset.PreviewURL != "" {
					fmt.Fprintf(out, "Preview:     %s\n", job.Asset.PreviewURL)
				}
			}
			if job.Error != "" {
				fmt.Fprintf(out, "Error:       %s\n", job.Error)
			}
			return nil
		},
	}
}
