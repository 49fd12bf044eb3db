package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"clipforge/internal/api"
)

func newClipCommand(ctx *commandContext) *cobra.Command {
	var request api.SynthesizeRequest

	cmd := &cobra.Command{
		Use:   "clip",
		Short: "Request clip synthesis for an episode window",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			response, err := client.Synthesize(cmd.Context(), request)
			if err != nil {
				return err
			}
			printJobResponse(cmd, response)
			return nil
		},
	}

	cmd.Flags().Int64Var(&request.FeedID, "feed", 0, "Feed identifier")
	cmd.Flags().StringVar(&request.EpisodeGUID, "guid", "", "Episode GUID")
	cmd.Flags().StringVar(&request.AudioSource, "audio", "", "Episode audio URL")
	cmd.Flags().Float64Var(&request.StartTime, "start", 0, "Window start in seconds")
	cmd.Flags().Float64Var(&request.EndTime, "end", 0, "Window end in seconds")
	cmd.Flags().StringVar(&request.ShareToken, "token", "", "Share token replacing the time window identity")
	cmd.Flags().StringVar(&request.Creator, "creator", "", "Creator display name")
	cmd.Flags().StringVar(&request.EpisodeTitle, "title", "", "Episode title")
	cmd.Flags().StringVar(&request.ProfileImagePath, "profile", "", "Creator profile image path")
	_ = cmd.MarkFlagRequired("feed")
	_ = cmd.MarkFlagRequired("guid")
	_ = cmd.MarkFlagRequired("audio")
	return cmd
}

func newEditCommand(ctx *commandContext) *cobra.Command {
	var request api.EditRequest

	cmd := &cobra.Command{
		Use:   "edit <source-url>",
		Short: "Request a trimmed segment of an existing video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			request.SourceLocation = args[0]
			client, err := ctx.client()
			if err != nil {
				return err
			}
			response, err := client.Edit(cmd.Context(), request)
			if err != nil {
				return err
			}
			printJobResponse(cmd, response)
			return nil
		},
	}

	cmd.Flags().Float64Var(&request.StartTime, "start", 0, "Segment start in seconds")
	cmd.Flags().Float64Var(&request.EndTime, "end", 0, "Segment end in seconds")
	cmd.Flags().BoolVar(&request.UseSubtitles, "subtitles", false, "Burn subtitles into the segment")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func newChildrenCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "children <source-url>",
		Short: "List edits derived from a source asset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			response, err := client.Children(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(response.Children) == 0 {
				fmt.Fprintf(out, "No edits recorded under %s\n", response.ParentKey)
				return nil
			}
			rows := make([][]string, 0, len(response.Children))
			for _, child := range response.Children {
				rows = append(rows, []string{
					child.Fingerprint,
					fmt.Sprintf("%d..%ds", child.StartTime, child.EndTime),
					child.CreatedAt.Local().Format(time.DateTime),
					child.OutputURL,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Fingerprint", "Window", "Created", "Output"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft},
			))
			return nil
		},
	}
}

func printJobResponse(cmd *cobra.Command, response api.JobStatusResponse) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Fingerprint: %s\n", response.Fingerprint)
	fmt.Fprintf(out, "Status:      %s\n", response.Status)
	if response.Asset != nil {
		fmt.Fprintf(out, "Asset:       %s\n", response.Asset.URL)
	}
	if response.Status == api.JobProcessing {
		fmt.Fprintf(out, "Poll with: clipforge job %s\n", response.Fingerprint)
	}
}
