package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"media-analyzer/internal/config"
	"media-analyzer/internal/model"
	"media-analyzer/internal/store"
)

var (
	listLimit  int
	listOffset int
	listStatus string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent jobs from the job store",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()

		st, err := buildStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		opts := store.ListOptions{Limit: listLimit, Offset: listOffset}
		if listStatus != "" {
			status := model.Status(listStatus)
			if !model.ValidStatus(status) {
				return fmt.Errorf("unknown status %q", listStatus)
			}
			opts.Status = &status
		}

		jobs, err := st.List(context.Background(), opts)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSTATUS\tCREATED\tTITLE\tSOURCE")
		for _, job := range jobs {
			title := job.Title
			if len(title) > 40 {
				title = title[:37] + "..."
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				job.ID, job.Status, job.CreatedAt.Format(time.RFC3339), title, job.SourceRef)
		}
		return w.Flush()
	},
}

func init() {
	listCmd.Flags().IntVar(&listLimit, "limit", 20, "maximum jobs to show")
	listCmd.Flags().IntVar(&listOffset, "offset", 0, "jobs to skip")
	listCmd.Flags().StringVar(&listStatus, "status", "", "filter by status")
	rootCmd.AddCommand(listCmd)
}
