// Command recallctl administers a Recall memory database directly: listing,
// inspecting, and deleting stored memories without going through the server.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/recallengine/recall/internal/config"
	"github.com/recallengine/recall/internal/storage"
	"github.com/recallengine/recall/internal/storage/postgres"
	"github.com/recallengine/recall/internal/storage/sqlite"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "recallctl",
		Short:         "Administer a Recall memory database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file (default: $RECALL_CONFIG_FILE)")

	openStore := func() (storage.MemoryStore, error) {
		var (
			cfg *config.Config
			err error
		)
		if configPath != "" {
			cfg, err = config.Load(configPath)
		} else {
			cfg, err = config.LoadFromEnv()
		}
		if err != nil {
			return nil, err
		}
		opts := storage.Options{
			MergeThreshold:  cfg.Storage.MergeThreshold,
			MergeDecayFloor: cfg.Storage.MergeDecayFloor,
		}
		if cfg.Storage.Engine == "postgres" {
			return postgres.NewMemoryStore(cfg.Storage.PostgresDSN, opts)
		}
		return sqlite.NewMemoryStore(filepath.Join(cfg.Storage.DataPath, "recall.db"), opts)
	}

	root.AddCommand(newListCmd(openStore))
	root.AddCommand(newShowCmd(openStore))
	root.AddCommand(newStatsCmd(openStore))
	root.AddCommand(newForgetCmd(openStore))
	return root
}

type storeOpener func() (storage.MemoryStore, error)

func newListCmd(open storeOpener) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list <owner-id>",
		Short: "List an owner's memories",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := open()
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.Query(context.Background(), args[0], nil, limit)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tKIND\tKEY\tVALUE\tCONF\tDECAY\tLAST USED")
			for _, rec := range records {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2f\t%.2f\t%d\n",
					rec.ID, rec.Kind, rec.Key, rec.Value, rec.Confidence, rec.DecayScore, rec.LastUsedTurn)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of memories to list")
	return cmd
}

func newShowCmd(open storeOpener) *cobra.Command {
	return &cobra.Command{
		Use:   "show <memory-id>",
		Short: "Show one memory in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := open()
			if err != nil {
				return err
			}
			defer store.Close()

			rec, err := store.Get(context.Background(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ID:            %s\n", rec.ID)
			fmt.Fprintf(out, "Owner:         %s\n", rec.OwnerID)
			fmt.Fprintf(out, "Kind:          %s\n", rec.Kind)
			fmt.Fprintf(out, "Key:           %s\n", rec.Key)
			fmt.Fprintf(out, "Value:         %s\n", rec.Value)
			fmt.Fprintf(out, "Confidence:    %.2f\n", rec.Confidence)
			fmt.Fprintf(out, "Decay:         %.2f\n", rec.DecayScore)
			fmt.Fprintf(out, "Source turn:   %d\n", rec.SourceTurn)
			fmt.Fprintf(out, "Last used:     turn %d\n", rec.LastUsedTurn)
			fmt.Fprintf(out, "Created:       %s\n", rec.CreatedAt.Format("2006-01-02 15:04:05"))
			fmt.Fprintf(out, "Updated:       %s\n", rec.UpdatedAt.Format("2006-01-02 15:04:05"))
			return nil
		},
	}
}

func newStatsCmd(open storeOpener) *cobra.Command {
	return &cobra.Command{
		Use:   "stats <owner-id>",
		Short: "Show memory statistics for an owner",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := open()
			if err != nil {
				return err
			}
			defer store.Close()

			stats, err := store.Statistics(context.Background(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Total memories:     %d\n", stats.TotalMemories)
			fmt.Fprintf(out, "Average confidence: %.2f\n", stats.AverageConfidence)
			fmt.Fprintf(out, "Recently used:      %d\n", stats.RecentlyUsed)
			fmt.Fprintf(out, "Utilization:        %.1f%%\n", stats.UtilizationRate)
			for kind, count := range stats.KindDistribution {
				fmt.Fprintf(out, "  %-12s %d\n", kind, count)
			}
			return nil
		},
	}
}

func newForgetCmd(open storeOpener) *cobra.Command {
	return &cobra.Command{
		Use:   "forget <memory-id>",
		Short: "Permanently delete a memory and its usage history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := open()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Delete(context.Background(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}
}
