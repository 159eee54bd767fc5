// File: cmd/replisync/replicas_cmd.go
package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"replisync/internal/flags"
	"replisync/internal/service"
	"replisync/internal/ui/prompt"
)

const (
	syncCommandName   = "algolia:replicas:sync"
	statusCommandName = "algolia:replicas:status"

	rebuildConfirmation = "rebuild"
)

func newReplicasSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   syncCommandName + " [store-id...]",
		Short: "Sync configured sorting attributes in Magento to Algolia replica indices",
		Long: `Creates, updates and removes Algolia replica indices so they match the sorting
attributes configured for each store. Without arguments every store in the catalog is synced.
Stores are processed one at a time and the first failure stops the run.`,
		Args: storeIDArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			storeIDs, err := parseStoreIDs(args)
			if err != nil {
				return err
			}
			cmd.SilenceUsage = true

			app, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}
			svc, err := app.ReplicaSyncService(cmd.Context())
			if err != nil {
				return err
			}

			code, err := svc.Sync(cmd.Context(), storeIDs)
			if err != nil {
				return err
			}
			return exitWith(code)
		},
	}
}

func newReplicasRebuildCmd() *cobra.Command {
	var force bool

	rebuildCmd := &cobra.Command{
		Use:   service.RebuildCommandName + " [store-id...]",
		Short: "Delete and recreate the Algolia replica indices of the given stores",
		Long: `Detaches and deletes every replica index managed by replisync on the primary index
of each store, then syncs from scratch. Use it to recover from a corrupted replica configuration.
Replicas not created by replisync are left in place.`,
		Args: storeIDArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			storeIDs, err := parseStoreIDs(args)
			if err != nil {
				return err
			}
			cmd.SilenceUsage = true

			app, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}

			prompter := app.Prompter
			if force {
				prompter = prompt.AutoConfirm{}
			}
			confirmed, err := prompter.Confirm(rebuildWarning(storeIDs), rebuildConfirmation)
			if err != nil {
				return err
			}
			if !confirmed {
				app.Console.Comment("Rebuild cancelled.")
				return nil
			}

			svc, err := app.ReplicaSyncService(cmd.Context())
			if err != nil {
				return err
			}

			code, err := svc.Rebuild(cmd.Context(), storeIDs)
			if err != nil {
				return err
			}
			return exitWith(code)
		},
	}
	rebuildCmd.Flags().BoolVarP(&force, flags.Force, flags.ForceShort, false, "Rebuild without asking for confirmation")
	return rebuildCmd
}

func newReplicasStatusCmd() *cobra.Command {
	var verbose bool

	statusCmd := &cobra.Command{
		Use:   statusCommandName + " [store-id...]",
		Short: "Show whether the Algolia replicas of each store match its sorting attributes",
		Args:  storeIDArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			storeIDs, err := parseStoreIDs(args)
			if err != nil {
				return err
			}
			cmd.SilenceUsage = true

			app, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}
			svc, err := app.ReplicaStatusService(cmd.Context())
			if err != nil {
				return err
			}

			statuses, err := svc.Status(cmd.Context(), storeIDs)
			if err != nil {
				return err
			}
			if len(statuses) == 0 {
				app.Console.Comment("No stores configured in the catalog.")
				return nil
			}

			fmt.Fprintln(app.Console.Out(), app.Formatter.FormatReplicaStatus(statuses))
			if verbose {
				for _, st := range statuses {
					if !st.InSync() {
						fmt.Fprintln(app.Console.Out(), app.Formatter.FormatReplicaDrift(st))
					}
				}
			}
			return nil
		},
	}
	statusCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "List the replica changes a sync would make")
	return statusCmd
}

// storeIDArgs rejects non-numeric store IDs before any work starts
func storeIDArgs(cmd *cobra.Command, args []string) error {
	_, err := parseStoreIDs(args)
	return err
}

func parseStoreIDs(args []string) ([]int, error) {
	ids := make([]int, 0, len(args))
	for _, arg := range args {
		id, err := strconv.Atoi(strings.TrimSpace(arg))
		if err != nil || id < 0 {
			return nil, fmt.Errorf("invalid store ID '%s': store IDs must be non-negative integers", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func rebuildWarning(storeIDs []int) string {
	scope := "every store"
	if len(storeIDs) > 0 {
		parts := make([]string, len(storeIDs))
		for i, id := range storeIDs {
			parts[i] = strconv.Itoa(id)
		}
		scope = "stores " + strings.Join(parts, ", ")
	}
	return fmt.Sprintf("This deletes and recreates the Algolia replica indices of %s. Searches sorted on those replicas fail until the rebuild finishes.", scope)
}
