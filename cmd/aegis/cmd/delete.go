package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var deleteForce bool

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a credential",
	Long: `Delete every credential with the given id (username::app, as shown by list).

By default, you will be prompted to confirm the deletion.
Use --yes or -y to skip the confirmation prompt.`,
	Aliases: []string{"rm", "remove"},
	Args:    cobra.ExactArgs(1),
	RunE:    runDelete,
}

func init() {
	rootCmd.AddCommand(deleteCmd)
	deleteCmd.Flags().BoolVarP(&deleteForce, "yes", "y", false, "Skip confirmation prompt")
}

func runDelete(cmd *cobra.Command, args []string) error {
	id := args[0]
	out := cmd.OutOrStdout()

	if !deleteForce {
		if !PromptConfirm(cmd.InOrStdin(), fmt.Sprintf("Delete entry '%s'?", id)) {
			Info(out, "Canceled")
			return nil
		}
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	removed, err := a.Vault.DeleteEntry(id)
	if err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}

	if jsonOutput {
		return printJSON(out, map[string]any{"id": id, "deleted": removed})
	}

	if removed == 0 {
		Info(out, "No entry with id '%s'", id)
		return nil
	}
	Success(out, "Deleted %d entry(s) with id '%s'", removed, id)
	return nil
}
