package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/aegisvault/internal/app"
	"github.com/abdul-hamid-achik/aegisvault/internal/crypto"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show vault status",
	Long:  "Show vault status including paths, storage backend, number of entries and two-factor state.",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	c, err := loadConfig()
	if err != nil {
		return err
	}

	status := map[string]any{
		"initialized": false,
		"dir":         c.Dir,
		"backend":     c.Storage.Backend,
		"key_file":    c.Storage.KeyFile,
		"vault_file":  c.Storage.VaultFile,
	}

	// Status never creates a key.
	if crypto.NewKeyManager(c.Storage.KeyFile).Exists() {
		a, err := app.New(c)
		if err != nil {
			return err
		}
		defer a.Close()

		count, err := a.Vault.Count()
		if err != nil {
			return err
		}
		provisioned, err := a.TwoFactor.Provisioned()
		if err != nil {
			return err
		}
		status["initialized"] = true
		status["entries"] = count
		status["two_factor"] = provisioned
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, status)
	}

	PrintKeyValue(out, "Vault", c.Dir)
	PrintKeyValue(out, "Backend", c.Storage.Backend)
	if status["initialized"] == false {
		PrintKeyValue(out, "Status", "not initialized")
		return nil
	}
	PrintKeyValue(out, "Status", "initialized")
	PrintKeyValue(out, "Entries", fmt.Sprintf("%d", status["entries"]))
	PrintKeyValue(out, "Two-factor", fmt.Sprintf("%t", status["two_factor"]))
	return nil
}
