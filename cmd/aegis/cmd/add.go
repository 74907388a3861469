package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/aegisvault/internal/passgen"
	"github.com/abdul-hamid-achik/aegisvault/internal/vault"
)

var (
	addVault     string
	addGenerate  bool
	addLength    int
	addNoSymbols bool
)

var addCmd = &cobra.Command{
	Use:   "add <app> <username>",
	Short: "Add a credential",
	Long: `Add a credential to the vault.

The password is prompted with echo disabled, or read from stdin when piped.
Use --generate to store a random password instead; it is printed once.

Examples:
  aegis add github alice
  aegis add github alice --vault Work
  echo "s3cret" | aegis add mail bob
  aegis add bank carol --generate --length 32`,
	Args: cobra.ExactArgs(2),
	RunE: runAdd,
}

func init() {
	rootCmd.AddCommand(addCmd)
	addCmd.Flags().StringVar(&addVault, "vault", "", "vault (category) name (default \"Personal\")")
	addCmd.Flags().BoolVarP(&addGenerate, "generate", "g", false, "generate a random password")
	addCmd.Flags().IntVarP(&addLength, "length", "l", passgen.DefaultLength, "generated password length")
	addCmd.Flags().BoolVar(&addNoSymbols, "no-symbols", false, "generate letters and digits only")
}

func runAdd(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	var password string
	if addGenerate {
		password, err = a.GeneratePassword(addLength, !addNoSymbols)
		if err != nil {
			return err
		}
	} else {
		password, err = readPassword(cmd.InOrStdin())
		if err != nil {
			return err
		}
	}

	entry, err := a.Vault.AddEntry(args[0], args[1], password, addVault)
	if err != nil {
		if errors.Is(err, vault.ErrInvalidInput) {
			return err
		}
		return fmt.Errorf("failed to add entry: %w", err)
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		result := map[string]any{"id": entry.ID, "vault": entry.Vault, "date_added": entry.DateAdded}
		if addGenerate {
			result["password"] = password
		}
		return printJSON(out, result)
	}

	Success(out, "Entry '%s' added to %s", entry.ID, entry.Vault)
	if addGenerate {
		PrintKeyValue(out, "Password", password)
	}
	return nil
}
