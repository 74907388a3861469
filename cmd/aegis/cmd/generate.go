package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/aegisvault/internal/passgen"
)

var (
	genLength    int
	genNoSymbols bool
)

var generateCmd = &cobra.Command{
	Use:     "generate",
	Short:   "Generate a random password",
	Aliases: []string{"gen"},
	Args:    cobra.NoArgs,
	RunE:    runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().IntVarP(&genLength, "length", "l", passgen.DefaultLength, "password length")
	generateCmd.Flags().BoolVar(&genNoSymbols, "no-symbols", false, "letters and digits only")
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	password, err := passgen.Generate(genLength, !genNoSymbols)
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), map[string]any{"password": password, "length": genLength})
	}
	fmt.Fprintln(cmd.OutOrStdout(), password)
	return nil
}
