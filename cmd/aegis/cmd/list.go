package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/aegisvault/internal/passgen"
	"github.com/abdul-hamid-achik/aegisvault/internal/vault"
)

const hiddenPassword = "********"

var (
	listSearch string
	listVault  string
	listSort   string
	listShow   bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List credentials",
	Long: `List credentials in the vault.

Passwords are hidden unless --show is given. Entries that cannot be decrypted
are still listed and marked.`,
	Aliases: []string{"ls"},
	RunE:    runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().StringVarP(&listSearch, "search", "s", "", "filter by app, username or vault")
	listCmd.Flags().StringVar(&listVault, "vault", "", "only show this vault")
	listCmd.Flags().StringVar(&listSort, "sort", "", "sort order: "+sortOrderNames())
	listCmd.Flags().BoolVar(&listShow, "show", false, "show passwords")
}

func sortOrderNames() string {
	names := make([]string, len(vault.SortOrders))
	for i, o := range vault.SortOrders {
		names[i] = string(o)
	}
	return strings.Join(names, ", ")
}

func runList(cmd *cobra.Command, _ []string) error {
	order, err := vault.ParseSort(listSort)
	if err != nil {
		return err
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	entries, err := a.Vault.List(vault.Query{Search: listSearch, Vault: listVault, Sort: order})
	if err != nil {
		return fmt.Errorf("failed to list entries: %w", err)
	}

	if !listShow {
		for i := range entries {
			if !entries[i].DecryptFailed {
				entries[i].Password = hiddenPassword
			}
		}
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, entries)
	}

	if len(entries) == 0 {
		fmt.Fprintln(os.Stderr, "No entries found.")
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "Add one with: aegis add <app> <username>")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	PrintTableHeader(tw, "APP", "USERNAME", "PASSWORD", "STRENGTH", "VAULT", "ADDED", "ID")
	failed := 0
	for _, e := range entries {
		added := e.DateAdded
		if t, ok := e.Added(); ok {
			added = t.Local().Format("2006-01-02 15:04")
		}
		password := e.Password
		if e.DecryptFailed {
			failed++
			password = errorColor.Sprint(e.Password)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n", e.AppName, e.Username, password, strengthLabel(e.Strength), e.Vault, added, Dim("%s", e.ID))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if failed > 0 {
		Warning("%d entries could not be decrypted with the current key", failed)
	}
	return nil
}

func strengthLabel(strength string) string {
	switch strength {
	case passgen.Strong:
		return successColor.Sprint(strength)
	case passgen.Weak:
		return warningColor.Sprint(strength)
	}
	return Dim("-")
}
