// Package cmd provides the CLI commands for aegis.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile    string
	jsonOutput bool
	verbose    bool

	// cfg collects flag overrides on top of the config file and AEGIS_* env.
	cfg = viper.New()
)

// version is set at build time.
var version = "dev"

// rootCmd represents the base command.
var rootCmd = &cobra.Command{
	Use:   "aegis",
	Short: "AegisVault - local encrypted password vault",
	Long: `AegisVault (aegis) keeps website and app credentials encrypted on your machine.

Get started:
  aegis add github alice          Store a credential (password is prompted)
  aegis add github alice -g       Store a credential with a generated password
  aegis list                      List entries, passwords hidden
  aegis list --show               List entries with passwords
  aegis delete alice::github      Delete an entry
  aegis generate -l 24            Print a random password
  aegis 2fa setup --qr qr.png     Provision the authenticator secret`,
	Version:      version,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.aegisvault/config.yaml)")
	rootCmd.PersistentFlags().String("dir", "", "vault directory (default ~/.aegisvault)")
	rootCmd.PersistentFlags().String("backend", "", "storage backend: file or bolt")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	_ = cfg.BindPFlag("dir", rootCmd.PersistentFlags().Lookup("dir"))
	_ = cfg.BindPFlag("storage.backend", rootCmd.PersistentFlags().Lookup("backend"))
}
