package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	aegismcp "github.com/abdul-hamid-achik/aegisvault/internal/mcp"
)

var mcpServerCmd = &cobra.Command{
	Use:   "mcp-server",
	Short: "Start AegisVault as an MCP server (stdio)",
	Long: `Start AegisVault as a Model Context Protocol server for AI agent integration.
Communicates over stdin/stdout using JSON-RPC.

Access is controlled by <dir>/mcp-policy.yaml. Without it, entries can be
listed and added, passwords can be read a limited number of times and
deletion is disabled.

Configure in .claude/settings.local.json:
  {
    "mcpServers": {
      "aegis": {
        "command": "aegis",
        "args": ["mcp-server"]
      }
    }
  }`,
	Hidden: true,
	RunE:   runMCPServer,
}

func init() {
	rootCmd.AddCommand(mcpServerCmd)
}

func runMCPServer(cmd *cobra.Command, _ []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	policyPath := filepath.Join(a.Config.Dir, aegismcp.PolicyFileName)
	policy, err := aegismcp.LoadPolicy(policyPath)
	if err != nil {
		return fmt.Errorf("load mcp policy: %w", err)
	}

	srv := aegismcp.NewVaultMCPServer(a.Vault, policy, version)
	return srv.Run(cmd.Context())
}
