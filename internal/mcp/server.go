// Package mcp exposes the vault to AI assistants over the Model Context
// Protocol, gated by an access policy.
package mcp

import (
	"context"
	"sync"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/abdul-hamid-achik/aegisvault/internal/vault"
)

// Vault is the credential service exposed over MCP.
type Vault interface {
	List(q vault.Query) ([]vault.Entry, error)
	AddEntry(appName, username, password, vaultName string) (*vault.Entry, error)
	DeleteEntry(id string) (int, error)
}

// VaultMCPServer wraps a vault and exposes it as an MCP server.
type VaultMCPServer struct {
	server *sdkmcp.Server
	vault  Vault
	policy *AccessPolicy

	mu    sync.Mutex
	reads int
}

// NewVaultMCPServer creates a new MCP server backed by the given vault and policy.
func NewVaultMCPServer(v Vault, policy *AccessPolicy, version string) *VaultMCPServer {
	if policy == nil {
		policy = DefaultPolicy()
	}

	s := &VaultMCPServer{
		vault:  v,
		policy: policy,
	}

	s.server = sdkmcp.NewServer(
		&sdkmcp.Implementation{
			Name:    "aegisvault",
			Version: version,
		},
		&sdkmcp.ServerOptions{
			Instructions: "AegisVault stores website and app credentials locally. " +
				"Use vault_list_entries to find an entry; it never returns passwords. " +
				"Only call vault_get_password when the user explicitly needs the value.",
		},
	)

	s.registerEntryTools()
	s.registerPasswordTools()

	return s
}

// Run starts the MCP server on the stdio transport.
func (s *VaultMCPServer) Run(ctx context.Context) error {
	return s.server.Run(ctx, &sdkmcp.StdioTransport{})
}

// takeRead consumes one password read from the session budget.
func (s *VaultMCPServer) takeRead() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.policy.MaxReadsPerSession > 0 && s.reads >= s.policy.MaxReadsPerSession {
		return false
	}
	s.reads++
	return true
}
