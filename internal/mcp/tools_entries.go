package mcp

import (
	"context"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/abdul-hamid-achik/aegisvault/internal/passgen"
	"github.com/abdul-hamid-achik/aegisvault/internal/vault"
)

// --- vault_list_entries ---

type listEntriesInput struct {
	Search string `json:"search,omitempty" jsonschema:"Case-insensitive text matched against app name, username and vault."`
	Vault  string `json:"vault,omitempty" jsonschema:"Only return entries in this vault."`
	Sort   string `json:"sort,omitempty" jsonschema:"One of app_asc, app_desc, user_asc, user_desc, vault_asc, vault_desc, newest, oldest."`
}

type entryMeta struct {
	ID            string `json:"id"`
	AppName       string `json:"app_name"`
	Username      string `json:"username"`
	Vault         string `json:"vault"`
	DateAdded     string `json:"date_added"`
	DecryptFailed bool   `json:"decrypt_failed,omitempty"`
	Strength      string `json:"strength,omitempty"`
}

type listEntriesOutput struct {
	Entries []entryMeta `json:"entries"`
}

// --- vault_get_password ---

type getPasswordInput struct {
	ID string `json:"id" jsonschema:"Entry id as returned by vault_list_entries (username::app_name)."`
}

type getPasswordOutput struct {
	ID       string `json:"id"`
	Password string `json:"password"`
	Warning  string `json:"warning"`
}

// --- vault_add_entry ---

type addEntryInput struct {
	AppName  string `json:"app_name" jsonschema:"Website or application name."`
	Username string `json:"username" jsonschema:"Account username or email."`
	Password string `json:"password,omitempty" jsonschema:"Password to store. If omitted a random one is generated."`
	Vault    string `json:"vault,omitempty" jsonschema:"Vault (category) name. Defaults to Personal."`
}

type addEntryOutput struct {
	ID        string `json:"id"`
	Vault     string `json:"vault"`
	Generated bool   `json:"generated"`
}

// --- vault_delete_entry ---

type deleteEntryInput struct {
	ID string `json:"id" jsonschema:"Entry id to delete. Every entry with this id is removed."`
}

type deleteEntryOutput struct {
	ID      string `json:"id"`
	Deleted int    `json:"deleted"`
}

func (s *VaultMCPServer) registerEntryTools() {
	sdkmcp.AddTool(s.server, &sdkmcp.Tool{
		Name:        "vault_list_entries",
		Description: "List credential entries. Returns ids, app names, usernames, vaults and password strength (Strong or Weak), NEVER passwords.",
	}, s.handleListEntries)

	sdkmcp.AddTool(s.server, &sdkmcp.Tool{
		Name: "vault_get_password",
		Description: "Get the decrypted password of one entry. " +
			"WARNING: The password will be visible in the AI conversation context.",
	}, s.handleGetPassword)

	sdkmcp.AddTool(s.server, &sdkmcp.Tool{
		Name:        "vault_add_entry",
		Description: "Add a credential entry. The password is encrypted at rest with AES-256-GCM.",
	}, s.handleAddEntry)

	sdkmcp.AddTool(s.server, &sdkmcp.Tool{
		Name:        "vault_delete_entry",
		Description: "Delete every entry with the given id. This action is irreversible.",
	}, s.handleDeleteEntry)
}

// visibleEntries lists entries filtered by the policy.
func (s *VaultMCPServer) visibleEntries(q vault.Query) ([]vault.Entry, error) {
	entries, err := s.vault.List(q)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	out := entries[:0]
	for _, e := range entries {
		if s.policy.CanAccessEntry(e.Vault, e.AppName) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *VaultMCPServer) handleListEntries(_ context.Context, _ *sdkmcp.CallToolRequest, input listEntriesInput) (*sdkmcp.CallToolResult, listEntriesOutput, error) {
	order, err := vault.ParseSort(input.Sort)
	if err != nil {
		return nil, listEntriesOutput{}, err
	}

	entries, err := s.visibleEntries(vault.Query{Search: input.Search, Vault: input.Vault, Sort: order})
	if err != nil {
		return nil, listEntriesOutput{}, err
	}

	metas := make([]entryMeta, 0, len(entries))
	for _, e := range entries {
		metas = append(metas, entryMeta{
			ID:            e.ID,
			AppName:       e.AppName,
			Username:      e.Username,
			Vault:         e.Vault,
			DateAdded:     e.DateAdded,
			DecryptFailed: e.DecryptFailed,
			Strength:      e.Strength,
		})
	}

	return nil, listEntriesOutput{Entries: metas}, nil
}

func (s *VaultMCPServer) handleGetPassword(_ context.Context, _ *sdkmcp.CallToolRequest, input getPasswordInput) (*sdkmcp.CallToolResult, getPasswordOutput, error) {
	if !s.policy.CanReveal() {
		return nil, getPasswordOutput{}, fmt.Errorf("revealing passwords is not allowed by policy")
	}

	entries, err := s.visibleEntries(vault.Query{})
	if err != nil {
		return nil, getPasswordOutput{}, err
	}

	for _, e := range entries {
		if e.ID != input.ID {
			continue
		}
		if e.DecryptFailed {
			return nil, getPasswordOutput{}, fmt.Errorf("entry %q could not be decrypted", input.ID)
		}
		if !s.takeRead() {
			return nil, getPasswordOutput{}, fmt.Errorf("password read limit reached for this session (%d)", s.policy.MaxReadsPerSession)
		}
		return nil, getPasswordOutput{
			ID:       e.ID,
			Password: e.Password,
			Warning:  "This password is now part of the AI conversation context.",
		}, nil
	}

	return nil, getPasswordOutput{}, fmt.Errorf("entry %q not found", input.ID)
}

func (s *VaultMCPServer) handleAddEntry(_ context.Context, _ *sdkmcp.CallToolRequest, input addEntryInput) (*sdkmcp.CallToolResult, addEntryOutput, error) {
	if !s.policy.CanWrite() {
		return nil, addEntryOutput{}, fmt.Errorf("write operations are not allowed by policy (access_mode: %s)", s.policy.AccessMode)
	}

	// Check the names as the vault will store them.
	appName := strings.TrimSpace(input.AppName)
	vaultName := strings.TrimSpace(input.Vault)
	if vaultName == "" {
		vaultName = vault.DefaultVaultName
	}
	if !s.policy.CanAccessEntry(vaultName, appName) {
		return nil, addEntryOutput{}, fmt.Errorf("vault %q or app %q is not allowed by policy", vaultName, appName)
	}

	password := input.Password
	generated := false
	if password == "" {
		var err error
		password, err = passgen.Generate(passgen.DefaultLength, true)
		if err != nil {
			return nil, addEntryOutput{}, err
		}
		generated = true
	}

	entry, err := s.vault.AddEntry(appName, input.Username, password, vaultName)
	if err != nil {
		return nil, addEntryOutput{}, fmt.Errorf("add entry: %w", err)
	}

	return nil, addEntryOutput{ID: entry.ID, Vault: entry.Vault, Generated: generated}, nil
}

func (s *VaultMCPServer) handleDeleteEntry(_ context.Context, _ *sdkmcp.CallToolRequest, input deleteEntryInput) (*sdkmcp.CallToolResult, deleteEntryOutput, error) {
	if !s.policy.CanDelete() {
		return nil, deleteEntryOutput{}, fmt.Errorf("delete operations are not allowed by policy (access_mode: %s)", s.policy.AccessMode)
	}

	// Every record sharing the id is removed, so all of them must be visible.
	entries, err := s.vault.List(vault.Query{})
	if err != nil {
		return nil, deleteEntryOutput{}, fmt.Errorf("list entries: %w", err)
	}
	for _, e := range entries {
		if e.ID == input.ID && !s.policy.CanAccessEntry(e.Vault, e.AppName) {
			return nil, deleteEntryOutput{}, fmt.Errorf("entry %q is not allowed by policy", input.ID)
		}
	}

	removed, err := s.vault.DeleteEntry(input.ID)
	if err != nil {
		return nil, deleteEntryOutput{}, fmt.Errorf("delete entry: %w", err)
	}

	return nil, deleteEntryOutput{ID: input.ID, Deleted: removed}, nil
}
