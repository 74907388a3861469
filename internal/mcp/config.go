package mcp

import (
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"
)

// Access modes.
const (
	ModeReadOnly  = "read-only"
	ModeReadWrite = "read-write"
	ModeFull      = "full"
)

// PolicyFileName is the policy file looked up in the vault directory.
const PolicyFileName = "mcp-policy.yaml"

// AccessPolicy controls what the MCP server can expose.
type AccessPolicy struct {
	AccessMode         string   `yaml:"access_mode"`
	VaultsAllow        []string `yaml:"vaults_allow"`
	VaultsDeny         []string `yaml:"vaults_deny"`
	AppsAllow          []string `yaml:"apps_allow"`
	AppsDeny           []string `yaml:"apps_deny"`
	RevealPasswords    bool     `yaml:"reveal_passwords"`
	MaxReadsPerSession int      `yaml:"max_reads_per_session"`
}

// DefaultPolicy returns the policy used when no file exists: entries can be
// listed and added, passwords can be read a limited number of times, and
// deletion is off.
func DefaultPolicy() *AccessPolicy {
	return &AccessPolicy{
		AccessMode:         ModeReadWrite,
		VaultsAllow:        []string{"*"},
		AppsAllow:          []string{"*"},
		RevealPasswords:    true,
		MaxReadsPerSession: 20,
	}
}

// LoadPolicy reads an access policy from a YAML file.
// Returns nil, nil if the file does not exist.
func LoadPolicy(path string) (*AccessPolicy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var policy AccessPolicy
	if err := yaml.Unmarshal(data, &policy); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	switch policy.AccessMode {
	case "":
		policy.AccessMode = ModeReadOnly
	case ModeReadOnly, ModeReadWrite, ModeFull:
	default:
		return nil, fmt.Errorf("parse %s: unknown access_mode %q", path, policy.AccessMode)
	}
	return &policy, nil
}

// CanAccessVault reports whether the policy allows access to the named vault.
func (p *AccessPolicy) CanAccessVault(name string) bool {
	return allowed(name, p.VaultsAllow, p.VaultsDeny)
}

// CanAccessApp reports whether the policy allows access to the named app.
func (p *AccessPolicy) CanAccessApp(name string) bool {
	return allowed(name, p.AppsAllow, p.AppsDeny)
}

// CanAccessEntry combines the vault and app rules.
func (p *AccessPolicy) CanAccessEntry(vaultName, appName string) bool {
	return p.CanAccessVault(vaultName) && p.CanAccessApp(appName)
}

// CanWrite reports whether the policy allows adding entries.
func (p *AccessPolicy) CanWrite() bool {
	return p.AccessMode == ModeReadWrite || p.AccessMode == ModeFull
}

// CanDelete reports whether the policy allows deleting entries.
func (p *AccessPolicy) CanDelete() bool {
	return p.AccessMode == ModeFull
}

// CanReveal reports whether decrypted passwords may be returned.
func (p *AccessPolicy) CanReveal() bool {
	return p.RevealPasswords
}

func allowed(name string, allow, deny []string) bool {
	if matchesAny(name, deny) {
		return false
	}
	if len(allow) == 0 {
		return true
	}
	return matchesAny(name, allow)
}

// matchesAny returns true if name matches any of the glob patterns.
func matchesAny(name string, patterns []string) bool {
	for _, pattern := range patterns {
		if matched, _ := filepath.Match(pattern, name); matched {
			return true
		}
	}
	return false
}
