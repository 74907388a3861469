package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/abdul-hamid-achik/aegisvault/internal/passgen"
)

type generatePasswordInput struct {
	Length  int   `json:"length,omitempty" jsonschema:"Password length. Defaults to 16."`
	Symbols *bool `json:"symbols,omitempty" jsonschema:"Include punctuation. Defaults to true."`
}

type generatePasswordOutput struct {
	Password string `json:"password"`
	Length   int    `json:"length"`
}

func (s *VaultMCPServer) registerPasswordTools() {
	sdkmcp.AddTool(s.server, &sdkmcp.Tool{
		Name:        "vault_generate_password",
		Description: "Generate a random password. Nothing is stored.",
	}, s.handleGeneratePassword)
}

func (s *VaultMCPServer) handleGeneratePassword(_ context.Context, _ *sdkmcp.CallToolRequest, input generatePasswordInput) (*sdkmcp.CallToolResult, generatePasswordOutput, error) {
	length := input.Length
	if length == 0 {
		length = passgen.DefaultLength
	}
	symbols := true
	if input.Symbols != nil {
		symbols = *input.Symbols
	}

	password, err := passgen.Generate(length, symbols)
	if err != nil {
		return nil, generatePasswordOutput{}, err
	}
	return nil, generatePasswordOutput{Password: password, Length: length}, nil
}
