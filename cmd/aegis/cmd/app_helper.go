package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/abdul-hamid-achik/aegisvault/internal/app"
	"github.com/abdul-hamid-achik/aegisvault/internal/config"
	"github.com/abdul-hamid-achik/aegisvault/internal/logging"
)

// loadConfig resolves configuration from flags, AEGIS_* env and the config file.
func loadConfig() (*config.Config, error) {
	c, err := config.FromViper(cfg, cfgFile)
	if err != nil {
		return nil, err
	}
	if verbose {
		c.Log.Level = "debug"
	}
	logging.Setup(os.Stderr, c.Log.Level, c.Log.Format)
	return c, nil
}

// openApp loads configuration and opens the vault, creating the key on
// first use.
func openApp() (*app.App, error) {
	c, err := loadConfig()
	if err != nil {
		return nil, err
	}
	a, err := app.New(c)
	if err != nil {
		return nil, fmt.Errorf("open vault at %s: %w", c.Dir, err)
	}
	return a, nil
}

// readPassword returns the password to store. On a terminal it prompts
// twice with echo disabled; otherwise the first line of input is used.
func readPassword(in io.Reader) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return promptPasswordConfirm(f)
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// promptPassword reads a password from the terminal with echo disabled.
func promptPassword(f *os.File, prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	bytes, err := term.ReadPassword(int(f.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// promptPasswordConfirm prompts for a password twice and ensures they match.
func promptPasswordConfirm(f *os.File) (string, error) {
	pass, err := promptPassword(f, "Password: ")
	if err != nil {
		return "", err
	}
	if pass == "" {
		return "", fmt.Errorf("password cannot be empty")
	}
	confirm, err := promptPassword(f, "Confirm password: ")
	if err != nil {
		return "", err
	}
	if pass != confirm {
		return "", fmt.Errorf("passwords do not match")
	}
	return pass, nil
}
