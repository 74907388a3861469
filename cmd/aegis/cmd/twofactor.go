package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/aegisvault/internal/validation"
)

var (
	qrFile string
	qrSize int
)

var twoFactorCmd = &cobra.Command{
	Use:   "2fa",
	Short: "Manage the authenticator (TOTP) second factor",
}

var twoFactorSetupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Provision the authenticator secret",
	Long: `Provision the authenticator secret on first use.

The secret and its otpauth:// URI are shown exactly once. Running setup again
reports that a secret already exists and never reveals it.`,
	Args: cobra.NoArgs,
	RunE: runTwoFactorSetup,
}

var twoFactorVerifyCmd = &cobra.Command{
	Use:   "verify <code>",
	Short: "Check a 6-digit authenticator code",
	Args:  cobra.ExactArgs(1),
	RunE:  runTwoFactorVerify,
}

var twoFactorStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether the authenticator secret is provisioned",
	Args:  cobra.NoArgs,
	RunE:  runTwoFactorStatus,
}

func init() {
	rootCmd.AddCommand(twoFactorCmd)
	twoFactorCmd.AddCommand(twoFactorSetupCmd, twoFactorVerifyCmd, twoFactorStatusCmd)

	twoFactorSetupCmd.Flags().StringVar(&qrFile, "qr", "", "write the provisioning QR code to this PNG file")
	twoFactorSetupCmd.Flags().IntVar(&qrSize, "qr-size", 256, "QR code size in pixels")
}

func runTwoFactorSetup(cmd *cobra.Command, _ []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	enrollment, err := a.TwoFactor.Setup()
	if err != nil {
		return fmt.Errorf("failed to set up two-factor: %w", err)
	}

	out := cmd.OutOrStdout()
	if !enrollment.AlreadyProvisioned && qrFile != "" {
		png, err := enrollment.QRCodePNG(qrSize)
		if err != nil {
			return err
		}
		if err := os.WriteFile(qrFile, png, 0o600); err != nil {
			return fmt.Errorf("write qr code: %w", err)
		}
	}

	if jsonOutput {
		return printJSON(out, enrollment)
	}

	if enrollment.AlreadyProvisioned {
		Info(out, "Two-factor authentication is already set up")
		return nil
	}

	Success(out, "Two-factor authentication set up")
	PrintKeyValue(out, "Secret", enrollment.Secret)
	PrintKeyValue(out, "URI", enrollment.URI)
	if qrFile != "" {
		PrintKeyValue(out, "QR code", qrFile)
	}
	Warning("The secret is shown only once. Add it to your authenticator app now.")
	return nil
}

func runTwoFactorVerify(cmd *cobra.Command, args []string) error {
	if err := validation.TOTPCode(args[0]); err != nil {
		return err
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	valid := a.TwoFactor.Verify(args[0])

	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, map[string]bool{"valid": valid})
	}
	if !valid {
		return fmt.Errorf("invalid code")
	}
	Success(out, "Code is valid")
	return nil
}

func runTwoFactorStatus(cmd *cobra.Command, _ []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	provisioned, err := a.TwoFactor.Provisioned()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, map[string]bool{"provisioned": provisioned})
	}
	status := "not set up"
	if provisioned {
		status = "set up"
	}
	PrintKeyValue(out, "Two-factor", status)
	return nil
}
