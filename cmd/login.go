package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Gyana491/contentflow/internal/keychain"
)

// keychainFactory allows injecting a mock keychain in tests
var keychainFactory func() keychain.Keychain = func() keychain.Keychain {
	return keychain.NewSystemKeychain()
}

var (
	loginEmail    string
	loginPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to contentflow",
	Long:  "Sign in with your email and password. The session token is stored in the system keychain.",
	RunE:  runLogin,
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Email address")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "Password (will prompt if not provided)")
	rootCmd.AddCommand(loginCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	// Reset flags for reuse in tests
	defer func() {
		loginEmail = ""
		loginPassword = ""
	}()

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if loginEmail == "" {
		if loginEmail, err = readLine(cmd, "Email: "); err != nil {
			return err
		}
	}
	if loginPassword == "" {
		if loginPassword, err = readSecret(cmd, "Password: "); err != nil {
			return err
		}
	}

	user, err := a.auth().Login(cmd.Context(), loginEmail, loginPassword)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	cmd.Printf("Login successful! Welcome, %s.\n", user.DisplayName())
	if !user.EmailVerified {
		cmd.Printf("Your email is not verified yet. Run 'contentflow email resend' if you need a new link.\n")
	}
	return nil
}
