package main

import (
	"github.com/spf13/cobra"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and remove stored credentials",
	Long:  "Sign out of contentflow, removing the stored token, the saved session and the LinkedIn connection record.",
	RunE:  runLogout,
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}

func runLogout(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	// the local session is cleared even when the server call fails
	a.auth().Logout(cmd.Context())

	cmd.Println("Logged out successfully. Authentication credentials removed.")
	return nil
}
