package main

import (
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Gyana491/contentflow/internal/session"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.requireAuth(cmd.Context()); err != nil {
			return err
		}

		user := a.session.User()
		cmd.Printf("Name: %s\n", user.DisplayName())
		cmd.Printf("Email: %s\n", user.Email)
		cmd.Printf("User ID: %s\n", user.ID)
		if user.EmailVerified {
			cmd.Printf("Email verified: yes\n")
		} else {
			cmd.Printf("Email verified: no\n")
		}
		if user.CreatedAt != nil {
			cmd.Printf("Member since: %s\n", humanize.Time(*user.CreatedAt))
		}
		if exp := session.TokenExpiry(a.session.Token()); !exp.IsZero() {
			cmd.Printf("Session expires: %s\n", humanize.Time(exp))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
}
