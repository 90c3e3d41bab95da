package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Gyana491/contentflow/internal/api"
)

type registerOptions struct {
	email     string
	password  string
	firstName string
	lastName  string
}

var registerFlags registerOptions

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a contentflow account",
	Long:  "Create an account and sign in. A verification link is sent to the email address.",
	RunE: func(cmd *cobra.Command, args []string) error {
		defer func() { registerFlags = registerOptions{} }()

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		f := &registerFlags
		prompts := []struct {
			value *string
			label string
		}{
			{&f.firstName, "First name: "},
			{&f.lastName, "Last name: "},
			{&f.email, "Email: "},
		}
		for _, p := range prompts {
			if *p.value == "" {
				if *p.value, err = readLine(cmd, p.label); err != nil {
					return err
				}
			}
		}
		if f.password == "" {
			if f.password, err = readSecret(cmd, "Password (at least 8 characters): "); err != nil {
				return err
			}
		}

		user, err := a.auth().Register(cmd.Context(), api.RegisterRequest{
			Email:     f.email,
			Password:  f.password,
			FirstName: f.firstName,
			LastName:  f.lastName,
		})
		if err != nil {
			return fmt.Errorf("registration failed: %w", err)
		}

		cmd.Printf("Account created. Welcome, %s!\n", user.DisplayName())
		cmd.Printf("Check %s for a verification link, then run 'contentflow email verify <token>'.\n", user.Email)
		return nil
	},
}

func init() {
	registerCmd.Flags().StringVar(&registerFlags.email, "email", "", "Email address")
	registerCmd.Flags().StringVar(&registerFlags.password, "password", "", "Password (will prompt if not provided)")
	registerCmd.Flags().StringVar(&registerFlags.firstName, "first-name", "", "First name")
	registerCmd.Flags().StringVar(&registerFlags.lastName, "last-name", "", "Last name")
	rootCmd.AddCommand(registerCmd)
}
