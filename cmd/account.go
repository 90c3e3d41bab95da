package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var passwordCmd = &cobra.Command{
	Use:   "password",
	Short: "Recover or reset your password",
}

var forgotEmail string

var passwordForgotCmd = &cobra.Command{
	Use:   "forgot",
	Short: "Email a password reset link",
	RunE: func(cmd *cobra.Command, args []string) error {
		defer func() { forgotEmail = "" }()

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if forgotEmail == "" {
			if forgotEmail, err = readLine(cmd, "Email: "); err != nil {
				return err
			}
		}

		resp, err := a.auth().ForgotPassword(cmd.Context(), forgotEmail)
		if err != nil {
			return fmt.Errorf("password reset request failed: %w", err)
		}
		cmd.Println(messageOr(resp.Message, "If an account exists for that email, a reset link has been sent."))
		return nil
	},
}

var (
	resetToken    string
	resetPassword string
)

var passwordResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Set a new password with a reset token",
	RunE: func(cmd *cobra.Command, args []string) error {
		defer func() {
			resetToken = ""
			resetPassword = ""
		}()

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if resetPassword == "" {
			if resetPassword, err = readSecret(cmd, "New password: "); err != nil {
				return err
			}
		}

		resp, err := a.auth().ResetPassword(cmd.Context(), resetToken, resetPassword)
		if err != nil {
			return fmt.Errorf("password reset failed: %w", err)
		}
		cmd.Println(messageOr(resp.Message, "Password reset successfully. You can now log in."))
		return nil
	},
}

var emailCmd = &cobra.Command{
	Use:   "email",
	Short: "Verify your email address",
}

var emailVerifyCmd = &cobra.Command{
	Use:   "verify <token>",
	Short: "Verify your email with the token from the verification link",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		var token string
		if len(args) == 1 {
			token = args[0]
		}

		resp, err := a.auth().VerifyEmail(cmd.Context(), token)
		if err != nil {
			return fmt.Errorf("email verification failed: %w", err)
		}
		cmd.Println(messageOr(resp.Message, "Email verified successfully."))
		return nil
	},
}

var resendEmail string

var emailResendCmd = &cobra.Command{
	Use:   "resend",
	Short: "Send a new verification link",
	RunE: func(cmd *cobra.Command, args []string) error {
		defer func() { resendEmail = "" }()

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if resendEmail == "" {
			if user := a.session.User(); user != nil {
				resendEmail = user.Email
			}
		}
		if resendEmail == "" {
			if resendEmail, err = readLine(cmd, "Email: "); err != nil {
				return err
			}
		}

		resp, err := a.auth().ResendVerification(cmd.Context(), resendEmail)
		if err != nil {
			return fmt.Errorf("failed to resend verification email: %w", err)
		}
		cmd.Println(messageOr(resp.Message, "Verification email sent."))
		return nil
	},
}

func messageOr(msg, fallback string) string {
	if msg == "" {
		return fallback
	}
	return msg
}

func init() {
	passwordForgotCmd.Flags().StringVar(&forgotEmail, "email", "", "Account email address")
	passwordResetCmd.Flags().StringVar(&resetToken, "token", "", "Reset token from the email link")
	passwordResetCmd.Flags().StringVar(&resetPassword, "password", "", "New password (will prompt if not provided)")
	emailResendCmd.Flags().StringVar(&resendEmail, "email", "", "Account email address (defaults to the signed-in user)")

	passwordCmd.AddCommand(passwordForgotCmd, passwordResetCmd)
	emailCmd.AddCommand(emailVerifyCmd, emailResendCmd)
	rootCmd.AddCommand(passwordCmd, emailCmd)
}
