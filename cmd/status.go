package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/mod/semver"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check the backend and the local session",
	Long:  "Check that the backend is reachable, that this client version is supported, and whether you are signed in",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		health, err := a.client.Health(cmd.Context())
		if err != nil {
			return fmt.Errorf("server unreachable: %w", err)
		}

		cmd.Printf("Server: %s (%s)\n", a.cfg.Server.URL, health.Status)
		if health.Version != "" {
			cmd.Printf("Server version: %s\n", health.Version)
		}
		if !clientSupported(version, health.MinClientVersion) {
			cmd.Printf("Warning: this client (%s) is older than the minimum supported version %s\n",
				version, health.MinClientVersion)
		}

		if user := a.session.User(); a.session.IsAuthenticated() && user != nil {
			cmd.Printf("Signed in as: %s\n", user.Email)
		} else if a.session.IsAuthenticated() {
			cmd.Printf("Signed in: yes\n")
		} else {
			cmd.Printf("Signed in: no\n")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func canonicalVersion(v string) string {
	if v == "" {
		return ""
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return semver.Canonical(v)
}

// clientSupported reports whether current satisfies minimum. An unknown or
// unparsable minimum is treated as satisfied.
func clientSupported(current, minimum string) bool {
	m := canonicalVersion(minimum)
	if m == "" {
		return true
	}
	c := canonicalVersion(current)
	if c == "" {
		return false
	}
	return semver.Compare(c, m) >= 0
}
