package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Gyana491/contentflow/internal/api"
	"github.com/Gyana491/contentflow/internal/callback"
	"github.com/Gyana491/contentflow/internal/linkedin"
)

// connectTimeout bounds how long connect waits for the browser redirect
const connectTimeout = 5 * time.Minute

var linkedinCmd = &cobra.Command{
	Use:   "linkedin",
	Short: "Manage the LinkedIn connection",
	Long:  "Connect, inspect and refresh the LinkedIn account used to publish posts",
}

var connectNoListen bool

var linkedinConnectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Connect your LinkedIn account",
	Long: "Print the LinkedIn authorization URL and wait for the redirect on the local callback address. " +
		"With --no-listen, finish the flow with 'contentflow linkedin complete --url <redirect URL>'.",
	RunE: func(cmd *cobra.Command, args []string) error {
		defer func() { connectNoListen = false }()

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		if err := a.requireAuth(ctx); err != nil {
			return err
		}

		m := a.linkedIn()
		authURL, err := m.Connect(ctx)
		if err != nil {
			return fmt.Errorf("failed to start LinkedIn authorization: %w", err)
		}

		if connectNoListen {
			cmd.Printf("Open this URL in your browser to authorize contentflow:\n\n  %s\n\n", authURL)
			cmd.Printf("Then run: contentflow linkedin complete --url '<the URL you were redirected to>'\n")
			return nil
		}

		listener, err := callback.Listen(a.cfg.LinkedIn.CallbackAddr, callback.DefaultPath)
		if err != nil {
			return fmt.Errorf("%w\n\nUse 'contentflow linkedin connect --no-listen' to finish the flow manually", err)
		}
		defer func() { _ = listener.Close() }()

		cmd.Printf("Open this URL in your browser to authorize contentflow:\n\n  %s\n\n", authURL)
		cmd.Printf("Waiting for LinkedIn to redirect to %s ...\n", listener.URL())

		waitCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()
		params, err := listener.Wait(waitCtx)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return errors.New("timed out waiting for the LinkedIn redirect")
			}
			return err
		}

		return finishConnect(cmd, a, m, params)
	},
}

var completeURL string

var linkedinCompleteCmd = &cobra.Command{
	Use:   "complete",
	Short: "Finish connecting with a pasted redirect URL",
	RunE: func(cmd *cobra.Command, args []string) error {
		defer func() { completeURL = "" }()

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if completeURL == "" {
			if completeURL, err = readLine(cmd, "Redirect URL: "); err != nil {
				return err
			}
		}
		params, err := callback.ParseURL(completeURL)
		if err != nil {
			return err
		}

		if err := a.requireAuth(cmd.Context()); err != nil {
			return err
		}
		return finishConnect(cmd, a, a.linkedIn(), params)
	},
}

func finishConnect(cmd *cobra.Command, a *app, m *linkedin.Manager, params callback.Params) error {
	ctx := cmd.Context()

	profile, err := m.CompleteCallback(ctx, params)
	if err != nil {
		return fmt.Errorf("failed to connect LinkedIn: %w", err)
	}

	name := profile.Name
	if name == "" {
		name = profile.FirstName + " " + profile.LastName
	}
	cmd.Printf("LinkedIn account connected: %s\n", name)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(a.cfg.LinkedIn.RedirectDelay):
	}

	cmd.Println()
	printConnection(cmd, m.Connection())
	return nil
}

func printConnection(cmd *cobra.Command, conn *linkedin.Connection) {
	if conn == nil {
		cmd.Println("LinkedIn: not connected")
		return
	}

	p := conn.Profile
	name := p.Name
	if name == "" {
		name = p.FirstName + " " + p.LastName
	}
	cmd.Printf("LinkedIn: connected\n")
	cmd.Printf("  Name: %s\n", name)
	if p.Headline != "" {
		cmd.Printf("  Headline: %s\n", p.Headline)
	}
	if p.Email != "" {
		cmd.Printf("  Email: %s\n", p.Email)
	}
	cmd.Printf("  Connection ID: %s\n", conn.LinkedInAuthID)
	if !conn.ConnectedAt.IsZero() {
		cmd.Printf("  Connected: %s\n", humanize.Time(conn.ConnectedAt))
		cmd.Printf("  Token expires: %s\n", humanize.Time(conn.Expiry()))
	}
}

// loadConnection signs in and loads the connection record.
func loadConnection(cmd *cobra.Command, a *app) (*linkedin.Manager, error) {
	if err := a.requireAuth(cmd.Context()); err != nil {
		return nil, err
	}
	m := a.linkedIn()
	if !m.CheckConnectionStatus(cmd.Context()) {
		return nil, fmt.Errorf("%w: run 'contentflow linkedin connect'", linkedin.ErrNotConnected)
	}
	return m, nil
}

var linkedinStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the LinkedIn connection",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.requireAuth(cmd.Context()); err != nil {
			return err
		}
		m := a.linkedIn()
		if !m.CheckConnectionStatus(cmd.Context()) {
			printConnection(cmd, nil)
			return nil
		}
		m.FetchCompleteProfile(cmd.Context())
		printConnection(cmd, m.Connection())
		return nil
	},
}

var linkedinDisconnectCmd = &cobra.Command{
	Use:   "disconnect",
	Short: "Forget the LinkedIn connection on this machine",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		a.linkedIn().Disconnect(cmd.Context())
		cmd.Println("LinkedIn account disconnected.")
		return nil
	},
}

var linkedinRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Refresh the LinkedIn access token now",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		m, err := loadConnection(cmd, a)
		if err != nil {
			return err
		}

		if _, err := m.RefreshAccessToken(cmd.Context()); err != nil {
			if api.StatusCode(err) == http.StatusBadRequest {
				return fmt.Errorf("LinkedIn refresh token is no longer valid, the account was disconnected: %w", err)
			}
			return fmt.Errorf("failed to refresh LinkedIn token: %w", err)
		}

		conn := m.Connection()
		cmd.Printf("LinkedIn token refreshed; it expires %s\n", humanize.Time(conn.Expiry()))
		return nil
	},
}

var profileRefresh bool

var linkedinProfileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show the connected LinkedIn profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		defer func() { profileRefresh = false }()

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		m, err := loadConnection(cmd, a)
		if err != nil {
			return err
		}

		if profileRefresh {
			if err := m.RefreshProfileData(cmd.Context()); err != nil {
				return fmt.Errorf("failed to refresh profile: %w", err)
			}
		} else {
			m.FetchCompleteProfile(cmd.Context())
		}

		conn := m.Connection()
		p := conn.Profile
		cmd.Printf("First name: %s\n", p.FirstName)
		cmd.Printf("Last name: %s\n", p.LastName)
		fields := []struct{ label, value string }{
			{"Headline", p.Headline},
			{"Email", p.Email},
			{"Location", p.Location},
			{"Industry", p.Industry},
			{"Vanity name", p.VanityName},
			{"Picture", p.ProfilePicture},
		}
		for _, f := range fields {
			if f.value != "" {
				cmd.Printf("%s: %s\n", f.label, f.value)
			}
		}
		if !conn.ProfileFetchedAt.IsZero() {
			cmd.Printf("Fetched: %s\n", humanize.Time(conn.ProfileFetchedAt))
		}
		return nil
	},
}

var linkedinWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Keep the LinkedIn token fresh until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		m, err := loadConnection(cmd, a)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		stop := m.StartAutoRefresh(ctx)
		defer stop()

		cmd.Printf("Keeping the LinkedIn token fresh (checking every %s). Press Ctrl+C to stop.\n",
			a.cfg.LinkedIn.RefreshInterval)

		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				cmd.Println("Stopped.")
				return nil
			case <-ticker.C:
				if !m.IsConnected() {
					return errors.New("LinkedIn connection was dropped; run 'contentflow linkedin connect'")
				}
			}
		}
	},
}

func init() {
	linkedinConnectCmd.Flags().BoolVar(&connectNoListen, "no-listen", false, "Do not start the local callback listener")
	linkedinCompleteCmd.Flags().StringVar(&completeURL, "url", "", "The URL LinkedIn redirected your browser to")
	linkedinProfileCmd.Flags().BoolVar(&profileRefresh, "refresh", false, "Fetch the profile from LinkedIn even if cached")

	linkedinCmd.AddCommand(
		linkedinConnectCmd,
		linkedinCompleteCmd,
		linkedinStatusCmd,
		linkedinDisconnectCmd,
		linkedinRefreshCmd,
		linkedinProfileCmd,
		linkedinWatchCmd,
	)
	rootCmd.AddCommand(linkedinCmd)
}
