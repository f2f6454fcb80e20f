package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"quiz-client/internal/app"
	"quiz-client/internal/backend"
	"quiz-client/internal/domain"

	"github.com/spf13/cobra"
)

// NewWhoamiCmd prints the identity behind the stored session.
func NewWhoamiCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(flags, os.Stderr)
			if err != nil {
				return err
			}
			defer rt.Close()

			identity, err := resolve(cmd.Context(), rt)
			if err != nil {
				return err
			}
			printIdentity(cmd.OutOrStdout(), identity)
			return nil
		},
	}
}

// NewLoginCmd stores a session cookie obtained from the browser login flow.
func NewLoginCmd(flags *rootFlags) *cobra.Command {
	var cookie string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store the backend session cookie after logging in through the browser",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cookie == "" {
				return fmt.Errorf("--cookie is required")
			}
			rt, err := newRuntime(flags, os.Stderr)
			if err != nil {
				return err
			}
			defer rt.Close()
			if !rt.persistent {
				return fmt.Errorf("%w: configure redis, or export QUIZ_SESSION_COOKIE for each run", errNoPersistentStore)
			}

			ctx := cmd.Context()
			if err := rt.cookies.Save(ctx, cookie); err != nil {
				return fmt.Errorf("save session cookie: %w", err)
			}
			identity, err := resolve(ctx, rt)
			if err != nil {
				return err
			}
			if identity == nil {
				_ = rt.cookies.Clear(ctx)
				return fmt.Errorf("%w: the backend did not accept this cookie", domain.ErrNotAuthenticated)
			}
			printIdentity(cmd.OutOrStdout(), identity)
			return nil
		},
	}
	cmd.Flags().StringVar(&cookie, "cookie", "", "value of the backend session cookie")
	return cmd
}

// NewLogoutCmd ends the backend session and forgets the stored cookie.
func NewLogoutCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out of the backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(flags, os.Stderr)
			if err != nil {
				return err
			}
			defer rt.Close()

			ctx := cmd.Context()
			client, err := rt.client(rt.cookies)
			if err != nil {
				return err
			}
			logoutErr := client.Logout(ctx)
			if err := rt.cookies.Clear(ctx); err != nil {
				rt.log.WithError(err).Warn("clear session cookie")
			}
			if logoutErr != nil && !backend.IsAuthRequired(logoutErr) {
				rt.log.WithError(logoutErr).Warn("logout call failed, local session cleared anyway")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "logged out")
			return nil
		},
	}
}

func resolve(ctx context.Context, rt *runtime) (*domain.Identity, error) {
	client, err := rt.client(rt.cookies)
	if err != nil {
		return nil, err
	}
	identity, err := app.NewSessionResolver(client, rt.log).Resolve(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve session: %w", err)
	}
	return identity, nil
}

func printIdentity(out io.Writer, identity *domain.Identity) {
	if identity == nil {
		fmt.Fprintln(out, "not logged in")
		return
	}
	fmt.Fprintf(out, "%s (user %d)\n", identity.DisplayName(), identity.UserID)
	if identity.Email != "" {
		fmt.Fprintf(out, "email: %s\n", identity.Email)
	}
	for _, linked := range identity.Identities {
		fmt.Fprintf(out, "linked: %s\n", linked.Provider)
	}
}
