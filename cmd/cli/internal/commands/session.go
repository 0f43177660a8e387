package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/scrumwise/scrumwise-cli/internal/credentials"
)

// SessionCmd groups session inspection subcommands.
type SessionCmd struct {
	Status SessionStatusCmd `cmd:"" help:"Show session state and token expiry"`
	Watch  SessionWatchCmd  `cmd:"" help:"Keep the session refreshed until interrupted"`
}

// SessionStatusCmd prints the validated session state. The token itself is
// never printed, only its fingerprint.
type SessionStatusCmd struct {
	clientFlags `embed:""`
}

func (c *SessionStatusCmd) Run(ctx context.Context, globals *Globals) error {
	mgr, err := c.manager()
	if err != nil {
		return err
	}
	defer mgr.Close()

	user, err := mgr.LoadUser(ctx)
	if err != nil || user == nil {
		fmt.Println("State: unauthenticated")
		return nil
	}

	fmt.Printf("State: %s\n", mgr.State())
	fmt.Printf("User: %s <%s>\n", user.FullName, user.Email)
	if token, ok := mgr.AccessToken(); ok {
		fmt.Printf("Token: %s (%s scope)\n", credentials.Fingerprint(token), mgr.TokenScope())
	}
	if expiresAt, ok := mgr.ExpiresAt(); ok {
		fmt.Printf("Expires: %s (in %s)\n",
			expiresAt.Format(time.RFC3339), time.Until(expiresAt).Round(time.Second))
	} else {
		fmt.Println("Expires: unknown")
	}
	return nil
}

// SessionWatchCmd keeps the process in the foreground with the refresh
// scheduler running, renewing the access token ahead of expiry until
// interrupted.
type SessionWatchCmd struct {
	clientFlags `embed:""`
}

func (c *SessionWatchCmd) Run(ctx context.Context, globals *Globals) error {
	mgr, err := c.manager()
	if err != nil {
		return err
	}
	defer mgr.Close()

	user, err := mgr.LoadUser(ctx)
	if err != nil {
		return fmt.Errorf("session is no longer valid: %w", err)
	}
	if user == nil {
		return fmt.Errorf("not signed in")
	}

	fmt.Printf("Watching session for %s. Press Ctrl-C to stop.\n", user.Email)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	fmt.Println("Stopped.")
	return nil
}
