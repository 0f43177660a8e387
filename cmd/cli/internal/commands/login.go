package commands

import (
	"context"
	"fmt"
)

// LoginCmd signs in with an email and password.
type LoginCmd struct {
	clientFlags `embed:""`

	Email      string `arg:"" help:"Account email"`
	Password   string `help:"Account password (prompted when omitted)"`
	RememberMe bool   `help:"Keep the access token across restarts" default:"true" negatable:""`
}

func (c *LoginCmd) Run(ctx context.Context, globals *Globals) error {
	mgr, err := c.manager()
	if err != nil {
		return err
	}
	defer mgr.Close()

	password := c.Password
	if password == "" {
		if password, err = promptPassword("Password"); err != nil {
			return err
		}
	}

	user, err := mgr.Login(ctx, c.Email, password, c.RememberMe)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	fmt.Printf("Signed in as %s <%s>\n", user.FullName, user.Email)
	if !c.RememberMe {
		fmt.Println("Access token is session-scoped and will not survive a reboot.")
	}
	return nil
}
