package commands

import (
	"context"
	"fmt"

	"github.com/scrumwise/scrumwise-cli/internal/api"
)

// SignupCmd creates an account and signs in.
type SignupCmd struct {
	clientFlags `embed:""`

	Email       string `arg:"" help:"Account email"`
	FullName    string `help:"Your full name" required:""`
	CompanyName string `help:"Company or organization name"`
	Password    string `help:"Account password (prompted when omitted)"`
}

func (c *SignupCmd) Run(ctx context.Context, globals *Globals) error {
	mgr, err := c.manager()
	if err != nil {
		return err
	}
	defer mgr.Close()

	password := c.Password
	if password == "" {
		if password, err = promptPassword("Choose a password"); err != nil {
			return err
		}
	}

	user, err := mgr.Signup(ctx, api.SignupParams{
		Email:       c.Email,
		Password:    password,
		FullName:    c.FullName,
		CompanyName: c.CompanyName,
	})
	if err != nil {
		return fmt.Errorf("signup failed: %w", err)
	}

	fmt.Printf("Account created. Signed in as %s <%s>\n", user.FullName, user.Email)
	return nil
}
