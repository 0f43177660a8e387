package commands

import (
	"context"
	"fmt"
)

// PasswordCmd groups the password-reset flow.
type PasswordCmd struct {
	Forgot PasswordForgotCmd `cmd:"" help:"Request a password-reset email"`
	Reset  PasswordResetCmd  `cmd:"" help:"Set a new password using a reset token"`
}

// PasswordForgotCmd requests a reset email.
type PasswordForgotCmd struct {
	clientFlags `embed:""`

	Email string `arg:"" help:"Account email"`
}

func (c *PasswordForgotCmd) Run(ctx context.Context, globals *Globals) error {
	client, err := c.client()
	if err != nil {
		return err
	}

	if err := client.ForgotPassword(ctx, c.Email); err != nil {
		return fmt.Errorf("failed to request password reset: %w", err)
	}

	fmt.Printf("If an account exists for %s, a reset email is on its way.\n", c.Email)
	return nil
}

// PasswordResetCmd sets a new password from a reset token.
type PasswordResetCmd struct {
	clientFlags `embed:""`

	Token    string `arg:"" help:"Reset token from the email"`
	Password string `help:"New password (prompted when omitted)"`
}

func (c *PasswordResetCmd) Run(ctx context.Context, globals *Globals) error {
	client, err := c.client()
	if err != nil {
		return err
	}

	password := c.Password
	if password == "" {
		if password, err = promptPassword("New password"); err != nil {
			return err
		}
	}

	if err := client.ResetPassword(ctx, c.Token, password); err != nil {
		return fmt.Errorf("failed to reset password: %w", err)
	}

	fmt.Println("Password updated. Sign in with your new password.")
	return nil
}
