package commands

import (
	"context"
	"fmt"
)

// LogoutCmd ends the session and clears stored credentials. The server call
// is best effort; local credentials are wiped even when it fails.
type LogoutCmd struct {
	clientFlags `embed:""`
}

func (c *LogoutCmd) Run(ctx context.Context, globals *Globals) error {
	mgr, err := c.manager()
	if err != nil {
		return err
	}
	defer mgr.Close()

	mgr.Logout(ctx)

	fmt.Println("Signed out.")
	return nil
}
