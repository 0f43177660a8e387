package commands

import (
	"context"
	"fmt"

	"github.com/scrumwise/scrumwise-cli/internal/api"
)

// WhoamiCmd validates the stored session against the server and prints the
// current user.
type WhoamiCmd struct {
	clientFlags `embed:""`
}

func (c *WhoamiCmd) Run(ctx context.Context, globals *Globals) error {
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

	fmt.Printf("%s <%s>\n", user.FullName, user.Email)
	fmt.Printf("Roles: %s\n", roleSummary(user))
	if user.SubscriptionTier != "" {
		fmt.Printf("Plan: %s\n", user.SubscriptionTier)
	}
	for _, team := range user.Teams {
		fmt.Printf("Team: %s (%s)\n", team.Name, team.Role)
	}
	return nil
}

func roleSummary(user *api.User) string {
	roles := ""
	for _, role := range []api.Role{api.RoleAdmin, api.RoleScrumMaster, api.RoleProductOwner, api.RoleDeveloper} {
		if user.HasRole(role) {
			if roles != "" {
				roles += ", "
			}
			roles += string(role)
		}
	}
	return roles
}
