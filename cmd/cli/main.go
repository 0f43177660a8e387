package main

import (
	"context"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog/log"

	"github.com/scrumwise/scrumwise-cli/cmd/cli/internal/commands"
	"github.com/scrumwise/scrumwise-cli/internal/logger"
)

var (
	version = "dev"
	cli     struct {
		Login    commands.LoginCmd    `cmd:"" help:"Sign in to your account"`
		Signup   commands.SignupCmd   `cmd:"" help:"Create an account"`
		Logout   commands.LogoutCmd   `cmd:"" help:"Sign out and clear stored credentials"`
		Whoami   commands.WhoamiCmd   `cmd:"" help:"Show the signed-in user"`
		Session  commands.SessionCmd  `cmd:"" help:"Inspect or keep alive the session"`
		Password commands.PasswordCmd `cmd:"" help:"Password-reset flow"`
		Debug    bool                 `help:"Enable debug mode."`
		Version  kong.VersionFlag
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))

	log.Logger = logger.Setup(cli.Debug)

	err := cmd.Run(&commands.Globals{Debug: cli.Debug, Version: version})
	cmd.FatalIfErrorf(err)
}
