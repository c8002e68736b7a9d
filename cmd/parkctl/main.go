package main

import (
	"context"

	"github.com/alecthomas/kong"

	"github.com/zenxianie/parkctl/cmd/parkctl/internal/commands"
	"github.com/zenxianie/parkctl/internal/config"
	"github.com/zenxianie/parkctl/internal/logger"
)

var (
	version = "dev"
	cli     struct {
		Login         commands.LoginCmd         `cmd:"" help:"Log in and store a session"`
		Logout        commands.LogoutCmd        `cmd:"" help:"Log out and clear the stored session"`
		Register      commands.RegisterCmd      `cmd:"" help:"Create a new account"`
		Profile       commands.ProfileCmd       `cmd:"" help:"Show the current identity"`
		Watch         commands.WatchCmd         `cmd:"" help:"Stream realtime notifications"`
		Notifications commands.NotificationsCmd `cmd:"" help:"List and acknowledge notifications"`
		Reservations  commands.ReservationsCmd  `cmd:"" help:"Manage reservations"`
		Lots          commands.LotsCmd          `cmd:"" help:"Browse parking lots"`
		Users         commands.UsersCmd         `cmd:"" help:"Manage accounts (admin)"`
		Report        commands.ReportCmd        `cmd:"" help:"Daily summary report (admin)"`
		Config        string                    `help:"Path to config file" type:"path"`
		Debug         bool                      `help:"Enable debug mode."`
		Version       kong.VersionFlag
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))

	cfg, err := config.Load(cli.Config)
	cmd.FatalIfErrorf(err)

	if cli.Debug {
		cfg.Debug = true
	}

	err = cmd.Run(&commands.Globals{
		Config:  cfg,
		Debug:   cfg.Debug,
		Version: version,
		Logger:  logger.Setup(cfg.Debug),
	})
	cmd.FatalIfErrorf(err)
}
