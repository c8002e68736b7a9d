package commands

import (
	"context"
	"fmt"

	"github.com/zenxianie/parkctl/internal/api"
)

type LoginCmd struct {
	Email    string `arg:"" help:"Account email"`
	Password string `help:"Account password" env:"PARKCTL_PASSWORD" required:""`
	Role     string `help:"Session role (user or admin)" enum:",user,admin" default:""`
}

func (l *LoginCmd) Run(ctx context.Context, globals *Globals) error {
	role, err := resolveRole(l.Role, globals)
	if err != nil {
		return err
	}

	authCtx, _, err := newAuthContext(globals, role)
	if err != nil {
		return err
	}

	user, err := authCtx.Login(ctx, l.Email, l.Password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	fmt.Printf("Logged in as %s (%s)\n", user.Username, user.Role)
	return nil
}

type LogoutCmd struct {
	Role string `help:"Session role (user or admin)" enum:",user,admin" default:""`
}

func (l *LogoutCmd) Run(ctx context.Context, globals *Globals) error {
	role, err := resolveRole(l.Role, globals)
	if err != nil {
		return err
	}

	authCtx, _, err := newAuthContext(globals, role)
	if err != nil {
		return err
	}

	authCtx.Logout(ctx)
	fmt.Println("Logged out")
	return nil
}

type RegisterCmd struct {
	Email     string `arg:"" help:"Account email"`
	Username  string `help:"Display name" required:""`
	Password  string `help:"Account password" env:"PARKCTL_PASSWORD" required:""`
	FirstName string `help:"First name"`
	LastName  string `help:"Last name"`
}

func (r *RegisterCmd) Run(ctx context.Context, globals *Globals) error {
	client, _, err := newClient(globals, "user")
	if err != nil {
		return err
	}

	err = client.Register(ctx, api.RegisterRequest{
		Email:     r.Email,
		Username:  r.Username,
		Password:  r.Password,
		Password2: r.Password,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Role:      "user",
	})
	if err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}

	fmt.Println("Account created, you can now log in")
	return nil
}

type ProfileCmd struct {
	Role string `help:"Session role (user or admin)" enum:",user,admin" default:""`
}

func (p *ProfileCmd) Run(ctx context.Context, globals *Globals) error {
	role, err := resolveRole(p.Role, globals)
	if err != nil {
		return err
	}

	authCtx, _, err := newAuthContext(globals, role)
	if err != nil {
		return err
	}

	if err := authCtx.Initialize(ctx); err != nil {
		return err
	}

	if !authCtx.IsAuthenticated() {
		return fmt.Errorf("not logged in as %s, run: parkctl login", role)
	}

	user := authCtx.CurrentUser()
	fmt.Printf("ID:       %d\n", user.ID)
	fmt.Printf("Username: %s\n", user.Username)
	fmt.Printf("Email:    %s\n", user.Email)
	fmt.Printf("Role:     %s\n", user.Role)
	fmt.Printf("Status:   %s\n", user.Status)
	return nil
}
