package commands

import (
	"context"
	"fmt"
)

type UsersCmd struct {
	List   UsersListCmd   `cmd:"" help:"List accounts"`
	Status UsersStatusCmd `cmd:"" help:"Set an account's status"`
}

type UsersListCmd struct{}

func (u *UsersListCmd) Run(ctx context.Context, globals *Globals) error {
	client, _, err := newClient(globals, "admin")
	if err != nil {
		return err
	}

	users, err := client.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	for _, user := range users {
		fmt.Printf("#%-5d %-20s %-30s %-6s %s\n",
			user.ID, user.Username, user.Email, user.Role, user.Status)
	}
	return nil
}

type UsersStatusCmd struct {
	ID     int64  `arg:"" help:"User ID"`
	Status string `arg:"" help:"New status" enum:"active,inactive"`
}

func (u *UsersStatusCmd) Run(ctx context.Context, globals *Globals) error {
	client, _, err := newClient(globals, "admin")
	if err != nil {
		return err
	}

	if err := client.SetUserStatus(ctx, u.ID, u.Status); err != nil {
		return fmt.Errorf("failed to update user status: %w", err)
	}

	fmt.Printf("User #%d is now %s\n", u.ID, u.Status)
	return nil
}

type ReportCmd struct{}

func (r *ReportCmd) Run(ctx context.Context, globals *Globals) error {
	client, _, err := newClient(globals, "admin")
	if err != nil {
		return err
	}

	summary, err := client.DailySummary(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch daily summary: %w", err)
	}

	fmt.Printf("Revenue:      %.2f (%+.1f%%)\n", summary.TotalRevenue, summary.RevenueChange)
	fmt.Printf("Reservations: %d (%+.1f%%)\n", summary.DailyReservations, summary.ReservationChange)
	fmt.Printf("Utilization:  %.1f%% (%+.1f%%)\n", summary.ParkingUtilization, summary.UtilizationChange)
	fmt.Printf("Avg duration: %.1fh (%+.1f%%)\n", summary.AverageDuration, summary.DurationChange)
	return nil
}
