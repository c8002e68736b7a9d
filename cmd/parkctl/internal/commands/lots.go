package commands

import (
	"context"
	"fmt"
)

type LotsCmd struct {
	List LotsListCmd `cmd:"" help:"List parking lots"`
	Show LotsShowCmd `cmd:"" help:"Show one lot including its spaces"`
}

type LotsListCmd struct {
	Role string `help:"Session role (user or admin)" enum:",user,admin" default:""`
}

func (l *LotsListCmd) Run(ctx context.Context, globals *Globals) error {
	role, err := resolveRole(l.Role, globals)
	if err != nil {
		return err
	}

	client, _, err := newClient(globals, role)
	if err != nil {
		return err
	}

	lots, err := client.ListParkingLots(ctx)
	if err != nil {
		return fmt.Errorf("failed to list parking lots: %w", err)
	}

	for _, lot := range lots {
		fmt.Printf("#%-4d %-25s %3d/%3d free  %s/h  %s\n",
			lot.ID, lot.Name, lot.AvailableSpaces, lot.TotalSpaces, lot.HourlyRate, lot.Address)
	}
	return nil
}

type LotsShowCmd struct {
	ID   int64  `arg:"" help:"Parking lot ID"`
	Role string `help:"Session role (user or admin)" enum:",user,admin" default:""`
}

func (l *LotsShowCmd) Run(ctx context.Context, globals *Globals) error {
	role, err := resolveRole(l.Role, globals)
	if err != nil {
		return err
	}

	client, _, err := newClient(globals, role)
	if err != nil {
		return err
	}

	lot, err := client.GetParkingLot(ctx, l.ID)
	if err != nil {
		return fmt.Errorf("failed to fetch parking lot: %w", err)
	}

	fmt.Printf("%s (%s)\n", lot.Name, lot.Status)
	fmt.Printf("%s\n", lot.Address)
	fmt.Printf("Rate: %s/h  Spaces: %d/%d free\n", lot.HourlyRate, lot.AvailableSpaces, lot.TotalSpaces)
	for _, space := range lot.Spaces {
		fmt.Printf("  %-6s %s\n", space.SpaceNumber, space.Status)
	}
	return nil
}
