package commands

import (
	"context"
	"fmt"

	"github.com/zenxianie/parkctl/internal/api"
)

type ReservationsCmd struct {
	List   ReservationsListCmd   `cmd:"" help:"List your reservations"`
	Create ReservationsCreateCmd `cmd:"" help:"Book a parking space"`
	Cancel ReservationsCancelCmd `cmd:"" help:"Cancel a reservation"`
}

type ReservationsListCmd struct {
	Role string `help:"Session role (user or admin)" enum:",user,admin" default:""`
}

func (r *ReservationsListCmd) Run(ctx context.Context, globals *Globals) error {
	role, err := resolveRole(r.Role, globals)
	if err != nil {
		return err
	}

	client, _, err := newClient(globals, role)
	if err != nil {
		return err
	}

	reservations, err := client.ListReservations(ctx)
	if err != nil {
		return fmt.Errorf("failed to list reservations: %w", err)
	}

	if len(reservations) == 0 {
		fmt.Println("No reservations")
		return nil
	}

	for _, res := range reservations {
		fmt.Printf("#%-6d %-10s %s space %s  %s → %s  %s\n",
			res.ID,
			res.Status,
			res.ParkingLot.Name,
			res.ParkingSpace.SpaceNumber,
			res.StartTime.Format("2006-01-02 15:04"),
			res.EndTime.Format("15:04"),
			res.VehiclePlate)
	}
	return nil
}

type ReservationsCreateCmd struct {
	Lot   int64  `help:"Parking lot ID" required:""`
	Space int64  `help:"Parking space ID" required:""`
	Start string `help:"Start time (RFC 3339)" required:""`
	End   string `help:"End time (RFC 3339)" required:""`
	Plate string `help:"Vehicle plate" required:""`
	Notes string `help:"Optional notes"`
}

func (r *ReservationsCreateCmd) Run(ctx context.Context, globals *Globals) error {
	client, _, err := newClient(globals, "user")
	if err != nil {
		return err
	}

	res, err := client.CreateReservation(ctx, api.CreateReservationRequest{
		ParkingLot:   r.Lot,
		ParkingSpace: r.Space,
		StartTime:    r.Start,
		EndTime:      r.End,
		VehiclePlate: r.Plate,
		Notes:        r.Notes,
	})
	if err != nil {
		return fmt.Errorf("failed to create reservation: %w", err)
	}

	fmt.Printf("Reservation #%d created (%s)\n", res.ID, res.Status)
	return nil
}

type ReservationsCancelCmd struct {
	ID   int64  `arg:"" help:"Reservation ID"`
	Role string `help:"Session role (user or admin)" enum:",user,admin" default:""`
}

func (r *ReservationsCancelCmd) Run(ctx context.Context, globals *Globals) error {
	role, err := resolveRole(r.Role, globals)
	if err != nil {
		return err
	}

	client, _, err := newClient(globals, role)
	if err != nil {
		return err
	}

	if err := client.CancelReservation(ctx, r.ID); err != nil {
		return fmt.Errorf("failed to cancel reservation: %w", err)
	}

	fmt.Printf("Reservation #%d cancelled\n", r.ID)
	return nil
}
