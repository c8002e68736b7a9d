package commands

import (
	"context"
	"fmt"
)

type NotificationsCmd struct {
	List     NotificationsListCmd     `cmd:"" help:"List notification history"`
	MarkRead NotificationsMarkReadCmd `cmd:"" name:"mark-read" help:"Acknowledge a notification"`
}

type NotificationsListCmd struct {
	Role   string `help:"Session role (user or admin)" enum:",user,admin" default:""`
	Unread bool   `help:"Only show unread notifications"`
}

func (n *NotificationsListCmd) Run(ctx context.Context, globals *Globals) error {
	role, err := resolveRole(n.Role, globals)
	if err != nil {
		return err
	}

	client, _, err := newClient(globals, role)
	if err != nil {
		return err
	}

	notifications, err := client.ListNotifications(ctx)
	if err != nil {
		return fmt.Errorf("failed to list notifications: %w", err)
	}

	for _, item := range notifications {
		if n.Unread && item.IsRead {
			continue
		}

		marker := " "
		if !item.IsRead {
			marker = "*"
		}
		fmt.Printf("%s [%s] %-12s #%d %s\n",
			marker,
			item.CreatedAt.Format("2006-01-02 15:04"),
			item.Type.Category(),
			item.ID,
			item.Message)
	}
	return nil
}

type NotificationsMarkReadCmd struct {
	ID   int64  `arg:"" help:"Notification ID"`
	Role string `help:"Session role (user or admin)" enum:",user,admin" default:""`
}

func (n *NotificationsMarkReadCmd) Run(ctx context.Context, globals *Globals) error {
	role, err := resolveRole(n.Role, globals)
	if err != nil {
		return err
	}

	client, _, err := newClient(globals, role)
	if err != nil {
		return err
	}

	if err := client.MarkNotificationRead(ctx, n.ID); err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}

	fmt.Printf("Notification %d marked read\n", n.ID)
	return nil
}
