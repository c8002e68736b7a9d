package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/zenxianie/parkctl/internal/notify"
	"github.com/zenxianie/parkctl/internal/realtime"
)

type WatchCmd struct {
	Role     string `help:"Session role (user or admin)" enum:",user,admin" default:""`
	MarkRead bool   `help:"Acknowledge each notification as it arrives"`
}

func (w *WatchCmd) Run(ctx context.Context, globals *Globals) error {
	role, err := resolveRole(w.Role, globals)
	if err != nil {
		return err
	}

	authCtx, client, err := newAuthContext(globals, role)
	if err != nil {
		return err
	}

	if err := authCtx.Initialize(ctx); err != nil {
		return err
	}
	if !authCtx.IsAuthenticated() {
		return fmt.Errorf("not logged in as %s, run: parkctl login", role)
	}

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Handle interrupts
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("Received interrupt signal, shutting down...")
		cancel()
	}()

	store := notify.NewStore()
	channel := realtime.New(realtime.Config{
		URL:    globals.Config.WSURL,
		Client: client,
		Logger: globals.Logger,
	})
	defer channel.Disconnect()

	unsubState := channel.SubscribeState(func(connected bool) {
		if connected {
			fmt.Println("Connected, waiting for notifications...")
		} else {
			fmt.Println("Disconnected")
		}
	})
	defer unsubState()

	unsubMsgs := channel.SubscribeMessages(func(n notify.Notification) {
		if !store.Append(n) {
			return
		}

		fmt.Printf("[%s] %-12s #%d %s\n",
			n.CreatedAt.Format("15:04:05"),
			n.Type.Category(),
			n.ID,
			n.Message)

		if w.MarkRead {
			if err := channel.MarkAsRead(ctx, n.ID); err != nil {
				globals.Logger.Warn().Err(err).Int64("id", n.ID).Msg("mark-read failed")
				return
			}
			store.MarkRead(n.ID)
		}
	})
	defer unsubMsgs()

	if err := channel.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	<-ctx.Done()

	fmt.Printf("Watched %d notification(s), %d unread\n", store.Len(), store.UnreadCount())
	return nil
}
