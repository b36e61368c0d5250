package commands

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goliatone/go-auth-jwt/notify"
	"github.com/spf13/cobra"
)

func newWorkerCommand(configPath *string) *cobra.Command {
	var wait time.Duration

	cmd := &cobra.Command{
		Use:   "worker",
		Args:  cobra.NoArgs,
		Short: "Deliver queued activation emails",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := load(*configPath)
			if err != nil {
				return err
			}

			client, err := rt.openRedis()
			if err != nil {
				return err
			}
			defer client.Close()

			mailer, err := rt.mailer()
			if err != nil {
				return err
			}

			queue := notify.NewRedisQueue(client, notify.WithQueueLogger(rt.named("queue")))
			worker := notify.NewWorker(queue, mailer, wait, rt.named("worker"))

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return worker.Run(ctx)
		},
	}

	cmd.Flags().DurationVar(&wait, "wait", notify.DefaultPollWait, "how long each poll blocks on the queue")

	return cmd
}
