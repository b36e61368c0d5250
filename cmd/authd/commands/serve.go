package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	auth "github.com/goliatone/go-auth-jwt"
	"github.com/goliatone/go-auth-jwt/httpauth"
	"github.com/goliatone/go-auth-jwt/middleware/jwtware"
	"github.com/goliatone/go-auth-jwt/notify"
	"github.com/goliatone/go-router"
	"github.com/spf13/cobra"
)

func newServeCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Args:  cobra.NoArgs,
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := load(*configPath)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), rt)
		},
	}
}

func serve(ctx context.Context, rt *runtime) error {
	db, err := rt.openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	tokens, validator, err := rt.tokens()
	if err != nil {
		return err
	}

	var repoOpts []auth.IdentityRepositoryOption
	if rt.opts.HashidIdentities {
		repoOpts = append(repoOpts, auth.WithHashidIdentities())
	}
	repos := auth.NewRepositoryManager(db, repoOpts...)
	if err := repos.Validate(); err != nil {
		return err
	}
	store := repos.Identities()

	var hasherOpts []auth.HasherOption
	if rt.opts.HashCost > 0 {
		hasherOpts = append(hasherOpts, auth.WithHashCost(rt.opts.HashCost))
	}

	authenticator := auth.NewAuthenticator(store, tokens).
		WithLogger(rt.named("auth")).
		WithHasher(auth.NewBcryptHasher(hasherOpts...)).
		WithActivitySink(rt.activitySink())

	if rt.opts.IdempotentActivation {
		authenticator = authenticator.WithIdempotentActivation()
	}

	if rt.opts.Mail.Async {
		mailer, err := rt.mailer()
		if err != nil {
			return err
		}
		dispatcher := notify.NewDispatcher(notify.DispatcherConfig{
			BufferSize: rt.opts.Mail.BufferSize,
			DropIfFull: true,
		}, mailer, rt.named("dispatcher"))
		defer dispatcher.Close()
		authenticator = authenticator.WithNotifier(dispatcher)
	} else {
		client, err := rt.openRedis()
		if err != nil {
			return err
		}
		defer client.Close()
		authenticator = authenticator.WithNotifier(notify.NewRedisQueue(client, notify.WithQueueLogger(rt.named("queue"))))
	}

	srv := router.NewFiberAdapter(func(*fiber.App) *fiber.App {
		return fiber.New(fiber.Config{
			DisableStartupMessage: true,
			UnescapePath:          true,
		})
	})
	api := srv.Router()

	controller := httpauth.NewController(authenticator, rt.opts).WithLogger(rt.named("http"))
	httpauth.RegisterRoutes(api, controller)

	api.Get("/auth/session", func(ctx router.Context) error {
		claims, _ := jwtware.GetClaims(ctx)
		return ctx.JSON(router.StatusOK, map[string]any{
			"sub":        claims.Subject(),
			"email":      claims.Email(),
			"expires_at": claims.Expires(),
		})
	}, jwtware.New(jwtware.Config{
		TokenValidator: validator,
		TokenLookup:    "cookie:" + rt.opts.GetAccessCookieName() + ",header:" + router.HeaderAuthorization,
	})).SetName("auth.session")

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		rt.logger.Info("http server listening", "addr", rt.opts.ListenAddr)
		errc <- srv.Serve(rt.opts.ListenAddr)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	rt.logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
