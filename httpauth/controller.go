package httpauth

import (
	"time"

	auth "github.com/goliatone/go-auth-jwt"
	"github.com/goliatone/go-auth-jwt/middleware/jwtware"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

type ControllerRoutes struct {
	Register string
	Login    string
	Refresh  string
	Logout   string
	Activate string
	Me       string
}

// Controller exposes an auth.Authenticator over HTTP.
type Controller struct {
	Debug  bool
	Logger auth.Logger
	Auth   auth.Authenticator
	Config auth.Config
	Routes *ControllerRoutes
	now    func() time.Time

	accessExtractors []jwtware.JWTExtractor
}

// NewController returns a controller with the default routes.
func NewController(authenticator auth.Authenticator, cfg auth.Config) *Controller {
	c := &Controller{
		Logger: auth.NewLogrusLogger(nil, "httpauth"),
		Auth:   authenticator,
		Config: cfg,
		Routes: &ControllerRoutes{
			Register: "/auth/register",
			Login:    "/auth/login",
			Refresh:  "/auth/refresh",
			Logout:   "/auth/logout",
			Activate: "/auth/activate",
			Me:       "/me",
		},
		now: time.Now,
	}
	c.accessExtractors = jwtware.GetExtractors(
		"cookie:"+c.accessCookieName()+",header:"+router.HeaderAuthorization, "Bearer",
	)
	return c
}

// WithLogger sets the logger
func (a *Controller) WithLogger(logger auth.Logger) *Controller {
	if logger != nil {
		a.Logger = logger
	}
	return a
}

// WithClock overrides the clock used for cookie expiry.
func (a *Controller) WithClock(now func() time.Time) *Controller {
	if now != nil {
		a.now = now
	}
	return a
}

// RegisterRoutes mounts the controller on app.
func RegisterRoutes[T any](app router.Router[T], a *Controller) {
	app.Post(a.Routes.Register, a.Register).SetName("auth.register")
	app.Post(a.Routes.Login, a.Login).SetName("auth.login")
	app.Post(a.Routes.Refresh, a.Refresh).SetName("auth.refresh")
	app.Post(a.Routes.Logout, a.Logout).SetName("auth.logout")
	app.Get(a.Routes.Activate, a.Activate).SetName("auth.activate")
	app.Get(a.Routes.Me, a.Me).SetName("me.get")
	app.Patch(a.Routes.Me, a.UpdateMe).SetName("me.patch")
}

// Register creates an account and answers 201.
func (a *Controller) Register(ctx router.Context) error {
	payload := new(CredentialsPayload)
	if err := ctx.Bind(payload); err != nil {
		return a.badRequest(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return a.sendError(ctx, err)
	}

	res, err := a.Auth.Register(ctx.Context(), payload.Email, payload.Password)
	if err != nil {
		return a.sendError(ctx, err)
	}

	return ctx.JSON(router.StatusCreated, map[string]any{"detail": res.Message})
}

// Login sets the access and refresh cookies.
func (a *Controller) Login(ctx router.Context) error {
	payload := new(CredentialsPayload)
	if err := ctx.Bind(payload); err != nil {
		return a.badRequest(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return a.sendError(ctx, err)
	}

	pair, err := a.Auth.Login(ctx.Context(), payload.Email, payload.Password)
	if err != nil {
		return a.sendError(ctx, err)
	}

	a.cookieSet(ctx, a.accessCookieName(), pair.Access)
	a.cookieSet(ctx, a.refreshCookieName(), pair.Refresh)

	return ctx.JSON(router.StatusOK, map[string]any{"detail": "Login successful"})
}

// Refresh issues a new access cookie from the refresh cookie.
func (a *Controller) Refresh(ctx router.Context) error {
	raw := ctx.Cookies(a.refreshCookieName())
	if raw == "" {
		return a.sendError(ctx, auth.ErrTokenMissing)
	}

	access, err := a.Auth.Refresh(ctx.Context(), raw)
	if err != nil {
		return a.sendError(ctx, err)
	}

	a.cookieSet(ctx, a.accessCookieName(), *access)

	return ctx.JSON(router.StatusOK, map[string]any{"detail": "Token refreshed"})
}

// Logout clears both cookies.
func (a *Controller) Logout(ctx router.Context) error {
	stdCtx := ctx.Context()
	if raw, err := jwtware.ExtractRawTokenFromContext(ctx, a.accessExtractors); err == nil {
		if identity, err := a.Auth.CurrentIdentity(stdCtx, raw); err == nil {
			stdCtx = auth.WithIdentityContext(stdCtx, identity)
		}
	}

	if err := a.Auth.Logout(stdCtx); err != nil {
		return a.sendError(ctx, err)
	}

	a.cookieDel(ctx, a.accessCookieName())
	a.cookieDel(ctx, a.refreshCookieName())

	return ctx.JSON(router.StatusOK, map[string]any{"detail": "Logout successful"})
}

// Activate flips the account referenced by ?id= to active.
func (a *Controller) Activate(ctx router.Context) error {
	id := ctx.Query("id", "")
	if id == "" {
		return a.sendError(ctx, auth.ErrNotFound)
	}

	if err := a.Auth.Activate(ctx.Context(), id); err != nil {
		return a.sendError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{"detail": "User activated"})
}

// Me returns the current identity and profile.
func (a *Controller) Me(ctx router.Context) error {
	raw, err := jwtware.ExtractRawTokenFromContext(ctx, a.accessExtractors)
	if err != nil {
		return a.sendError(ctx, auth.ErrTokenMissing)
	}

	me, err := a.Auth.Me(ctx.Context(), raw)
	if err != nil {
		return a.sendError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, me)
}

// UpdateMe applies a partial profile update.
func (a *Controller) UpdateMe(ctx router.Context) error {
	raw, err := jwtware.ExtractRawTokenFromContext(ctx, a.accessExtractors)
	if err != nil {
		return a.sendError(ctx, auth.ErrTokenMissing)
	}

	payload := new(ProfilePayload)
	if err := ctx.Bind(payload); err != nil {
		return a.badRequest(ctx, err)
	}

	if a.Debug {
		a.Logger.Debug("profile update payload", "payload", print.MaybePrettyJSON(payload))
	}

	if err := payload.Validate(); err != nil {
		return a.sendError(ctx, err)
	}

	update, err := payload.ToUpdate()
	if err != nil {
		return a.badRequest(ctx, err)
	}

	profile, err := a.Auth.UpdateProfile(ctx.Context(), raw, update)
	if err != nil {
		return a.sendError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, profile)
}

func (a *Controller) badRequest(ctx router.Context, err error) error {
	a.Logger.Debug("failed to parse payload", "path", ctx.Path(), "error", err)
	return ctx.JSON(router.StatusBadRequest, ErrorResponse{
		Code:   "BAD_REQUEST",
		Detail: "Failed to parse request body",
	})
}

func (a *Controller) cookieSet(ctx router.Context, name string, token auth.IssuedToken) {
	maxAge := int(token.ExpiresAt.Sub(a.now()).Seconds())
	if maxAge < 1 {
		maxAge = 1
	}
	ctx.Cookie(&router.Cookie{
		Name:     name,
		Value:    token.Value,
		Path:     "/",
		MaxAge:   maxAge,
		Expires:  token.ExpiresAt,
		HTTPOnly: true,
		Secure:   a.cookieSecure(),
		SameSite: router.CookieSameSiteLaxMode,
	})
}

func (a *Controller) cookieDel(ctx router.Context, name string) {
	ctx.Cookie(&router.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Expires:  a.now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: true,
		Secure:   a.cookieSecure(),
		SameSite: router.CookieSameSiteLaxMode,
	})
}

func (a *Controller) accessCookieName() string {
	if a.Config != nil && a.Config.GetAccessCookieName() != "" {
		return a.Config.GetAccessCookieName()
	}
	return "access_token_jwt"
}

func (a *Controller) refreshCookieName() string {
	if a.Config != nil && a.Config.GetRefreshCookieName() != "" {
		return a.Config.GetRefreshCookieName()
	}
	return "refresh_token_jwt"
}

func (a *Controller) cookieSecure() bool {
	return a.Config != nil && a.Config.GetCookieSecure()
}
