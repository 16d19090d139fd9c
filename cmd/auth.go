package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/litfav/internal/models"
	"github.com/desertthunder/litfav/internal/services"
	"github.com/desertthunder/litfav/internal/session"
	"github.com/urfave/cli/v3"
)

// signInNavigator sends the user back to sign-in, through the web page when configured.
type signInNavigator struct {
	r *Runner
}

func (r *Runner) navigator() services.Navigator {
	return signInNavigator{r: r}
}

func (n signInNavigator) SignIn() {
	account := n.r.config.Account
	if account.OpenBrowser && account.SignInURL != "" {
		err := n.r.openURL(account.SignInURL)
		if err == nil {
			return
		}
		n.r.logger.Warn("failed to open sign-in page", "url", account.SignInURL, "error", err)
	}
	n.r.notifier.Info("Run `litfav auth signin` to sign in again")
}

// establish stores the credentials and identity returned by sign-up or sign-in.
func (r *Runner) establish(data *models.AuthData) error {
	if err := r.session.Establish(data.Identity(), data.Tokens()); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	r.notifier.Success(fmt.Sprintf("Signed in as %s", data.Email))
	return nil
}

// AuthSignup registers a new account and signs in with it.
func (r *Runner) AuthSignup(ctx context.Context, cmd *cli.Command) error {
	if err := r.connect(); err != nil {
		return err
	}

	data, err := r.account.Signup(ctx, services.SignupRequest{
		Name:     cmd.String("name"),
		Email:    cmd.String("email"),
		Password: cmd.String("password"),
		Gender:   cmd.String("gender"),
	})
	if err != nil {
		return err
	}
	return r.establish(data)
}

// AuthSignin signs in with email and password.
func (r *Runner) AuthSignin(ctx context.Context, cmd *cli.Command) error {
	if err := r.connect(); err != nil {
		return err
	}

	email := cmd.String("email")
	r.logger.Info("signing in", "email", email)

	data, err := r.account.Signin(ctx, email, cmd.String("password"))
	if err != nil {
		return err
	}
	return r.establish(data)
}

// AuthLogout invalidates the session on the server, best effort, then clears it locally.
//
// The favorites mirror is kept so `favorites list --offline` still works.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if err := r.connect(); err != nil {
		return err
	}

	if token := r.session.AccessToken(); token != "" {
		if err := r.account.Logout(ctx, token); err != nil {
			r.logger.Warn("server logout failed", "error", err)
		}
	}

	if err := r.session.Logout(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	r.notifier.Success("Signed out")
	return nil
}

// AuthStatus shows the stored identity and when its access token expires.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if err := r.connect(); err != nil {
		return err
	}

	identity, ok := r.session.Identity()
	if !ok || !r.session.IsAuthenticated() {
		return r.writePlain("✗ Not signed in\n")
	}

	r.writePlain("✓ Signed in\n")
	r.writePlain("Name: %s\n", identity.Name)
	r.writePlain("Email: %s\n", identity.Email)

	exp, err := session.Expiry(r.session.AccessToken())
	if err != nil {
		return r.writePlain("Token: %v\n", err)
	}
	remaining := time.Until(exp).Round(time.Second)
	return r.writePlain("Token expires: %s (in %s)\n", exp.Local().Format(time.RFC1123), remaining)
}
