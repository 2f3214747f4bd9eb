// Package app wires the SDK into the dalerts example command: it registers
// the configured account with a refreshing auth provider and prints the
// account's profile and recent donations.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/streamware/donationalerts/pkg/api"
	"github.com/streamware/donationalerts/pkg/apicall"
	"github.com/streamware/donationalerts/pkg/auth"
	"github.com/streamware/donationalerts/pkg/slogx"
)

type App struct {
	cfg      Config
	logger   *slog.Logger
	provider *auth.RefreshingProvider
	client   *api.Client
}

func New(cfg Config) (*App, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.New("DA_CLIENT_ID and DA_CLIENT_SECRET must be set")
	}
	if cfg.AccessToken == "" || cfg.RefreshToken == "" {
		return nil, errors.New("DA_ACCESS_TOKEN and DA_REFRESH_TOKEN must be set")
	}

	logger := slogx.New(slogx.Config{
		Service: "dalerts",
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})

	// Trace every outbound request, auth traffic included, with the
	// correlating round-tripper.
	transport := apicall.New()
	transport.HTTPClient = &http.Client{
		Transport: &slogx.Transport{Logger: logger},
		Timeout:   10 * time.Second,
	}

	provider := auth.NewRefreshingProvider(auth.RefreshingConfig{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURI:  cfg.RedirectURI,
		Scopes:       cfg.Scopes,
		API:          transport,
		Logger:       logger,
	})

	client, err := api.NewClient(api.Config{
		AuthProvider: provider,
		ClientSecret: cfg.ClientSecret,
		Transport:    transport,
		Logger:       logger,
	})
	if err != nil {
		return nil, err
	}

	return &App{cfg: cfg, logger: logger, provider: provider, client: client}, nil
}

func (a *App) Run(ctx context.Context) error {
	defer a.client.Close()

	// A real host application would persist the rotated tokens here.
	unsubscribe := a.provider.OnRefresh(func(userID int64, token auth.AccessToken) {
		a.logger.Info("tokens rotated, update your stored credentials",
			"user_id", userID,
			"expires_in", token.ExpiresIn,
		)
	})
	defer unsubscribe()

	registered, err := a.provider.AddUserForToken(ctx, auth.AccessToken{
		AccessToken:  a.cfg.AccessToken,
		RefreshToken: a.cfg.RefreshToken,
		Scopes:       a.cfg.Scopes,
	})
	if err != nil {
		return fmt.Errorf("failed to register account: %w", err)
	}

	profile, err := a.client.Users().Get(ctx, registered.UserID)
	if err != nil {
		return fmt.Errorf("failed to fetch profile: %w", err)
	}
	a.logger.Info("authenticated", "user_id", profile.ID, "name", profile.Name)

	page, err := a.client.Donations().List(ctx, registered.UserID, 1)
	if err != nil {
		return fmt.Errorf("failed to list donations: %w", err)
	}

	fmt.Printf("%s has %d donation(s)\n", profile.Name, page.Meta.Total)
	for _, d := range page.Data {
		fmt.Printf("  %s  %-20s  %.2f %s  %s\n",
			d.CreatedAt.Format("2006-01-02 15:04"), d.Username, d.Amount, d.Currency, d.Message)
	}
	return nil
}
