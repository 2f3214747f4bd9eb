package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/streamware/donationalerts/pkg/apicall"
	"github.com/streamware/donationalerts/pkg/auth"
)

// CustomAlertsAPI sends alerts through a streamer's custom alerts widget.
type CustomAlertsAPI struct {
	client *Client
}

// CustomAlertRequest describes an alert to send. All fields except one of
// Header or Message are optional.
type CustomAlertRequest struct {
	// ExternalID deduplicates alerts on the Donation Alerts side; sending
	// the same ID twice does not produce a second alert.
	ExternalID string

	Header   string
	Message  string
	ImageURL string
	SoundURL string

	// ShouldShow controls whether the widget displays the alert. Nil
	// leaves the platform default.
	ShouldShow *bool
}

// Send creates a custom alert in the user's widget.
func (a *CustomAlertsAPI) Send(ctx context.Context, user any, alert CustomAlertRequest) (CustomAlert, error) {
	form := url.Values{}
	if alert.ExternalID != "" {
		form.Set("external_id", alert.ExternalID)
	}
	if alert.Header != "" {
		form.Set("header", alert.Header)
	}
	if alert.Message != "" {
		form.Set("message", alert.Message)
	}
	if alert.ImageURL != "" {
		form.Set("image_url", alert.ImageURL)
	}
	if alert.SoundURL != "" {
		form.Set("sound_url", alert.SoundURL)
	}
	if alert.ShouldShow != nil {
		// The wire field tracks whether the alert was already shown, so
		// it is the inverse of "should show".
		if *alert.ShouldShow {
			form.Set("is_shown", "0")
		} else {
			form.Set("is_shown", "1")
		}
	}

	resp, err := Call[DataResponse[CustomAlert]](ctx, a.client, user, apicall.CallOptions{
		URL:      "custom_alert",
		Method:   http.MethodPost,
		FormBody: form,
		Scope:    auth.ScopeCustomAlertStore,
	})
	if err != nil {
		return CustomAlert{}, err
	}
	return resp.Data, nil
}
