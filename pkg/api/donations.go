package api

import (
	"context"
	"net/url"
	"strconv"

	"github.com/streamware/donationalerts/pkg/apicall"
	"github.com/streamware/donationalerts/pkg/auth"
)

// DonationsAPI accesses the authorized user's donation history.
type DonationsAPI struct {
	client *Client
}

// List fetches one page of donations, newest first. Page numbers start at 1;
// zero fetches the first page.
func (a *DonationsAPI) List(ctx context.Context, user any, page int) (Page[Donation], error) {
	opts := apicall.CallOptions{
		URL:   "alerts/donations",
		Scope: auth.ScopeDonationIndex,
	}
	if page > 1 {
		opts.Query = url.Values{"page": {strconv.Itoa(page)}}
	}
	return Call[Page[Donation]](ctx, a.client, user, opts)
}

// NewPaginator returns a paginator over the user's donations.
func (a *DonationsAPI) NewPaginator(user any) *Paginator[Donation] {
	return newPaginator(func(ctx context.Context, page int) (Page[Donation], error) {
		return a.List(ctx, user, page)
	})
}

// All fetches the user's complete donation history.
func (a *DonationsAPI) All(ctx context.Context, user any) ([]Donation, error) {
	return a.NewPaginator(user).GetAll(ctx)
}
