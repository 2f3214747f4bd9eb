package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/streamware/donationalerts/pkg/apicall"
	"github.com/streamware/donationalerts/pkg/userx"
)

// MerchandiseAPI manages merchandise items and sale alerts. All requests are
// signed with the client secret configured on the Client.
type MerchandiseAPI struct {
	client *Client
}

// MerchandiseData describes a merchandise item to create or update.
type MerchandiseData struct {
	// MerchantIdentifier names the merchant registered with Donation
	// Alerts.
	MerchantIdentifier string

	// Identifier is the merchant's own ID for the item.
	Identifier string

	// Title maps locale codes (e.g. "en_US") to item titles.
	Title map[string]string

	IsActive     bool
	IsPercentage bool
	Currency     string
	PriceUser    float64
	PriceService float64

	// URL of the item's web page. The {user_id} and {user_merchandise_promocode}
	// placeholders are substituted by the platform.
	URL string

	ImgURL string

	// EndTimestamp is the unix time the sale ends, if any.
	EndTimestamp *int64
}

func (d MerchandiseData) params() map[string]any {
	params := map[string]any{
		"merchant_identifier":    d.MerchantIdentifier,
		"merchandise_identifier": d.Identifier,
		"is_active":              boolToInt(d.IsActive),
		"is_percentage":          boolToInt(d.IsPercentage),
		"currency":               d.Currency,
		"price_user":             d.PriceUser,
		"price_service":          d.PriceService,
	}
	if len(d.Title) > 0 {
		params["title"] = d.Title
	}
	if d.URL != "" {
		params["url"] = d.URL
	}
	if d.ImgURL != "" {
		params["img_url"] = d.ImgURL
	}
	if d.EndTimestamp != nil {
		params["end_at_ts"] = *d.EndTimestamp
	}
	return params
}

// MerchandiseSaleData describes a sale alert to send.
type MerchandiseSaleData struct {
	// ExternalID deduplicates sale alerts; reusing an ID does not create
	// a second alert.
	ExternalID string

	MerchantIdentifier string
	Identifier         string
	Amount             float64
	Currency           string
	BoughtAmount       int
	Username           string
	Message            string
}

// Create registers a new merchandise item.
func (a *MerchandiseAPI) Create(ctx context.Context, user any, data MerchandiseData) (Merchandise, error) {
	return a.submit(ctx, user, http.MethodPost, "merchandise", data.params())
}

// Update modifies an existing merchandise item by its Donation Alerts ID.
func (a *MerchandiseAPI) Update(ctx context.Context, user any, merchandiseID int64, data MerchandiseData) (Merchandise, error) {
	url := "merchandise/" + strconv.FormatInt(merchandiseID, 10)
	return a.submit(ctx, user, http.MethodPut, url, data.params())
}

// CreateOrUpdate upserts a merchandise item keyed by the merchant and item
// identifiers.
func (a *MerchandiseAPI) CreateOrUpdate(ctx context.Context, user any, data MerchandiseData) (Merchandise, error) {
	url := "merchandise_promo/" + data.MerchantIdentifier + "/" + data.Identifier
	return a.submit(ctx, user, http.MethodPut, url, data.params())
}

// SendSaleAlert notifies the user's widget of a merchandise sale.
func (a *MerchandiseAPI) SendSaleAlert(ctx context.Context, user any, sale MerchandiseSaleData) (MerchandiseSale, error) {
	userID, err := userx.ExtractID(user)
	if err != nil {
		return MerchandiseSale{}, err
	}

	params := map[string]any{
		"user_id":                userID,
		"external_id":            sale.ExternalID,
		"merchant_identifier":    sale.MerchantIdentifier,
		"merchandise_identifier": sale.Identifier,
		"amount":                 sale.Amount,
		"currency":               sale.Currency,
		"bought_amount":          sale.BoughtAmount,
	}
	if sale.Username != "" {
		params["username"] = sale.Username
	}
	if sale.Message != "" {
		params["message"] = sale.Message
	}
	params["signature"] = signRequest(params, a.client.secret)

	resp, err := Call[DataResponse[MerchandiseSale]](ctx, a.client, user, apicall.CallOptions{
		URL:      "merchandise_sale",
		Method:   http.MethodPost,
		FormBody: formValues(params),
	})
	if err != nil {
		return MerchandiseSale{}, err
	}
	return resp.Data, nil
}

func (a *MerchandiseAPI) submit(ctx context.Context, user any, method, path string, params map[string]any) (Merchandise, error) {
	params["signature"] = signRequest(params, a.client.secret)

	resp, err := Call[DataResponse[Merchandise]](ctx, a.client, user, apicall.CallOptions{
		URL:      path,
		Method:   method,
		FormBody: formValues(params),
	})
	if err != nil {
		return Merchandise{}, err
	}
	return resp.Data, nil
}

// formValues renders the signed parameter map as a form body. Nested maps
// (the localized title) use bracketed keys, and scalars are stringified the
// same way the signature input is.
func formValues(params map[string]any) url.Values {
	form := url.Values{}
	for key, value := range params {
		switch v := value.(type) {
		case map[string]string:
			for sub, item := range v {
				form.Set(key+"["+sub+"]", item)
			}
		default:
			form.Set(key, stringifyParam(v))
		}
	}
	return form
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
