package api

import (
	"fmt"
	"strings"
	"time"
)

// timeLayout is the timestamp format the Donation Alerts API uses.
const timeLayout = "2006-01-02 15:04:05"

// Time wraps time.Time with the Donation Alerts JSON timestamp format.
type Time struct {
	time.Time
}

func (t Time) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.Format(timeLayout) + `"`), nil
}

func (t *Time) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := time.Parse(timeLayout, s)
	if err != nil {
		return fmt.Errorf("failed to parse timestamp %q: %w", s, err)
	}
	t.Time = parsed
	return nil
}

// DataResponse is the single-object envelope the API wraps results in.
type DataResponse[T any] struct {
	Data T `json:"data"`
}

// Meta describes the pagination state of a list response.
type Meta struct {
	CurrentPage int    `json:"current_page"`
	From        *int   `json:"from"`
	LastPage    int    `json:"last_page"`
	Path        string `json:"path"`
	PerPage     int    `json:"per_page"`
	To          *int   `json:"to"`
	Total       int    `json:"total"`
}

// Links carries the pagination navigation URLs of a list response.
type Links struct {
	First string  `json:"first"`
	Last  string  `json:"last"`
	Prev  *string `json:"prev"`
	Next  *string `json:"next"`
}

// Page is the paginated list envelope.
type Page[T any] struct {
	Data  []T   `json:"data"`
	Links Links `json:"links"`
	Meta  Meta  `json:"meta"`
}

// User is the authorized user's profile.
type User struct {
	ID                    int64  `json:"id"`
	Code                  string `json:"code"`
	Name                  string `json:"name"`
	Avatar                string `json:"avatar"`
	Email                 string `json:"email"`
	Language              string `json:"language"`
	SocketConnectionToken string `json:"socket_connection_token"`
}

// UserID lets a fetched profile be passed back as a user argument.
func (u User) UserID() int64 { return u.ID }

// Donation is a single donation alert.
type Donation struct {
	ID                   int64   `json:"id"`
	Name                 string  `json:"name"`
	Username             string  `json:"username"`
	MessageType          string  `json:"message_type"`
	Message              string  `json:"message"`
	Amount               float64 `json:"amount"`
	Currency             string  `json:"currency"`
	AmountInUserCurrency float64 `json:"amount_in_user_currency"`
	IsShown              int     `json:"is_shown"`
	CreatedAt            Time    `json:"created_at"`
	ShownAt              *Time   `json:"shown_at"`
}

// CustomAlert is an alert sent through the custom alerts widget.
type CustomAlert struct {
	ID         int64  `json:"id"`
	ExternalID string `json:"external_id"`
	Header     string `json:"header"`
	Message    string `json:"message"`
	ImageURL   string `json:"image_url"`
	SoundURL   string `json:"sound_url"`
	IsShown    int    `json:"is_shown"`
	CreatedAt  Time   `json:"created_at"`
	ShownAt    *Time  `json:"shown_at"`
}

// CentrifugoChannel is a private channel with its connection token, as
// returned by the subscription endpoint.
type CentrifugoChannel struct {
	Channel string `json:"channel"`
	Token   string `json:"token"`
}

// Merchant identifies a registered merchant.
type Merchant struct {
	Identifier string `json:"identifier"`
	Name       string `json:"name"`
}

// Merchandise is an item offered for sale through a streamer.
type Merchandise struct {
	ID           int64             `json:"id"`
	Merchant     Merchant          `json:"merchant"`
	Identifier   string            `json:"identifier"`
	Title        map[string]string `json:"title"`
	IsActive     int               `json:"is_active"`
	IsPercentage int               `json:"is_percentage"`
	Currency     string            `json:"currency"`
	PriceUser    float64           `json:"price_user"`
	PriceService float64           `json:"price_service"`
	URL          string            `json:"url"`
	ImgURL       string            `json:"img_url"`
	EndTimestamp *int64            `json:"end_at_ts"`
}

// MerchandiseSale is a sale alert shown on a streamer's widget.
type MerchandiseSale struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	ExternalID   string  `json:"external_id"`
	Username     string  `json:"username"`
	Message      string  `json:"message"`
	Amount       float64 `json:"amount"`
	Currency     string  `json:"currency"`
	BoughtAmount int     `json:"bought_amount"`
	CreatedAt    Time    `json:"created_at"`
	IsShown      int     `json:"is_shown"`
	ShownAt      *Time   `json:"shown_at"`
}
