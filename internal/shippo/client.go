package shippo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/craftchain/marketplace-service/internal/config"
	"github.com/craftchain/marketplace-service/internal/entities"

	"github.com/shopspring/decimal"
)

// Client talks to the Shippo REST API. Quoting is read-only against the
// rating service; label purchase consumes a previously quoted rate id, which
// the provider may reject as expired.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

func New(cfg config.Shippo) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
	}
}

type address struct {
	Name    string `json:"name"`
	Street1 string `json:"street1"`
	Street2 string `json:"street2,omitempty"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
}

type parcel struct {
	Length       string `json:"length"`
	Width        string `json:"width"`
	Height       string `json:"height"`
	Weight       string `json:"weight"`
	DistanceUnit string `json:"distance_unit"`
	MassUnit     string `json:"mass_unit"`
}

type shipmentRequest struct {
	AddressFrom address  `json:"address_from"`
	AddressTo   address  `json:"address_to"`
	Parcels     []parcel `json:"parcels"`
	Async       bool     `json:"async"`
}

type rate struct {
	ObjectID     string `json:"object_id"`
	Amount       string `json:"amount"`
	Currency     string `json:"currency"`
	Provider     string `json:"provider"`
	ServiceLevel struct {
		Name string `json:"name"`
	} `json:"servicelevel"`
	EstimatedDays int `json:"estimated_days"`
}

type shipmentResponse struct {
	Rates []rate `json:"rates"`
}

// GetRates creates a synchronous shipment and returns the provider-ordered
// rate list. No dedup or ranking is applied.
func (c *Client) GetRates(ctx context.Context, from, to entities.ShippingAddress, dims entities.Dimensions) ([]entities.RateOption, error) {
	reqBody := shipmentRequest{
		AddressFrom: toAPIAddress(from),
		AddressTo:   toAPIAddress(to),
		Parcels: []parcel{{
			Length:       formatDim(dims.Length),
			Width:        formatDim(dims.Width),
			Height:       formatDim(dims.Height),
			Weight:       formatDim(dims.Weight),
			DistanceUnit: "in",
			MassUnit:     "lb",
		}},
		Async: false,
	}

	var resp shipmentResponse
	if err := c.post(ctx, "/shipments/", reqBody, &resp); err != nil {
		return nil, err
	}

	options := make([]entities.RateOption, 0, len(resp.Rates))
	for _, r := range resp.Rates {
		amount, err := decimal.NewFromString(r.Amount)
		if err != nil {
			return nil, fmt.Errorf("%w: bad rate amount %q", entities.ErrShippingProvider, r.Amount)
		}
		options = append(options, entities.RateOption{
			RateID:        r.ObjectID,
			Provider:      r.Provider,
			ServiceLevel:  r.ServiceLevel.Name,
			Amount:        amount,
			Currency:      r.Currency,
			EstimatedDays: r.EstimatedDays,
		})
	}
	return options, nil
}

type transactionRequest struct {
	Rate          string `json:"rate"`
	LabelFileType string `json:"label_file_type"`
	Async         bool   `json:"async"`
}

type transactionResponse struct {
	Status              string   `json:"status"`
	TrackingNumber      string   `json:"tracking_number"`
	LabelURL            string   `json:"label_url"`
	TrackingURLProvider string   `json:"tracking_url_provider"`
	Messages            []apiMsg `json:"messages"`
}

type apiMsg struct {
	Text string `json:"text"`
}

// PurchaseLabel buys a label for a quoted rate. An expired or unknown rate id
// surfaces as a provider rejection.
func (c *Client) PurchaseLabel(ctx context.Context, rateID string) (entities.ShippingLabel, error) {
	reqBody := transactionRequest{
		Rate:          rateID,
		LabelFileType: "PDF",
		Async:         false,
	}

	var resp transactionResponse
	if err := c.post(ctx, "/transactions/", reqBody, &resp); err != nil {
		return entities.ShippingLabel{}, err
	}

	if resp.Status != "SUCCESS" {
		return entities.ShippingLabel{}, fmt.Errorf("%w: label purchase %s: %s",
			entities.ErrShippingProvider, resp.Status, joinMessages(resp.Messages))
	}

	return entities.ShippingLabel{
		TrackingNumber: resp.TrackingNumber,
		LabelURL:       resp.LabelURL,
		TrackingURL:    resp.TrackingURLProvider,
	}, nil
}

func (c *Client) post(ctx context.Context, path string, payload, dest any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "ShippoToken "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: shippo %s", entities.ErrTimeout, path)
		}
		return fmt.Errorf("%w: %v", entities.ErrShippingProvider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("%w: unexpected status %d", entities.ErrShippingProvider, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", entities.ErrShippingProvider, err)
	}
	return nil
}

func toAPIAddress(a entities.ShippingAddress) address {
	return address{
		Name:    a.Name,
		Street1: a.Street1,
		Street2: a.Street2,
		City:    a.City,
		State:   a.State,
		Zip:     a.ZIP,
		Country: a.Country,
	}
}

func formatDim(v float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
}

func joinMessages(msgs []apiMsg) string {
	parts := make([]string, 0, len(msgs))
	for _, m := range msgs {
		parts = append(parts, m.Text)
	}
	return strings.Join(parts, "; ")
}
