package client

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"rentals/pkg/model"
	"rentals/pkg/sealer"
)

type AvailabilityClient struct {
	httpClient    *HttpClient
	signingSecret string
}

// NewAvailabilityClient builds a client for the availability routes. When
// signingSecret is set, reserve and release requests are signed.
func NewAvailabilityClient(baseUrl, signingSecret string) *AvailabilityClient {
	return &AvailabilityClient{
		httpClient:    NewHttpClient(baseUrl),
		signingSecret: signingSecret,
	}
}

func listingPath(listingID, suffix string) string {
	return "/api/v1/listings/" + url.PathEscape(listingID) + suffix
}

func rangeQuery(startDate, endDate string) string {
	q := url.Values{}
	q.Set("startDate", startDate)
	q.Set("endDate", endDate)
	return "?" + q.Encode()
}

func (c *AvailabilityClient) GetListingAvailability(listingID, startDate, endDate string) (*Response, error) {
	return c.httpClient.GET(listingPath(listingID, "/availability") + rangeQuery(startDate, endDate))
}

func (c *AvailabilityClient) GetAvailableDates(listingID, startDate, endDate string) (*Response, error) {
	return c.httpClient.GET(listingPath(listingID, "/available-dates") + rangeQuery(startDate, endDate))
}

func (c *AvailabilityClient) CheckAvailability(listingID, startDate, endDate string) (*Response, error) {
	return c.httpClient.POST(listingPath(listingID, "/check-availability"), model.DateRangeDTO{
		StartDate: startDate,
		EndDate:   endDate,
	})
}

func (c *AvailabilityClient) CreateRule(listingID string, body any) (*Response, error) {
	return c.httpClient.POST(listingPath(listingID, "/availability"), body)
}

func (c *AvailabilityClient) ReserveRange(listingID, startDate, endDate, bookingID string) (*Response, error) {
	body, err := json.Marshal(map[string]string{
		"startDate": startDate,
		"endDate":   endDate,
		"bookingId": bookingID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	return c.signed(http.MethodPost, listingPath(listingID, "/reservations"), body)
}

func (c *AvailabilityClient) ReleaseRange(bookingID string) (*Response, error) {
	return c.signed(http.MethodDelete, "/api/v1/reservations/"+url.PathEscape(bookingID), nil)
}

func (c *AvailabilityClient) signed(method, path string, body []byte) (*Response, error) {
	var headers map[string]string
	if c.signingSecret != "" {
		headers = map[string]string{sealer.SignatureHeader: sealer.Sign(c.signingSecret, body)}
	}
	return c.httpClient.requestRaw(method, path, body, headers)
}

func (c *AvailabilityClient) DecodeCheckResult(resp *Response) (*model.AvailabilityCheckResult, error) {
	var wrapper struct {
		Data model.AvailabilityCheckResult `json:"data"`
	}
	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return nil, fmt.Errorf("could not decode availability result:\n%+v\n%s", resp.ToString(), err)
	}
	return &wrapper.Data, nil
}

func (c *AvailabilityClient) DecodeAvailableDates(resp *Response) (*model.AvailableDatesDTO, error) {
	var wrapper struct {
		Data model.AvailableDatesDTO `json:"data"`
	}
	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return nil, fmt.Errorf("could not decode available dates:\n%+v\n%s", resp.ToString(), err)
	}
	return &wrapper.Data, nil
}

func (c *AvailabilityClient) DecodeRules(resp *Response) ([]model.AvailabilityRuleDTO, error) {
	var wrapper struct {
		Data []model.AvailabilityRuleDTO `json:"data"`
	}
	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return nil, fmt.Errorf("could not decode rules:\n%+v\n%s", resp.ToString(), err)
	}
	return wrapper.Data, nil
}
