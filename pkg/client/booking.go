package client

import (
	"encoding/json"
	"fmt"
	"net/url"

	"rentals/pkg/model"
)

type BookingClient struct {
	httpClient *HttpClient
}

func NewBookingClient(baseUrl string) *BookingClient {
	return &BookingClient{
		httpClient: NewHttpClient(baseUrl),
	}
}

func (c *BookingClient) Create(body any) (*Response, error) {
	return c.httpClient.POST("/api/v1/bookings", body)
}

func (c *BookingClient) CreateRaw(rawBody []byte) (*Response, error) {
	return c.httpClient.POSTRaw("/api/v1/bookings", rawBody)
}

func (c *BookingClient) GetByID(id string) (*Response, error) {
	return c.httpClient.GET("/api/v1/bookings/id/" + url.PathEscape(id))
}

func (c *BookingClient) ListByListing(listingID string, limit int, offset int64) (*Response, error) {
	path := fmt.Sprintf("/api/v1/listings/%s/bookings?limit=%d&offset=%d", url.PathEscape(listingID), limit, offset)
	return c.httpClient.GET(path)
}

func (c *BookingClient) Confirm(id string) (*Response, error) {
	return c.httpClient.POST("/api/v1/bookings/id/"+url.PathEscape(id)+"/confirm", nil)
}

func (c *BookingClient) Cancel(id string) (*Response, error) {
	return c.httpClient.POST("/api/v1/bookings/id/"+url.PathEscape(id)+"/cancel", nil)
}

func (c *BookingClient) Complete(id string) (*Response, error) {
	return c.httpClient.POST("/api/v1/bookings/id/"+url.PathEscape(id)+"/complete", nil)
}

func (c *BookingClient) DecodeBooking(resp *Response) (*model.BookingReservationDTO, error) {
	var wrapper struct {
		Data model.BookingReservationDTO `json:"data"`
	}
	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return nil, fmt.Errorf("could not decode booking:\n%+v\n%s", resp.ToString(), err)
	}
	return &wrapper.Data, nil
}

func (c *BookingClient) DecodeBookings(resp *Response) ([]model.BookingReservationDTO, *Metadata, error) {
	var wrapper struct {
		Data       []model.BookingReservationDTO `json:"data"`
		TotalCount int64                         `json:"total_count"`
		Limit      int                           `json:"limit"`
		Offset     int64                         `json:"offset"`
	}
	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return nil, nil, fmt.Errorf("could not decode paginated resp:\n%+v\n%s", resp.ToString(), err)
	}

	metadata := &Metadata{
		TotalCount: wrapper.TotalCount,
		Limit:      wrapper.Limit,
		Offset:     wrapper.Offset,
	}
	return wrapper.Data, metadata, nil
}
