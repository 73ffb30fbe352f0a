package places

// Credentials carries the agency-scoped bearer token for one call. The client
// holds no credential state of its own.
type Credentials struct {
	Token string
}

// ListingPayload is the canonical listing submitted to the provider.
type ListingPayload struct {
	Name      string  `json:"name"`
	Street    string  `json:"street"`
	City      string  `json:"city"`
	Country   string  `json:"country"`
	Phone     string  `json:"phone"`
	Website   string  `json:"website,omitempty"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// missingFields returns the required fields absent from the payload.
func (p ListingPayload) missingFields() []string {
	var missing []string
	if p.Name == "" {
		missing = append(missing, "name")
	}
	if p.Street == "" {
		missing = append(missing, "street")
	}
	if p.City == "" {
		missing = append(missing, "city")
	}
	if p.Country == "" {
		missing = append(missing, "country")
	}
	if p.Phone == "" {
		missing = append(missing, "phone")
	}
	if p.Latitude == 0 && p.Longitude == 0 {
		missing = append(missing, "coordinates")
	}
	return missing
}

// ListingState is the provider-reported state of a listing.
type ListingState string

const (
	StatePending   ListingState = "pending"
	StateReview    ListingState = "review"
	StateLive      ListingState = "live"
	StateSuspended ListingState = "suspended"
)

// AccessResult is the outcome of a connectivity test. Well-formed provider
// responses are returned as data, never as errors.
type AccessResult struct {
	Reachable       bool   `json:"reachable"`
	Authorized      bool   `json:"authorized"`
	ProviderMessage string `json:"provider_message,omitempty"`
}

// PublishResult is the provider's response to a listing submission.
type PublishResult struct {
	ProviderListingID string       `json:"provider_listing_id"`
	State             ListingState `json:"state"`
	RawStatusCode     int          `json:"raw_status_code"`
}

// accountResponse is the JSON body of GET /v1/account.
type accountResponse struct {
	Authorized bool   `json:"authorized"`
	Message    string `json:"message,omitempty"`
}

// listingResponse is the JSON body returned for listing create and status calls.
type listingResponse struct {
	ID    string `json:"id"`
	State string `json:"state"`
}

// errorResponse is the provider's error envelope on non-2xx responses.
type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
