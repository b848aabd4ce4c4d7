package reviews

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// PlaceReview is the slice of the Places API payload the sync cares about.
// Time doubles as the dedupe key; entries without it are skipped.
type PlaceReview struct {
	AuthorName      string `json:"author_name"`
	ProfilePhotoURL string `json:"profile_photo_url"`
	Rating          int    `json:"rating"`
	Language        string `json:"language"`
	Text            string `json:"text"`
	Time            *int64 `json:"time"`
}

// Fetcher pulls the current reviews for the configured place.
type Fetcher interface {
	FetchReviews(ctx context.Context) ([]PlaceReview, error)
}

type PlacesClient struct {
	Client  *http.Client
	BaseURL string
	APIKey  string
	PlaceID string
}

func NewPlacesClient(apiKey, placeID string) *PlacesClient {
	return &PlacesClient{
		Client:  &http.Client{Timeout: 15 * time.Second},
		BaseURL: "https://maps.googleapis.com/maps/api/place/details/json",
		APIKey:  apiKey,
		PlaceID: placeID,
	}
}

func (c *PlacesClient) FetchReviews(ctx context.Context) ([]PlaceReview, error) {
	params := url.Values{}
	params.Set("place_id", c.PlaceID)
	params.Set("fields", "reviews")
	params.Set("key", c.APIKey)
	params.Set("reviews_sort", "newest")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("places api: unexpected status %d", resp.StatusCode)
	}

	var body struct {
		Result struct {
			Reviews []PlaceReview `json:"reviews"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}

	if body.Result.Reviews == nil {
		return []PlaceReview{}, nil
	}
	return body.Result.Reviews, nil
}
