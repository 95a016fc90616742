package tzresolve

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/akoch8/dataVizSociety/pkg/httpcache"
)

// Maps resolves zones through the Google Timezone API. Used when an API
// key is configured; more precise than the offline tables near zone
// borders and over territorial waters.
type Maps struct {
	client *httpcache.Client
	logger *slog.Logger
	apiKey string
}

// NewMaps creates a Google Timezone API resolver. The client carries the
// retry and caching policy.
func NewMaps(apiKey string, client *httpcache.Client, logger *slog.Logger) (*Maps, error) {
	if apiKey == "" {
		return nil, errors.New("google Maps API key not configured")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Maps{apiKey: apiKey, client: client, logger: logger}, nil
}

// Resolve implements Resolver. ZERO_RESULTS means the coordinate has no
// zone and is reported as unresolved, not as an error.
func (r *Maps) Resolve(ctx context.Context, lat, lon float64) (string, error) {
	// The dataset's timestamps carry their own dates; the API timestamp
	// parameter only disambiguates DST for the API's human-readable name,
	// which we discard, so any fixed instant works.
	apiURL := fmt.Sprintf(
		"https://maps.googleapis.com/maps/api/timezone/json?location=%f,%f&timestamp=1609459200&key=%s",
		lat, lon, r.apiKey)

	body, err := r.client.Get(ctx, apiURL)
	if err != nil {
		return "", fmt.Errorf("timezone API request: %w", err)
	}

	var result struct {
		TimeZoneID   string `json:"timeZoneId"`
		Status       string `json:"status"`
		ErrorMessage string `json:"error_message"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("parsing timezone API response: %w", err)
	}

	switch result.Status {
	case "OK":
		return result.TimeZoneID, nil
	case "ZERO_RESULTS":
		r.logger.Debug("no zone for coordinates", "lat", lat, "lon", lon)
		return "", nil
	default:
		if result.ErrorMessage != "" {
			return "", fmt.Errorf("timezone API failed: %s", result.ErrorMessage)
		}
		return "", fmt.Errorf("timezone API failed with status: %s", result.Status)
	}
}
