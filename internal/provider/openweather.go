package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/KaanIpek/weather-api/internal/config"
	"github.com/KaanIpek/weather-api/internal/types"
)

// ForecastRecord is one raw forecast sample as reported by the provider,
// reduced to the fields the ingestion layer stores. The provider returns
// several samples per day; no aggregation happens here.
type ForecastRecord struct {
	Date         types.CivilDate
	TemperatureC float64
}

// ForecastFetcher is the surface the ingestion service depends on.
type ForecastFetcher interface {
	FetchForecast(ctx context.Context, cityName string) ([]ForecastRecord, error)
}

// OpenWeatherClient fetches 5-day forecasts from the OpenWeatherMap API.
type OpenWeatherClient struct {
	*Client
	baseURL string
	apiKey  types.SecretString
}

// NewOpenWeatherClient builds the adapter from provider configuration. The
// API key is allowed to be unset at construction time; FetchForecast rejects
// calls without one the same way the upstream would.
func NewOpenWeatherClient(cfg config.ProviderConfig, opts ...ClientOption) *OpenWeatherClient {
	httpClient := &http.Client{Timeout: cfg.Timeout}
	retryPolicy := RetryPolicy{
		MaxRetries: cfg.MaxRetries,
		MinWait:    cfg.RetryMin,
		MaxWait:    cfg.RetryMax,
	}
	return &OpenWeatherClient{
		Client:  NewClient(httpClient, "openweathermap", retryPolicy, "weather-api/1.0", opts...),
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
	}
}

// forecastResponse mirrors the subset of the OpenWeatherMap /forecast payload
// the adapter consumes.
type forecastResponse struct {
	List []forecastEntry `json:"list"`
}

type forecastEntry struct {
	DtTxt string `json:"dt_txt"`
	Main  struct {
		Temp *float64 `json:"temp"`
	} `json:"main"`
}

// FetchForecast retrieves the forecast for a city and returns one record per
// provider sample. Temperatures are always requested in metric units; any
// unit conversion happens downstream at write time.
//
// Error mapping: transport failures, timeouts, and an open breaker surface as
// upstream_provider_unavailable; a non-2xx upstream status surfaces as
// upstream_provider_rejected carrying the status and a body excerpt; a payload
// missing the expected fields surfaces as upstream_provider_malformed.
func (c *OpenWeatherClient) FetchForecast(ctx context.Context, cityName string) ([]ForecastRecord, error) {
	if !c.apiKey.IsSet() {
		// The upstream would answer 401 for a missing appid; short-circuit
		// without spending a network round trip or a breaker failure.
		return nil, types.NewProviderRejected(http.StatusUnauthorized, "no API key configured")
	}

	reqURL, err := c.buildURL(cityName)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalUnexpected, "failed to build forecast URL", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalUnexpected, "failed to build forecast request", err)
	}

	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, types.NewProviderRejected(resp.StatusCode, string(body))
	}

	var payload forecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, types.NewAppError(
			types.ErrCodeProviderMalformed,
			"forecast payload is not valid JSON",
			err,
		)
	}
	if payload.List == nil {
		return nil, types.NewAppError(
			types.ErrCodeProviderMalformed,
			"forecast payload is missing the list field",
			nil,
		)
	}

	records := make([]ForecastRecord, 0, len(payload.List))
	for i, entry := range payload.List {
		if entry.DtTxt == "" {
			return nil, types.NewAppError(
				types.ErrCodeProviderMalformed,
				fmt.Sprintf("forecast entry %d is missing dt_txt", i),
				nil,
			)
		}
		if entry.Main.Temp == nil {
			return nil, types.NewAppError(
				types.ErrCodeProviderMalformed,
				fmt.Sprintf("forecast entry %d is missing main.temp", i),
				nil,
			)
		}
		date, err := parseForecastDate(entry.DtTxt)
		if err != nil {
			return nil, types.NewAppError(
				types.ErrCodeProviderMalformed,
				fmt.Sprintf("forecast entry %d has unparseable dt_txt %q", i, entry.DtTxt),
				err,
			)
		}
		records = append(records, ForecastRecord{
			Date:         date,
			TemperatureC: *entry.Main.Temp,
		})
	}

	return records, nil
}

func (c *OpenWeatherClient) buildURL(cityName string) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("q", cityName)
	q.Set("appid", c.apiKey.Unmask())
	q.Set("units", "metric")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// parseForecastDate extracts the calendar date from a provider timestamp like
// "2024-06-14 12:00:00". The time-of-day portion is discarded; every sample
// of a day lands on the same date.
func parseForecastDate(dtTxt string) (types.CivilDate, error) {
	if len(dtTxt) < 10 {
		return types.CivilDate{}, fmt.Errorf("timestamp %q is too short", dtTxt)
	}
	return types.ParseCivilDate(dtTxt[:10])
}
