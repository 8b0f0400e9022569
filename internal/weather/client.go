// Package weather wraps the Open-Meteo forecast API for the dashboard
// widget. Read-only; there is no write path to the provider.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"gocard/gateway/internal/config"
)

type Current struct {
	Temperature float64 `json:"temperature"`
	Windspeed   float64 `json:"windspeed"`
	WeatherCode int     `json:"weathercode"`
	IsDay       int     `json:"is_day"`
	Time        string  `json:"time"`
}

type Hourly struct {
	Time                     []string `json:"time"`
	PrecipitationProbability []int    `json:"precipitation_probability,omitempty"`
	CloudCover               []int    `json:"cloudcover,omitempty"`
}

type Daily struct {
	Time                        []string  `json:"time"`
	TemperatureMax              []float64 `json:"temperature_2m_max"`
	TemperatureMin              []float64 `json:"temperature_2m_min"`
	PrecipitationProbabilityMax []int     `json:"precipitation_probability_max,omitempty"`
}

type Forecast struct {
	CurrentWeather *Current `json:"current_weather,omitempty"`
	Hourly         *Hourly  `json:"hourly,omitempty"`
	Daily          Daily    `json:"daily"`
}

type Client struct {
	baseURL      string
	http         *http.Client
	defaultLat   float64
	defaultLon   float64
	forecastDays int
}

func NewClient(cfg config.WeatherConfig) *Client {
	return &Client{
		baseURL:      cfg.BaseURL,
		http:         &http.Client{Timeout: cfg.Timeout},
		defaultLat:   cfg.DefaultLat,
		defaultLon:   cfg.DefaultLon,
		forecastDays: cfg.ForecastDays,
	}
}

// DefaultLocation is the fallback used when the caller supplied no usable
// coordinates (geolocation denied, timed out, or unavailable).
func (c *Client) DefaultLocation() (lat, lon float64) {
	return c.defaultLat, c.defaultLon
}

// Forecast fetches current, hourly and daily fields for the coordinates.
// The request is tied to ctx so an abandoned view cancels the call.
func (c *Client) Forecast(ctx context.Context, lat, lon float64, days int) (*Forecast, error) {
	if days <= 0 {
		days = c.forecastDays
	}

	query := url.Values{
		"latitude":        {formatCoord(lat)},
		"longitude":       {formatCoord(lon)},
		"current_weather": {"true"},
		"hourly":          {"precipitation_probability,cloudcover"},
		"daily":           {"temperature_2m_max,temperature_2m_min,precipitation_probability_max"},
		"forecast_days":   {strconv.Itoa(days)},
		"timezone":        {"auto"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build weather request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch weather: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read weather response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("weather provider returned %d", resp.StatusCode)
	}

	var forecast Forecast
	if err := json.Unmarshal(body, &forecast); err != nil {
		return nil, fmt.Errorf("decode weather response: %w", err)
	}
	return &forecast, nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
