// Package websearch is a client for the Google Programmable Search JSON API.
package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

const (
	apiURL    = "https://www.googleapis.com/customsearch/v1"
	userAgent = "sharphuman/hr-passive-cv"
)

type Client struct {
	// ctx is used only for http requests right now.
	ctx      context.Context
	apiKey   string
	engineID string
	logger   *zap.Logger

	HTTPClient *http.Client
	UserAgent  string
	APIURL     string
}

func New(ctx context.Context, logger *zap.Logger, apiKey, engineID string) *Client {
	return &Client{
		ctx:      ctx,
		apiKey:   apiKey,
		engineID: engineID,
		logger:   logger,
		APIURL:   apiURL,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		UserAgent: userAgent,
	}
}

func (c *Client) getJSON(q url.Values, target interface{}) error {
	req, err := http.NewRequestWithContext(c.ctx, http.MethodGet, c.APIURL, nil)
	if err != nil {
		return err
	}

	req.Header.Set("User-Agent", c.UserAgent)
	req.URL.RawQuery = q.Encode()

	c.logger.Debug("make request", zap.String("url", req.URL.Redacted()))

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bad status: %s", resp.Status)
	}

	if target == nil {
		return nil
	}

	return json.Unmarshal(data, target)
}
