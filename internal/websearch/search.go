package websearch

import (
	"net/url"
	"strconv"

	"github.com/mitchellh/mapstructure"
)

// maxResultsPerQuery is the API limit for the num parameter.
const maxResultsPerQuery = 10

type SearchParams struct {
	Query string
	// Num is the requested result count, bounded to the API maximum.
	Num int
}

// Result is one search hit as the aggregator consumes it.
type Result struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

type searchResponse struct {
	Items []map[string]any `json:"items"`
}

// Search issues one request for the given query and returns its hits in API
// order. A query without hits returns an empty slice, not an error.
func (c *Client) Search(params *SearchParams) ([]*Result, error) {
	num := params.Num
	if num <= 0 || num > maxResultsPerQuery {
		num = maxResultsPerQuery
	}

	q := url.Values{}
	q.Set("key", c.apiKey)
	q.Set("cx", c.engineID)
	q.Set("q", params.Query)
	q.Set("num", strconv.Itoa(num))

	var response searchResponse
	if err := c.getJSON(q, &response); err != nil {
		return nil, err
	}

	var results []*Result
	cfg := &mapstructure.DecoderConfig{
		Metadata: nil,
		Result:   &results,
		TagName:  "json",
	}
	decoder, _ := mapstructure.NewDecoder(cfg)
	if err := decoder.Decode(response.Items); err != nil {
		return nil, err
	}

	return results, nil
}
