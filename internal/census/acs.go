package census

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultBaseURL is the public census data API.
const DefaultBaseURL = "https://api.census.gov/data"

const broadbandVariable = "S2802_C03_022E"

// ACSClient queries the census API. State codes are fetched once; county
// codes are fetched once per state. Concurrent first lookups share a single
// request.
type ACSClient struct {
	baseURL string
	apiKey  string
	http    *http.Client

	group singleflight.Group

	mu       sync.RWMutex
	states   map[string]string
	counties map[string][]county
}

type county struct {
	name string // lower-case, e.g. "kent county, rhode island"
	code string
}

// ACSOption configures an ACSClient.
type ACSOption func(*ACSClient)

// WithBaseURL points the client at another API root.
func WithBaseURL(u string) ACSOption {
	return func(c *ACSClient) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithAPIKey adds a census API key to every request.
func WithAPIKey(key string) ACSOption {
	return func(c *ACSClient) { c.apiKey = key }
}

// WithHTTPClient replaces the default client.
func WithHTTPClient(hc *http.Client) ACSOption {
	return func(c *ACSClient) { c.http = hc }
}

// NewACSClient returns a client for the public API.
func NewACSClient(opts ...ACSOption) *ACSClient {
	c := &ACSClient{
		baseURL:  DefaultBaseURL,
		http:     &http.Client{Timeout: 15 * time.Second},
		counties: make(map[string][]county),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Broadband resolves loc to FIPS codes and fetches its broadband percentage.
func (c *ACSClient) Broadband(ctx context.Context, loc Location) (BroadbandData, error) {
	if err := loc.Validate(); err != nil {
		return BroadbandData{}, err
	}

	stateCode, err := c.StateCode(ctx, loc.State)
	if err != nil {
		return BroadbandData{}, err
	}
	countyCode, err := c.CountyCode(ctx, stateCode, loc.County)
	if err != nil {
		return BroadbandData{}, err
	}

	q := url.Values{}
	q.Set("get", "NAME,"+broadbandVariable)
	q.Set("for", "county:"+countyCode)
	q.Set("in", "state:"+stateCode)

	var rows [][]string
	if err := c.get(ctx, "broadband", "/2021/acs/acs1/subject/variables", q, &rows); err != nil {
		return BroadbandData{}, err
	}
	return BroadbandData{Rows: rows}, nil
}

// StateCode returns the FIPS code for a state name, case-insensitively.
func (c *ACSClient) StateCode(ctx context.Context, name string) (string, error) {
	states, err := c.loadStates(ctx)
	if err != nil {
		return "", err
	}
	code, ok := states[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownState, name)
	}
	return code, nil
}

// CountyCode returns the code of the county in stateCode whose name matches.
// An exact name ("kent" or "kent county") wins; otherwise the first county
// whose name contains the input is used.
func (c *ACSClient) CountyCode(ctx context.Context, stateCode, name string) (string, error) {
	counties, err := c.loadCounties(ctx, stateCode)
	if err != nil {
		return "", err
	}

	want := strings.ToLower(strings.TrimSpace(name))
	partial := ""
	for _, ct := range counties {
		short, _, _ := strings.Cut(ct.name, ",")
		if short == want || short == want+" county" {
			return ct.code, nil
		}
		if partial == "" && strings.Contains(ct.name, want) {
			partial = ct.code
		}
	}
	if partial == "" {
		return "", fmt.Errorf("%w: %q", ErrUnknownCounty, name)
	}
	return partial, nil
}

func (c *ACSClient) loadStates(ctx context.Context) (map[string]string, error) {
	c.mu.RLock()
	states := c.states
	c.mu.RUnlock()
	if states != nil {
		return states, nil
	}

	v, err, _ := c.group.Do("states", func() (any, error) {
		q := url.Values{}
		q.Set("get", "NAME")
		q.Set("for", "state:*")

		var rows [][]string
		if err := c.get(ctx, "states", "/2010/dec/sf1", q, &rows); err != nil {
			return nil, err
		}

		m := make(map[string]string, len(rows))
		for i, row := range rows {
			if i == 0 || len(row) < 2 {
				continue
			}
			m[strings.ToLower(row[0])] = row[1]
		}

		c.mu.Lock()
		c.states = m
		c.mu.Unlock()
		return m, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(map[string]string), nil
}

func (c *ACSClient) loadCounties(ctx context.Context, stateCode string) ([]county, error) {
	c.mu.RLock()
	list, ok := c.counties[stateCode]
	c.mu.RUnlock()
	if ok {
		return list, nil
	}

	v, err, _ := c.group.Do("counties:"+stateCode, func() (any, error) {
		q := url.Values{}
		q.Set("get", "NAME")
		q.Set("for", "county:*")
		q.Set("in", "state:"+stateCode)

		var rows [][]string
		if err := c.get(ctx, "counties", "/2010/dec/sf1", q, &rows); err != nil {
			return nil, err
		}

		list := make([]county, 0, len(rows))
		for i, row := range rows {
			if i == 0 || len(row) < 3 {
				continue
			}
			list = append(list, county{name: strings.ToLower(row[0]), code: row[2]})
		}

		c.mu.Lock()
		c.counties[stateCode] = list
		c.mu.Unlock()
		return list, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]county), nil
}

func (c *ACSClient) get(ctx context.Context, op, path string, q url.Values, out any) error {
	if c.apiKey != "" {
		q.Set("key", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return &DatasourceError{Op: op, Err: err}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &DatasourceError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &DatasourceError{Op: op, StatusCode: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &DatasourceError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
