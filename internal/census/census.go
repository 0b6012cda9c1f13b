// Package census looks up county broadband coverage in the American
// Community Survey.
package census

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownState is returned when a state name has no FIPS code.
	ErrUnknownState = errors.New("unknown state")

	// ErrUnknownCounty is returned when no county in the state matches.
	ErrUnknownCounty = errors.New("unknown county")

	// ErrMissingLocation is returned when state or county is blank.
	ErrMissingLocation = errors.New("state and county are required")
)

// Location names a county by its state and county names, as a user types
// them ("Rhode Island", "Kent").
type Location struct {
	State  string `json:"state"`
	County string `json:"county"`
}

// Validate reports ErrMissingLocation for blank fields.
func (l Location) Validate() error {
	if strings.TrimSpace(l.State) == "" || strings.TrimSpace(l.County) == "" {
		return ErrMissingLocation
	}
	return nil
}

func (l Location) key() string {
	return strings.ToLower(strings.TrimSpace(l.State)) + "|" + strings.ToLower(strings.TrimSpace(l.County))
}

// BroadbandData is the raw ACS table: a header row followed by one row per
// county, e.g. [["NAME","S2802_C03_022E","state","county"],
// ["Kent County, Rhode Island","91.1","44","003"]].
type BroadbandData struct {
	Rows [][]string `json:"rows"`
}

// Percent returns the broadband percentage of the first data row.
func (d BroadbandData) Percent() (string, bool) {
	if len(d.Rows) < 2 || len(d.Rows[1]) < 2 {
		return "", false
	}
	return d.Rows[1][1], true
}

// DataSource returns broadband data for a location.
type DataSource interface {
	Broadband(ctx context.Context, loc Location) (BroadbandData, error)
}

// DatasourceError reports a failed call to the census API.
type DatasourceError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *DatasourceError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("census %s: unexpected status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("census %s: %v", e.Op, e.Err)
}

func (e *DatasourceError) Unwrap() error {
	return e.Err
}
