package census

import "context"

// StaticSource returns the same answer for every location. It is used when
// the server runs offline and in tests.
type StaticSource struct {
	Data BroadbandData
	Err  error
}

// Broadband implements DataSource.
func (s StaticSource) Broadband(_ context.Context, loc Location) (BroadbandData, error) {
	if err := loc.Validate(); err != nil {
		return BroadbandData{}, err
	}
	if s.Err != nil {
		return BroadbandData{}, s.Err
	}
	return s.Data, nil
}
