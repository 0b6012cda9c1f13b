package geo

import (
	"errors"
	"strings"
	"sync"
	"testing"

	. "gopkg.in/check.v1"
)

// Hook up gocheck into the "go test" runner.
func Test(t *testing.T) { TestingT(t) }

type GeoSuite struct {
	fc *FeatureCollection
}

var _ = Suite(&GeoSuite{})

func (s *GeoSuite) SetUpSuite(c *C) {
	fc, err := LoadFile("testdata/areas.json")
	c.Assert(err, IsNil)
	s.fc = fc
}

func names(fc *FeatureCollection) []string {
	out := make([]string, 0, len(fc.Features))
	for _, f := range fc.Features {
		out = append(out, f.Properties.Name)
	}
	return out
}

func (s *GeoSuite) TestLoadFile(c *C) {
	c.Assert(s.fc.Type, Equals, "FeatureCollection")
	c.Assert(s.fc.Features, HasLen, 4)
	c.Assert(s.fc.Features[0].Properties.HolcGrade, Equals, "A")
	c.Assert(s.fc.Features[0].Properties.AreaDescriptionData["6"], Equals, "Good transportation")
	c.Assert(s.fc.Features[2].Geometry, IsNil)
	c.Assert(s.fc.Features[0].Geometry.OuterRing(), HasLen, 5)
}

func (s *GeoSuite) TestLoadCollectionErrors(c *C) {
	_, err := LoadCollection(strings.NewReader("{not json"))
	c.Assert(err, NotNil)

	_, err = LoadFile("testdata/missing.json")
	c.Assert(err, NotNil)
}

func (s *GeoSuite) TestLoadCollectionEmpty(c *C) {
	fc, err := LoadCollection(strings.NewReader(`{"type":"FeatureCollection"}`))
	c.Assert(err, IsNil)
	c.Assert(fc.Features, NotNil)
	c.Assert(fc.Features, HasLen, 0)
}

func (s *GeoSuite) TestFilterByBox(c *C) {
	box := BoundingBox{MinLat: 41.81, MaxLat: 41.84, MinLng: -71.41, MaxLng: -71.385}
	got, err := FilterByBox(s.fc, box)
	c.Assert(err, IsNil)
	c.Assert(names(got), DeepEquals, []string{"College Hill", "No description"})
	c.Assert(got.Type, Equals, "FeatureCollection")
	c.Assert(s.fc.Features, HasLen, 4)
}

func (s *GeoSuite) TestFilterByBoxEdgesInclusive(c *C) {
	box := BoundingBox{MinLat: 41.82, MaxLat: 41.83, MinLng: -71.40, MaxLng: -71.39}
	got, err := FilterByBox(s.fc, box)
	c.Assert(err, IsNil)
	c.Assert(names(got), DeepEquals, []string{"College Hill", "No description"})
}

func (s *GeoSuite) TestFilterByBoxWholeWorld(c *C) {
	box := BoundingBox{MinLat: -90, MaxLat: 90, MinLng: -180, MaxLng: 180}
	got, err := FilterByBox(s.fc, box)
	c.Assert(err, IsNil)
	// The feature without geometry is never returned.
	c.Assert(got.Features, HasLen, 3)
}

func (s *GeoSuite) TestFilterByBoxNoMatch(c *C) {
	box := BoundingBox{MinLat: 0, MaxLat: 1, MinLng: 0, MaxLng: 1}
	got, err := FilterByBox(s.fc, box)
	c.Assert(err, IsNil)
	c.Assert(got.Features, NotNil)
	c.Assert(got.Features, HasLen, 0)
}

func (s *GeoSuite) TestBoundingBoxValidate(c *C) {
	bad := []BoundingBox{
		{MinLat: 42, MaxLat: 41, MinLng: -72, MaxLng: -71},
		{MinLat: 41, MaxLat: 42, MinLng: -71, MaxLng: -72},
		{MinLat: -91, MaxLat: 42, MinLng: -72, MaxLng: -71},
		{MinLat: 41, MaxLat: 42, MinLng: -72, MaxLng: 181},
	}
	for _, b := range bad {
		err := b.Validate()
		c.Check(errors.Is(err, ErrInvalidBoundingBox), Equals, true, Commentf("box %+v", b))

		_, err = FilterByBox(s.fc, b)
		c.Check(errors.Is(err, ErrInvalidBoundingBox), Equals, true, Commentf("box %+v", b))
	}

	c.Assert(BoundingBox{MinLat: 1, MaxLat: 1, MinLng: 2, MaxLng: 2}.Validate(), IsNil)
}

func (s *GeoSuite) TestBoundingBoxContains(c *C) {
	box := BoundingBox{MinLat: 40, MaxLat: 42, MinLng: -72, MaxLng: -70}
	c.Assert(box.Contains(41, -71), Equals, true)
	c.Assert(box.Contains(40, -72), Equals, true)
	c.Assert(box.Contains(42.01, -71), Equals, false)
	c.Assert(box.Contains(41, -69.99), Equals, false)
}

func (s *GeoSuite) TestFilterByKeyword(c *C) {
	got, err := FilterByKeyword(s.fc, "residences")
	c.Assert(err, IsNil)
	c.Assert(names(got), DeepEquals, []string{"College Hill", "Unmapped"})

	got, err = FilterByKeyword(s.fc, "industry")
	c.Assert(err, IsNil)
	c.Assert(names(got), DeepEquals, []string{"Olneyville"})

	got, err = FilterByKeyword(s.fc, "  Mill housing ")
	c.Assert(err, IsNil)
	c.Assert(names(got), DeepEquals, []string{"Olneyville"})
}

func (s *GeoSuite) TestFilterByKeywordNoMatch(c *C) {
	got, err := FilterByKeyword(s.fc, "lighthouse")
	c.Assert(err, IsNil)
	c.Assert(got.Features, NotNil)
	c.Assert(got.Features, HasLen, 0)
}

func (s *GeoSuite) TestFilterByKeywordEmpty(c *C) {
	_, err := FilterByKeyword(s.fc, "   ")
	c.Assert(errors.Is(err, ErrEmptyKeyword), Equals, true)
}

func (s *GeoSuite) TestHistoryNewestFirst(c *C) {
	h := NewHistory(2)
	c.Assert(h.Entries(), HasLen, 0)

	h.Record("a", 1)
	h.Record("b", 2)
	h.Record("c", 3)

	got := h.Entries()
	c.Assert(got, HasLen, 2)
	c.Assert(got[0].Keyword, Equals, "c")
	c.Assert(got[0].Matches, Equals, 3)
	c.Assert(got[1].Keyword, Equals, "b")
	c.Assert(got[0].At.IsZero(), Equals, false)
}

func (s *GeoSuite) TestHistoryConcurrent(c *C) {
	h := NewHistory(0)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				h.Record("k", j)
				_ = h.Entries()
			}
		}()
	}
	wg.Wait()
	c.Assert(h.Entries(), HasLen, DefaultHistorySize)
}
