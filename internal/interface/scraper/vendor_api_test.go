package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var vendorNow = time.Date(2025, time.March, 11, 12, 0, 0, 0, time.UTC)

// vendorFixture serves a small but complete vendor API: two films, two
// days, one expired and one already-past showing mixed in
func vendorFixture(t *testing.T, filmFetches *int32) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/venues/rv-hackney/scheduled-films", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"filmIds": ["f-1", "f-2", "f-1"]}`)
	})
	mux.HandleFunc("/v1/films/f-1", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(filmFetches, 1)
		fmt.Fprint(w, `{"id": "f-1", "title": "The Third Man", "releaseYear": 1949, "format": "35mm"}`)
	})
	mux.HandleFunc("/v1/films/f-2", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(filmFetches, 1)
		fmt.Fprint(w, `{"id": "f-2", "title": "Stalker", "releaseYear": 1979, "format": "2D"}`)
	})
	mux.HandleFunc("/v1/venues/rv-hackney/schedule", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2025-03-11", r.URL.Query().Get("from"))
		assert.Equal(t, "2025-06-09", r.URL.Query().Get("to"))
		fmt.Fprint(w, `{
			"days": [
				{
					"date": "2025-03-11",
					"films": [
						{
							"filmId": "f-1",
							"showings": [
								{"time": "10:00", "screen": "1", "bookingUrl": "https://example.com/past"},
								{"time": "20:30", "screen": "1", "bookingUrl": "https://example.com/1", "attributes": ["audio_described"]},
								{"time": "22:00", "screen": "2", "bookingUrl": "https://example.com/2", "expired": true}
							]
						}
					]
				},
				{
					"date": "2025-03-12",
					"films": [
						{
							"filmId": "f-2",
							"showings": [
								{"time": "18:15", "screen": "3", "bookingUrl": "https://example.com/3"}
							]
						},
						{
							"filmId": "f-unknown",
							"showings": [
								{"time": "19:00", "screen": "1", "bookingUrl": "https://example.com/4"}
							]
						}
					]
				}
			]
		}`)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newVendorScraper(server *httptest.Server) *VendorAPIScraper {
	s := NewVendorAPIScraper(ScraperConfig{
		ScraperID:  "regalview-hackney",
		CinemaSlug: "regalview-hackney",
		BaseURL:    server.URL,
	}, "rv-hackney", 90, server.Client(), time.UTC, nopLogger{})
	s.now = func() time.Time { return vendorNow }
	return s
}

func TestVendorAPIScrapeFlattensSchedule(t *testing.T) {
	var filmFetches int32
	server := vendorFixture(t, &filmFetches)
	s := newVendorScraper(server)

	screenings, err := s.Scrape(context.Background())
	require.NoError(t, err)

	// expired, already-past, and unknown-film showings are all dropped
	require.Len(t, screenings, 2)

	first := screenings[0]
	assert.Equal(t, "The Third Man", first.Title)
	assert.Equal(t, 1949, first.Year)
	assert.Equal(t, "35mm", first.Format)
	assert.Equal(t, "1", first.Screen)
	assert.Equal(t, "f-1:2025-03-11:20:30", first.SourceID)
	assert.Equal(t, []string{"audio_described"}, first.Accessibility)
	assert.Equal(t, time.Date(2025, time.March, 11, 20, 30, 0, 0, time.UTC), first.StartsAt)

	second := screenings[1]
	assert.Equal(t, "Stalker", second.Title)
	assert.Equal(t, time.Date(2025, time.March, 12, 18, 15, 0, 0, time.UTC), second.StartsAt)
}

func TestVendorAPIFilmMetadataFetchedOncePerFilm(t *testing.T) {
	var filmFetches int32
	server := vendorFixture(t, &filmFetches)
	s := newVendorScraper(server)

	_, err := s.Scrape(context.Background())
	require.NoError(t, err)

	// the film list repeats f-1 but the cache dedupes the fetch
	assert.Equal(t, int32(2), atomic.LoadInt32(&filmFetches))
}

func TestVendorAPIScrapeFailsOnListError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	s := NewVendorAPIScraper(ScraperConfig{
		CinemaSlug: "regalview-hackney",
		BaseURL:    server.URL,
	}, "rv-hackney", 90, server.Client(), time.UTC, nopLogger{})

	_, err := s.Scrape(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to enumerate scheduled films")
}

func TestVendorAPIScrapeSurvivesSingleFilmFetchFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/venues/rv-hackney/scheduled-films", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"filmIds": ["f-1", "f-broken"]}`)
	})
	mux.HandleFunc("/v1/films/f-1", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id": "f-1", "title": "The Third Man", "releaseYear": 1949}`)
	})
	mux.HandleFunc("/v1/films/f-broken", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	mux.HandleFunc("/v1/venues/rv-hackney/schedule", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"days": [{"date": "2025-03-12", "films": [
			{"filmId": "f-1", "showings": [{"time": "19:00", "bookingUrl": "https://example.com/1"}]},
			{"filmId": "f-broken", "showings": [{"time": "20:00", "bookingUrl": "https://example.com/2"}]}
		]}]}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	s := newVendorScraper(server)

	screenings, err := s.Scrape(context.Background())
	require.NoError(t, err, "one film's metadata failure must not abort the run")
	require.Len(t, screenings, 1)
	assert.Equal(t, "The Third Man", screenings[0].Title)
}
