package httputil

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPagination(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		page      int
		perPage   int
		total     int
		wantPages int
		wantNext  bool
		wantPrev  bool
	}{
		{"empty result", 1, 10, 0, 0, false, false},
		{"single partial page", 1, 10, 7, 1, false, false},
		{"exact boundary", 1, 10, 20, 2, true, false},
		{"middle page", 2, 10, 35, 4, true, true},
		{"last page", 4, 10, 35, 4, false, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := NewPagination(tt.page, tt.perPage, tt.total)
			assert.Equal(t, tt.wantPages, p.Pages)
			assert.Equal(t, tt.wantNext, p.HasNext)
			assert.Equal(t, tt.wantPrev, p.HasPrev)
			assert.Equal(t, tt.total, p.Total)
		})
	}
}

func TestParsePagination(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		query       string
		wantPage    int
		wantPerPage int
	}{
		{"defaults", "", 1, 20},
		{"explicit", "page=3&per_page=50", 3, 50},
		{"zero page clamps", "page=0", 1, 20},
		{"negative page clamps", "page=-5", 1, 20},
		{"per_page over max falls back", "per_page=1000", 1, 20},
		{"non-numeric ignored", "page=abc&per_page=xyz", 1, 20},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := httptest.NewRequest("GET", "/items?"+tt.query, nil)
			page, perPage := ParsePagination(r, 20, 100)
			assert.Equal(t, tt.wantPage, page)
			assert.Equal(t, tt.wantPerPage, perPage)
		})
	}
}
