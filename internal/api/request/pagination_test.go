package request

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePagination_Defaults(t *testing.T) {
	r := httptest.NewRequest("GET", "/patch-jobs", nil)
	p := ParsePagination(r)

	assert.Equal(t, DefaultLimit, p.Limit)
	assert.Empty(t, p.Cursor)
}

func TestParsePagination_Explicit(t *testing.T) {
	r := httptest.NewRequest("GET", "/patch-jobs?limit=25&cursor=job-9", nil)
	p := ParsePagination(r)

	assert.Equal(t, 25, p.Limit)
	assert.Equal(t, "job-9", p.Cursor)
}

func TestParsePagination_ClampsToMax(t *testing.T) {
	r := httptest.NewRequest("GET", "/patch-jobs?limit=5000", nil)
	p := ParsePagination(r)

	assert.Equal(t, MaxLimit, p.Limit)
}

func TestParsePagination_IgnoresInvalidLimit(t *testing.T) {
	for _, limit := range []string{"abc", "-1", "0"} {
		r := httptest.NewRequest("GET", "/patch-jobs?limit="+limit, nil)
		p := ParsePagination(r)

		assert.Equal(t, DefaultLimit, p.Limit, "limit=%s", limit)
	}
}
