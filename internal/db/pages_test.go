package db

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFetchStatusFromHTTP(t *testing.T) {
	assert.Equal(t, FetchStatusSuccess, FetchStatusFromHTTP(http.StatusOK))
	assert.Equal(t, FetchStatusSuccess, FetchStatusFromHTTP(http.StatusNoContent))
	assert.Equal(t, FetchStatusNotFound, FetchStatusFromHTTP(http.StatusNotFound))
	assert.Equal(t, FetchStatusNotFound, FetchStatusFromHTTP(http.StatusGone))
	assert.Equal(t, FetchStatusBlocked, FetchStatusFromHTTP(http.StatusForbidden))
	assert.Equal(t, FetchStatusBlocked, FetchStatusFromHTTP(http.StatusTooManyRequests))
	assert.Equal(t, FetchStatusError, FetchStatusFromHTTP(http.StatusInternalServerError))
	assert.Equal(t, FetchStatusError, FetchStatusFromHTTP(0))
}

func TestIsPermanentHTTPStatus(t *testing.T) {
	assert.True(t, IsPermanentHTTPStatus(http.StatusNotFound))
	assert.True(t, IsPermanentHTTPStatus(http.StatusGone))
	assert.False(t, IsPermanentHTTPStatus(http.StatusInternalServerError))
	assert.False(t, IsPermanentHTTPStatus(http.StatusForbidden))
}

func TestHashContent_Deterministic(t *testing.T) {
	a := HashContent("<html>page</html>")
	b := HashContent("<html>page</html>")
	c := HashContent("<html>other</html>")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}

func TestCrawledPage_IsFresh(t *testing.T) {
	page := &CrawledPage{FetchedAt: time.Now().Add(-time.Hour)}
	assert.True(t, page.IsFresh(2*time.Hour))
	assert.False(t, page.IsFresh(30*time.Minute))
}
