package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestParse(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		query     string
		wantPage  int
		wantLimit int
	}{
		{"", DefaultPage, DefaultLimit},
		{"?page=3&limit=5", 3, 5},
		{"?page=0&limit=0", DefaultPage, DefaultLimit},
		{"?page=abc&limit=xyz", DefaultPage, DefaultLimit},
		{"?limit=5000", DefaultPage, MaxLimit},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest("GET", "/runs"+tt.query, nil)

			got := Parse(c)
			if got.Page != tt.wantPage || got.Limit != tt.wantLimit {
				t.Fatalf("got=%+v want page=%d limit=%d", got, tt.wantPage, tt.wantLimit)
			}
		})
	}
}
