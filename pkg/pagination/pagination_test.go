package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func paramsFor(t *testing.T, query string) Params {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?"+query, nil)
	c := e.NewContext(req, httptest.NewRecorder())
	return FromContext(c)
}

func TestFromContextDefaults(t *testing.T) {
	p := paramsFor(t, "")
	if p.Limit != DefaultLimit || p.Offset != 0 {
		t.Fatalf("got %+v, want defaults", p)
	}
}

func TestFromContextClampsLimit(t *testing.T) {
	p := paramsFor(t, "limit=5000&offset=40")
	if p.Limit != MaxLimit {
		t.Errorf("limit = %d, want %d", p.Limit, MaxLimit)
	}
	if p.Offset != 40 {
		t.Errorf("offset = %d, want 40", p.Offset)
	}
}

func TestFromContextIgnoresGarbage(t *testing.T) {
	p := paramsFor(t, "limit=abc&offset=-3")
	if p.Limit != DefaultLimit || p.Offset != 0 {
		t.Fatalf("got %+v, want defaults", p)
	}
}

func TestNewResponseHasMore(t *testing.T) {
	if r := NewResponse(nil, 100, 20, 0); !r.HasMore {
		t.Error("expected has_more for first page of 100")
	}
	if r := NewResponse(nil, 100, 20, 80); r.HasMore {
		t.Error("expected no has_more on last page")
	}
}
