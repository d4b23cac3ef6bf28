package httpserver

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestTurnLimiterDisabled(t *testing.T) {
	if newTurnLimiter(RateLimit{}) != nil {
		t.Fatalf("expected nil limiter when per_minute is zero")
	}
}

func TestTurnLimiterPerKey(t *testing.T) {
	l := newTurnLimiter(RateLimit{PerMinute: 1, Burst: 2, Tracked: 10})

	for i := 0; i < 2; i++ {
		if ok, _ := l.reserve("a"); !ok {
			t.Fatalf("expected burst request %d allowed", i)
		}
	}
	ok, wait := l.reserve("a")
	if ok || wait <= 0 {
		t.Fatalf("expected third request limited with a wait, got ok=%v wait=%v", ok, wait)
	}
	if ok, _ := l.reserve("b"); !ok {
		t.Fatalf("limits must be per identity")
	}
}

func TestChatRateLimited(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router, err := buildRouter(logDiscard(), nil, Deps{
		Bot:       &stubBot{},
		Auth:      Auth{JWTSecret: testSecret},
		RateLimit: RateLimit{PerMinute: 1, Burst: 1, Tracked: 10},
	})
	if err != nil {
		t.Fatalf("build router: %v", err)
	}

	rec := doJSON(router, http.MethodPost, "/v1/chat", `{"message":"hi"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected first turn allowed, got %d", rec.Code)
	}
	rec = doJSON(router, http.MethodPost, "/v1/chat", `{"message":"hi"}`, "")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header")
	}

	// Other routes are not limited.
	rec = doJSON(router, http.MethodGet, "/v1/voice/status", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected voice status unaffected, got %d", rec.Code)
	}
}
