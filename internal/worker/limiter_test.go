package worker

import (
	"context"
	"testing"
	"time"
)

func TestNewLimiterDefaultsBurst(t *testing.T) {
	if l := NewLimiter(10, -1); l.defaultBurst != 5 {
		t.Errorf("expected default burst 5, got %d", l.defaultBurst)
	}
	if l := NewLimiter(10, 3); l.defaultBurst != 3 {
		t.Errorf("expected burst 3, got %d", l.defaultBurst)
	}
}

func TestLimiterIsolatesDomains(t *testing.T) {
	limiter := NewLimiter(1, 1)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "https://www.findagrave.com/memorial/search"); err != nil {
		t.Fatalf("first wait: %v", err)
	}
	// Token for findagrave is spent, geneanet has its own bucket.
	if limiter.Allow("https://www.findagrave.com/memorial/1") {
		t.Error("expected findagrave tokens exhausted")
	}
	if !limiter.Allow("https://www.geneanet.org/fonds/individus/") {
		t.Error("expected fresh bucket for geneanet")
	}
}

func TestWaitWithDelaySleeps(t *testing.T) {
	limiter := NewLimiter(100, 1)

	start := time.Now()
	if err := limiter.WaitWithDelay(context.Background(), "https://www.freebmd.org.uk/", 50*time.Millisecond); err != nil {
		t.Fatalf("wait with delay: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("expected at least 50ms, got %v", elapsed)
	}
}

func TestWaitWithDelayHonorsContext(t *testing.T) {
	limiter := NewLimiter(100, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := limiter.WaitWithDelay(ctx, "https://www.freebmd.org.uk/", time.Minute)
	if err == nil {
		t.Fatal("expected context error")
	}
}

func TestSetDomainRate(t *testing.T) {
	limiter := NewLimiter(10, 10)
	limiter.SetDomainRate("www.scotlandspeople.gov.uk", 0.1, 1)

	if !limiter.Allow("https://www.scotlandspeople.gov.uk/record-results") {
		t.Error("first request should pass on burst")
	}
	if limiter.Allow("https://www.scotlandspeople.gov.uk/record-results") {
		t.Error("second request should be throttled")
	}
	if !limiter.Allow("https://www.irishgenealogy.ie/") {
		t.Error("other domains keep the default rate")
	}
}

func TestExtractDomain(t *testing.T) {
	domain, err := extractDomain("https://www.antenati.cultura.gov.it/search-nominative/")
	if err != nil {
		t.Fatalf("extract domain: %v", err)
	}
	if domain != "www.antenati.cultura.gov.it" {
		t.Errorf("expected host, got %s", domain)
	}

	if _, err := extractDomain("::invalid"); err == nil {
		t.Error("expected error for invalid URL")
	}
}
