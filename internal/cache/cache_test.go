package cache

import (
	"strings"
	"testing"
	"time"

	"github.com/pmilanese/kinseek/internal/model"
)

func intp(v int) *int { return &v }

func TestKeyStableAcrossVariants(t *testing.T) {
	a := Key("findagrave", model.SearchQuery{GivenName: "Mary", Surname: "Johnson", BirthYear: intp(1870)})
	b := Key("findagrave", model.SearchQuery{GivenName: "  mary ", Surname: "JOHNSON", BirthYear: intp(1870)})
	if a != b {
		t.Errorf("normalized variants should share a key:\n%s\n%s", a, b)
	}
	if !strings.HasPrefix(a, "kinseek:v1:") {
		t.Errorf("missing version prefix: %s", a)
	}
}

func TestKeySeparatesSources(t *testing.T) {
	q := model.SearchQuery{GivenName: "Mary", Surname: "Johnson"}
	if Key("findagrave", q) == Key("geneanet", q) {
		t.Error("different sources must not share a key")
	}
}

func TestLayeredRoundTrip(t *testing.T) {
	c := NewLayeredCache(time.Minute, t.TempDir(), time.Hour)
	key := Key("findagrave", model.SearchQuery{GivenName: "Mary", Surname: "Johnson"})

	if _, found := c.Get(key); found {
		t.Fatal("unexpected hit on empty cache")
	}
	if err := c.Set(key, []byte("<html></html>"), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	val, found := c.Get(key)
	if !found || string(val) != "<html></html>" {
		t.Errorf("expected round trip, got (%q, %v)", val, found)
	}
}

func TestDiskExpiry(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Hour)
	if err := c.Set("k", []byte("v"), -time.Second); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, found := c.Get("k"); found {
		t.Error("expired entry should miss")
	}
}
