package clients

import (
	"strings"
	"time"

	"github.com/biter777/countries"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	countryCacheSize = 512
	countryCacheTTL  = time.Hour
)

// CountryResolver maps free-form country names to ISO 3166-1 alpha-2 codes.
type CountryResolver struct {
	cache *expirable.LRU[string, string]
}

// NewCountryResolver constructs a resolver with a bounded, expiring cache.
func NewCountryResolver() *CountryResolver {
	return &CountryResolver{
		cache: expirable.NewLRU[string, string](countryCacheSize, nil, countryCacheTTL),
	}
}

// Alpha2 returns the alpha-2 code for name, or "" when it is not a known country.
func (r *CountryResolver) Alpha2(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return ""
	}
	if code, ok := r.cache.Get(key); ok {
		return code
	}
	code := ""
	if c := countries.ByName(key); c != countries.Unknown {
		code = c.Alpha2()
	}
	r.cache.Add(key, code)
	return code
}
