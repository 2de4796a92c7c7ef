package middleware

import (
	"math"
	"net"
	"net/http"
	"sync"

	"golang.org/x/time/rate"
)

// LimiterPair holds the per-IP limiters. Lookup covers the per-tick
// timeline queries, Parse covers the expensive parse and store requests.
type LimiterPair struct {
	Lookup *rate.Limiter
	Parse  *rate.Limiter
}

// GetLookupTokens returns the number of tokens left in the lookup tier
func (lp *LimiterPair) GetLookupTokens() int {
	return int(math.Floor(lp.Lookup.Tokens()))
}

// GetParseTokens returns the number of tokens left in the parse tier
func (lp *LimiterPair) GetParseTokens() int {
	return int(math.Floor(lp.Parse.Tokens()))
}

// IPRateLimiter keeps one LimiterPair per client IP
type IPRateLimiter struct {
	ips         map[string]*LimiterPair
	mu          sync.RWMutex
	lookupRate  rate.Limit
	lookupBurst int
	parseRate   rate.Limit
	parseBurst  int
}

// NewIPRateLimiter creates a two-tier rate limiter
func NewIPRateLimiter(lookupRate rate.Limit, lookupBurst int, parseRate rate.Limit, parseBurst int) *IPRateLimiter {
	return &IPRateLimiter{
		ips:         make(map[string]*LimiterPair),
		lookupRate:  lookupRate,
		lookupBurst: lookupBurst,
		parseRate:   parseRate,
		parseBurst:  parseBurst,
	}
}

// GetLookupLimit returns the lookup tier burst limit
func (i *IPRateLimiter) GetLookupLimit() int {
	return i.lookupBurst
}

// GetParseLimit returns the parse tier burst limit
func (i *IPRateLimiter) GetParseLimit() int {
	return i.parseBurst
}

func (i *IPRateLimiter) AddIP(ip string) *LimiterPair {
	i.mu.Lock()
	defer i.mu.Unlock()

	if pair, exists := i.ips[ip]; exists {
		return pair
	}

	pair := &LimiterPair{
		Lookup: rate.NewLimiter(i.lookupRate, i.lookupBurst),
		Parse:  rate.NewLimiter(i.parseRate, i.parseBurst),
	}
	i.ips[ip] = pair

	return pair
}

func (i *IPRateLimiter) GetLimiter(ip string) *LimiterPair {
	i.mu.RLock()
	pair, exists := i.ips[ip]
	i.mu.RUnlock()

	if !exists {
		return i.AddIP(ip)
	}
	return pair
}

// ClientIP returns the request's remote host without the port
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
