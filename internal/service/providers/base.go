// Package providers holds the upstream quote sources. Each adapter reports
// failures as *errs.ProviderError so the resolver can classify them.
package providers

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"time"

	"golang.org/x/time/rate"

	"CBDesk/internal/domain/errs"
	"CBDesk/internal/domain/models"
	pkghttp "CBDesk/pkg/http"
	"CBDesk/pkg/logger"
)

const (
	NameYahoo    = "yahoo"
	NameTWSEMIS  = "twse_mis"
	NameGoodinfo = "goodinfo"
	NameTPExCB   = "tpex_cb"
	NameCBTable  = "cb_table"

	// DefaultTimeout bounds a single request when no per-provider timeout is set.
	DefaultTimeout = 4 * time.Second
	// DefaultRateLimit is requests per second against one host.
	DefaultRateLimit = 2
)

// Options configures one adapter.
type Options struct {
	BaseURL       string
	UserAgent     string
	Proxy         string
	Timeout       time.Duration
	RatePerSecond float64
	Burst         int
	Transport     stdhttp.RoundTripper
	Logger        *logger.Logger
	Now           func() time.Time
}

type base struct {
	name    string
	baseURL string
	client  *pkghttp.Client
	limiter *rate.Limiter
	log     *logger.Logger
	now     func() time.Time
}

func newBase(name, defaultURL string, o Options) base {
	b := base{
		name:    name,
		baseURL: o.BaseURL,
		log:     o.Logger,
		now:     o.Now,
	}
	if b.baseURL == "" {
		b.baseURL = defaultURL
	}
	if b.log == nil {
		b.log = logger.Nop()
	}
	if b.now == nil {
		b.now = time.Now
	}

	timeout := o.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	opts := []pkghttp.ClientOption{
		pkghttp.WithTimeout(timeout),
		pkghttp.WithUserAgent(o.UserAgent),
		pkghttp.WithProxy(o.Proxy),
	}
	if o.Transport != nil {
		opts = append(opts, pkghttp.WithTransport(o.Transport))
	}
	b.client = pkghttp.NewClient(opts...)

	rps, burst := o.RatePerSecond, o.Burst
	if rps <= 0 {
		rps = DefaultRateLimit
	}
	if burst <= 0 {
		burst = int(rps)
		if burst < 1 {
			burst = 1
		}
	}
	b.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	return b
}

func (b *base) Name() string { return b.name }

// get waits for the limiter and fetches url. Any transport or status failure
// comes back as an Unavailable, except 404 which is NoData.
func (b *base) get(ctx context.Context, venue, url string, query map[string][]string, headers map[string]string) ([]byte, stdhttp.Header, error) {
	if err := b.limiter.Wait(ctx); err != nil {
		return nil, nil, errs.Unavailable(b.name, venue, fmt.Errorf("rate limit wait: %w", err))
	}

	b.log.Debug("provider request",
		logger.String("provider", b.name),
		logger.String("venue", venue),
		logger.String("url", url),
	)

	body, hdr, err := b.client.Fetch(ctx, &pkghttp.RequestOptions{
		Method:      pkghttp.MethodGet,
		URL:         url,
		Headers:     headers,
		QueryParams: query,
	})
	if err != nil {
		var se *pkghttp.StatusError
		if errors.As(err, &se) && se.Code == stdhttp.StatusNotFound {
			return nil, hdr, errs.NoData(b.name, venue, "not found")
		}
		return nil, hdr, errs.Unavailable(b.name, venue, err)
	}
	return body, hdr, nil
}

// venue is one listing board an instrument may trade on.
type venue struct {
	board models.Venue
	code  string // provider specific marker, e.g. ".TW" or "tse"
}

// tryVenues runs fetch per venue in order and returns the first success.
// When all venues fail the per-venue errors are joined.
func tryVenues[T any](ctx context.Context, venues []venue, fetch func(context.Context, venue) (T, error)) (T, error) {
	var (
		zero  T
		fails []error
	)
	for _, v := range venues {
		if err := ctx.Err(); err != nil {
			fails = append(fails, err)
			break
		}
		out, err := fetch(ctx, v)
		if err == nil {
			return out, nil
		}
		fails = append(fails, err)
	}
	return zero, errors.Join(fails...)
}
