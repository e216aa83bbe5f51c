package fetch

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rotisserie/eris"

	"github.com/oasara/enrich-cli/internal/config"
	"github.com/oasara/enrich-cli/internal/resilience"
)

// StaticFetcher acquires pages with a plain HTTP client. Cheap and
// fast, but blind to JavaScript-built content. Serves the static-doc
// fallback strategy and any site that renders server-side.
type StaticFetcher struct {
	client *resty.Client
}

// NewStaticFetcher creates a StaticFetcher from fetch settings.
func NewStaticFetcher(cfg config.FetchConfig) *StaticFetcher {
	client := resty.New().
		SetTimeout(time.Duration(cfg.TimeoutSecs)*time.Second).
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("Accept-Language", "en-US,en;q=0.9").
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(5))
	return &StaticFetcher{client: client}
}

// Fetch retrieves a URL without executing scripts. The mode argument is
// ignored; a StaticFetcher always fetches statically.
func (f *StaticFetcher) Fetch(ctx context.Context, url string, _ Mode) (*PageSnapshot, error) {
	resp, err := resilience.DoVal(ctx, resilience.DefaultRetryConfig(), func(ctx context.Context) (*resty.Response, error) {
		resp, err := f.client.R().SetContext(ctx).Get(url)
		if err != nil {
			return nil, eris.Wrap(err, "fetch: static get")
		}
		// A block page is permanent for this run; retrying only burns
		// attempts against the same WAF.
		if blocked, blockType := DetectBlock(resp.StatusCode(), resp.Header(), resp.Body()); blocked {
			return nil, eris.Errorf("fetch: blocked (%s): %s", blockType, url)
		}
		if code := resp.StatusCode(); resilience.IsTransientHTTPStatus(code) {
			return nil, resilience.NewTransientError(eris.Errorf("fetch: status %d: %s", code, url), code)
		}
		return resp, nil
	})
	if err != nil {
		return nil, err
	}

	body := resp.Body()
	if resp.StatusCode() >= 400 {
		return nil, eris.Errorf("fetch: status %d: %s", resp.StatusCode(), url)
	}
	if len(body) < 100 {
		return nil, eris.Errorf("fetch: empty page: %s", url)
	}

	finalURL := url
	if resp.RawResponse != nil && resp.RawResponse.Request != nil {
		finalURL = resp.RawResponse.Request.URL.String()
	}

	html := string(body)
	return &PageSnapshot{
		URL:        url,
		FinalURL:   finalURL,
		Title:      ExtractTitle(body),
		HTML:       html,
		Text:       StripHTML(html),
		StatusCode: resp.StatusCode(),
	}, nil
}
