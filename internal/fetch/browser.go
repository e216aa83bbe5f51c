package fetch

import (
	"context"
	"encoding/base64"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/oasara/enrich-cli/internal/config"
)

// stealthScript masks the most common headless markers before any page
// script runs. Sites that fingerprint navigator.webdriver serve empty
// shells to undisguised automation.
const stealthScript = `
Object.defineProperty(navigator, 'webdriver', { get: () => undefined });
Object.defineProperty(navigator, 'plugins', { get: () => [1, 2, 3, 4, 5] });
Object.defineProperty(navigator, 'languages', { get: () => ['en-US', 'en'] });
`

// scrollScript walks the page to the bottom in small steps so
// lazy-loaded sections render before the snapshot is taken.
const scrollScript = `
new Promise((resolve) => {
	let total = 0;
	const step = 120;
	const timer = setInterval(() => {
		window.scrollBy(0, step);
		total += step;
		if (total >= document.body.scrollHeight) {
			clearInterval(timer);
			window.scrollTo(0, 0);
			resolve(true);
		}
	}, 100);
});
`

// BrowserFetcher renders pages in headless Chrome via chromedp. One
// Chrome process is shared for the fetcher's lifetime; each Fetch runs
// in its own tab so one wedged site cannot poison the next.
type BrowserFetcher struct {
	opts    []chromedp.ExecAllocatorOption
	timeout time.Duration
	settle  time.Duration

	once        sync.Once
	allocCtx    context.Context
	cancelAlloc context.CancelFunc
}

// NewBrowserFetcher creates a BrowserFetcher from fetch settings.
func NewBrowserFetcher(cfg config.FetchConfig) *BrowserFetcher {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(cfg.UserAgent),
		chromedp.WindowSize(1920, 1080),
	)
	return &BrowserFetcher{
		opts:    opts,
		timeout: time.Duration(cfg.TimeoutSecs) * time.Second,
		settle:  time.Duration(cfg.SettleMillis) * time.Millisecond,
	}
}

// allocator lazily sets up the shared Chrome allocator. The process
// itself only launches on the first tab's Run.
func (f *BrowserFetcher) allocator() context.Context {
	f.once.Do(func() {
		f.allocCtx, f.cancelAlloc = chromedp.NewExecAllocator(context.Background(), f.opts...)
	})
	return f.allocCtx
}

// tab opens a fresh tab with the fetcher's timeout, cancelled early if
// the caller's ctx is.
func (f *BrowserFetcher) tab(ctx context.Context) (context.Context, context.CancelFunc) {
	tabCtx, cancelTab := chromedp.NewContext(f.allocator())
	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, f.timeout)
	stop := context.AfterFunc(ctx, cancelTab)
	return tabCtx, func() {
		stop()
		cancelTimeout()
		cancelTab()
	}
}

// Close shuts down the shared Chrome process, if one was launched.
func (f *BrowserFetcher) Close() {
	if f.cancelAlloc != nil {
		f.cancelAlloc()
	}
}

func injectStealth() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		_, err := page.AddScriptToEvaluateOnNewDocument(stealthScript).Do(ctx)
		return err
	})
}

// Fetch renders a URL and captures its DOM after scrolling. The mode
// argument is ignored; a BrowserFetcher always renders.
func (f *BrowserFetcher) Fetch(ctx context.Context, targetURL string, _ Mode) (*PageSnapshot, error) {
	tabCtx, cancelTab := f.tab(ctx)
	defer cancelTab()

	navigate := func(wait chromedp.Action) error {
		return chromedp.Run(tabCtx,
			injectStealth(),
			chromedp.Navigate(targetURL),
			wait,
		)
	}

	// Wait for a rendered body first; retry with the weaker DOM-ready
	// criterion when the page never settles.
	if err := navigate(chromedp.WaitVisible("body", chromedp.ByQuery)); err != nil {
		zap.L().Debug("full load failed, retrying with dom-ready",
			zap.String("url", targetURL), zap.Error(err))
		if err := navigate(chromedp.WaitReady("body", chromedp.ByQuery)); err != nil {
			return nil, eris.Wrapf(err, "fetch: navigate %s", targetURL)
		}
	}

	var html, finalURL, title string
	err := chromedp.Run(tabCtx,
		chromedp.Evaluate(scrollScript, nil, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
			return p.WithAwaitPromise(true)
		}),
		chromedp.Sleep(f.settle),
		chromedp.Location(&finalURL),
		chromedp.Title(&title),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return nil, eris.Wrapf(err, "fetch: snapshot %s", targetURL)
	}

	if blocked, blockType := DetectBlock(200, nil, []byte(html)); blocked {
		return nil, eris.Errorf("fetch: blocked (%s): %s", blockType, targetURL)
	}
	if len(html) < 100 {
		return nil, eris.Errorf("fetch: empty page: %s", targetURL)
	}

	return &PageSnapshot{
		URL:        targetURL,
		FinalURL:   finalURL,
		Title:      title,
		HTML:       html,
		Text:       StripHTML(html),
		StatusCode: 200,
	}, nil
}

// Screenshots renders a URL and captures the viewport plus up to
// sections-1 scrolled viewports, as base64 JPEG.
func (f *BrowserFetcher) Screenshots(ctx context.Context, targetURL string, sections int) ([]string, error) {
	if sections < 1 {
		sections = 1
	}

	tabCtx, cancelTab := f.tab(ctx)
	defer cancelTab()

	err := chromedp.Run(tabCtx,
		injectStealth(),
		chromedp.Navigate(targetURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(f.settle),
	)
	if err != nil {
		return nil, eris.Wrapf(err, "fetch: navigate %s", targetURL)
	}

	shots := make([]string, 0, sections)
	for i := 0; i < sections; i++ {
		if i > 0 {
			err := chromedp.Run(tabCtx,
				chromedp.Evaluate(`window.scrollBy(0, window.innerHeight)`, nil),
				chromedp.Sleep(500*time.Millisecond),
			)
			if err != nil {
				return nil, eris.Wrapf(err, "fetch: scroll section %d", i)
			}
		}

		var buf []byte
		err := chromedp.Run(tabCtx, chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			buf, err = page.CaptureScreenshot().
				WithFormat(page.CaptureScreenshotFormatJpeg).
				WithQuality(80).
				Do(ctx)
			return err
		}))
		if err != nil {
			return nil, eris.Wrapf(err, "fetch: screenshot section %d", i)
		}
		shots = append(shots, base64.StdEncoding.EncodeToString(buf))
	}

	return shots, nil
}
