package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"tagharvest/pkg/logger"
)

const (
	videoLinkSelector = `a[href*="/video/"]`
	consentTimeout    = 1500 * time.Millisecond
)

// ConsentLabels are the button captions clicked away after navigation
var ConsentLabels = []string{"Accept", "I agree", "Allow all", "Accept all"}

const (
	scrollJS = `() => {
	const links = document.querySelectorAll('a[href*="/video/"]');
	if (links.length) links[links.length - 1].scrollIntoView({block: "end"});
	window.scrollBy(0, window.innerHeight * 0.95);
}`
	linksJS = `() => Array.from(document.querySelectorAll('a[href*="/video/"]')).map(a => a.href).filter(Boolean)`

	challengeJS = `() => !!document.body && /verify/i.test(document.body.innerText)`
)

// Tab is one stealth page. It satisfies the discovery Page contract.
type Tab struct {
	page       *rod.Page
	navTimeout time.Duration
	log        logger.Logger
}

func openTab(ctx context.Context, b *rod.Browser, opts Options, log logger.Logger) (*Tab, error) {
	page, err := stealth.Page(b)
	if err != nil {
		return nil, fmt.Errorf("browser: create tab: %w", err)
	}

	if opts.UserAgent != "" {
		err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
			UserAgent:      opts.UserAgent,
			AcceptLanguage: acceptLanguage(opts.Locale),
		})
		if err != nil {
			page.Close()
			return nil, fmt.Errorf("browser: set user agent: %w", err)
		}
	}
	err = page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             opts.Width,
		Height:            opts.Height,
		DeviceScaleFactor: 1,
	})
	if err != nil {
		page.Close()
		return nil, fmt.Errorf("browser: set viewport: %w", err)
	}

	return &Tab{page: page, navTimeout: opts.NavigationTimeout, log: log}, nil
}

// acceptLanguage builds the header value for a locale such as en-US
func acceptLanguage(locale string) string {
	if locale == "" {
		locale = "en-US"
	}
	lang := locale
	if i := strings.IndexByte(locale, '-'); i > 0 {
		lang = locale[:i]
	}
	if lang == locale {
		return locale
	}
	return fmt.Sprintf("%s,%s;q=0.9", locale, lang)
}

// Navigate loads url and waits for the DOM to be ready
func (t *Tab) Navigate(ctx context.Context, url string) error {
	nctx, cancel := context.WithTimeout(ctx, t.navTimeout)
	defer cancel()

	p := t.page.Context(nctx)
	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("browser: navigate %s: %w", url, err)
	}
	if err := p.WaitLoad(); err != nil {
		t.log.WithError(err).DebugWithFields("page did not settle", map[string]interface{}{"url": url})
	}
	return nil
}

// DismissConsent clicks the first matching consent button for each label
func (t *Tab) DismissConsent(ctx context.Context) {
	for _, label := range ConsentLabels {
		cctx, cancel := context.WithTimeout(ctx, consentTimeout)
		el, err := t.page.Context(cctx).ElementR("button", "/"+label+"/i")
		if err == nil {
			if err := el.Click(proto.InputMouseButtonLeft, 1); err == nil {
				t.log.DebugWithFields("consent prompt dismissed", map[string]interface{}{"label": label})
			}
		}
		cancel()
	}
}

// WaitForContent waits until an item link exists or timeout passes
func (t *Tab) WaitForContent(ctx context.Context, timeout time.Duration) error {
	wctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	_, err := t.page.Context(wctx).Element(videoLinkSelector)
	return err
}

func (t *Tab) Scroll(ctx context.Context) error {
	_, err := t.page.Context(ctx).Eval(scrollJS)
	return err
}

func (t *Tab) VisibleLinks(ctx context.Context) ([]string, error) {
	res, err := t.page.Context(ctx).Eval(linksJS)
	if err != nil {
		return nil, err
	}
	arr := res.Value.Arr()
	hrefs := make([]string, 0, len(arr))
	for _, v := range arr {
		hrefs = append(hrefs, v.Str())
	}
	return hrefs, nil
}

func (t *Tab) ChallengeVisible(ctx context.Context) (bool, error) {
	res, err := t.page.Context(ctx).Eval(challengeJS)
	if err != nil {
		return false, err
	}
	return res.Value.Bool(), nil
}

// ObserveResponses streams the URL of every network response to fn from a
// listener goroutine. stop detaches the listener and waits for it to exit.
func (t *Tab) ObserveResponses(ctx context.Context, fn func(url string)) (func(), error) {
	if err := (proto.NetworkEnable{}).Call(t.page); err != nil {
		return nil, fmt.Errorf("browser: enable network events: %w", err)
	}

	lctx, cancel := context.WithCancel(ctx)
	wait := t.page.Context(lctx).EachEvent(func(e *proto.NetworkResponseReceived) {
		if e.Response != nil {
			fn(e.Response.URL)
		}
	})
	done := make(chan struct{})
	go func() {
		defer close(done)
		wait()
	}()

	return func() {
		cancel()
		<-done
	}, nil
}

// Close closes the page
func (t *Tab) Close() error {
	return t.page.Close()
}
