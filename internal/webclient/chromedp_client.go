package webclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/raysh454/webscrape/internal/logging"
)

// ErrClientClosed is returned by Do after Close.
var ErrClientClosed = errors.New("webclient is closed")

// ChromedpClient renders pages in headless Chrome. Only GET is supported.
// The browser is started lazily on the first Do and shared; every request
// gets its own tab.
type ChromedpClient struct {
	cfg         Config
	allocCtx    context.Context
	allocCancel context.CancelFunc
	logger      logging.Logger

	mu            sync.Mutex
	closed        bool
	browserCtx    context.Context
	browserCancel context.CancelFunc
}

func NewChromedpClient(cfg Config, logger logging.Logger) (*ChromedpClient, error) {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	cfg = cfg.withDefaults()

	opts := append([]chromedp.ExecAllocatorOption{},
		chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.Flag("headless", cfg.Headless),
		chromedp.UserAgent(cfg.UserAgent),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)

	componentLogger := logger.With(logging.Field{Key: "backend", Value: "chromedp"})
	componentLogger.Debug("created chromedp webclient",
		logging.Field{Key: "headless", Value: cfg.Headless},
		logging.Field{Key: "idle_after", Value: cfg.IdleAfter.String()})

	return &ChromedpClient{
		cfg:         cfg,
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		logger:      componentLogger,
	}, nil
}

// waitNetworkIdle signals once no request has been in flight for idleAfter.
func waitNetworkIdle(ctx context.Context, idleAfter time.Duration) <-chan struct{} {
	idleChan := make(chan struct{})
	var activeReqs int32
	var timer *time.Timer
	var timerMutex sync.Mutex
	var once sync.Once

	startTimer := func() {
		timerMutex.Lock()
		defer timerMutex.Unlock()

		if timer != nil {
			timer.Stop()
		}

		timer = time.AfterFunc(idleAfter, func() {
			if atomic.LoadInt32(&activeReqs) <= 0 {
				once.Do(func() { close(idleChan) })
			}
		})
	}

	chromedp.ListenTarget(ctx, func(ev any) {
		switch ev.(type) {
		case *network.EventRequestWillBeSent:
			atomic.AddInt32(&activeReqs, 1)
		case *network.EventLoadingFinished, *network.EventLoadingFailed:
			if atomic.AddInt32(&activeReqs, -1) <= 0 {
				startTimer()
			}
		}
	})

	// pages that issue no further requests after the document still go idle
	startTimer()
	return idleChan
}

// documentResponse captures the status and headers of the main document.
type documentResponse struct {
	mu      sync.Mutex
	seen    bool
	status  int
	headers http.Header
}

func (d *documentResponse) listen(ctx context.Context) {
	chromedp.ListenTarget(ctx, func(ev any) {
		e, ok := ev.(*network.EventResponseReceived)
		if !ok || e.Type != network.ResourceTypeDocument || e.Response == nil {
			return
		}
		d.mu.Lock()
		defer d.mu.Unlock()
		// the last document response wins so redirects report the final page
		d.seen = true
		d.status = int(e.Response.Status)
		d.headers = http.Header{}
		for k, v := range e.Response.Headers {
			d.headers.Set(k, fmt.Sprint(v))
		}
	})
}

// browser returns the shared browser context, starting Chrome if it is not
// running. A browser that died is started again.
func (cdc *ChromedpClient) browser() (context.Context, error) {
	cdc.mu.Lock()
	defer cdc.mu.Unlock()
	if cdc.closed {
		return nil, ErrClientClosed
	}
	if cdc.browserCtx != nil && cdc.browserCtx.Err() == nil {
		return cdc.browserCtx, nil
	}

	browserCtx, cancel := chromedp.NewContext(cdc.allocCtx)
	if err := chromedp.Run(browserCtx); err != nil {
		cancel()
		return nil, fmt.Errorf("chromedp start browser: %w", err)
	}
	cdc.logger.Debug("started browser")
	cdc.browserCtx, cdc.browserCancel = browserCtx, cancel
	return browserCtx, nil
}

func (cdc *ChromedpClient) Do(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		return nil, ErrInvalidRequest
	}
	if m := strings.ToUpper(req.Method); m != "" && m != http.MethodGet {
		return nil, fmt.Errorf("chromedp backend: method %s not supported", m)
	}

	browserCtx, err := cdc.browser()
	if err != nil {
		return nil, err
	}

	// cancelTab closes this tab only; the browser keeps running.
	tabCtx, cancelTab := chromedp.NewContext(browserCtx)
	defer cancelTab()
	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, cdc.cfg.Timeout)
	defer cancelTimeout()

	// tie the tab to the caller's context as well
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	doc := &documentResponse{}
	doc.listen(tabCtx)

	if err := chromedp.Run(tabCtx, network.Enable()); err != nil {
		return nil, fmt.Errorf("chromedp start: %w", err)
	}
	idle := waitNetworkIdle(tabCtx, cdc.cfg.IdleAfter)

	cdc.logger.Debug("navigating", logging.Field{Key: "url", Value: req.URL})
	if err := chromedp.Run(tabCtx, chromedp.Navigate(req.URL)); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("chromedp navigate: %w", err)
	}

	select {
	case <-idle:
	case <-tabCtx.Done():
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("chromedp wait idle: %w", tabCtx.Err())
	}

	var html, location string
	err = chromedp.Run(tabCtx,
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
		chromedp.Location(&location),
	)
	if err != nil {
		return nil, fmt.Errorf("chromedp read dom: %w", err)
	}

	doc.mu.Lock()
	status, headers := doc.status, doc.headers
	seen := doc.seen
	doc.mu.Unlock()
	if !seen {
		status = http.StatusOK
		headers = http.Header{}
	}
	// the DOM is always serialized back as UTF-8 HTML
	headers.Set("Content-Type", "text/html; charset=utf-8")

	body := []byte(html)
	truncated := false
	if int64(len(body)) > cdc.cfg.MaxBodyBytes {
		body = body[:cdc.cfg.MaxBodyBytes]
		truncated = true
	}

	return &Response{
		Request:    req,
		FinalURL:   location,
		Headers:    headers,
		Body:       body,
		StatusCode: status,
		Truncated:  truncated,
		Backend:    ClientChromedp,
		FetchedAt:  time.Now(),
	}, nil
}

// Get is a convenience method for simple GET requests
func (cdc *ChromedpClient) Get(ctx context.Context, url string) (*Response, error) {
	return cdc.Do(ctx, &Request{Method: http.MethodGet, URL: url})
}

func (cdc *ChromedpClient) Close() error {
	cdc.logger.Debug("closing chromedp webclient")
	cdc.mu.Lock()
	cdc.closed = true
	if cdc.browserCancel != nil {
		cdc.browserCancel()
	}
	cdc.mu.Unlock()
	cdc.allocCancel()
	return nil
}
