// Package agent serves agent action-group events: a /search action that
// scrapes a URL and a /time action that reports Pacific time.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
	_ "time/tzdata" // America/Los_Angeles without a system zoneinfo

	"github.com/raysh454/webscrape/internal/logging"
	"github.com/raysh454/webscrape/internal/scraper"
)

const (
	messageVersion = "1.0"
	jsonMediaType  = "application/json"

	PathSearch = "/search"
	PathTime   = "/time"

	inputURLProperty = "inputURL"
	timeNote         = "Time is returned in Pacific Time (PST/PDT)."
	timeLayout       = "2006-01-02 15:04:05 MST"
)

// Scraper is the part of *scraper.Scraper the handler needs.
type Scraper interface {
	Scrape(ctx context.Context, url string) (*scraper.Result, error)
}

type Handler struct {
	scraper          Scraper
	maxResponseBytes int
	loc              *time.Location
	now              func() time.Time
	logger           logging.Logger
}

// NewHandler returns a Handler. maxResponseBytes bounds the encoded
// {"url","content"} payload of a /search result.
func NewHandler(s Scraper, maxResponseBytes int, logger logging.Logger) (*Handler, error) {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	if maxResponseBytes <= 0 {
		maxResponseBytes = scraper.DefaultMaxResponseBytes
	}
	loc, err := time.LoadLocation("America/Los_Angeles")
	if err != nil {
		return nil, fmt.Errorf("load pacific time zone: %w", err)
	}
	return &Handler{
		scraper:          s,
		maxResponseBytes: maxResponseBytes,
		loc:              loc,
		now:              time.Now,
		logger:           logger.With(logging.Field{Key: "component", Value: "agent"}),
	}, nil
}

// SetClock replaces the time source.
func (h *Handler) SetClock(now func() time.Time) { h.now = now }

// Handle dispatches ev on its API path. Unknown paths produce a 404 action
// status inside the envelope.
func (h *Handler) Handle(ctx context.Context, ev *ActionEvent) *ActionResponse {
	status := http.StatusOK
	var body any

	switch ev.APIPath {
	case PathSearch:
		body = h.search(ctx, ev)
	case PathTime:
		body = h.currentTime()
	default:
		status = http.StatusNotFound
		body = fmt.Sprintf("Unrecognized api path: %s::%s", ev.ActionGroup, ev.APIPath)
	}

	h.logger.Info("agent action",
		logging.Field{Key: "action_group", Value: ev.ActionGroup},
		logging.Field{Key: "api_path", Value: ev.APIPath},
		logging.Field{Key: "session_id", Value: ev.SessionID},
		logging.Field{Key: "status", Value: status})

	return &ActionResponse{
		MessageVersion: messageVersion,
		Response: ActionResult{
			ActionGroup:    ev.ActionGroup,
			APIPath:        ev.APIPath,
			HTTPMethod:     ev.HTTPMethod,
			HTTPStatusCode: status,
			ResponseBody: map[string]ResponseContent{
				jsonMediaType: {Body: body},
			},
		},
	}
}

func (h *Handler) search(ctx context.Context, ev *ActionEvent) any {
	input := strings.TrimSpace(ev.property(inputURLProperty))
	if input == "" {
		return map[string]string{"error": "No URL provided"}
	}

	res, err := h.scraper.Scrape(ctx, input)
	if err != nil {
		h.logger.Warn("agent search failed",
			logging.Field{Key: "url", Value: input},
			logging.Field{Key: "kind", Value: string(scraper.KindOf(err))},
			logging.Err(err))
		return map[string]string{"error": "Failed to retrieve content"}
	}

	return map[string]SearchResults{
		"results": FitPayload(res.URL, res.Content, h.maxResponseBytes),
	}
}

// currentTime returns a JSON-encoded string, the shape the time action has
// always produced.
func (h *Handler) currentTime() string {
	b, _ := json.Marshal(map[string]string{
		"current_time_pst": h.now().In(h.loc).Format(timeLayout),
		"note":             timeNote,
	})
	return string(b)
}
