// Package cli renders scrape results for the command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/raysh454/webscrape/internal/scraper"
	"github.com/raysh454/webscrape/internal/utils"
)

// ScrapeArgs are the positional arguments and flags of the scrape command.
type ScrapeArgs struct {
	URLs        []string
	Concurrency int
	JSON        bool
	// OutDir, when set, receives one .txt file per successful URL.
	OutDir string
}

// Validate trims the URL list and rejects an empty one.
func (a *ScrapeArgs) Validate() error {
	urls := make([]string, 0, len(a.URLs))
	for _, u := range a.URLs {
		if u = strings.TrimSpace(u); u != "" {
			urls = append(urls, u)
		}
	}
	if len(urls) == 0 {
		return eris.New("at least one URL is required")
	}
	if a.Concurrency < 0 {
		return eris.Errorf("concurrency must be positive, got %d", a.Concurrency)
	}
	a.URLs = urls
	return nil
}

// Record is the JSON line written per URL.
type Record struct {
	URL    string          `json:"url"`
	Result *scraper.Result `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
	Kind   string          `json:"kind,omitempty"`
}

// WriteResults prints results in input order, as JSON lines when asJSON is
// set and as plain text sections otherwise. It returns the number of failures.
func WriteResults(w io.Writer, results []scraper.BatchResult, asJSON bool) (int, error) {
	failed := 0
	enc := json.NewEncoder(w)
	for _, br := range results {
		if br.Err != nil {
			failed++
		}
		if asJSON {
			rec := Record{URL: br.URL, Result: br.Result}
			if br.Err != nil {
				rec.Error = br.Err.Error()
				rec.Kind = string(scraper.KindOf(br.Err))
			}
			if err := enc.Encode(rec); err != nil {
				return failed, eris.Wrap(err, "write json")
			}
			continue
		}

		var err error
		if br.Err != nil {
			_, err = fmt.Fprintf(w, "== %s\nerror: %v\n\n", br.URL, br.Err)
		} else {
			_, err = fmt.Fprintf(w, "== %s\n%s\n\n", br.URL, br.Result.Content)
		}
		if err != nil {
			return failed, eris.Wrap(err, "write result")
		}
	}
	return failed, nil
}

// SaveResults writes the content of each successful result to dir, named
// after its URL. It returns the paths written.
func SaveResults(dir string, results []scraper.BatchResult) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "create %s", dir)
	}
	var paths []string
	for _, br := range results {
		if br.Err != nil || br.Result == nil {
			continue
		}
		path := filepath.Join(dir, utils.FileSafeName(br.Result.URL)+".txt")
		if err := os.WriteFile(path, []byte(br.Result.Content), 0o644); err != nil {
			return paths, eris.Wrapf(err, "write %s", path)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
