package server

// ScrapeRequest is the body of POST /search.
type ScrapeRequest struct {
	InputURL string `json:"inputURL" example:"https://example.com"`
}

// ScrapeResponse carries the readable text of the requested page.
type ScrapeResponse struct {
	ScrapedContent string `json:"scraped_content" example:"Example Domain\nThis domain is for use in illustrative examples in documents."`
}

// StartScrapeJobRequest lists the URLs of a batch scrape job.
type StartScrapeJobRequest struct {
	URLs        []string `json:"urls" example:"[\"https://example.com\",\"https://example.org\"]"`
	Concurrency int      `json:"concurrency" example:"4"`
}

// HealthResponse reports liveness.
type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}

// ErrorResponse is a uniform error payload returned by the API.
type ErrorResponse struct {
	Error string `json:"error" example:"inputURL is required"`
}
