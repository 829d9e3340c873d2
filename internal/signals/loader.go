package signals

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/mfascan/mfascan/internal/config"
	"github.com/mfascan/mfascan/internal/model"
)

var (
	// ErrEmptyBundle is returned when the bundle input is empty.
	ErrEmptyBundle = errors.New("signal bundle is empty")

	// ErrMissingSite is returned when the bundle does not name the audited site.
	ErrMissingSite = errors.New("signal bundle does not name a site")
)

// Parse decodes a signal bundle from raw JSON, then validates and
// normalizes it. The returned bundle is safe for every analyzer: the
// viewport is positive, geometry is clamped, and the crawl status is a
// known value.
func Parse(data []byte) (*model.PageSignals, error) {
	if len(data) == 0 {
		return nil, ErrEmptyBundle
	}

	var bundle model.PageSignals
	if err := json.Unmarshal(data, &bundle); err != nil {
		return nil, fmt.Errorf("failed to decode signal bundle: %w", err)
	}
	if err := Normalize(&bundle); err != nil {
		return nil, err
	}
	return &bundle, nil
}

// Load reads and parses a signal bundle file.
func Load(path string) (*model.PageSignals, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read signal bundle: %w", err)
	}
	bundle, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return bundle, nil
}

// Normalize validates a decoded bundle and repairs what can be
// repaired in place.
//
// Design decision: Collectors run in hostile environments and emit
// whatever the page gave them. Negative sizes and absurd coordinates are
// routine, so the boundary clamps rather than rejects; only a missing
// site name is unrecoverable because nothing downstream can key on it.
func Normalize(bundle *model.PageSignals) error {
	if bundle.Site == "" {
		return ErrMissingSite
	}

	switch bundle.CrawlStatus {
	case model.CrawlStatusSuccess, model.CrawlStatusFallback,
		model.CrawlStatusBlocked, model.CrawlStatusFailed:
	case "":
		bundle.CrawlStatus = model.CrawlStatusSuccess
	default:
		return fmt.Errorf("unknown crawl status %q", bundle.CrawlStatus)
	}

	if bundle.Viewport.Width <= 0 {
		bundle.Viewport.Width = config.DefaultViewportWidth
	}
	if bundle.Viewport.Height <= 0 {
		bundle.Viewport.Height = config.DefaultViewportHeight
	}
	if bundle.Page.TotalHeight < 0 {
		bundle.Page.TotalHeight = 0
	}
	if bundle.Page.Width <= 0 {
		bundle.Page.Width = bundle.Viewport.Width
	}
	if bundle.Document.TotalElements < 0 {
		bundle.Document.TotalElements = 0
	}
	if bundle.Document.TextLength < 0 {
		bundle.Document.TextLength = 0
	}
	if bundle.AdRequestCount < 0 {
		bundle.AdRequestCount = 0
	}

	for i := range bundle.AdElements {
		clampRect(&bundle.AdElements[i].Rect.Width, &bundle.AdElements[i].Rect.Height)
		if bundle.AdElements[i].IframeDepth < 0 {
			bundle.AdElements[i].IframeDepth = 0
		}
	}
	for i := range bundle.VideoElements {
		clampRect(&bundle.VideoElements[i].Rect.Width, &bundle.VideoElements[i].Rect.Height)
	}

	requests := bundle.NetworkRequests[:0]
	for _, req := range bundle.NetworkRequests {
		if req.URL == "" {
			continue
		}
		requests = append(requests, req)
	}
	bundle.NetworkRequests = requests

	if bundle.External != nil {
		ext := bundle.External
		if ext.WordCount < 0 {
			ext.WordCount = 0
		}
		if ext.ContentScore < 0 {
			ext.ContentScore = 0
		}
		if ext.ContentScore > 1 {
			ext.ContentScore = 1
		}
		if ext.HealthScore < 0 {
			ext.HealthScore = 0
		}
		if ext.HealthScore > 100 {
			ext.HealthScore = 100
		}
	}

	return nil
}

func clampRect(width, height *float64) {
	if *width < 0 {
		*width = 0
	}
	if *height < 0 {
		*height = 0
	}
}

// LoadGAMRecords reads ad server reporting rows from a JSON file.
// The file holds either a bare array of records or an object with a
// "records" field, matching the two export shapes in the wild.
func LoadGAMRecords(path string) ([]model.GAMRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read ad server data: %w", err)
	}

	var records []model.GAMRecord
	if err := json.Unmarshal(data, &records); err == nil {
		return records, nil
	}

	var wrapped struct {
		Records []model.GAMRecord `json:"records"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("%s: failed to decode ad server data: %w", path, err)
	}
	return wrapped.Records, nil
}
