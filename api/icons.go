package api

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"

	"forecastmail/internal/logger"
)

// Icon images live on a deterministic per-code URL.
const defaultIconURLTemplate = "https://developer.accuweather.com/sites/default/files/%s-s.png"

// IconCache fetches weather icon images and memoizes them for one pipeline
// run. Each distinct code is fetched at most once; a failed fetch is
// remembered as a nil entry so later lookups fall straight through to the
// textual fallback. The cache is created per run and discarded afterward.
type IconCache struct {
	client      *resty.Client
	urlTemplate string
	icons       map[string][]byte
}

// NewIconCache creates an empty per-run icon cache.
func NewIconCache() *IconCache {
	return &IconCache{
		client: resty.New().
			SetHeader("User-Agent", userAgent).
			SetTimeout(defaultTimeout),
		urlTemplate: defaultIconURLTemplate,
		icons:       make(map[string][]byte),
	}
}

// Resolve returns the image bytes for a zero-padded two-digit icon code, or
// nil when the code is empty or its one fetch attempt failed.
func (c *IconCache) Resolve(ctx context.Context, code string) []byte {
	code = PadIconCode(code)
	if code == "" {
		return nil
	}

	if data, ok := c.icons[code]; ok {
		return data
	}

	url := fmt.Sprintf(c.urlTemplate, code)
	resp, err := c.client.R().
		SetContext(ctx).
		Get(url)

	if err != nil {
		logger.Warn("Icon fetch failed for code %s: %v", code, err)
		c.icons[code] = nil
		return nil
	}

	if !resp.IsSuccess() {
		logger.Warn("Icon fetch for code %s returned HTTP %d", code, resp.StatusCode())
		c.icons[code] = nil
		return nil
	}

	data := resp.Body()
	if len(data) == 0 {
		logger.Warn("Icon fetch for code %s returned an empty body", code)
		c.icons[code] = nil
		return nil
	}

	c.icons[code] = data
	logger.Debug("Cached icon %s (%d bytes)", code, len(data))

	return data
}

// PadIconCode zero-pads a single-digit icon code to the two-digit form used
// by the icon URL and the cache key.
func PadIconCode(code string) string {
	if len(code) == 1 {
		return "0" + code
	}
	return code
}
