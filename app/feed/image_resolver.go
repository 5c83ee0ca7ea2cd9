package feed

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
)

const maxPageSize = 5 << 20

type imageStrategy struct {
	selector string
	attr     string
}

// Tried in order; the first non-empty value wins.
var imageStrategies = []imageStrategy{
	{`meta[property="og:image"]`, "content"},
	{`meta[property="og:image:url"]`, "content"},
	{`meta[property="twitter:image"]`, "content"},
	{`meta[name="twitter:image"]`, "content"},
	{`meta[property="twitter:imageUrl"]`, "content"},
	{`header img.avatar`, "src"},
	{`.article-issue img`, "src"},
}

var placeholderImages = []string{
	"missing.png",
	"missing.jpg",
	"missing-image.png",
	"no-image.png",
	"placeholder.png",
}

// Links that never lead to an HTML article worth scraping.
var (
	skippedExtensions = []string{".pdf", ".exe", ".gif", ".jpg", ".jpeg", ".mpg", ".mp4", ".mp3", ".js", ".xml"}
	skippedHosts      = []string{"google.com", "github.com", "github.io", "kit.edu", "iotify.help", ".mobi", ".website"}
)

// PageInfo is what the resolver learns from an article page.
type PageInfo struct {
	ImageURL string
	Excerpt  string
}

type ImageResolver struct {
	client    HTTPClient
	extractor *ContentExtractor
	userAgent string
	timeout   time.Duration
}

func NewImageResolver(client HTTPClient, extractor *ContentExtractor, userAgent string, timeout time.Duration) *ImageResolver {
	return &ImageResolver{
		client:    client,
		extractor: extractor,
		userAgent: userAgent,
		timeout:   timeout,
	}
}

// Resolve returns a representative image URL for the article, or "" when none is found.
func (r *ImageResolver) Resolve(ctx context.Context, articleURL string) string {
	return r.Inspect(ctx, articleURL).ImageURL
}

// Inspect fetches the article page once and extracts the image and a text excerpt.
// It never fails: every problem yields an empty field.
func (r *ImageResolver) Inspect(ctx context.Context, articleURL string) PageInfo {
	if articleURL == "" || shouldSkipPage(articleURL) {
		return PageInfo{}
	}

	data, err := r.fetchPage(ctx, articleURL)
	if err != nil {
		slog.Debug("Article fetch failed", "url", articleURL, "error", err)
		return PageInfo{}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		slog.Debug("Article HTML parse failed", "url", articleURL, "error", err)
		return PageInfo{}
	}

	info := PageInfo{
		ImageURL: NormalizeImageURL(selectImage(doc), articleURL),
	}

	if r.extractor != nil {
		pageURL, _ := url.Parse(articleURL)
		if excerpt, err := r.extractor.Excerpt(data, pageURL); err == nil {
			info.Excerpt = excerpt
		}
	}

	return info
}

func (r *ImageResolver) fetchPage(ctx context.Context, articleURL string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodGet, articleURL, nil)
	if err != nil {
		return nil, &TransportError{URL: articleURL, Err: err}
	}

	req.Header.Set("User-Agent", r.userAgent)
	req.Header.Set("Accept", "text/html")
	req.Header.Set("Connection", "close")
	req.Close = true

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, &TransportError{URL: articleURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, &TransportError{URL: articleURL, StatusCode: resp.StatusCode}
	}

	body := io.LimitReader(resp.Body, maxPageSize)
	utf8Body, err := charset.NewReader(body, resp.Header.Get("Content-Type"))
	if err != nil {
		utf8Body = body
	}

	data, err := io.ReadAll(utf8Body)
	if err != nil {
		return nil, &TransportError{URL: articleURL, Err: err}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &TransportError{URL: articleURL, Err: io.ErrUnexpectedEOF}
	}

	return data, nil
}

func selectImage(doc *goquery.Document) string {
	for _, strategy := range imageStrategies {
		value, ok := doc.Find(strategy.selector).First().Attr(strategy.attr)
		if ok && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

// NormalizeImageURL rejects placeholder and inline images and makes root- and
// parent-relative values absolute against the article's scheme and host.
// ".." segments are dropped rather than resolved.
func NormalizeImageURL(value, articleURL string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}

	lower := strings.ToLower(value)
	if strings.HasPrefix(lower, "blob:") || strings.HasPrefix(lower, "data:") {
		return ""
	}
	for _, placeholder := range placeholderImages {
		if strings.HasSuffix(lower, placeholder) {
			return ""
		}
	}

	switch {
	case strings.HasPrefix(value, "//"):
		base, err := url.Parse(articleURL)
		if err != nil || base.Scheme == "" {
			return ""
		}
		return base.Scheme + ":" + value
	case strings.HasPrefix(value, "/"), strings.HasPrefix(value, "../"):
		base, err := url.Parse(articleURL)
		if err != nil || base.Scheme == "" || base.Host == "" {
			return ""
		}
		return base.Scheme + "://" + base.Host + stripDotDot(value)
	}

	return value
}

func stripDotDot(p string) string {
	segments := strings.Split(strings.TrimLeft(p, "/"), "/")
	kept := segments[:0]
	for _, segment := range segments {
		if segment == ".." {
			continue
		}
		kept = append(kept, segment)
	}
	return "/" + strings.Join(kept, "/")
}

func shouldSkipPage(link string) bool {
	lower := strings.ToLower(link)
	for _, ext := range skippedExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	for _, host := range skippedHosts {
		if strings.Contains(lower, host) {
			return true
		}
	}
	return false
}
