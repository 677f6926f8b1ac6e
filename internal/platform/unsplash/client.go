package unsplash

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nfnt/resize"
	"go.uber.org/zap"
)

// ErrMissingAccessKey is returned when no Unsplash access key is configured.
var ErrMissingAccessKey = errors.New("missing unsplash access key")

// ErrNoResults is returned when a search finds no photo.
var ErrNoResults = errors.New("no unsplash results")

const (
	// DefaultBaseURL is the Unsplash API root.
	DefaultBaseURL = "https://api.unsplash.com"
	// DefaultTimeout bounds a best-effort photo lookup.
	DefaultTimeout = 3 * time.Second

	fallbackBase = "https://source.unsplash.com/1600x900/"
)

// variantQueries are the search terms used for each view background.
var variantQueries = map[string][]string{
	"home":        {"healthy food", "wellness", "balanced diet"},
	"diet":        {"salad", "meal prep", "healthy meal"},
	"ingredients": {"fresh produce", "ingredients", "herbs"},
	"favorites":   {"gourmet", "comfort food", "colorful food"},
}

// Photo is a resolved image and its attribution. Fallback photos carry no attribution.
type Photo struct {
	URL              string `json:"url"`
	Photographer     string `json:"photographer,omitempty"`
	PhotographerPage string `json:"photographer_page,omitempty"`
	UnsplashPage     string `json:"unsplash_page,omitempty"`
	Fallback         bool   `json:"fallback"`
}

type searchResult struct {
	Results []struct {
		URLs struct {
			Full    string `json:"full"`
			Regular string `json:"regular"`
			Small   string `json:"small"`
		} `json:"urls"`
		User struct {
			Name     string `json:"name"`
			Username string `json:"username"`
			Links    struct {
				HTML string `json:"html"`
			} `json:"links"`
		} `json:"user"`
		Links struct {
			HTML string `json:"html"`
		} `json:"links"`
	} `json:"results"`
}

// Client searches Unsplash for single photos.
type Client struct {
	httpClient *http.Client
	accessKey  string
	baseURL    string
	timeout    time.Duration
	logger     *zap.Logger
	sig        func() int
}

// NewClient creates a new Unsplash client. An empty access key is allowed;
// every lookup then resolves to a fallback image.
func NewClient(accessKey, baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		httpClient: &http.Client{},
		accessKey:  accessKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		timeout:    timeout,
		logger:     logger,
		sig:        func() int { return rand.Intn(10000) },
	}
}

// VariantQueries returns the search terms for a background variant, defaulting to "home".
func VariantQueries(variant string) []string {
	if q, ok := variantQueries[variant]; ok {
		return q
	}
	return variantQueries["home"]
}

// FallbackURL builds the generated image URL used when a lookup fails.
func FallbackURL(queries []string, sig int) string {
	return fmt.Sprintf("%s?%s&sig=%d", fallbackBase, url.QueryEscape(strings.Join(queries, ",")), sig)
}

// SearchPhoto returns the first photo for query. orientation is "landscape" or "squarish".
func (c *Client) SearchPhoto(ctx context.Context, query, orientation string) (*Photo, error) {
	if c.accessKey == "" {
		return nil, ErrMissingAccessKey
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("per_page", "1")
	params.Set("orientation", orientation)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search/photos?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Client-ID "+c.accessKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("unsplash API error: %d %s", resp.StatusCode, strings.TrimSpace(string(text)))
	}

	var result searchResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response body: %w", err)
	}
	if len(result.Results) == 0 {
		return nil, ErrNoResults
	}

	p := result.Results[0]
	photo := &Photo{
		PhotographerPage: p.User.Links.HTML,
		UnsplashPage:     p.Links.HTML,
	}
	if orientation == "squarish" {
		photo.URL = firstNonEmpty(p.URLs.Regular, p.URLs.Small)
	} else {
		photo.URL = firstNonEmpty(p.URLs.Full, p.URLs.Regular)
	}
	photo.Photographer = firstNonEmpty(p.User.Name, p.User.Username, "Unsplash")
	if photo.URL == "" {
		return nil, ErrNoResults
	}
	return photo, nil
}

// Background resolves the background photo for a view variant.
func (c *Client) Background(ctx context.Context, variant string) Photo {
	queries := VariantQueries(variant)
	return c.lookup(ctx, queries[0], "landscape", queries)
}

// RecipeImage resolves a card photo for a recipe name.
func (c *Client) RecipeImage(ctx context.Context, recipeName string) Photo {
	query := strings.TrimSpace(recipeName + " food")
	return c.lookup(ctx, query, "squarish", []string{query})
}

// lookup runs one search under the client deadline and falls back on any failure.
func (c *Client) lookup(ctx context.Context, query, orientation string, fallback []string) Photo {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	photo, err := c.SearchPhoto(ctx, query, orientation)
	if err != nil {
		c.logger.Info("Using fallback photo", zap.String("query", query), zap.Error(err))
		return Photo{URL: FallbackURL(fallback, c.sig()), Fallback: true}
	}
	return *photo
}

// Thumbnail downloads an image and returns it as a JPEG scaled to width, keeping the aspect ratio.
func (c *Client) Thumbnail(ctx context.Context, imageURL string, width uint) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image download returned %d", resp.StatusCode)
	}

	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	img = resize.Resize(width, 0, img, resize.Lanczos3)

	var out bytes.Buffer
	if err := jpeg.Encode(&out, img, &jpeg.Options{Quality: 85}); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return out.Bytes(), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
