package unsplash

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const onePhoto = `{"results": [{
	"urls": {"full": "https://img/full.jpg", "regular": "https://img/regular.jpg", "small": "https://img/small.jpg"},
	"user": {"name": "Ada Cook", "username": "ada", "links": {"html": "https://unsplash.com/@ada"}},
	"links": {"html": "https://unsplash.com/photos/abc"}
}]}`

func newTestClient(key, baseURL string, timeout time.Duration) *Client {
	c := NewClient(key, baseURL, timeout, zap.NewNop())
	c.sig = func() int { return 42 }
	return c
}

func TestSearchPhoto(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/photos", r.URL.Path)
		assert.Equal(t, "Client-ID secret", r.Header.Get("Authorization"))
		assert.Equal(t, "salad", r.URL.Query().Get("query"))
		assert.Equal(t, "1", r.URL.Query().Get("per_page"))
		fmt.Fprint(w, onePhoto)
	}))
	defer ts.Close()

	c := newTestClient("secret", ts.URL, time.Second)

	photo, err := c.SearchPhoto(context.Background(), "salad", "landscape")
	require.NoError(t, err)
	assert.Equal(t, "https://img/full.jpg", photo.URL)
	assert.Equal(t, "Ada Cook", photo.Photographer)
	assert.Equal(t, "https://unsplash.com/@ada", photo.PhotographerPage)
	assert.Equal(t, "https://unsplash.com/photos/abc", photo.UnsplashPage)
	assert.False(t, photo.Fallback)

	photo, err = c.SearchPhoto(context.Background(), "salad", "squarish")
	require.NoError(t, err)
	assert.Equal(t, "https://img/regular.jpg", photo.URL)
}

func TestSearchPhoto_Errors(t *testing.T) {
	_, err := newTestClient("", "http://unused", time.Second).SearchPhoto(context.Background(), "salad", "landscape")
	assert.ErrorIs(t, err, ErrMissingAccessKey)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"results": []}`)
	}))
	defer ts.Close()
	_, err = newTestClient("secret", ts.URL, time.Second).SearchPhoto(context.Background(), "salad", "landscape")
	assert.ErrorIs(t, err, ErrNoResults)
}

func TestRecipeImage_FallbackWithoutKey(t *testing.T) {
	photo := newTestClient("", "", 0).RecipeImage(context.Background(), "Pad Thai")
	assert.True(t, photo.Fallback)
	assert.Equal(t, "https://source.unsplash.com/1600x900/?Pad+Thai+food&sig=42", photo.URL)
	assert.Empty(t, photo.Photographer)
}

func TestBackground_FallbackOnError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, "Rate Limit Exceeded")
	}))
	defer ts.Close()

	photo := newTestClient("secret", ts.URL, time.Second).Background(context.Background(), "diet")
	assert.True(t, photo.Fallback)
	assert.Equal(t, FallbackURL(VariantQueries("diet"), 42), photo.URL)
}

func TestBackground_FallbackOnDeadline(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer ts.Close()
	defer close(release)

	start := time.Now()
	photo := newTestClient("secret", ts.URL, 50*time.Millisecond).Background(context.Background(), "home")
	assert.True(t, photo.Fallback)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestBackground_Success(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "fresh produce", r.URL.Query().Get("query"))
		assert.Equal(t, "landscape", r.URL.Query().Get("orientation"))
		fmt.Fprint(w, onePhoto)
	}))
	defer ts.Close()

	photo := newTestClient("secret", ts.URL, time.Second).Background(context.Background(), "ingredients")
	assert.False(t, photo.Fallback)
	assert.Equal(t, "https://img/full.jpg", photo.URL)
}

func TestVariantQueries_DefaultsToHome(t *testing.T) {
	assert.Equal(t, VariantQueries("home"), VariantQueries("nope"))
}

func TestThumbnail(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 200, 100))
	for x := 0; x < 200; x++ {
		for y := 0; y < 100; y++ {
			src.Set(x, y, color.RGBA{R: 200, G: 120, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, src))

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(buf.Bytes())
	}))
	defer ts.Close()

	data, err := newTestClient("", "", 0).Thumbnail(context.Background(), ts.URL+"/photo.png", 50)
	require.NoError(t, err)

	thumb, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 50, thumb.Bounds().Dx())
	assert.Equal(t, 25, thumb.Bounds().Dy())
}
