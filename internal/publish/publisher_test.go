package publish_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"linkedin_poster/internal/config"
	"linkedin_poster/internal/models"
	"linkedin_poster/internal/publish"

	"github.com/stretchr/testify/require"
)

const mechanismKey = "com.linkedin.digitalmedia.uploading.MediaUploadHttpRequest"

// fakePlatform имитирует три точки контент-API: регистрацию актива,
// приём байт и создание поста.
type fakePlatform struct {
	server *httptest.Server

	registerStatus int
	uploadStatus   int
	postStatus     int

	registerCalled bool
	uploadCalled   bool
	uploadedBytes  []byte
	postBody       map[string]any
	postAuth       string
}

func newFakePlatform(t *testing.T) *fakePlatform {
	t.Helper()
	fake := &fakePlatform{
		registerStatus: http.StatusOK,
		uploadStatus:   http.StatusCreated,
		postStatus:     http.StatusCreated,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/v2/assets", func(w http.ResponseWriter, r *http.Request) {
		fake.registerCalled = true
		if fake.registerStatus != http.StatusOK {
			w.WriteHeader(fake.registerStatus)
			return
		}
		fmt.Fprintf(w, `{"value":{"uploadMechanism":{%q:{"uploadUrl":%q}},"asset":"urn:li:digitalmediaAsset:test123"}}`,
			mechanismKey, fake.server.URL+"/upload")
	})
	mux.HandleFunc("/upload", func(w http.ResponseWriter, r *http.Request) {
		fake.uploadCalled = true
		fake.uploadedBytes, _ = io.ReadAll(r.Body)
		w.WriteHeader(fake.uploadStatus)
	})
	mux.HandleFunc("/v2/ugcPosts", func(w http.ResponseWriter, r *http.Request) {
		fake.postAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &fake.postBody)
		if fake.postStatus != http.StatusCreated {
			w.WriteHeader(fake.postStatus)
			fmt.Fprint(w, `{"message":"forbidden"}`)
			return
		}
		w.WriteHeader(http.StatusCreated)
	})

	fake.server = httptest.NewServer(mux)
	t.Cleanup(fake.server.Close)
	return fake
}

func (f *fakePlatform) publisher() *publish.Publisher {
	return publish.NewPublisher(&config.Config{
		LinkedInURL:       f.server.URL,
		LinkedInToken:     "test-token",
		LinkedInPersonURN: "abc123",
		HTTPTimeout:       5 * time.Second,
	})
}

func (f *fakePlatform) shareContent(t *testing.T) map[string]any {
	t.Helper()
	specific, ok := f.postBody["specificContent"].(map[string]any)
	require.True(t, ok, "post body missing specificContent")
	share, ok := specific["com.linkedin.ugc.ShareContent"].(map[string]any)
	require.True(t, ok, "post body missing ShareContent")
	return share
}

var testContent = models.GeneratedContent{
	FullPost:   "Markets on the move 📈\n\nWhat do you think?\n\n#BusinessIndia\n\nBased on trending searches",
	TrendTitle: "Sensex hits record high",
	Hashtags:   []string{"#BusinessIndia"},
}

func testImage() *models.RenderedImage {
	return &models.RenderedImage{PNG: []byte("png-bytes")}
}

func TestPublish_WithImage(t *testing.T) {
	fake := newFakePlatform(t)

	ok := fake.publisher().Publish(context.Background(), testContent, testImage())

	require.True(t, ok)
	require.True(t, fake.registerCalled)
	require.True(t, fake.uploadCalled)
	require.Equal(t, []byte("png-bytes"), fake.uploadedBytes)
	require.Equal(t, "Bearer test-token", fake.postAuth)

	require.Equal(t, "urn:li:person:abc123", fake.postBody["author"])
	require.Equal(t, "PUBLISHED", fake.postBody["lifecycleState"])

	share := fake.shareContent(t)
	require.Equal(t, "IMAGE", share["shareMediaCategory"])
	media, ok2 := share["media"].([]any)
	require.True(t, ok2)
	require.Len(t, media, 1)
	mediaBlock := media[0].(map[string]any)
	require.Equal(t, "urn:li:digitalmediaAsset:test123", mediaBlock["media"])
	require.Equal(t, "READY", mediaBlock["status"])
	description := mediaBlock["description"].(map[string]any)
	require.Equal(t, "Business Trend: Sensex hits record high", description["text"])
}

func TestPublish_TextOnlyWhenNoImage(t *testing.T) {
	fake := newFakePlatform(t)

	ok := fake.publisher().Publish(context.Background(), testContent, nil)

	require.True(t, ok)
	require.False(t, fake.registerCalled)
	require.False(t, fake.uploadCalled)

	share := fake.shareContent(t)
	require.Equal(t, "NONE", share["shareMediaCategory"])
	require.NotContains(t, share, "media")
	commentary := share["shareCommentary"].(map[string]any)
	require.Equal(t, testContent.FullPost, commentary["text"])
}

func TestPublish_RegisterFailureSkipsUpload(t *testing.T) {
	fake := newFakePlatform(t)
	fake.registerStatus = http.StatusForbidden

	ok := fake.publisher().Publish(context.Background(), testContent, testImage())

	require.True(t, ok)
	require.True(t, fake.registerCalled)
	require.False(t, fake.uploadCalled)
	require.Equal(t, "NONE", fake.shareContent(t)["shareMediaCategory"])
}

func TestPublish_UploadFailureDegradesToTextOnly(t *testing.T) {
	fake := newFakePlatform(t)
	fake.uploadStatus = http.StatusBadGateway

	ok := fake.publisher().Publish(context.Background(), testContent, testImage())

	require.True(t, ok)
	require.True(t, fake.uploadCalled)
	require.Equal(t, "NONE", fake.shareContent(t)["shareMediaCategory"])
}

func TestPublish_PostFailureReturnsFalse(t *testing.T) {
	fake := newFakePlatform(t)
	fake.postStatus = http.StatusUnprocessableEntity

	ok := fake.publisher().Publish(context.Background(), testContent, testImage())

	require.False(t, ok)
}

func TestPublish_LongTitleTruncatedInDescription(t *testing.T) {
	fake := newFakePlatform(t)

	longTitle := strings.Repeat("x", 250)
	content := testContent
	content.TrendTitle = longTitle

	ok := fake.publisher().Publish(context.Background(), content, testImage())
	require.True(t, ok)

	share := fake.shareContent(t)
	media := share["media"].([]any)
	description := media[0].(map[string]any)["description"].(map[string]any)
	require.Equal(t, "Business Trend: "+strings.Repeat("x", 200), description["text"])
}
