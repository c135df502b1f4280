package content_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"linkedin_poster/internal/config"
	"linkedin_poster/internal/content"
	"linkedin_poster/internal/models"

	"github.com/stretchr/testify/require"
)

const validJSON = `{
	"caption": "Markets on the move 📈",
	"hashtags": ["#BusinessIndia", "#Sensex", "#Economy", "#Finance", "#Markets"],
	"question": "Where do you see the index next quarter?",
	"source_mention": "Based on trending searches"
}`

const wantFullPost = "Markets on the move 📈\n\n" +
	"Where do you see the index next quarter?\n\n" +
	"#BusinessIndia #Sensex #Economy #Finance #Markets\n\n" +
	"Based on trending searches"

var testTrend = models.Trend{Title: "Sensex hits record high", Traffic: "200K+"}

// geminiServer отвечает текстом text в формате generateContent.
func geminiServer(t *testing.T, text string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		response := map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]any{{"text": text}}}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(response)
	}))
}

func testGenerator(url string) *content.Generator {
	return content.NewGenerator(&config.Config{
		GeminiURL:    url,
		GeminiAPIKey: "test-key",
		GeminiModel:  "gemini-1.5-flash",
		HTTPTimeout:  5 * time.Second,
	})
}

func TestGenerate_AssemblesFullPost(t *testing.T) {
	testCases := []struct {
		name string
		text string
	}{
		{name: "plain json", text: validJSON},
		{name: "json fence", text: "```json\n" + validJSON + "\n```"},
		{name: "bare fence", text: "```\n" + validJSON + "\n```"},
		{name: "fence with prose before", text: "Here is the post:\n```json\n" + validJSON + "\n```"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			server := geminiServer(t, tc.text)
			defer server.Close()

			result := testGenerator(server.URL).Generate(context.Background(), testTrend)

			require.False(t, result.Fallback)
			require.Equal(t, wantFullPost, result.FullPost)
			require.Equal(t, "Sensex hits record high", result.TrendTitle)
			require.Len(t, result.Hashtags, 5)
		})
	}
}

func TestGenerate_SendsTrendInPrompt(t *testing.T) {
	var gotPath, gotPrompt string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		var req struct {
			Contents []struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"contents"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if len(req.Contents) > 0 && len(req.Contents[0].Parts) > 0 {
			gotPrompt = req.Contents[0].Parts[0].Text
		}
		fmt.Fprintf(w, `{"candidates":[{"content":{"parts":[{"text":%q}]}}]}`, validJSON)
	}))
	defer server.Close()

	testGenerator(server.URL).Generate(context.Background(), testTrend)

	require.Equal(t, "/models/gemini-1.5-flash:generateContent", gotPath)
	require.Contains(t, gotPrompt, `"Sensex hits record high"`)
	require.Contains(t, gotPrompt, "200K+")
}

func TestGenerate_FallbackPaths(t *testing.T) {
	testCases := []struct {
		name string
		text string
	}{
		{name: "not json", text: "I cannot produce JSON today"},
		{name: "missing caption", text: `{"hashtags":["#a"],"question":"Q?","source_mention":"s"}`},
		{name: "missing question", text: `{"caption":"c","hashtags":["#a"],"source_mention":"s"}`},
		{name: "missing hashtags", text: `{"caption":"c","question":"Q?","source_mention":"s"}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			server := geminiServer(t, tc.text)
			defer server.Close()

			result := testGenerator(server.URL).Generate(context.Background(), testTrend)

			require.True(t, result.Fallback)
			require.Contains(t, result.FullPost, "Trending in Indian Business: Sensex hits record high")
			require.Len(t, result.Hashtags, 5)
		})
	}
}

func TestGenerate_TransportErrorFallsBack(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	server.Close() // закрыт заранее: соединение откажет

	result := testGenerator(server.URL).Generate(context.Background(), testTrend)
	require.True(t, result.Fallback)
	require.NotEmpty(t, result.FullPost)
}

func TestGenerate_FallbackIsDeterministic(t *testing.T) {
	server := geminiServer(t, "not json")
	defer server.Close()

	generator := testGenerator(server.URL)
	first := generator.Generate(context.Background(), testTrend)
	second := generator.Generate(context.Background(), testTrend)

	require.True(t, first.Fallback)
	require.Equal(t, first.FullPost, second.FullPost)
	require.Equal(t,
		"🚀 Trending in Indian Business: Sensex hits record high\n\n"+
			"What's your take on this development? Share your thoughts below! 👇\n\n"+
			"#BusinessIndia #IndianEconomy #MarketTrends #StartupIndia #DigitalGrowth\n\n"+
			"Based on trending searches",
		first.FullPost)
}
