package trends

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"

	"linkedin_poster/internal/config"
	"linkedin_poster/internal/logger"
	"linkedin_poster/internal/models"
)

// businessKeywords — словарь бизнес-тематики; тренд проходит фильтр,
// если его заголовок содержит хотя бы одно из этих слов.
var businessKeywords = []string{
	"stock", "market", "business", "economy",
	"finance", "startup", "investment", "rupee",
	"sensex", "nifty", "company", "ipo", "gdp",
	"bank", "trade", "export", "import", "digital",
}

const (
	topN      = 10
	maxTrends = 3
)

// Source получает дневные тренды из RSS-ленты провайдера и фильтрует
// их до бизнес-тематики.
type Source struct {
	client  *http.Client
	baseURL string
	geo     string
	retry   retrypolicy.RetryPolicy[*models.TrendFeed]
}

func NewSource(cfg *config.Config) *Source {
	return &Source{
		client:  &http.Client{Timeout: cfg.HTTPTimeout},
		baseURL: strings.TrimRight(cfg.TrendsURL, "/"),
		geo:     cfg.TrendsGeo,
		retry: retrypolicy.NewBuilder[*models.TrendFeed]().
			WithMaxRetries(cfg.TrendAttempts - 1).
			WithDelay(cfg.TrendRetryDelay).
			WithJitterFactor(0.25).
			Build(),
	}
}

// Get возвращает от 1 до 3 трендов; второй результат true, если отдан
// запасной список. Ошибки провайдера не выходят за пределы компонента:
// после исчерпания повторов отдаётся fallback.
func (s *Source) Get(ctx context.Context) ([]models.Trend, bool) {
	log := logger.WithStage("trends").WithField("geo", s.geo)

	feed, err := failsafe.With(s.retry).Get(func() (*models.TrendFeed, error) {
		return s.fetchFeed(ctx)
	})
	if err != nil {
		log.Errorf("Failed to fetch trends: %v", err)
		return fallbackTrends(), true
	}

	matched := filterBusiness(feed.Channel.Items)
	if len(matched) == 0 {
		log.Info("No business trends matched, serving fallback list")
		return fallbackTrends(), true
	}

	log.Infof("Matched %d business trends", len(matched))
	return matched, false
}

func (s *Source) fetchFeed(ctx context.Context) (*models.TrendFeed, error) {
	url := fmt.Sprintf("%s/trending/rss?geo=%s", s.baseURL, s.geo)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("trends request failed: status %d", resp.StatusCode)
	}

	var feed models.TrendFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("decode trends feed: %w", err)
	}
	return &feed, nil
}

// filterBusiness просматривает первые topN элементов ленты и оставляет
// не более maxTrends с бизнес-словом в заголовке (без учёта регистра).
func filterBusiness(items []models.TrendItem) []models.Trend {
	if len(items) > topN {
		items = items[:topN]
	}

	var matched []models.Trend
	for _, item := range items {
		title := strings.ToLower(item.Title)
		for _, keyword := range businessKeywords {
			if strings.Contains(title, keyword) {
				traffic := item.ApproxTraffic
				if traffic == "" {
					traffic = "Trending"
				}
				matched = append(matched, models.Trend{Title: item.Title, Traffic: traffic})
				break
			}
		}
		if len(matched) == maxTrends {
			break
		}
	}
	return matched
}

func fallbackTrends() []models.Trend {
	return []models.Trend{
		{Title: "Indian Stock Market", Traffic: "Trending"},
		{Title: "Startup Ecosystem", Traffic: "Growing"},
	}
}
