package pipeline

import (
	"context"
	"strings"

	"linkedin_poster/internal/logger"
	"linkedin_poster/internal/models"
)

// Интерфейсы этапов; конкретные реализации подставляются в main,
// тесты подставляют заглушки.

type TrendSource interface {
	Get(ctx context.Context) ([]models.Trend, bool)
}

type ContentGenerator interface {
	Generate(ctx context.Context, trend models.Trend) models.GeneratedContent
}

type ImageRenderer interface {
	Render(trendTitle, quote string) models.RenderedImage
}

type PostPublisher interface {
	Publish(ctx context.Context, content models.GeneratedContent, image *models.RenderedImage) bool
}

type RunGuard interface {
	Acquire(ctx context.Context) (bool, error)
}

// Pipeline последовательно выполняет этапы публикации: тренды →
// генерация текста → отрисовка карточки → публикация.
type Pipeline struct {
	guard     RunGuard
	trends    TrendSource
	generator ContentGenerator
	renderer  ImageRenderer
	publisher PostPublisher
}

func New(guard RunGuard, trends TrendSource, generator ContentGenerator, renderer ImageRenderer, publisher PostPublisher) *Pipeline {
	return &Pipeline{
		guard:     guard,
		trends:    trends,
		generator: generator,
		renderer:  renderer,
		publisher: publisher,
	}
}

// Run выполняет один прогон конвейера и возвращает общий успех.
// Ошибки отдельных этапов не прерывают прогон: каждый этап отдаёт
// запасное значение, и только результат публикации решает исход.
func (p *Pipeline) Run(ctx context.Context) bool {
	log := logger.WithStage("pipeline")

	acquired, err := p.guard.Acquire(ctx)
	if err != nil {
		log.Warnf("Run lock unavailable, continuing unguarded: %v", err)
	} else if !acquired {
		log.Info("Post already published today, skipping run")
		return true
	}

	log.Info("Fetching business trends")
	trendList, usedFallback := p.trends.Get(ctx)
	if usedFallback {
		log.Warn("Serving fallback trend list")
	}

	selected := trendList[0]
	log.WithField("trend", selected.Title).
		WithField("traffic", selected.Traffic).
		Info("Selected trend")

	log.Info("Generating post content")
	generated := p.generator.Generate(ctx, selected)
	if generated.Fallback {
		log.Warn("Serving fallback post content")
	}
	log.WithField("chars", len(generated.FullPost)).Info("Content ready")

	log.Info("Rendering post image")
	image := p.renderer.Render(selected.Title, firstLine(generated.FullPost))
	log.WithField("bytes", len(image.PNG)).Info("Image ready")

	var imageRef *models.RenderedImage
	if len(image.PNG) > 0 {
		imageRef = &image
	}

	log.Info("Publishing post")
	success := p.publisher.Publish(ctx, generated, imageRef)

	if success {
		log.Info("Run completed: SUCCESS")
	} else {
		log.Error("Run completed: FAILED")
	}
	return success
}

// firstLine — источник «цитаты» для карточки: первая строка поста.
func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}
