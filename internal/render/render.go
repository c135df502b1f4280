package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"strings"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"

	"linkedin_poster/internal/logger"
	"linkedin_poster/internal/models"
)

const (
	canvasWidth  = 1200
	canvasHeight = 627

	// wrapMargin — суммарный горизонтальный отступ цитаты (по 100 px с
	// каждой стороны); строки переносятся, когда измеренная ширина
	// достигает canvasWidth-wrapMargin.
	wrapMargin    = 200
	maxQuoteLines = 3

	titleMaxChars = 40
	lineSpacing   = 80

	brandColor  = "#0077b5"
	strokeColor = "#004471"
	quoteColor  = "#f0f0f0"
	footerColor = "#cccccc"

	footerText = "#BusinessTrendsIndia"
)

// fontPaths — кандидаты системных шрифтов, проверяются по порядку.
var fontPaths = []string{
	"/usr/share/fonts/truetype/dejavu/DejaVuSans-Bold.ttf",
	"/usr/share/fonts/truetype/liberation/LiberationSans-Bold.ttf",
	"/usr/share/fonts/TTF/DejaVuSans-Bold.ttf",
	"/Library/Fonts/Arial.ttf",
	"C:\\Windows\\Fonts\\arial.ttf",
}

// Renderer рисует промо-карточку фиксированного размера 1200×627.
type Renderer struct {
	titleFace font.Face
	quoteFace font.Face
}

func NewRenderer() *Renderer {
	return &Renderer{
		titleFace: loadFace(64),
		quoteFace: loadFace(48),
	}
}

// loadFace загружает первый читаемый системный TTF в размере points;
// если ни один не доступен, возвращает встроенный минимальный шрифт.
// Встроенный шрифт измеряет текст иначе, поэтому разбиение на строки
// может отличаться между окружениями.
func loadFace(points float64) font.Face {
	for _, path := range fontPaths {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		parsed, err := opentype.Parse(data)
		if err != nil {
			continue
		}
		face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
			Size:    points,
			DPI:     72,
			Hinting: font.HintingFull,
		})
		if err != nil {
			continue
		}
		return face
	}
	return basicfont.Face7x13
}

// Render возвращает PNG-карточку для тренда и цитаты. При любой ошибке
// отрисовки отдаётся одноцветная заглушка того же размера с флагом
// Degraded.
func (r *Renderer) Render(trendTitle, quote string) models.RenderedImage {
	data, err := r.draw(trendTitle, quote)
	if err != nil {
		logger.WithStage("render").Errorf("Failed to render image: %v", err)
		return models.RenderedImage{PNG: fallbackImage(), Degraded: true}
	}
	return models.RenderedImage{PNG: data}
}

func (r *Renderer) draw(trendTitle, quote string) (data []byte, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("render panic: %v", p)
		}
	}()

	dc := gg.NewContext(canvasWidth, canvasHeight)
	dc.SetHexColor(brandColor)
	dc.Clear()

	// Заголовок с обводкой: четыре смещённых тёмных прохода под белым.
	title := "TRENDING: " + truncate(trendTitle, titleMaxChars)
	dc.SetFontFace(r.titleFace)
	dc.SetHexColor(strokeColor)
	for _, offset := range [][2]float64{{-2, -2}, {2, -2}, {-2, 2}, {2, 2}} {
		dc.DrawStringAnchored(title, canvasWidth/2+offset[0], 130+offset[1], 0.5, 0.5)
	}
	dc.SetHexColor("#ffffff")
	dc.DrawStringAnchored(title, canvasWidth/2, 130, 0.5, 0.5)

	dc.SetFontFace(r.quoteFace)
	lines := wrapQuote(dc, quote, canvasWidth-wrapMargin)
	dc.SetHexColor(quoteColor)
	for i, line := range lines {
		dc.DrawStringAnchored(line, canvasWidth/2, float64(280+i*lineSpacing), 0.5, 0.5)
	}

	dc.SetHexColor(footerColor)
	dc.DrawString(footerText, canvasWidth-300, canvasHeight-50)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// wrapQuote выполняет жадный перенос: слова добавляются в строку, пока
// измеренная ширина остаётся меньше maxWidth; всё после maxQuoteLines
// строк отбрасывается.
func wrapQuote(dc *gg.Context, quote string, maxWidth float64) []string {
	words := strings.Fields(quote)

	var lines []string
	var current []string
	for _, word := range words {
		test := strings.Join(append(current, word), " ")
		if width, _ := dc.MeasureString(test); width < maxWidth {
			current = append(current, word)
			continue
		}
		if len(current) > 0 {
			lines = append(lines, strings.Join(current, " "))
		}
		current = []string{word}
	}
	if len(current) > 0 {
		lines = append(lines, strings.Join(current, " "))
	}

	if len(lines) > maxQuoteLines {
		lines = lines[:maxQuoteLines]
	}
	return lines
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}

// fallbackImage кодирует одноцветный холст 1200×627 фирменного цвета.
func fallbackImage() []byte {
	img := image.NewRGBA(image.Rect(0, 0, canvasWidth, canvasHeight))
	blue := color.RGBA{R: 0x00, G: 0x77, B: 0xb5, A: 0xff}
	draw.Draw(img, img.Bounds(), &image.Uniform{C: blue}, image.Point{}, draw.Src)

	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}
