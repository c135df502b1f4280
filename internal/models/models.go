package models

// Trend — одна трендовая тема поиска: заголовок и качественная оценка
// трафика. Articles зарезервировано и пока не заполняется.
type Trend struct {
	Title    string
	Traffic  string
	Articles []string
}

// GeneratedContent — собранный текст поста: готовый full_post,
// исходный тренд и список хэштегов. Fallback=true означает, что текст
// построен по запасному шаблону, а не сервисом генерации.
type GeneratedContent struct {
	FullPost   string
	TrendTitle string
	Hashtags   []string
	Fallback   bool
}

// RenderedImage — готовые PNG-байты карточки 1200×627.
// Degraded=true означает одноцветную заглушку вместо полной отрисовки.
type RenderedImage struct {
	PNG      []byte
	Degraded bool
}
