package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"linkedin_poster/internal/config"
	"linkedin_poster/internal/logger"
	"linkedin_poster/internal/models"
)

// uploadMechanismKey — ключ, под которым платформа возвращает URL для
// загрузки байт; часть внешнего протокола, менять нельзя.
const uploadMechanismKey = "com.linkedin.digitalmedia.uploading.MediaUploadHttpRequest"

const descriptionMaxChars = 200

// Publisher выполняет двухфазную загрузку изображения и создание поста
// через контент-API социальной сети.
type Publisher struct {
	client    *http.Client
	baseURL   string
	token     string
	personURN string
}

func NewPublisher(cfg *config.Config) *Publisher {
	return &Publisher{
		client:    &http.Client{Timeout: cfg.HTTPTimeout},
		baseURL:   strings.TrimRight(cfg.LinkedInURL, "/"),
		token:     cfg.LinkedInToken,
		personURN: cfg.LinkedInPersonURN,
	}
}

// Publish публикует пост. Если image не nil, сначала выполняется
// двухфазная загрузка (регистрация актива, затем PUT байт); любая
// ошибка на этом пути понижает публикацию до текстовой, но не
// прерывает её. true возвращается только при HTTP 201 на создании поста.
func (p *Publisher) Publish(ctx context.Context, content models.GeneratedContent, image *models.RenderedImage) bool {
	log := logger.WithStage("publish")

	var assetURN string
	if image != nil {
		urn, err := p.uploadImage(ctx, image.PNG)
		if err != nil {
			log.Warnf("Image upload failed, posting without image: %v", err)
		} else {
			assetURN = urn
		}
	}

	return p.createPost(ctx, content, assetURN)
}

func (p *Publisher) uploadImage(ctx context.Context, data []byte) (string, error) {
	uploadURL, assetURN, err := p.registerUpload(ctx)
	if err != nil {
		return "", err
	}
	if err := p.uploadBytes(ctx, uploadURL, data); err != nil {
		return "", err
	}
	return assetURN, nil
}

type registerUploadRequest struct {
	RegisterUploadRequest registerUploadBody `json:"registerUploadRequest"`
}

type registerUploadBody struct {
	Recipes              []string              `json:"recipes"`
	Owner                string                `json:"owner"`
	ServiceRelationships []serviceRelationship `json:"serviceRelationships"`
}

type serviceRelationship struct {
	RelationshipType string `json:"relationshipType"`
	Identifier       string `json:"identifier"`
}

type registerUploadResponse struct {
	Value struct {
		UploadMechanism map[string]struct {
			UploadURL string `json:"uploadUrl"`
		} `json:"uploadMechanism"`
		Asset string `json:"asset"`
	} `json:"value"`
}

// registerUpload объявляет намерение загрузить изображение и возвращает
// URL для загрузки байт и URN будущего актива.
func (p *Publisher) registerUpload(ctx context.Context) (string, string, error) {
	payload := registerUploadRequest{
		RegisterUploadRequest: registerUploadBody{
			Recipes: []string{"urn:li:digitalmediaRecipe:feedshare-image"},
			Owner:   "urn:li:person:" + p.personURN,
			ServiceRelationships: []serviceRelationship{{
				RelationshipType: "OWNER",
				Identifier:       "urn:li:userGeneratedContent",
			}},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", "", fmt.Errorf("register upload: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.baseURL+"/v2/assets?action=registerUpload", bytes.NewReader(body))
	if err != nil {
		return "", "", fmt.Errorf("register upload: create request: %w", err)
	}
	p.setJSONHeaders(req)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("register upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", "", fmt.Errorf("register upload: status %d: %s",
			resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var parsed registerUploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", "", fmt.Errorf("register upload: decode response: %w", err)
	}

	mechanism, ok := parsed.Value.UploadMechanism[uploadMechanismKey]
	if !ok || mechanism.UploadURL == "" || parsed.Value.Asset == "" {
		return "", "", errors.New("register upload: response missing upload URL or asset")
	}
	return mechanism.UploadURL, parsed.Value.Asset, nil
}

// uploadBytes отправляет сырые байты изображения на выданный URL.
func (p *Publisher) uploadBytes(ctx context.Context, uploadURL string, data []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("upload image: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.token)

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("upload image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("upload image: status %d: %s",
			resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	return nil
}

type ugcPost struct {
	Author          string                  `json:"author"`
	LifecycleState  string                  `json:"lifecycleState"`
	SpecificContent map[string]shareContent `json:"specificContent"`
	Visibility      map[string]string       `json:"visibility"`
}

type shareContent struct {
	ShareCommentary    textBlock    `json:"shareCommentary"`
	ShareMediaCategory string       `json:"shareMediaCategory"`
	Media              []mediaBlock `json:"media,omitempty"`
}

type textBlock struct {
	Text string `json:"text"`
}

type mediaBlock struct {
	Status      string    `json:"status"`
	Description textBlock `json:"description"`
	Media       string    `json:"media"`
}

func (p *Publisher) createPost(ctx context.Context, content models.GeneratedContent, assetURN string) bool {
	log := logger.WithStage("publish").WithField("trend", content.TrendTitle)

	share := shareContent{
		ShareCommentary:    textBlock{Text: content.FullPost},
		ShareMediaCategory: "NONE",
	}
	if assetURN != "" {
		share.ShareMediaCategory = "IMAGE"
		share.Media = []mediaBlock{{
			Status:      "READY",
			Description: textBlock{Text: "Business Trend: " + truncate(content.TrendTitle, descriptionMaxChars)},
			Media:       assetURN,
		}}
	}

	payload := ugcPost{
		Author:         "urn:li:person:" + p.personURN,
		LifecycleState: "PUBLISHED",
		SpecificContent: map[string]shareContent{
			"com.linkedin.ugc.ShareContent": share,
		},
		Visibility: map[string]string{
			"com.linkedin.ugc.MemberNetworkVisibility": "PUBLIC",
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		log.Errorf("Failed to marshal post payload: %v", err)
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v2/ugcPosts", bytes.NewReader(body))
	if err != nil {
		log.Errorf("Failed to build post request: %v", err)
		return false
	}
	p.setJSONHeaders(req)

	resp, err := p.client.Do(req)
	if err != nil {
		log.Errorf("Post request failed: %v", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		log.WithField("status", resp.StatusCode).Errorf("Post failed: %s",
			strings.TrimSpace(string(respBody)))
		return false
	}

	log.Infof("Post published, preview: %s", truncate(content.FullPost, 100))
	return true
}

func (p *Publisher) setJSONHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+p.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Restli-Protocol-Version", "2.0.0")
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
