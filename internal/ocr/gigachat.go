package ocr

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"docflow/pkg/config"

	"github.com/Role1776/gigago"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	EngineGigaChat = "gigachat"

	gigaChatBaseURL  = "https://gigachat.devices.sberbank.ru/api/v1"
	gigaChatOAuthURL = "https://ngw.devices.sberbank.ru:9443/api/v2/oauth"
)

var errUnauthorized = errors.New("gigachat: unauthorized")

const visionPrompt = `Извлеки весь текст с этого финансового документа (счёт, чек, квитанция).
Верни только текст, который виден в документе, без дополнительных комментариев.
Если текст не читается, верни пустую строку.`

const structurePrompt = `Из текста финансового документа извлеки итоговую сумму, дату документа и название поставщика.

ВАЖНО: Верни ТОЛЬКО валидный JSON объект, без markdown разметки и комментариев:
{"amount": число или null, "date": "YYYY-MM-DD" или null, "provider": "строка" или null}

Текст документа:
%s`

// refusalPhrases mark replies where the model declined instead of answering.
var refusalPhrases = []string{
	"не могу помочь",
	"не могу обработать",
	"предоставьте содержимое",
	"предоставь содержимое",
	"не могу извлечь",
	"cannot help",
	"cannot process",
	"please provide",
}

// GigaChatEngine extracts text with the GigaChat vision endpoint and asks the
// chat model to structure it.
type GigaChatEngine struct {
	client     *gigago.Client
	model      *gigago.GenerativeModel
	config     *config.GigaChatConfig
	httpClient *http.Client
	baseURL    string
	oauthURL   string
	logger     *zap.Logger

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

func NewGigaChatEngine(cfg *config.GigaChatConfig, logger *zap.Logger) (*GigaChatEngine, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("GIGACHAT_API_KEY is not set")
	}

	opts := []gigago.Option{
		gigago.WithCustomScope(cfg.Scope),
	}
	if cfg.InsecureSkipVerify {
		opts = append(opts, gigago.WithCustomInsecureSkipVerify(true))
		logger.Warn("GigaChat TLS certificate verification is disabled")
	}

	client, err := gigago.NewClient(context.Background(), cfg.APIKey, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GigaChat client: %w", err)
	}

	model := client.GenerativeModel(cfg.Model)
	model.SystemInstruction = "Ты извлекаешь реквизиты из финансовых документов и отвечаешь только JSON."
	model.Temperature = 0.1

	httpClient := &http.Client{}
	if cfg.InsecureSkipVerify {
		httpClient.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	return &GigaChatEngine{
		client:     client,
		model:      model,
		config:     cfg,
		httpClient: httpClient,
		baseURL:    gigaChatBaseURL,
		oauthURL:   gigaChatOAuthURL,
		logger:     logger,
	}, nil
}

func (e *GigaChatEngine) Name() string {
	return EngineGigaChat
}

func (e *GigaChatEngine) IsAvailable(ctx context.Context) bool {
	_, err := e.token(ctx, false)
	if err != nil {
		e.logger.Warn("GigaChat is not available", zap.Error(err))
		return false
	}
	return true
}

func (e *GigaChatEngine) ProcessFile(ctx context.Context, path string) (*Result, error) {
	fileID, err := e.uploadFile(ctx, path)
	if errors.Is(err, errUnauthorized) {
		if _, err = e.token(ctx, true); err == nil {
			fileID, err = e.uploadFile(ctx, path)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to upload file: %w", err)
	}

	text, err := e.extractText(ctx, fileID)
	if err != nil {
		return nil, err
	}
	text = sanitizeUTF8(strings.TrimSpace(text))
	if text == "" {
		return Failure("no text extracted by " + EngineGigaChat), nil
	}

	ex, err := e.structure(ctx, text)
	if err != nil {
		e.logger.Warn("GigaChat structuring failed, parsing text locally", zap.Error(err))
		ex = ParseReceiptText(text)
	}

	e.logger.Info("Text extracted via GigaChat Vision",
		zap.String("file", path),
		zap.Int("text_length", len(text)),
	)

	return ExtractionResult(EngineGigaChat, text, ex), nil
}

func (e *GigaChatEngine) Close() error {
	if e.client != nil {
		e.client.Close()
	}
	return nil
}

// token returns a cached access token, fetching a new one when it is missing,
// expired or refresh is forced.
func (e *GigaChatEngine) token(ctx context.Context, refresh bool) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !refresh && e.accessToken != "" && time.Now().Before(e.tokenExpiry) {
		return e.accessToken, nil
	}

	formData := url.Values{}
	formData.Set("scope", e.config.Scope)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.oauthURL, strings.NewReader(formData.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create OAuth request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("RqUID", uuid.New().String())
	// the API key is already Base64-encoded
	req.Header.Set("Authorization", "Basic "+e.config.APIKey)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to get access token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("OAuth failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var oauthResp struct {
		AccessToken string `json:"access_token"`
		ExpiresAt   int64  `json:"expires_at"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&oauthResp); err != nil {
		return "", fmt.Errorf("failed to decode OAuth response: %w", err)
	}
	if oauthResp.AccessToken == "" {
		return "", errors.New("empty access token in OAuth response")
	}

	e.accessToken = oauthResp.AccessToken
	e.tokenExpiry = time.Now().Add(25 * time.Minute)
	if oauthResp.ExpiresAt > 0 {
		// expires_at is in milliseconds; keep a minute of slack
		e.tokenExpiry = time.UnixMilli(oauthResp.ExpiresAt).Add(-time.Minute)
	}

	return e.accessToken, nil
}

func (e *GigaChatEngine) uploadFile(ctx context.Context, path string) (string, error) {
	accessToken, err := e.token(ctx, false)
	if err != nil {
		return "", err
	}

	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	// "general" lets the uploaded file be attached to chat requests
	if err := writer.WriteField("purpose", "general"); err != nil {
		return "", fmt.Errorf("failed to write purpose field: %w", err)
	}

	fileName := filepath.Base(path)
	mimeType := mime.TypeByExtension(strings.ToLower(filepath.Ext(fileName)))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	part, err := writer.CreatePart(map[string][]string{
		"Content-Type":        {mimeType},
		"Content-Disposition": {fmt.Sprintf(`form-data; name="file"; filename="%s"`, fileName)},
	})
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", fmt.Errorf("failed to copy file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to close writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/files", &body)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return "", errUnauthorized
	case resp.StatusCode == http.StatusRequestEntityTooLarge:
		return "", errors.New("file exceeds the GigaChat size limit")
	case resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated:
		bodyBytes, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("upload failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var uploadResp struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&uploadResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	return uploadResp.ID, nil
}

func (e *GigaChatEngine) extractText(ctx context.Context, fileID string) (string, error) {
	accessToken, err := e.token(ctx, false)
	if err != nil {
		return "", err
	}

	requestBody := map[string]interface{}{
		"model": e.config.Model,
		"messages": []map[string]interface{}{
			{
				"role":        "user",
				"content":     visionPrompt,
				"attachments": []string{fileID},
			},
		},
		"temperature": 0.1,
		"stream":      false,
	}

	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("vision request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("vision API failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var visionResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&visionResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(visionResp.Choices) == 0 {
		return "", errors.New("no response from Vision API")
	}

	text := visionResp.Choices[0].Message.Content
	if isRefusal(text) {
		return "", fmt.Errorf("model returned error message: %s", text)
	}
	return text, nil
}

func (e *GigaChatEngine) structure(ctx context.Context, text string) (Extraction, error) {
	messages := []gigago.Message{
		{Role: gigago.RoleUser, Content: fmt.Sprintf(structurePrompt, text)},
	}

	resp, err := e.model.Generate(ctx, messages)
	if err != nil {
		return Extraction{}, fmt.Errorf("failed to generate response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Extraction{}, errors.New("no response from LLM")
	}

	return parseStructuredReply(resp.Choices[0].Message.Content)
}

// parseStructuredReply reads the JSON object out of a model reply, tolerating
// markdown fences and surrounding prose.
func parseStructuredReply(content string) (Extraction, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end < start {
		return Extraction{}, fmt.Errorf("invalid response format: %s", content)
	}

	var reply struct {
		Amount   *float64 `json:"amount"`
		Date     *string  `json:"date"`
		Provider *string  `json:"provider"`
	}
	if err := json.Unmarshal([]byte(content[start:end+1]), &reply); err != nil {
		return Extraction{}, fmt.Errorf("failed to parse JSON response: %w", err)
	}

	ex := Extraction{Amount: reply.Amount}
	if reply.Date != nil {
		if d, err := time.Parse("2006-01-02", *reply.Date); err == nil {
			ex.Date = &d
		}
	}
	if reply.Provider != nil {
		if p := strings.TrimSpace(*reply.Provider); p != "" {
			ex.Provider = &p
		}
	}
	return ex, nil
}

func isRefusal(text string) bool {
	lower := strings.ToLower(text)
	for _, phrase := range refusalPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
