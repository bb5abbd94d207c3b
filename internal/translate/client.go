package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/abadojack/whatlanggo"
	"golang.org/x/sync/errgroup"

	"signcast/internal/config"
	"signcast/internal/logging"
	"signcast/internal/services"
)

const defaultHTTPTimeout = 15 * time.Second

// Translations is the aggregated outcome for one submission. Results maps
// ISO 639-1 language codes to translated text; Failed lists the target
// languages whose translation could not be obtained.
type Translations struct {
	SourceLanguage string            `json:"source_language"`
	Results        map[string]string `json:"results"`
	Failed         []string          `json:"failed,omitempty"`
}

// JSON serializes the translations for persistence alongside the job.
func (t Translations) JSON() string {
	data, err := json.Marshal(t)
	if err != nil {
		return "{}"
	}
	return string(data)
}

// ParseTranslations deserializes persisted translations.
func ParseTranslations(data string) (Translations, error) {
	var t Translations
	if data == "" {
		return t, nil
	}
	err := json.Unmarshal([]byte(data), &t)
	return t, err
}

// Client wraps the translation service HTTP API.
type Client struct {
	cfg        config.Translation
	httpClient *http.Client
	logger     *slog.Logger
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs a translation client from configuration.
func NewClient(cfg config.Translation, logger *slog.Logger, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logging.NewComponentLogger(logger, "translate"),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Enabled reports whether translation is configured.
func (c *Client) Enabled() bool {
	return c.cfg.Enabled && strings.TrimSpace(c.cfg.URL) != ""
}

// DetectLanguage returns the ISO 639-1 code of the text's language, or "en"
// when detection is inconclusive.
func DetectLanguage(text string) string {
	info := whatlanggo.Detect(text)
	code := info.Lang.Iso6391()
	if code == "" || !info.IsReliable() {
		return "en"
	}
	return code
}

type translateRequest struct {
	Text           string `json:"text"`
	SourceLanguage string `json:"source_language"`
	TargetLanguage string `json:"target_language"`
}

type translateResponse struct {
	TranslatedText string `json:"translated_text"`
}

// Translate fans out one request per configured target language. A failed
// target is recorded in Failed rather than aborting the whole set; the
// source language itself is skipped.
func (c *Client) Translate(ctx context.Context, text string) (Translations, error) {
	out := Translations{
		SourceLanguage: DetectLanguage(text),
		Results:        map[string]string{},
	}
	if !c.Enabled() || len(c.cfg.TargetLanguages) == 0 {
		return out, nil
	}

	var mu sync.Mutex
	group, groupCtx := errgroup.WithContext(ctx)
	for _, target := range c.cfg.TargetLanguages {
		target := strings.ToLower(strings.TrimSpace(target))
		if target == "" || target == out.SourceLanguage {
			continue
		}
		group.Go(func() error {
			translated, err := c.translateOne(groupCtx, text, out.SourceLanguage, target)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				c.logger.Warn("translation target failed",
					logging.String("target_language", target),
					logging.Error(err))
				out.Failed = append(out.Failed, target)
				return nil
			}
			out.Results[target] = translated
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return out, err
	}
	sort.Strings(out.Failed)
	return out, nil
}

func (c *Client) translateOne(ctx context.Context, text, source, target string) (string, error) {
	payload, err := json.Marshal(translateRequest{
		Text:           text,
		SourceLanguage: source,
		TargetLanguage: target,
	})
	if err != nil {
		return "", fmt.Errorf("encode translation request: %w", err)
	}

	endpoint := strings.TrimRight(c.cfg.URL, "/") + "/translate"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build translation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "translation", "http request", "translation service unreachable", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read translation response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", services.Wrap(services.ErrTransient, "translation", "http request",
			fmt.Sprintf("translation service returned status %d", resp.StatusCode), nil)
	}

	var decoded translateResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", fmt.Errorf("decode translation response: %w", err)
	}
	if strings.TrimSpace(decoded.TranslatedText) == "" {
		return "", services.Wrap(services.ErrTransient, "translation", "decode response", "translation service returned empty text", nil)
	}
	return decoded.TranslatedText, nil
}
