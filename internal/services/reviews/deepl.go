package reviews

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Translator turns text into the given target language.
type Translator interface {
	Translate(ctx context.Context, text, targetLang string) (string, error)
}

// deeplLangMap maps our language codes onto DeepL target codes (DeepL
// requires a regional variant for English).
var deeplLangMap = map[string]string{
	"en": "EN-GB",
	"de": "DE",
	"ru": "RU",
	"uk": "UK",
}

func normalizeTargetLang(lang string) string {
	if mapped, ok := deeplLangMap[strings.ToLower(lang)]; ok {
		return mapped
	}
	return strings.ToUpper(lang)
}

type DeepLClient struct {
	Client  *http.Client
	BaseURL string
	AuthKey string
}

func NewDeepLClient(authKey string) *DeepLClient {
	return &DeepLClient{
		Client:  &http.Client{Timeout: 15 * time.Second},
		BaseURL: "https://api-free.deepl.com/v2/translate",
		AuthKey: authKey,
	}
}

func (c *DeepLClient) Translate(ctx context.Context, text, targetLang string) (string, error) {
	form := url.Values{}
	form.Set("text", text)
	form.Set("target_lang", normalizeTargetLang(targetLang))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "DeepL-Auth-Key "+c.AuthKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("deepl: unexpected status %d", resp.StatusCode)
	}

	var body struct {
		Translations []struct {
			Text string `json:"text"`
		} `json:"translations"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	if len(body.Translations) == 0 {
		return "", fmt.Errorf("deepl: empty translation result")
	}
	return body.Translations[0].Text, nil
}
