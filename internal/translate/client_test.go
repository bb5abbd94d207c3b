package translate_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"signcast/internal/config"
	"signcast/internal/logging"
	"signcast/internal/translate"
)

func serveTranslations(t *testing.T, failFor map[string]bool) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/translate" {
			http.NotFound(w, r)
			return
		}
		var req struct {
			Text           string `json:"text"`
			TargetLanguage string `json:"target_language"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if failFor[req.TargetLanguage] {
			http.Error(w, "upstream failure", http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{
			"translated_text": req.TargetLanguage + ":" + req.Text,
		})
	}))
}

func newClient(url string, targets []string) *translate.Client {
	return translate.NewClient(config.Translation{
		Enabled:         true,
		URL:             url,
		TimeoutSeconds:  5,
		TargetLanguages: targets,
	}, logging.NewNop())
}

func TestTranslateAllTargets(t *testing.T) {
	server := serveTranslations(t, nil)
	defer server.Close()

	client := newClient(server.URL, []string{"hi", "ta"})
	out, err := client.Translate(context.Background(), "The train to Delhi is delayed by twenty minutes today")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if out.SourceLanguage != "en" {
		t.Fatalf("expected en source, got %q", out.SourceLanguage)
	}
	if len(out.Results) != 2 || len(out.Failed) != 0 {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if out.Results["hi"] == "" || out.Results["ta"] == "" {
		t.Fatalf("missing translations: %+v", out.Results)
	}
}

func TestTranslatePartialFailure(t *testing.T) {
	server := serveTranslations(t, map[string]bool{"ta": true})
	defer server.Close()

	client := newClient(server.URL, []string{"hi", "ta"})
	out, err := client.Translate(context.Background(), "The train to Delhi is delayed by twenty minutes today")
	if err != nil {
		t.Fatalf("partial failure must not error the call: %v", err)
	}
	if _, ok := out.Results["hi"]; !ok {
		t.Fatal("successful target missing from results")
	}
	if len(out.Failed) != 1 || out.Failed[0] != "ta" {
		t.Fatalf("unexpected failed set: %v", out.Failed)
	}
}

func TestTranslateSkipsSourceLanguage(t *testing.T) {
	server := serveTranslations(t, nil)
	defer server.Close()

	client := newClient(server.URL, []string{"en", "hi"})
	out, err := client.Translate(context.Background(), "The train to Delhi is delayed by twenty minutes today")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if _, ok := out.Results["en"]; ok {
		t.Fatal("source language should not be translated")
	}
}

func TestTranslateDisabled(t *testing.T) {
	client := translate.NewClient(config.Translation{Enabled: false}, logging.NewNop())
	out, err := client.Translate(context.Background(), "hello there")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if len(out.Results) != 0 || len(out.Failed) != 0 {
		t.Fatalf("disabled client should do nothing: %+v", out)
	}
}

func TestTranslationsRoundTrip(t *testing.T) {
	in := translate.Translations{
		SourceLanguage: "en",
		Results:        map[string]string{"hi": "x"},
		Failed:         []string{"ta"},
	}
	parsed, err := translate.ParseTranslations(in.JSON())
	if err != nil {
		t.Fatalf("ParseTranslations: %v", err)
	}
	if parsed.SourceLanguage != "en" || parsed.Results["hi"] != "x" || len(parsed.Failed) != 1 {
		t.Fatalf("round trip mismatch: %+v", parsed)
	}
}
