package classification

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/AtRiskMedia/skycards-go/internal/infrastructure/observability/logging"
)

const chineseReply = `**云族**：高云族
**云属**：卷云（Ci），纤维状的白色云丝
**云种/变种**：毛卷云，末端呈钩状
**识别特征**：天空中分布着细长的白色云丝
**天气预兆**：可能预示天气转变
**知识延伸**：卷云常被称为"马尾云"
**识别置信度**：9`

func TestParseContent_ChineseSections(t *testing.T) {
	result := ParseContent(chineseReply)
	if result.NoSubject {
		t.Fatal("expected a subject")
	}
	if result.Analysis.Family != "高云族" {
		t.Errorf("family: %q", result.Analysis.Family)
	}
	if !strings.HasPrefix(result.Analysis.Genus, "卷云") {
		t.Errorf("genus: %q", result.Analysis.Genus)
	}
	if result.Analysis.Species != "毛卷云，末端呈钩状" {
		t.Errorf("species: %q", result.Analysis.Species)
	}
	if result.Analysis.Knowledge == "" || result.Analysis.Weather == "" || result.Analysis.Features == "" {
		t.Errorf("missing sections: %+v", result.Analysis)
	}
	if result.Confidence != 9 {
		t.Errorf("confidence: %d", result.Confidence)
	}
	if result.Content != chineseReply {
		t.Error("raw content not preserved")
	}
}

func TestParseContent_EnglishAndConfidenceClamp(t *testing.T) {
	result := ParseContent("**Family**: Low\n**Genus**: Cumulus\n**Confidence**: 42")
	if result.Analysis.Family != "Low" || result.Analysis.Genus != "Cumulus" {
		t.Errorf("unexpected analysis: %+v", result.Analysis)
	}
	if result.Confidence != 10 {
		t.Errorf("expected clamp to 10, got %d", result.Confidence)
	}

	missing := ParseContent("**Genus**: Stratus")
	if missing.Confidence != DefaultConfidence {
		t.Errorf("expected default confidence, got %d", missing.Confidence)
	}
}

func TestParseContent_NoSubject(t *testing.T) {
	for _, reply := range []string{"无云", "**无云**", "  无云。图片是室内照片", "NO_CLOUD", "no_cloud"} {
		if !ParseContent(reply).NoSubject {
			t.Errorf("expected %q to mean no subject", reply)
		}
	}
	if ParseContent(chineseReply).NoSubject {
		t.Error("normal reply flagged as no subject")
	}
}

func TestLoadPrompt(t *testing.T) {
	prompt, err := LoadPrompt("")
	if err != nil || prompt != DefaultPrompt {
		t.Fatalf("expected default prompt, got %q, %v", prompt, err)
	}

	path := filepath.Join(t.TempDir(), "prompt.txt")
	if err := os.WriteFile(path, []byte("  identify the cloud\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	prompt, err = LoadPrompt(path)
	if err != nil || prompt != "identify the cloud" {
		t.Errorf("unexpected prompt %q, %v", prompt, err)
	}

	if _, err := LoadPrompt(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}

func newTestClient(url string, timeout time.Duration) *ChatClient {
	return NewChatClient(ChatConfig{
		Endpoint:  url,
		APIKey:    "test-key",
		Model:     "test-model",
		MaxTokens: 100,
		Timeout:   timeout,
	}, logging.NewNopLogger())
}

func TestChatClient_Success(t *testing.T) {
	var got chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("missing bearer token")
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]any{"content": chineseReply}}},
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL, 5*time.Second)
	result, err := client.Classify(context.Background(), Photo{Bytes: []byte{1, 2, 3}, MIME: "image/png"})
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if result.Analysis.Family != "高云族" {
		t.Errorf("unexpected result: %+v", result)
	}
	if got.Model != "test-model" || len(got.Messages) != 1 || len(got.Messages[0].Content) != 2 {
		t.Fatalf("unexpected request: %+v", got)
	}
	image := got.Messages[0].Content[0]
	if image.ImageURL == nil || !strings.HasPrefix(image.ImageURL.URL, "data:image/png;base64,") {
		t.Errorf("image not sent as data uri: %+v", image)
	}
	if got.Messages[0].Content[1].Text != DefaultPrompt {
		t.Error("default prompt not sent")
	}
}

func TestChatClient_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"message":"quota exceeded"}}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL, 5*time.Second).Classify(context.Background(), Photo{Bytes: []byte{1}})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	var svcErr *ServiceError
	if !errors.As(err, &svcErr) || svcErr.Message != "quota exceeded" || svcErr.Status != 500 {
		t.Errorf("unexpected service error: %v", err)
	}
}

func TestChatClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	_, err := newTestClient(server.URL, 50*time.Millisecond).Classify(context.Background(), Photo{Bytes: []byte{1}})
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestChatClient_NotConfigured(t *testing.T) {
	client := NewChatClient(ChatConfig{Endpoint: "http://example.invalid"}, logging.NewNopLogger())
	if _, err := client.Classify(context.Background(), Photo{}); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
}
