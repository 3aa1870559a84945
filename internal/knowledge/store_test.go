package knowledge

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func setupStore(t *testing.T) *FileStore {
	t.Helper()
	store := NewFileStore(filepath.Join(t.TempDir(), "data", "knowledge_base.json"), nil)
	if err := store.EnsureDefaults(); err != nil {
		t.Fatalf("EnsureDefaults: %v", err)
	}
	return store
}

func TestArticlesForSeededCategory(t *testing.T) {
	store := setupStore(t)

	got := store.ArticlesFor("Network")
	if len(got) != 2 {
		t.Fatalf("got %d articles, want 2", len(got))
	}
	if got[0].Title != "No Internet Connection" || got[1].Title != "Slow Network Speed" {
		t.Errorf("titles = %q, %q", got[0].Title, got[1].Title)
	}
	if got[0].Solution != "Restart router, check cables, run network diagnostics, verify Wi-Fi password" {
		t.Errorf("solution = %q", got[0].Solution)
	}
}

func TestArticlesForUnknownCategory(t *testing.T) {
	store := setupStore(t)

	for _, category := range []string{"Unknown", "Other", ""} {
		if got := store.ArticlesFor(category); got == nil || len(got) != 0 {
			t.Errorf("ArticlesFor(%q) = %v, want empty slice", category, got)
		}
	}
}

func TestEnsureDefaultsKeepsExistingFile(t *testing.T) {
	store := setupStore(t)
	custom := `{"Network": [{"title": "VPN", "solution": "Reconnect"}]}`
	if err := os.WriteFile(store.Path(), []byte(custom), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if err := store.EnsureDefaults(); err != nil {
		t.Fatalf("EnsureDefaults: %v", err)
	}
	got := store.ArticlesFor("Network")
	if len(got) != 1 || got[0].Title != "VPN" {
		t.Errorf("articles = %+v", got)
	}
}

func TestSeedFileLayout(t *testing.T) {
	store := setupStore(t)

	data, err := os.ReadFile(store.Path())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	text := string(data)
	if !strings.HasPrefix(text, "{\n  \"Software\": [\n    {\n      \"title\": \"Application Won't Launch\",") {
		t.Errorf("unexpected layout:\n%s", text)
	}
	if strings.Index(text, `"Hardware"`) > strings.Index(text, `"Network"`) {
		t.Error("categories written out of order")
	}
}

func TestUnreadableFileYieldsEmpty(t *testing.T) {
	store := setupStore(t)
	if err := os.WriteFile(store.Path(), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if got := store.ArticlesFor("Network"); len(got) != 0 {
		t.Errorf("articles = %+v, want empty", got)
	}
	if got := store.Excerpt(); got != "" {
		t.Errorf("excerpt = %q, want empty", got)
	}
}

func TestRenderExcerpt(t *testing.T) {
	got := RenderExcerpt(DefaultCatalog())
	if !strings.HasPrefix(got, "Software:\n- Application Won't Launch: Try restarting") {
		t.Errorf("excerpt = %q", got)
	}
	if !strings.Contains(got, "Login/Access:\n- Forgot Password:") {
		t.Errorf("excerpt missing Login/Access section: %q", got)
	}
}
