package corpus

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing temp csv: %v", err)
	}
	return path
}

func TestCSVArticleSourceLoadArticles(t *testing.T) {
	csvContent := "id,url,title_hi,summary_hi,content_hi,published_date,published_ts,categories,tags,locations,contributors,primary_category,partner_label,article_type,multimedia_type\n" +
		"a1,https://example.org/a1,शीर्षक,सारांश,सामग्री,2024-01-01,1704067200,Health|Education,vaccine|school,Bihar|Delhi,Jane Doe,Health,partner-x,article,none\n"
	path := writeTempCSV(t, "articles.csv", csvContent)

	src := &CSVArticleSource{Path: path}
	articles, err := src.LoadArticles()
	if err != nil {
		t.Fatalf("LoadArticles returned error: %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("expected 1 article, got %d", len(articles))
	}

	a := articles[0]
	if a.ID != "a1" || a.TitleHi != "शीर्षक" {
		t.Errorf("unexpected article: %+v", a)
	}
	if len(a.Categories) != 2 || a.Categories[0] != "Health" {
		t.Errorf("unexpected categories: %v", a.Categories)
	}
	if len(a.LocationsNorm) != 2 || a.LocationsNorm[0] != "bihar" {
		t.Errorf("unexpected locations_norm: %v", a.LocationsNorm)
	}
	if a.PrimaryCategory != "Health" {
		t.Errorf("PrimaryCategory = %q, want Health", a.PrimaryCategory)
	}
	if a.PublishedTS != 1704067200 {
		t.Errorf("PublishedTS = %d, want 1704067200", a.PublishedTS)
	}
}

func TestCSVChunkSourceLoadChunks(t *testing.T) {
	csvContent := "chunk_id,article_id,chunk_index,chunk_text,chunk_tokens,url,title_hi,published_date,published_ts\n" +
		"a1::c0000,a1,0,खंड पाठ,12,https://example.org/a1,शीर्षक,2024-01-01,1704067200\n"
	path := writeTempCSV(t, "chunks.csv", csvContent)

	src := &CSVChunkSource{Path: path}
	chunks, err := src.LoadChunks()
	if err != nil {
		t.Fatalf("LoadChunks returned error: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	c := chunks[0]
	if c.ChunkID != "a1::c0000" || c.ArticleID != "a1" || c.ChunkTokens != 12 {
		t.Errorf("unexpected chunk: %+v", c)
	}
}

func TestArticleTableGet(t *testing.T) {
	table := NewArticleTable([]*Article{{ID: "a1"}, {ID: "a2"}})
	if _, ok := table.Get("a1"); !ok {
		t.Error("expected a1 to be present")
	}
	if _, ok := table.Get("missing"); ok {
		t.Error("expected missing id to be absent")
	}
	if table.Len() != 2 {
		t.Errorf("Len() = %d, want 2", table.Len())
	}
}
