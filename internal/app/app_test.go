package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/reassign/internal/domain"
)

func TestLoadDrafts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "drafts.json")
	content := `[
		{
			"key": "jacket",
			"productTypeId": "pt-1",
			"slug": {"en": "jacket"},
			"masterVariant": {"sku": "sku-1"},
			"variants": [{"sku": "sku-2"}]
		}
	]`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write drafts file: %v", err)
	}

	drafts, err := loadDrafts(path)
	if err != nil {
		t.Fatalf("loadDrafts failed: %v", err)
	}
	if len(drafts) != 1 {
		t.Fatalf("expected 1 draft, got %d", len(drafts))
	}
	if drafts[0].Key != "jacket" {
		t.Errorf("unexpected draft key: %s", drafts[0].Key)
	}
	if got := drafts[0].SKUs(); len(got) != 2 {
		t.Errorf("expected 2 skus, got %v", got)
	}
}

func TestLoadDrafts_Errors(t *testing.T) {
	if _, err := loadDrafts("/nonexistent/drafts.json"); err == nil {
		t.Error("expected error for missing file")
	}

	dir := t.TempDir()

	broken := filepath.Join(dir, "broken.json")
	if err := os.WriteFile(broken, []byte("{"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := loadDrafts(broken); err == nil {
		t.Error("expected error for malformed json")
	}

	empty := filepath.Join(dir, "empty.json")
	if err := os.WriteFile(empty, []byte("[]"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := loadDrafts(empty); err == nil {
		t.Error("expected error for empty draft list")
	}
}

func TestLoadProductTypeTable(t *testing.T) {
	table, err := loadProductTypeTable("")
	if err != nil {
		t.Fatalf("empty path should not fail: %v", err)
	}
	if table != nil {
		t.Errorf("expected nil table for empty path, got %v", table)
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "types.json")
	if err := os.WriteFile(path, []byte(`{"clothing": "pt-1"}`), 0o600); err != nil {
		t.Fatal(err)
	}

	table, err = loadProductTypeTable(path)
	if err != nil {
		t.Fatalf("loadProductTypeTable failed: %v", err)
	}
	if table["clothing"] != "pt-1" {
		t.Errorf("unexpected table: %v", table)
	}

	if _, err := loadProductTypeTable("/nonexistent/types.json"); err == nil {
		t.Error("expected error for missing file")
	}
}

type stubEngine struct {
	drafts []domain.ProductDraft
	table  map[string]string
	stats  domain.Statistics
	err    error
	calls  int
}

func (s *stubEngine) Execute(_ context.Context, drafts []domain.ProductDraft, table map[string]string) (domain.Statistics, error) {
	s.calls++
	s.drafts = drafts
	s.table = table
	return s.stats, s.err
}

func TestRunBatch(t *testing.T) {
	dir := t.TempDir()
	draftsPath := filepath.Join(dir, "drafts.json")
	content := `[{"key": "jacket", "productTypeId": "clothing", "slug": {"en": "jacket"}, "masterVariant": {"sku": "sku-1"}}]`
	if err := os.WriteFile(draftsPath, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	typesPath := filepath.Join(dir, "types.json")
	if err := os.WriteFile(typesPath, []byte(`{"clothing": "pt-1"}`), 0o600); err != nil {
		t.Fatal(err)
	}

	engine := &stubEngine{stats: domain.Statistics{Processed: 1, Succeeded: 1}}
	cfg := Config{DraftsFile: draftsPath, ProductTypesFile: typesPath}

	if err := runBatch(context.Background(), cfg, engine, log.WithField("test", "run-batch")); err != nil {
		t.Fatalf("runBatch failed: %v", err)
	}
	if engine.calls != 1 {
		t.Fatalf("expected 1 engine call, got %d", engine.calls)
	}
	if len(engine.drafts) != 1 {
		t.Fatalf("expected 1 draft passed, got %d", len(engine.drafts))
	}
	if engine.table["clothing"] != "pt-1" {
		t.Errorf("type table not passed: %v", engine.table)
	}
}

func TestRunBatch_EngineError(t *testing.T) {
	dir := t.TempDir()
	draftsPath := filepath.Join(dir, "drafts.json")
	content := `[{"key": "jacket", "productTypeId": "pt-1", "slug": {"en": "jacket"}, "masterVariant": {"sku": "sku-1"}}]`
	if err := os.WriteFile(draftsPath, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	engine := &stubEngine{err: errors.New("journal unavailable")}
	cfg := Config{DraftsFile: draftsPath}

	if err := runBatch(context.Background(), cfg, engine, log.WithField("test", "run-batch-err")); err == nil {
		t.Fatal("expected engine error to propagate")
	}
}

func TestRun_BatchMode(t *testing.T) {
	dir := t.TempDir()
	draftsPath := filepath.Join(dir, "drafts.json")
	content := `[{"key": "jacket", "productTypeId": "pt-1", "slug": {"en": "jacket"}, "masterVariant": {"sku": "sku-1"}}]`
	if err := os.WriteFile(draftsPath, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := Config{
		MetricsAddr: fmt.Sprintf(":%d", findFreePort(t)),
		DraftsFile:  draftsPath,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Пустой каталог: драфту нечего переназначать, батч завершается чисто.
	if err := Run(ctx, cfg); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
}

func TestRun_NoModeConfigured(t *testing.T) {
	cfg := Config{MetricsAddr: fmt.Sprintf(":%d", findFreePort(t))}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := Run(ctx, cfg); err == nil {
		t.Fatal("expected error when neither drafts file nor brokers are set")
	}
}

func TestLogStatistics(_ *testing.T) {
	// Не должно паниковать на заполненной статистике.
	stats := domain.Statistics{
		Processed:       2,
		Succeeded:       1,
		Anonymized:      1,
		FailedSKUs:      [][]string{{"sku-1"}},
		AnonymizedSlugs: []string{"jacket-dup"},
	}
	logStatistics(log.WithField("test", "stats"), stats)
}
