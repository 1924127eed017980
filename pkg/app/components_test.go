package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilkoid/selcat/pkg/config"
	"github.com/ilkoid/selcat/pkg/docstore"
	"github.com/ilkoid/selcat/pkg/factory"
	"github.com/ilkoid/selcat/pkg/selectors"
)

func TestInitialize_WithoutAPIKeyFallsBackToRules(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "")
	cfg := config.Default()

	comps, err := Initialize(cfg, Options{})
	require.NoError(t, err)
	defer comps.Close()

	assert.Empty(t, comps.ModelName)
	assert.ErrorIs(t, comps.AIDisabledReason, factory.ErrMissingAPIKey)
	assert.Nil(t, comps.Ledger)

	doc, err := selectors.Parse([]byte(`{"id_selectors": [{"selector": "#main-nav"}]}`))
	require.NoError(t, err)
	res, err := comps.Categorizer.Categorize(context.Background(), doc, "x.json")
	require.NoError(t, err)
	assert.Equal(t, selectors.MethodFallback, res.Metadata.Method)
	assert.Contains(t, res.Metadata.FallbackReason, "configuration failure")
}

func TestInitialize_WithKey(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "gsk_test")

	comps, err := Initialize(config.Default(), Options{})
	require.NoError(t, err)
	defer comps.Close()

	assert.Equal(t, config.DefaultModelAlias, comps.ModelName)
	assert.NoError(t, comps.AIDisabledReason)
}

func TestInitialize_RulesOnly(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "gsk_test")

	comps, err := Initialize(config.Default(), Options{RulesOnly: true})
	require.NoError(t, err)
	assert.Empty(t, comps.ModelName)
	assert.Error(t, comps.AIDisabledReason)
}

func TestInitialize_LedgerAndBadKeywords(t *testing.T) {
	cfg := config.Default()
	cfg.App.LedgerPath = filepath.Join(t.TempDir(), "runs.db")

	comps, err := Initialize(cfg, Options{RulesOnly: true})
	require.NoError(t, err)
	require.NotNil(t, comps.Ledger)
	require.NoError(t, comps.Close())

	cfg = config.Default()
	cfg.Categorizer.Keywords = map[string][]string{"checkout": {"pay"}}
	_, err = Initialize(cfg, Options{})
	assert.Error(t, err)
}

func TestInitializeConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("categorizer:\n  max_samples: 10\n"), 0o644))

	cfg, got, err := InitializeConfig(&DefaultConfigPathFinder{ConfigFlag: path}, true)
	require.NoError(t, err)
	assert.Equal(t, path, got)
	assert.Equal(t, 10, cfg.Categorizer.MaxSamples)

	_, _, err = InitializeConfig(&DefaultConfigPathFinder{ConfigFlag: filepath.Join(dir, "missing.yaml")}, true)
	assert.Error(t, err, "explicit missing config is an error")

	t.Chdir(t.TempDir())
	cfg, _, err = InitializeConfig(&DefaultConfigPathFinder{}, false)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultMaxSamples, cfg.Categorizer.MaxSamples)
}

func TestNewStore(t *testing.T) {
	cfg := config.Default()

	store, err := NewStore(cfg, StoreSpec{Input: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &docstore.Local{}, store)

	_, err = NewStore(cfg, StoreSpec{})
	assert.Error(t, err)

	_, err = NewStore(cfg, StoreSpec{S3Prefix: "selectors/"})
	assert.Error(t, err, "s3 mode without bucket")

	cfg.S3 = config.S3Config{Endpoint: "localhost:9000", Bucket: "scraping"}.GetDefaults()
	store, err = NewStore(cfg, StoreSpec{S3Prefix: "selectors/"})
	require.NoError(t, err)
	assert.Equal(t, "categorized_selectors/page_categorized.json", store.OutputName("selectors/page.json"))
}
