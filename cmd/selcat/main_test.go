package main

import (
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilkoid/selcat/pkg/selectors"
)

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()

	r, w, err := os.Pipe()
	require.NoError(t, err)

	orig := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = orig }()

	fn()
	require.NoError(t, w.Close())

	out, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(out)
}

func TestPrintHelp_ListsCategories(t *testing.T) {
	help := captureStdout(t, printHelp)

	for _, def := range selectors.Definitions() {
		assert.Contains(t, help, string(def.Key))
		assert.Contains(t, help, def.Name)
	}
	assert.NotContains(t, help, "commerce_actions")
	assert.NotContains(t, help, "product_content")
}
