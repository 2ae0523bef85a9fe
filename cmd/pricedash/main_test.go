package main

import (
	"context"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jboursiquot/pricedash"
)

type recordingImporter struct {
	got pricedash.ProductTable
}

func (r *recordingImporter) Import(_ context.Context, t pricedash.ProductTable) (int, error) {
	r.got = t
	return len(t), nil
}

func TestImportFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.csv")
	require.NoError(t, os.WriteFile(path, []byte("title,price\nLamp,79.90\nRug,450\n"), 0o600))

	dst := &recordingImporter{}
	require.NoError(t, importFile(context.Background(), dst, path))
	assert.Equal(t, pricedash.ProductTable{{Title: "Lamp", Price: 79.90}, {Title: "Rug", Price: 450}}, dst.got)
}

func TestImportFileRejectsBadInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.csv")
	require.NoError(t, os.WriteFile(path, []byte("title,price\nLamp,cheap\n"), 0o600))

	dst := &recordingImporter{}
	err := importFile(context.Background(), dst, path)

	var perr *pricedash.ParseError
	assert.ErrorAs(t, err, &perr)
	assert.Nil(t, dst.got)
}

func TestRootCommandArgs(t *testing.T) {
	tests := map[string][]string{
		"import needs a file": {"import"},
		"serve takes no args": {"serve", "extra"},
		"unknown command":     {"frobnicate"},
	}
	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			cmd := newRootCmd()
			cmd.SetArgs(append(args, "--env-file", filepath.Join(t.TempDir(), "missing.env")))
			assert.Error(t, cmd.Execute())
		})
	}
}

func TestPackageDocFollowsCommandForm(t *testing.T) {
	f, err := parser.ParseFile(token.NewFileSet(), "main.go", nil, parser.ParseComments|parser.PackageClauseOnly)
	require.NoError(t, err)
	require.NotNil(t, f.Doc)

	doc := f.Doc.Text()
	assert.True(t, strings.HasPrefix(doc, "Command pricedash "), doc)
	assert.NotContains(t, doc, "\u2014")
}
