package xbrl

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiling(t *testing.T, dir, cik string, revenue int) string {
	t.Helper()
	src := fmt.Sprintf(`<xbrli:xbrl xmlns:xbrli="http://www.xbrl.org/2003/instance" xmlns:us-gaap="http://fasb.org/us-gaap/2020">
  <xbrli:context id="c">
    <xbrli:entity><xbrli:identifier scheme="cik">%s</xbrli:identifier></xbrli:entity>
    <xbrli:period><xbrli:instant>2021-12-31</xbrli:instant></xbrli:period>
  </xbrli:context>
  <us-gaap:Revenues contextRef="c" unitRef="USD">%d</us-gaap:Revenues>
</xbrli:xbrl>`, cik, revenue)
	path := filepath.Join(dir, cik+".xml")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func TestLoaderKeepsInputOrder(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for i := 0; i < 12; i++ {
		paths = append(paths, writeFiling(t, dir, fmt.Sprintf("%04d", i), 100+i))
	}

	loader := NewLoader(4, Options{FactsDocument: true})
	defer loader.Close()

	docs, err := loader.LoadFiles(context.Background(), paths)
	require.NoError(t, err)
	require.Len(t, docs, len(paths))
	for i, doc := range docs {
		assert.Equal(t, fmt.Sprintf("%04d", i), doc.Filing.CompanyNumber)
	}

	records, err := loader.LoadRecords(context.Background(), paths)
	require.NoError(t, err)
	require.Len(t, records, len(paths))
	assert.Equal(t, 100.0, records[0].Value)
	assert.Equal(t, 111.0, records[11].Value)
}

func TestLoaderReportsFailures(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeFiling(t, dir, "0001", 1),
		filepath.Join(dir, "absent.xml"),
	}

	loader := NewLoader(2, Options{FactsDocument: true})
	defer loader.Close()

	_, err := loader.LoadFiles(context.Background(), paths)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
