package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smart_edgar/pkg/core/pivot"
)

func sampleView() pivot.View {
	return pivot.Build([]string{"date"}, []string{"parameterName"}, "value", []pivot.Record{
		{"date": "2021-03-31", "parameterName": "Revenues", "value": 1500000000.0},
		{"date": "2021-03-31", "parameterName": "NetIncomeLoss", "value": 250000000.0},
		{"date": "2021-06-30", "parameterName": "Revenues", "value": 1.25},
	})
}

func TestGrid(t *testing.T) {
	header, rows := Grid(sampleView())
	assert.Equal(t, []string{"date", "NetIncomeLoss", "Revenues"}, header)
	assert.Equal(t, [][]string{
		{"2021-03-31", "250000000", "1500000000"},
		{"2021-06-30", "", "1.25"},
	}, rows)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleView()))
	assert.Equal(t, "date,NetIncomeLoss,Revenues\n2021-03-31,250000000,1500000000\n2021-06-30,,1.25\n", buf.String())
}

func TestWriteMarkdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMarkdown(&buf, sampleView()))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "| date | NetIncomeLoss | Revenues |", lines[0])
	assert.Equal(t, "| --- | ---: | ---: |", lines[1])
	assert.Equal(t, "| 2021-06-30 |  | 1.25 |", lines[3])
}

func TestRenderHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderHTML(&buf, sampleView()))
	out := buf.String()
	assert.Contains(t, out, "<table>")
	assert.Contains(t, out, "<th>date</th>")
	assert.Contains(t, out, "1500000000</td>")
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleView(), FormatText))
	out := buf.String()
	assert.Contains(t, out, "NetIncomeLoss")
	assert.Contains(t, out, "2021-06-30")
	assert.Contains(t, out, "1500000000")
}

func TestUnknownFormat(t *testing.T) {
	err := Write(&bytes.Buffer{}, sampleView(), "pdf")
	assert.EqualError(t, err, `unknown format "pdf"`)
}
