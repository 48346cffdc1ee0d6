package commands

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teranos/clangcomplete/communicator"
	"github.com/teranos/clangcomplete/config"
	"github.com/teranos/clangcomplete/ipc"
	"github.com/teranos/clangcomplete/proposal"
	"gopkg.in/yaml.v3"
)

func TestCutMarker(t *testing.T) {
	content, offset, ok := cutMarker("int main() { ma@ }", "@")
	require.True(t, ok)
	assert.Equal(t, "int main() { ma }", content)
	assert.Equal(t, 15, offset)

	_, _, ok = cutMarker("int main() {}", "@")
	assert.False(t, ok)
}

func TestIdentifierPrefix(t *testing.T) {
	tests := []struct {
		content string
		offset  int
		want    string
	}{
		{"foo.bar_1", 9, "bar_1"},
		{"x->", 3, ""},
		{"value", 3, "val"},
		{"", 0, ""},
		{"a + b2", 6, "b2"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, identifierPrefix(tt.content, tt.offset), "%q at %d", tt.content, tt.offset)
	}
}

func sampleModel() *proposal.Model {
	return proposal.NewModel([]proposal.Item{
		proposal.NewItem("brief", ipc.CompletionDoxygen),
		{Text: "int f(int x)", TypedText: "f", Data: "f($x$)", Snippet: true, Kind: ipc.CompletionFunction},
	})
}

func TestWriteProposalsJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeProposals(&buf, sampleModel(), "json"))

	var items []map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &items))
	require.Len(t, items, 2)
	assert.Equal(t, "brief", items[0]["text"])
	assert.Equal(t, "f($x$)", items[1]["data"])
	assert.Equal(t, true, items[1]["snippet"])
}

func TestWriteProposalsYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeProposals(&buf, sampleModel(), "yaml"))

	var items []map[string]interface{}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &items))
	require.Len(t, items, 2)
	assert.Equal(t, "f", items[1]["typed_text"])
}

func TestWriteProposalsTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeProposals(&buf, sampleModel(), "table"))
	assert.Contains(t, buf.String(), "int f(int x)")
	assert.Contains(t, buf.String(), "(snippet)")

	buf.Reset()
	require.NoError(t, writeProposals(&buf, proposal.NewModel(nil), "table"))
	assert.Equal(t, "no completions\n", buf.String())
}

func TestWriteStatsJSON(t *testing.T) {
	var buf bytes.Buffer
	stats := communicator.BackendStats{State: communicator.StateReady, Pid: 7, Restarts: 1}
	require.NoError(t, writeStats(&buf, stats, "json"))

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "ready", decoded["state"])
	assert.EqualValues(t, 7, decoded["pid"])
}

func TestWriteConfigFormats(t *testing.T) {
	cfg := config.Default()

	for _, format := range []string{"toml", "json", "yaml"} {
		t.Run(format, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, writeConfig(&buf, cfg, format))
			assert.Contains(t, buf.String(), "ready_timeout_ms")
		})
	}

	var buf bytes.Buffer
	err := writeConfig(&buf, cfg, "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported format")
}
