package cds

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testListingHTML = `<html>
<head><title>Index of fusion</title></head>
<body>
<h1>Index of /cds/vmw-desktop/fusion/</h1>
<table>
<tr><td><a href="../">Parent Directory</a></td></tr>
<tr><td><a href="8.5.1/">8.5.1</a></td><td>2017-02-01</td></tr>
<tr><td><a href="10.1.1/">10.1.1/</a></td></tr>
<tr><td><a href="10.0.0/">10.0.0</a></td></tr>
<tr><td><a href="13.5.2/">13.5.2</a></td></tr>
<tr><td><a href="13.5.2/">13.5.2</a></td></tr>
<tr><td><a href="notes.txt">2017 release notes</a></td></tr>
<tr><td><a href="x/">1.x</a></td></tr>
</table>
</body>
</html>`

// TestParseListing tests the ParseListing function.
func TestParseListing(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "versions are sorted numerically and de-duplicated",
			input:    testListingHTML,
			expected: []string{"8.5.1", "10.0.0", "10.1.1", "13.5.2"},
		},
		{
			name:     "build listing",
			input:    `<a href="23775688/">23775688</a><a href="22583790/">22583790</a>`,
			expected: []string{"22583790", "23775688"},
		},
		{
			name:     "text nodes with line breaks are ignored",
			input:    "<pre>13.5.2\n13.6.0</pre><a>12.0.0</a>",
			expected: []string{"12.0.0"},
		},
		{
			name:     "no numeric entries",
			input:    `<a href="../">Parent Directory</a>`,
			expected: nil,
		},
		{
			name:     "empty document",
			input:    "",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			entries, err := ParseListing(strings.NewReader(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, entries)
		})
	}
}

// TestCompareVersions tests the CompareVersions function.
func TestCompareVersions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		a, b     string
		expected int
	}{
		{"10.0.0", "8.5.1", 1},
		{"8.5.1", "10.0.0", -1},
		{"13.5.2", "13.5.2", 0},
		{"13.5", "13.5.0", -1},
		{"13.5.10", "13.5.9", 1},
		{"013.5.2", "13.5.2", 0},
		{"99999999999999999999", "100000000000000000000", -1},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_vs_"+tt.b, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, CompareVersions(tt.a, tt.b))
		})
	}
}

// TestSortVersionsAndLatest tests SortVersions together with Latest.
func TestSortVersionsAndLatest(t *testing.T) {
	t.Parallel()

	versions := []string{"10.1.1", "8.5.1", "10.0.0", "13.5.2"}
	SortVersions(versions)

	assert.Equal(t, []string{"8.5.1", "10.0.0", "10.1.1", "13.5.2"}, versions)

	latest, ok := Latest(versions)
	assert.True(t, ok)
	assert.Equal(t, "13.5.2", latest)

	_, ok = Latest(nil)
	assert.False(t, ok)
}
