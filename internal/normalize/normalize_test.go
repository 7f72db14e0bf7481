package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripTags(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"<p>Hello <b>world</b></p>", "Hello world"},
		{`<a href="http://x">link</a> tail`, "link tail"},
		{"a < b and c > d", "a  d"},
		{"<br/>", ""},
		{"<<a>b>", ""},
		{"Deal <<b>strong>closed", "Deal closed"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, StripTags(tt.in), "input %q", tt.in)
	}
}

func TestStripTagsIdempotent(t *testing.T) {
	inputs := []string{
		"<p>Hello <b>world</b></p>",
		"<<a>>",
		"x <y <z> w",
		"<<a>b>",
		"<<<i>b>c>d",
		"Deal <<b>strong>closed",
		"Title and URL: <i>A</i> - http://x",
	}
	for _, in := range inputs {
		once := StripTags(in)
		assert.Equal(t, once, StripTags(once), "input %q", in)
		assert.False(t, tagPattern.MatchString(once), "input %q left %q", in, once)
	}
}

func TestCleanDescription(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"marker and url", "Title and URL: A - http://x", "A"},
		{"marker with markup", "<p>Title and URL: Big news - https://example.com/a</p>", "Big news"},
		{"marker without url", "Title and URL: Only headline", "Only headline"},
		{"url without marker kept", "Story - http://x", "Story - http://x"},
		{"plain untouched", "  spaced  ", "  spaced  "},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanDescription(tt.in))
		})
	}
}

func TestFirstNonEmpty(t *testing.T) {
	assert.Equal(t, "b", FirstNonEmpty("", "  ", "b", "c"))
	assert.Equal(t, "", FirstNonEmpty("", " "))
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2024-01-01", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"2024-01-01T10:30:00Z", time.Date(2024, 1, 1, 10, 30, 0, 0, time.UTC)},
		{"Mon, 03 Jul 2023 10:00:00 GMT", time.Date(2023, 7, 3, 10, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		got, err := ParseTime(tt.in)
		require.NoError(t, err, tt.in)
		assert.True(t, tt.want.Equal(got), "input %q: got %s", tt.in, got)
	}

	_, err := ParseTime("")
	assert.Error(t, err)
	_, err = ParseTime("not a date")
	assert.Error(t, err)
}

func TestFirstTimeFallbackChain(t *testing.T) {
	def := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	known := time.Date(2022, 5, 5, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, def, FirstTime(def))
	assert.Equal(t, def, FirstTime(def, Parsed("garbage"), Known(nil), nil))
	assert.Equal(t, known, FirstTime(def, Parsed("garbage"), Known(&known)))

	got := FirstTime(def, Parsed("2021-03-04"), Known(&known))
	assert.Equal(t, 2021, got.Year())

	assert.Equal(t, def, TimeOr("", def))
}

func TestTimePtr(t *testing.T) {
	assert.Nil(t, TimePtr("nope"))
	p := TimePtr("2024-02-03")
	require.NotNil(t, p)
	assert.Equal(t, time.February, p.Month())
}
