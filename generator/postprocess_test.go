package generator

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitThread(t *testing.T) {
	long := strings.Repeat("a", 300)
	exact := strings.Repeat("b", TweetLimit)
	raw := "  first tweet  \n" + ThreadDelimiter + "\n\n" + ThreadDelimiter + "\n" + long + "\n" + ThreadDelimiter + "\n" + exact

	segments := SplitThread(raw)

	require.Len(t, segments, 3)
	assert.Equal(t, "first tweet", segments[0])
	assert.Equal(t, TweetLimit, utf8.RuneCountInString(segments[1]))
	assert.True(t, strings.HasSuffix(segments[1], "..."))
	assert.Equal(t, exact, segments[2], "a tweet at the limit is kept as is")
}

func TestTruncateSegmentCountsRunes(t *testing.T) {
	seg := strings.Repeat("é", 281)
	out := TruncateSegment(seg)
	assert.Equal(t, TweetLimit, utf8.RuneCountInString(out))
	assert.True(t, strings.HasSuffix(out, "..."))
}

func TestShapeThread(t *testing.T) {
	res, err := shapeThread("one\n" + ThreadDelimiter + "\ntwo\n" + ThreadDelimiter + "\nthree")
	require.NoError(t, err)
	assert.Equal(t, Twitter, res.Platform)
	assert.Equal(t, "one\n\ntwo\n\nthree", res.Content)
	assert.Equal(t, []string{"one", "two", "three"}, res.Segments)
	assert.Equal(t, 3, res.SegmentCount)

	_, err = shapeThread("\n" + ThreadDelimiter + "\n  ")
	assert.Error(t, err)
}

func TestReshapeThreadWithoutDelimiter(t *testing.T) {
	res, err := reshapeThread("hook\n\n1/ point\n  \n" + strings.Repeat("x", 400))
	require.NoError(t, err)
	assert.Equal(t, 3, res.SegmentCount)
	for _, seg := range res.Segments {
		assert.LessOrEqual(t, utf8.RuneCountInString(seg), TweetLimit)
	}
}

func TestReshapeThreadOneTweetPerLine(t *testing.T) {
	tweets := []string{
		"1/ " + strings.Repeat("word ", 25),
		"2/ " + strings.Repeat("word ", 25),
		"3/ " + strings.Repeat("word ", 25),
		"4/ last one",
	}
	res, err := reshapeThread(strings.Join(tweets, "\n"))
	require.NoError(t, err)
	require.Equal(t, 4, res.SegmentCount)
	assert.Equal(t, "4/ last one", res.Segments[3])
	for _, seg := range res.Segments {
		assert.False(t, strings.HasSuffix(seg, "..."), "nothing truncated")
	}

	// short paragraphs with internal line breaks stay whole
	res, err = reshapeThread("line a\nline b\n\nnext")
	require.NoError(t, err)
	assert.Equal(t, []string{"line a\nline b", "next"}, res.Segments)
}

func TestExtractHashtags(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantBody string
		wantTags []string
	}{
		{
			name:     "trailing hashtag line",
			raw:      "Hook line.\n\nBody text.\n\n#AI #Leadership #AI",
			wantBody: "Hook line.\n\nBody text.",
			wantTags: []string{"#AI", "#Leadership"},
		},
		{
			name:     "hashtag lines in the middle are moved",
			raw:      "Intro\n#Growth\nMore text\n#Teams #Growth",
			wantBody: "Intro\nMore text",
			wantTags: []string{"#Growth", "#Teams"},
		},
		{
			name:     "sentence with inline hashtag is body",
			raw:      "#1 lesson: ship small.\nLove this #AI stuff",
			wantBody: "#1 lesson: ship small.\nLove this #AI stuff",
		},
		{
			name:     "markdown heading is body",
			raw:      "# Heading\n## Sub\ntext",
			wantBody: "# Heading\n## Sub\ntext",
		},
		{
			name:     "no hashtags",
			raw:      "just text",
			wantBody: "just text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, tags := ExtractHashtags(tt.raw)
			assert.Equal(t, tt.wantBody, body)
			assert.Equal(t, tt.wantTags, tags)
		})
	}
}

func TestShapeLongForm(t *testing.T) {
	res, err := shapeLongForm("Post body.\n\n#One #Two\n")
	require.NoError(t, err)
	assert.Equal(t, "Post body.\n\n#One #Two", res.Content)
	assert.Equal(t, []string{"#One", "#Two"}, res.Hashtags)
	assert.Equal(t, len("Post body."), res.CharCount, "character count excludes the hashtag line")

	lines := strings.Split(res.Content, "\n")
	for _, line := range lines[:len(lines)-1] {
		_, isTags := hashtagLine(line)
		assert.False(t, isTags, "only the last line may hold hashtags")
	}

	res, err = shapeLongForm("No tags here.")
	require.NoError(t, err)
	assert.Equal(t, "No tags here.", res.Content)
	assert.Empty(t, res.Hashtags)

	_, err = shapeLongForm("#only #tags")
	assert.Error(t, err)
}

func TestExtractSubject(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		wantSubject string
		wantBody    string
	}{
		{"subject marker", "Subject: Big news\n\nHi there,\nBody.", "Big news", "Hi there,\nBody."},
		{"subject line marker", "Subject Line: Small wins\n\nHello", "Small wins", "Hello"},
		{"no blank line after subject", "Subject: Hey\nBody starts here", "Hey", "Body starts here"},
		{"bold markdown marker", "**Subject:** Read this\n\nBody", "Read this", "Body"},
		{"no marker", "  Hello friend,\n\nBody  ", "", "Hello friend,\n\nBody"},
		{"empty subject is not a marker", "Subject:\n\nBody", "", "Subject:\n\nBody"},
		{"marker later in text is ignored", "Hi\nSubject: nope", "", "Hi\nSubject: nope"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subject, body := ExtractSubject(tt.raw)
			assert.Equal(t, tt.wantSubject, subject)
			assert.Equal(t, tt.wantBody, body)
			if subject != "" {
				assert.NotContains(t, body, "Subject")
			}
		})
	}
}

func TestShapeNewsletterWordCount(t *testing.T) {
	res, err := shapeNewsletter("Subject: Weekly\n\nOne two  three\nfour")
	require.NoError(t, err)
	assert.Equal(t, "Weekly", res.Subject)
	assert.Equal(t, len(strings.Fields(res.Content)), res.WordCount)
	assert.Equal(t, 4, res.WordCount)

	res, err = shapeNewsletter("Subject: only a subject")
	require.NoError(t, err)
	assert.Empty(t, res.Subject)
	assert.Equal(t, "Subject: only a subject", res.Content)

	_, err = shapeNewsletter("  \n ")
	assert.Error(t, err)
}
