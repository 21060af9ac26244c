package feed_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/link-health/internal/feed"
)

const rssFixture = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Industry Wire</title>
    <category>Industry</category>
    <item>
      <title><![CDATA[<b>Quarterly</b> results &amp; outlook]]></title>
      <link>https://example.com/q3</link>
      <description><![CDATA[<p>Revenue   grew <a href="#">again</a>.</p>]]></description>
      <pubDate>Mon, 01 Jan 2024 12:00:00 +0000</pubDate>
      <category>Finance</category>
    </item>
    <item>
      <link>https://example.com/untitled</link>
      <description>No title here</description>
    </item>
    <item>
      <title>Guid only</title>
      <guid>https://example.com/guid-link</guid>
    </item>
    <item>
      <title>Opaque guid</title>
      <guid isPermaLink="false">tag:example.com,2024:1</guid>
    </item>
  </channel>
</rss>`

const atomFixture = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Research Notes</title>
  <entry>
    <title>Alpha Entry</title>
    <link href="https://example.org/alpha"/>
    <summary>Short summary</summary>
    <updated>2024-02-01T08:30:00Z</updated>
    <category term="AI"/>
  </entry>
</feed>`

func TestParse_RSS(t *testing.T) {
	t.Parallel()

	items, err := feed.Parse(context.Background(), []byte(rssFixture), 10)
	require.NoError(t, err)
	require.Len(t, items, 3, "title-less item must be dropped")

	first := items[0]
	assert.Equal(t, "Quarterly results & outlook", first.Title)
	assert.Equal(t, "Revenue grew again.", first.Description)
	assert.Equal(t, "https://example.com/q3", first.Link)
	assert.Equal(t, "Finance", first.Category)
	require.NotNil(t, first.PubDate)
	assert.True(t, first.PubDate.Equal(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)))

	assert.Equal(t, "Guid only", items[1].Title)
	assert.Equal(t, "https://example.com/guid-link", items[1].Link)
	assert.Equal(t, "Industry", items[1].Category, "falls back to channel category")
	assert.Nil(t, items[1].PubDate)

	assert.Empty(t, items[2].Link)
}

func TestParse_Atom(t *testing.T) {
	t.Parallel()

	items, err := feed.Parse(context.Background(), []byte(atomFixture), 10)
	require.NoError(t, err)
	require.Len(t, items, 1)

	item := items[0]
	assert.Equal(t, "Alpha Entry", item.Title)
	assert.Equal(t, "https://example.org/alpha", item.Link)
	assert.Equal(t, "Short summary", item.Description)
	assert.Equal(t, "AI", item.Category)
	require.NotNil(t, item.PubDate)
	assert.Equal(t, 2024, item.PubDate.Year())
}

func TestParse_CapsItems(t *testing.T) {
	t.Parallel()

	var b strings.Builder
	b.WriteString(`<?xml version="1.0"?><rss version="2.0"><channel><title>Big</title>`)
	for i := range 15 {
		fmt.Fprintf(&b, `<item><title>Item %d</title><link>https://example.com/%d</link></item>`, i, i)
	}
	b.WriteString(`</channel></rss>`)

	items, err := feed.Parse(context.Background(), []byte(b.String()), feed.DefaultMaxItems)
	require.NoError(t, err)
	require.Len(t, items, 10)
	assert.Equal(t, "Item 0", items[0].Title)
	assert.Equal(t, "Item 9", items[9].Title)
}

func TestParse_EmptyFeed(t *testing.T) {
	t.Parallel()

	items, err := feed.Parse(context.Background(),
		[]byte(`<?xml version="1.0"?><rss version="2.0"><channel><title>Empty</title></channel></rss>`), 10)
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestParse_NotAFeed(t *testing.T) {
	t.Parallel()

	_, err := feed.Parse(context.Background(), []byte("this is not xml at all"), 10)
	require.Error(t, err)
}

func TestParse_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := feed.Parse(ctx, []byte(rssFixture), 10)
	require.ErrorIs(t, err, context.Canceled)
}

func TestParse_BlockMarkupKeepsWordsApart(t *testing.T) {
	t.Parallel()

	doc := `<?xml version="1.0"?><rss version="2.0"><channel><title>Wire</title>
<item><title>Split</title><link>https://example.com/split</link>
<description><![CDATA[<p>First paragraph.</p><p>Second</p><ul><li>one</li><li>two</li></ul>line<br>break<script>var x = 1;</script>]]></description>
</item></channel></rss>`

	items, err := feed.Parse(context.Background(), []byte(doc), 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "First paragraph. Second one two line break", items[0].Description)
}
