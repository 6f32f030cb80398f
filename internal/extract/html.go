// internal/extract/html.go
package extract

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

var scorecardKeywords = regexp.MustCompile(`(?i)score|accuracy|section|attempt|percentile|marks`)

// FromHTML extracts scorecard text from a saved result page. Score tables are
// flattened into "name: rest" lines so the signal extractor can parse them;
// when no score-bearing table exists, readability pulls the main page content.
func FromHTML(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return stripTags(html)
	}

	doc.Find("script, style, noscript, nav, footer, aside").Each(func(_ int, s *goquery.Selection) {
		s.Remove()
	})

	if tableText := flattenScoreTables(doc); tableText != "" {
		return tableText
	}

	if article := readableText(html); article != "" {
		return article
	}

	return strings.TrimSpace(doc.Text())
}

// flattenScoreTables turns each row of a score-bearing table into a line of
// "first cell: remaining cells" text.
func flattenScoreTables(doc *goquery.Document) string {
	var builder strings.Builder
	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		if !scorecardKeywords.MatchString(table.Text()) {
			return
		}
		table.Find("tr").Each(func(_ int, row *goquery.Selection) {
			var cells []string
			row.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
				text := strings.Join(strings.Fields(cell.Text()), " ")
				if text != "" {
					cells = append(cells, text)
				}
			})
			if len(cells) >= 2 {
				builder.WriteString(cells[0])
				builder.WriteString(": ")
				builder.WriteString(strings.Join(cells[1:], " "))
				builder.WriteString("\n")
			}
		})
	})
	return strings.TrimSpace(builder.String())
}

func readableText(html string) string {
	pageURL, _ := url.Parse("https://upload.local/scorecard")
	article, err := readability.FromReader(strings.NewReader(html), pageURL)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(article.TextContent)
}

func stripTags(html string) string {
	re := regexp.MustCompile(`<[^>]+>`)
	text := re.ReplaceAllString(html, " ")
	return strings.TrimSpace(regexp.MustCompile(`\s+`).ReplaceAllString(text, " "))
}
