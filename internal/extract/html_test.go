package extract

import (
	"strings"
	"testing"
)

func TestFromHTML_FlattensScoreTable(t *testing.T) {
	html := `<html><body>
		<nav>Home | Results</nav>
		<table>
			<tr><th>Section</th><th>Score</th><th>Accuracy</th></tr>
			<tr><td>Quant</td><td>score: 60</td><td>72%</td></tr>
			<tr><td>VARC</td><td>score: 44</td><td>58%</td></tr>
		</table>
	</body></html>`

	text := FromHTML(html)
	if !strings.Contains(text, "Quant: score: 60 72%") {
		t.Errorf("expected flattened quant row, got:\n%s", text)
	}
	if !strings.Contains(text, "VARC: score: 44 58%") {
		t.Errorf("expected flattened varc row, got:\n%s", text)
	}
	if strings.Contains(text, "Home") {
		t.Errorf("nav content should be removed, got:\n%s", text)
	}
}

func TestFromHTML_IgnoresNonScoreTables(t *testing.T) {
	html := `<html><body>
		<table><tr><td>Menu</td><td>Pricing</td></tr></table>
		<article><p>Mock review: overall score: 55 with accuracy: 61% across sections.</p></article>
	</body></html>`

	text := FromHTML(html)
	if strings.Contains(text, "Pricing") && !strings.Contains(text, "score: 55") {
		t.Errorf("expected article text over menu table, got:\n%s", text)
	}
	if !strings.Contains(text, "score: 55") {
		t.Errorf("expected main content text, got:\n%s", text)
	}
}

func TestFromHTML_MalformedFallsBackToStrippedTags(t *testing.T) {
	text := FromHTML("<p>score: 42")
	if !strings.Contains(text, "score: 42") {
		t.Errorf("expected stripped text, got %q", text)
	}
}
