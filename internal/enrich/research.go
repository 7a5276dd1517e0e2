package enrich

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/outreach-api/internal/model"
	"github.com/sells-group/outreach-api/internal/resilience"
	"github.com/sells-group/outreach-api/pkg/youcom"
)

// maxResearchHits caps how many search results feed the summary.
const maxResearchHits = 3

// BuildResearchQuery returns the web search query for a contact's company.
func BuildResearchQuery(companyName string) string {
	return fmt.Sprintf("%s recent news problems", companyName)
}

// researchContact runs the best-effort research phase for one contact. It
// never returns an error: when the search provider fails or the circuit is
// open, the returned Research carries empty fields so the draft phase can
// still run on contact data alone.
func (p *Pipeline) researchContact(ctx context.Context, contact *model.Contact) model.Research {
	log := zap.L().With(
		zap.String("contact_id", contact.ID),
		zap.String("company", contact.CompanyName),
	)

	research := model.Research{ContactID: contact.ID}

	query := BuildResearchQuery(contact.CompanyName)
	resp, err := resilience.ExecuteVal(ctx, p.searchBreaker, func(ctx context.Context) (*youcom.SearchResponse, error) {
		return p.search.Search(ctx, query)
	})
	if err != nil {
		log.Warn("enrich: research search failed, continuing with empty research", zap.Error(err))
		return research
	}

	summary, painPoints, sourceURL := summarizeHits(resp.Hits)
	research.NewsSummary = summary
	research.PainPoints = painPoints
	research.SourceURL = sourceURL
	research.RawResponse = resp.Raw

	log.Debug("enrich: research complete",
		zap.Int("hits", len(resp.Hits)),
		zap.Int("summary_chars", len(summary)),
	)
	return research
}

// summarizeHits condenses the first few search hits into the research fields.
// Descriptions become the news summary, snippets the pain point signals, and
// the first hit supplies the source URL.
func summarizeHits(hits []youcom.Hit) (summary, painPoints, sourceURL string) {
	if len(hits) == 0 {
		return "", "", ""
	}
	if len(hits) > maxResearchHits {
		hits = hits[:maxResearchHits]
	}

	var descriptions []string
	var snippets []string
	for _, h := range hits {
		if d := strings.TrimSpace(h.Description); d != "" {
			descriptions = append(descriptions, d)
		}
		for _, s := range h.Snippets {
			if s = strings.TrimSpace(s); s != "" {
				snippets = append(snippets, s)
			}
		}
	}

	summary = truncate(strings.Join(descriptions, "\n\n"), model.MaxNewsSummaryChars)
	painPoints = truncate(strings.Join(snippets, "\n"), model.MaxPainPointsChars)
	return summary, painPoints, hits[0].URL
}

// truncate cuts s to at most max characters. The bound counts runes, not
// bytes, so a multi-byte character is never cut in half.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
