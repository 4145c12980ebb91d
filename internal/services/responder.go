// Package services – Responder
//
// A Responder turns a prompt into an assistant reply. PlaybookResponder is
// deterministic: it answers from the strategy playbook index and the
// festival calendar. OpenAIResponder asks a chat-completion model and falls
// back to another Responder on any error.
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/tbourn/retail-chat-dashboard/internal/domain"
	"github.com/tbourn/retail-chat-dashboard/internal/festivals"
	"github.com/tbourn/retail-chat-dashboard/internal/search"
)

// Answer sources reported on Reply.Source.
const (
	SourcePlaybook = "playbook"
	SourceOpenAI   = "openai"
	SourceFallback = "fallback"
)

// Reply is a generated assistant answer.
type Reply struct {
	Content string
	Score   *float64
	Source  string
}

// Responder produces a reply for prompt in lang, given prior messages.
type Responder interface {
	Reply(ctx context.Context, prompt, lang string, history []domain.Message) (Reply, error)
}

// phrases holds the fixed reply scaffolding per language.
type phrases struct {
	strategiesFor string
	inDays        string
	today         string
	stock         string
	discounts     string
	marketing     string
	fromPlaybook  string
	season        string
	noAnswer      string
}

var phrasebook = map[string]phrases{
	"en": {
		strategiesFor: "Business strategies for %s",
		inDays:        "in %d days",
		today:         "today",
		stock:         "Stock updates",
		discounts:     "Discount suggestions",
		marketing:     "Marketing tips",
		fromPlaybook:  "From the playbook",
		season:        "Seasonal outlook",
		noAnswer:      "I can only answer retail sales strategy questions. Try asking about inventory, discounts, pricing or upcoming festivals.",
	},
	"hi": {
		strategiesFor: "%s के लिए व्यावसायिक रणनीतियाँ",
		inDays:        "%d दिनों में",
		today:         "आज",
		stock:         "स्टॉक अपडेट",
		discounts:     "छूट सुझाव",
		marketing:     "मार्केटिंग टिप्स",
		fromPlaybook:  "प्लेबुक से",
		season:        "मौसमी दृष्टिकोण",
		noAnswer:      "मैं केवल खुदरा बिक्री रणनीति से जुड़े प्रश्नों का उत्तर दे सकता हूँ।",
	},
	"ta": {
		strategiesFor: "%s க்கான வணிக உத்திகள்",
		inDays:        "%d நாட்களில்",
		today:         "இன்று",
		stock:         "இருப்பு புதுப்பிப்புகள்",
		discounts:     "தள்ளுபடி பரிந்துரைகள்",
		marketing:     "சந்தைப்படுத்தல் குறிப்புகள்",
		fromPlaybook:  "வழிகாட்டியிலிருந்து",
		season:        "பருவகால கண்ணோட்டம்",
		noAnswer:      "சில்லறை விற்பனை உத்தி தொடர்பான கேள்விகளுக்கு மட்டுமே என்னால் பதிலளிக்க முடியும்.",
	},
}

func phrasesFor(lang string) phrases {
	if p, ok := phrasebook[lang]; ok {
		return p
	}
	return phrasebook["en"]
}

// PlaybookResponder answers from a search index and the festival calendar.
type PlaybookResponder struct {
	Index     search.Index
	Calendar  *festivals.Calendar
	Threshold float64
	// MaxSnippets caps playbook paragraphs per reply (default 2).
	MaxSnippets int
	// Now is the clock used for festival distances (default time.Now).
	Now func() time.Time
}

var seasonalWords = []string{"season", "seasonal", "this month"}

// Reply builds a Markdown answer: festival strategy blocks for every festival
// named in the prompt, then the best playbook snippets, then the seasonal
// outlook when asked for. With nothing relevant it returns the
// language-specific no-answer text and a nil score.
func (p *PlaybookResponder) Reply(ctx context.Context, prompt, lang string, _ []domain.Message) (Reply, error) {
	_, span := otel.Tracer("services/PlaybookResponder").Start(ctx, "Reply")
	defer span.End()

	ph := phrasesFor(lang)
	now := time.Now()
	if p.Now != nil {
		now = p.Now()
	}
	var b strings.Builder

	if p.Calendar != nil {
		for _, f := range p.Calendar.Mentioned(now, prompt) {
			writeFestival(&b, ph, f)
		}
	}

	var score *float64
	if p.Index != nil {
		max := p.MaxSnippets
		if max <= 0 {
			max = 2
		}
		var picked []search.Result
		for _, r := range p.Index.TopK(prompt, max) {
			if r.Score >= p.Threshold {
				picked = append(picked, r)
			}
		}
		if len(picked) > 0 {
			top := picked[0].Score
			score = &top
			fmt.Fprintf(&b, "**%s: %s**\n\n", ph.fromPlaybook, picked[0].Section)
			for _, r := range picked {
				b.WriteString(r.Snippet)
				b.WriteString("\n\n")
			}
		}
	}

	low := strings.ToLower(prompt)
	for _, w := range seasonalWords {
		if strings.Contains(low, w) {
			s := festivals.Seasonal(now.Month())
			fmt.Fprintf(&b, "**%s (%s)**\n\n", ph.season, s.Name)
			writeList(&b, s.Recommendations)
			break
		}
	}

	out := strings.TrimSpace(b.String())
	span.SetAttributes(attribute.Bool("reply.answered", out != ""))
	if out == "" {
		return Reply{Content: ph.noAnswer, Source: SourcePlaybook}, nil
	}
	if score == nil {
		one := 1.0
		score = &one
	}
	return Reply{Content: out, Score: score, Source: SourcePlaybook}, nil
}

func writeFestival(b *strings.Builder, ph phrases, f domain.Festival) {
	when := ph.today
	if f.DaysUntil > 0 {
		when = fmt.Sprintf(ph.inDays, f.DaysUntil)
	}
	fmt.Fprintf(b, "### "+ph.strategiesFor+" (%s, %s)\n\n", f.Name, f.Date, when)
	fmt.Fprintf(b, "**%s**\n\n", ph.stock)
	writeList(b, f.Recommendations.StockUpdates)
	fmt.Fprintf(b, "**%s**\n\n", ph.discounts)
	writeList(b, f.Recommendations.DiscountSuggestions)
	fmt.Fprintf(b, "**%s**\n\n", ph.marketing)
	writeList(b, f.Recommendations.MarketingTips)
}

func writeList(b *strings.Builder, items []string) {
	for _, it := range items {
		b.WriteString("- ")
		b.WriteString(it)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
}
