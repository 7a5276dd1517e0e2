// Package analytics aggregates outreach outcomes into the dashboard view.
package analytics

import (
	"math"
	"sort"

	"github.com/sells-group/outreach-api/internal/model"
)

// Dashboard is the aggregate view over a user's outreach history.
type Dashboard struct {
	TotalSent      int              `json:"total_sent"`
	TotalCompleted int              `json:"total_completed"`
	TotalPending   int              `json:"total_pending"`
	ReplyRate      float64          `json:"reply_rate"`
	Strategies     []StrategyBucket `json:"strategies"`
}

// StrategyBucket aggregates outcomes for one strategy tag.
type StrategyBucket struct {
	StrategyTag model.StrategyTag `json:"strategy_tag"`
	Sent        int               `json:"sent"`
	Completed   int               `json:"completed"`
	Replied     int               `json:"replied"`
	Ghosted     int               `json:"ghosted"`
	Bounced     int               `json:"bounced"`
	ReplyRate   float64           `json:"reply_rate"`
	// RepliedMessages holds the bodies that actually got replies, the raw
	// material for judging which angles land.
	RepliedMessages []string `json:"replied_messages"`
}

// Summarize computes the dashboard from a user's outreach attempts. Reply
// rates are replied over completed-feedback attempts; pending attempts count
// toward sent totals but not rates.
func Summarize(attempts []model.OutreachAttempt) Dashboard {
	d := Dashboard{TotalSent: len(attempts)}
	buckets := make(map[model.StrategyTag]*StrategyBucket)

	for _, a := range attempts {
		b, ok := buckets[a.StrategyTag]
		if !ok {
			b = &StrategyBucket{StrategyTag: a.StrategyTag}
			buckets[a.StrategyTag] = b
		}
		b.Sent++

		if a.FeedbackStatus != model.FeedbackStatusCompleted {
			d.TotalPending++
			continue
		}
		d.TotalCompleted++
		b.Completed++

		switch a.Outcome {
		case model.OutcomeReplied:
			b.Replied++
			b.RepliedMessages = append(b.RepliedMessages, a.MessageBody)
		case model.OutcomeGhosted:
			b.Ghosted++
		case model.OutcomeBounced:
			b.Bounced++
		}
	}

	var totalReplied int
	for _, b := range buckets {
		totalReplied += b.Replied
		b.ReplyRate = rate(b.Replied, b.Completed)
		d.Strategies = append(d.Strategies, *b)
	}
	d.ReplyRate = rate(totalReplied, d.TotalCompleted)

	sort.Slice(d.Strategies, func(i, j int) bool {
		return d.Strategies[i].StrategyTag < d.Strategies[j].StrategyTag
	})
	return d
}

// rate returns replied/completed rounded to 3 decimals, 0 when nothing has
// completed yet.
func rate(replied, completed int) float64 {
	if completed == 0 {
		return 0
	}
	return math.Round(float64(replied)/float64(completed)*1000) / 1000
}
