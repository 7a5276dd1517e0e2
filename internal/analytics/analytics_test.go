package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/outreach-api/internal/model"
)

func attempt(tag model.StrategyTag, status model.FeedbackStatus, outcome model.OutcomeType, body string) model.OutreachAttempt {
	return model.OutreachAttempt{
		StrategyTag:    tag,
		FeedbackStatus: status,
		Outcome:        outcome,
		MessageBody:    body,
	}
}

func TestSummarize_Empty(t *testing.T) {
	d := Summarize(nil)
	assert.Zero(t, d.TotalSent)
	assert.Zero(t, d.ReplyRate)
	assert.Empty(t, d.Strategies)
}

func TestSummarize_MixedOutcomes(t *testing.T) {
	attempts := []model.OutreachAttempt{
		attempt(model.StrategyPainPoint, model.FeedbackStatusCompleted, model.OutcomeReplied, "pain msg 1"),
		attempt(model.StrategyPainPoint, model.FeedbackStatusCompleted, model.OutcomeGhosted, "pain msg 2"),
		attempt(model.StrategyPainPoint, model.FeedbackStatusCompleted, model.OutcomeReplied, "pain msg 3"),
		attempt(model.StrategyDirectPitch, model.FeedbackStatusCompleted, model.OutcomeBounced, "pitch msg"),
		attempt(model.StrategyDirectPitch, model.FeedbackStatusPending, "", "pending msg"),
	}

	d := Summarize(attempts)
	assert.Equal(t, 5, d.TotalSent)
	assert.Equal(t, 4, d.TotalCompleted)
	assert.Equal(t, 1, d.TotalPending)
	// 2 replies over 4 completed.
	assert.Equal(t, 0.5, d.ReplyRate)

	require.Len(t, d.Strategies, 2)
	// Buckets sort by tag: DIRECT_PITCH before PAIN_POINT.
	pitch := d.Strategies[0]
	assert.Equal(t, model.StrategyDirectPitch, pitch.StrategyTag)
	assert.Equal(t, 2, pitch.Sent)
	assert.Equal(t, 1, pitch.Completed)
	assert.Equal(t, 1, pitch.Bounced)
	assert.Zero(t, pitch.ReplyRate)

	pain := d.Strategies[1]
	assert.Equal(t, model.StrategyPainPoint, pain.StrategyTag)
	assert.Equal(t, 3, pain.Sent)
	assert.Equal(t, 2, pain.Replied)
	assert.Equal(t, 1, pain.Ghosted)
	assert.InDelta(t, 0.667, pain.ReplyRate, 0.0001)
	assert.Equal(t, []string{"pain msg 1", "pain msg 3"}, pain.RepliedMessages)
}

func TestSummarize_AllPendingHasZeroRate(t *testing.T) {
	attempts := []model.OutreachAttempt{
		attempt(model.StrategyValidationAsk, model.FeedbackStatusPending, "", "a"),
		attempt(model.StrategyValidationAsk, model.FeedbackStatusPending, "", "b"),
	}

	d := Summarize(attempts)
	assert.Equal(t, 2, d.TotalSent)
	assert.Equal(t, 2, d.TotalPending)
	assert.Zero(t, d.TotalCompleted)
	assert.Zero(t, d.ReplyRate)
	require.Len(t, d.Strategies, 1)
	assert.Zero(t, d.Strategies[0].ReplyRate)
}

func TestSummarize_RoundsToThreeDecimals(t *testing.T) {
	attempts := []model.OutreachAttempt{
		attempt(model.StrategyIndustryTrend, model.FeedbackStatusCompleted, model.OutcomeReplied, "a"),
		attempt(model.StrategyIndustryTrend, model.FeedbackStatusCompleted, model.OutcomeGhosted, "b"),
		attempt(model.StrategyIndustryTrend, model.FeedbackStatusCompleted, model.OutcomeGhosted, "c"),
	}

	d := Summarize(attempts)
	assert.Equal(t, 0.333, d.ReplyRate)
}
