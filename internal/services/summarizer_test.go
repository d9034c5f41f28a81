package services

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jarvistext/jarvis-backend/internal/repository"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func TestSummarizer_UpdateConversationSummary(t *testing.T) {
	convs := newFakeConversationRepo()
	users := newFakeUserRepo()
	oracle := newFakeOracle("Friday dinner confirmed at Rosa's.")
	s := NewSummarizer(oracle, convs, users, quietLogger())

	conversation := convs.seed([]string{"+1", "+2"}, "Deciding on a restaurant.")

	lines := []string{"+1: how about Rosa's?", "Jarvis: Rosa's works, Friday at 7?"}
	err := s.UpdateConversationSummary(context.Background(), conversation, lines)
	require.NoError(t, err)

	// Prompt carries the prior summary and both new lines
	require.Len(t, oracle.calls, 1)
	assert.Contains(t, oracle.calls[0].user, "Deciding on a restaurant.")
	assert.Contains(t, oracle.calls[0].user, "+1: how about Rosa's?")
	assert.Contains(t, oracle.calls[0].user, "Jarvis: Rosa's works, Friday at 7?")

	// Stored summary is replaced wholesale
	require.Len(t, convs.summaryUpdates, 1)
	assert.Equal(t, "Friday dinner confirmed at Rosa's.", convs.summaryUpdates[0].summary)

	// The in-memory conversation reflects the new summary for later callers
	assert.Equal(t, "Friday dinner confirmed at Rosa's.", conversation.Summary.String)
}

func TestSummarizer_EmptySummaryUsesPlaceholder(t *testing.T) {
	convs := newFakeConversationRepo()
	oracle := newFakeOracle("first summary")
	s := NewSummarizer(oracle, convs, newFakeUserRepo(), quietLogger())

	conversation := convs.seed([]string{"+1", "+2"}, "")
	err := s.UpdateConversationSummary(context.Background(), conversation, []string{"+1: hello"})
	require.NoError(t, err)

	assert.Contains(t, oracle.calls[0].user, "No summary yet.")
}

func TestSummarizer_OracleFailureLeavesSummaryUntouched(t *testing.T) {
	convs := newFakeConversationRepo()
	oracle := newFakeOracle("")
	oracle.failWith = errStoreDown
	s := NewSummarizer(oracle, convs, newFakeUserRepo(), quietLogger())

	conversation := convs.seed([]string{"+1", "+2"}, "stable summary")
	err := s.UpdateConversationSummary(context.Background(), conversation, []string{"+1: hi"})
	assert.Error(t, err)
	assert.Empty(t, convs.summaryUpdates)
	assert.Equal(t, "stable summary", conversation.Summary.String)
}

func TestSummarizer_UpdateUserProfile(t *testing.T) {
	users := newFakeUserRepo()
	oracle := newFakeOracle("Vegetarian, prefers evenings.")
	s := NewSummarizer(oracle, newFakeConversationRepo(), users, quietLogger())

	user, err := users.UpsertByPhone(context.Background(), "+1555")
	require.NoError(t, err)

	err = s.UpdateUserProfile(context.Background(), user, []string{"+1555: no meat for me please"})
	require.NoError(t, err)

	assert.Contains(t, oracle.calls[0].user, "No details yet.")

	profile, err := user.Profile()
	require.NoError(t, err)
	assert.Equal(t, "Vegetarian, prefers evenings.", profile.Summary)

	// Persisted blob decodes to the same profile
	stored, err := users.GetByPhone(context.Background(), "+1555")
	require.NoError(t, err)
	storedProfile, err := stored.Profile()
	require.NoError(t, err)
	assert.Equal(t, "Vegetarian, prefers evenings.", storedProfile.Summary)
}

func TestSummarizer_UserProfileCarriesPriorSummary(t *testing.T) {
	users := newFakeUserRepo()
	oracle := newFakeOracle("updated")
	s := NewSummarizer(oracle, newFakeConversationRepo(), users, quietLogger())

	user := &repository.User{ID: "u1", PhoneNumber: "+1555"}
	require.NoError(t, user.SetProfile(repository.Profile{Summary: "Likes Thai food."}))

	err := s.UpdateUserProfile(context.Background(), user, []string{"+1555: also gluten free"})
	require.NoError(t, err)

	assert.Contains(t, oracle.calls[0].user, "Likes Thai food.")
	assert.Contains(t, oracle.calls[0].user, "also gluten free")
}
