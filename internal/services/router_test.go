package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouterFixture(groupSizeLimit int) (*Router, *fakeOracle, *fakeDispatcher, *fakeMessageRepo, *fakeConversationRepo, *fakeUserRepo) {
	oracle := newFakeOracle("router reply")
	dispatcher := newFakeDispatcher()
	msgs := newFakeMessageRepo()
	convs := newFakeConversationRepo()
	users := newFakeUserRepo()
	summarizer := NewSummarizer(oracle, convs, users, quietLogger())
	router := NewRouter(oracle, dispatcher, msgs, summarizer, groupSizeLimit, quietLogger())
	return router, oracle, dispatcher, msgs, convs, users
}

func participantSet(n int) []string {
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, fmt.Sprintf("+1555%07d", i))
	}
	return out
}

func TestRouter_GroupPathAtLimit(t *testing.T) {
	router, _, dispatcher, msgs, convs, users := newRouterFixture(8)

	conversation := convs.seed(participantSet(8), "")
	sender, err := users.UpsertByPhone(context.Background(), "+15550000000")
	require.NoError(t, err)

	result, err := router.Route(context.Background(), conversation, sender, "@jarvis go")
	require.NoError(t, err)

	// Exactly at the limit still broadcasts
	assert.Equal(t, RouteGroup, result.Mode)
	assert.Len(t, dispatcher.groupSends, 1)
	assert.Empty(t, dispatcher.directSends)
	assert.Len(t, msgs.botMessages(), 1)
	assert.Len(t, convs.summaryUpdates, 1)
}

func TestRouter_DirectPathPastLimit(t *testing.T) {
	router, _, dispatcher, msgs, convs, users := newRouterFixture(8)

	conversation := convs.seed(participantSet(9), "")
	sender, err := users.UpsertByPhone(context.Background(), "+15550000000")
	require.NoError(t, err)

	result, err := router.Route(context.Background(), conversation, sender, "@jarvis go")
	require.NoError(t, err)

	assert.Equal(t, RouteDirect, result.Mode)
	require.Len(t, dispatcher.directSends, 1)
	assert.Equal(t, sender.PhoneNumber, dispatcher.directSends[0].number)
	assert.Empty(t, dispatcher.groupSends)
	assert.Empty(t, msgs.botMessages())
	assert.Empty(t, convs.summaryUpdates)
}

func TestRouter_DefaultContextWhenNoSummary(t *testing.T) {
	router, oracle, _, _, convs, users := newRouterFixture(8)

	conversation := convs.seed(participantSet(2), "")
	sender, err := users.UpsertByPhone(context.Background(), "+15550000000")
	require.NoError(t, err)

	_, err = router.Route(context.Background(), conversation, sender, "@jarvis go")
	require.NoError(t, err)

	require.NotEmpty(t, oracle.calls)
	assert.Contains(t, oracle.calls[0].system, "No previous context.")
}

func TestRouter_OversizedDirectiveMentionsCarrierLimits(t *testing.T) {
	router, oracle, _, _, convs, users := newRouterFixture(8)

	conversation := convs.seed(participantSet(12), "")
	sender, err := users.UpsertByPhone(context.Background(), "+15550000000")
	require.NoError(t, err)

	_, err = router.Route(context.Background(), conversation, sender, "@jarvis go")
	require.NoError(t, err)

	require.Len(t, oracle.calls, 1, "oversized path makes exactly one oracle call")
	assert.Contains(t, oracle.calls[0].system, "carrier limits")
	assert.Contains(t, oracle.calls[0].system, "paste it back")
}

func TestRouter_BotMessagePersistFailurePropagates(t *testing.T) {
	router, _, _, msgs, convs, users := newRouterFixture(8)
	msgs.failWith = errStoreDown

	conversation := convs.seed(participantSet(2), "")
	sender, err := users.UpsertByPhone(context.Background(), "+15550000000")
	require.NoError(t, err)

	_, err = router.Route(context.Background(), conversation, sender, "@jarvis go")
	assert.Error(t, err)
}
