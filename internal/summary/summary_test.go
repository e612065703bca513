package summary

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/radi8/getajob/internal/afk"
	"github.com/radi8/getajob/internal/host"
	"github.com/radi8/getajob/internal/tracker"
	"github.com/rs/zerolog"
)

type fakeSessionStore struct {
	totals map[string]int64
	err    error
}

func (s *fakeSessionStore) AppendSession(ctx context.Context, playerID string, lengthMinutes int64) error {
	return nil
}

func (s *fakeSessionStore) TodayTotalFor(ctx context.Context, playerID string) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	return s.totals[playerID], nil
}

func (s *fakeSessionStore) TodayTotalsAll(ctx context.Context) (map[string]int64, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make(map[string]int64, len(s.totals))
	for k, v := range s.totals {
		out[k] = v
	}
	return out, nil
}

type fakeGateway struct {
	names map[string]string
}

func (g *fakeGateway) OnlinePlayers(ctx context.Context) ([]host.Player, error) {
	return nil, nil
}

func (g *fakeGateway) PlayerPosition(ctx context.Context, playerID string) (afk.Position, error) {
	return afk.Position{}, host.ErrPlayerOffline
}

func (g *fakeGateway) ResolveName(ctx context.Context, playerID string) (string, error) {
	if name, ok := g.names[playerID]; ok {
		return name, nil
	}
	return "", host.ErrPlayerOffline
}

func (g *fakeGateway) Kick(ctx context.Context, playerID, message string) error { return nil }

func (g *fakeGateway) Broadcast(ctx context.Context, message string) error { return nil }

func newTestSummarizer(store *fakeSessionStore, gateway *fakeGateway) (*Summarizer, *tracker.Tracker) {
	logger := zerolog.Nop()
	tr := tracker.New(afk.DefaultTolerance, logger)
	return New(store, tr, gateway, logger), tr
}

func TestSummarizeTodayNoActivity(t *testing.T) {
	store := &fakeSessionStore{totals: map[string]int64{}}
	gateway := &fakeGateway{names: map[string]string{}}
	sum, _ := newTestSummarizer(store, gateway)

	if got := sum.SummarizeToday(context.Background()); got != NoActivityMessage {
		t.Errorf("SummarizeToday() = %q, want %q", got, NoActivityMessage)
	}
}

func TestSummarizeTodayMergesLiveAndPersisted(t *testing.T) {
	store := &fakeSessionStore{totals: map[string]int64{"p1": 30}}
	gateway := &fakeGateway{names: map[string]string{"p1": "Alex", "p2": "Brook"}}
	sum, tr := newTestSummarizer(store, gateway)

	// p1 has 30 persisted minutes plus 2 live, p2 has 1 live minute.
	tr.OnJoin("p1")
	tr.OnTick("p1", afk.Position{X: 0, Y: 0})
	tr.OnTick("p1", afk.Position{X: 10, Y: 0})
	tr.OnJoin("p2")
	tr.OnTick("p2", afk.Position{X: 0, Y: 0})

	got := sum.SummarizeToday(context.Background())

	if !strings.Contains(got, "Alex has played for 32 minute(s) today") {
		t.Errorf("summary missing merged total for Alex:\n%s", got)
	}
	if !strings.Contains(got, "Brook has played for 1 minute(s) today") {
		t.Errorf("summary missing live-only total for Brook:\n%s", got)
	}
	if strings.HasSuffix(got, "\n") {
		t.Error("summary must not end with a newline")
	}
}

func TestSummarizeTodaySkipsSubMinuteLiveSessions(t *testing.T) {
	store := &fakeSessionStore{totals: map[string]int64{}}
	gateway := &fakeGateway{names: map[string]string{"p1": "Alex"}}
	sum, tr := newTestSummarizer(store, gateway)

	tr.OnJoin("p1")

	if got := sum.SummarizeToday(context.Background()); got != NoActivityMessage {
		t.Errorf("SummarizeToday() = %q, want %q", got, NoActivityMessage)
	}
}

func TestSummarizeTodayDistinguishesZeroTotals(t *testing.T) {
	// Players on record with no whole minute yet get the second message,
	// not the empty-day one.
	store := &fakeSessionStore{totals: map[string]int64{"p1": 0}}
	gateway := &fakeGateway{names: map[string]string{"p1": "Alex"}}
	sum, _ := newTestSummarizer(store, gateway)

	if got := sum.SummarizeToday(context.Background()); got != NoSignificantTimeMessage {
		t.Errorf("SummarizeToday() = %q, want %q", got, NoSignificantTimeMessage)
	}
}

func TestSummarizeTodayUnknownNameFallback(t *testing.T) {
	store := &fakeSessionStore{totals: map[string]int64{"p9": 5}}
	gateway := &fakeGateway{names: map[string]string{}}
	sum, _ := newTestSummarizer(store, gateway)

	got := sum.SummarizeToday(context.Background())
	if !strings.Contains(got, "Unknown (p9) has played for 5 minute(s) today") {
		t.Errorf("summary missing unknown-name fallback:\n%s", got)
	}
}

func TestSummarizeTodayStoreFailureDegradesToLive(t *testing.T) {
	store := &fakeSessionStore{err: errors.New("store unavailable")}
	gateway := &fakeGateway{names: map[string]string{"p1": "Alex"}}
	sum, tr := newTestSummarizer(store, gateway)

	tr.OnJoin("p1")
	tr.OnTick("p1", afk.Position{X: 0, Y: 0})

	got := sum.SummarizeToday(context.Background())
	if !strings.Contains(got, "Alex has played for 1 minute(s) today") {
		t.Errorf("summary should fall back to live sessions:\n%s", got)
	}
}
