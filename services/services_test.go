package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"splitledger/ledger"
)

type sentMail struct {
	to      Recipient
	subject string
	html    string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *fakeMailer) Send(_ context.Context, to Recipient, subject, html string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to, subject, html})
	return nil
}

type sentPush struct {
	token, title, body string
	data               map[string]string
}

type fakePusher struct {
	mu   sync.Mutex
	sent []sentPush
}

func (p *fakePusher) Push(_ context.Context, token, title, body string, data map[string]string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, sentPush{token, title, body, data})
	return nil
}

type world struct {
	ctx      context.Context
	dir      *ledger.MemoryDirectory
	a, b, c  ledger.User
	group    ledger.Group
	mailer   *fakeMailer
	pusher   *fakePusher
	notifier *NotificationService
}

func newWorld(t *testing.T) *world {
	t.Helper()
	ctx := context.Background()
	dir := ledger.NewMemoryDirectory()
	a, err := dir.CreateUser(ctx, "Alice", "alice@example.com")
	require.NoError(t, err)
	b, err := dir.CreateUser(ctx, "Bob", "bob@example.com")
	require.NoError(t, err)
	c, err := dir.CreateUser(ctx, "Carol", "carol@example.com")
	require.NoError(t, err)
	require.NoError(t, dir.SetPushToken(ctx, b.ID, "bob-device"))
	b, _ = dir.User(ctx, b.ID)
	g, err := dir.CreateGroup(ctx, "Flat", []uuid.UUID{a.ID, b.ID, c.ID})
	require.NoError(t, err)

	w := &world{ctx: ctx, dir: dir, a: a, b: b, c: c, group: g, mailer: &fakeMailer{}, pusher: &fakePusher{}}
	w.notifier = NewNotificationService(dir, w.mailer, w.pusher, "SplitLedger", "INR", zap.NewNop())
	return w
}

func (w *world) expense() ledger.Expense {
	return ledger.Expense{
		ID:          uuid.New(),
		GroupID:     w.group.ID,
		Amount:      ledger.MustAmount("90"),
		Description: "dinner",
		PaidBy:      w.a.ID,
		SplitType:   ledger.SplitEqual,
		Shares: []ledger.Share{
			{UserID: w.a.ID, Amount: ledger.MustAmount("30")},
			{UserID: w.b.ID, Amount: ledger.MustAmount("30")},
			{UserID: w.c.ID, Amount: ledger.MustAmount("30")},
		},
	}
}

func TestNotifyExpenseAdded(t *testing.T) {
	w := newWorld(t)

	require.NoError(t, w.notifier.Notify(w.ctx, ledger.ExpenseEvent(w.expense())))

	require.Len(t, w.mailer.sent, 2, "everyone but the payer gets an email")
	for _, m := range w.mailer.sent {
		assert.NotEqual(t, "alice@example.com", m.to.Email)
		assert.Equal(t, `Alice added "dinner" in Flat`, m.subject)
		assert.Contains(t, m.html, "Your share: INR 30.00")
	}

	require.Len(t, w.pusher.sent, 1, "only Bob registered a device")
	p := w.pusher.sent[0]
	assert.Equal(t, "bob-device", p.token)
	assert.Equal(t, "Alice added an expense", p.title)
	assert.Equal(t, `You owe INR 30.00 for "dinner" in Flat`, p.body)
	assert.Equal(t, "expense_added", p.data["type"])
}

func TestNotifySettlement(t *testing.T) {
	w := newWorld(t)

	err := w.notifier.Notify(w.ctx, ledger.SettlementEvent(ledger.Settlement{
		ID: uuid.New(), FromUserID: w.a.ID, ToUserID: w.b.ID, Amount: ledger.MustAmount("12.5"), Note: "rent",
	}))
	require.NoError(t, err)

	require.Len(t, w.mailer.sent, 1)
	assert.Equal(t, "bob@example.com", w.mailer.sent[0].to.Email)
	assert.Contains(t, w.mailer.sent[0].html, "INR 12.50")
	assert.Contains(t, w.mailer.sent[0].html, "rent")
	require.Len(t, w.pusher.sent, 1)
	assert.Equal(t, "Alice paid you INR 12.50", w.pusher.sent[0].body)
}

func TestNotifyToleratesMissingChannelsAndFailures(t *testing.T) {
	w := newWorld(t)

	silent := NewNotificationService(w.dir, nil, nil, "SplitLedger", "INR", zap.NewNop())
	assert.NoError(t, silent.Notify(w.ctx, ledger.ExpenseEvent(w.expense())))

	w.mailer.err = errors.New("quota exceeded")
	assert.NoError(t, w.notifier.Notify(w.ctx, ledger.ExpenseEvent(w.expense())))
	assert.Len(t, w.pusher.sent, 1)
}

func TestNotifyUnknownPayer(t *testing.T) {
	w := newWorld(t)
	exp := w.expense()
	exp.PaidBy = uuid.New()

	err := w.notifier.Notify(w.ctx, ledger.ExpenseEvent(exp))
	assert.True(t, ledger.IsNotFound(err))
}

type recordingNotifier struct {
	mu    sync.Mutex
	seen  []uint64
	block chan struct{}
}

func (n *recordingNotifier) Notify(_ context.Context, ev ledger.Event) error {
	if n.block != nil {
		<-n.block
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.seen = append(n.seen, ev.Seq)
	return nil
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.seen)
}

func TestWorkerDeliversAndDrains(t *testing.T) {
	n := &recordingNotifier{}
	w := NewWorker(n, 10, zap.NewNop())
	w.Start()

	for i := 1; i <= 5; i++ {
		w.Enqueue(ledger.Event{Seq: uint64(i), Kind: ledger.KindSettlement})
	}
	w.Shutdown()

	assert.Equal(t, []uint64{1, 2, 3, 4, 5}, n.seen)
}

func TestWorkerDropsWhenFull(t *testing.T) {
	n := &recordingNotifier{block: make(chan struct{})}
	w := NewWorker(n, 1, zap.NewNop())
	w.Start()

	w.Enqueue(ledger.Event{Seq: 1})
	// Wait until the worker holds event 1, leaving the buffer empty.
	require.Eventually(t, func() bool { return len(w.eventCh) == 0 }, time.Second, time.Millisecond)
	w.Enqueue(ledger.Event{Seq: 2})
	w.Enqueue(ledger.Event{Seq: 3})

	close(n.block)
	w.Shutdown()
	assert.Equal(t, 2, n.count())
	assert.Equal(t, []uint64{1, 2}, n.seen)
}
