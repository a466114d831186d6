package forward

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mailforward/internal/domain/mail"
)

type fakeMailbox struct {
	mu sync.Mutex

	pages    map[string][][]mail.InboundMessage // label id -> pages
	labels   map[string][]string
	details  map[string]*mail.MessageDetails
	fetchErr map[string]error
	markErr  map[string]error
	panicOn  string

	listCalls []listCall
	marked    []string
}

type listCall struct {
	labelID    string
	unreadOnly bool
	pageToken  string
	pageSize   int64
}

func newFakeMailbox() *fakeMailbox {
	return &fakeMailbox{
		pages:    map[string][][]mail.InboundMessage{},
		labels:   map[string][]string{},
		details:  map[string]*mail.MessageDetails{},
		fetchErr: map[string]error{},
		markErr:  map[string]error{},
	}
}

func (m *fakeMailbox) add(id, labelID, body string) {
	m.labels[id] = []string{labelID}
	m.details[id] = &mail.MessageDetails{ID: id, Body: body}
	pages := m.pages[labelID]
	if len(pages) == 0 {
		pages = [][]mail.InboundMessage{nil}
	}
	pages[len(pages)-1] = append(pages[len(pages)-1], mail.InboundMessage{ID: id, LabelIDs: []string{labelID}})
	m.pages[labelID] = pages
}

func (m *fakeMailbox) ListMessages(_ context.Context, labelID string, unreadOnly bool, pageToken string, pageSize int64) ([]mail.InboundMessage, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls = append(m.listCalls, listCall{labelID, unreadOnly, pageToken, pageSize})

	pages := m.pages[labelID]
	idx := 0
	if pageToken != "" {
		idx = int(pageToken[0] - '0')
	}
	if idx >= len(pages) {
		return nil, "", nil
	}
	next := ""
	if idx+1 < len(pages) {
		next = string(rune('0' + idx + 1))
	}
	return pages[idx], next, nil
}

func (m *fakeMailbox) GetMetadata(_ context.Context, id string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	labels, ok := m.labels[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return labels, nil
}

func (m *fakeMailbox) GetFullMessage(_ context.Context, id string) (*mail.MessageDetails, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id == m.panicOn {
		panic("boom")
	}
	if err := m.fetchErr[id]; err != nil {
		return nil, err
	}
	return m.details[id], nil
}

func (m *fakeMailbox) MarkRead(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.marked = append(m.marked, id)
	return m.markErr[id]
}

func (m *fakeMailbox) markedIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := append([]string(nil), m.marked...)
	sort.Strings(out)
	return out
}

type queued struct {
	threadID   int64
	text       string
	attachment *mail.Attachment
}

type fakeOutbox struct {
	mu    sync.Mutex
	items []queued
}

func (o *fakeOutbox) EnqueueText(threadID int64, text string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.items = append(o.items, queued{threadID: threadID, text: text})
}

func (o *fakeOutbox) EnqueueAttachment(threadID int64, a mail.Attachment) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.items = append(o.items, queued{threadID: threadID, attachment: &a})
}

type fakeRouter struct {
	threads map[string]int64
	order   []string
}

func (r fakeRouter) Route(labelIDs []string) (int64, bool) {
	for _, want := range r.order {
		for _, id := range labelIDs {
			if id == want {
				return r.threads[want], true
			}
		}
	}
	return 0, false
}

func (r fakeRouter) LabelIDs() []string { return r.order }

type prefixRenderer struct{}

func (prefixRenderer) Render(body string) string { return "rendered:" + body }

func newTestCoordinator(mb *fakeMailbox, out *fakeOutbox, maxLength int) (*Coordinator, *ProcessedSet) {
	router := fakeRouter{
		threads: map[string]int64{"L1": 11, "L2": 22},
		order:   []string{"L1", "L2"},
	}
	processed := NewProcessedSet()
	return NewCoordinator(mb, out, router, prefixRenderer{}, processed, maxLength, zerolog.Nop()), processed
}

func TestProcessNewForwardsAndMarks(t *testing.T) {
	mb := newFakeMailbox()
	mb.add("m1", "L1", "one")
	mb.add("m2", "L2", "two")
	mb.details["m2"].Attachments = []mail.Attachment{{Filename: "a.pdf", MimeType: "application/pdf"}}
	out := &fakeOutbox{}
	c, processed := newTestCoordinator(mb, out, 0)

	require.NoError(t, c.ProcessNew(context.Background()))

	assert.Equal(t, []string{"m1", "m2"}, mb.markedIDs())
	assert.True(t, processed.Contains("m1"))
	assert.True(t, processed.Contains("m2"))

	require.Len(t, out.items, 3)
	byThread := map[int64][]queued{}
	for _, it := range out.items {
		byThread[it.threadID] = append(byThread[it.threadID], it)
	}
	assert.Equal(t, "rendered:one", byThread[11][0].text)
	require.Len(t, byThread[22], 2)
	assert.Equal(t, "rendered:two", byThread[22][0].text)
	require.NotNil(t, byThread[22][1].attachment)
	assert.Equal(t, "a.pdf", byThread[22][1].attachment.Filename)

	for _, call := range mb.listCalls {
		assert.True(t, call.unreadOnly)
		assert.Equal(t, int64(newPageSize), call.pageSize)
	}
}

func TestProcessSkipsAlreadyProcessed(t *testing.T) {
	mb := newFakeMailbox()
	mb.add("m1", "L1", "one")
	out := &fakeOutbox{}
	c, processed := newTestCoordinator(mb, out, 0)
	processed.Add("m1")

	require.NoError(t, c.ProcessNew(context.Background()))

	assert.Empty(t, out.items)
	assert.Empty(t, mb.markedIDs())
}

func TestUnroutedMessageIsNotMarked(t *testing.T) {
	mb := newFakeMailbox()
	mb.add("m1", "L1", "one")
	mb.labels["m1"] = []string{"INBOX"}
	out := &fakeOutbox{}
	c, processed := newTestCoordinator(mb, out, 0)

	require.NoError(t, c.ProcessNew(context.Background()))

	assert.Empty(t, out.items)
	assert.Empty(t, mb.markedIDs())
	assert.False(t, processed.Contains("m1"))
}

func TestMetadataFailureIsUnrouted(t *testing.T) {
	mb := newFakeMailbox()
	mb.add("m1", "L1", "one")
	delete(mb.labels, "m1")
	out := &fakeOutbox{}
	c, processed := newTestCoordinator(mb, out, 0)

	require.NoError(t, c.ProcessNew(context.Background()))

	assert.Empty(t, out.items)
	assert.Empty(t, mb.markedIDs())
	assert.False(t, processed.Contains("m1"))
}

func TestFetchFailureLeavesMessageForRetry(t *testing.T) {
	mb := newFakeMailbox()
	mb.add("m1", "L1", "one")
	mb.fetchErr["m1"] = errors.New("timeout")
	out := &fakeOutbox{}
	c, processed := newTestCoordinator(mb, out, 0)

	require.NoError(t, c.ProcessNew(context.Background()))

	assert.Empty(t, out.items)
	assert.Empty(t, mb.markedIDs())
	assert.False(t, processed.Contains("m1"))
}

func TestMarkReadFailureIsNotProcessed(t *testing.T) {
	mb := newFakeMailbox()
	mb.add("m1", "L1", "one")
	mb.markErr["m1"] = errors.New("forbidden")
	out := &fakeOutbox{}
	c, processed := newTestCoordinator(mb, out, 0)

	require.NoError(t, c.ProcessNew(context.Background()))

	assert.Len(t, out.items, 1)
	assert.Equal(t, []string{"m1"}, mb.markedIDs())
	assert.False(t, processed.Contains("m1"))
}

func TestPanicIsRecoveredAndMarked(t *testing.T) {
	mb := newFakeMailbox()
	mb.add("m1", "L1", "one")
	mb.add("m2", "L1", "two")
	mb.panicOn = "m1"
	out := &fakeOutbox{}
	c, processed := newTestCoordinator(mb, out, 0)

	require.NoError(t, c.ProcessNew(context.Background()))

	assert.Equal(t, []string{"m1", "m2"}, mb.markedIDs())
	assert.False(t, processed.Contains("m1"))
	assert.True(t, processed.Contains("m2"))
}

func TestProcessAllPagesAndMerges(t *testing.T) {
	mb := newFakeMailbox()
	mb.add("m1", "L1", "one")
	mb.pages["L1"] = append(mb.pages["L1"], nil)
	mb.add("m2", "L1", "two")
	// m1 also carries L2 and must be forwarded once.
	mb.pages["L2"] = [][]mail.InboundMessage{{{ID: "m1"}}}
	out := &fakeOutbox{}
	c, processed := newTestCoordinator(mb, out, 0)

	require.NoError(t, c.ProcessAll(context.Background()))

	assert.Equal(t, 2, processed.Len())
	assert.Len(t, out.items, 2)
	assert.Contains(t, mb.listCalls, listCall{"L1", false, "1", backlogPageSize})
}

func TestRenderedTextIsTruncated(t *testing.T) {
	mb := newFakeMailbox()
	mb.add("m1", "L1", "a long body")
	out := &fakeOutbox{}
	c, _ := newTestCoordinator(mb, out, 8)

	require.NoError(t, c.ProcessNew(context.Background()))

	require.Len(t, out.items, 1)
	assert.Equal(t, "rendered", out.items[0].text)
}

func TestRunStopsOnCancel(t *testing.T) {
	mb := newFakeMailbox()
	mb.add("m1", "L1", "one")
	out := &fakeOutbox{}
	c, processed := newTestCoordinator(mb, out, 0)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx, time.Hour) }()

	require.Eventually(t, func() bool { return processed.Contains("m1") }, time.Second, 5*time.Millisecond)

	mb.mu.Lock()
	mb.add("m2", "L2", "two")
	mb.mu.Unlock()
	c.Wake()
	require.Eventually(t, func() bool { return processed.Contains("m2") }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
