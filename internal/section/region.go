package section

import (
	"context"
	"sync"
)

// ListenerKind identifies one family of delegated events flowing through
// the content region.
type ListenerKind string

const (
	ListenerExpenseOpen   ListenerKind = "expense:open"
	ListenerExpenseDelete ListenerKind = "expense:delete"
	ListenerMarkPaid      ListenerKind = "reimburse:mark-paid"
)

// Event is a delegated event dispatched through the region. Payload
// fields are looked up by name.
type Event struct {
	fields map[string]string
}

func NewEvent(fields map[string]string) Event {
	return Event{fields: fields}
}

// Field returns the named payload field, or "" when absent.
func (e Event) Field(name string) string {
	return e.fields[name]
}

// Handler consumes one delegated event.
type Handler func(ctx context.Context, ev Event) error

// Region is the single persistent content region of a plan page. Its
// children (the current fragment HTML) are replaced on every load; the
// region itself lives for the whole page. Delegated handlers attach to
// the region, so they survive child replacement.
type Region struct {
	planHash string

	mu       sync.Mutex
	html     string
	errMsg   string
	handlers map[ListenerKind][]Handler
}

func NewRegion(planHash string) *Region {
	return &Region{
		planHash: planHash,
		handlers: make(map[ListenerKind][]Handler),
	}
}

func (r *Region) PlanHash() string { return r.planHash }

// Replace swaps in new children and clears any previous error state.
func (r *Region) Replace(html string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.html = html
	r.errMsg = ""
}

// SetError replaces the children with a visible error block.
func (r *Region) SetError(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errMsg = msg
	r.html = `<div class="error">` + msg + `</div>`
}

func (r *Region) HTML() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.html
}

// Err returns the current error message, empty when the last load succeeded.
func (r *Region) Err() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.errMsg
}

// Bind attaches a delegated handler. The caller is responsible for
// binding each kind at most once; Bind itself appends unconditionally so
// duplicate registrations are observable.
func (r *Region) Bind(kind ListenerKind, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[kind] = append(r.handlers[kind], h)
}

// HandlerCount reports how many handlers are attached for a kind.
func (r *Region) HandlerCount(kind ListenerKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handlers[kind])
}

// Dispatch delivers an event to every handler of the kind, stopping at
// the first error.
func (r *Region) Dispatch(ctx context.Context, kind ListenerKind, ev Event) error {
	r.mu.Lock()
	hs := append([]Handler(nil), r.handlers[kind]...)
	r.mu.Unlock()
	for _, h := range hs {
		if err := h(ctx, ev); err != nil {
			return err
		}
	}
	return nil
}
