package section

import (
	"context"
	"sync"
)

// Sections loadable into the content region.
const (
	SectionExpenses       = "expenses"
	SectionReimbursements = "reimbursements"
	SectionStatistics     = "statistics"
)

// Controller loads section fragments into its region and owns the
// delegated handlers. One controller per region.
type Controller struct {
	api    API
	region *Region

	mu         sync.Mutex
	generation uint64
	current    string
	bound      map[ListenerKind]bool
	form       *ExpenseFormController
	reimburse  *ReimbursementController
	stats      *StatisticsController
}

func NewController(api API, region *Region, surface ChartSurface) *Controller {
	c := &Controller{
		api:    api,
		region: region,
		bound:  make(map[ListenerKind]bool),
		stats:  NewStatisticsController(surface),
	}
	c.reimburse = NewReimbursementController(api, region.PlanHash(), c.reloadCurrent)
	return c
}

// Load fetches the named section and swaps it into the region. A failed
// fetch renders an error block and is terminal for this attempt only:
// Load returns nil and a later call may succeed. When loads overlap, the
// last one started wins; earlier responses are discarded without
// activation.
func (c *Controller) Load(ctx context.Context, name string) error {
	c.mu.Lock()
	c.generation++
	gen := c.generation
	c.mu.Unlock()

	fragment, err := c.api.SectionFragment(ctx, c.region.PlanHash(), name)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		// Stale response: a newer load already started.
		return nil
	}
	if err != nil {
		c.region.SetError("Failed to load " + name)
		return nil
	}
	c.region.Replace(fragment)
	c.current = name
	c.activate(name, fragment)
	return nil
}

// LoadExpenseDetail swaps in the edit fragment for one expense. The
// rebuilt form controller targets the expense instead of creating one.
func (c *Controller) LoadExpenseDetail(ctx context.Context, expenseID int64) error {
	c.mu.Lock()
	c.generation++
	gen := c.generation
	c.mu.Unlock()

	fragment, err := c.api.ExpenseDetail(ctx, c.region.PlanHash(), expenseID)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return nil
	}
	if err != nil {
		c.region.SetError("Failed to load expense")
		return nil
	}
	c.region.Replace(fragment)
	c.current = SectionExpenses
	c.activate(SectionExpenses, fragment)
	c.form.editing(expenseID)
	return nil
}

// Current returns the section occupying the region.
func (c *Controller) Current() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Form returns the controller bound to the fragment loaded last. Nil
// until an expenses fragment has been activated.
func (c *Controller) Form() *ExpenseFormController {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.form
}

// Reimbursements returns the mark-paid controller.
func (c *Controller) Reimbursements() *ReimbursementController { return c.reimburse }

// Statistics returns the chart dataset controller.
func (c *Controller) Statistics() *StatisticsController { return c.stats }

// activate wires the freshly swapped fragment. Delegated handlers attach
// to the region once per listener kind for the region's lifetime, no
// matter how many activations run. Fragment-local state (the expense
// form, the chart dataset) is rebuilt on every load.
//
// Callers hold c.mu.
func (c *Controller) activate(name, fragment string) {
	c.bindOnce(ListenerExpenseOpen, c.onExpenseOpen)
	c.bindOnce(ListenerExpenseDelete, c.onExpenseDelete)
	c.bindOnce(ListenerMarkPaid, c.onMarkPaid)

	switch name {
	case SectionExpenses:
		c.form = NewExpenseFormController(c.api, c.region.PlanHash(),
			fragmentParticipants(fragment), c.reloadCurrent)
	case SectionStatistics:
		c.stats.Update(fragment)
	}
}

func (c *Controller) bindOnce(kind ListenerKind, h Handler) {
	if c.bound[kind] {
		return
	}
	c.bound[kind] = true
	c.region.Bind(kind, h)
}

func (c *Controller) reloadCurrent(ctx context.Context) error {
	c.mu.Lock()
	name := c.current
	c.mu.Unlock()
	if name == "" {
		name = SectionExpenses
	}
	return c.Load(ctx, name)
}

func (c *Controller) onExpenseOpen(ctx context.Context, ev Event) error {
	id, err := parseExpenseID(ev.Field("expense-id"))
	if err != nil {
		return err
	}
	return c.LoadExpenseDetail(ctx, id)
}

func (c *Controller) onExpenseDelete(ctx context.Context, ev Event) error {
	id, err := parseExpenseID(ev.Field("expense-id"))
	if err != nil {
		return err
	}
	if err := c.api.DeleteExpense(ctx, c.region.PlanHash(), id); err != nil {
		return err
	}
	return c.reloadCurrent(ctx)
}

func (c *Controller) onMarkPaid(ctx context.Context, ev Event) error {
	return c.reimburse.MarkPaid(ctx, MarkPaid{
		From:   ev.Field("from"),
		To:     ev.Field("to"),
		Amount: ev.Field("amount"),
	})
}
