package assignment

import (
	"context"
	"sync"
	"testing"

	"MaintenanceHub/internal/domain"

	"github.com/google/uuid"
)

// ---- 内存版存储，分配语义与 pgx 实现一致（条件更新） ----

type memWorkOrders struct {
	mu    sync.Mutex
	items map[uuid.UUID]*domain.WorkOrder
}

func newMemWorkOrders() *memWorkOrders {
	return &memWorkOrders{items: map[uuid.UUID]*domain.WorkOrder{}}
}

func (m *memWorkOrders) add(w domain.WorkOrder) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := w
	m.items[w.ID] = &cp
}

func (m *memWorkOrders) GetByID(_ context.Context, id uuid.UUID) (*domain.WorkOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.items[id]
	if !ok {
		return nil, domain.NotFoundf("工单 %s 不存在", id)
	}
	cp := *w
	return &cp, nil
}

func (m *memWorkOrders) ListUnassignedPending(_ context.Context) ([]domain.WorkOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var res []domain.WorkOrder
	for _, w := range m.items {
		if w.Status == domain.StatusPending && w.AssignedTo == nil {
			res = append(res, *w)
		}
	}
	return res, nil
}

func uuidPtrEqual(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (m *memWorkOrders) ApplyAssignment(_ context.Context, c domain.AssignmentChange) (*domain.WorkOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.items[c.WorkOrderID]
	if !ok {
		return nil, domain.NotFoundf("工单 %s 不存在", c.WorkOrderID)
	}
	allowed := false
	for _, s := range c.AllowedStatuses {
		if w.Status == s {
			allowed = true
		}
	}
	if !allowed || !uuidPtrEqual(w.AssignedTo, c.ExpectAssignedTo) {
		return nil, domain.Conflictf("工单 %s 已被并发修改，分配未写入", c.WorkOrderID)
	}
	w.AssignedTo = c.AssignedTo
	if c.Priority != nil {
		w.Priority = *c.Priority
	}
	if c.ScheduledDate != nil {
		w.ScheduledDate = c.ScheduledDate
	}
	if c.Notes != nil {
		w.Notes = *c.Notes
	}
	cp := *w
	return &cp, nil
}

// workload 现算，跟 SQL 实现同口径
func (m *memWorkOrders) workloadOf(techID uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, w := range m.items {
		if w.AssignedTo != nil && *w.AssignedTo == techID &&
			(w.Status == domain.StatusPending || w.Status == domain.StatusInProgress) {
			n++
		}
	}
	return n
}

type memTechs struct {
	techs      map[uuid.UUID]domain.Technician
	workOrders *memWorkOrders
}

func (m *memTechs) GetByID(_ context.Context, id uuid.UUID) (*domain.Technician, error) {
	t, ok := m.techs[id]
	if !ok {
		return nil, domain.NotFoundf("技师 %s 不存在", id)
	}
	t.CurrentWorkload = m.workOrders.workloadOf(id)
	return &t, nil
}

func (m *memTechs) ListWithWorkload(_ context.Context) ([]domain.Technician, error) {
	var res []domain.Technician
	for _, t := range m.techs {
		t.CurrentWorkload = m.workOrders.workloadOf(t.ID)
		res = append(res, t)
	}
	return res, nil
}

type memAudits struct {
	mu    sync.Mutex
	items []domain.AssignmentAudit
}

func (m *memAudits) Insert(_ context.Context, a *domain.AssignmentAudit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, *a)
	return nil
}

func (m *memAudits) ListByWorkOrder(_ context.Context, workOrderID uuid.UUID) ([]domain.AssignmentAudit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var res []domain.AssignmentAudit
	for _, a := range m.items {
		if a.WorkOrderID == workOrderID {
			res = append(res, a)
		}
	}
	return res, nil
}

// ---- 测试夹具 ----

func seqUUID(n byte) uuid.UUID {
	var b [16]byte
	b[15] = n
	return uuid.UUID(b)
}

type fixture struct {
	eng        *Engine
	workOrders *memWorkOrders
	audits     *memAudits
	actor      uuid.UUID
	techA      uuid.UUID
	techB      uuid.UUID
	techC      uuid.UUID
}

func newFixture() *fixture {
	wos := newMemWorkOrders()
	f := &fixture{
		workOrders: wos,
		audits:     &memAudits{},
		actor:      seqUUID(0xAA),
		techA:      seqUUID(1),
		techB:      seqUUID(2),
		techC:      seqUUID(3),
	}
	techs := &memTechs{
		techs: map[uuid.UUID]domain.Technician{
			f.techA: {ID: f.techA, Name: "张師傅"},
			f.techB: {ID: f.techB, Name: "李師傅"},
			f.techC: {ID: f.techC, Name: "王師傅"},
		},
		workOrders: wos,
	}
	f.eng = New(wos, techs, f.audits)
	return f
}

func (f *fixture) addWorkOrder(id uuid.UUID, status domain.WorkOrderStatus, assignedTo *uuid.UUID) {
	f.workOrders.add(domain.WorkOrder{
		ID:        id,
		Title:     "更换滤芯",
		MachineID: seqUUID(0x10),
		Status:    status,
		Priority:  domain.PriorityMedium,
	})
	if assignedTo != nil {
		f.workOrders.mu.Lock()
		f.workOrders.items[id].AssignedTo = assignedTo
		f.workOrders.mu.Unlock()
	}
}

// ---- Assign ----

func TestAssignHappyPath(t *testing.T) {
	f := newFixture()
	woID := seqUUID(0x20)
	f.addWorkOrder(woID, domain.StatusPending, nil)

	wo, err := f.eng.Assign(context.Background(), AssignParams{
		WorkOrderID: woID, TechnicianID: f.techA, Actor: f.actor,
	})
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if wo.AssignedTo == nil || *wo.AssignedTo != f.techA {
		t.Fatalf("expected assigned to techA, got %v", wo.AssignedTo)
	}
	if got := f.workOrders.workloadOf(f.techA); got != 1 {
		t.Fatalf("expected workload 1, got %d", got)
	}
	audits, _ := f.audits.ListByWorkOrder(context.Background(), woID)
	if len(audits) != 1 {
		t.Fatalf("expected 1 audit, got %d", len(audits))
	}
	if audits[0].PreviousTechnician != nil || audits[0].NewTechnician == nil || *audits[0].NewTechnician != f.techA {
		t.Fatalf("unexpected audit: %+v", audits[0])
	}
}

func TestAssignAlreadyAssigned(t *testing.T) {
	f := newFixture()
	woID := seqUUID(0x20)
	f.addWorkOrder(woID, domain.StatusPending, &f.techA)

	_, err := f.eng.Assign(context.Background(), AssignParams{
		WorkOrderID: woID, TechnicianID: f.techB, Actor: f.actor,
	})
	if domain.KindOf(err) != domain.KindInvalidState {
		t.Fatalf("expected invalid_state, got %v", err)
	}
}

func TestAssignTechnicianNotFound(t *testing.T) {
	f := newFixture()
	woID := seqUUID(0x20)
	f.addWorkOrder(woID, domain.StatusPending, nil)

	_, err := f.eng.Assign(context.Background(), AssignParams{
		WorkOrderID: woID, TechnicianID: seqUUID(0xFF), Actor: f.actor,
	})
	if domain.KindOf(err) != domain.KindNotFound {
		t.Fatalf("expected not_found, got %v", err)
	}
}

func TestAssignTerminalStatusRejected(t *testing.T) {
	f := newFixture()
	for _, status := range []domain.WorkOrderStatus{domain.StatusCompleted, domain.StatusCancelled} {
		woID := uuid.New()
		f.addWorkOrder(woID, status, nil)
		_, err := f.eng.Assign(context.Background(), AssignParams{
			WorkOrderID: woID, TechnicianID: f.techA, Actor: f.actor,
		})
		if domain.KindOf(err) != domain.KindInvalidState {
			t.Fatalf("status %s: expected invalid_state, got %v", status, err)
		}
	}
}

// ---- Reassign ----

func TestReassignRequiresReason(t *testing.T) {
	f := newFixture()
	woID := seqUUID(0x20)
	f.addWorkOrder(woID, domain.StatusPending, &f.techA)

	for _, reason := range []string{"", "   ", "\t\n"} {
		_, err := f.eng.Reassign(context.Background(), ReassignParams{
			WorkOrderID: woID, NewTechnicianID: f.techB, Reason: reason, Actor: f.actor,
		})
		if domain.KindOf(err) != domain.KindValidation {
			t.Fatalf("reason %q: expected validation error, got %v", reason, err)
		}
	}
	// 工单不能被改动，也不能留下审计
	wo, _ := f.workOrders.GetByID(context.Background(), woID)
	if wo.AssignedTo == nil || *wo.AssignedTo != f.techA {
		t.Fatalf("work order mutated by rejected reassign: %v", wo.AssignedTo)
	}
	if audits, _ := f.audits.ListByWorkOrder(context.Background(), woID); len(audits) != 0 {
		t.Fatalf("expected no audits, got %d", len(audits))
	}
}

func TestReassignHappyPath(t *testing.T) {
	f := newFixture()
	woID := seqUUID(0x20)
	f.addWorkOrder(woID, domain.StatusInProgress, &f.techA)

	beforeA := f.workOrders.workloadOf(f.techA)
	beforeB := f.workOrders.workloadOf(f.techB)

	wo, err := f.eng.Reassign(context.Background(), ReassignParams{
		WorkOrderID: woID, NewTechnicianID: f.techB, Reason: "A is overloaded", Actor: f.actor,
	})
	if err != nil {
		t.Fatalf("Reassign: %v", err)
	}
	if wo.AssignedTo == nil || *wo.AssignedTo != f.techB {
		t.Fatalf("expected assigned to techB, got %v", wo.AssignedTo)
	}
	if got := f.workOrders.workloadOf(f.techA); got != beforeA-1 {
		t.Fatalf("techA workload: got %d, want %d", got, beforeA-1)
	}
	if got := f.workOrders.workloadOf(f.techB); got != beforeB+1 {
		t.Fatalf("techB workload: got %d, want %d", got, beforeB+1)
	}
	audits, _ := f.audits.ListByWorkOrder(context.Background(), woID)
	if len(audits) != 1 {
		t.Fatalf("expected 1 audit, got %d", len(audits))
	}
	a := audits[0]
	if a.PreviousTechnician == nil || *a.PreviousTechnician != f.techA ||
		a.NewTechnician == nil || *a.NewTechnician != f.techB ||
		a.Reason != "A is overloaded" {
		t.Fatalf("unexpected audit: %+v", a)
	}
}

func TestReassignUnassignedRejected(t *testing.T) {
	f := newFixture()
	woID := seqUUID(0x20)
	f.addWorkOrder(woID, domain.StatusPending, nil)

	_, err := f.eng.Reassign(context.Background(), ReassignParams{
		WorkOrderID: woID, NewTechnicianID: f.techB, Reason: "换人", Actor: f.actor,
	})
	if domain.KindOf(err) != domain.KindInvalidState {
		t.Fatalf("expected invalid_state, got %v", err)
	}
}

func TestReassignCompletedRejected(t *testing.T) {
	f := newFixture()
	woID := seqUUID(0x20)
	f.addWorkOrder(woID, domain.StatusCompleted, &f.techA)

	_, err := f.eng.Reassign(context.Background(), ReassignParams{
		WorkOrderID: woID, NewTechnicianID: f.techB, Reason: "换人", Actor: f.actor,
	})
	if domain.KindOf(err) != domain.KindInvalidState {
		t.Fatalf("expected invalid_state, got %v", err)
	}
}

// ---- Unassign ----

func TestUnassignOnlyPending(t *testing.T) {
	f := newFixture()
	for _, status := range []domain.WorkOrderStatus{domain.StatusInProgress, domain.StatusCompleted, domain.StatusCancelled} {
		woID := uuid.New()
		f.addWorkOrder(woID, status, &f.techA)
		_, err := f.eng.Unassign(context.Background(), UnassignParams{WorkOrderID: woID, Actor: f.actor})
		if domain.KindOf(err) != domain.KindInvalidState {
			t.Fatalf("status %s: expected invalid_state, got %v", status, err)
		}
		wo, _ := f.workOrders.GetByID(context.Background(), woID)
		if wo.AssignedTo == nil || *wo.AssignedTo != f.techA {
			t.Fatalf("status %s: work order mutated by rejected unassign", status)
		}
	}
}

func TestUnassignHappyPath(t *testing.T) {
	f := newFixture()
	woID := seqUUID(0x20)
	f.addWorkOrder(woID, domain.StatusPending, &f.techA)

	wo, err := f.eng.Unassign(context.Background(), UnassignParams{
		WorkOrderID: woID, Reason: "排班调整", Actor: f.actor,
	})
	if err != nil {
		t.Fatalf("Unassign: %v", err)
	}
	if wo.AssignedTo != nil {
		t.Fatalf("expected unassigned, got %v", wo.AssignedTo)
	}
	audits, _ := f.audits.ListByWorkOrder(context.Background(), woID)
	if len(audits) != 1 || audits[0].NewTechnician != nil {
		t.Fatalf("unexpected audits: %+v", audits)
	}
	if audits[0].PreviousTechnician == nil || *audits[0].PreviousTechnician != f.techA {
		t.Fatalf("audit should record previous technician, got %+v", audits[0])
	}
}

// ---- 并发 ----

func TestConcurrentAssignSingleWinner(t *testing.T) {
	f := newFixture()
	woID := seqUUID(0x20)
	f.addWorkOrder(woID, domain.StatusPending, nil)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, tech := range []uuid.UUID{f.techA, f.techB} {
		wg.Add(1)
		go func(i int, tech uuid.UUID) {
			defer wg.Done()
			_, errs[i] = f.eng.Assign(context.Background(), AssignParams{
				WorkOrderID: woID, TechnicianID: tech, Actor: f.actor,
			})
		}(i, tech)
	}
	wg.Wait()

	var okCount int
	for _, err := range errs {
		if err == nil {
			okCount++
			continue
		}
		kind := domain.KindOf(err)
		if kind != domain.KindConflict && kind != domain.KindInvalidState {
			t.Fatalf("loser should see conflict/invalid_state, got %v", err)
		}
	}
	if okCount != 1 {
		t.Fatalf("expected exactly one winner, got %d", okCount)
	}
	wo, _ := f.workOrders.GetByID(context.Background(), woID)
	if wo.AssignedTo == nil {
		t.Fatal("work order should end up assigned")
	}
}
