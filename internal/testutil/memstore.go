// Package testutil provides test doubles and database helpers.
package testutil

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"pitlane.io/pitlane/internal/domain"
	"pitlane.io/pitlane/internal/repository"
)

type memState struct {
	mu   sync.Mutex
	txMu sync.Mutex

	users    map[string]*domain.User
	vehicles map[string]*domain.Vehicle
	services map[string]*domain.Service
	parts    map[string]*domain.SparePart
	requests map[string]*domain.SparePartRequest
	invoices map[string]*domain.Invoice
	audit    []domain.AuditEntry

	failures map[string]error
	pingErr  error
}

// MemStore is an in-memory repository.Store.
//
// Transactions are serialized and rolled back by restoring a snapshot, and
// every conditional write keeps the compare-and-swap semantics of the
// PostgreSQL implementation. Non-transactional writes racing a transaction
// may be lost on rollback; tests that need that isolation use PostgreSQL.
type MemStore struct {
	st   *memState
	inTx bool
}

// NewMemStore returns an empty store.
func NewMemStore() *MemStore {
	return &MemStore{st: &memState{
		users:    map[string]*domain.User{},
		vehicles: map[string]*domain.Vehicle{},
		services: map[string]*domain.Service{},
		parts:    map[string]*domain.SparePart{},
		requests: map[string]*domain.SparePartRequest{},
		invoices: map[string]*domain.Invoice{},
		failures: map[string]error{},
	}}
}

// FailOn makes the named store method return err until cleared with a nil err.
func (m *MemStore) FailOn(method string, err error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if err == nil {
		delete(m.st.failures, method)
		return
	}
	m.st.failures[method] = err
}

// SetPingError makes Ping return err.
func (m *MemStore) SetPingError(err error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	m.st.pingErr = err
}

// AuditEntries returns a copy of all audit entries in insertion order.
func (m *MemStore) AuditEntries() []domain.AuditEntry {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	return append([]domain.AuditEntry(nil), m.st.audit...)
}

// lock acquires the data mutex and returns the injected failure for method, if any.
func (m *MemStore) lock(method string) error {
	m.st.mu.Lock()
	return m.st.failures[method]
}

func (m *MemStore) unlock() { m.st.mu.Unlock() }

// InTx serializes fn against other transactions and restores the prior state on error.
func (m *MemStore) InTx(ctx context.Context, fn func(tx repository.Store) error) error {
	if m.inTx {
		return fn(m)
	}

	m.st.txMu.Lock()
	defer m.st.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	m.st.mu.Lock()
	snap := m.st.snapshot()
	m.st.mu.Unlock()

	if err := fn(&MemStore{st: m.st, inTx: true}); err != nil {
		m.st.mu.Lock()
		m.st.restore(snap)
		m.st.mu.Unlock()
		return err
	}
	return nil
}

func (m *MemStore) Ping(ctx context.Context) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	return m.st.pingErr
}

// ---- users ----

func (m *MemStore) CreateUser(ctx context.Context, u *domain.User) error {
	if err := m.lock("CreateUser"); err != nil {
		m.unlock()
		return err
	}
	defer m.unlock()
	if _, ok := m.st.users[u.ID]; ok {
		return fmt.Errorf("%w: users_pkey", repository.ErrUniqueViolation)
	}
	for _, existing := range m.st.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return fmt.Errorf("%w: users_email_key", repository.ErrUniqueViolation)
		}
	}
	cp := *u
	cp.UpdatedAt = cp.CreatedAt
	m.st.users[u.ID] = &cp
	return nil
}

func (m *MemStore) GetUser(ctx context.Context, id string) (*domain.User, error) {
	if err := m.lock("GetUser"); err != nil {
		m.unlock()
		return nil, err
	}
	defer m.unlock()
	u, ok := m.st.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *MemStore) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	if err := m.lock("GetUserByEmail"); err != nil {
		m.unlock()
		return nil, err
	}
	defer m.unlock()
	for _, u := range m.st.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

// ---- vehicles ----

func (m *MemStore) CreateVehicle(ctx context.Context, v *domain.Vehicle) error {
	if err := m.lock("CreateVehicle"); err != nil {
		m.unlock()
		return err
	}
	defer m.unlock()
	for _, existing := range m.st.vehicles {
		if existing.Plate == v.Plate {
			return fmt.Errorf("%w: vehicles_plate_key", repository.ErrUniqueViolation)
		}
	}
	if _, ok := m.st.users[v.OwnerID]; !ok {
		return fmt.Errorf("%w: vehicles_owner_id_fkey", repository.ErrReferenced)
	}
	cp := *v
	cp.UpdatedAt = cp.CreatedAt
	m.st.vehicles[v.ID] = &cp
	return nil
}

func (m *MemStore) GetVehicle(ctx context.Context, id string) (*domain.Vehicle, error) {
	if err := m.lock("GetVehicle"); err != nil {
		m.unlock()
		return nil, err
	}
	defer m.unlock()
	v, ok := m.st.vehicles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *v
	return &cp, nil
}

func (m *MemStore) ListVehicles(ctx context.Context, ownerID string) ([]*domain.Vehicle, error) {
	if err := m.lock("ListVehicles"); err != nil {
		m.unlock()
		return nil, err
	}
	defer m.unlock()
	var out []*domain.Vehicle
	for _, v := range m.st.vehicles {
		if ownerID == "" || v.OwnerID == ownerID {
			cp := *v
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *MemStore) DeleteVehicle(ctx context.Context, id string) error {
	if err := m.lock("DeleteVehicle"); err != nil {
		m.unlock()
		return err
	}
	defer m.unlock()
	if _, ok := m.st.vehicles[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.st.vehicles, id)
	for sid, s := range m.st.services {
		if s.VehicleID == id {
			delete(m.st.services, sid)
		}
	}
	for rid, r := range m.st.requests {
		if r.VehicleID == id {
			delete(m.st.requests, rid)
		}
	}
	for iid, inv := range m.st.invoices {
		if inv.VehicleID == id {
			delete(m.st.invoices, iid)
		}
	}
	return nil
}

func (m *MemStore) CountIssuedInvoices(ctx context.Context, vehicleID string) (int, error) {
	if err := m.lock("CountIssuedInvoices"); err != nil {
		m.unlock()
		return 0, err
	}
	defer m.unlock()
	n := 0
	for _, inv := range m.st.invoices {
		if inv.VehicleID == vehicleID && inv.Status != domain.InvoiceStatusDraft {
			n++
		}
	}
	return n, nil
}

// ---- services ----

func cloneService(s *domain.Service) *domain.Service {
	cp := *s
	if s.Rating != nil {
		r := *s.Rating
		cp.Rating = &r
	}
	if s.MechanicID != nil {
		id := *s.MechanicID
		cp.MechanicID = &id
	}
	if s.InvoiceID != nil {
		id := *s.InvoiceID
		cp.InvoiceID = &id
	}
	return &cp
}

func (m *MemStore) CreateService(ctx context.Context, s *domain.Service) error {
	if err := m.lock("CreateService"); err != nil {
		m.unlock()
		return err
	}
	defer m.unlock()
	if _, ok := m.st.vehicles[s.VehicleID]; !ok {
		return fmt.Errorf("%w: services_vehicle_id_fkey", repository.ErrReferenced)
	}
	cp := cloneService(s)
	cp.UpdatedAt = cp.CreatedAt
	m.st.services[s.ID] = cp
	return nil
}

func (m *MemStore) GetService(ctx context.Context, id string) (*domain.Service, error) {
	if err := m.lock("GetService"); err != nil {
		m.unlock()
		return nil, err
	}
	defer m.unlock()
	s, ok := m.st.services[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneService(s), nil
}

func (m *MemStore) LockService(ctx context.Context, id string) (*domain.Service, error) {
	return m.GetService(ctx, id)
}

func (m *MemStore) ListServices(ctx context.Context, f domain.ServiceFilter) ([]*domain.Service, error) {
	if err := m.lock("ListServices"); err != nil {
		m.unlock()
		return nil, err
	}
	defer m.unlock()
	var out []*domain.Service
	for _, s := range m.st.services {
		if f.OwnerID != "" {
			v, ok := m.st.vehicles[s.VehicleID]
			if !ok || v.OwnerID != f.OwnerID {
				continue
			}
		}
		if f.MechanicID != "" && !s.AssignedTo(f.MechanicID) {
			continue
		}
		if f.VehicleID != "" && s.VehicleID != f.VehicleID {
			continue
		}
		if f.Status != "" && s.Status != f.Status {
			continue
		}
		if f.Billable && !s.Billable() {
			continue
		}
		out = append(out, cloneService(s))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ScheduledDate.Equal(out[j].ScheduledDate) {
			return out[i].ScheduledDate.After(out[j].ScheduledDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *MemStore) AssignService(ctx context.Context, id string, mechanicID *string, status domain.ServiceStatus) (*domain.Service, error) {
	if err := m.lock("AssignService"); err != nil {
		m.unlock()
		return nil, err
	}
	defer m.unlock()
	s, ok := m.st.services[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if mechanicID != nil {
		mid := *mechanicID
		s.MechanicID = &mid
	} else {
		s.MechanicID = nil
	}
	s.Status = status
	s.UpdatedAt = time.Now().UTC()
	return cloneService(s), nil
}

func (m *MemStore) CompareAndSetServiceStatus(ctx context.Context, id string, from, to domain.ServiceStatus) (bool, error) {
	if err := m.lock("CompareAndSetServiceStatus"); err != nil {
		m.unlock()
		return false, err
	}
	defer m.unlock()
	s, ok := m.st.services[id]
	if !ok || s.Status != from {
		return false, nil
	}
	s.Status = to
	s.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (m *MemStore) SetServiceRating(ctx context.Context, id string, rating int) (bool, error) {
	if err := m.lock("SetServiceRating"); err != nil {
		m.unlock()
		return false, err
	}
	defer m.unlock()
	s, ok := m.st.services[id]
	if !ok || s.Rating != nil || s.Status != domain.ServiceStatusCompleted {
		return false, nil
	}
	r := rating
	s.Rating = &r
	s.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (m *MemStore) LinkServiceInvoice(ctx context.Context, serviceID, invoiceID string) (bool, error) {
	if err := m.lock("LinkServiceInvoice"); err != nil {
		m.unlock()
		return false, err
	}
	defer m.unlock()
	s, ok := m.st.services[serviceID]
	if !ok || s.InvoiceID != nil || s.Status != domain.ServiceStatusCompleted {
		return false, nil
	}
	id := invoiceID
	s.InvoiceID = &id
	s.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (m *MemStore) UnlinkServiceInvoice(ctx context.Context, serviceID, invoiceID string) error {
	if err := m.lock("UnlinkServiceInvoice"); err != nil {
		m.unlock()
		return err
	}
	defer m.unlock()
	s, ok := m.st.services[serviceID]
	if ok && s.InvoiceID != nil && *s.InvoiceID == invoiceID {
		s.InvoiceID = nil
		s.UpdatedAt = time.Now().UTC()
	}
	return nil
}

// ---- spare parts ----

func (m *MemStore) CreateSparePart(ctx context.Context, p *domain.SparePart) error {
	if err := m.lock("CreateSparePart"); err != nil {
		m.unlock()
		return err
	}
	defer m.unlock()
	if _, ok := m.st.parts[p.ID]; ok {
		return fmt.Errorf("%w: spare_parts_pkey", repository.ErrUniqueViolation)
	}
	cp := *p
	cp.UpdatedAt = cp.CreatedAt
	m.st.parts[p.ID] = &cp
	return nil
}

func (m *MemStore) GetSparePart(ctx context.Context, id string) (*domain.SparePart, error) {
	if err := m.lock("GetSparePart"); err != nil {
		m.unlock()
		return nil, err
	}
	defer m.unlock()
	p, ok := m.st.parts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MemStore) ListSpareParts(ctx context.Context) ([]*domain.SparePart, error) {
	if err := m.lock("ListSpareParts"); err != nil {
		m.unlock()
		return nil, err
	}
	defer m.unlock()
	out := make([]*domain.SparePart, 0, len(m.st.parts))
	for _, p := range m.st.parts {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *MemStore) UpdateSparePart(ctx context.Context, p *domain.SparePart) error {
	if err := m.lock("UpdateSparePart"); err != nil {
		m.unlock()
		return err
	}
	defer m.unlock()
	existing, ok := m.st.parts[p.ID]
	if !ok {
		return repository.ErrNotFound
	}
	existing.Name = p.Name
	existing.Price = p.Price
	existing.Quantity = p.Quantity
	existing.CriticalLevel = p.CriticalLevel
	existing.UpdatedAt = time.Now().UTC()
	p.UpdatedAt = existing.UpdatedAt
	return nil
}

func (m *MemStore) DeleteSparePart(ctx context.Context, id string) error {
	if err := m.lock("DeleteSparePart"); err != nil {
		m.unlock()
		return err
	}
	defer m.unlock()
	if _, ok := m.st.parts[id]; !ok {
		return repository.ErrNotFound
	}
	for _, r := range m.st.requests {
		if r.SparePartID == id {
			return fmt.Errorf("%w: spare_part_requests_spare_part_id_fkey", repository.ErrReferenced)
		}
	}
	delete(m.st.parts, id)
	return nil
}

func (m *MemStore) DecrementStock(ctx context.Context, id string, qty int) (bool, error) {
	if err := m.lock("DecrementStock"); err != nil {
		m.unlock()
		return false, err
	}
	defer m.unlock()
	p, ok := m.st.parts[id]
	if !ok || p.Quantity < qty {
		return false, nil
	}
	p.Quantity -= qty
	p.UpdatedAt = time.Now().UTC()
	return true, nil
}

// ---- spare-part requests ----

func (m *MemStore) cloneRequest(r *domain.SparePartRequest) *domain.SparePartRequest {
	cp := *r
	if r.DecidedBy != nil {
		by := *r.DecidedBy
		cp.DecidedBy = &by
	}
	if r.DecidedAt != nil {
		at := *r.DecidedAt
		cp.DecidedAt = &at
	}
	if p, ok := m.st.parts[r.SparePartID]; ok {
		cp.SparePartName = p.Name
	}
	return &cp
}

func (m *MemStore) CreateSparePartRequest(ctx context.Context, r *domain.SparePartRequest) error {
	if err := m.lock("CreateSparePartRequest"); err != nil {
		m.unlock()
		return err
	}
	defer m.unlock()
	if _, ok := m.st.parts[r.SparePartID]; !ok {
		return fmt.Errorf("%w: spare_part_requests_spare_part_id_fkey", repository.ErrReferenced)
	}
	if _, ok := m.st.services[r.ServiceID]; !ok {
		return fmt.Errorf("%w: spare_part_requests_service_id_fkey", repository.ErrReferenced)
	}
	cp := *r
	cp.UpdatedAt = cp.CreatedAt
	m.st.requests[r.ID] = &cp
	return nil
}

func (m *MemStore) GetSparePartRequest(ctx context.Context, id string) (*domain.SparePartRequest, error) {
	if err := m.lock("GetSparePartRequest"); err != nil {
		m.unlock()
		return nil, err
	}
	defer m.unlock()
	r, ok := m.st.requests[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return m.cloneRequest(r), nil
}

func (m *MemStore) ListSparePartRequests(ctx context.Context, f domain.RequestFilter) ([]*domain.SparePartRequest, error) {
	if err := m.lock("ListSparePartRequests"); err != nil {
		m.unlock()
		return nil, err
	}
	defer m.unlock()
	var out []*domain.SparePartRequest
	for _, r := range m.st.requests {
		if f.MechanicID != "" && r.MechanicID != f.MechanicID {
			continue
		}
		if f.ServiceID != "" && r.ServiceID != f.ServiceID {
			continue
		}
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		out = append(out, m.cloneRequest(r))
	}
	sortRequests(out, true)
	return out, nil
}

func sortRequests(out []*domain.SparePartRequest, newestFirst bool) {
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			if newestFirst {
				return out[i].CreatedAt.After(out[j].CreatedAt)
			}
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
}

func (m *MemStore) DecideSparePartRequest(ctx context.Context, id string, status domain.RequestStatus, decidedBy string, at time.Time) (bool, error) {
	if err := m.lock("DecideSparePartRequest"); err != nil {
		m.unlock()
		return false, err
	}
	defer m.unlock()
	r, ok := m.st.requests[id]
	if !ok || r.Status != domain.RequestStatusPending {
		return false, nil
	}
	by, when := decidedBy, at
	r.Status = status
	r.DecidedBy = &by
	r.DecidedAt = &when
	r.UpdatedAt = at
	return true, nil
}

func (m *MemStore) ListApprovedRequests(ctx context.Context, serviceID string) ([]*domain.SparePartRequest, error) {
	if err := m.lock("ListApprovedRequests"); err != nil {
		m.unlock()
		return nil, err
	}
	defer m.unlock()
	var out []*domain.SparePartRequest
	for _, r := range m.st.requests {
		if r.ServiceID == serviceID && r.Status == domain.RequestStatusApproved {
			out = append(out, m.cloneRequest(r))
		}
	}
	sortRequests(out, false)
	return out, nil
}

// ---- invoices ----

func cloneInvoice(inv *domain.Invoice) *domain.Invoice {
	cp := *inv
	cp.Items = append([]domain.InvoiceItem(nil), inv.Items...)
	if inv.SentAt != nil {
		at := *inv.SentAt
		cp.SentAt = &at
	}
	return &cp
}

func (m *MemStore) CreateInvoice(ctx context.Context, inv *domain.Invoice) error {
	if err := m.lock("CreateInvoice"); err != nil {
		m.unlock()
		return err
	}
	defer m.unlock()
	for _, existing := range m.st.invoices {
		if existing.ServiceID == inv.ServiceID {
			return fmt.Errorf("%w: invoices_service_id_key", repository.ErrUniqueViolation)
		}
	}
	if _, ok := m.st.services[inv.ServiceID]; !ok {
		return fmt.Errorf("%w: invoices_service_id_fkey", repository.ErrReferenced)
	}
	cp := cloneInvoice(inv)
	cp.UpdatedAt = cp.CreatedAt
	m.st.invoices[inv.ID] = cp
	return nil
}

func (m *MemStore) GetInvoice(ctx context.Context, id string) (*domain.Invoice, error) {
	if err := m.lock("GetInvoice"); err != nil {
		m.unlock()
		return nil, err
	}
	defer m.unlock()
	inv, ok := m.st.invoices[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneInvoice(inv), nil
}

func (m *MemStore) ListInvoices(ctx context.Context, f domain.InvoiceFilter) ([]*domain.Invoice, error) {
	if err := m.lock("ListInvoices"); err != nil {
		m.unlock()
		return nil, err
	}
	defer m.unlock()
	var out []*domain.Invoice
	for _, inv := range m.st.invoices {
		if f.UserID != "" && inv.UserID != f.UserID {
			continue
		}
		if f.ServiceID != "" && inv.ServiceID != f.ServiceID {
			continue
		}
		if f.Status != "" && inv.Status != f.Status {
			continue
		}
		out = append(out, cloneInvoice(inv))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *MemStore) UpdateInvoiceStatus(ctx context.Context, id string, status domain.InvoiceStatus, at time.Time) (*domain.Invoice, error) {
	if err := m.lock("UpdateInvoiceStatus"); err != nil {
		m.unlock()
		return nil, err
	}
	defer m.unlock()
	inv, ok := m.st.invoices[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	inv.Status = status
	if status == domain.InvoiceStatusSent && inv.SentAt == nil {
		when := at
		inv.SentAt = &when
	}
	inv.UpdatedAt = at
	return cloneInvoice(inv), nil
}

func (m *MemStore) MarkInvoiceSent(ctx context.Context, id string, at time.Time) (bool, error) {
	if err := m.lock("MarkInvoiceSent"); err != nil {
		m.unlock()
		return false, err
	}
	defer m.unlock()
	inv, ok := m.st.invoices[id]
	if !ok || inv.Status != domain.InvoiceStatusDraft {
		return false, nil
	}
	inv.Status = domain.InvoiceStatusSent
	if inv.SentAt == nil {
		when := at
		inv.SentAt = &when
	}
	inv.UpdatedAt = at
	return true, nil
}

func (m *MemStore) MarkInvoicesOverdue(ctx context.Context, sentBefore, at time.Time) ([]string, error) {
	if err := m.lock("MarkInvoicesOverdue"); err != nil {
		m.unlock()
		return nil, err
	}
	defer m.unlock()
	var ids []string
	for id, inv := range m.st.invoices {
		if inv.Status != domain.InvoiceStatusSent || inv.SentAt == nil || !inv.SentAt.Before(sentBefore) {
			continue
		}
		inv.Status = domain.InvoiceStatusOverdue
		inv.UpdatedAt = at
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *MemStore) DeleteDraftInvoice(ctx context.Context, id string) (bool, error) {
	if err := m.lock("DeleteDraftInvoice"); err != nil {
		m.unlock()
		return false, err
	}
	defer m.unlock()
	inv, ok := m.st.invoices[id]
	if !ok || inv.Status != domain.InvoiceStatusDraft {
		return false, nil
	}
	delete(m.st.invoices, id)
	return true, nil
}

// ---- audit ----

func (m *MemStore) InsertAuditLog(ctx context.Context, e *domain.AuditEntry) error {
	if err := m.lock("InsertAuditLog"); err != nil {
		m.unlock()
		return err
	}
	defer m.unlock()
	m.st.audit = append(m.st.audit, *e)
	return nil
}

// ---- snapshots ----

type memSnapshot struct {
	users    map[string]*domain.User
	vehicles map[string]*domain.Vehicle
	services map[string]*domain.Service
	parts    map[string]*domain.SparePart
	requests map[string]*domain.SparePartRequest
	invoices map[string]*domain.Invoice
	audit    []domain.AuditEntry
}

func (s *memState) snapshot() memSnapshot {
	snap := memSnapshot{
		users:    make(map[string]*domain.User, len(s.users)),
		vehicles: make(map[string]*domain.Vehicle, len(s.vehicles)),
		services: make(map[string]*domain.Service, len(s.services)),
		parts:    make(map[string]*domain.SparePart, len(s.parts)),
		requests: make(map[string]*domain.SparePartRequest, len(s.requests)),
		invoices: make(map[string]*domain.Invoice, len(s.invoices)),
		audit:    append([]domain.AuditEntry(nil), s.audit...),
	}
	for k, v := range s.users {
		cp := *v
		snap.users[k] = &cp
	}
	for k, v := range s.vehicles {
		cp := *v
		snap.vehicles[k] = &cp
	}
	for k, v := range s.services {
		snap.services[k] = cloneService(v)
	}
	for k, v := range s.parts {
		cp := *v
		snap.parts[k] = &cp
	}
	for k, v := range s.requests {
		cp := *v
		snap.requests[k] = &cp
	}
	for k, v := range s.invoices {
		snap.invoices[k] = cloneInvoice(v)
	}
	return snap
}

func (s *memState) restore(snap memSnapshot) {
	s.users = snap.users
	s.vehicles = snap.vehicles
	s.services = snap.services
	s.parts = snap.parts
	s.requests = snap.requests
	s.invoices = snap.invoices
	s.audit = snap.audit
}

var _ repository.Store = (*MemStore)(nil)
