package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"pitlane.io/pitlane/internal/domain"
)

// Workshop is a seeded MemStore with one of each actor, a vehicle, an
// in-progress service assigned to Mechanic and one stocked spare part.
type Workshop struct {
	Store *MemStore

	Admin         *domain.User
	Mechanic      *domain.User
	OtherMechanic *domain.User
	Owner         *domain.User
	OtherOwner    *domain.User

	Vehicle *domain.Vehicle
	Service *domain.Service
	Part    *domain.SparePart
}

// NewWorkshop seeds a fresh MemStore.
func NewWorkshop(t *testing.T) *Workshop {
	t.Helper()
	w := &Workshop{Store: NewMemStore()}

	w.Admin = w.AddUser(t, "Ada Admin", "admin@pitlane.test", domain.RoleAdmin)
	w.Mechanic = w.AddUser(t, "Max Mechanic", "max@pitlane.test", domain.RoleMechanic)
	w.OtherMechanic = w.AddUser(t, "Mia Mechanic", "mia@pitlane.test", domain.RoleMechanic)
	w.Owner = w.AddUser(t, "Olga Owner", "olga@pitlane.test", domain.RoleUser)
	w.OtherOwner = w.AddUser(t, "Otto Owner", "otto@pitlane.test", domain.RoleUser)

	w.Vehicle = w.AddVehicle(t, w.Owner.ID, "PL-1001")
	w.Service = w.AddService(t, w.Vehicle.ID, domain.ServiceStatusInProgress, &w.Mechanic.ID)
	w.Part = w.AddPart(t, "Brake pad", "25.00", 10)
	return w
}

// Actor returns the caller identity of u.
func Actor(u *domain.User) domain.Actor {
	return domain.Actor{UserID: u.ID, Role: u.Role}
}

func newID(t *testing.T) string {
	t.Helper()
	id, err := uuid.NewV7()
	if err != nil {
		t.Fatalf("uuid: %v", err)
	}
	return id.String()
}

// AddUser stores a user with an unusable password hash.
func (w *Workshop) AddUser(t *testing.T, name, email string, role domain.Role) *domain.User {
	t.Helper()
	u := &domain.User{
		ID:           newID(t),
		Name:         name,
		Email:        email,
		Role:         role,
		PasswordHash: "!",
		CreatedAt:    time.Now().UTC(),
	}
	if err := w.Store.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

// AddVehicle stores a vehicle owned by ownerID.
func (w *Workshop) AddVehicle(t *testing.T, ownerID, plate string) *domain.Vehicle {
	t.Helper()
	v := &domain.Vehicle{
		ID:        newID(t),
		OwnerID:   ownerID,
		Make:      "Volvo",
		Model:     "V70",
		Year:      2012,
		Plate:     plate,
		CreatedAt: time.Now().UTC(),
	}
	if err := w.Store.CreateVehicle(context.Background(), v); err != nil {
		t.Fatalf("seed vehicle: %v", err)
	}
	return v
}

// AddService stores a service in status, optionally assigned.
func (w *Workshop) AddService(t *testing.T, vehicleID string, status domain.ServiceStatus, mechanicID *string) *domain.Service {
	t.Helper()
	s := &domain.Service{
		ID:            newID(t),
		VehicleID:     vehicleID,
		Description:   "Brake inspection",
		ScheduledDate: time.Now().UTC().Add(24 * time.Hour),
		Status:        domain.ServiceStatusPending,
		CreatedAt:     time.Now().UTC(),
	}
	ctx := context.Background()
	if err := w.Store.CreateService(ctx, s); err != nil {
		t.Fatalf("seed service: %v", err)
	}
	out, err := w.Store.AssignService(ctx, s.ID, mechanicID, status)
	if err != nil {
		t.Fatalf("seed service assignment: %v", err)
	}
	return out
}

// AddPart stores a catalogue part.
func (w *Workshop) AddPart(t *testing.T, name, price string, qty int) *domain.SparePart {
	t.Helper()
	p := &domain.SparePart{
		ID:        newID(t),
		Name:      name,
		Price:     decimal.RequireFromString(price),
		Quantity:  qty,
		CreatedAt: time.Now().UTC(),
	}
	if err := w.Store.CreateSparePart(context.Background(), p); err != nil {
		t.Fatalf("seed spare part: %v", err)
	}
	return p
}

// AddRequest stores a request with the given status, pricing it from part.
// Stock is not touched.
func (w *Workshop) AddRequest(t *testing.T, svc *domain.Service, part *domain.SparePart, qty int, status domain.RequestStatus) *domain.SparePartRequest {
	t.Helper()
	mechanicID := w.Mechanic.ID
	if svc.MechanicID != nil {
		mechanicID = *svc.MechanicID
	}
	r := &domain.SparePartRequest{
		ID:          newID(t),
		SparePartID: part.ID,
		VehicleID:   svc.VehicleID,
		MechanicID:  mechanicID,
		ServiceID:   svc.ID,
		Quantity:    qty,
		UnitPrice:   part.Price,
		TotalPrice:  domain.LineTotal(qty, part.Price),
		Status:      domain.RequestStatusPending,
		CreatedAt:   time.Now().UTC(),
	}
	ctx := context.Background()
	if err := w.Store.CreateSparePartRequest(ctx, r); err != nil {
		t.Fatalf("seed request: %v", err)
	}
	if status != domain.RequestStatusPending {
		if _, err := w.Store.DecideSparePartRequest(ctx, r.ID, status, w.Admin.ID, time.Now().UTC()); err != nil {
			t.Fatalf("seed request decision: %v", err)
		}
		r.Status = status
	}
	return r
}

// Complete moves svc to Completed.
func (w *Workshop) Complete(t *testing.T, svc *domain.Service) *domain.Service {
	t.Helper()
	out, err := w.Store.AssignService(context.Background(), svc.ID, svc.MechanicID, domain.ServiceStatusCompleted)
	if err != nil {
		t.Fatalf("complete service: %v", err)
	}
	return out
}
