package handlers

import (
	"time"

	"pitlane.io/pitlane/internal/domain"
	"pitlane.io/pitlane/internal/governance/approval"
	"pitlane.io/pitlane/internal/notification"
)

// listResponse wraps collections so the envelope can grow without breaking clients.
type listResponse[T any] struct {
	Items []T `json:"items"`
}

func present[E any, T any](in []E, fn func(E) T) listResponse[T] {
	out := make([]T, 0, len(in))
	for _, e := range in {
		out = append(out, fn(e))
	}
	return listResponse[T]{Items: out}
}

type userResponse struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
}

func userToAPI(u *domain.User) userResponse {
	return userResponse{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

type vehicleResponse struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId"`
	Make      string    `json:"make"`
	Model     string    `json:"model"`
	Year      int       `json:"year"`
	Plate     string    `json:"plate"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func vehicleToAPI(v *domain.Vehicle) vehicleResponse {
	return vehicleResponse{
		ID:        v.ID,
		OwnerID:   v.OwnerID,
		Make:      v.Make,
		Model:     v.Model,
		Year:      v.Year,
		Plate:     v.Plate,
		CreatedAt: v.CreatedAt,
		UpdatedAt: v.UpdatedAt,
	}
}

type serviceResponse struct {
	ID            string               `json:"id"`
	VehicleID     string               `json:"vehicleId"`
	Description   string               `json:"description"`
	ScheduledDate time.Time            `json:"scheduledDate"`
	Status        domain.ServiceStatus `json:"status"`
	Rating        *int                 `json:"rating"`
	MechanicID    *string              `json:"mechanicId"`
	InvoiceID     *string              `json:"invoiceId"`
	CreatedAt     time.Time            `json:"createdAt"`
	UpdatedAt     time.Time            `json:"updatedAt"`
}

func serviceToAPI(s *domain.Service) serviceResponse {
	return serviceResponse{
		ID:            s.ID,
		VehicleID:     s.VehicleID,
		Description:   s.Description,
		ScheduledDate: s.ScheduledDate,
		Status:        s.Status,
		Rating:        s.Rating,
		MechanicID:    s.MechanicID,
		InvoiceID:     s.InvoiceID,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
}

type sparePartResponse struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Price         string    `json:"price"`
	Quantity      int       `json:"quantity"`
	CriticalLevel bool      `json:"criticalLevel"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func sparePartToAPI(p *domain.SparePart) sparePartResponse {
	return sparePartResponse{
		ID:            p.ID,
		Name:          p.Name,
		Price:         domain.FormatMoney(p.Price),
		Quantity:      p.Quantity,
		CriticalLevel: p.CriticalLevel,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

type requestResponse struct {
	ID            string               `json:"id"`
	SparePartID   string               `json:"sparePartId"`
	SparePartName string               `json:"sparePartName,omitempty"`
	VehicleID     string               `json:"vehicleId"`
	MechanicID    string               `json:"mechanicId"`
	ServiceID     string               `json:"serviceId"`
	Quantity      int                  `json:"quantity"`
	UnitPrice     string               `json:"unitPrice"`
	TotalPrice    string               `json:"totalPrice"`
	Status        domain.RequestStatus `json:"status"`
	DecidedBy     *string              `json:"decidedBy"`
	DecidedAt     *time.Time           `json:"decidedAt"`
	Priority      string               `json:"priority,omitempty"`
	CreatedAt     time.Time            `json:"createdAt"`
	UpdatedAt     time.Time            `json:"updatedAt"`
}

func requestToAPI(r *domain.SparePartRequest) requestResponse {
	return requestResponse{
		ID:            r.ID,
		SparePartID:   r.SparePartID,
		SparePartName: r.SparePartName,
		VehicleID:     r.VehicleID,
		MechanicID:    r.MechanicID,
		ServiceID:     r.ServiceID,
		Quantity:      r.Quantity,
		UnitPrice:     domain.FormatMoney(r.UnitPrice),
		TotalPrice:    domain.FormatMoney(r.TotalPrice),
		Status:        r.Status,
		DecidedBy:     r.DecidedBy,
		DecidedAt:     r.DecidedAt,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

func pendingRequestToAPI(r *domain.SparePartRequest) requestResponse {
	out := requestToAPI(r)
	out.Priority = approval.PriorityTier(r.CreatedAt)
	return out
}

type invoiceItemResponse struct {
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unitPrice"`
	Total       string `json:"total"`
}

type invoiceResponse struct {
	ID          string                `json:"id"`
	Number      string                `json:"number"`
	ServiceID   string                `json:"serviceId"`
	VehicleID   string                `json:"vehicleId"`
	UserID      string                `json:"userId"`
	Items       []invoiceItemResponse `json:"items"`
	LaborCost   string                `json:"laborCost"`
	PartsCost   string                `json:"partsCost"`
	Tax         string                `json:"tax"`
	TotalAmount string                `json:"totalAmount"`
	Status      domain.InvoiceStatus  `json:"status"`
	SentAt      *time.Time            `json:"sentAt"`
	CreatedAt   time.Time             `json:"createdAt"`
	UpdatedAt   time.Time             `json:"updatedAt"`
}

func invoiceToAPI(inv *domain.Invoice) invoiceResponse {
	items := make([]invoiceItemResponse, 0, len(inv.Items))
	for _, it := range inv.Items {
		items = append(items, invoiceItemResponse{
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   domain.FormatMoney(it.UnitPrice),
			Total:       domain.FormatMoney(it.Total),
		})
	}
	return invoiceResponse{
		ID:          inv.ID,
		Number:      notification.InvoiceNumber(inv.ID),
		ServiceID:   inv.ServiceID,
		VehicleID:   inv.VehicleID,
		UserID:      inv.UserID,
		Items:       items,
		LaborCost:   domain.FormatMoney(inv.LaborCost),
		PartsCost:   domain.FormatMoney(inv.PartsCost),
		Tax:         domain.FormatMoney(inv.Tax),
		TotalAmount: domain.FormatMoney(inv.TotalAmount),
		Status:      inv.Status,
		SentAt:      inv.SentAt,
		CreatedAt:   inv.CreatedAt,
		UpdatedAt:   inv.UpdatedAt,
	}
}
