package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"pitlane.io/pitlane/internal/domain"
)

// PostgreSQL error codes mapped to repository sentinels.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// querier is satisfied by *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Postgres implements Store on a pgx pool.
type Postgres struct {
	pool *pgxpool.Pool
	q    querier
	inTx bool
}

// NewPostgres creates a Store backed by pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool, q: pool}
}

// InTx runs fn inside a transaction: Begin, defer Rollback, Commit.
func (p *Postgres) InTx(ctx context.Context, fn func(tx Store) error) error {
	if p.inTx {
		return fn(p)
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&Postgres{pool: p.pool, q: tx, inTx: true}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func mapPgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("%w: %s", ErrUniqueViolation, pgErr.ConstraintName)
		case pgForeignKeyViolation:
			return fmt.Errorf("%w: %s", ErrReferenced, pgErr.ConstraintName)
		}
	}
	return err
}

// ---- users ----

const userColumns = `id, name, email, role, password_hash, created_at, updated_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	var role string
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &role, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, mapPgError(err)
	}
	u.Role = domain.Role(role)
	return &u, nil
}

func (p *Postgres) CreateUser(ctx context.Context, u *domain.User) error {
	_, err := p.q.Exec(ctx, `
		INSERT INTO users (id, name, email, role, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)`,
		u.ID, u.Name, u.Email, string(u.Role), u.PasswordHash, u.CreatedAt,
	)
	return mapPgError(err)
}

func (p *Postgres) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return scanUser(p.q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (p *Postgres) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return scanUser(p.q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email))
}

// ---- vehicles ----

const vehicleColumns = `id, owner_id, make, model, year, plate, created_at, updated_at`

func scanVehicle(row pgx.Row) (*domain.Vehicle, error) {
	var v domain.Vehicle
	if err := row.Scan(&v.ID, &v.OwnerID, &v.Make, &v.Model, &v.Year, &v.Plate, &v.CreatedAt, &v.UpdatedAt); err != nil {
		return nil, mapPgError(err)
	}
	return &v, nil
}

func (p *Postgres) CreateVehicle(ctx context.Context, v *domain.Vehicle) error {
	_, err := p.q.Exec(ctx, `
		INSERT INTO vehicles (id, owner_id, make, model, year, plate, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)`,
		v.ID, v.OwnerID, v.Make, v.Model, v.Year, v.Plate, v.CreatedAt,
	)
	return mapPgError(err)
}

func (p *Postgres) GetVehicle(ctx context.Context, id string) (*domain.Vehicle, error) {
	return scanVehicle(p.q.QueryRow(ctx, `SELECT `+vehicleColumns+` FROM vehicles WHERE id = $1`, id))
}

func (p *Postgres) ListVehicles(ctx context.Context, ownerID string) ([]*domain.Vehicle, error) {
	rows, err := p.q.Query(ctx, `
		SELECT `+vehicleColumns+` FROM vehicles
		WHERE ($1::text = '' OR owner_id = $1)
		ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	var out []*domain.Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, mapPgError(rows.Err())
}

func (p *Postgres) DeleteVehicle(ctx context.Context, id string) error {
	tag, err := p.q.Exec(ctx, `DELETE FROM vehicles WHERE id = $1`, id)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) CountIssuedInvoices(ctx context.Context, vehicleID string) (int, error) {
	var n int
	err := p.q.QueryRow(ctx, `
		SELECT count(*) FROM invoices
		WHERE vehicle_id = $1 AND status <> 'Draft'`, vehicleID).Scan(&n)
	return n, mapPgError(err)
}

// ---- services ----

const serviceColumns = `id, vehicle_id, description, scheduled_date, status, rating, mechanic_id, invoice_id, created_at, updated_at`

func scanService(row pgx.Row) (*domain.Service, error) {
	var s domain.Service
	var status string
	if err := row.Scan(&s.ID, &s.VehicleID, &s.Description, &s.ScheduledDate, &status,
		&s.Rating, &s.MechanicID, &s.InvoiceID, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, mapPgError(err)
	}
	s.Status = domain.ServiceStatus(status)
	return &s, nil
}

func (p *Postgres) CreateService(ctx context.Context, s *domain.Service) error {
	_, err := p.q.Exec(ctx, `
		INSERT INTO services (id, vehicle_id, description, scheduled_date, status, mechanic_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)`,
		s.ID, s.VehicleID, s.Description, s.ScheduledDate, string(s.Status), s.MechanicID, s.CreatedAt,
	)
	return mapPgError(err)
}

func (p *Postgres) GetService(ctx context.Context, id string) (*domain.Service, error) {
	return scanService(p.q.QueryRow(ctx, `SELECT `+serviceColumns+` FROM services WHERE id = $1`, id))
}

func (p *Postgres) LockService(ctx context.Context, id string) (*domain.Service, error) {
	return scanService(p.q.QueryRow(ctx, `SELECT `+serviceColumns+` FROM services WHERE id = $1 FOR UPDATE`, id))
}

func (p *Postgres) ListServices(ctx context.Context, f domain.ServiceFilter) ([]*domain.Service, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.OwnerID != "" {
		add(`vehicle_id IN (SELECT id FROM vehicles WHERE owner_id = $%d)`, f.OwnerID)
	}
	if f.MechanicID != "" {
		add(`mechanic_id = $%d`, f.MechanicID)
	}
	if f.VehicleID != "" {
		add(`vehicle_id = $%d`, f.VehicleID)
	}
	if f.Status != "" {
		add(`status = $%d`, string(f.Status))
	}
	if f.Billable {
		where = append(where, `status = 'Completed' AND invoice_id IS NULL`)
	}

	sql := `SELECT ` + serviceColumns + ` FROM services`
	if len(where) > 0 {
		sql += ` WHERE ` + strings.Join(where, ` AND `)
	}
	sql += ` ORDER BY scheduled_date DESC, id`

	rows, err := p.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	var out []*domain.Service
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, mapPgError(rows.Err())
}

func (p *Postgres) AssignService(ctx context.Context, id string, mechanicID *string, status domain.ServiceStatus) (*domain.Service, error) {
	return scanService(p.q.QueryRow(ctx, `
		UPDATE services SET mechanic_id = $2, status = $3, updated_at = now()
		WHERE id = $1
		RETURNING `+serviceColumns, id, mechanicID, string(status)))
}

func (p *Postgres) CompareAndSetServiceStatus(ctx context.Context, id string, from, to domain.ServiceStatus) (bool, error) {
	tag, err := p.q.Exec(ctx, `
		UPDATE services SET status = $3, updated_at = now()
		WHERE id = $1 AND status = $2`, id, string(from), string(to))
	if err != nil {
		return false, mapPgError(err)
	}
	return tag.RowsAffected() == 1, nil
}

func (p *Postgres) SetServiceRating(ctx context.Context, id string, rating int) (bool, error) {
	tag, err := p.q.Exec(ctx, `
		UPDATE services SET rating = $2, updated_at = now()
		WHERE id = $1 AND rating IS NULL AND status = 'Completed'`, id, rating)
	if err != nil {
		return false, mapPgError(err)
	}
	return tag.RowsAffected() == 1, nil
}

func (p *Postgres) LinkServiceInvoice(ctx context.Context, serviceID, invoiceID string) (bool, error) {
	tag, err := p.q.Exec(ctx, `
		UPDATE services SET invoice_id = $2, updated_at = now()
		WHERE id = $1 AND invoice_id IS NULL AND status = 'Completed'`, serviceID, invoiceID)
	if err != nil {
		return false, mapPgError(err)
	}
	return tag.RowsAffected() == 1, nil
}

func (p *Postgres) UnlinkServiceInvoice(ctx context.Context, serviceID, invoiceID string) error {
	_, err := p.q.Exec(ctx, `
		UPDATE services SET invoice_id = NULL, updated_at = now()
		WHERE id = $1 AND invoice_id = $2`, serviceID, invoiceID)
	return mapPgError(err)
}

// ---- spare parts ----

const sparePartColumns = `id, name, price, quantity, critical_level, created_at, updated_at`

func scanSparePart(row pgx.Row) (*domain.SparePart, error) {
	var sp domain.SparePart
	if err := row.Scan(&sp.ID, &sp.Name, &sp.Price, &sp.Quantity, &sp.CriticalLevel, &sp.CreatedAt, &sp.UpdatedAt); err != nil {
		return nil, mapPgError(err)
	}
	return &sp, nil
}

func (p *Postgres) CreateSparePart(ctx context.Context, sp *domain.SparePart) error {
	_, err := p.q.Exec(ctx, `
		INSERT INTO spare_parts (id, name, price, quantity, critical_level, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)`,
		sp.ID, sp.Name, sp.Price, sp.Quantity, sp.CriticalLevel, sp.CreatedAt,
	)
	return mapPgError(err)
}

func (p *Postgres) GetSparePart(ctx context.Context, id string) (*domain.SparePart, error) {
	return scanSparePart(p.q.QueryRow(ctx, `SELECT `+sparePartColumns+` FROM spare_parts WHERE id = $1`, id))
}

func (p *Postgres) ListSpareParts(ctx context.Context) ([]*domain.SparePart, error) {
	rows, err := p.q.Query(ctx, `SELECT `+sparePartColumns+` FROM spare_parts ORDER BY name, id`)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	var out []*domain.SparePart
	for rows.Next() {
		sp, err := scanSparePart(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sp)
	}
	return out, mapPgError(rows.Err())
}

func (p *Postgres) UpdateSparePart(ctx context.Context, sp *domain.SparePart) error {
	err := p.q.QueryRow(ctx, `
		UPDATE spare_parts SET name = $2, price = $3, quantity = $4, critical_level = $5, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`,
		sp.ID, sp.Name, sp.Price, sp.Quantity, sp.CriticalLevel,
	).Scan(&sp.UpdatedAt)
	return mapPgError(err)
}

func (p *Postgres) DeleteSparePart(ctx context.Context, id string) error {
	tag, err := p.q.Exec(ctx, `DELETE FROM spare_parts WHERE id = $1`, id)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) DecrementStock(ctx context.Context, id string, qty int) (bool, error) {
	tag, err := p.q.Exec(ctx, `
		UPDATE spare_parts SET quantity = quantity - $2, updated_at = now()
		WHERE id = $1 AND quantity >= $2`, id, qty)
	if err != nil {
		return false, mapPgError(err)
	}
	return tag.RowsAffected() == 1, nil
}

// ---- spare-part requests ----

const requestColumns = `r.id, r.spare_part_id, r.vehicle_id, r.mechanic_id, r.service_id, r.quantity,
	r.unit_price, r.total_price, r.status, r.decided_by, r.decided_at, r.created_at, r.updated_at, sp.name`

const requestFrom = ` FROM spare_part_requests r JOIN spare_parts sp ON sp.id = r.spare_part_id`

func scanRequest(row pgx.Row) (*domain.SparePartRequest, error) {
	var r domain.SparePartRequest
	var status string
	if err := row.Scan(&r.ID, &r.SparePartID, &r.VehicleID, &r.MechanicID, &r.ServiceID, &r.Quantity,
		&r.UnitPrice, &r.TotalPrice, &status, &r.DecidedBy, &r.DecidedAt, &r.CreatedAt, &r.UpdatedAt,
		&r.SparePartName); err != nil {
		return nil, mapPgError(err)
	}
	r.Status = domain.RequestStatus(status)
	return &r, nil
}

func collectRequests(rows pgx.Rows) ([]*domain.SparePartRequest, error) {
	defer rows.Close()
	var out []*domain.SparePartRequest
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, mapPgError(rows.Err())
}

func (p *Postgres) CreateSparePartRequest(ctx context.Context, r *domain.SparePartRequest) error {
	_, err := p.q.Exec(ctx, `
		INSERT INTO spare_part_requests
			(id, spare_part_id, vehicle_id, mechanic_id, service_id, quantity, unit_price, total_price, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)`,
		r.ID, r.SparePartID, r.VehicleID, r.MechanicID, r.ServiceID, r.Quantity,
		r.UnitPrice, r.TotalPrice, string(r.Status), r.CreatedAt,
	)
	return mapPgError(err)
}

func (p *Postgres) GetSparePartRequest(ctx context.Context, id string) (*domain.SparePartRequest, error) {
	return scanRequest(p.q.QueryRow(ctx, `SELECT `+requestColumns+requestFrom+` WHERE r.id = $1`, id))
}

func (p *Postgres) ListSparePartRequests(ctx context.Context, f domain.RequestFilter) ([]*domain.SparePartRequest, error) {
	rows, err := p.q.Query(ctx, `SELECT `+requestColumns+requestFrom+`
		WHERE ($1::text = '' OR r.mechanic_id = $1)
		  AND ($2::text = '' OR r.service_id = $2)
		  AND ($3::text = '' OR r.status = $3)
		ORDER BY r.created_at DESC, r.id`,
		f.MechanicID, f.ServiceID, string(f.Status))
	if err != nil {
		return nil, mapPgError(err)
	}
	return collectRequests(rows)
}

func (p *Postgres) DecideSparePartRequest(ctx context.Context, id string, status domain.RequestStatus, decidedBy string, at time.Time) (bool, error) {
	tag, err := p.q.Exec(ctx, `
		UPDATE spare_part_requests
		SET status = $2, decided_by = $3, decided_at = $4, updated_at = $4
		WHERE id = $1 AND status = 'Pending'`, id, string(status), decidedBy, at)
	if err != nil {
		return false, mapPgError(err)
	}
	return tag.RowsAffected() == 1, nil
}

func (p *Postgres) ListApprovedRequests(ctx context.Context, serviceID string) ([]*domain.SparePartRequest, error) {
	rows, err := p.q.Query(ctx, `SELECT `+requestColumns+requestFrom+`
		WHERE r.service_id = $1 AND r.status = 'Approved'
		ORDER BY r.created_at, r.id`, serviceID)
	if err != nil {
		return nil, mapPgError(err)
	}
	return collectRequests(rows)
}

// ---- invoices ----

const invoiceColumns = `id, service_id, vehicle_id, user_id, labor_cost, parts_cost, tax, total_amount, status, sent_at, created_at, updated_at`

func scanInvoice(row pgx.Row) (*domain.Invoice, error) {
	var inv domain.Invoice
	var status string
	if err := row.Scan(&inv.ID, &inv.ServiceID, &inv.VehicleID, &inv.UserID, &inv.LaborCost, &inv.PartsCost,
		&inv.Tax, &inv.TotalAmount, &status, &inv.SentAt, &inv.CreatedAt, &inv.UpdatedAt); err != nil {
		return nil, mapPgError(err)
	}
	inv.Status = domain.InvoiceStatus(status)
	return &inv, nil
}

func (p *Postgres) loadItems(ctx context.Context, inv *domain.Invoice) error {
	rows, err := p.q.Query(ctx, `
		SELECT description, quantity, unit_price, total FROM invoice_items
		WHERE invoice_id = $1 ORDER BY position`, inv.ID)
	if err != nil {
		return mapPgError(err)
	}
	defer rows.Close()

	inv.Items = inv.Items[:0]
	for rows.Next() {
		var it domain.InvoiceItem
		if err := rows.Scan(&it.Description, &it.Quantity, &it.UnitPrice, &it.Total); err != nil {
			return mapPgError(err)
		}
		inv.Items = append(inv.Items, it)
	}
	return mapPgError(rows.Err())
}

func (p *Postgres) CreateInvoice(ctx context.Context, inv *domain.Invoice) error {
	return p.InTx(ctx, func(tx Store) error {
		pg := tx.(*Postgres)
		_, err := pg.q.Exec(ctx, `
			INSERT INTO invoices
				(id, service_id, vehicle_id, user_id, labor_cost, parts_cost, tax, total_amount, status, sent_at, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)`,
			inv.ID, inv.ServiceID, inv.VehicleID, inv.UserID, inv.LaborCost, inv.PartsCost,
			inv.Tax, inv.TotalAmount, string(inv.Status), inv.SentAt, inv.CreatedAt,
		)
		if err != nil {
			return mapPgError(err)
		}
		for i, it := range inv.Items {
			_, err := pg.q.Exec(ctx, `
				INSERT INTO invoice_items (invoice_id, position, description, quantity, unit_price, total)
				VALUES ($1, $2, $3, $4, $5, $6)`,
				inv.ID, i, it.Description, it.Quantity, it.UnitPrice, it.Total,
			)
			if err != nil {
				return mapPgError(err)
			}
		}
		return nil
	})
}

func (p *Postgres) GetInvoice(ctx context.Context, id string) (*domain.Invoice, error) {
	inv, err := scanInvoice(p.q.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	if err := p.loadItems(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

func (p *Postgres) ListInvoices(ctx context.Context, f domain.InvoiceFilter) ([]*domain.Invoice, error) {
	rows, err := p.q.Query(ctx, `SELECT `+invoiceColumns+` FROM invoices
		WHERE ($1::text = '' OR user_id = $1)
		  AND ($2::text = '' OR service_id = $2)
		  AND ($3::text = '' OR status = $3)
		ORDER BY created_at DESC, id`,
		f.UserID, f.ServiceID, string(f.Status))
	if err != nil {
		return nil, mapPgError(err)
	}

	var out []*domain.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, inv)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, mapPgError(err)
	}

	for _, inv := range out {
		if err := p.loadItems(ctx, inv); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (p *Postgres) UpdateInvoiceStatus(ctx context.Context, id string, status domain.InvoiceStatus, at time.Time) (*domain.Invoice, error) {
	inv, err := scanInvoice(p.q.QueryRow(ctx, `
		UPDATE invoices
		SET status = $2,
		    sent_at = CASE WHEN $2::text = 'Sent' THEN COALESCE(sent_at, $3) ELSE sent_at END,
		    updated_at = $3
		WHERE id = $1
		RETURNING `+invoiceColumns, id, string(status), at))
	if err != nil {
		return nil, err
	}
	if err := p.loadItems(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

func (p *Postgres) MarkInvoiceSent(ctx context.Context, id string, at time.Time) (bool, error) {
	tag, err := p.q.Exec(ctx, `
		UPDATE invoices SET status = 'Sent', sent_at = COALESCE(sent_at, $2), updated_at = $2
		WHERE id = $1 AND status = 'Draft'`, id, at)
	if err != nil {
		return false, mapPgError(err)
	}
	return tag.RowsAffected() == 1, nil
}

func (p *Postgres) MarkInvoicesOverdue(ctx context.Context, sentBefore, at time.Time) ([]string, error) {
	rows, err := p.q.Query(ctx, `
		UPDATE invoices SET status = 'Overdue', updated_at = $2
		WHERE status = 'Sent' AND sent_at < $1
		RETURNING id`, sentBefore, at)
	if err != nil {
		return nil, mapPgError(err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, mapPgError(err)
	}
	sort.Strings(ids)
	return ids, nil
}

func (p *Postgres) DeleteDraftInvoice(ctx context.Context, id string) (bool, error) {
	tag, err := p.q.Exec(ctx, `DELETE FROM invoices WHERE id = $1 AND status = 'Draft'`, id)
	if err != nil {
		return false, mapPgError(err)
	}
	return tag.RowsAffected() == 1, nil
}

// ---- audit ----

func (p *Postgres) InsertAuditLog(ctx context.Context, e *domain.AuditEntry) error {
	var details any
	if len(e.Details) > 0 {
		details = []byte(e.Details)
	}
	_, err := p.q.Exec(ctx, `
		INSERT INTO audit_logs (id, action, resource_type, resource_id, actor, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, string(e.Action), e.ResourceType, e.ResourceID, e.Actor, details, e.CreatedAt,
	)
	return mapPgError(err)
}

var _ Store = (*Postgres)(nil)
