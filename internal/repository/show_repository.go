package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/auditorium-booking/internal/model"
)

// showRow mirrors the shows table.
type showRow struct {
	ID            string    `db:"id"`
	ShowDate      time.Time `db:"show_date"`
	NumberOfShows int       `db:"number_of_shows"`
	ManagerID     string    `db:"manager_id"`
	CreatedAt     time.Time `db:"created_at"`
}

// performanceRow mirrors the show_performances table.
type performanceRow struct {
	ID       string `db:"id"`
	ShowID   string `db:"show_id"`
	Timing   string `db:"timing"`
	Position int    `db:"position"`
}

// categoryRow mirrors the seat_categories table.
type categoryRow struct {
	ID             string `db:"id"`
	PerformanceID  string `db:"performance_id"`
	Category       string `db:"category"`
	TotalSeats     int    `db:"total_seats"`
	AvailableSeats int    `db:"available_seats"`
	PriceCents     int64  `db:"price_cents"`
}

// ShowRepo is the inventory store.  It loads and saves shows together
// with their performances and seat categories and owns the two atomic
// statements that move seat counts.  It performs no cross-field
// validation; that belongs to the services.
type ShowRepo struct {
	db *sqlx.DB
}

// NewShowRepo returns a ShowRepo bound to db.
func NewShowRepo(db *sqlx.DB) *ShowRepo { return &ShowRepo{db: db} }

// DB exposes the underlying handle so services can open transactions
// spanning several repositories.
func (r *ShowRepo) DB() *sqlx.DB { return r.db }

const selectShow = `SELECT id, show_date, number_of_shows, manager_id, created_at FROM shows`

// GetShowByID loads a show with its nested inventory.
func (r *ShowRepo) GetShowByID(ctx context.Context, id string) (*model.Show, error) {
	return r.getShow(ctx, r.db, id)
}

// GetShowByIDTx is GetShowByID inside the caller's transaction.
func (r *ShowRepo) GetShowByIDTx(ctx context.Context, tx *sqlx.Tx, id string) (*model.Show, error) {
	return r.getShow(ctx, tx, id)
}

func (r *ShowRepo) getShow(ctx context.Context, q sqlx.QueryerContext, id string) (*model.Show, error) {
	var row showRow
	if err := sqlx.GetContext(ctx, q, &row, r.db.Rebind(selectShow+` WHERE id = ?`), id); err != nil {
		return nil, lookupErr(model.EntityShow, "load show", err)
	}
	shows, err := r.assemble(ctx, q, []showRow{row})
	if err != nil {
		return nil, err
	}
	return &shows[0], nil
}

// ListUpcoming returns the shows dated on or after from, earliest first.
func (r *ShowRepo) ListUpcoming(ctx context.Context, from time.Time) ([]model.Show, error) {
	var rows []showRow
	q := r.db.Rebind(selectShow + ` WHERE show_date >= ? ORDER BY show_date, created_at`)
	if err := r.db.SelectContext(ctx, &rows, q, from); err != nil {
		return nil, model.Storage("list shows", err)
	}
	if len(rows) == 0 {
		return []model.Show{}, nil
	}
	return r.assemble(ctx, r.db, rows)
}

// assemble attaches performances and seat categories to the given show
// rows using two IN queries.
func (r *ShowRepo) assemble(ctx context.Context, q sqlx.QueryerContext, rows []showRow) ([]model.Show, error) {
	ids := make([]string, len(rows))
	for i, s := range rows {
		ids[i] = s.ID
	}

	query, args, err := sqlx.In(`SELECT id, show_id, timing, position FROM show_performances
		WHERE show_id IN (?) ORDER BY show_id, position`, ids)
	if err != nil {
		return nil, model.Storage("load performances", err)
	}
	var perfs []performanceRow
	if err := sqlx.SelectContext(ctx, q, &perfs, r.db.Rebind(query), args...); err != nil {
		return nil, model.Storage("load performances", err)
	}

	query, args, err = sqlx.In(`SELECT c.id, c.performance_id, c.category, c.total_seats, c.available_seats, c.price_cents
		FROM seat_categories c JOIN show_performances p ON p.id = c.performance_id
		WHERE p.show_id IN (?) ORDER BY c.performance_id, c.category`, ids)
	if err != nil {
		return nil, model.Storage("load seat categories", err)
	}
	var cats []categoryRow
	if err := sqlx.SelectContext(ctx, q, &cats, r.db.Rebind(query), args...); err != nil {
		return nil, model.Storage("load seat categories", err)
	}

	byPerf := make(map[string][]model.SeatCategory, len(perfs))
	for _, c := range cats {
		byPerf[c.PerformanceID] = append(byPerf[c.PerformanceID], model.SeatCategory{
			ID:             c.ID,
			PerformanceID:  c.PerformanceID,
			Category:       model.SeatType(c.Category),
			TotalSeats:     c.TotalSeats,
			AvailableSeats: c.AvailableSeats,
			PriceCents:     c.PriceCents,
		})
	}
	byShow := make(map[string][]model.Performance, len(rows))
	for _, p := range perfs {
		cs := byPerf[p.ID]
		if cs == nil {
			cs = []model.SeatCategory{}
		}
		byShow[p.ShowID] = append(byShow[p.ShowID], model.Performance{
			ID:             p.ID,
			ShowID:         p.ShowID,
			Timing:         p.Timing,
			Position:       p.Position,
			SeatCategories: cs,
		})
	}

	out := make([]model.Show, len(rows))
	for i, s := range rows {
		ps := byShow[s.ID]
		if ps == nil {
			ps = []model.Performance{}
		}
		out[i] = model.Show{
			ID:            s.ID,
			ShowDate:      s.ShowDate.UTC(),
			NumberOfShows: s.NumberOfShows,
			Performances:  ps,
			ManagerID:     s.ManagerID,
			CreatedAt:     s.CreatedAt.UTC(),
		}
	}
	return out, nil
}

// FindPerformance returns the performance of s whose timing matches exactly.
func (r *ShowRepo) FindPerformance(s *model.Show, timing string) (*model.Performance, error) {
	return model.FindPerformance(s, timing)
}

// FindSeatCategory returns the seat category of p for the given tier.
func (r *ShowRepo) FindSeatCategory(p *model.Performance, category model.SeatType) (*model.SeatCategory, error) {
	return model.FindSeatCategory(p, category)
}

// SaveShow persists the whole show in one transaction.  A show without an
// ID is inserted and receives fresh IDs for every nested row; otherwise
// the show row and the counts and prices of each seat category are
// updated in place.
func (r *ShowRepo) SaveShow(ctx context.Context, s *model.Show) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return model.Storage("begin save show", err)
	}
	defer tx.Rollback()

	if s.ID == "" {
		err = r.insertShowTx(ctx, tx, s)
	} else {
		err = r.updateShowTx(ctx, tx, s)
	}
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return model.Storage("commit save show", err)
	}
	return nil
}

func (r *ShowRepo) insertShowTx(ctx context.Context, tx *sqlx.Tx, s *model.Show) error {
	s.ID = uuid.NewString()
	s.CreatedAt = time.Now().UTC().Truncate(time.Second)
	_, err := tx.ExecContext(ctx, r.db.Rebind(
		`INSERT INTO shows (id, show_date, number_of_shows, manager_id, created_at) VALUES (?, ?, ?, ?, ?)`),
		s.ID, s.ShowDate, s.NumberOfShows, s.ManagerID, s.CreatedAt)
	if err != nil {
		return model.Storage("insert show", err)
	}
	for i := range s.Performances {
		p := &s.Performances[i]
		p.ID = uuid.NewString()
		p.ShowID = s.ID
		_, err := tx.ExecContext(ctx, r.db.Rebind(
			`INSERT INTO show_performances (id, show_id, timing, position) VALUES (?, ?, ?, ?)`),
			p.ID, p.ShowID, p.Timing, p.Position)
		if err != nil {
			return model.Storage("insert performance", err)
		}
		for j := range p.SeatCategories {
			c := &p.SeatCategories[j]
			c.ID = uuid.NewString()
			c.PerformanceID = p.ID
			_, err := tx.ExecContext(ctx, r.db.Rebind(
				`INSERT INTO seat_categories (id, performance_id, category, total_seats, available_seats, price_cents)
				 VALUES (?, ?, ?, ?, ?, ?)`),
				c.ID, c.PerformanceID, string(c.Category), c.TotalSeats, c.AvailableSeats, c.PriceCents)
			if err != nil {
				return model.Storage("insert seat category", err)
			}
		}
	}
	return nil
}

func (r *ShowRepo) updateShowTx(ctx context.Context, tx *sqlx.Tx, s *model.Show) error {
	res, err := tx.ExecContext(ctx, r.db.Rebind(
		`UPDATE shows SET show_date = ?, number_of_shows = ? WHERE id = ?`),
		s.ShowDate, s.NumberOfShows, s.ID)
	if err != nil {
		return model.Storage("update show", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// MySQL reports 0 for unchanged rows, so confirm the show exists.
		var exists int
		err := tx.GetContext(ctx, &exists, r.db.Rebind(`SELECT COUNT(*) FROM shows WHERE id = ?`), s.ID)
		if err != nil {
			return model.Storage("update show", err)
		}
		if exists == 0 {
			return model.NotFound(model.EntityShow)
		}
	}
	for _, p := range s.Performances {
		for _, c := range p.SeatCategories {
			_, err := tx.ExecContext(ctx, r.db.Rebind(
				`UPDATE seat_categories SET total_seats = ?, available_seats = ?, price_cents = ? WHERE id = ?`),
				c.TotalSeats, c.AvailableSeats, c.PriceCents, c.ID)
			if err != nil {
				return model.Storage("update seat category", err)
			}
		}
	}
	return nil
}

// ReserveSeatTx takes one seat from a category with a single conditional
// UPDATE.  When no row changes the category is sold out and
// ErrCapacityExceeded is returned; the row lock taken here serialises
// concurrent bookings of the same category until the transaction ends.
func (r *ShowRepo) ReserveSeatTx(ctx context.Context, tx *sqlx.Tx, categoryID string) error {
	res, err := tx.ExecContext(ctx, r.db.Rebind(
		`UPDATE seat_categories SET available_seats = available_seats - 1 WHERE id = ? AND available_seats > 0`),
		categoryID)
	if err != nil {
		return model.Storage("reserve seat", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return model.Storage("reserve seat", err)
	}
	if n == 0 {
		return model.ErrCapacityExceeded
	}
	return nil
}

// ReleaseSeatTx returns one seat to a category, never exceeding its total.
func (r *ShowRepo) ReleaseSeatTx(ctx context.Context, tx *sqlx.Tx, categoryID string) error {
	_, err := tx.ExecContext(ctx, r.db.Rebind(
		`UPDATE seat_categories SET available_seats = LEAST(available_seats + 1, total_seats) WHERE id = ?`),
		categoryID)
	if err != nil {
		return model.Storage("release seat", err)
	}
	return nil
}
