package workforce

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	_ "modernc.org/sqlite"

	catalogx "github.com/tanpawarit/Chative-Voice-Booking/agent/catalog"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type SQLConfig struct {
	Driver  string        `envconfig:"DRIVER" split_words:"true" default:"memory"`
	DSN     string        `envconfig:"DSN" split_words:"true"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"5s"`
	Seed    bool          `envconfig:"SEED" split_words:"true" default:"true"`
	// ConsumeOnBook removes a slot from the worker's free list when it is booked.
	ConsumeOnBook bool `envconfig:"CONSUME_ON_BOOK" split_words:"true" default:"true"`
}

type workerRow struct {
	bun.BaseModel `bun:"table:workers,alias:w"`

	ID       int64  `bun:"id,pk"`
	Name     string `bun:"name,notnull"`
	Position int    `bun:"position,notnull"`
}

type workerSkillRow struct {
	bun.BaseModel `bun:"table:worker_skills,alias:sk"`

	WorkerID int64  `bun:"worker_id,pk"`
	Category string `bun:"category,pk"`
}

type workerSlotRow struct {
	bun.BaseModel `bun:"table:worker_slots,alias:ws"`

	ID       int64  `bun:"id,pk,autoincrement"`
	WorkerID int64  `bun:"worker_id,notnull"`
	SlotDate string `bun:"slot_date,notnull"`
	SlotTime string `bun:"slot_time,notnull"`
}

type slotPair struct {
	SlotDate string `bun:"slot_date"`
	SlotTime string `bun:"slot_time"`
}

type reserveCandidate struct {
	SlotID   int64 `bun:"slot_id"`
	WorkerID int64 `bun:"worker_id"`
}

var _ Directory = (*SQLDirectory)(nil)

// SQLDirectory stores workers in three tables and reserves slots with a
// conditional delete: a reservation only wins when it removes exactly one row.
type SQLDirectory struct {
	db   *bun.DB
	opts options

	// beforeConsume runs between candidate selection and the conditional delete.
	beforeConsume func(ctx context.Context, tx bun.Tx, slotID int64) error
}

// OpenDB opens a bun handle for the postgres or sqlite driver.
func OpenDB(cfg SQLConfig) (*bun.DB, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, fmt.Errorf("%s dsn is required", cfg.Driver)
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case DriverPostgres:
		connector := pgdriver.NewConnector(
			pgdriver.WithDSN(dsn),
			pgdriver.WithTimeout(cfg.Timeout),
		)
		return bun.NewDB(sql.OpenDB(connector), pgdialect.New()), nil
	case DriverSQLite:
		sqldb, err := sql.Open("sqlite", dsn)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		// sqlite serializes writers; one connection keeps transactions from tripping SQLITE_BUSY.
		sqldb.SetMaxOpenConns(1)
		return bun.NewDB(sqldb, sqlitedialect.New()), nil
	default:
		return nil, fmt.Errorf("unsupported directory driver %q", cfg.Driver)
	}
}

func NewSQLDirectory(db *bun.DB, opts ...Option) (*SQLDirectory, error) {
	if db == nil {
		return nil, errors.New("bun db is required")
	}
	return &SQLDirectory{db: db, opts: applyOptions(opts)}, nil
}

func (d *SQLDirectory) CreateSchema(ctx context.Context) error {
	models := []any{
		(*workerRow)(nil),
		(*workerSkillRow)(nil),
		(*workerSlotRow)(nil),
	}
	for _, m := range models {
		if _, err := d.db.NewCreateTable().Model(m).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}

	if _, err := d.db.NewCreateIndex().
		Model((*workerSlotRow)(nil)).
		Index("worker_slots_unique_idx").
		Unique().
		Column("worker_id", "slot_date", "slot_time").
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("create worker_slots index: %w", err)
	}
	return nil
}

// Seed inserts workers when the workers table is empty. Registration order
// becomes the position used by every ordered scan.
func (d *SQLDirectory) Seed(ctx context.Context, workers []Worker) (bool, error) {
	count, err := d.db.NewSelect().Model((*workerRow)(nil)).Count(ctx)
	if err != nil {
		return false, fmt.Errorf("count workers: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	err = d.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for i, w := range workers {
			if err := insertWorker(ctx, tx, w, i); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// Register appends a worker after the current last position.
func (d *SQLDirectory) Register(ctx context.Context, w Worker) error {
	return d.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var maxPos sql.NullInt64
		if err := tx.NewSelect().
			Model((*workerRow)(nil)).
			ColumnExpr("MAX(w.position)").
			Scan(ctx, &maxPos); err != nil {
			return fmt.Errorf("read max position: %w", err)
		}
		next := 0
		if maxPos.Valid {
			next = int(maxPos.Int64) + 1
		}
		return insertWorker(ctx, tx, w, next)
	})
}

func insertWorker(ctx context.Context, tx bun.Tx, w Worker, position int) error {
	if strings.TrimSpace(w.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidWorker)
	}

	exists, err := tx.NewSelect().Model((*workerRow)(nil)).Where("w.id = ?", w.ID).Exists(ctx)
	if err != nil {
		return fmt.Errorf("check worker id=%d: %w", w.ID, err)
	}
	if exists {
		return fmt.Errorf("%w: id=%d", ErrDuplicateWorker, w.ID)
	}

	row := &workerRow{ID: w.ID, Name: w.Name, Position: position}
	if _, err := tx.NewInsert().Model(row).Exec(ctx); err != nil {
		return fmt.Errorf("insert worker %s: %w", w.Name, err)
	}

	if len(w.Skills) > 0 {
		skills := make([]workerSkillRow, 0, len(w.Skills))
		for _, s := range w.Skills {
			if !s.Valid() {
				return fmt.Errorf("%w: unknown skill %q for %s", ErrInvalidWorker, s, w.Name)
			}
			skills = append(skills, workerSkillRow{WorkerID: w.ID, Category: s.String()})
		}
		if _, err := tx.NewInsert().Model(&skills).Exec(ctx); err != nil {
			return fmt.Errorf("insert skills for %s: %w", w.Name, err)
		}
	}

	if len(w.FreeSlots) > 0 {
		slots := make([]workerSlotRow, 0, len(w.FreeSlots))
		for _, s := range w.FreeSlots {
			slots = append(slots, workerSlotRow{WorkerID: w.ID, SlotDate: s.Date, SlotTime: s.Clock})
		}
		if _, err := tx.NewInsert().Model(&slots).Exec(ctx); err != nil {
			return fmt.Errorf("insert slots for %s: %w", w.Name, err)
		}
	}
	return nil
}

func (d *SQLDirectory) AllAvailableSlots(ctx context.Context, category catalogx.ServiceCategory) ([]TimeSlot, error) {
	var pairs []slotPair
	err := d.db.NewSelect().
		TableExpr("worker_slots AS ws").
		ColumnExpr("DISTINCT ws.slot_date, ws.slot_time").
		Join("JOIN worker_skills AS sk ON sk.worker_id = ws.worker_id").
		Where("sk.category = ?", category.String()).
		OrderExpr("ws.slot_date ASC, ws.slot_time ASC").
		Scan(ctx, &pairs)
	if err != nil {
		return nil, fmt.Errorf("query available slots for %s: %w", category, err)
	}

	out := make([]TimeSlot, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, TimeSlot{Date: p.SlotDate, Clock: p.SlotTime})
	}
	return out, nil
}

func (d *SQLDirectory) FirstFreeWorker(ctx context.Context, slot TimeSlot) (Worker, bool, error) {
	var row workerRow
	err := d.db.NewSelect().
		Model(&row).
		Join("JOIN worker_slots AS ws ON ws.worker_id = w.id").
		Where("ws.slot_date = ? AND ws.slot_time = ?", slot.Date, slot.Clock).
		OrderExpr("w.position ASC").
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return Worker{}, false, nil
	}
	if err != nil {
		return Worker{}, false, fmt.Errorf("query first free worker at %s: %w", slot, err)
	}

	w, err := loadWorker(ctx, d.db, row)
	if err != nil {
		return Worker{}, false, err
	}
	return w, true, nil
}

func (d *SQLDirectory) Reserve(ctx context.Context, category catalogx.ServiceCategory, slot TimeSlot) (Worker, error) {
	var reserved workerRow
	err := d.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var candidates []reserveCandidate
		err := tx.NewSelect().
			TableExpr("worker_slots AS ws").
			ColumnExpr("ws.id AS slot_id, ws.worker_id").
			Join("JOIN workers AS w ON w.id = ws.worker_id").
			Join("JOIN worker_skills AS sk ON sk.worker_id = ws.worker_id AND sk.category = ?", category.String()).
			Where("ws.slot_date = ? AND ws.slot_time = ?", slot.Date, slot.Clock).
			OrderExpr("w.position ASC").
			Scan(ctx, &candidates)
		if err != nil {
			return fmt.Errorf("query reserve candidates: %w", err)
		}

		for _, c := range candidates {
			if d.opts.consumeOnBook {
				if d.beforeConsume != nil {
					if err := d.beforeConsume(ctx, tx, c.SlotID); err != nil {
						return err
					}
				}
				res, err := tx.NewDelete().
					Model((*workerSlotRow)(nil)).
					Where("id = ?", c.SlotID).
					Exec(ctx)
				if err != nil {
					return fmt.Errorf("consume slot id=%d: %w", c.SlotID, err)
				}
				n, err := res.RowsAffected()
				if err != nil {
					return fmt.Errorf("consume slot id=%d: %w", c.SlotID, err)
				}
				if n != 1 {
					// lost the race for this row
					continue
				}
			}
			return tx.NewSelect().Model(&reserved).Where("w.id = ?", c.WorkerID).Scan(ctx)
		}
		return fmt.Errorf("%w: %s", ErrNoWorkerAvailable, slot.Display())
	})
	if err != nil {
		return Worker{}, err
	}
	return loadWorker(ctx, d.db, reserved)
}

func loadWorker(ctx context.Context, db bun.IDB, row workerRow) (Worker, error) {
	var skills []workerSkillRow
	if err := db.NewSelect().
		Model(&skills).
		Where("sk.worker_id = ?", row.ID).
		Scan(ctx); err != nil {
		return Worker{}, fmt.Errorf("load skills for worker id=%d: %w", row.ID, err)
	}

	var slots []workerSlotRow
	if err := db.NewSelect().
		Model(&slots).
		Where("ws.worker_id = ?", row.ID).
		OrderExpr("ws.id ASC").
		Scan(ctx); err != nil {
		return Worker{}, fmt.Errorf("load slots for worker id=%d: %w", row.ID, err)
	}

	w := Worker{ID: row.ID, Name: row.Name}
	// keep catalog declaration order regardless of row order
	for _, c := range catalogx.All() {
		for _, s := range skills {
			if s.Category == c.String() {
				w.Skills = append(w.Skills, c)
			}
		}
	}
	for _, s := range slots {
		w.FreeSlots = append(w.FreeSlots, TimeSlot{Date: s.SlotDate, Clock: s.SlotTime})
	}
	return w, nil
}
