package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/NotCool09/myowobot/internal/model"
)

// Postgres stores each record as a JSONB document. Units of work map onto
// database transactions and row locks.
type Postgres struct {
	pool     *pgxpool.Pool
	defaults Defaults
}

var _ Store = (*Postgres)(nil)

// NewPostgres creates a store on an open pool. The schema must already be applied.
func NewPostgres(pool *pgxpool.Pool, d Defaults) *Postgres {
	return &Postgres{pool: pool, defaults: d}
}

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (p *Postgres) GetUser(ctx context.Context, id int64) (*model.User, error) {
	if u, err := p.FindUser(ctx, id); err == nil || !errors.Is(err, ErrNotFound) {
		return u, err
	}
	var out *model.User
	err := p.Update(ctx, func(tx Tx) error {
		u, err := tx.User(id)
		out = u
		return err
	})
	return out, err
}

func (p *Postgres) FindUser(ctx context.Context, id int64) (*model.User, error) {
	return findUser(ctx, p.pool, id, "")
}

func (p *Postgres) GetInventory(ctx context.Context, id int64) (*model.Inventory, error) {
	inv := model.NewInventory(id)
	err := p.pool.QueryRow(ctx, `SELECT doc FROM inventories WHERE id = $1`, id).Scan(inv)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.NewInventory(id), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get inventory: %w", err)
	}
	inv.ID = id
	if inv.Items == nil {
		inv.Items = make(map[string]int64)
	}
	return inv, nil
}

var topQueries = map[TopField]string{
	TopBalance: `SELECT doc FROM users ORDER BY (doc->>'balance')::bigint DESC, id LIMIT $1`,
	TopLevel:   `SELECT doc FROM users ORDER BY (doc->>'level')::int DESC, (doc->>'xp')::bigint DESC, id LIMIT $1`,
	TopXP:      `SELECT doc FROM users ORDER BY (doc->>'xp')::bigint DESC, id LIMIT $1`,
}

func (p *Postgres) TopUsers(ctx context.Context, field TopField, limit int) ([]*model.User, error) {
	q, ok := topQueries[field]
	if !ok {
		return nil, fmt.Errorf("unknown leaderboard %q", field)
	}
	return collectUsers(ctx, p.pool, q, limit)
}

func (p *Postgres) ListUsers(ctx context.Context) ([]*model.User, error) {
	return collectUsers(ctx, p.pool, `SELECT doc FROM users ORDER BY id`)
}

func (p *Postgres) ListMarriages(ctx context.Context) ([]*model.Marriage, error) {
	rows, err := p.pool.Query(ctx, `SELECT doc FROM marriages ORDER BY proposed_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list marriages: %w", err)
	}
	defer rows.Close()

	var out []*model.Marriage
	for rows.Next() {
		var m model.Marriage
		if err := rows.Scan(&m); err != nil {
			return nil, fmt.Errorf("failed to scan marriage: %w", err)
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}

func (p *Postgres) Update(ctx context.Context, fn func(tx Tx) error) error {
	return pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		return fn(&pgTx{ctx: ctx, q: tx, defaults: p.defaults})
	})
}

func (p *Postgres) Close() {
	p.pool.Close()
}

func findUser(ctx context.Context, q querier, id int64, suffix string) (*model.User, error) {
	var u model.User
	err := q.QueryRow(ctx, `SELECT doc FROM users WHERE id = $1`+suffix, id).Scan(&u)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	u.ID = id
	if u.Level < 1 {
		u.Level = 1
	}
	return &u, nil
}

func collectUsers(ctx context.Context, q querier, sql string, args ...any) ([]*model.User, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var out []*model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		out = append(out, &u)
	}
	return out, rows.Err()
}

// pgTx runs inside a database transaction; every read takes a row lock.
type pgTx struct {
	ctx      context.Context
	q        querier
	defaults Defaults
}

func (t *pgTx) User(id int64) (*model.User, error) {
	const insert = `INSERT INTO users (id, doc) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING`
	if _, err := t.q.Exec(t.ctx, insert, id, t.defaults.newUser(id)); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return t.ExistingUser(id)
}

func (t *pgTx) ExistingUser(id int64) (*model.User, error) {
	return findUser(t.ctx, t.q, id, " FOR UPDATE")
}

func (t *pgTx) LockUsers(ids ...int64) error {
	_, err := t.q.Exec(t.ctx, `SELECT id FROM users WHERE id = ANY($1) ORDER BY id FOR UPDATE`, ids)
	if err != nil {
		return fmt.Errorf("failed to lock users: %w", err)
	}
	return nil
}

func (t *pgTx) Inventory(id int64) (*model.Inventory, error) {
	// Materialize the row first so it can be locked even on first use.
	const insert = `INSERT INTO inventories (id, doc) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING`
	if _, err := t.q.Exec(t.ctx, insert, id, model.NewInventory(id)); err != nil {
		return nil, fmt.Errorf("failed to create inventory: %w", err)
	}
	inv := model.NewInventory(id)
	if err := t.q.QueryRow(t.ctx, `SELECT doc FROM inventories WHERE id = $1 FOR UPDATE`, id).Scan(inv); err != nil {
		return nil, fmt.Errorf("failed to get inventory: %w", err)
	}
	inv.ID = id
	if inv.Items == nil {
		inv.Items = make(map[string]int64)
	}
	return inv, nil
}

func (t *pgTx) marriage(sql string, args ...any) (*model.Marriage, error) {
	var m model.Marriage
	err := t.q.QueryRow(t.ctx, sql, args...).Scan(&m)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get marriage: %w", err)
	}
	return &m, nil
}

func (t *pgTx) Proposal(proposer, proposee int64) (*model.Marriage, error) {
	return t.marriage(`SELECT doc FROM marriages
		WHERE proposer = $1 AND proposee = $2 AND NOT accepted FOR UPDATE`, proposer, proposee)
}

func (t *pgTx) ActiveMarriage(id int64) (*model.Marriage, error) {
	return t.marriage(`SELECT doc FROM marriages
		WHERE accepted AND NOT divorced AND (proposer = $1 OR proposee = $1)
		ORDER BY proposed_at DESC LIMIT 1 FOR UPDATE`, id)
}

func (t *pgTx) SaveUser(u *model.User) error {
	if err := validateUser(u); err != nil {
		return err
	}
	u.UpdatedAt = t.defaults.now()
	const upsert = `
		INSERT INTO users (id, doc, updated_at) VALUES ($1, $2, NOW())
		ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc, updated_at = NOW()`
	if _, err := t.q.Exec(t.ctx, upsert, u.ID, u); err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

func (t *pgTx) SaveInventory(inv *model.Inventory) error {
	if err := validateInventory(inv); err != nil {
		return err
	}
	inv.UpdatedAt = t.defaults.now()
	const upsert = `
		INSERT INTO inventories (id, doc, updated_at) VALUES ($1, $2, NOW())
		ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc, updated_at = NOW()`
	if _, err := t.q.Exec(t.ctx, upsert, inv.ID, inv); err != nil {
		return fmt.Errorf("failed to save inventory: %w", err)
	}
	return nil
}

func (t *pgTx) SaveMarriage(m *model.Marriage) error {
	if err := validateMarriage(m); err != nil {
		return err
	}
	const upsert = `
		INSERT INTO marriages (id, proposer, proposee, accepted, divorced, proposed_at, doc)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			accepted = EXCLUDED.accepted,
			divorced = EXCLUDED.divorced,
			doc = EXCLUDED.doc`
	_, err := t.q.Exec(t.ctx, upsert, m.ID, m.Proposer, m.Proposee, m.Accepted, m.DivorcedAt != nil, m.ProposedAt, m)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("failed to save marriage: %w", err)
	}
	return nil
}

func (t *pgTx) DeleteMarriage(id string) error {
	if _, err := t.q.Exec(t.ctx, `DELETE FROM marriages WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete marriage: %w", err)
	}
	return nil
}
