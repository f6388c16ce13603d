package persist

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// ProfileRow is the persisted state of one survivor.
type ProfileRow struct {
	Name         string
	MapID        int16
	X            float64
	Y            float64
	HP           int32
	MaxHP        int32
	DaysSurvived int32
	ZombieKills  int32
}

type ProfileRepo struct {
	db *DB
}

func NewProfileRepo(db *DB) *ProfileRepo {
	return &ProfileRepo{db: db}
}

// Load returns the profile for name, or nil if it has never been saved.
func (r *ProfileRepo) Load(ctx context.Context, name string) (*ProfileRow, error) {
	var row ProfileRow
	err := r.db.Pool.QueryRow(ctx,
		`SELECT name, map_id, x, y, hp, max_hp, days_survived, zombie_kills
		 FROM profiles
		 WHERE name = $1`, name,
	).Scan(&row.Name, &row.MapID, &row.X, &row.Y, &row.HP, &row.MaxHP,
		&row.DaysSurvived, &row.ZombieKills)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("load profile %s: %w", name, err)
	}
	return &row, nil
}

// Upsert writes one profile.
func (r *ProfileRepo) Upsert(ctx context.Context, row *ProfileRow) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO profiles (name, map_id, x, y, hp, max_hp, days_survived, zombie_kills, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		 ON CONFLICT (name) DO UPDATE SET
		   map_id = EXCLUDED.map_id,
		   x = EXCLUDED.x,
		   y = EXCLUDED.y,
		   hp = EXCLUDED.hp,
		   max_hp = EXCLUDED.max_hp,
		   days_survived = EXCLUDED.days_survived,
		   zombie_kills = EXCLUDED.zombie_kills,
		   updated_at = now()`,
		row.Name, row.MapID, row.X, row.Y, row.HP, row.MaxHP,
		row.DaysSurvived, row.ZombieKills,
	)
	if err != nil {
		return fmt.Errorf("upsert profile %s: %w", row.Name, err)
	}
	return nil
}

// UpsertBatch writes a batch of dirty profiles in one transaction, so a
// crash mid-save never persists half a flush.
func (r *ProfileRepo) UpsertBatch(ctx context.Context, rows []*ProfileRow) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("profile batch begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, row := range rows {
		if _, err := tx.Exec(ctx,
			`INSERT INTO profiles (name, map_id, x, y, hp, max_hp, days_survived, zombie_kills, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
			 ON CONFLICT (name) DO UPDATE SET
			   map_id = EXCLUDED.map_id,
			   x = EXCLUDED.x,
			   y = EXCLUDED.y,
			   hp = EXCLUDED.hp,
			   max_hp = EXCLUDED.max_hp,
			   days_survived = EXCLUDED.days_survived,
			   zombie_kills = EXCLUDED.zombie_kills,
			   updated_at = now()`,
			row.Name, row.MapID, row.X, row.Y, row.HP, row.MaxHP,
			row.DaysSurvived, row.ZombieKills,
		); err != nil {
			return fmt.Errorf("profile batch insert %s: %w", row.Name, err)
		}
	}
	return tx.Commit(ctx)
}

// LogKill appends one kill_log entry.
func (r *ProfileRepo) LogKill(ctx context.Context, profile, zombieKind string, mapID int16, x, y float64) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO kill_log (profile, zombie_kind, map_id, x, y)
		 VALUES ($1, $2, $3, $4, $5)`,
		profile, zombieKind, mapID, x, y,
	)
	if err != nil {
		return fmt.Errorf("log kill: %w", err)
	}
	return nil
}
