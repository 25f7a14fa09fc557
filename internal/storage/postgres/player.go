package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/fitquest/internal/game/calendar"
	"github.com/cory-johannsen/fitquest/internal/game/player"
	"github.com/cory-johannsen/fitquest/internal/game/stats"
)

var (
	// ErrPlayerNotFound is returned when a player lookup yields no results.
	ErrPlayerNotFound = errors.New("player not found")
	// ErrPlayerAlreadyLinked is returned when a user already owns a player.
	ErrPlayerAlreadyLinked = errors.New("user already has a player")
)

// PlayerRepository provides player persistence operations.
type PlayerRepository struct {
	db *pgxpool.Pool
}

// NewPlayerRepository creates a PlayerRepository backed by the given pool.
func NewPlayerRepository(db *pgxpool.Pool) *PlayerRepository {
	return &PlayerRepository{db: db}
}

const playerColumns = `id, name, title, level, rank, streak,
	strength, agility, endurance, intelligence, unassigned_points,
	daily_quest_id, secondary_quest_id, created_at, updated_at`

func scanPlayer(row pgx.Row) (*player.Player, error) {
	var (
		p    player.Player
		rank string
	)
	err := row.Scan(
		&p.ID, &p.Name, &p.Title, &p.Level, &rank, &p.Streak,
		&p.Stats.Strength, &p.Stats.Agility, &p.Stats.Endurance,
		&p.Stats.Intelligence, &p.Stats.UnassignedPoints,
		&p.DailyQuestID, &p.SecondaryQuestID, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if p.Rank, err = stats.ParseRank(rank); err != nil {
		return nil, fmt.Errorf("player %d: %w", p.ID, err)
	}
	return &p, nil
}

func insertPlayer(ctx context.Context, q pgx.Tx, p *player.Player) (*player.Player, error) {
	return scanPlayer(q.QueryRow(ctx,
		`INSERT INTO players (name, title, level, rank, streak,
			strength, agility, endurance, intelligence, unassigned_points)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING `+playerColumns,
		p.Name, p.Title, p.Level, string(p.Rank), p.Streak,
		p.Stats.Strength, p.Stats.Agility, p.Stats.Endurance,
		p.Stats.Intelligence, p.Stats.UnassignedPoints,
	))
}

// CreateForUser inserts p and links it to the given user in one transaction.
//
// Precondition: p must satisfy player.Validate.
// Postcondition: Returns the stored player with ID and timestamps set,
// ErrUserNotFound if the user is gone, or ErrPlayerAlreadyLinked if the user
// already owns a player. Nothing is written on error.
func (r *PlayerRepository) CreateForUser(ctx context.Context, userID int64, p *player.Player) (*player.Player, error) {
	var created *player.Player
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		var existing *int64
		err := tx.QueryRow(ctx,
			`SELECT player_id FROM users WHERE id = $1 FOR UPDATE`, userID,
		).Scan(&existing)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrUserNotFound
			}
			return fmt.Errorf("locking user: %w", err)
		}
		if existing != nil {
			return ErrPlayerAlreadyLinked
		}

		created, err = insertPlayer(ctx, tx, p)
		if err != nil {
			return fmt.Errorf("inserting player: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`UPDATE users SET player_id = $2 WHERE id = $1`, userID, created.ID,
		); err != nil {
			if isDuplicateKeyError(err) {
				return ErrPlayerAlreadyLinked
			}
			return fmt.Errorf("linking player: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// GetByID retrieves a player by primary key.
//
// Postcondition: Returns the player or ErrPlayerNotFound.
func (r *PlayerRepository) GetByID(ctx context.Context, id int64) (*player.Player, error) {
	p, err := scanPlayer(r.db.QueryRow(ctx,
		`SELECT `+playerColumns+` FROM players WHERE id = $1`, id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("querying player: %w", err)
	}
	return p, nil
}

// List returns every player ordered by id.
func (r *PlayerRepository) List(ctx context.Context) ([]*player.Player, error) {
	rows, err := r.db.Query(ctx, `SELECT `+playerColumns+` FROM players ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing players: %w", err)
	}
	defer rows.Close()

	players := make([]*player.Player, 0)
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning player row: %w", err)
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

// Save writes the mutable fields of p.
//
// Precondition: p.ID must identify a stored player; p must satisfy player.Validate.
// Postcondition: Returns the stored player with a fresh UpdatedAt, or ErrPlayerNotFound.
func (r *PlayerRepository) Save(ctx context.Context, p *player.Player) (*player.Player, error) {
	saved, err := scanPlayer(r.db.QueryRow(ctx,
		`UPDATE players
		 SET name = $2, title = $3, level = $4, rank = $5, streak = $6,
		     strength = $7, agility = $8, endurance = $9, intelligence = $10,
		     unassigned_points = $11, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+playerColumns,
		p.ID, p.Name, p.Title, p.Level, string(p.Rank), p.Streak,
		p.Stats.Strength, p.Stats.Agility, p.Stats.Endurance,
		p.Stats.Intelligence, p.Stats.UnassignedPoints,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("updating player: %w", err)
	}
	return saved, nil
}

// Delete removes a player. Quests and calendar entries cascade; the owning
// user's player link is cleared.
//
// Postcondition: Returns nil or ErrPlayerNotFound.
func (r *PlayerRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM players WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting player: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPlayerNotFound
	}
	return nil
}

// RecordDailyResult applies the streak rule for a daily check on the UTC day
// containing day. The day's calendar entry is claimed the first time a
// completed check reaches it, so the streak advances at most once per day no
// matter how often the quest is re-checked.
//
// Precondition: the day's calendar entry has been recorded.
// Postcondition: Returns the updated player or ErrPlayerNotFound.
func (r *PlayerRepository) RecordDailyResult(ctx context.Context, playerID int64, day time.Time, completed bool) (*player.Player, error) {
	var updated *player.Player
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		p, err := scanPlayer(tx.QueryRow(ctx,
			`SELECT `+playerColumns+` FROM players WHERE id = $1 FOR UPDATE`, playerID,
		))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrPlayerNotFound
			}
			return fmt.Errorf("locking player: %w", err)
		}
		updated = p
		if !completed {
			return nil
		}

		tag, err := tx.Exec(ctx,
			`UPDATE calendar_entries SET streak_counted = TRUE
			 WHERE player_id = $1 AND day = $2 AND NOT streak_counted`,
			playerID, calendar.Day(day),
		)
		if err != nil {
			return fmt.Errorf("claiming calendar day: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return nil
		}

		p.RecordDailyResult(true)
		updated, err = scanPlayer(tx.QueryRow(ctx,
			`UPDATE players SET streak = $2, updated_at = NOW()
			 WHERE id = $1 RETURNING `+playerColumns,
			playerID, p.Streak,
		))
		if err != nil {
			return fmt.Errorf("updating streak: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
