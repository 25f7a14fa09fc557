package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/fitquest/internal/game/calendar"
)

var (
	// ErrCalendarEntryExists is returned when the player already logged that day.
	ErrCalendarEntryExists = errors.New("calendar entry already exists for that day")
	// ErrCalendarEntryNotFound is returned when a calendar lookup yields no results.
	ErrCalendarEntryNotFound = errors.New("calendar entry not found")
)

// CalendarRepository persists per-day quest completion records.
type CalendarRepository struct {
	db *pgxpool.Pool
}

// NewCalendarRepository creates a CalendarRepository backed by the given pool.
func NewCalendarRepository(db *pgxpool.Pool) *CalendarRepository {
	return &CalendarRepository{db: db}
}

func scanEntry(row pgx.Row) (calendar.Entry, error) {
	var e calendar.Entry
	err := row.Scan(&e.ID, &e.PlayerID, &e.Day, &e.QuestCompleted)
	e.Day = calendar.Day(e.Day)
	return e, err
}

// Create inserts a new entry.
//
// Postcondition: Returns the stored entry, ErrCalendarEntryExists when the
// day is already logged, or ErrPlayerNotFound.
func (r *CalendarRepository) Create(ctx context.Context, e calendar.Entry) (calendar.Entry, error) {
	created, err := scanEntry(r.db.QueryRow(ctx,
		`INSERT INTO calendar_entries (player_id, day, quest_completed)
		 VALUES ($1, $2, $3)
		 RETURNING id, player_id, day, quest_completed`,
		e.PlayerID, calendar.Day(e.Day), e.QuestCompleted,
	))
	if err != nil {
		switch {
		case isDuplicateKeyError(err):
			return calendar.Entry{}, ErrCalendarEntryExists
		case isForeignKeyError(err):
			return calendar.Entry{}, ErrPlayerNotFound
		}
		return calendar.Entry{}, fmt.Errorf("inserting calendar entry: %w", err)
	}
	return created, nil
}

// Upsert records the entry, overwriting QuestCompleted if the day is already logged.
func (r *CalendarRepository) Upsert(ctx context.Context, e calendar.Entry) (calendar.Entry, error) {
	stored, err := scanEntry(r.db.QueryRow(ctx,
		`INSERT INTO calendar_entries (player_id, day, quest_completed)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (player_id, day) DO UPDATE SET quest_completed = EXCLUDED.quest_completed
		 RETURNING id, player_id, day, quest_completed`,
		e.PlayerID, calendar.Day(e.Day), e.QuestCompleted,
	))
	if err != nil {
		if isForeignKeyError(err) {
			return calendar.Entry{}, ErrPlayerNotFound
		}
		return calendar.Entry{}, fmt.Errorf("upserting calendar entry: %w", err)
	}
	return stored, nil
}

// GetByID retrieves one entry.
//
// Postcondition: Returns the entry or ErrCalendarEntryNotFound.
func (r *CalendarRepository) GetByID(ctx context.Context, id int64) (calendar.Entry, error) {
	e, err := scanEntry(r.db.QueryRow(ctx,
		`SELECT id, player_id, day, quest_completed FROM calendar_entries WHERE id = $1`, id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return calendar.Entry{}, ErrCalendarEntryNotFound
		}
		return calendar.Entry{}, fmt.Errorf("querying calendar entry: %w", err)
	}
	return e, nil
}

// ListByPlayer returns the player's entries ordered by day, oldest first.
func (r *CalendarRepository) ListByPlayer(ctx context.Context, playerID int64) ([]calendar.Entry, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, player_id, day, quest_completed
		 FROM calendar_entries WHERE player_id = $1 ORDER BY day ASC`,
		playerID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing calendar entries: %w", err)
	}
	defer rows.Close()

	entries := make([]calendar.Entry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning calendar row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Delete removes one entry.
//
// Postcondition: Returns nil or ErrCalendarEntryNotFound.
func (r *CalendarRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM calendar_entries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting calendar entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCalendarEntryNotFound
	}
	return nil
}
