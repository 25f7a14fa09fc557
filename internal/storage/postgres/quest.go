package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/fitquest/internal/game/quest"
)

var (
	// ErrQuestNotFound is returned when a quest lookup yields no results.
	ErrQuestNotFound = errors.New("quest not found")
	// ErrExerciseNotFound is returned when an exercise is not part of the quest.
	ErrExerciseNotFound = errors.New("exercise not found")
)

// QuestRepository persists quests together with their ordered exercises.
type QuestRepository struct {
	db *pgxpool.Pool
}

// NewQuestRepository creates a QuestRepository backed by the given pool.
func NewQuestRepository(db *pgxpool.Pool) *QuestRepository {
	return &QuestRepository{db: db}
}

const questColumns = `id, player_id, kind, title, description, quest_date,
	min_level, min_strength, min_agility, min_endurance, min_intelligence, created_at`

func scanQuest(row pgx.Row) (*quest.Quest, error) {
	var (
		q    quest.Quest
		kind string
	)
	req := &q.Requirements
	err := row.Scan(
		&q.ID, &q.PlayerID, &kind, &q.Title, &q.Description, &q.Date,
		&req.MinLevel, &req.MinStrength, &req.MinAgility, &req.MinEndurance, &req.MinIntelligence,
		&q.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	q.Kind = quest.Kind(kind)
	q.Exercises = make([]quest.Exercise, 0)
	return &q, nil
}

func writeExercises(ctx context.Context, tx pgx.Tx, questID int64, exercises []quest.Exercise) error {
	if _, err := tx.Exec(ctx, `DELETE FROM quest_exercises WHERE quest_id = $1`, questID); err != nil {
		return fmt.Errorf("clearing exercises: %w", err)
	}
	if len(exercises) == 0 {
		return nil
	}
	_, err := tx.CopyFrom(ctx,
		pgx.Identifier{"quest_exercises"},
		[]string{"id", "quest_id", "position", "name", "quantity", "done"},
		pgx.CopyFromSlice(len(exercises), func(i int) ([]any, error) {
			e := exercises[i]
			return []any{e.ID, questID, i, e.Name, e.Quantity, e.Done}, nil
		}),
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("copying exercises: %w", quest.ErrExerciseID)
		}
		return fmt.Errorf("copying exercises: %w", err)
	}
	return nil
}

// Create inserts q and its exercises and makes q the player's current quest
// of its kind, all in one transaction.
//
// Precondition: q must satisfy quest.Validate; exercise IDs must be assigned.
// Postcondition: Returns the stored quest with ID and CreatedAt set, or
// ErrPlayerNotFound if q.PlayerID does not exist. Nothing is written on error.
func (r *QuestRepository) Create(ctx context.Context, q *quest.Quest) (*quest.Quest, error) {
	var created *quest.Quest
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		req := q.Requirements
		var err error
		created, err = scanQuest(tx.QueryRow(ctx,
			`INSERT INTO quests (player_id, kind, title, description, quest_date,
				min_level, min_strength, min_agility, min_endurance, min_intelligence)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			 RETURNING `+questColumns,
			q.PlayerID, string(q.Kind), q.Title, q.Description, q.Date,
			req.MinLevel, req.MinStrength, req.MinAgility, req.MinEndurance, req.MinIntelligence,
		))
		if err != nil {
			if isForeignKeyError(err) {
				return ErrPlayerNotFound
			}
			return fmt.Errorf("inserting quest: %w", err)
		}
		if err := writeExercises(ctx, tx, created.ID, q.Exercises); err != nil {
			return err
		}
		created.Exercises = append(created.Exercises, q.Exercises...)

		column := "daily_quest_id"
		if q.Kind == quest.KindSecondary {
			column = "secondary_quest_id"
		}
		if _, err := tx.Exec(ctx,
			`UPDATE players SET `+column+` = $2, updated_at = NOW() WHERE id = $1`,
			q.PlayerID, created.ID,
		); err != nil {
			return fmt.Errorf("assigning quest: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// GetByID retrieves a quest with its exercises in order.
//
// Postcondition: Returns the quest or ErrQuestNotFound.
func (r *QuestRepository) GetByID(ctx context.Context, id int64) (*quest.Quest, error) {
	q, err := scanQuest(r.db.QueryRow(ctx,
		`SELECT `+questColumns+` FROM quests WHERE id = $1`, id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrQuestNotFound
		}
		return nil, fmt.Errorf("querying quest: %w", err)
	}
	if err := r.loadExercises(ctx, []*quest.Quest{q}); err != nil {
		return nil, err
	}
	return q, nil
}

// ListByPlayer returns the player's quests ordered by date, newest first.
func (r *QuestRepository) ListByPlayer(ctx context.Context, playerID int64) ([]*quest.Quest, error) {
	return r.list(ctx,
		`SELECT `+questColumns+` FROM quests WHERE player_id = $1 ORDER BY quest_date DESC, id DESC`,
		playerID,
	)
}

// ListAll returns every quest ordered by id.
func (r *QuestRepository) ListAll(ctx context.Context) ([]*quest.Quest, error) {
	return r.list(ctx, `SELECT `+questColumns+` FROM quests ORDER BY id ASC`)
}

func (r *QuestRepository) list(ctx context.Context, sql string, args ...any) ([]*quest.Quest, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("listing quests: %w", err)
	}
	defer rows.Close()

	quests := make([]*quest.Quest, 0)
	for rows.Next() {
		q, err := scanQuest(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning quest row: %w", err)
		}
		quests = append(quests, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating quest rows: %w", err)
	}
	if err := r.loadExercises(ctx, quests); err != nil {
		return nil, err
	}
	return quests, nil
}

func (r *QuestRepository) loadExercises(ctx context.Context, quests []*quest.Quest) error {
	if len(quests) == 0 {
		return nil
	}
	byID := make(map[int64]*quest.Quest, len(quests))
	ids := make([]int64, 0, len(quests))
	for _, q := range quests {
		byID[q.ID] = q
		ids = append(ids, q.ID)
	}

	rows, err := r.db.Query(ctx,
		`SELECT quest_id, id, name, quantity, done
		 FROM quest_exercises
		 WHERE quest_id = ANY($1)
		 ORDER BY quest_id, position`,
		ids,
	)
	if err != nil {
		return fmt.Errorf("querying exercises: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			questID int64
			e       quest.Exercise
		)
		if err := rows.Scan(&questID, &e.ID, &e.Name, &e.Quantity, &e.Done); err != nil {
			return fmt.Errorf("scanning exercise row: %w", err)
		}
		if q, ok := byID[questID]; ok {
			q.Exercises = append(q.Exercises, e)
		}
	}
	return rows.Err()
}

// Save writes the editable fields of q and replaces its exercise list.
//
// Precondition: q.ID must identify a stored quest; q must satisfy quest.Validate.
// Postcondition: Returns the stored quest or ErrQuestNotFound.
func (r *QuestRepository) Save(ctx context.Context, q *quest.Quest) (*quest.Quest, error) {
	var saved *quest.Quest
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		req := q.Requirements
		var err error
		saved, err = scanQuest(tx.QueryRow(ctx,
			`UPDATE quests
			 SET title = $2, description = $3, quest_date = $4,
			     min_level = $5, min_strength = $6, min_agility = $7,
			     min_endurance = $8, min_intelligence = $9
			 WHERE id = $1
			 RETURNING `+questColumns,
			q.ID, q.Title, q.Description, q.Date,
			req.MinLevel, req.MinStrength, req.MinAgility, req.MinEndurance, req.MinIntelligence,
		))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrQuestNotFound
			}
			return fmt.Errorf("updating quest: %w", err)
		}
		if err := writeExercises(ctx, tx, q.ID, q.Exercises); err != nil {
			return err
		}
		saved.Exercises = append(saved.Exercises, q.Exercises...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

// SetExerciseDone marks one exercise of a quest done or not done.
//
// Postcondition: Returns the refreshed quest, or ErrExerciseNotFound when the
// exercise does not belong to the quest.
func (r *QuestRepository) SetExerciseDone(ctx context.Context, questID int64, exerciseID string, done bool) (*quest.Quest, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE quest_exercises SET done = $3 WHERE quest_id = $1 AND id = $2`,
		questID, exerciseID, done,
	)
	if err != nil {
		return nil, fmt.Errorf("updating exercise: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrExerciseNotFound
	}
	return r.GetByID(ctx, questID)
}

// Delete removes a quest and its exercises. Player references to it are cleared.
//
// Postcondition: Returns nil or ErrQuestNotFound.
func (r *QuestRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM quests WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting quest: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrQuestNotFound
	}
	return nil
}
