package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ramonehamilton/commander-forge/internal/deck"
)

// ErrDeckNotFound is returned when no stored deck has the given id.
var ErrDeckNotFound = errors.New("deck not found")

// timeLayout is how timestamps are stored: ISO 8601 without a zone,
// always UTC.
const timeLayout = "2006-01-02 15:04:05.999999"

// StoredDeck is one persisted build result.
type StoredDeck struct {
	ID        string          `json:"id"`
	Strategy  string          `json:"strategy"`
	CreatedAt time.Time       `json:"createdAt"`
	Deck      *deck.FinalDeck `json:"deck"`
}

// DeckSummary is the queryable slice of a stored deck, used for
// listings so deck bodies stay on disk.
type DeckSummary struct {
	ID            string    `json:"id"`
	CommanderID   string    `json:"commanderId"`
	CommanderName string    `json:"commanderName"`
	ColorIdentity string    `json:"colorIdentity"`
	Strategy      string    `json:"strategy"`
	TotalCards    int       `json:"totalCards"`
	Lands         int       `json:"lands"`
	Creatures     int       `json:"creatures"`
	Spells        int       `json:"spells"`
	CreatedAt     time.Time `json:"createdAt"`
}

// DeckStore handles deck persistence.
type DeckStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewDeckStore creates a deck store on db.
func NewDeckStore(db *DB) *DeckStore {
	return &DeckStore{db: db.Conn(), now: time.Now}
}

// Save persists d. A missing ID is assigned and a zero CreatedAt is
// set to the current time; both are written back to d.
func (s *DeckStore) Save(ctx context.Context, d *StoredDeck) error {
	if d.Deck == nil {
		return fmt.Errorf("stored deck has no deck body")
	}
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = s.now().UTC()
	}

	body, err := json.Marshal(d.Deck)
	if err != nil {
		return fmt.Errorf("encoding deck body: %w", err)
	}

	query := `
		INSERT INTO decks (
			id, commander_id, commander_name, color_identity, strategy,
			total_cards, land_count, creature_count, spell_count, body, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = s.db.ExecContext(ctx, query,
		d.ID,
		d.Deck.Commander.ID,
		d.Deck.Commander.Name,
		strings.Join(d.Deck.Commander.ColorIdentity, ""),
		d.Strategy,
		d.Deck.TotalCards,
		len(d.Deck.Lands),
		len(d.Deck.Creatures),
		len(d.Deck.Spells),
		string(body),
		d.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("saving deck: %w", err)
	}
	return nil
}

// Get loads one stored deck with its full body.
func (s *DeckStore) Get(ctx context.Context, id string) (*StoredDeck, error) {
	query := `SELECT id, strategy, body, created_at FROM decks WHERE id = ?`

	var (
		out       StoredDeck
		body      string
		createdAt string
	)
	err := s.db.QueryRowContext(ctx, query, id).Scan(&out.ID, &out.Strategy, &body, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDeckNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading deck %s: %w", id, err)
	}

	var d deck.FinalDeck
	if err := json.Unmarshal([]byte(body), &d); err != nil {
		return nil, fmt.Errorf("decoding deck body: %w", err)
	}
	out.Deck = &d

	out.CreatedAt, err = time.Parse(timeLayout, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing deck timestamp: %w", err)
	}
	return &out, nil
}

// List returns deck summaries, newest first. A non-positive limit
// returns up to 100 decks.
func (s *DeckStore) List(ctx context.Context, limit int) ([]DeckSummary, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `
		SELECT id, commander_id, commander_name, color_identity, strategy,
		       total_cards, land_count, creature_count, spell_count, created_at
		FROM decks
		ORDER BY created_at DESC, id
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("listing decks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []DeckSummary
	for rows.Next() {
		var (
			sum       DeckSummary
			createdAt string
		)
		if err := rows.Scan(&sum.ID, &sum.CommanderID, &sum.CommanderName, &sum.ColorIdentity,
			&sum.Strategy, &sum.TotalCards, &sum.Lands, &sum.Creatures, &sum.Spells, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning deck summary: %w", err)
		}
		sum.CreatedAt, err = time.Parse(timeLayout, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing deck timestamp: %w", err)
		}
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating decks: %w", err)
	}
	return out, nil
}

// Delete removes a stored deck.
func (s *DeckStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM decks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting deck %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting deck %s: %w", id, err)
	}
	if n == 0 {
		return ErrDeckNotFound
	}
	return nil
}
