package repository

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/ibrahim-qi/sesh-app/internal/domain"
	"github.com/rs/zerolog"
)

type GameRepository struct {
	db     DBTX
	logger zerolog.Logger
}

func NewGameRepository(sqlDB *sql.DB, logger zerolog.Logger) *GameRepository {
	return &GameRepository{db: sqlDB, logger: logger}
}

func (r *GameRepository) WithTx(tx *sql.Tx) *GameRepository {
	return &GameRepository{db: tx, logger: r.logger}
}

var gameColumns = []string{
	"g.id", "g.session_id", "g.number", "g.team_a_id", "g.team_b_id", "g.score_a", "g.score_b",
	"g.winner_team_id", "g.status", "g.created_at", "g.completed_at",
}

func scanGame(row interface{ Scan(...any) error }) (domain.Game, error) {
	var (
		g           domain.Game
		winner      sql.NullString
		completedAt sql.NullTime
	)
	err := row.Scan(&g.ID, &g.SessionID, &g.Number, &g.TeamAID, &g.TeamBID, &g.ScoreA, &g.ScoreB,
		&winner, &g.Status, &g.CreatedAt, &completedAt)
	g.WinnerTeamID = winner.String
	g.CompletedAt = timePtr(completedAt)
	return g, err
}

func (r *GameRepository) list(ctx context.Context, b sq.SelectBuilder) ([]domain.Game, error) {
	rows, err := selectRows(ctx, r.db, b)
	if err != nil {
		return nil, fmt.Errorf("failed to query games: %w", err)
	}
	defer rows.Close()

	games := []domain.Game{}
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan game: %w", err)
		}
		games = append(games, g)
	}
	return games, rows.Err()
}

func (r *GameRepository) Create(ctx context.Context, g *domain.Game) error {
	_, err := exec(ctx, r.db, psql.Insert("games").
		Columns("id", "session_id", "number", "team_a_id", "team_b_id", "score_a", "score_b",
			"winner_team_id", "status", "created_at", "completed_at").
		Values(g.ID, g.SessionID, g.Number, g.TeamAID, g.TeamBID, g.ScoreA, g.ScoreB,
			nullString(g.WinnerTeamID), g.Status, g.CreatedAt.UTC(), nullTime(g.CompletedAt)))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("session %s already has an active game: %w", g.SessionID, err)
		}
		return fmt.Errorf("failed to insert game: %w", err)
	}
	return nil
}

func (r *GameRepository) Get(ctx context.Context, id string) (*domain.Game, error) {
	g, err := scanGame(r.db.QueryRowContext(ctx,
		`SELECT g.id, g.session_id, g.number, g.team_a_id, g.team_b_id, g.score_a, g.score_b,
		        g.winner_team_id, g.status, g.created_at, g.completed_at
		   FROM games g WHERE g.id = ?`, id))
	if err != nil {
		return nil, notFound(err, "game", id)
	}
	return &g, nil
}

// Active returns the session's in-progress game.
func (r *GameRepository) Active(ctx context.Context, sessionID string) (*domain.Game, error) {
	games, err := r.list(ctx, psql.Select(gameColumns...).
		From("games g").
		Where(sq.Eq{"g.session_id": sessionID, "g.status": domain.GameInProgress}))
	if err != nil {
		return nil, err
	}
	if len(games) == 0 {
		return nil, domain.NotFound("active game for session", sessionID)
	}
	return &games[0], nil
}

// ListBySession returns the session's games in play order.
func (r *GameRepository) ListBySession(ctx context.Context, sessionID string) ([]domain.Game, error) {
	return r.list(ctx, psql.Select(gameColumns...).
		From("games g").
		Where(sq.Eq{"g.session_id": sessionID}).
		OrderBy("g.number"))
}

// ListCompletedByGroup returns every completed game of the squad.
func (r *GameRepository) ListCompletedByGroup(ctx context.Context, groupID string) ([]domain.Game, error) {
	return r.list(ctx, psql.Select(gameColumns...).
		From("games g").
		Join("sessions s ON s.id = g.session_id").
		Where(sq.Eq{"s.group_id": groupID, "g.status": domain.GameCompleted}).
		OrderBy("s.scheduled_at", "g.session_id", "g.number"))
}

// ListCompletedByTeams returns completed games in which any of teamIDs played.
func (r *GameRepository) ListCompletedByTeams(ctx context.Context, teamIDs []string) ([]domain.Game, error) {
	if len(teamIDs) == 0 {
		return []domain.Game{}, nil
	}
	return r.list(ctx, psql.Select(gameColumns...).
		From("games g").
		Where(sq.And{
			sq.Eq{"g.status": domain.GameCompleted},
			sq.Or{sq.Eq{"g.team_a_id": teamIDs}, sq.Eq{"g.team_b_id": teamIDs}},
		}).
		OrderBy("g.created_at", "g.number"))
}

func (r *GameRepository) NextNumber(ctx context.Context, sessionID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(number), 0) + 1 FROM games WHERE session_id = ?`, sessionID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to read next game number: %w", err)
	}
	return n, nil
}

// Update writes the mutable part of a game: scores, status and winner.
func (r *GameRepository) Update(ctx context.Context, g *domain.Game) error {
	res, err := exec(ctx, r.db, psql.Update("games").
		Set("score_a", g.ScoreA).
		Set("score_b", g.ScoreB).
		Set("winner_team_id", nullString(g.WinnerTeamID)).
		Set("status", g.Status).
		Set("completed_at", nullTime(g.CompletedAt)).
		Where(sq.Eq{"id": g.ID}))
	if err != nil {
		return fmt.Errorf("failed to update game %s: %w", g.ID, err)
	}
	return expectOne(res, "game", g.ID)
}

func (r *GameRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM games WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete game: %w", err)
	}
	return expectOne(res, "game", id)
}
