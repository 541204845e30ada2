package repository

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/ibrahim-qi/sesh-app/internal/constants"
	"github.com/ibrahim-qi/sesh-app/internal/domain"
	"github.com/rs/zerolog"
)

type SessionRepository struct {
	db     DBTX
	logger zerolog.Logger
}

func NewSessionRepository(sqlDB *sql.DB, logger zerolog.Logger) *SessionRepository {
	return &SessionRepository{db: sqlDB, logger: logger}
}

func (r *SessionRepository) WithTx(tx *sql.Tx) *SessionRepository {
	return &SessionRepository{db: tx, logger: r.logger}
}

var sessionColumns = []string{"id", "group_id", "host_id", "created_by", "scheduled_at", "location", "status", "created_at"}

func scanSession(row interface{ Scan(...any) error }) (domain.Session, error) {
	var (
		s         domain.Session
		hostID    sql.NullString
		createdBy sql.NullString
	)
	err := row.Scan(&s.ID, &s.GroupID, &hostID, &createdBy, &s.ScheduledAt, &s.Location, &s.Status, &s.CreatedAt)
	s.HostID = hostID.String
	s.CreatedBy = createdBy.String
	return s, err
}

func (r *SessionRepository) Create(ctx context.Context, s *domain.Session) error {
	_, err := exec(ctx, r.db, psql.Insert("sessions").
		Columns(sessionColumns...).
		Values(s.ID, s.GroupID, nullString(s.HostID), nullString(s.CreatedBy), s.ScheduledAt.UTC(), s.Location, s.Status, s.CreatedAt.UTC()))
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

func (r *SessionRepository) Get(ctx context.Context, id string) (*domain.Session, error) {
	rows, err := r.list(ctx, psql.Select(sessionColumns...).From("sessions").Where(sq.Eq{"id": id}))
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, domain.NotFound("session", id)
	}
	return &rows[0], nil
}

// ListByGroup returns the squad's sessions, most recent date first.
func (r *SessionRepository) ListByGroup(ctx context.Context, groupID string) ([]domain.Session, error) {
	return r.list(ctx, psql.Select(sessionColumns...).
		From("sessions").
		Where(sq.Eq{"group_id": groupID}).
		OrderBy("scheduled_at DESC", "created_at DESC"))
}

// Next returns the earliest session that is upcoming or live.
func (r *SessionRepository) Next(ctx context.Context, groupID string) (*domain.Session, error) {
	rows, err := r.list(ctx, psql.Select(sessionColumns...).
		From("sessions").
		Where(sq.Eq{"group_id": groupID, "status": []domain.SessionStatus{domain.SessionUpcoming, domain.SessionLive}}).
		OrderBy("scheduled_at", "created_at").
		Limit(1))
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, domain.NotFound("upcoming session", "")
	}
	return &rows[0], nil
}

func (r *SessionRepository) list(ctx context.Context, b sq.SelectBuilder) ([]domain.Session, error) {
	rows, err := selectRows(ctx, r.db, b)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []domain.Session{}
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

func (r *SessionRepository) UpdateStatus(ctx context.Context, id string, status domain.SessionStatus) error {
	res, err := r.db.ExecContext(ctx, `UPDATE sessions SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update session status: %w", err)
	}
	return expectOne(res, "session", id)
}

func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return expectOne(res, "session", id)
}

// CreateTeam inserts the team and its player list.
func (r *SessionRepository) CreateTeam(ctx context.Context, t *domain.Team) error {
	_, err := exec(ctx, r.db, psql.Insert("teams").
		Columns("id", "session_id", "name", "color", "captain_id", "position", "created_at").
		Values(t.ID, t.SessionID, t.Name, t.Color, nullString(t.CaptainID), t.Position, t.CreatedAt.UTC()))
	if err != nil {
		return fmt.Errorf("failed to insert team %s: %w", t.Name, err)
	}

	if len(t.PlayerIDs) == 0 {
		return nil
	}
	for _, batch := range chunks(t.PlayerIDs, constants.DBBatchSize) {
		ins := psql.Insert("team_players").Columns("team_id", "member_id")
		for _, memberID := range batch {
			ins = ins.Values(t.ID, memberID)
		}
		if _, err := exec(ctx, r.db, ins); err != nil {
			return fmt.Errorf("failed to insert players for team %s: %w", t.Name, err)
		}
	}
	return nil
}

func (r *SessionRepository) UpdateTeam(ctx context.Context, t *domain.Team) error {
	res, err := exec(ctx, r.db, psql.Update("teams").
		Set("name", t.Name).
		Set("color", t.Color).
		Where(sq.Eq{"id": t.ID}))
	if err != nil {
		return fmt.Errorf("failed to update team: %w", err)
	}
	return expectOne(res, "team", t.ID)
}

// Teams returns the session's teams in configured order with their players.
func (r *SessionRepository) Teams(ctx context.Context, sessionID string) ([]domain.Team, error) {
	return r.teams(ctx, sq.Eq{"t.session_id": sessionID})
}

// TeamsByGroup returns every team the squad has fielded.
func (r *SessionRepository) TeamsByGroup(ctx context.Context, groupID string) ([]domain.Team, error) {
	return r.teams(ctx, sq.Eq{"s.group_id": groupID})
}

func (r *SessionRepository) teams(ctx context.Context, where sq.Sqlizer) ([]domain.Team, error) {
	rows, err := selectRows(ctx, r.db, psql.
		Select("t.id", "t.session_id", "t.name", "t.color", "t.captain_id", "t.position", "t.created_at", "tp.member_id").
		From("teams t").
		Join("sessions s ON s.id = t.session_id").
		LeftJoin("team_players tp ON tp.team_id = t.id").
		LeftJoin("members m ON m.id = tp.member_id").
		Where(where).
		OrderBy("s.scheduled_at", "t.session_id", "t.position", "lower(m.name)", "tp.member_id"))
	if err != nil {
		return nil, fmt.Errorf("failed to query teams: %w", err)
	}
	defer rows.Close()

	teams := []domain.Team{}
	index := make(map[string]int)
	for rows.Next() {
		var (
			t         domain.Team
			captainID sql.NullString
			memberID  sql.NullString
		)
		if err := rows.Scan(&t.ID, &t.SessionID, &t.Name, &t.Color, &captainID, &t.Position, &t.CreatedAt, &memberID); err != nil {
			return nil, fmt.Errorf("failed to scan team: %w", err)
		}
		i, ok := index[t.ID]
		if !ok {
			t.CaptainID = captainID.String
			t.PlayerIDs = []string{}
			teams = append(teams, t)
			i = len(teams) - 1
			index[t.ID] = i
		}
		if memberID.Valid {
			teams[i].PlayerIDs = append(teams[i].PlayerIDs, memberID.String)
		}
	}
	return teams, rows.Err()
}

func (r *SessionRepository) GetTeam(ctx context.Context, id string) (*domain.Team, error) {
	teams, err := r.teams(ctx, sq.Eq{"t.id": id})
	if err != nil {
		return nil, err
	}
	if len(teams) == 0 {
		return nil, domain.NotFound("team", id)
	}
	return &teams[0], nil
}
