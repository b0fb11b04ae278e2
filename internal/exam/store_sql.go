package exam

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) PutExam(ctx context.Context, e Exam) error {
	qj, err := json.Marshal(e.Questions)
	if err != nil {
		return err
	}
	createdAt := e.CreatedAt
	if createdAt == 0 {
		createdAt = time.Now().Unix()
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO exams (id,title,topic,level,exam_type,difficulty,questions_json,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title, questions_json=EXCLUDED.questions_json`,
		e.ID, e.Title, e.Topic, e.Level, e.ExamType, e.Difficulty, string(qj), createdAt)
	return err
}

func (s *SQLStore) GetExam(ctx context.Context, id string) (Exam, error) {
	e, err := s.GetExamFull(ctx, id)
	if err != nil {
		return Exam{}, err
	}
	return stripKeys(e), nil
}

func (s *SQLStore) GetExamFull(ctx context.Context, id string) (Exam, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,title,topic,level,exam_type,difficulty,questions_json,created_at
		FROM exams WHERE id=$1`, id)
	var e Exam
	var qjson string
	if err := row.Scan(&e.ID, &e.Title, &e.Topic, &e.Level, &e.ExamType, &e.Difficulty, &qjson, &e.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Exam{}, ErrExamNotFound
		}
		return Exam{}, err
	}
	if err := json.Unmarshal([]byte(qjson), &e.Questions); err != nil {
		return Exam{}, err
	}
	return e, nil
}

func (s *SQLStore) ListExams(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id,title,topic,level,exam_type,difficulty,created_at
		FROM exams ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Summary{}
	for rows.Next() {
		var sm Summary
		if err := rows.Scan(&sm.ID, &sm.Title, &sm.Topic, &sm.Level, &sm.ExamType, &sm.Difficulty, &sm.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, sm)
	}
	return out, rows.Err()
}

func (s *SQLStore) SaveSession(ctx context.Context, rec SessionRecord) error {
	aj, err := json.Marshal(rec.Answers)
	if err != nil {
		return err
	}
	var finalizedAt interface{}
	if rec.FinalizedAt != 0 {
		finalizedAt = rec.FinalizedAt
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO sessions (id,exam_id,user_id,status,percentage,passed,answers_json,started_at,finalized_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (id) DO UPDATE SET status=EXCLUDED.status, percentage=EXCLUDED.percentage,
			passed=EXCLUDED.passed, answers_json=EXCLUDED.answers_json, finalized_at=EXCLUDED.finalized_at`,
		rec.ID, rec.ExamID, rec.UserID, rec.Status, rec.Percentage, rec.Passed, string(aj), rec.StartedAt, finalizedAt)
	return err
}

func (s *SQLStore) GetSession(ctx context.Context, id string) (SessionRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,exam_id,user_id,status,percentage,passed,answers_json,started_at,COALESCE(finalized_at,0)
		FROM sessions WHERE id=$1`, id)
	var rec SessionRecord
	var ajson string
	if err := row.Scan(&rec.ID, &rec.ExamID, &rec.UserID, &rec.Status, &rec.Percentage, &rec.Passed, &ajson, &rec.StartedAt, &rec.FinalizedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return SessionRecord{}, ErrSessionNotFound
		}
		return SessionRecord{}, err
	}
	if err := json.Unmarshal([]byte(ajson), &rec.Answers); err != nil {
		rec.Answers = nil
	}
	return rec, nil
}
