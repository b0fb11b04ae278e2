// Package eventlog is an append-only record of domain events
// (SessionFinalized, ExamGenerated, UserExtended, ...) kept in the
// event_log table for audit and offline sync.
package eventlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"
)

const (
	TypeExamGenerated    = "ExamGenerated"
	TypeSessionFinalized = "SessionFinalized"
	TypeUserExtended     = "UserExtended"
)

type Event struct {
	Seq       int64
	SiteID    string
	Type      string
	Key       string
	DataJSON  string
	CreatedAt int64
}

type Repo struct {
	db     *sql.DB
	siteID string
}

func NewRepo(db *sql.DB, siteID string) *Repo {
	if siteID == "" {
		siteID = "local"
	}
	return &Repo{db: db, siteID: siteID}
}

// Append records one event. data is JSON-encoded; a nil data writes "{}".
func (r *Repo) Append(ctx context.Context, typ, key string, data interface{}) error {
	payload := []byte("{}")
	if data != nil {
		var err error
		payload, err = json.Marshal(data)
		if err != nil {
			return err
		}
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO event_log (site_id, typ, key, data, created_at)
		 VALUES ($1,$2,$3,$4,$5)`,
		r.siteID, typ, key, string(payload), time.Now().Unix())
	return err
}
