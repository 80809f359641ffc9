package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"math"
	"sort"
	"time"

	"github.com/pgvector/pgvector-go"

	"github.com/yoockh/barta/internal/models"
	"github.com/yoockh/barta/internal/repositories"
)

// Messages are rows, not a snapshot: the history only ever grows.
const messagesDDL = `CREATE TABLE IF NOT EXISTS messages (
	id TEXT PRIMARY KEY,
	sender TEXT NOT NULL,
	text TEXT NOT NULL,
	intent TEXT NOT NULL DEFAULT '',
	trigger_id TEXT NOT NULL DEFAULT '',
	embedding TEXT,
	metadata TEXT,
	ts INTEGER NOT NULL
)`

const messagesIndexDDL = `CREATE INDEX IF NOT EXISTS messages_ts ON messages(ts)`

// nearestScan bounds how many embedded replies are compared in memory.
const nearestScan = 500

type messageRepo struct {
	s *Store
}

func NewMessageRepo(s *Store) (repositories.MessageRepository, error) {
	for _, ddl := range []string{messagesDDL, messagesIndexDDL} {
		if _, err := s.DB.Exec(ddl); err != nil {
			return nil, err
		}
	}
	return &messageRepo{s: s}, nil
}

func (r *messageRepo) Insert(ctx context.Context, m *models.Message) error {
	var emb sql.NullString
	if m.Embedding != nil {
		b, err := json.Marshal(m.Embedding.Slice())
		if err != nil {
			return err
		}
		emb = sql.NullString{String: string(b), Valid: true}
	}
	v, err := m.Metadata.Value()
	if err != nil {
		return err
	}
	var meta string
	if b, ok := v.([]byte); ok {
		meta = string(b)
	}
	_, err = r.s.DB.ExecContext(ctx,
		`INSERT INTO messages(id, sender, text, intent, trigger_id, embedding, metadata, ts) VALUES(?,?,?,?,?,?,?,?)`,
		m.ID, string(m.Sender), m.Text, m.Intent, m.TriggerID, emb, meta, m.Timestamp.UnixNano())
	return err
}

func (r *messageRepo) List(ctx context.Context, limit int) ([]models.Message, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.s.DB.QueryContext(ctx,
		`SELECT id, sender, text, intent, trigger_id, embedding, metadata, ts FROM messages ORDER BY ts DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	out, err := scanMessages(rows)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// Nearest ranks recent embedded agent replies by L2 distance in memory.
func (r *messageRepo) Nearest(ctx context.Context, embedding []float32, limit int) ([]models.Message, error) {
	if len(embedding) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = 3
	}
	rows, err := r.s.DB.QueryContext(ctx,
		`SELECT id, sender, text, intent, trigger_id, embedding, metadata, ts FROM messages
		 WHERE sender = ? AND embedding IS NOT NULL ORDER BY ts DESC LIMIT ?`,
		string(models.SenderAgent), nearestScan)
	if err != nil {
		return nil, err
	}
	cands, err := scanMessages(rows)
	if err != nil {
		return nil, err
	}

	dist := make(map[string]float64, len(cands))
	for _, m := range cands {
		dist[m.ID] = l2(embedding, m.Embedding.Slice())
	}
	sort.SliceStable(cands, func(i, j int) bool { return dist[cands[i].ID] < dist[cands[j].ID] })
	if len(cands) > limit {
		cands = cands[:limit]
	}
	return cands, nil
}

func scanMessages(rows *sql.Rows) ([]models.Message, error) {
	defer rows.Close()
	var out []models.Message
	for rows.Next() {
		var (
			m      models.Message
			sender string
			emb    sql.NullString
			meta   sql.NullString
			ts     int64
		)
		if err := rows.Scan(&m.ID, &sender, &m.Text, &m.Intent, &m.TriggerID, &emb, &meta, &ts); err != nil {
			return nil, err
		}
		m.Sender = models.Sender(sender)
		m.Timestamp = time.Unix(0, ts).UTC()
		if emb.Valid {
			var v []float32
			if err := json.Unmarshal([]byte(emb.String), &v); err != nil {
				return nil, err
			}
			vec := pgvector.NewVector(v)
			m.Embedding = &vec
		}
		if meta.Valid {
			if err := m.Metadata.Scan(meta.String); err != nil {
				return nil, err
			}
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func l2(a, b []float32) float64 {
	if len(a) != len(b) {
		return math.Inf(1)
	}
	var sum float64
	for i := range a {
		d := float64(a[i] - b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}
