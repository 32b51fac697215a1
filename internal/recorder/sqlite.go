package recorder

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"SignalFusion/internal/model"
)

// SQLiteRecorder persists signals to a SQLite database.
type SQLiteRecorder struct {
	db     *sql.DB
	mu     sync.Mutex
	now    func() time.Time
	logger zerolog.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets the HTTP history endpoint read while the scheduler writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{
		db:     db,
		now:    time.Now,
		logger: log.With().Str("component", "recorder").Logger(),
	}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	r.logger.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS signals (
			id                     TEXT PRIMARY KEY,
			timestamp              INTEGER NOT NULL,
			symbol                 TEXT NOT NULL,
			display_name           TEXT,
			bias                   TEXT NOT NULL,
			bias_text              TEXT,
			cv_position            REAL,
			current_value          REAL,
			previous_close         REAL,
			net_change             REAL,
			change_pct             REAL,
			today_high             REAL,
			today_low              REAL,
			entry1                 REAL,
			entry2                 REAL,
			tp1                    REAL,
			tp2                    REAL,
			sl_tight               REAL,
			sl_wide                REAL,
			probability_percentage REAL,
			probability_label      TEXT,
			sentiment_label        TEXT,
			sentiment_score        REAL,
			sentiment_confidence   REAL,
			news_count             INTEGER,
			model_used             TEXT,
			headlines              TEXT,
			outcome                TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_signals_symbol_ts ON signals(symbol, timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordSignal inserts sig and returns the generated row id.
func (r *SQLiteRecorder) RecordSignal(ctx context.Context, sig *model.Signal) (string, error) {
	headlines, err := json.Marshal(sig.Headlines)
	if err != nil {
		return "", fmt.Errorf("marshal headlines: %w", err)
	}
	id := uuid.NewString()

	r.mu.Lock()
	defer r.mu.Unlock()

	_, err = r.db.ExecContext(ctx, `INSERT INTO signals
		(id, timestamp, symbol, display_name, bias, bias_text,
		 cv_position, current_value, previous_close, net_change, change_pct,
		 today_high, today_low,
		 entry1, entry2, tp1, tp2, sl_tight, sl_wide,
		 probability_percentage, probability_label,
		 sentiment_label, sentiment_score, sentiment_confidence, news_count, model_used,
		 headlines)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		id, r.now().UnixMilli(), sig.Symbol, sig.DisplayName, string(sig.Bias), sig.BiasText,
		sig.CVPosition, sig.CurrentValue, sig.PreviousClose, sig.NetChange, sig.ChangePct,
		sig.TodayHigh, sig.TodayLow,
		sig.Entry1, sig.Entry2, sig.TP1, sig.TP2, sig.SLTight, sig.SLWide,
		sig.ProbabilityPercentage, sig.ProbabilityLabel,
		string(sig.SentimentLabel), sig.SentimentScore, sig.SentimentConfidence, sig.NewsCount, sig.ModelUsed,
		string(headlines),
	)
	if err != nil {
		return "", fmt.Errorf("insert signal: %w", err)
	}
	return id, nil
}

// Recent returns up to limit signals for symbol, newest first.
func (r *SQLiteRecorder) Recent(ctx context.Context, symbol string, limit int) ([]StoredSignal, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, `SELECT
		id, timestamp, symbol, display_name, bias, bias_text,
		cv_position, current_value, previous_close, net_change, change_pct,
		today_high, today_low,
		entry1, entry2, tp1, tp2, sl_tight, sl_wide,
		probability_percentage, probability_label,
		sentiment_label, sentiment_score, sentiment_confidence, news_count, model_used,
		headlines
		FROM signals WHERE symbol = ? ORDER BY timestamp DESC, rowid DESC LIMIT ?`,
		strings.ToUpper(symbol), limit)
	if err != nil {
		return nil, fmt.Errorf("query signals: %w", err)
	}
	defer rows.Close()

	var out []StoredSignal
	for rows.Next() {
		var (
			st        StoredSignal
			ts        int64
			bias      string
			label     string
			headlines string
		)
		sig := &st.Signal
		if err := rows.Scan(
			&st.ID, &ts, &sig.Symbol, &sig.DisplayName, &bias, &sig.BiasText,
			&sig.CVPosition, &sig.CurrentValue, &sig.PreviousClose, &sig.NetChange, &sig.ChangePct,
			&sig.TodayHigh, &sig.TodayLow,
			&sig.Entry1, &sig.Entry2, &sig.TP1, &sig.TP2, &sig.SLTight, &sig.SLWide,
			&sig.ProbabilityPercentage, &sig.ProbabilityLabel,
			&label, &sig.SentimentScore, &sig.SentimentConfidence, &sig.NewsCount, &sig.ModelUsed,
			&headlines,
		); err != nil {
			return nil, fmt.Errorf("scan signal: %w", err)
		}
		st.CreatedAt = time.UnixMilli(ts).UTC()
		sig.Bias = model.Bias(bias)
		sig.SentimentLabel = model.SentimentLabel(label)
		if err := json.Unmarshal([]byte(headlines), &sig.Headlines); err != nil {
			return nil, fmt.Errorf("decode headlines for %s: %w", st.ID, err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	r.logger.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
