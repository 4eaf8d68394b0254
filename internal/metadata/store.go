package metadata

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/manofshad/vodhunter-go/internal/apperr"
)

// Creator is a Twitch streamer, created on first sight and never
// deleted.
type Creator struct {
	ID   int64
	Name string
	URL  string
}

// Video is an archive (VOD). Processed is true only after the
// archive-follower finalizes it; it may be reset to false if the same
// URL is reused by a new live session.
type Video struct {
	ID        int64
	CreatorID int64
	URL       string
	Title     string
	Processed bool
}

// VideoWithCreator joins a video to its creator's display name, as
// returned by search results and the sessions listing.
type VideoWithCreator struct {
	VideoID     int64
	URL         string
	Title       string
	CreatorName string
}

// FingerprintRow is one embedded second of a video.
type FingerprintRow struct {
	ID               int64
	VideoID          int64
	TimestampSeconds float64
}

// LiveIngestState is the single per-archive cursor row the
// archive-follower owns while active.
type LiveIngestState struct {
	VodPlatformID           string
	VideoID                 int64
	Streamer                string
	LastIngestedSeconds     int
	LastSeenDurationSeconds int
	UpdatedAt               time.Time
}

// SessionSummary is one row of the live-sessions listing.
type SessionSummary struct {
	VideoID     int64
	CreatorName string
	URL         string
	Title       string
	Processed   bool
}

// Store is the relational metadata store, backed by DuckDB through
// database/sql.
type Store struct {
	db *sql.DB
}

// Open creates (or attaches to) the DuckDB file at path and configures
// the connection pool. It does not create tables; call Init for that.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create metadata dir %s: %w", dir, err)
		}
	}

	connStr := fmt.Sprintf("%s?access_mode=read_write", path)
	db, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db}
	s.configureConnectionPool()
	return s, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Init creates the schema if absent, then runs the dedupe-then-unique
// index migration described in spec.md §4.1/§9: duplicate
// (video_id, timestamp_seconds) rows are collapsed to the
// lowest-id row before the unique index is enforced, since the
// constraint creation fails outright on pre-existing duplicates.
func (s *Store) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return wrapDBErr(err)
	}
	if err := s.dedupeFingerprints(ctx); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, fingerprintUniqueIndexSQL); err != nil {
		return wrapDBErr(err)
	}
	if _, err := s.db.ExecContext(ctx, videoUniqueURLIndexSQL); err != nil {
		return wrapDBErr(err)
	}
	return s.runVersionedMigrations(ctx)
}

const schemaSQL = `
CREATE SEQUENCE IF NOT EXISTS creators_id_seq;
CREATE SEQUENCE IF NOT EXISTS videos_id_seq;
CREATE SEQUENCE IF NOT EXISTS fingerprints_id_seq;

CREATE TABLE IF NOT EXISTS creators (
	id   BIGINT PRIMARY KEY DEFAULT nextval('creators_id_seq'),
	name TEXT NOT NULL,
	url  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS videos (
	id         BIGINT PRIMARY KEY DEFAULT nextval('videos_id_seq'),
	creator_id BIGINT NOT NULL,
	url        TEXT NOT NULL,
	title      TEXT NOT NULL,
	processed  BOOLEAN NOT NULL DEFAULT false
);

CREATE TABLE IF NOT EXISTS fingerprints (
	id                BIGINT PRIMARY KEY DEFAULT nextval('fingerprints_id_seq'),
	video_id          BIGINT NOT NULL,
	timestamp_seconds DOUBLE NOT NULL
);

CREATE TABLE IF NOT EXISTS live_ingest_state (
	vod_platform_id            TEXT PRIMARY KEY,
	video_id                   BIGINT NOT NULL,
	streamer                   TEXT NOT NULL,
	last_ingested_seconds      BIGINT NOT NULL DEFAULT 0,
	last_seen_duration_seconds BIGINT NOT NULL DEFAULT 0,
	updated_at                 TIMESTAMP NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS creators_url_idx ON creators(url);
`

// fingerprintUniqueIndexSQL enforces spec.md §3's
// UNIQUE(video_id, timestamp_seconds) invariant.
const fingerprintUniqueIndexSQL = `
CREATE UNIQUE INDEX IF NOT EXISTS fingerprints_video_ts_idx
	ON fingerprints(video_id, timestamp_seconds);
`

// videoUniqueURLIndexSQL is the §9 tightening: the original schema has
// no unique constraint on videos.url, which is racy under concurrent
// followers. The single-slot monitor supervisor prevents that race in
// practice; this index makes the invariant structural too.
const videoUniqueURLIndexSQL = `
CREATE UNIQUE INDEX IF NOT EXISTS videos_url_idx ON videos(url);
`

// dedupeFingerprints collapses pre-existing duplicate
// (video_id, timestamp_seconds) rows to the lowest id before the
// unique index is created, per spec.md §4.1.
func (s *Store) dedupeFingerprints(ctx context.Context) error {
	const q = `
DELETE FROM fingerprints
WHERE id NOT IN (
	SELECT MIN(id) FROM fingerprints GROUP BY video_id, timestamp_seconds
);`
	if _, err := s.db.ExecContext(ctx, q); err != nil {
		return wrapDBErr(err)
	}
	return nil
}

// CreateOrGetCreator inserts a creator if its url isn't already known,
// otherwise returns the existing row's id. Idempotent on url.
func (s *Store) CreateOrGetCreator(ctx context.Context, name, url string) (int64, error) {
	const q = `
INSERT INTO creators (name, url) VALUES (?, ?)
ON CONFLICT (url) DO UPDATE SET name = creators.name
RETURNING id;`
	var id int64
	if err := s.db.QueryRowContext(ctx, q, name, url).Scan(&id); err != nil {
		return 0, wrapDBErr(err)
	}
	return id, nil
}

// CreateVideo creates (or reuses, per the url-upsert tightening from
// §9) the video row for an archive. Reusing an existing row sets
// processed to the caller-supplied value, matching the
// archive-follower's "adopt the existing row and reset processed=false
// on VOD switch" behavior.
func (s *Store) CreateVideo(ctx context.Context, creatorID int64, url, title string, processed bool) (int64, error) {
	const q = `
INSERT INTO videos (creator_id, url, title, processed) VALUES (?, ?, ?, ?)
ON CONFLICT (url) DO UPDATE SET
	title = excluded.title,
	processed = excluded.processed
RETURNING id;`
	var id int64
	if err := s.db.QueryRowContext(ctx, q, creatorID, url, title, processed).Scan(&id); err != nil {
		return 0, wrapDBErr(err)
	}
	return id, nil
}

// GetVideoByURL returns the video row for url, or (nil, nil) if none
// exists.
func (s *Store) GetVideoByURL(ctx context.Context, url string) (*Video, error) {
	const q = `SELECT id, creator_id, url, title, processed FROM videos WHERE url = ?;`
	v := &Video{}
	err := s.db.QueryRowContext(ctx, q, url).Scan(&v.ID, &v.CreatorID, &v.URL, &v.Title, &v.Processed)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, wrapDBErr(err)
	}
	return v, nil
}

// MarkVideoProcessed sets a video's processed flag, called by the
// archive-follower's finalize step and when a stale Video row is
// reopened for a new live session.
func (s *Store) MarkVideoProcessed(ctx context.Context, videoID int64, processed bool) error {
	const q = `UPDATE videos SET processed = ? WHERE id = ?;`
	if _, err := s.db.ExecContext(ctx, q, processed, videoID); err != nil {
		return wrapDBErr(err)
	}
	return nil
}

// StoreFingerprints inserts one row per timestamp, idempotently: a
// timestamp already present for videoID returns its existing id
// rather than erroring or duplicating. Returned ids are in the same
// order as timestamps, per spec.md §4.1.
func (s *Store) StoreFingerprints(ctx context.Context, videoID int64, timestamps []float64) ([]int64, error) {
	if len(timestamps) == 0 {
		return nil, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, wrapDBErr(err)
	}
	defer tx.Rollback() //nolint:errcheck

	const insertQ = `
INSERT INTO fingerprints (video_id, timestamp_seconds) VALUES (?, ?)
ON CONFLICT (video_id, timestamp_seconds) DO NOTHING;`
	const selectQ = `SELECT id FROM fingerprints WHERE video_id = ? AND timestamp_seconds = ?;`

	ids := make([]int64, len(timestamps))
	for i, ts := range timestamps {
		if _, err := tx.ExecContext(ctx, insertQ, videoID, ts); err != nil {
			return nil, wrapDBErr(err)
		}
		var id int64
		if err := tx.QueryRowContext(ctx, selectQ, videoID, ts).Scan(&id); err != nil {
			return nil, wrapDBErr(err)
		}
		ids[i] = id
	}

	if err := tx.Commit(); err != nil {
		return nil, wrapDBErr(err)
	}
	return ids, nil
}

// GetFingerprintRows resolves ids to their (video_id, timestamp)
// rows. Duplicate ids are deduplicated; result order is not
// guaranteed, per spec.md §4.1.
func (s *Store) GetFingerprintRows(ctx context.Context, ids []int64) ([]FingerprintRow, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	unique := make(map[int64]struct{}, len(ids))
	args := make([]any, 0, len(ids))
	placeholders := ""
	for _, id := range ids {
		if _, seen := unique[id]; seen {
			continue
		}
		unique[id] = struct{}{}
		if placeholders != "" {
			placeholders += ","
		}
		placeholders += "?"
		args = append(args, id)
	}

	q := fmt.Sprintf(`SELECT id, video_id, timestamp_seconds FROM fingerprints WHERE id IN (%s);`, placeholders)
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, wrapDBErr(err)
	}
	defer rows.Close()

	var out []FingerprintRow
	for rows.Next() {
		var r FingerprintRow
		if err := rows.Scan(&r.ID, &r.VideoID, &r.TimestampSeconds); err != nil {
			return nil, wrapDBErr(err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(err)
	}
	return out, nil
}

// GetVideoWithCreator joins a video to its creator's name, for search
// results and the sessions listing.
func (s *Store) GetVideoWithCreator(ctx context.Context, videoID int64) (*VideoWithCreator, error) {
	const q = `
SELECT v.id, v.url, v.title, c.name
FROM videos v JOIN creators c ON c.id = v.creator_id
WHERE v.id = ?;`
	vc := &VideoWithCreator{}
	err := s.db.QueryRowContext(ctx, q, videoID).Scan(&vc.VideoID, &vc.URL, &vc.Title, &vc.CreatorName)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, wrapDBErr(err)
	}
	return vc, nil
}

// GetLiveIngestState returns the cursor row for a vod platform id, or
// (nil, nil) if the archive has never been ingested.
func (s *Store) GetLiveIngestState(ctx context.Context, vodPlatformID string) (*LiveIngestState, error) {
	const q = `
SELECT vod_platform_id, video_id, streamer, last_ingested_seconds, last_seen_duration_seconds, updated_at
FROM live_ingest_state WHERE vod_platform_id = ?;`
	st := &LiveIngestState{}
	err := s.db.QueryRowContext(ctx, q, vodPlatformID).Scan(
		&st.VodPlatformID, &st.VideoID, &st.Streamer,
		&st.LastIngestedSeconds, &st.LastSeenDurationSeconds, &st.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, wrapDBErr(err)
	}
	return st, nil
}

// UpsertLiveIngestState writes the cursor row, atomic on
// vod_platform_id, called after every platform refresh and commit per
// spec.md §4.3.
func (s *Store) UpsertLiveIngestState(ctx context.Context, st LiveIngestState) error {
	const q = `
INSERT INTO live_ingest_state
	(vod_platform_id, video_id, streamer, last_ingested_seconds, last_seen_duration_seconds, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (vod_platform_id) DO UPDATE SET
	video_id = excluded.video_id,
	streamer = excluded.streamer,
	last_ingested_seconds = excluded.last_ingested_seconds,
	last_seen_duration_seconds = excluded.last_seen_duration_seconds,
	updated_at = excluded.updated_at;`
	if st.UpdatedAt.IsZero() {
		st.UpdatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, q,
		st.VodPlatformID, st.VideoID, st.Streamer,
		st.LastIngestedSeconds, st.LastSeenDurationSeconds, st.UpdatedAt)
	if err != nil {
		return wrapDBErr(err)
	}
	return nil
}

// ListLiveSessions returns a reverse-chronological (by video id) page
// of videos whose url matches the Twitch archive pattern.
func (s *Store) ListLiveSessions(ctx context.Context, limit, offset int) ([]SessionSummary, error) {
	const q = `
SELECT v.id, c.name, v.url, v.title, v.processed
FROM videos v JOIN creators c ON c.id = v.creator_id
WHERE v.url LIKE 'https://twitch.tv/%' OR v.url LIKE 'https://www.twitch.tv/%'
ORDER BY v.id DESC
LIMIT ? OFFSET ?;`
	rows, err := s.db.QueryContext(ctx, q, limit, offset)
	if err != nil {
		return nil, wrapDBErr(err)
	}
	defer rows.Close()

	var out []SessionSummary
	for rows.Next() {
		var sess SessionSummary
		if err := rows.Scan(&sess.VideoID, &sess.CreatorName, &sess.URL, &sess.Title, &sess.Processed); err != nil {
			return nil, wrapDBErr(err)
		}
		out = append(out, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(err)
	}
	return out, nil
}

// wrapDBErr classifies a raw database/sql error as apperr.Transient
// when it looks recoverable (lost connection, transaction conflict,
// DuckDB internal contention), and returns it unwrapped otherwise so
// callers can apply their own classification.
func wrapDBErr(err error) error {
	if err == nil {
		return nil
	}
	if isTransientDBError(err) {
		return apperr.Transientf("metadata store: %w", err)
	}
	return fmt.Errorf("metadata store: %w", err)
}
