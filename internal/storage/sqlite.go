package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/tsunagu/internal/catalog"
	"github.com/hyperjump/tsunagu/internal/models"
	"github.com/hyperjump/tsunagu/internal/reference"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS chapters (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		tradition TEXT NOT NULL,
		book TEXT NOT NULL DEFAULT '',
		number INTEGER NOT NULL,
		name TEXT NOT NULL,
		title TEXT,
		period TEXT,
		verse_count INTEGER NOT NULL,
		themes TEXT,
		summary TEXT,
		key_verses TEXT,
		UNIQUE (tradition, book, number)
	);

	CREATE TABLE IF NOT EXISTS verses (
		chapter_id INTEGER NOT NULL,
		number INTEGER NOT NULL,
		original_text TEXT,
		translation TEXT,
		transliteration TEXT,
		commentary TEXT,
		PRIMARY KEY (chapter_id, number),
		FOREIGN KEY (chapter_id) REFERENCES chapters(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS connections (
		position INTEGER PRIMARY KEY,
		id TEXT NOT NULL UNIQUE,
		payload TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS interlinks (
		position INTEGER PRIMARY KEY,
		reference TEXT NOT NULL UNIQUE,
		payload TEXT NOT NULL
	);
	`
	_, err := db.Exec(schema)
	return err
}

// SaveCatalog replaces the stored snapshot in a single transaction.
func (s *SQLiteStorage) SaveCatalog(ctx context.Context, data catalog.Data) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"verses", "chapters", "connections", "interlinks"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	chapterStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO chapters (tradition, book, number, name, title, period, verse_count, themes, summary, key_verses)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer chapterStmt.Close()

	verseStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO verses (chapter_id, number, original_text, translation, transliteration, commentary)
		 VALUES (?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer verseStmt.Close()

	for _, ch := range data.Chapters {
		themes, err := json.Marshal(ch.Themes)
		if err != nil {
			return fmt.Errorf("failed to marshal themes: %w", err)
		}
		keyVerses, err := json.Marshal(ch.KeyVerses)
		if err != nil {
			return fmt.Errorf("failed to marshal key verses: %w", err)
		}
		res, err := chapterStmt.ExecContext(ctx,
			string(ch.Tradition), ch.Book, ch.Number, ch.Name, ch.Title, ch.Period,
			ch.VerseCount, string(themes), ch.Summary, string(keyVerses),
		)
		if err != nil {
			return fmt.Errorf("failed to insert chapter %s: %w", ch.Reference(), err)
		}
		chapterID, err := res.LastInsertId()
		if err != nil {
			return err
		}
		for _, v := range ch.Verses {
			if _, err := verseStmt.ExecContext(ctx,
				chapterID, v.Number, v.OriginalText, v.Translation, v.Transliteration, v.Commentary,
			); err != nil {
				return fmt.Errorf("failed to insert verse %s:%d: %w", ch.Reference(), v.Number, err)
			}
		}
	}

	for i, conn := range data.Connections {
		payload, err := json.Marshal(conn)
		if err != nil {
			return fmt.Errorf("failed to marshal connection %q: %w", conn.ID, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO connections (position, id, payload) VALUES (?, ?, ?)`,
			i, conn.ID, string(payload),
		); err != nil {
			return fmt.Errorf("failed to insert connection %q: %w", conn.ID, err)
		}
	}

	for i, il := range data.Interlinks {
		payload, err := json.Marshal(il)
		if err != nil {
			return fmt.Errorf("failed to marshal interlinks %q: %w", il.Reference, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO interlinks (position, reference, payload) VALUES (?, ?, ?)`,
			i, il.Reference, string(payload),
		); err != nil {
			return fmt.Errorf("failed to insert interlinks %q: %w", il.Reference, err)
		}
	}

	return tx.Commit()
}

// LoadCatalog reads the snapshot back in insertion order.
func (s *SQLiteStorage) LoadCatalog(ctx context.Context) (catalog.Data, error) {
	var data catalog.Data

	chapters, ids, err := s.loadChapters(ctx)
	if err != nil {
		return data, err
	}
	if err := s.loadVerses(ctx, chapters, ids); err != nil {
		return data, err
	}
	data.Chapters = chapters

	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM connections ORDER BY position`)
	if err != nil {
		return data, err
	}
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			rows.Close()
			return data, err
		}
		var conn models.Connection
		if err := json.Unmarshal([]byte(payload), &conn); err != nil {
			rows.Close()
			return data, fmt.Errorf("failed to unmarshal connection: %w", err)
		}
		data.Connections = append(data.Connections, conn)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return data, err
	}

	rows, err = s.db.QueryContext(ctx, `SELECT payload FROM interlinks ORDER BY position`)
	if err != nil {
		return data, err
	}
	defer rows.Close()
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return data, err
		}
		var il models.VerseInterlinks
		if err := json.Unmarshal([]byte(payload), &il); err != nil {
			return data, fmt.Errorf("failed to unmarshal interlinks: %w", err)
		}
		data.Interlinks = append(data.Interlinks, il)
	}
	return data, rows.Err()
}

func (s *SQLiteStorage) loadChapters(ctx context.Context) ([]models.Chapter, map[int64]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, tradition, book, number, name, title, period, verse_count, themes, summary, key_verses
		 FROM chapters ORDER BY id`,
	)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var chapters []models.Chapter
	ids := make(map[int64]int)
	for rows.Next() {
		var (
			id                        int64
			ch                        models.Chapter
			tradition                 string
			title, period, summary    sql.NullString
			themesJSON, keyVersesJSON sql.NullString
		)
		if err := rows.Scan(&id, &tradition, &ch.Book, &ch.Number, &ch.Name, &title, &period,
			&ch.VerseCount, &themesJSON, &summary, &keyVersesJSON); err != nil {
			return nil, nil, err
		}
		ch.Tradition = reference.Tradition(tradition)
		ch.Title, ch.Period, ch.Summary = title.String, period.String, summary.String
		if themesJSON.Valid && themesJSON.String != "" {
			if err := json.Unmarshal([]byte(themesJSON.String), &ch.Themes); err != nil {
				return nil, nil, fmt.Errorf("failed to unmarshal themes: %w", err)
			}
		}
		if keyVersesJSON.Valid && keyVersesJSON.String != "" {
			if err := json.Unmarshal([]byte(keyVersesJSON.String), &ch.KeyVerses); err != nil {
				return nil, nil, fmt.Errorf("failed to unmarshal key verses: %w", err)
			}
		}
		ids[id] = len(chapters)
		chapters = append(chapters, ch)
	}
	return chapters, ids, rows.Err()
}

func (s *SQLiteStorage) loadVerses(ctx context.Context, chapters []models.Chapter, ids map[int64]int) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT chapter_id, number, original_text, translation, transliteration, commentary
		 FROM verses ORDER BY chapter_id, number`,
	)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			chapterID                                          int64
			v                                                  models.Verse
			original, translation, transliteration, commentary sql.NullString
		)
		if err := rows.Scan(&chapterID, &v.Number, &original, &translation, &transliteration, &commentary); err != nil {
			return err
		}
		idx, ok := ids[chapterID]
		if !ok {
			continue
		}
		v.OriginalText, v.Translation = original.String, translation.String
		v.Transliteration, v.Commentary = transliteration.String, commentary.String
		chapters[idx].Verses = append(chapters[idx].Verses, v)
	}
	return rows.Err()
}

// CountChapters returns the number of stored chapters.
func (s *SQLiteStorage) CountChapters(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chapters`).Scan(&count)
	return count, err
}

// CountVerses returns the number of stored verses.
func (s *SQLiteStorage) CountVerses(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM verses`).Scan(&count)
	return count, err
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
