package notify

import (
	"fmt"
	"time"

	"github.com/ftc2/interview-notify/internal"
	"github.com/ftc2/interview-notify/internal/database"
)

type HistoryRepository interface {
	CreateTables() error
	InsertNotification(n internal.Notification) error
	CountNotifications(rule string) (int64, error)
	RecentNotifications(limit int) ([]internal.Notification, error)
	CleanupOldEntries(thresholdDays int) (int64, error)
	Close() error
}

type SQLiteHistoryRepository struct {
	db *database.DBManager
}

func NewSQLiteHistoryRepository(dbFile string) (HistoryRepository, error) {
	dbManager, err := database.NewDBManager(dbFile)
	if err != nil {
		return nil, err
	}
	return &SQLiteHistoryRepository{
		db: dbManager,
	}, nil
}

func (r *SQLiteHistoryRepository) CreateTables() error {
	query := `CREATE TABLE IF NOT EXISTS notifications (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        rule TEXT NOT NULL,
        title TEXT NOT NULL,
        message TEXT NOT NULL,
        tags TEXT,
        priority INTEGER NOT NULL,
        fired_at TIMESTAMP NOT NULL,
        created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
    )`
	_, err := r.db.ExecuteWrite(query)
	if err != nil {
		return fmt.Errorf("could not create db table notifications: %v", err)
	}
	return nil
}

func (r *SQLiteHistoryRepository) InsertNotification(n internal.Notification) error {
	query := `
        INSERT INTO notifications
        (rule, title, message, tags, priority, fired_at)
        VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.ExecuteWrite(query,
		n.Rule,
		n.Title,
		n.Message,
		n.Tags,
		n.Priority,
		n.Time,
	)
	return err
}

func (r *SQLiteHistoryRepository) CountNotifications(rule string) (int64, error) {
	query := `SELECT COUNT(*) FROM notifications WHERE rule = $1`
	row := r.db.QueryRow(query, rule)

	var count int64
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// RecentNotifications lists the newest fired notifications, most recent
// first.
func (r *SQLiteHistoryRepository) RecentNotifications(limit int) ([]internal.Notification, error) {
	query := `SELECT rule, title, message, tags, priority, fired_at
              FROM notifications
              ORDER BY fired_at DESC
              LIMIT $1`

	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []internal.Notification
	for rows.Next() {
		var n internal.Notification
		if err := rows.Scan(&n.Rule, &n.Title, &n.Message, &n.Tags, &n.Priority, &n.Time); err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (r *SQLiteHistoryRepository) CleanupOldEntries(thresholdDays int) (int64, error) {
	cutoffDate := time.Now().AddDate(0, 0, -thresholdDays).Format("2006-01-02 15:04:05")
	query := "DELETE FROM notifications WHERE created_at < datetime($1)"

	res, err := r.db.ExecuteWrite(query, cutoffDate)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *SQLiteHistoryRepository) Close() error {
	return r.db.Close()
}
