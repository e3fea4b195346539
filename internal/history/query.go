package history

import (
	"time"
)

// Stats summarizes recorded activity over a time range
type Stats struct {
	StartDate      time.Time      `json:"start_date"`
	EndDate        time.Time      `json:"end_date"`
	TotalRemoved   int64          `json:"total_removed"`
	TotalSkipped   int64          `json:"total_skipped"`
	TotalFailed    int64          `json:"total_failed"`
	TotalArchives  int64          `json:"total_archives"`
	BytesReclaimed int64          `json:"bytes_reclaimed"`
	ByAction       map[string]int `json:"by_action"`
}

const recordColumns = `
	SELECT id, timestamp, op, action, path, file_name, object_type, size, error_message
	FROM operations
	`

// Recent returns the N most recent events
func (d *DB) Recent(limit int) ([]Record, error) {
	query := recordColumns + `
	ORDER BY timestamp DESC
	LIMIT ?
	`

	return d.queryRecords(query, limit)
}

// ByAction returns events filtered by action type
func (d *DB) ByAction(action string) ([]Record, error) {
	query := recordColumns + `
	WHERE action = ?
	ORDER BY timestamp DESC
	`

	return d.queryRecords(query, action)
}

// ByPath returns events matching a path pattern (SQL LIKE syntax)
func (d *DB) ByPath(pathPattern string) ([]Record, error) {
	query := recordColumns + `
	WHERE path LIKE ?
	ORDER BY timestamp DESC
	`

	return d.queryRecords(query, pathPattern)
}

// Largest returns the N largest removed entries by size
func (d *DB) Largest(limit int) ([]Record, error) {
	query := recordColumns + `
	WHERE action = 'REMOVED'
	ORDER BY size DESC
	LIMIT ?
	`

	return d.queryRecords(query, limit)
}

// GetStats aggregates activity over the last N days
func (d *DB) GetStats(days int) (*Stats, error) {
	end := time.Now()
	start := end.AddDate(0, 0, -days)

	stats := &Stats{
		StartDate: start,
		EndDate:   end,
		ByAction:  make(map[string]int),
	}

	rows, err := d.db.Query(`
	SELECT action, COUNT(*), COALESCE(SUM(size), 0)
	FROM operations
	WHERE timestamp BETWEEN ? AND ?
	GROUP BY action
	`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var action string
		var count int
		var size int64
		if err := rows.Scan(&action, &count, &size); err != nil {
			return nil, err
		}
		stats.ByAction[action] = count
		switch action {
		case "REMOVED":
			stats.TotalRemoved = int64(count)
			stats.BytesReclaimed = size
		case "SKIPPED":
			stats.TotalSkipped = int64(count)
		case "FAILED":
			stats.TotalFailed = int64(count)
		case "CREATED":
			stats.TotalArchives = int64(count)
		}
	}
	return stats, rows.Err()
}

func (d *DB) queryRecords(query string, args ...interface{}) ([]Record, error) {
	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(
			&r.ID,
			&r.Timestamp,
			&r.Op,
			&r.Action,
			&r.Path,
			&r.FileName,
			&r.ObjectType,
			&r.Size,
			&r.ErrorMessage,
		); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
