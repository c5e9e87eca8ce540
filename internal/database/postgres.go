package database

import (
	"context"
	"database/sql"
	"fmt"

	"rental-manager/internal/config"
	"rental-manager/internal/models"

	_ "github.com/lib/pq"
)

// DB is a raw lib/pq connection used for reporting reads that bypass the ORM
type DB struct {
	conn *sql.DB
}

// PostgresDSN builds a lib/pq keyword/value connection string
func PostgresDSN(c config.PostgresConfig) string {
	sslmode := c.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		c.Host, c.Port, c.User, c.Password, c.Database, sslmode)
}

func NewDB(cfg config.PostgresConfig) (*DB, error) {
	conn, err := sql.Open("postgres", PostgresDSN(cfg))
	if err != nil {
		return nil, err
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, err
	}

	return &DB{conn: conn}, nil
}

// NewDBFromConn wraps an already opened connection
func NewDBFromConn(conn *sql.DB) *DB {
	return &DB{conn: conn}
}

func (db *DB) Close() error {
	return db.conn.Close()
}

// pendingCandidatesQuery aggregates the data for the pending increase projection in one round trip
const pendingCandidatesQuery = `
	SELECT rs.id, rs.property_id, p.name, rs.tenant_id,
		   t.first_name, t.last_name,
		   rs.amount, rs.start_date, t.lease_start,
		   rs.increase_type, rs.increase_percentage, rs.increase_date_type,
		   rs.next_increase_date, rs.last_increase_date
	FROM rent_schedules rs
	JOIN properties p ON p.id = rs.property_id AND p.user_id = rs.user_id
	LEFT JOIN tenants t ON t.id = rs.tenant_id AND t.user_id = rs.user_id
	WHERE rs.user_id = $1
	  AND rs.is_active = TRUE
	  AND rs.end_date IS NULL
	  AND rs.increase_enabled = TRUE
	ORDER BY p.name ASC
`

// ListIncreaseCandidates is the reporting-connection twin of GormDB.ListIncreaseCandidates
func (db *DB) ListIncreaseCandidates(ctx context.Context, userID string) ([]models.IncreaseCandidate, error) {
	rows, err := db.conn.QueryContext(ctx, pendingCandidatesQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query increase candidates: %w", err)
	}
	defer rows.Close()

	var candidates []models.IncreaseCandidate
	for rows.Next() {
		var c models.IncreaseCandidate
		var increaseType, dateType sql.NullString
		err := rows.Scan(
			&c.ScheduleID, &c.PropertyID, &c.PropertyName, &c.TenantID,
			&c.TenantFirstName, &c.TenantLastName,
			&c.Amount, &c.StartDate, &c.LeaseStart,
			&increaseType, &c.IncreasePercentage, &dateType,
			&c.NextIncreaseDate, &c.LastIncreaseDate,
		)
		if err != nil {
			return nil, err
		}
		c.IncreaseType = models.IncreaseType(increaseType.String)
		c.IncreaseDateType = models.IncreaseDateType(dateType.String)
		candidates = append(candidates, c)
	}

	return candidates, rows.Err()
}
