// internal/store/postgres.go
package store

import (
	"context"
	"database/sql"

	"zomato-recommender/internal/common/errors"
	"zomato-recommender/internal/models"
)

const createRestaurantsTable = `
CREATE TABLE IF NOT EXISTS restaurants (
	id SERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	location TEXT,
	cuisines TEXT,
	price_range INTEGER,
	rating DOUBLE PRECISION
)`

const selectRestaurants = `
SELECT id, name, location, cuisines, price_range, rating
FROM restaurants
ORDER BY id`

const selectLocations = `
SELECT DISTINCT TRIM(location)
FROM restaurants
WHERE location IS NOT NULL AND TRIM(location) <> ''`

const selectCuisines = `
SELECT cuisines
FROM restaurants
WHERE cuisines IS NOT NULL AND TRIM(cuisines) <> ''`

const insertRestaurant = `
INSERT INTO restaurants (name, location, cuisines, price_range, rating)
VALUES ($1, $2, $3, $4, $5)
RETURNING id`

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the restaurants table when it does not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createRestaurantsTable); err != nil {
		return errors.NewQueryExecutionFailedError("create_restaurants", err)
	}
	return nil
}

func (s *PostgresStore) FetchAll(ctx context.Context) ([]models.Restaurant, error) {
	rows, err := s.db.QueryContext(ctx, selectRestaurants)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("fetch_all_restaurants", err)
	}
	defer rows.Close()

	out := make([]models.Restaurant, 0)
	for rows.Next() {
		var (
			r        models.Restaurant
			location sql.NullString
			cuisines sql.NullString
			price    sql.NullInt64
			rating   sql.NullFloat64
		)
		if err := rows.Scan(&r.ID, &r.Name, &location, &cuisines, &price, &rating); err != nil {
			return nil, errors.NewQueryExecutionFailedError("fetch_all_restaurants", err)
		}
		if location.Valid {
			r.Location = models.StringPtr(location.String)
		}
		if cuisines.Valid {
			r.Cuisines = models.StringPtr(cuisines.String)
		}
		if price.Valid {
			r.PriceRange = models.IntPtr(int(price.Int64))
		}
		if rating.Valid {
			r.Rating = models.Float64Ptr(rating.Float64)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError("fetch_all_restaurants", err)
	}
	return out, nil
}

func (s *PostgresStore) FetchLocations(ctx context.Context) ([]string, error) {
	values, err := s.queryStrings(ctx, "fetch_locations", selectLocations)
	if err != nil {
		return nil, err
	}
	return DistinctLocations(values), nil
}

func (s *PostgresStore) FetchCuisines(ctx context.Context) ([]string, error) {
	values, err := s.queryStrings(ctx, "fetch_cuisines", selectCuisines)
	if err != nil {
		return nil, err
	}
	return DistinctCuisines(values), nil
}

func (s *PostgresStore) queryStrings(ctx context.Context, name, query string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError(name, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, errors.NewQueryExecutionFailedError(name, err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError(name, err)
	}
	return out, nil
}

// InsertRestaurants writes rows in one transaction and returns them with the
// ids assigned by the database.
func (s *PostgresStore) InsertRestaurants(ctx context.Context, rows []models.Restaurant) ([]models.Restaurant, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.NewDatabaseConnectionFailedError(err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, insertRestaurant)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("insert_restaurants", err)
	}
	defer stmt.Close()

	out := make([]models.Restaurant, 0, len(rows))
	for _, r := range rows {
		var id int64
		err := stmt.QueryRowContext(ctx, r.Name, nullString(r.Location), nullString(r.Cuisines), nullInt(r.PriceRange), nullFloat(r.Rating)).Scan(&id)
		if err != nil {
			return nil, errors.NewQueryExecutionFailedError("insert_restaurants", err)
		}
		r.ID = id
		out = append(out, r)
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.NewQueryExecutionFailedError("insert_restaurants", err)
	}
	return out, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullInt(i *int) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*i), Valid: true}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
