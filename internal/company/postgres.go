package company

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/companydir/internal/platform/db"
)

// Schema creates the companies table. Polymorphic fields are stored as JSONB
// holding either a JSON string or an object.
const Schema = `
CREATE TABLE IF NOT EXISTS companies (
	id             TEXT PRIMARY KEY,
	name           TEXT NOT NULL,
	description    TEXT,
	logo_url       TEXT,
	website_url    TEXT,
	location       JSONB,
	industry       JSONB,
	employee_count INTEGER,
	founded_year   INTEGER,
	ceo            JSONB,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS companies_name_idx ON companies (name COLLATE "C", id);
`

const selectColumns = `id, name, description, logo_url, website_url, location, industry, employee_count, founded_year, ceo`

// PGStore persists companies in PostgreSQL.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore wraps an open pool.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// Migrate applies Schema.
func (s *PGStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return storeErr("migrate", err)
	}
	return nil
}

func (s *PGStore) FindAll(ctx context.Context, filters Filters) ([]Company, error) {
	query, args := buildListQuery(filters)
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, storeErr("find all", err)
	}
	defer rows.Close()

	var companies []Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, storeErr("find all", err)
		}
		companies = append(companies, c)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("find all", err)
	}
	return companies, nil
}

func (s *PGStore) FindByID(ctx context.Context, id string) (Company, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+selectColumns+` FROM companies WHERE id = $1`, id)
	c, err := scanCompany(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Company{}, ErrNotFound
	}
	if err != nil {
		return Company{}, storeErr("find by id", err)
	}
	return c, nil
}

func (s *PGStore) Create(ctx context.Context, c Company) (Company, error) {
	r, err := toRow(c)
	if err != nil {
		return Company{}, fmt.Errorf("company: create: %w", err)
	}
	now := time.Now()
	_, err = s.pool.Exec(ctx, `INSERT INTO companies (`+selectColumns+`, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)`,
		append(r.args(), now)...)
	if err != nil {
		return Company{}, storeErr("create", err)
	}
	return c, nil
}

func (s *PGStore) Update(ctx context.Context, id string, mutate func(Attributes) (Attributes, error)) (Company, error) {
	var updated Company
	err := db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `SELECT `+selectColumns+` FROM companies WHERE id = $1 FOR UPDATE`, id)
		current, err := scanCompany(row)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return storeErr("update", err)
		}
		next, err := mutate(current.Attributes)
		if err != nil {
			return err
		}
		updated = Company{ID: id, Attributes: next}
		r, err := toRow(updated)
		if err != nil {
			return fmt.Errorf("company: update: %w", err)
		}
		_, err = tx.Exec(ctx, `UPDATE companies SET
			name = $2, description = $3, logo_url = $4, website_url = $5, location = $6,
			industry = $7, employee_count = $8, founded_year = $9, ceo = $10, updated_at = $11
			WHERE id = $1`, append(r.args(), time.Now())...)
		if err != nil {
			return storeErr("update", err)
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrValidation) && !errors.Is(err, ErrPersistence) {
			err = storeErr("update", err)
		}
		return Company{}, err
	}
	return updated, nil
}

func (s *PGStore) Delete(ctx context.Context, id string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM companies WHERE id = $1`, id); err != nil {
		return storeErr("delete", err)
	}
	return nil
}

func (s *PGStore) ReplaceAll(ctx context.Context, companies []Company) (int, error) {
	err := db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM companies`); err != nil {
			return storeErr("reseed", err)
		}
		batch := &pgx.Batch{}
		now := time.Now()
		for _, c := range companies {
			r, err := toRow(c)
			if err != nil {
				return fmt.Errorf("company: reseed %s: %w", c.ID, err)
			}
			batch.Queue(`INSERT INTO companies (`+selectColumns+`, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)`, append(r.args(), now)...)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return storeErr("reseed", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(companies), nil
}

// buildListQuery ANDs the search clause (name OR description) with the
// industry clause (plain string OR structured primary).
func buildListQuery(filters Filters) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	if search := strings.TrimSpace(filters.Search); search != "" {
		args = append(args, "%"+escapeLike(search)+"%")
		n := "$" + strconv.Itoa(len(args))
		clauses = append(clauses, `(name ILIKE `+n+` OR description ILIKE `+n+`)`)
	}
	if industry := strings.TrimSpace(filters.Industry); industry != "" {
		args = append(args, industry)
		n := "$" + strconv.Itoa(len(args))
		clauses = append(clauses, `((jsonb_typeof(industry) = 'string' AND industry #>> '{}' = `+n+`)`+
			` OR (jsonb_typeof(industry) = 'object' AND industry ->> 'primary' = `+n+`))`)
	}
	query := `SELECT ` + selectColumns + ` FROM companies`
	if len(clauses) > 0 {
		query += ` WHERE ` + strings.Join(clauses, ` AND `)
	}
	query += ` ORDER BY name COLLATE "C" ASC, id ASC`
	return query, args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// row is the storage-level shape of a company.
type row struct {
	ID            string
	Name          string
	Description   *string
	LogoURL       *string
	WebsiteURL    *string
	Location      []byte
	Industry      []byte
	EmployeeCount *int32
	FoundedYear   *int32
	CEO           []byte
}

func (r row) args() []any {
	return []any{r.ID, r.Name, r.Description, r.LogoURL, r.WebsiteURL, r.Location, r.Industry, r.EmployeeCount, r.FoundedYear, r.CEO}
}

func toRow(c Company) (row, error) {
	r := row{
		ID:            c.ID,
		Name:          c.Name,
		Description:   nullableText(c.Description),
		LogoURL:       nullableText(c.LogoURL),
		WebsiteURL:    nullableText(c.Website),
	}
	var err error
	if r.EmployeeCount, err = nullableInt("employee_count", c.EmployeeCount); err != nil {
		return row{}, err
	}
	if r.FoundedYear, err = nullableInt("founded", c.Founded); err != nil {
		return row{}, err
	}
	if r.Location, err = jsonbValue(c.Location.IsZero(), c.Location); err != nil {
		return row{}, err
	}
	if r.Industry, err = jsonbValue(c.Industry.IsZero(), c.Industry); err != nil {
		return row{}, err
	}
	if r.CEO, err = jsonbValue(c.CEO.IsZero(), c.CEO); err != nil {
		return row{}, err
	}
	return r, nil
}

func scanCompany(scanner pgx.Row) (Company, error) {
	var r row
	if err := scanner.Scan(&r.ID, &r.Name, &r.Description, &r.LogoURL, &r.WebsiteURL,
		&r.Location, &r.Industry, &r.EmployeeCount, &r.FoundedYear, &r.CEO); err != nil {
		return Company{}, err
	}
	c := Company{ID: r.ID}
	c.Name = r.Name
	c.Description = derefText(r.Description)
	c.LogoURL = derefText(r.LogoURL)
	c.Website = derefText(r.WebsiteURL)
	c.EmployeeCount = derefInt(r.EmployeeCount)
	c.Founded = derefInt(r.FoundedYear)
	if err := unmarshalJSONB(r.Location, &c.Location); err != nil {
		return Company{}, fmt.Errorf("location: %w", err)
	}
	if err := unmarshalJSONB(r.Industry, &c.Industry); err != nil {
		return Company{}, fmt.Errorf("industry: %w", err)
	}
	if err := unmarshalJSONB(r.CEO, &c.CEO); err != nil {
		return Company{}, fmt.Errorf("ceo: %w", err)
	}
	return c, nil
}

func jsonbValue(absent bool, v json.Marshaler) ([]byte, error) {
	if absent {
		return nil, nil
	}
	return v.MarshalJSON()
}

func unmarshalJSONB(raw []byte, dest json.Unmarshaler) error {
	if len(raw) == 0 {
		return nil
	}
	return dest.UnmarshalJSON(raw)
}

func nullableText(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefText(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nullableInt(field string, v *int) (*int32, error) {
	if v == nil {
		return nil, nil
	}
	if *v < math.MinInt32 || *v > math.MaxInt32 {
		verr := &ValidationError{}
		verr.Add(field, fmt.Sprintf("Must be %d or less", math.MaxInt32))
		return nil, verr
	}
	n := int32(*v)
	return &n, nil
}

func derefInt(v *int32) *int {
	if v == nil {
		return nil
	}
	n := int(*v)
	return &n
}

// storeErr wraps a driver error as a persistence failure.
func storeErr(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Errorf("company: %s: %w", op, errors.Join(ErrPersistence, fmt.Errorf("%s (%s)", pgErr.Message, pgErr.Code)))
	}
	return fmt.Errorf("company: %s: %w", op, errors.Join(ErrPersistence, err))
}
