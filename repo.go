package pricedash

import (
	"context"
	"fmt"
	"strconv"

	pgx "github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

// distinctProductsQuery is the only read the dashboard performs.
const distinctProductsQuery = "SELECT DISTINCT title, price FROM products ORDER BY price DESC"

type Repository struct {
	conn *pgx.Conn
}

// NewRepository opens a single connection. Any failure to reach or
// authenticate against the server is reported as a *ConnectionError.
func NewRepository(ctx context.Context, connStr string) (*Repository, error) {
	cfg, err := pgx.ParseConfig(connStr)
	if err != nil {
		return nil, &ConnectionError{Err: err}
	}
	conn, err := pgx.ConnectConfig(ctx, cfg)
	if err != nil {
		log.Warn().Err(err).Str("host", cfg.Host).Uint16("port", cfg.Port).Msg("unable to connect to database")
		return nil, &ConnectionError{Host: cfg.Host, Port: strconv.Itoa(int(cfg.Port)), Err: err}
	}
	return &Repository{conn: conn}, nil
}

func (r *Repository) Close(ctx context.Context) error {
	return r.conn.Close(ctx)
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.conn.Ping(ctx)
}

// GetDistinctProducts returns every distinct (title, price) pair, most
// expensive first.
func (r *Repository) GetDistinctProducts(ctx context.Context) (ProductTable, error) {
	rows, err := r.conn.Query(ctx, distinctProductsQuery)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products := ProductTable{}
	for rows.Next() {
		var p ProductRow
		if err := rows.Scan(&p.Title, &p.Price); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read products: %w", err)
	}
	return products, nil
}

// CreateProducts copies t into the products table inside one transaction and
// returns the number of rows written.
func (r *Repository) CreateProducts(ctx context.Context, t ProductTable) (int, error) {
	tx, err := r.conn.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows := make([][]any, len(t))
	for i, p := range t {
		rows[i] = []any{p.Title, p.Price}
	}
	n, err := tx.CopyFrom(ctx, pgx.Identifier{"products"}, []string{"title", "price"}, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, fmt.Errorf("copy products: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return int(n), nil
}

// Source reads the product table with a fresh connection per call. The
// connection never outlives a single Products or Ping call.
type Source struct {
	connStr string
}

func NewSource(cfg *Config) *Source {
	return &Source{connStr: cfg.Database.ConnString()}
}

func (s *Source) Products(ctx context.Context) (ProductTable, error) {
	repo, err := NewRepository(ctx, s.connStr)
	if err != nil {
		return nil, err
	}
	defer func() { _ = repo.Close(ctx) }()
	return repo.GetDistinctProducts(ctx)
}

func (s *Source) Ping(ctx context.Context) error {
	repo, err := NewRepository(ctx, s.connStr)
	if err != nil {
		return err
	}
	defer func() { _ = repo.Close(ctx) }()
	return repo.Ping(ctx)
}

// Import writes t to the database and returns the number of rows written.
func (s *Source) Import(ctx context.Context, t ProductTable) (int, error) {
	repo, err := NewRepository(ctx, s.connStr)
	if err != nil {
		return 0, err
	}
	defer func() { _ = repo.Close(ctx) }()
	return repo.CreateProducts(ctx, t)
}
