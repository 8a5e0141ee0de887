package contacts

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// Contact is one name→address row in the contacts table.
type Contact struct {
	bun.BaseModel `bun:"table:contacts,alias:c"`

	ID    int64  `bun:"id,pk,autoincrement"`
	Name  string `bun:"name,notnull"`
	Email string `bun:"email,notnull"`
}

type Config struct {
	DSN     string        `envconfig:"DSN" split_words:"true"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"5s"`
}

// Directory resolves recipient names through Postgres. It is a read-only
// collaborator: every failure degrades to "no data available" with a warn
// log rather than a hard error, so a contacts outage never fails a turn.
type Directory struct {
	db      *bun.DB
	timeout time.Duration
}

func NewDirectory(cfg Config) (*Directory, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("contacts dsn is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())

	return &Directory{
		db:      db,
		timeout: timeout,
	}, nil
}

func (d *Directory) LookupEmail(ctx context.Context, name string) (string, bool) {
	needle := normalizeName(name)
	if needle == "" {
		return "", false
	}

	lookupCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	var contact Contact
	err := d.db.NewSelect().
		Model(&contact).
		Where("lower(c.name) = ?", needle).
		Limit(1).
		Scan(lookupCtx)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			log.Warn().Err(err).Str("name", name).Msg("contact lookup degraded to no data")
		}
		return "", false
	}

	email := strings.TrimSpace(contact.Email)
	if email == "" {
		return "", false
	}
	return email, true
}

func (d *Directory) Close() error {
	return d.db.Close()
}

// NoDirectory is the fallback when no contacts database is configured:
// every lookup misses, which pushes the planner toward a clarify.
type NoDirectory struct{}

func (NoDirectory) LookupEmail(context.Context, string) (string, bool) {
	return "", false
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
