// Copyright (c) 2025 Hotel Task Manager Team
// htm-installer - Hotel Task Manager environment installer
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"database/sql"
	"net"
	"regexp"

	"github.com/go-playground/validator/v10"
	"github.com/go-sql-driver/mysql"
	"github.com/hoteltaskmanager/htm-installer/internal/logging"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
)

// DefaultPort is appended to hosts given without an explicit port.
const DefaultPort = "3306"

// RootUser is the account used to create the application database.
const RootUser = "root"

// Credentials identify a database session.
type Credentials struct {
	Host string `validate:"required"`
	Name string `validate:"required"`
	User string `validate:"required"`
	Pass string
}

var identRe = regexp.MustCompile(`^[A-Za-z0-9_$]{1,64}$`)

// ValidIdentifier reports whether name can be placed between backticks
// without escaping.
func ValidIdentifier(name string) bool {
	return identRe.MatchString(name)
}

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("dbident", func(fl validator.FieldLevel) bool {
		return ValidIdentifier(fl.Field().String())
	})
	return v
}

// Provisioner talks to a MySQL-compatible server.
type Provisioner struct {
	driver   string
	validate *validator.Validate
}

// NewProvisioner returns a Provisioner using the go-sql-driver/mysql driver.
func NewProvisioner() *Provisioner {
	return newProvisioner("mysql")
}

func newProvisioner(driver string) *Provisioner {
	return &Provisioner{driver: driver, validate: newValidator()}
}

// Addr returns host with DefaultPort appended when it carries no port.
func Addr(host string) string {
	if _, _, err := net.SplitHostPort(host); err == nil {
		return host
	}
	return net.JoinHostPort(host, DefaultPort)
}

// DSN builds the driver data source name for the given session parameters.
// dbName may be empty to connect without selecting a database.
func DSN(host, user, pass, dbName string) string {
	cfg := mysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = Addr(host)
	cfg.User = user
	cfg.Passwd = pass
	cfg.DBName = dbName
	return cfg.FormatDSN()
}

func (p *Provisioner) open(ctx context.Context, dsn string) (*sql.DB, error) {
	sqldb, err := sql.Open(p.driver, dsn)
	if err != nil {
		return nil, &Error{Kind: KindConnect, Err: err}
	}
	if err := sqldb.PingContext(ctx); err != nil {
		_ = sqldb.Close()
		return nil, &Error{Kind: KindConnect, Err: err}
	}
	return sqldb, nil
}

// TestConnection opens a pool for c, obtains one session and releases it.
// Success means the credentials and network path are valid.
func (p *Provisioner) TestConnection(ctx context.Context, c Credentials) error {
	if err := p.validate.Struct(c); err != nil {
		return &Error{Kind: KindValidation, Err: err}
	}

	sqldb, err := p.open(ctx, DSN(c.Host, c.User, c.Pass, c.Name))
	if err != nil {
		return err
	}
	defer func() { _ = sqldb.Close() }()

	conn, err := sqldb.Conn(ctx)
	if err != nil {
		return &Error{Kind: KindConnect, Err: err}
	}
	if err := conn.Close(); err != nil {
		return &Error{Kind: KindConnect, Err: err}
	}
	logging.Debugf("connection to %s/%s as %s ok", Addr(c.Host), c.Name, c.User)
	return nil
}

// CreateDatabase connects to host as root (no database selected) and runs
// CREATE DATABASE IF NOT EXISTS for dbName. dbName must be a plain ASCII
// identifier; it is rejected before any connection otherwise.
func (p *Provisioner) CreateDatabase(ctx context.Context, host, rootPass, dbName string) error {
	if err := p.validate.Var(dbName, "required,dbident"); err != nil {
		return &Error{Kind: KindValidation, Err: err}
	}

	sqldb, err := p.open(ctx, DSN(host, RootUser, rootPass, ""))
	if err != nil {
		return err
	}
	bdb := bun.NewDB(sqldb, mysqldialect.New())
	defer func() { _ = bdb.Close() }()

	if _, err := bdb.ExecContext(ctx, "CREATE DATABASE IF NOT EXISTS ?", bun.Ident(dbName)); err != nil {
		return classify(err)
	}
	logging.Infof("database %s ensured on %s", dbName, Addr(host))
	return nil
}
