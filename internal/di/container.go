// Package di wires databases, repositories and services together.
// Dependencies flow one way: databases -> repositories -> services.
// Nothing reaches for ambient globals; everything is injected here once
// at startup, which is also what makes test doubles possible.
package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/fundfolio/fundfolio/internal/config"
	"github.com/fundfolio/fundfolio/internal/database"
	"github.com/fundfolio/fundfolio/internal/modules/auth"
	"github.com/fundfolio/fundfolio/internal/modules/payments"
	"github.com/fundfolio/fundfolio/internal/modules/portfolio"
	"github.com/fundfolio/fundfolio/internal/modules/pricing"
	"github.com/fundfolio/fundfolio/internal/modules/trading"
)

// Container holds all wired dependencies
type Container struct {
	// Databases
	UsersDB  *database.DB
	LedgerDB *database.DB

	// Repositories
	UserRepo     *auth.UserRepository
	OrderRepo    *trading.OrderRepository
	PositionRepo *portfolio.PositionRepository

	// Services
	Oracle           pricing.Oracle
	AuthService      *auth.Service
	Engine           *trading.Engine
	PortfolioService *portfolio.PortfolioService
	PaymentsService  *payments.Service

	log zerolog.Logger
}

// New builds the container: opens and migrates databases, then wires
// repositories and services
func New(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	c := &Container{log: log}

	// Databases
	usersDB, err := database.New(database.Config{
		Path:    cfg.UsersDBPath(),
		Profile: database.ProfileStandard,
		Name:    "users",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open users database: %w", err)
	}
	c.UsersDB = usersDB

	ledgerDB, err := database.New(database.Config{
		Path:    cfg.LedgerDBPath(),
		Profile: database.ProfileLedger,
		Name:    "ledger",
	})
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to open ledger database: %w", err)
	}
	c.LedgerDB = ledgerDB

	for _, db := range []*database.DB{usersDB, ledgerDB} {
		if err := db.Migrate(); err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to migrate %s database: %w", db.Name(), err)
		}
	}

	// Repositories
	c.UserRepo = auth.NewUserRepository(usersDB.Conn(), log)
	c.OrderRepo = trading.NewOrderRepository(ledgerDB.Conn(), log)
	c.PositionRepo = portfolio.NewPositionRepository(ledgerDB.Conn(), log)

	// Price oracle: fixed NAV by default, HTTP NAV service when configured.
	// The fixed oracle doubles as the fallback for the HTTP one.
	fixed, err := pricing.NewFixedOracle(cfg.MockNAV, log)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to create price oracle: %w", err)
	}
	if cfg.NAVAPIURL != "" {
		c.Oracle = pricing.NewAPIClient(cfg.NAVAPIURL, fixed, log)
	} else {
		c.Oracle = fixed
	}

	// Services
	c.AuthService = auth.NewService(c.UserRepo, cfg.JWTSecret, cfg.BcryptCost, log)
	c.Engine = trading.NewEngine(ledgerDB, c.OrderRepo, c.PositionRepo, c.Oracle, log)
	c.PortfolioService = portfolio.NewPortfolioService(c.PositionRepo, c.Oracle, log)
	c.PaymentsService = payments.NewService(cfg.RazorpayKeyID, cfg.RazorpayKeySecret, log)

	return c, nil
}

// Close closes all databases. Safe to call on a partially built container.
func (c *Container) Close() {
	for _, db := range []*database.DB{c.UsersDB, c.LedgerDB} {
		if db == nil {
			continue
		}
		if err := db.Close(); err != nil {
			c.log.Error().Err(err).Str("db", db.Name()).Msg("Failed to close database")
		}
	}
}
