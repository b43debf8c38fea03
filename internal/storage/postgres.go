package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"printbot/internal/config"
	"printbot/internal/order"
)

type PostgresStorage struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewPostgresStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*PostgresStorage, error) {
	const operation = "storage.NewPostgresStorage"

	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName,
	)

	var db *sqlx.DB
	var err error

	retryPolicy := backoff.NewExponentialBackOff()
	retryPolicy.MaxElapsedTime = 2 * time.Minute
	retryPolicy.MaxInterval = 15 * time.Second

	logger.Info("Connecting to PostgreSQL...")

	err = backoff.RetryNotify(
		func() error {
			db, err = sqlx.ConnectContext(ctx, "postgres", connStr)
			if err != nil {
				return fmt.Errorf("connect: %w", err)
			}
			if err = db.PingContext(ctx); err != nil {
				return fmt.Errorf("ping: %w", err)
			}
			return nil
		},
		retryPolicy,
		func(err error, duration time.Duration) {
			logger.Warn("PostgreSQL connection failed, retrying...",
				zap.Error(err),
				zap.Duration("next_attempt_in", duration))
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to connect after retries: %w", operation, err)
	}

	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	db.SetConnMaxLifetime(cfg.DBConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.DBConnMaxIdleTime)

	logger.Info("Successfully connected to PostgreSQL")
	return &PostgresStorage{db: db, logger: logger}, nil
}

func (s *PostgresStorage) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle for migrations.
func (s *PostgresStorage) DB() *sql.DB {
	return s.db.DB
}

func (s *PostgresStorage) SaveOrder(ctx context.Context, o order.Order) (int64, error) {
	const query = `
        INSERT INTO orders (
            order_number, user_id, description, pages, print_type,
            color, paper, file_id, file_name, cost, cancel_reason,
            status, created_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
        RETURNING id
    `

	var orderID int64
	err := s.db.QueryRowContext(ctx, query,
		o.OrderNumber,
		o.UserID,
		o.Description,
		o.Pages,
		o.PrintType,
		o.Color,
		o.Paper,
		o.FileID,
		o.FileName,
		o.Cost,
		o.CancelReason,
		o.Status,
		o.CreatedAt,
	).Scan(&orderID)
	if err != nil {
		return 0, fmt.Errorf("failed to save order: %w", err)
	}
	return orderID, nil
}

func (s *PostgresStorage) GetOrderByID(ctx context.Context, id int64) (*order.Order, error) {
	const query = `SELECT * FROM orders WHERE id = $1`

	var o order.Order
	err := s.db.GetContext(ctx, &o, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return &o, nil
}

func (s *PostgresStorage) GetOrdersByUser(ctx context.Context, userID int64) ([]order.Order, error) {
	const query = `SELECT * FROM orders WHERE user_id = $1 ORDER BY created_at DESC`

	var orders []order.Order
	if err := s.db.SelectContext(ctx, &orders, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get orders: %w", err)
	}
	return orders, nil
}

func (s *PostgresStorage) UpdateOrderStatus(ctx context.Context, id int64, status order.Status) (*order.Order, error) {
	const query = `UPDATE orders SET status = $2 WHERE id = $1 RETURNING *`

	var o order.Order
	err := s.db.GetContext(ctx, &o, query, id, status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}
	return &o, nil
}

func (s *PostgresStorage) GetAllOrders(ctx context.Context) ([]order.Order, error) {
	const query = `SELECT * FROM orders ORDER BY created_at DESC`

	var orders []order.Order
	if err := s.db.SelectContext(ctx, &orders, query); err != nil {
		return nil, fmt.Errorf("failed to get all orders: %w", err)
	}
	return orders, nil
}

func (s *PostgresStorage) UpsertUser(ctx context.Context, u order.User) (*order.User, error) {
	const query = `
        INSERT INTO users (telegram_id, username, created_at)
        VALUES ($1, $2, NOW())
        ON CONFLICT (telegram_id) DO UPDATE SET username = EXCLUDED.username
        RETURNING *
    `

	var saved order.User
	if err := s.db.GetContext(ctx, &saved, query, u.TelegramID, u.Username); err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}
	return &saved, nil
}

func (s *PostgresStorage) GetUserByTelegramID(ctx context.Context, telegramID int64) (*order.User, error) {
	const query = `SELECT * FROM users WHERE telegram_id = $1`

	var u order.User
	err := s.db.GetContext(ctx, &u, query, telegramID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}
