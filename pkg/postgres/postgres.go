package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shenikar/geo_safety_monitor/internal/config"
)

const connectTimeout = 10 * time.Second

// NewPostgresDB создает пул соединений PostgreSQL и проверяет, что PostGIS доступен
func NewPostgresDB(ctx context.Context, appCfg *config.Config) (*pgxpool.Pool, error) {
	cfgPool, err := pgxpool.ParseConfig(appCfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("ошибка при разборе конфигурации postgres: %w", err)
	}
	if appCfg.DBMaxConns > 0 {
		cfgPool.MaxConns = appCfg.DBMaxConns
	}
	if appCfg.DBMinConns > 0 && appCfg.DBMinConns <= cfgPool.MaxConns {
		cfgPool.MinConns = appCfg.DBMinConns
	}
	if appCfg.DBConnTTL > 0 {
		cfgPool.MaxConnLifetime = appCfg.DBConnTTL
	}

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	dbpool, err := pgxpool.NewWithConfig(connectCtx, cfgPool)
	if err != nil {
		return nil, fmt.Errorf("не удалось создать пул соединений: %w", err)
	}

	// Проверяем соединение с базой данных
	if err := dbpool.Ping(connectCtx); err != nil {
		dbpool.Close()
		return nil, fmt.Errorf("не удалось выполнить ping к postgres: %w", err)
	}

	// Геозоны хранятся в колонках geometry, без PostGIS репозиторий зон не работает
	var postgisVersion string
	if err := dbpool.QueryRow(connectCtx, "SELECT postgis_version()").Scan(&postgisVersion); err != nil {
		dbpool.Close()
		return nil, fmt.Errorf("расширение postgis недоступно: %w", err)
	}

	return dbpool, nil
}
