package main

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"learning-circle/backend/config"
	"learning-circle/backend/pkg/database"
)

// migrateEnv 离线子命令的运行环境
type migrateEnv struct {
	cfg    *config.Config
	db     *gorm.DB
	sqlDB  *sql.DB
	logger *zap.Logger
}

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "数据库迁移",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "应用全部未执行的迁移",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSQLDB(opts, func(env *migrateEnv) error {
				return database.RunMigrations(env.sqlDB, env.logger)
			})
		},
	})

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "回滚迁移",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSQLDB(opts, func(env *migrateEnv) error {
				return database.RollbackMigrations(env.sqlDB, steps, env.logger)
			})
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "回滚步数")
	cmd.AddCommand(down)

	return cmd
}

func withSQLDB(opts *rootOptions, fn func(env *migrateEnv) error) error {
	cfg, logger, err := bootstrap(opts)
	if err != nil {
		return err
	}
	defer logger.Sync()

	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	defer sqlDB.Close()

	return fn(&migrateEnv{cfg: cfg, db: db, sqlDB: sqlDB, logger: logger})
}
