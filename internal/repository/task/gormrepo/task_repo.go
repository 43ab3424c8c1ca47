package gormrepo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"taskManager/internal/logger"
	"taskManager/internal/migrations"
	"taskManager/internal/models/task"
	repo "taskManager/internal/repository"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const uniqueViolation = "23505"

type Options struct {
	MaxConnections     int
	MinConnections     int
	IdleTimeout        time.Duration
	SlowQueryThreshold time.Duration
}

type Storage struct {
	db  *gorm.DB
	url string
}

func gormConfig(opts Options) *gorm.Config {
	return &gorm.Config{
		Logger:         logger.NewGormLogger(opts.SlowQueryThreshold, gormlogger.Warn),
		TranslateError: true,
		NowFunc: func() time.Time {
			// postgres keeps microseconds; match it so the returned task equals a reread
			return time.Now().UTC().Truncate(time.Microsecond)
		},
	}
}

// OpenPostgres connects through the pgx driver and checks the connection.
func OpenPostgres(ctx context.Context, url string, opts Options) (*Storage, error) {
	db, err := gorm.Open(postgres.Open(url), gormConfig(opts))
	if err != nil {
		logger.Error("Repository: Failed to open PostgreSQL", err)
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	s, err := open(ctx, db, opts)
	if err != nil {
		return nil, err
	}
	s.url = url

	logger.Info("Repository: Connected to PostgreSQL")
	return s, nil
}

// OpenSQLite opens a file (or ":memory:") database.
func OpenSQLite(ctx context.Context, path string, opts Options) (*Storage, error) {
	db, err := gorm.Open(sqlite.Open(path), gormConfig(opts))
	if err != nil {
		logger.Error("Repository: Failed to open SQLite", err)
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// sqlite serialises writers; one connection also keeps ":memory:" to a single database.
	opts.MaxConnections = 1
	opts.MinConnections = 1
	opts.IdleTimeout = 0

	s, err := open(ctx, db, opts)
	if err != nil {
		return nil, err
	}

	logger.Info("Repository: Opened SQLite", zap.String("path", path))
	return s, nil
}

func open(ctx context.Context, db *gorm.DB, opts Options) (*Storage, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}

	if opts.MaxConnections > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxConnections)
	}
	if opts.MinConnections > 0 {
		sqlDB.SetMaxIdleConns(opts.MinConnections)
	}
	if opts.IdleTimeout > 0 {
		sqlDB.SetConnMaxIdleTime(opts.IdleTimeout)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		logger.Error("Repository: Ping failed", err)
		return nil, fmt.Errorf("ping: %w", err)
	}

	return New(db), nil
}

func New(db *gorm.DB) *Storage {
	return &Storage{db: db}
}

func (s *Storage) Close() {
	sqlDB, err := s.db.DB()
	if err != nil {
		logger.Error("Repository: Closing connections", err)
		return
	}
	if err := sqlDB.Close(); err != nil {
		logger.Error("Repository: Closing connections", err)
		return
	}
	logger.Info("Repository: All connections closed")
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("health check: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		logger.Error("Repository: Ping failed", err)
		return fmt.Errorf("health check ping: %w", err)
	}
	return nil
}

// Migrate applies the SQL migrations on Postgres and AutoMigrate elsewhere.
func (s *Storage) Migrate(ctx context.Context) error {
	if s.db.Dialector.Name() == "postgres" && s.url != "" {
		return migrations.Up(s.url)
	}

	if err := s.db.WithContext(ctx).AutoMigrate(&task.Task{}); err != nil {
		logger.Error("Repository: AutoMigrate failed", err)
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

func (s *Storage) Down(ctx context.Context) error {
	if s.db.Dialector.Name() == "postgres" && s.url != "" {
		return migrations.Down(s.url)
	}
	return s.db.WithContext(ctx).Migrator().DropTable(&task.Task{})
}

func (s *Storage) FindAll(ctx context.Context) ([]*task.Task, error) {
	tasks := []*task.Task{}
	if err := s.db.WithContext(ctx).Order("id").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("find tasks: %w", err)
	}
	return tasks, nil
}

func (s *Storage) FindByID(ctx context.Context, id int64) (*task.Task, error) {
	var t task.Task
	if err := s.db.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repo.ErrNotFound
		}
		return nil, fmt.Errorf("find task %d: %w", id, err)
	}
	return &t, nil
}

func (s *Storage) FindByTitle(ctx context.Context, title string) (*task.Task, error) {
	var t task.Task
	if err := s.db.WithContext(ctx).Where("title = ?", title).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repo.ErrNotFound
		}
		return nil, fmt.Errorf("find task by title: %w", err)
	}
	return &t, nil
}

func (s *Storage) FindByState(ctx context.Context, state task.State) ([]*task.Task, error) {
	tasks := []*task.Task{}
	if err := s.db.WithContext(ctx).Where("state = ?", state).Order("id").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("find tasks by state: %w", err)
	}
	return tasks, nil
}

func (s *Storage) Insert(ctx context.Context, params task.CreateParams) (*task.Task, error) {
	t := &task.Task{
		Title:       params.Title,
		Description: params.Description,
		State:       task.StatePending,
	}

	if err := s.db.WithContext(ctx).Create(t).Error; err != nil {
		if isDuplicate(err) {
			return nil, repo.ErrDuplicateTitle
		}
		return nil, fmt.Errorf("insert task: %w", err)
	}
	return t, nil
}

// ApplyChangesAndSave leaves existing untouched unless the save succeeds.
func (s *Storage) ApplyChangesAndSave(ctx context.Context, existing *task.Task, changes task.Changes) (*task.Task, error) {
	merged := *existing
	changes.Apply(&merged)

	// created_at is left out so the insert timestamp is never rewritten.
	result := s.db.WithContext(ctx).
		Model(&merged).
		Select("title", "description", "state").
		Updates(&merged)
	if err := result.Error; err != nil {
		if isDuplicate(err) {
			return nil, repo.ErrDuplicateTitle
		}
		return nil, fmt.Errorf("save task %d: %w", existing.ID, err)
	}
	if result.RowsAffected == 0 {
		return nil, repo.ErrNotFound
	}

	*existing = merged
	return existing, nil
}

func (s *Storage) DeleteByID(ctx context.Context, id int64) (repo.DeleteResult, error) {
	result := s.db.WithContext(ctx).Delete(&task.Task{}, id)
	if err := result.Error; err != nil {
		return repo.DeleteResult{}, fmt.Errorf("delete task %d: %w", id, err)
	}
	return repo.DeleteResult{Affected: result.RowsAffected}, nil
}

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
