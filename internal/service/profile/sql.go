package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	applog "github.com/janisto/linkglyph/internal/platform/logging"
)

// SQL drivers accepted by OpenSQL.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type userRow struct {
	ID        string  `gorm:"primaryKey;size:128"`
	Email     *string `gorm:"uniqueIndex;size:320"`
	Name      string  `gorm:"size:200;not null;default:''"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (userRow) TableName() string { return "users" }

type profileRow struct {
	Handle    string   `gorm:"primaryKey;size:32"`
	FullName  string   `gorm:"size:100;not null"`
	Title     *string  `gorm:"size:100"`
	Bio       *string  `gorm:"size:280"`
	Location  *string  `gorm:"size:100"`
	Website   *string  `gorm:"type:text"`
	Avatar    *string  `gorm:"type:text"`
	Theme     string   `gorm:"size:16;not null"`
	Accent    string   `gorm:"size:7;not null"`
	OwnerID   *string  `gorm:"index;size:128"`
	Owner     *userRow `gorm:"foreignKey:OwnerID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (profileRow) TableName() string { return "profiles" }

// SQLStore implements Service on a relational database through gorm.
// The handle primary key plus INSERT ... ON CONFLICT makes upserts atomic.
type SQLStore struct {
	db *gorm.DB
}

// OpenSQL connects to Postgres or SQLite. Call Migrate before first use on a
// fresh database.
func OpenSQL(driver, dsn string) (*SQLStore, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("database dsn is required")
	}

	var dialector gorm.Dialector
	switch driver {
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	case DriverSQLite:
		dialector = sqlite.Open(sqliteDSN(dsn))
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger: logger.New(
			slog.NewLogLogger(applog.Logger().Handler(), slog.LevelWarn),
			logger.Config{
				SlowThreshold:             200 * time.Millisecond,
				LogLevel:                  logger.Warn,
				IgnoreRecordNotFoundError: true,
			},
		),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}
	if driver == DriverSQLite {
		// SQLite allows one writer; a single connection avoids SQLITE_BUSY under load.
		sqlDB.SetMaxOpenConns(1)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	return &SQLStore{db: db}, nil
}

// NewSQLStore wraps an existing gorm handle.
func NewSQLStore(db *gorm.DB) *SQLStore {
	return &SQLStore{db: db}
}

// Migrate creates or updates the users and profiles tables.
func (s *SQLStore) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&userRow{}, &profileRow{}); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Ping checks the database connection.
func (s *SQLStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the underlying connection pool.
func (s *SQLStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *SQLStore) Upsert(ctx context.Context, params UpsertParams) (result *Profile, err error) {
	defer func() { logAudit(ctx, "upsert", deref(params.OwnerID), "profile", params.Handle, err) }()

	now := time.Now().UTC()
	row := toProfileRow(newProfile(params, now))

	var stored profileRow
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		insert := tx.Omit(clause.Associations).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "handle"}},
			DoUpdates: clause.AssignmentColumns(upsertColumns(params)),
		}).Create(&row)
		if insert.Error != nil {
			return mapSQLError(insert.Error)
		}
		if err := tx.Where("handle = ?", params.Handle).Take(&stored).Error; err != nil {
			return fmt.Errorf("reload profile: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return stored.toProfile(), nil
}

// upsertColumns lists the columns overwritten when the handle already exists.
// Omitted optional fields are left out so their stored values survive.
func upsertColumns(params UpsertParams) []string {
	cols := []string{"full_name", "updated_at"}
	optional := []struct {
		name  string
		value *string
	}{
		{"title", params.Title},
		{"bio", params.Bio},
		{"location", params.Location},
		{"website", params.Website},
		{"avatar", params.Avatar},
		{"theme", params.Theme},
		{"accent", params.Accent},
		{"owner_id", params.OwnerID},
	}
	for _, o := range optional {
		if deref(o.value) != "" {
			cols = append(cols, o.name)
		}
	}
	return cols
}

func (s *SQLStore) FindByHandle(ctx context.Context, handle string) (*Profile, error) {
	var row profileRow
	if err := s.db.WithContext(ctx).Where("handle = ?", handle).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}

	return row.toProfile(), nil
}

func (s *SQLStore) ListByOwner(ctx context.Context, ownerID string) ([]*Profile, error) {
	var rows []profileRow
	if err := s.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("handle").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}

	out := make([]*Profile, len(rows))
	for i := range rows {
		out[i] = rows[i].toProfile()
	}

	return out, nil
}

func (s *SQLStore) CreateUser(ctx context.Context, params CreateUserParams) (u *User, err error) {
	id := uuid.NewString()
	defer func() { logAudit(ctx, "create", id, "user", id, err) }()

	row := newUserRow(id, params.Email, params.Name)
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, mapSQLError(err)
	}

	return row.toUser(), nil
}

func (s *SQLStore) EnsureUser(ctx context.Context, params EnsureUserParams) (*User, error) {
	db := s.db.WithContext(ctx)

	var existing userRow
	err := db.Where("id = ?", params.ID).Take(&existing).Error
	if err == nil {
		return existing.toUser(), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("get user: %w", err)
	}

	row := newUserRow(params.ID, params.Email, params.Name)
	if err := db.Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// A concurrent request may have inserted the same id first.
			if db.Where("id = ?", params.ID).Take(&existing).Error == nil {
				return existing.toUser(), nil
			}
		}
		err = mapSQLError(err)
		logAudit(ctx, "create", params.ID, "user", params.ID, err)
		return nil, err
	}

	logAudit(ctx, "create", params.ID, "user", params.ID, nil)
	return row.toUser(), nil
}

func (s *SQLStore) GetUser(ctx context.Context, id string) (*User, error) {
	var row userRow
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	return row.toUser(), nil
}

// mapSQLError converts translated constraint violations into service errors.
func mapSQLError(err error) error {
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %w", ErrConflict, err)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%w: %w", ErrInvalidRelation, err)
	default:
		return fmt.Errorf("sql: %w", err)
	}
}

// sqliteDSN turns on foreign key enforcement, which SQLite leaves off by default.
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_foreign_keys") || strings.Contains(dsn, "_fk=") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&_foreign_keys=on"
	}
	return dsn + "?_foreign_keys=on"
}

func newUserRow(id, email, name string) userRow {
	now := time.Now().UTC()
	row := userRow{
		ID:        id,
		Name:      strings.TrimSpace(name),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if email = normalizeEmail(email); email != "" {
		row.Email = &email
	}
	return row
}

func (r userRow) toUser() *User {
	return &User{
		ID:        r.ID,
		Email:     deref(r.Email),
		Name:      r.Name,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

func toProfileRow(p *Profile) profileRow {
	return profileRow{
		Handle:    p.Handle,
		FullName:  p.FullName,
		Title:     p.Title,
		Bio:       p.Bio,
		Location:  p.Location,
		Website:   p.Website,
		Avatar:    p.Avatar,
		Theme:     p.Theme,
		Accent:    p.Accent,
		OwnerID:   p.OwnerID,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func (r profileRow) toProfile() *Profile {
	return &Profile{
		Handle:    r.Handle,
		FullName:  r.FullName,
		Title:     r.Title,
		Bio:       r.Bio,
		Location:  r.Location,
		Website:   r.Website,
		Avatar:    r.Avatar,
		Theme:     r.Theme,
		Accent:    r.Accent,
		OwnerID:   r.OwnerID,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

var _ Service = (*SQLStore)(nil)
