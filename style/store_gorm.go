package style

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormLogger "gorm.io/gorm/logger"

	"content_repurposer/logger"
)

// Record is the style_guide row. A nil Platform applies to every platform.
type Record struct {
	ID               uint           `gorm:"primaryKey"`
	Name             string         `gorm:"column:name;uniqueIndex;not null"`
	Platform         *string        `gorm:"column:platform;index"`
	Rules            string         `gorm:"column:rules;type:text;not null"`
	Examples         datatypes.JSON `gorm:"column:examples"`
	Tone             string         `gorm:"column:tone"`
	VoiceDescription string         `gorm:"column:voice_description;type:text"`
	Active           bool           `gorm:"column:active;not null"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (Record) TableName() string { return "style_guide" }

func (r Record) guide() (Guide, error) {
	g := Guide{
		Name:   r.Name,
		Rules:  r.Rules,
		Tone:   r.Tone,
		Voice:  r.VoiceDescription,
		Active: r.Active,
	}
	if r.Platform != nil {
		g.Platform = *r.Platform
	}
	if len(r.Examples) > 0 {
		if err := json.Unmarshal(r.Examples, &g.Examples); err != nil {
			return Guide{}, fmt.Errorf("decode examples for %s: %w", r.Name, err)
		}
	}
	return g, nil
}

func recordFromGuide(g Guide) (Record, error) {
	r := Record{
		Name:             strings.TrimSpace(g.Name),
		Rules:            g.Rules,
		Tone:             g.Tone,
		VoiceDescription: g.Voice,
		Active:           g.Active,
	}
	if r.Name == "" {
		return Record{}, errors.New("style guide name is required")
	}
	if strings.TrimSpace(r.Rules) == "" {
		return Record{}, fmt.Errorf("style guide %s has no rules", r.Name)
	}
	if p := strings.ToLower(strings.TrimSpace(g.Platform)); p != "" {
		r.Platform = &p
	}
	examples := g.Examples
	if examples == nil {
		examples = []string{}
	}
	raw, err := json.Marshal(examples)
	if err != nil {
		return Record{}, err
	}
	r.Examples = datatypes.JSON(raw)
	return r, nil
}

// GormStore keeps style guides in SQLite or Postgres.
type GormStore struct {
	db  *gorm.DB
	log *logger.Logger
}

// Open connects by DSN: postgres:// or postgresql:// URLs use Postgres, anything else is a SQLite path.
func Open(dsn string, logg *logger.Logger) (*GormStore, error) {
	var dialector gorm.Dialector
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		dialector = postgres.Open(dsn)
	} else {
		dialector = sqlite.Open(dsn)
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: newGormLogger(os.Stderr)})
	if err != nil {
		return nil, fmt.Errorf("failed to open style store: %w", err)
	}
	return NewGormStore(db, logg)
}

// newGormLogger 只输出慢查询和错误；写 stderr，避免污染 run --json 的 stdout。
func newGormLogger(w io.Writer) gormLogger.Interface {
	return gormLogger.New(
		log.New(w, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}

// NewGormStore migrates the style_guide table on db.
func NewGormStore(db *gorm.DB, logg *logger.Logger) (*GormStore, error) {
	if db == nil {
		return nil, errors.New("db is required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, fmt.Errorf("migrate style_guide: %w", err)
	}
	return &GormStore{db: db, log: logg.With("repo", "StyleGuideStore")}, nil
}

func (s *GormStore) FindActive(ctx context.Context, platform string) (*Guide, error) {
	q := s.db.WithContext(ctx).Where("active = ?", true)
	if platform == "" {
		q = q.Where("platform IS NULL")
	} else {
		q = q.Where("platform = ?", platform)
	}
	var rec Record
	err := q.Order("id").First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	g, err := rec.guide()
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// Upsert inserts or replaces a guide by name.
func (s *GormStore) Upsert(ctx context.Context, g Guide) error {
	rec, err := recordFromGuide(g)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"platform", "rules", "examples", "tone", "voice_description", "active", "updated_at"}),
	}).Create(&rec).Error
}

// List returns every guide ordered by name.
func (s *GormStore) List(ctx context.Context) ([]Guide, error) {
	var recs []Record
	if err := s.db.WithContext(ctx).Order("name").Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]Guide, 0, len(recs))
	for _, r := range recs {
		g, err := r.guide()
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}

// Close releases the underlying connection pool.
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
