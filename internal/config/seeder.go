package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"campus-aid-buddy/internal/adapters/persistence/models"
	"campus-aid-buddy/internal/core/domain"
	"campus-aid-buddy/internal/pkg/password"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

//go:embed seed/campus.yaml
var campusSeed []byte

// SeedData is the decoded seed/campus.yaml
type SeedData struct {
	DemoPassword string         `yaml:"demo_password"`
	Users        []SeedUser     `yaml:"users"`
	Locations    []SeedLocation `yaml:"locations"`
}

type SeedUser struct {
	Email      string      `yaml:"email"`
	Name       string      `yaml:"name"`
	Role       domain.Role `yaml:"role"`
	Department string      `yaml:"department"`
	RollNumber string      `yaml:"roll_number"`
}

type SeedLocation struct {
	Name        string              `yaml:"name"`
	Type        domain.LocationType `yaml:"type"`
	Latitude    float64             `yaml:"latitude"`
	Longitude   float64             `yaml:"longitude"`
	Building    string              `yaml:"building"`
	Floor       string              `yaml:"floor"`
	Description string              `yaml:"description"`
}

// LoadSeedData decodes and validates the embedded seed file
func LoadSeedData() (*SeedData, error) {
	var data SeedData
	if err := yaml.Unmarshal(campusSeed, &data); err != nil {
		return nil, fmt.Errorf("decode seed data: %w", err)
	}
	for _, u := range data.Users {
		if !u.Role.Valid() {
			return nil, fmt.Errorf("seed user %s: unknown role %q", u.Email, u.Role)
		}
	}
	for _, l := range data.Locations {
		if !l.Type.Valid() {
			return nil, fmt.Errorf("seed location %s: unknown type %q", l.Name, l.Type)
		}
	}
	return &data, nil
}

// Seeder handles database seeding
type Seeder struct {
	db       *gorm.DB
	log      zerolog.Logger
	admin    AdminSeed
	withDemo bool
}

// AdminSeed is the bootstrap admin account
type AdminSeed struct {
	Email    string
	Name     string
	Password string
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB, l zerolog.Logger, cfg *Config) *Seeder {
	return &Seeder{
		db:  db,
		log: l,
		admin: AdminSeed{
			Email:    getEnv("ADMIN_EMAIL", "admin@campus.edu"),
			Name:     getEnv("ADMIN_NAME", "Campus Administrator"),
			Password: getEnv("ADMIN_PASSWORD", "admin123456"),
		},
		withDemo: cfg.SeedDemo,
	}
}

// Run executes all seeders. Each step is idempotent.
func (s *Seeder) Run(ctx context.Context) error {
	s.log.Info().Msg("running database seeders")

	if err := s.seedAdminUser(ctx); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	data, err := LoadSeedData()
	if err != nil {
		return err
	}

	if err := s.seedLocations(ctx, data.Locations); err != nil {
		return fmt.Errorf("seed locations: %w", err)
	}

	if s.withDemo {
		if err := s.seedDemoUsers(ctx, data); err != nil {
			return fmt.Errorf("seed demo users: %w", err)
		}
	}

	s.log.Info().Msg("database seeding completed")
	return nil
}

func (s *Seeder) seedAdminUser(ctx context.Context) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("role = ?", domain.RoleAdmin).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hashed, err := password.Hash(s.admin.Password)
	if err != nil {
		return err
	}

	admin := &models.User{
		Email:    s.admin.Email,
		Name:     s.admin.Name,
		Role:     domain.RoleAdmin,
		Password: hashed,
		IsActive: true,
	}
	if err := s.db.WithContext(ctx).Create(admin).Error; err != nil {
		return err
	}

	s.log.Info().Str("email", admin.Email).Msg("admin user created")
	return nil
}

func (s *Seeder) seedDemoUsers(ctx context.Context, data *SeedData) error {
	hashed, err := password.Hash(data.DemoPassword)
	if err != nil {
		return err
	}

	created := 0
	for _, u := range data.Users {
		user := &models.User{
			Email:      u.Email,
			Name:       u.Name,
			Role:       u.Role,
			Department: u.Department,
			RollNumber: u.RollNumber,
			Password:   hashed,
			IsActive:   true,
		}
		err := s.db.WithContext(ctx).Create(user).Error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			continue
		}
		if err != nil {
			return fmt.Errorf("%s: %w", u.Email, err)
		}
		created++
	}

	s.log.Info().Int("created", created).Msg("demo users seeded")
	return nil
}

func (s *Seeder) seedLocations(ctx context.Context, locations []SeedLocation) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.CampusLocation{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	rows := make([]*models.CampusLocation, 0, len(locations))
	for _, l := range locations {
		rows = append(rows, &models.CampusLocation{
			Name:        l.Name,
			Type:        l.Type,
			Latitude:    l.Latitude,
			Longitude:   l.Longitude,
			Building:    l.Building,
			Floor:       l.Floor,
			Description: l.Description,
		})
	}
	if err := s.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return err
	}

	s.log.Info().Int("count", len(rows)).Msg("campus locations seeded")
	return nil
}
