package routes

import (
	"fmt"

	"campus-aid-buddy/internal/adapters/persistence/repositories"
	"campus-aid-buddy/internal/config"
	"campus-aid-buddy/internal/core/services"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

const feedBuffer = 32

// Deps is the wired service graph shared by the HTTP routes and the
// background jobs started in main
type Deps struct {
	Config *config.Config
	Log    zerolog.Logger
	Ping   func() error

	Tickets repositories.TicketRepository

	Auth      *services.AuthService
	Users     *services.UserService
	Ticket    *services.TicketService
	Dashboard *services.DashboardService
	Notices   *services.NoticeService
	Lectures  *services.LectureService
	Syllabi   *services.SyllabusService
	Locations *services.LocationService
	Assistant *services.AssistantService
}

// NewDeps builds repositories and services over db. searcher may be nil
// when search is disabled.
func NewDeps(db *gorm.DB, cfg *config.Config, blobs services.BlobStore, searcher services.TicketSearcher, l zerolog.Logger) (*Deps, error) {
	userRepo := repositories.NewUserRepository(db)
	refreshTokenRepo := repositories.NewRefreshTokenRepository(db)
	ticketRepo := repositories.NewTicketRepository(db)
	syllabusRepo := repositories.NewSyllabusRepository(db)

	kb, err := services.LoadAssistantKnowledge()
	if err != nil {
		return nil, fmt.Errorf("load assistant knowledge: %w", err)
	}

	var ticketOpts []services.TicketOption
	if searcher != nil {
		ticketOpts = append(ticketOpts, services.WithSearcher(searcher))
	}

	return &Deps{
		Config:  cfg,
		Log:     l,
		Ping:    config.HealthCheck,
		Tickets: ticketRepo,

		Auth:      services.NewAuthService(userRepo, refreshTokenRepo, cfg.JWT, l.With().Str("component", "auth").Logger()),
		Users:     services.NewUserService(userRepo, l.With().Str("component", "users").Logger()),
		Ticket:    services.NewTicketService(ticketRepo, services.NewTicketFeed(feedBuffer), l.With().Str("component", "tickets").Logger(), ticketOpts...),
		Dashboard: services.NewDashboardService(ticketRepo),
		Notices:   services.NewNoticeService(repositories.NewNoticeRepository(db), l.With().Str("component", "notices").Logger(), nil),
		Lectures:  services.NewLectureService(repositories.NewLectureRepository(db), blobs, l.With().Str("component", "lectures").Logger(), nil),
		Syllabi:   services.NewSyllabusService(syllabusRepo, blobs, l.With().Str("component", "syllabus").Logger(), nil),
		Locations: services.NewLocationService(
			repositories.NewLocationRepository(db),
			repositories.NewQRCodeRepository(db),
			l.With().Str("component", "locations").Logger(),
			nil, nil,
		),
		Assistant: services.NewAssistantService(kb, nil, repositories.NewChatRepository(db), syllabusRepo, l.With().Str("component", "assistant").Logger()),
	}, nil
}
