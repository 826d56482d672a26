package routes

import (
	"net/url"
	"time"

	"campus-aid-buddy/internal/adapters/http/handlers"
	"campus-aid-buddy/internal/adapters/http/middleware"
	"campus-aid-buddy/internal/core/domain"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	noticePublishers = []domain.Role{domain.RoleAdmin, domain.RoleHOD, domain.RoleTeachingStaff, domain.RoleDepartmentStaff}
	courseStaff      = []domain.Role{domain.RoleTeachingStaff, domain.RoleTutor, domain.RoleHOD, domain.RoleAdmin}
	ticketOverseers  = []domain.Role{domain.RoleAdmin, domain.RoleHOD}
	assigners        = []domain.Role{domain.RoleAdmin, domain.RoleHOD, domain.RoleDepartmentStaff}
)

// Setup configures all routes for the application
func Setup(app *fiber.App, d *Deps) {
	healthHandler := handlers.NewHealthHandler(d.Config, d.Ping)
	authHandler := handlers.NewAuthHandler(d.Auth, d.Config)
	userHandler := handlers.NewUserHandler(d.Users)
	ticketHandler := handlers.NewTicketHandler(d.Ticket, d.Log.With().Str("component", "ticket_stream").Logger())
	dashboardHandler := handlers.NewDashboardHandler(d.Dashboard)
	noticeHandler := handlers.NewNoticeHandler(d.Notices)
	lectureHandler := handlers.NewLectureHandler(d.Lectures)
	syllabusHandler := handlers.NewSyllabusHandler(d.Syllabi)
	locationHandler := handlers.NewLocationHandler(d.Locations)
	assistantHandler := handlers.NewAssistantHandler(d.Assistant)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// Locally stored uploads
	if d.Config.Storage.Driver == "local" {
		app.Static(staticPrefix(d.Config.Storage.PublicURL), d.Config.Storage.LocalDir, fiber.Static{
			ByteRange: true,
		})
	}

	auth := middleware.AuthMiddleware(d.Auth)

	apiV1 := app.Group("/api/v1")
	apiV1.Get("/", healthHandler.APIInfo)

	setupAuthRoutes(apiV1.Group("/auth"), authHandler, d)
	setupUserRoutes(apiV1, userHandler, auth)
	setupTicketRoutes(apiV1, ticketHandler, d.Auth, auth)

	apiV1.Get("/dashboard", auth, middleware.PrivateCache(15*time.Second), dashboardHandler.GetDashboard)

	setupNoticeRoutes(apiV1.Group("/notices", auth), noticeHandler)
	setupLectureRoutes(apiV1.Group("/lectures", auth), lectureHandler)
	setupSyllabusRoutes(apiV1.Group("/syllabus", auth), syllabusHandler)
	setupLocationRoutes(apiV1, locationHandler, auth)
	setupAssistantRoutes(apiV1.Group("/assistant"), assistantHandler, auth)
}

// staticPrefix is the path part of the public upload URL
func staticPrefix(publicURL string) string {
	u, err := url.Parse(publicURL)
	if err != nil || u.Path == "" || u.Path == "/" {
		return "/files"
	}
	return u.Path
}

func setupAuthRoutes(router fiber.Router, h *handlers.AuthHandler, d *Deps) {
	auth := middleware.AuthMiddleware(d.Auth)

	// Public routes with rate limiting. An admin token on register allows
	// creating staff accounts.
	router.Post("/register", middleware.AuthRateLimiter(), middleware.OptionalAuth(d.Auth), h.Register)
	router.Post("/login", middleware.AuthRateLimiter(), h.Login)
	router.Post("/refresh", h.RefreshToken)
	router.Post("/logout", h.Logout)

	// Protected routes
	router.Post("/logout-all", auth, h.LogoutAll)
	router.Get("/me", auth, middleware.NoCache(), h.Me)
}

func setupUserRoutes(router fiber.Router, h *handlers.UserHandler, auth fiber.Handler) {
	admin := middleware.AdminOnly()

	users := router.Group("/users", auth)
	users.Get("/staff/:role", middleware.RoleMiddleware(assigners...), h.ListStaff)
	users.Get("/", admin, h.ListUsers)
	users.Get("/:id", admin, h.GetUser)
	users.Put("/:id", admin, h.UpdateUser)
	users.Put("/:id/role", admin, h.SetUserRole)
	users.Delete("/:id", admin, h.DeleteUser)

	profile := router.Group("/profile", auth)
	profile.Get("/", middleware.NoCache(), h.GetProfile)
	profile.Put("/", h.UpdateProfile)
	profile.Put("/password", middleware.StrictRateLimiter(), h.ChangePassword)
}

func setupTicketRoutes(router fiber.Router, h *handlers.TicketHandler, tokens middleware.TokenValidator, auth fiber.Handler) {
	// Registered before the group so the stream gets its own auth
	router.Get("/tickets/stream", middleware.StreamAuth(tokens), h.Stream)

	tickets := router.Group("/tickets", auth)
	tickets.Post("/", h.CreateTicket)
	tickets.Get("/", middleware.RoleMiddleware(ticketOverseers...), h.ListTickets)
	tickets.Get("/mine", h.MyTickets)
	tickets.Get("/queue", h.RoleQueue)
	tickets.Get("/search", h.SearchTickets)
	tickets.Get("/route-preview", h.PreviewRoute)
	tickets.Get("/:id", h.GetTicket)
	tickets.Get("/:id/actions", h.AvailableActions)
	tickets.Patch("/:id/status", h.UpdateStatus)
	tickets.Patch("/:id/assign", middleware.RoleMiddleware(assigners...), h.AssignTicket)
}

func setupNoticeRoutes(router fiber.Router, h *handlers.NoticeHandler) {
	publishers := middleware.RoleMiddleware(noticePublishers...)

	router.Get("/", middleware.PrivateCache(30*time.Second), h.ListNotices)
	router.Get("/all", middleware.AdminOnly(), h.ListAllNotices)
	router.Get("/:id", h.GetNotice)
	router.Post("/", publishers, h.CreateNotice)
	router.Put("/:id", publishers, h.UpdateNotice)
	router.Patch("/:id/active", publishers, h.SetActive)
	router.Delete("/:id", publishers, h.DeleteNotice)
}

func setupLectureRoutes(router fiber.Router, h *handlers.LectureHandler) {
	staff := middleware.RoleMiddleware(courseStaff...)

	router.Get("/", h.ListLectures)
	router.Get("/mine", staff, h.MyLectures)
	router.Get("/:id", h.GetLecture)
	router.Post("/", staff, h.UploadLecture)
	router.Put("/:id", staff, h.UpdateLecture)
	router.Patch("/:id/publish", staff, h.SetPublished)
	router.Delete("/:id", staff, h.DeleteLecture)
}

func setupSyllabusRoutes(router fiber.Router, h *handlers.SyllabusHandler) {
	staff := middleware.RoleMiddleware(courseStaff...)

	router.Get("/", h.ListSyllabi)
	router.Get("/:id", h.GetSyllabus)
	router.Post("/", staff, h.UploadSyllabus)
	router.Put("/:id", staff, h.UpdateSyllabus)
	router.Delete("/:id", staff, h.DeleteSyllabus)
}

func setupLocationRoutes(router fiber.Router, h *handlers.LocationHandler, auth fiber.Handler) {
	admin := middleware.AdminOnly()

	locations := router.Group("/locations", auth)
	locations.Get("/", middleware.PublicCache(5*time.Minute), h.ListLocations)
	locations.Get("/:id", h.GetLocation)
	locations.Post("/", admin, h.CreateLocation)
	locations.Put("/:id", admin, h.UpdateLocation)
	locations.Delete("/:id", admin, h.DeleteLocation)
	locations.Post("/:id/qr", admin, h.GenerateQRCode)
	locations.Get("/:id/qr", admin, h.ListQRCodes)

	qr := router.Group("/qr", auth)
	qr.Post("/resolve", h.ResolveQR)
	qr.Patch("/:id/active", admin, h.SetQRCodeActive)
}

func setupAssistantRoutes(router fiber.Router, h *handlers.AssistantHandler, auth fiber.Handler) {
	// Static knowledge, no login needed
	router.Get("/faqs", middleware.PublicCache(time.Hour), h.FAQs)
	router.Get("/subjects", middleware.PublicCache(time.Hour), h.Subjects)

	router.Post("/campus", auth, h.AskCampus)
	router.Post("/teacher", auth, h.AskTeacher)
	router.Get("/history", auth, middleware.NoCache(), h.History)
}
