package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"campus-aid-buddy/internal/adapters/persistence/models"
	"campus-aid-buddy/internal/adapters/persistence/repositories"
	"campus-aid-buddy/internal/core/domain"

	"github.com/rs/zerolog"
)

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// QR payload kinds
const (
	QRKindLocation = "location"
	QRKindFacility = "facility"
)

// QRCoordinates is the position carried by a QR payload
type QRCoordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// QRMetadata is optional descriptive data carried by a QR payload
type QRMetadata struct {
	Building    string `json:"building,omitempty"`
	Floor       string `json:"floor,omitempty"`
	Description string `json:"description,omitempty"`
}

// QRPayload is the JSON document printed into a location's QR code
type QRPayload struct {
	LocationID  string        `json:"locationId"`
	Type        string        `json:"type"`
	Coordinates QRCoordinates `json:"coordinates"`
	Metadata    *QRMetadata   `json:"metadata,omitempty"`
}

// NewQRPayload describes location as a QR payload
func NewQRPayload(l *models.CampusLocation) QRPayload {
	kind := QRKindLocation
	if l.Type == domain.LocationFacility {
		kind = QRKindFacility
	}
	p := QRPayload{
		LocationID:  l.ID,
		Type:        kind,
		Coordinates: QRCoordinates{Latitude: l.Latitude, Longitude: l.Longitude},
	}
	if l.Building != "" || l.Floor != "" || l.Description != "" {
		p.Metadata = &QRMetadata{Building: l.Building, Floor: l.Floor, Description: l.Description}
	}
	return p
}

// EncodeQRPayload renders the payload string for a location
func EncodeQRPayload(l *models.CampusLocation) (string, error) {
	data, err := json.Marshal(NewQRPayload(l))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ParseQRPayload decodes a scanned payload string
func ParseQRPayload(raw string) (*QRPayload, error) {
	var p QRPayload
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &p); err != nil {
		return nil, domain.Validationf("unreadable QR payload")
	}
	if p.LocationID == "" {
		return nil, domain.Validationf("QR payload has no location")
	}
	if p.Type != QRKindLocation && p.Type != QRKindFacility {
		return nil, domain.Validationf("unknown QR payload type %q", p.Type)
	}
	return &p, nil
}

// LocationService manages campus locations and their QR codes
type LocationService struct {
	locations repositories.LocationRepository
	codes     repositories.QRCodeRepository
	log       zerolog.Logger
	now       Clock
	rand      Random
}

// NewLocationService creates a new location service. Nil clock or random
// select the system ones.
func NewLocationService(locations repositories.LocationRepository, codes repositories.QRCodeRepository, l zerolog.Logger, now Clock, rnd Random) *LocationService {
	if now == nil {
		now = systemClock
	}
	if rnd == nil {
		rnd = newRandom()
	}
	return &LocationService{locations: locations, codes: codes, log: l, now: now, rand: rnd}
}

// LocationInput carries the writable location fields
type LocationInput struct {
	Name        string              `json:"name"`
	Type        domain.LocationType `json:"type"`
	Latitude    float64             `json:"latitude"`
	Longitude   float64             `json:"longitude"`
	Description string              `json:"description"`
	Building    string              `json:"building"`
	Floor       string              `json:"floor"`
}

func (in *LocationInput) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.Building = strings.TrimSpace(in.Building)
	in.Floor = strings.TrimSpace(in.Floor)
	if in.Type == "" {
		in.Type = domain.LocationOther
	}
	if in.Name == "" {
		return domain.Validationf("name is required")
	}
	if !in.Type.Valid() {
		return domain.Validationf("unknown location type %q", in.Type)
	}
	if in.Latitude < -90 || in.Latitude > 90 || in.Longitude < -180 || in.Longitude > 180 {
		return domain.Validationf("coordinates out of range")
	}
	return nil
}

func (in *LocationInput) apply(l *models.CampusLocation) {
	l.Name = in.Name
	l.Type = in.Type
	l.Latitude = in.Latitude
	l.Longitude = in.Longitude
	l.Description = in.Description
	l.Building = in.Building
	l.Floor = in.Floor
}

func adminOnly(actor *domain.Actor) error {
	if err := actorRequired(actor); err != nil {
		return err
	}
	if actor.Role != domain.RoleAdmin {
		return domain.ErrPermissionDenied
	}
	return nil
}

// CreateLocation adds a campus location
func (s *LocationService) CreateLocation(ctx context.Context, actor *domain.Actor, input LocationInput) (*models.CampusLocation, error) {
	if err := adminOnly(actor); err != nil {
		return nil, err
	}
	if err := input.normalize(); err != nil {
		return nil, err
	}
	l := &models.CampusLocation{}
	input.apply(l)
	if err := s.locations.Create(ctx, l); err != nil {
		return nil, err
	}
	s.log.Info().Str("location_id", l.ID).Str("name", l.Name).Msg("location created")
	return l, nil
}

// GetLocation returns one location
func (s *LocationService) GetLocation(ctx context.Context, id string) (*models.CampusLocation, error) {
	return s.locations.GetByID(ctx, id)
}

// ListLocations lists locations, optionally of one type or building
func (s *LocationService) ListLocations(ctx context.Context, t domain.LocationType, building string) ([]*models.CampusLocation, error) {
	switch {
	case t != "":
		if !t.Valid() {
			return nil, domain.Validationf("unknown location type %q", t)
		}
		return s.locations.ListByType(ctx, t)
	case building != "":
		return s.locations.ListByBuilding(ctx, building)
	default:
		return s.locations.List(ctx)
	}
}

// SearchLocations matches name, description or building
func (s *LocationService) SearchLocations(ctx context.Context, term string) ([]*models.CampusLocation, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, domain.Validationf("search term is required")
	}
	return s.locations.Search(ctx, term)
}

// UpdateLocation replaces a location's fields
func (s *LocationService) UpdateLocation(ctx context.Context, actor *domain.Actor, id string, input LocationInput) (*models.CampusLocation, error) {
	if err := adminOnly(actor); err != nil {
		return nil, err
	}
	if err := input.normalize(); err != nil {
		return nil, err
	}
	l, err := s.locations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	input.apply(l)
	if err := s.locations.Update(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

// DeleteLocation removes a location and deactivates its QR codes
func (s *LocationService) DeleteLocation(ctx context.Context, actor *domain.Actor, id string) error {
	if err := adminOnly(actor); err != nil {
		return err
	}
	codes, err := s.codes.ListByLocation(ctx, id)
	if err != nil {
		return err
	}
	if err := s.locations.Delete(ctx, id); err != nil {
		return err
	}
	for _, c := range codes {
		if !c.IsActive {
			continue
		}
		if err := s.codes.SetActive(ctx, c.ID, false); err != nil {
			s.log.Warn().Err(err).Str("qr_id", c.ID).Msg("failed to deactivate qr code of deleted location")
		}
	}
	return nil
}

// NewQRCode returns a fresh code of the form QR_<unix-ms>_<9 base36 chars>
func (s *LocationService) NewQRCode() string {
	var b strings.Builder
	for i := 0; i < 9; i++ {
		b.WriteByte(base36[s.rand.Intn(len(base36))])
	}
	return fmt.Sprintf("QR_%d_%s", s.now().UnixMilli(), b.String())
}

// GeneratedQR is a stored code together with the payload to print
type GeneratedQR struct {
	Code    *models.QRCode `json:"code"`
	Payload string         `json:"payload"`
}

// GenerateQRCode issues a new active code for a location and makes it the
// location's current code.
func (s *LocationService) GenerateQRCode(ctx context.Context, actor *domain.Actor, locationID string) (*GeneratedQR, error) {
	if err := adminOnly(actor); err != nil {
		return nil, err
	}
	l, err := s.locations.GetByID(ctx, locationID)
	if err != nil {
		return nil, err
	}

	code := &models.QRCode{LocationID: l.ID, Code: s.NewQRCode(), IsActive: true}
	if err := s.codes.Create(ctx, code); err != nil {
		return nil, err
	}
	l.QRCode = code.Code
	if err := s.locations.Update(ctx, l); err != nil {
		return nil, err
	}

	payload, err := EncodeQRPayload(l)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("location_id", l.ID).Str("code", code.Code).Msg("qr code generated")
	return &GeneratedQR{Code: code, Payload: payload}, nil
}

// ListQRCodes lists every code issued for a location
func (s *LocationService) ListQRCodes(ctx context.Context, actor *domain.Actor, locationID string) ([]*models.QRCode, error) {
	if err := adminOnly(actor); err != nil {
		return nil, err
	}
	return s.codes.ListByLocation(ctx, locationID)
}

// ResolveQRCode maps a scanned code to its location. Inactive codes do not
// resolve.
func (s *LocationService) ResolveQRCode(ctx context.Context, code string) (*models.CampusLocation, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, domain.Validationf("code is required")
	}
	qr, err := s.codes.GetActiveByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return s.locations.GetByID(ctx, qr.LocationID)
}

// ResolveQRPayload maps a scanned JSON payload to its location
func (s *LocationService) ResolveQRPayload(ctx context.Context, raw string) (*models.CampusLocation, error) {
	p, err := ParseQRPayload(raw)
	if err != nil {
		return nil, err
	}
	return s.locations.GetByID(ctx, p.LocationID)
}

// SetQRCodeActive activates or deactivates a code
func (s *LocationService) SetQRCodeActive(ctx context.Context, actor *domain.Actor, id string, active bool) error {
	if err := adminOnly(actor); err != nil {
		return err
	}
	if err := s.codes.SetActive(ctx, id, active); err != nil {
		return err
	}
	s.log.Info().Str("qr_id", id).Bool("active", active).Msg("qr code state changed")
	return nil
}
