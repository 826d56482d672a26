package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"campus-aid-buddy/internal/core/domain"
	"campus-aid-buddy/internal/pkg/logger"
)

func newTestLocationService() (*LocationService, *memLocationRepo, *memQRRepo, *fixedClock) {
	clk := newFixedClock(time.Date(2024, 10, 3, 9, 0, 0, 0, time.UTC))
	locs, codes := newMemLocationRepo(), newMemQRRepo()
	rnd := &seqRandom{vals: []int{10, 35, 0}}
	return NewLocationService(locs, codes, logger.Nop(), clk.Now, rnd), locs, codes, clk
}

func TestQRPayloadRoundTrip(t *testing.T) {
	svc, _, _, _ := newTestLocationService()
	admin := actor("a", domain.RoleAdmin)
	l, err := svc.CreateLocation(context.Background(), admin, LocationInput{
		Name: "Central Library", Type: domain.LocationFacility, Latitude: 12.97, Longitude: 77.59, Building: "Block A",
	})
	if err != nil {
		t.Fatal(err)
	}

	raw, err := EncodeQRPayload(l)
	if err != nil {
		t.Fatal(err)
	}
	p, err := ParseQRPayload(raw)
	if err != nil {
		t.Fatalf("ParseQRPayload(%s): %v", raw, err)
	}
	if p.LocationID != l.ID || p.Type != QRKindFacility || p.Coordinates.Latitude != 12.97 {
		t.Fatalf("payload = %+v", p)
	}
	if p.Metadata == nil || p.Metadata.Building != "Block A" {
		t.Fatalf("metadata = %+v", p.Metadata)
	}

	got, err := svc.ResolveQRPayload(context.Background(), raw)
	if err != nil || got.ID != l.ID {
		t.Fatalf("ResolveQRPayload = %+v, %v", got, err)
	}
}

func TestParseQRPayloadRejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", "QR_1_abc"},
		{"no location", `{"type":"location","coordinates":{"latitude":1,"longitude":2}}`},
		{"bad type", `{"locationId":"x","type":"parking","coordinates":{"latitude":1,"longitude":2}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseQRPayload(tt.raw); !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("err = %v, want validation", err)
			}
		})
	}
}

func TestLocationValidation(t *testing.T) {
	svc, _, _, _ := newTestLocationService()
	admin := actor("a", domain.RoleAdmin)

	tests := []struct {
		name string
		in   LocationInput
	}{
		{"no name", LocationInput{Latitude: 1, Longitude: 1}},
		{"bad type", LocationInput{Name: "x", Type: "mall"}},
		{"latitude", LocationInput{Name: "x", Latitude: 91}},
		{"longitude", LocationInput{Name: "x", Longitude: -181}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.CreateLocation(context.Background(), admin, tt.in); !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("err = %v, want validation", err)
			}
		})
	}

	l, err := svc.CreateLocation(context.Background(), admin, LocationInput{Name: " Gate 2 "})
	if err != nil || l.Type != domain.LocationOther || l.Name != "Gate 2" {
		t.Fatalf("default type = %+v, %v", l, err)
	}
	if _, err := svc.CreateLocation(context.Background(), actor("h", domain.RoleHOD), LocationInput{Name: "x"}); !errors.Is(err, domain.ErrPermissionDenied) {
		t.Fatalf("hod create err = %v", err)
	}
}

func TestGenerateAndResolveQRCode(t *testing.T) {
	ctx := context.Background()
	svc, locs, codes, clk := newTestLocationService()
	admin := actor("a", domain.RoleAdmin)
	l, _ := svc.CreateLocation(ctx, admin, LocationInput{Name: "Hostel A", Type: domain.LocationHostel})

	gen, err := svc.GenerateQRCode(ctx, admin, l.ID)
	if err != nil {
		t.Fatalf("GenerateQRCode: %v", err)
	}
	want := fmt.Sprintf("QR_%d_az0000000", clk.Now().UnixMilli())
	if gen.Code.Code != want || !gen.Code.IsActive {
		t.Fatalf("code = %+v, want %s", gen.Code, want)
	}
	stored, _ := locs.GetByID(ctx, l.ID)
	if stored.QRCode != want {
		t.Fatalf("location qr = %s", stored.QRCode)
	}
	p, err := ParseQRPayload(gen.Payload)
	if err != nil || p.Type != QRKindLocation || p.Metadata != nil {
		t.Fatalf("payload = %+v, %v", p, err)
	}

	got, err := svc.ResolveQRCode(ctx, " "+want+" ")
	if err != nil || got.ID != l.ID {
		t.Fatalf("ResolveQRCode = %+v, %v", got, err)
	}

	if err := svc.SetQRCodeActive(ctx, admin, gen.Code.ID, false); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ResolveQRCode(ctx, want); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("inactive code err = %v", err)
	}
	if err := svc.SetQRCodeActive(ctx, admin, gen.Code.ID, true); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.GenerateQRCode(ctx, actor("s", domain.RoleStudent), l.ID); !errors.Is(err, domain.ErrPermissionDenied) {
		t.Fatalf("student generate err = %v", err)
	}

	if err := svc.DeleteLocation(ctx, admin, l.ID); err != nil {
		t.Fatal(err)
	}
	list, _ := codes.ListByLocation(ctx, l.ID)
	if len(list) != 1 || list[0].IsActive {
		t.Fatalf("codes after delete = %+v", list)
	}
	if _, err := svc.ResolveQRCode(ctx, want); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("code of deleted location err = %v", err)
	}
}

func TestListAndSearchLocations(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newTestLocationService()
	admin := actor("a", domain.RoleAdmin)
	for _, in := range []LocationInput{
		{Name: "Library", Type: domain.LocationFacility, Building: "Block A"},
		{Name: "CS Lab", Type: domain.LocationAcademic, Building: "Block A", Description: "Second floor labs"},
		{Name: "Bus Stop", Type: domain.LocationTransport},
	} {
		if _, err := svc.CreateLocation(ctx, admin, in); err != nil {
			t.Fatal(err)
		}
	}

	all, _ := svc.ListLocations(ctx, "", "")
	if len(all) != 3 {
		t.Fatalf("all = %d", len(all))
	}
	byType, _ := svc.ListLocations(ctx, domain.LocationTransport, "")
	if len(byType) != 1 || byType[0].Name != "Bus Stop" {
		t.Fatalf("by type = %+v", byType)
	}
	byBuilding, _ := svc.ListLocations(ctx, "", "Block A")
	if len(byBuilding) != 2 {
		t.Fatalf("by building = %d", len(byBuilding))
	}
	if _, err := svc.ListLocations(ctx, "mall", ""); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("bad type err = %v", err)
	}

	found, _ := svc.SearchLocations(ctx, "labs")
	if len(found) != 1 || found[0].Name != "CS Lab" {
		t.Fatalf("search = %+v", found)
	}
	if _, err := svc.SearchLocations(ctx, "  "); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("blank search err = %v", err)
	}
}
