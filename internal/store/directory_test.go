package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erazemk/odpad/internal/db"
	"github.com/erazemk/odpad/internal/model"
)

func TestDepartments(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	d, err := CreateDepartment(ctx, database, "Computer Science", "Block A")
	if err != nil {
		t.Fatalf("CreateDepartment: %v", err)
	}
	CreateDepartment(ctx, database, "Chemistry", "")

	got, _ := GetDepartment(ctx, database, d.ID)
	if got == nil || got.Location != "Block A" {
		t.Errorf("unexpected department: %+v", got)
	}

	all, _ := ListDepartments(ctx, database)
	if len(all) != 2 {
		t.Errorf("expected 2 departments, got %d", len(all))
	}
}

func TestVendors(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	v, err := CreateVendor(ctx, database, model.Vendor{
		CompanyName: "GreenCycle", ContactPerson: "Ravi", Email: "ops@greencycle.example",
		CPCBRegistrationNo: "CPCB-1234",
	})
	if err != nil {
		t.Fatalf("CreateVendor: %v", err)
	}
	if v.ID == "" {
		t.Fatal("expected generated vendor id")
	}
	if len(v.Availability) != 0 {
		t.Errorf("expected empty availability, got %v", v.Availability)
	}

	if _, err := CreateVendor(ctx, database, model.Vendor{CompanyName: "Dup", Email: "ops@greencycle.example"}); !errors.Is(err, ErrDuplicate) {
		t.Errorf("expected ErrDuplicate for a taken vendor email, got %v", err)
	}

	slots := []string{"Mon 09:00-12:00", "Thu 14:00-17:00"}
	if err := SetVendorAvailability(ctx, database, v.ID, slots); err != nil {
		t.Fatalf("SetVendorAvailability: %v", err)
	}
	byEmail, _ := GetVendorByEmail(ctx, database, "ops@greencycle.example")
	if byEmail == nil || len(byEmail.Availability) != 2 || byEmail.Availability[1] != slots[1] {
		t.Errorf("unexpected availability: %+v", byEmail)
	}

	if err := SetVendorAvailability(ctx, database, "missing", slots); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	none, _ := GetVendorByEmail(ctx, database, "nobody@example.com")
	if none != nil {
		t.Error("expected nil for unknown vendor email")
	}

	CreateVendor(ctx, database, model.Vendor{CompanyName: "GreenCycle", Email: "second@greencycle.example", CPCBRegistrationNo: "CPCB-1234"})
	byCompany, err := GetVendorByCompany(ctx, database, "greencycle")
	if err != nil {
		t.Fatalf("GetVendorByCompany: %v", err)
	}
	if byCompany == nil || byCompany.ID != v.ID {
		t.Errorf("expected the first GreenCycle vendor, got %+v", byCompany)
	}
	if other, _ := GetVendorByCompany(ctx, database, "Unknown Ltd"); other != nil {
		t.Error("expected nil for unknown company")
	}
}

func TestCreateVendorAccount(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	v, u, err := CreateVendorAccount(ctx, database,
		model.Vendor{CompanyName: "EcoReclaim", Email: "desk@ecoreclaim.example"},
		model.User{Email: "desk@ecoreclaim.example", Name: "Mira", PasswordHash: "hash", Role: model.RoleVendor})
	if err != nil {
		t.Fatalf("CreateVendorAccount: %v", err)
	}
	if u.VendorID != v.ID || u.Role != model.RoleVendor {
		t.Errorf("expected login linked to vendor %s, got %+v", v.ID, u)
	}

	// A taken login email leaves no vendor behind.
	if _, err := CreateUser(ctx, database, model.User{Email: "ops@recyclers.example", PasswordHash: "hash", Role: model.RoleStudent}); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	_, _, err = CreateVendorAccount(ctx, database,
		model.Vendor{CompanyName: "Recyclers", Email: "ops@recyclers.example"},
		model.User{Email: "ops@recyclers.example", PasswordHash: "hash", Role: model.RoleVendor})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	if orphan, _ := GetVendorByEmail(ctx, database, "ops@recyclers.example"); orphan != nil {
		t.Errorf("expected the vendor insert to roll back, got %+v", orphan)
	}
}

func TestItemEvents(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	item := reportItem(t, database, "Router", "Other")

	actor := int64(7)
	LogItemEvent(ctx, database, item.ID, model.EventCreated, nil, &actor)
	LogItemEvent(ctx, database, item.ID, model.EventStatusChanged,
		map[string]any{"from": model.ItemStatusReported, "to": model.ItemStatusAwaitingPickup}, nil)

	events, err := ListItemEvents(ctx, database, item.ID)
	if err != nil {
		t.Fatalf("ListItemEvents: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Type != model.EventCreated || events[0].ActorID == nil || *events[0].ActorID != 7 {
		t.Errorf("unexpected first event: %+v", events[0])
	}
	if events[1].Data["to"] != model.ItemStatusAwaitingPickup {
		t.Errorf("expected data to round-trip, got %v", events[1].Data)
	}
	if events[1].ActorID != nil {
		t.Error("expected system event without actor")
	}
}

func TestCampaigns(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	early := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	late := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	CreateCampaign(ctx, database, "Spring drive", early, "")
	CreateCampaign(ctx, database, "Autumn drive", late, "Bring your old phones")

	campaigns, err := ListCampaigns(ctx, database)
	if err != nil {
		t.Fatalf("ListCampaigns: %v", err)
	}
	if len(campaigns) != 2 {
		t.Fatalf("expected 2 campaigns, got %d", len(campaigns))
	}
	if campaigns[0].Title != "Autumn drive" {
		t.Errorf("expected latest campaign first, got %q", campaigns[0].Title)
	}
	if campaigns[0].Description != "Bring your old phones" {
		t.Errorf("unexpected description %q", campaigns[0].Description)
	}
}
