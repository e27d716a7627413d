package lifecycle

import (
	"bytes"
	"context"
	"database/sql"
	"image"
	"image/png"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/odpad/internal/db"
	"github.com/erazemk/odpad/internal/model"
	"github.com/erazemk/odpad/internal/notify"
	"github.com/erazemk/odpad/internal/store"
)

type captured struct {
	mu     sync.Mutex
	events []notify.Event
	notes  []notify.Notification
}

func (c *captured) Record(_ context.Context, ev notify.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
	return nil
}

func (c *captured) Notify(_ context.Context, n notify.Notification) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notes = append(c.notes, n)
	return nil
}

func (c *captured) count(eventType string) int {
	n := 0
	for _, ev := range c.events {
		if ev.Type == eventType {
			n++
		}
	}
	return n
}

type env struct {
	db      *sql.DB
	sink    *captured
	items   *ItemManager
	pickups *PickupManager

	admin, student, vendorUser, otherVendorUser Actor
	vendor, otherVendor                         *model.Vendor
	department                                  *model.Department
}

func newEnv(t *testing.T) *env {
	t.Helper()
	database := db.NewTestDB(t)
	ctx := context.Background()
	sink := &captured{}

	e := &env{
		db:      database,
		sink:    sink,
		items:   &ItemManager{DB: database, Audit: sink},
		pickups: &PickupManager{DB: database, Audit: sink, Notify: sink},
	}

	var err error
	e.department, err = store.CreateDepartment(ctx, database, "Electronics", "Block C")
	require.NoError(t, err)
	e.vendor, err = store.CreateVendor(ctx, database, model.Vendor{CompanyName: "GreenCycle", Email: "ops@greencycle.example"})
	require.NoError(t, err)
	e.otherVendor, err = store.CreateVendor(ctx, database, model.Vendor{CompanyName: "ReTech", Email: "desk@retech.example"})
	require.NoError(t, err)

	e.admin = actorFor(t, database, model.User{Email: "admin@example.com", Role: model.RoleAdmin})
	e.student = actorFor(t, database, model.User{Email: "student@example.com", Name: "Sam", Role: model.RoleStudent, DepartmentID: e.department.ID})
	e.vendorUser = actorFor(t, database, model.User{Email: "ops@greencycle.example", Role: model.RoleVendor})
	// Signs in with a personal address and is linked to the vendor explicitly.
	e.otherVendorUser = actorFor(t, database, model.User{Email: "mira@retech.example", Role: model.RoleVendor, VendorID: e.otherVendor.ID})
	return e
}

func actorFor(t *testing.T, database *sql.DB, u model.User) Actor {
	t.Helper()
	u.PasswordHash = "hash"
	created, err := store.CreateUser(context.Background(), database, u)
	require.NoError(t, err)
	return Actor{UserID: created.ID, Email: created.Email, Role: created.Role}
}

func (e *env) report(t *testing.T, name string) *model.Item {
	t.Helper()
	item, err := e.items.Create(context.Background(), e.student, ItemInput{
		Name: name, Category: "Laptop", DepartmentID: e.department.ID,
	})
	require.NoError(t, err)
	return item
}

func (e *env) schedule(t *testing.T, items ...*model.Item) *model.Pickup {
	t.Helper()
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	p, err := e.pickups.Schedule(context.Background(), e.admin, e.vendor.ID, time.Now().Add(24*time.Hour), ids)
	require.NoError(t, err)
	return p
}

func (e *env) status(t *testing.T, id string) string {
	t.Helper()
	item, err := e.items.Get(context.Background(), id)
	require.NoError(t, err)
	return item.Status
}

func fptr(f float64) *float64 { return &f }
func iptr(i int) *int         { return &i }
func sptr(s string) *string   { return &s }

func TestCreateItem(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	item, err := e.items.Create(ctx, e.student, ItemInput{
		Name: "  Lab laptop ", Category: "Laptop", DepartmentID: e.department.ID,
		Valuation: model.Valuation{
			OriginalPrice: fptr(50000), UsedDuration: fptr(2), UserLifespan: fptr(5),
			Condition: iptr(5), BuildQuality: iptr(5),
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "Lab laptop", item.Name)
	assert.Equal(t, model.ItemStatusReported, item.Status)
	assert.Nil(t, item.Disposition)
	assert.Equal(t, "student@example.com", item.ReportedBy)
	assert.Equal(t, "/item/"+item.ID, item.QRCodeURL)
	require.NotNil(t, item.CurrentPrice)
	assert.Equal(t, 32000.0, *item.CurrentPrice)
	assert.Equal(t, 1, e.sink.count(model.EventCreated))
}

func TestCreateItemKeepsDisposition(t *testing.T) {
	e := newEnv(t)

	item, err := e.items.Create(context.Background(), e.student, ItemInput{
		Name: "Battery pack", Category: "Battery", DepartmentID: e.department.ID,
		Disposition: sptr(model.DispositionHazardous),
	})
	require.NoError(t, err)
	require.NotNil(t, item.Disposition)
	assert.Equal(t, model.DispositionHazardous, *item.Disposition)
	assert.Nil(t, item.CurrentPrice, "no price without an original price")
}

func TestCreateItemDropsInvalidValuation(t *testing.T) {
	e := newEnv(t)

	item, err := e.items.Create(context.Background(), e.student, ItemInput{
		Name: "Phone", Category: "Smartphone", DepartmentID: e.department.ID,
		Valuation: model.Valuation{
			OriginalPrice: fptr(20000), UsedDuration: fptr(-1), Condition: iptr(9), BuildQuality: iptr(0),
		},
	})
	require.NoError(t, err)

	assert.Nil(t, item.UsedDuration)
	assert.Nil(t, item.Condition)
	assert.Nil(t, item.BuildQuality)
	require.NotNil(t, item.CurrentPrice)
	assert.GreaterOrEqual(t, *item.CurrentPrice, 0.05*20000)
}

func TestCreateItemValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	cases := map[string]ItemInput{
		"missing name":       {Category: "Laptop", DepartmentID: e.department.ID},
		"unknown category":   {Name: "Thing", Category: "Toaster", DepartmentID: e.department.ID},
		"no department":      {Name: "Thing", Category: "Laptop"},
		"unknown department": {Name: "Thing", Category: "Laptop", DepartmentID: e.department.ID + 100},
		"bad disposition":    {Name: "Thing", Category: "Laptop", DepartmentID: 1, Disposition: sptr("Compost")},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := e.items.Create(ctx, e.student, in)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}

	_, err := e.items.Create(ctx, e.vendorUser, ItemInput{Name: "x", Category: "Laptop", DepartmentID: 1})
	assert.ErrorIs(t, err, ErrForbidden)

	items, err := e.items.List(ctx, store.ItemFilter{})
	require.NoError(t, err)
	assert.Empty(t, items, "rejected reports leave nothing behind")
}

func TestListIsStable(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.report(t, "A")
	e.report(t, "B")
	e.report(t, "C")

	first, err := e.items.List(ctx, store.ItemFilter{})
	require.NoError(t, err)
	second, err := e.items.List(ctx, store.ItemFilter{})
	require.NoError(t, err)

	require.Len(t, first, 3)
	assert.Equal(t, first, second)
	assert.Equal(t, "C", first[0].Name)

	_, err = e.items.List(ctx, store.ItemFilter{Status: "Lost"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUpdateStatusFollowsTransitionTable(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	item := e.report(t, "Monitor")

	_, err := e.items.UpdateStatus(ctx, e.admin, item.ID, model.ItemStatusCollected)
	assert.ErrorIs(t, err, ErrValidation, "Reported -> Collected skips scheduling")

	_, err = e.items.UpdateStatus(ctx, e.admin, item.ID, "Lost")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = e.items.UpdateStatus(ctx, e.student, item.ID, model.ItemStatusAwaitingPickup)
	assert.ErrorIs(t, err, ErrForbidden)

	got, err := e.items.UpdateStatus(ctx, e.admin, item.ID, model.ItemStatusAwaitingPickup)
	require.NoError(t, err)
	assert.Equal(t, model.ItemStatusAwaitingPickup, got.Status)
	assert.Equal(t, 1, e.sink.count(model.EventStatusChanged))

	_, err = e.items.UpdateStatus(ctx, e.admin, "missing", model.ItemStatusScheduled)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateDisposition(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	item := e.report(t, "Fridge")

	got, err := e.items.UpdateDisposition(ctx, e.admin, item.ID, model.DispositionReusable)
	require.NoError(t, err)
	require.NotNil(t, got.Disposition)
	assert.Equal(t, model.DispositionReusable, *got.Disposition)

	_, err = e.items.UpdateDisposition(ctx, e.admin, item.ID, "Landfill")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = e.items.UpdateDisposition(ctx, e.admin, "missing", model.DispositionReusable)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdatePatch(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	item := e.report(t, "TV")

	got, err := e.items.Update(ctx, e.admin, item.ID, ItemUpdate{
		Description: sptr("cracked panel"), Category: sptr("TV"), Status: sptr(model.ItemStatusAwaitingPickup),
	})
	require.NoError(t, err)
	assert.Equal(t, "cracked panel", got.Description)
	assert.Equal(t, "TV", got.Category)
	assert.Equal(t, model.ItemStatusAwaitingPickup, got.Status)

	// An illegal status leaves the other fields untouched.
	_, err = e.items.Update(ctx, e.admin, item.ID, ItemUpdate{
		Description: sptr("changed"), Status: sptr(model.ItemStatusRecycled),
	})
	assert.ErrorIs(t, err, ErrValidation)
	got, _ = e.items.Get(ctx, item.ID)
	assert.Equal(t, "cracked panel", got.Description)

	_, err = e.items.Update(ctx, e.admin, item.ID, ItemUpdate{})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = e.items.Update(ctx, e.admin, "missing", ItemUpdate{Description: sptr("x")})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = e.items.Update(ctx, e.vendorUser, item.ID, ItemUpdate{Description: sptr("x")})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestUpdateCannotUndoScheduling(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	item := e.report(t, "Tablet")
	e.schedule(t, item)

	_, err := e.items.Update(ctx, e.admin, item.ID, ItemUpdate{Status: sptr(model.ItemStatusReported)})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = e.items.UpdateStatus(ctx, e.admin, item.ID, model.ItemStatusReported)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, model.ItemStatusScheduled, e.status(t, item.ID))
}

func TestUpdateCannotScheduleWithoutPickup(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	item := e.report(t, "Laptop")

	_, err := e.items.UpdateStatus(ctx, e.admin, item.ID, model.ItemStatusScheduled)
	assert.ErrorIs(t, err, ErrValidation)
	_, err = e.items.Update(ctx, e.admin, item.ID, ItemUpdate{Status: sptr(model.ItemStatusScheduled)})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = e.items.UpdateStatus(ctx, e.admin, item.ID, model.ItemStatusAwaitingPickup)
	require.NoError(t, err)
	_, err = e.items.UpdateStatus(ctx, e.admin, item.ID, model.ItemStatusScheduled)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, model.ItemStatusAwaitingPickup, e.status(t, item.ID))

	// The item is still free to join a real pickup.
	p := e.schedule(t, item)
	assert.Equal(t, []string{item.ID}, p.ItemIDs)
	assert.Equal(t, model.ItemStatusScheduled, e.status(t, item.ID))
}

func TestScheduleSetsItemsAndLinks(t *testing.T) {
	e := newEnv(t)
	a, b, c := e.report(t, "A"), e.report(t, "B"), e.report(t, "C")

	p := e.schedule(t, a, b, c)
	assert.Equal(t, model.PickupStatusScheduled, p.Status)
	assert.Len(t, p.ItemIDs, 3)
	assert.Equal(t, e.admin.UserID, p.AdminID)
	for _, it := range []*model.Item{a, b, c} {
		assert.Equal(t, model.ItemStatusScheduled, e.status(t, it.ID))
	}
	assert.Equal(t, 3, e.sink.count(model.EventScheduled))
	require.Len(t, e.sink.notes, 1)
	assert.Equal(t, notify.TargetVendor, e.sink.notes[0].Target)
	assert.Equal(t, e.vendor.ID, e.sink.notes[0].VendorID)
}

func TestScheduleValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	item := e.report(t, "A")
	when := time.Now().Add(time.Hour)

	_, err := e.pickups.Schedule(ctx, e.student, e.vendor.ID, when, []string{item.ID})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = e.pickups.Schedule(ctx, e.admin, e.vendor.ID, when, nil)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = e.pickups.Schedule(ctx, e.admin, e.vendor.ID, when, []string{item.ID, item.ID})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = e.pickups.Schedule(ctx, e.admin, e.vendor.ID, time.Time{}, []string{item.ID})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = e.pickups.Schedule(ctx, e.admin, "no-such-vendor", when, []string{item.ID})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = e.pickups.Schedule(ctx, e.admin, e.vendor.ID, when, []string{item.ID, "missing"})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, model.ItemStatusReported, e.status(t, item.ID), "failed schedule has no partial effect")

	e.schedule(t, item)
	_, err = e.pickups.Schedule(ctx, e.admin, e.otherVendor.ID, when, []string{item.ID})
	assert.Error(t, err, "an item cannot join a second open pickup")
}

func TestRejectRevertsEveryItem(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a, b := e.report(t, "A"), e.report(t, "B")
	p := e.schedule(t, a, b)

	got, err := e.pickups.Respond(ctx, e.vendorUser, p.ID, model.ResponseRejected, "no truck")
	require.NoError(t, err)
	assert.Equal(t, model.PickupStatusVendorRejected, got.Status)
	require.NotNil(t, got.VendorResponse)
	assert.Equal(t, model.ResponseRejected, *got.VendorResponse)
	assert.NotNil(t, got.VendorResponseDate)
	assert.Equal(t, "no truck", got.VendorResponseNote)

	for _, it := range []*model.Item{a, b} {
		assert.Equal(t, model.ItemStatusReported, e.status(t, it.ID))
	}
	assert.Equal(t, 2, e.sink.count(model.EventPickupRejected))

	// The rejected items can be offered to another vendor.
	_, err = e.pickups.Schedule(ctx, e.admin, e.otherVendor.ID, time.Now(), []string{a.ID, b.ID})
	assert.NoError(t, err)
}

func TestAcceptLeavesItemsScheduled(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a, b := e.report(t, "A"), e.report(t, "B")
	p := e.schedule(t, a, b)

	got, err := e.pickups.Respond(ctx, e.vendorUser, p.ID, model.ResponseAccepted, "")
	require.NoError(t, err)
	assert.Equal(t, model.PickupStatusVendorAccepted, got.Status)
	for _, it := range []*model.Item{a, b} {
		assert.Equal(t, model.ItemStatusScheduled, e.status(t, it.ID))
	}

	_, err = e.pickups.Respond(ctx, e.vendorUser, p.ID, model.ResponseRejected, "")
	assert.ErrorIs(t, err, ErrConflict, "a pickup takes one response")
}

func TestRespondToAnotherVendorsPickup(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	item := e.report(t, "A")
	p := e.schedule(t, item)

	_, err := e.pickups.Respond(ctx, e.otherVendorUser, p.ID, model.ResponseRejected, "")
	assert.ErrorIs(t, err, ErrNotFound)

	views, err := e.pickups.ListAll(ctx, e.admin)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, model.PickupStatusScheduled, views[0].Status)
	assert.Nil(t, views[0].VendorResponse)
	assert.Equal(t, model.ItemStatusScheduled, e.status(t, item.ID))
}

func TestRespondNeedsVendor(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := e.schedule(t, e.report(t, "A"))

	_, err := e.pickups.Respond(ctx, e.admin, p.ID, model.ResponseAccepted, "")
	assert.ErrorIs(t, err, ErrForbidden)

	orphan := actorFor(t, e.db, model.User{Email: "nobody@vendor.example", Role: model.RoleVendor})
	_, err = e.pickups.Respond(ctx, orphan, p.ID, model.ResponseAccepted, "")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = e.pickups.Respond(ctx, e.vendorUser, p.ID, "Maybe", "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestResolveVendorByLink(t *testing.T) {
	e := newEnv(t)

	v, err := e.pickups.ResolveVendor(context.Background(), e.otherVendorUser)
	require.NoError(t, err)
	assert.Equal(t, e.otherVendor.ID, v.ID)
}

func TestCollectWithoutAcceptance(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	item := e.report(t, "A")
	p := e.schedule(t, item)

	c, err := e.pickups.ConfirmCollection(ctx, e.vendorUser, item.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ItemStatusCollected, c.Item.Status)
	assert.Equal(t, p.ID, c.PickupID)
	assert.False(t, c.PickupCompleted)
	assert.Equal(t, 1, e.sink.count(model.EventCollected))

	_, err = e.pickups.ConfirmCollection(ctx, e.student, item.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestCollectCompletesAcceptedPickup(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a, b := e.report(t, "A"), e.report(t, "B")
	p := e.schedule(t, a, b)
	_, err := e.pickups.Respond(ctx, e.vendorUser, p.ID, model.ResponseAccepted, "")
	require.NoError(t, err)

	first, err := e.pickups.ConfirmCollection(ctx, e.vendorUser, a.ID)
	require.NoError(t, err)
	assert.False(t, first.PickupCompleted)

	// A vendor PATCH to Collected takes the same path.
	_, err = e.items.Update(ctx, e.vendorUser, b.ID, ItemUpdate{Status: sptr(model.ItemStatusCollected)})
	require.NoError(t, err)

	views, err := e.pickups.ListForVendor(ctx, e.vendorUser)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, model.PickupStatusCompleted, views[0].Status)
}

func TestCollectRequiresScheduledItem(t *testing.T) {
	e := newEnv(t)
	item := e.report(t, "A")

	_, err := e.pickups.ConfirmCollection(context.Background(), e.admin, item.ID)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = e.pickups.ConfirmCollection(context.Background(), e.admin, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFullLifecycle(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	item := e.report(t, "Server")
	p := e.schedule(t, item)
	_, err := e.pickups.Respond(ctx, e.vendorUser, p.ID, model.ResponseAccepted, "")
	require.NoError(t, err)
	_, err = e.pickups.ConfirmCollection(ctx, e.vendorUser, item.ID)
	require.NoError(t, err)

	got, err := e.items.UpdateStatus(ctx, e.admin, item.ID, model.ItemStatusRefurbished)
	require.NoError(t, err)
	assert.Equal(t, model.ItemStatusRefurbished, got.Status)
	assert.NotNil(t, got.DisposedAt)

	_, err = e.items.UpdateStatus(ctx, e.admin, item.ID, model.ItemStatusRecycled)
	assert.ErrorIs(t, err, ErrValidation, "terminal states do not move")
}

func TestListViewsForVendor(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.schedule(t, e.report(t, "Mine"))

	views, err := e.pickups.ListForVendor(ctx, e.vendorUser)
	require.NoError(t, err)
	require.Len(t, views, 1)
	require.Len(t, views[0].Items, 1)
	assert.Equal(t, "Sam", views[0].Items[0].ReporterName)
	assert.Equal(t, "Electronics", views[0].Items[0].DepartmentName)

	others, err := e.pickups.ListForVendor(ctx, e.otherVendorUser)
	require.NoError(t, err)
	assert.Empty(t, others)

	_, err = e.pickups.ListAll(ctx, e.vendorUser)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestEvents(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	audited := &ItemManager{DB: e.db, Audit: notify.StoreRecorder{DB: e.db}}

	item, err := audited.Create(ctx, e.student, ItemInput{Name: "Printer", Category: "Other", DepartmentID: e.department.ID})
	require.NoError(t, err)

	_, err = audited.RecordEvent(ctx, e.admin, item.ID, "inspected", map[string]any{"by": "lab"})
	require.NoError(t, err)

	events, err := audited.ListEvents(ctx, item.ID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, model.EventCreated, events[0].Type)
	assert.Equal(t, "inspected", events[1].Type)
	require.NotNil(t, events[1].ActorID)
	assert.Equal(t, e.admin.UserID, *events[1].ActorID)

	_, err = audited.RecordEvent(ctx, e.admin, item.ID, " ", nil)
	assert.ErrorIs(t, err, ErrValidation)
	_, err = audited.ListEvents(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPhoto(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	item := e.report(t, "Camera")

	_, _, err := e.items.GetPhoto(ctx, item.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 8))))
	require.NoError(t, e.items.SetPhoto(ctx, e.student, item.ID, &buf))

	data, mime, err := e.items.GetPhoto(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", mime)
	assert.NotEmpty(t, data)

	err = e.items.SetPhoto(ctx, e.student, item.ID, strings.NewReader("plain text"))
	assert.ErrorIs(t, err, ErrValidation)
}
