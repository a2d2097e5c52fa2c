package resolver_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"servicepulse/backend/internal/models"
	"servicepulse/backend/internal/resolver"
	"servicepulse/backend/internal/storage"
)

type countingPublisher struct {
	topics []string
}

func (p *countingPublisher) Publish(_ context.Context, topic string) {
	p.topics = append(p.topics, topic)
}

func setup(t *testing.T, complaints, orders string) (*resolver.Resolver, *storage.MemoryStore, *countingPublisher) {
	t.Helper()
	s := storage.NewMemoryStore()
	if complaints != "" {
		s.Put(storage.Complaints, complaints)
	}
	if orders != "" {
		s.Put(storage.BulkOrders, orders)
	}
	pub := &countingPublisher{}
	return resolver.New(s, pub), s, pub
}

func resolve(c *models.Complaint) { c.Status = models.StatusResolved }

func TestFindAndUpdate_StandaloneFirstAndSyncsEmbeddedCopy(t *testing.T) {
	ctx := context.Background()
	r, s, pub := setup(t,
		`[{"id":"c1","title":"Leak","status":"in-progress"}]`,
		`[{"id":"bo_1","vendorId":"v1","status":"assigned","complaints":[{"id":"c1","title":"Leak","status":"in-progress"}]}]`,
	)

	ok, err := r.FindAndUpdate(ctx, "c1", resolve)
	require.NoError(t, err)
	assert.True(t, ok)

	complaints := storage.ReadList[models.Complaint](ctx, s, storage.Complaints)
	orders := storage.ReadList[models.BulkOrder](ctx, s, storage.BulkOrders)
	assert.Equal(t, models.StatusResolved, complaints[0].Status)
	assert.Equal(t, models.StatusResolved, orders[0].Complaints[0].Status, "embedded copy must not diverge")
	assert.Equal(t, []string{storage.TopicComplaints}, pub.topics)
}

func TestFindAndUpdate_EmbeddedOnlyComplaint(t *testing.T) {
	ctx := context.Background()
	r, s, _ := setup(t,
		`[]`,
		`[{"id":"bo_1","status":"assigned","complaints":[{"id":"c9","status":"in-progress"},{"id":"c10","status":"resolved"}]}]`,
	)

	ok, err := r.FindAndUpdate(ctx, "c9", resolve)
	require.NoError(t, err)
	assert.True(t, ok)

	orders := storage.ReadList[models.BulkOrder](ctx, s, storage.BulkOrders)
	assert.Equal(t, models.StatusResolved, orders[0].Complaints[0].Status)
	assert.Equal(t, 0, s.Writes(storage.Complaints), "standalone collection must not be touched")
}

func TestFindAndUpdate_NotFoundIsFalseWithoutWrites(t *testing.T) {
	ctx := context.Background()
	r, s, pub := setup(t, `[{"id":"c1"}]`, `[{"id":"bo_1","complaints":[{"id":"c2"}]}]`)

	ok, err := r.FindAndUpdate(ctx, "missing", resolve)

	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, s.Writes(storage.Complaints))
	assert.Equal(t, 0, s.Writes(storage.BulkOrders))
	assert.Empty(t, pub.topics)
}

func TestFindAndUpdate_OnlyFirstOrderIsUpdated(t *testing.T) {
	ctx := context.Background()
	r, s, _ := setup(t, `[]`, `[
		{"id":"bo_1","complaints":[{"id":"c1","status":"in-progress"}]},
		{"id":"bo_2","complaints":[{"id":"c1","status":"in-progress"}]}
	]`)

	ok, err := r.FindAndUpdate(ctx, "c1", resolve)
	require.NoError(t, err)
	require.True(t, ok)

	orders := storage.ReadList[models.BulkOrder](ctx, s, storage.BulkOrders)
	assert.Equal(t, models.StatusResolved, orders[0].Complaints[0].Status)
	assert.Equal(t, models.StatusInProgress, orders[1].Complaints[0].Status)
}

func TestFindAndUpdate_IDCannotBeChanged(t *testing.T) {
	ctx := context.Background()
	r, s, _ := setup(t, `[{"id":"c1"}]`, "")

	_, err := r.FindAndUpdate(ctx, "c1", func(c *models.Complaint) {
		c.ID = "other"
		c.Title = "renamed"
	})
	require.NoError(t, err)

	complaints := storage.ReadList[models.Complaint](ctx, s, storage.Complaints)
	assert.Equal(t, models.FlexID("c1"), complaints[0].ID)
	assert.Equal(t, "renamed", complaints[0].Title)
}

func TestFindAndUpdate_NumericIDsMatchStringLookups(t *testing.T) {
	ctx := context.Background()
	r, _, _ := setup(t, `[{"id":1700000000000,"status":"open"}]`, "")

	ok, err := r.FindAndUpdate(ctx, "1700000000000", resolve)

	require.NoError(t, err)
	assert.True(t, ok)
}

func TestFindAndUpdate_ThenCombinedViewHasOneRecordWithUpdate(t *testing.T) {
	ctx := context.Background()
	r, _, _ := setup(t,
		`[{"id":"c1","status":"open"},{"id":"c2","status":"open"}]`,
		`[{"id":"bo_1","complaints":[{"id":"c1","status":"open"},{"id":"c3","status":"open"}]}]`,
	)

	for _, id := range []models.FlexID{"c1", "c3"} {
		ok, err := r.FindAndUpdate(ctx, id, func(c *models.Complaint) {
			c.Status = models.StatusInProgress
			c.VendorName = "Quick"
		})
		require.NoError(t, err)
		require.True(t, ok)

		var matches []models.Complaint
		for _, c := range r.LoadCombinedComplaints(ctx) {
			if c.ID == id {
				matches = append(matches, c)
			}
		}
		require.Len(t, matches, 1)
		assert.Equal(t, models.StatusInProgress, matches[0].Status)
		assert.Equal(t, "Quick", matches[0].VendorName)
	}
}

func TestLoadCombinedComplaints_CanonicalWinsAndFillsGaps(t *testing.T) {
	ctx := context.Background()
	r, _, _ := setup(t,
		`[{"id":"c1","category":"Plumbing","status":"resolved","title":""}]`,
		`[{"id":"bo_1","vendorId":"v1","complaints":[
			{"id":"c1","category":"Electrical","status":"open","title":"Leak","apartment":"101"},
			{"id":"c2","title":"Fan","status":"open"}
		]}]`,
	)

	combined := r.LoadCombinedComplaints(ctx)
	require.Len(t, combined, 2)

	c1 := combined[0]
	assert.Equal(t, models.FlexID("c1"), c1.ID)
	assert.Equal(t, "Plumbing", c1.Category)
	assert.Equal(t, models.StatusResolved, c1.Status)
	assert.Equal(t, "Leak", c1.Title)
	assert.Equal(t, "101", c1.Apartment)
	assert.Equal(t, "bo_1", c1.BulkOrderID)
	assert.Equal(t, "v1", c1.BulkVendorID)
	assert.Equal(t, models.OriginComplaints, c1.Origin)

	c2 := combined[1]
	assert.Equal(t, models.FlexID("c2"), c2.ID)
	assert.Equal(t, "bo_1", c2.BulkOrderID)
	assert.Equal(t, models.OriginBulk, c2.Origin)
}

func TestLoadCombinedComplaints_KeepsExistingLinkage(t *testing.T) {
	r, _, _ := setup(t,
		`[{"id":"c1","bulkOrderId":"bo_old","bulkVendorId":"v_old"}]`,
		`[{"id":"bo_new","vendorId":"v_new","complaints":[{"id":"c1"}]}]`,
	)

	combined := r.LoadCombinedComplaints(context.Background())

	require.Len(t, combined, 1)
	assert.Equal(t, "bo_old", combined[0].BulkOrderID)
	assert.Equal(t, "v_old", combined[0].BulkVendorID)
}

func TestLoadCombinedComplaints_OrderOfRecords(t *testing.T) {
	r, _, _ := setup(t,
		`[{"id":"b"},{"id":"a"}]`,
		`[{"id":"o1","complaints":[{"id":"z"},{"id":"a"}]},{"id":"o2","complaints":[{"id":"y"},{"id":"z"}]}]`,
	)

	var ids []models.FlexID
	for _, c := range r.LoadCombinedComplaints(context.Background()) {
		ids = append(ids, c.ID)
	}

	assert.Equal(t, []models.FlexID{"b", "a", "z", "y"}, ids)
}

func TestLoadCombinedComplaints_CorruptCollectionsDegradeToEmpty(t *testing.T) {
	r, _, _ := setup(t, `not json`, `{"also":"wrong"}`)

	assert.Empty(t, r.LoadCombinedComplaints(context.Background()))
}

func TestLoadCombinedComplaints_DoesNotAliasStoredRecords(t *testing.T) {
	complaints := []models.Complaint{{ID: "c1", Images: []models.Attachment{{Name: "a.png"}}}}

	combined := resolver.Combine(complaints, nil)
	combined[0].Images[0].Name = "changed.png"

	assert.Equal(t, "a.png", complaints[0].Images[0].Name)
}

func TestRollupBulkOrders_ResolvesWhenLastComplaintCloses(t *testing.T) {
	ctx := context.Background()
	r, s, pub := setup(t, `[]`,
		`[{"id":"bo_1","status":"assigned","complaints":[{"id":"c9","status":"in-progress"},{"id":"c10","status":"completed"}]}]`,
	)

	ok, err := r.FindAndUpdate(ctx, "c9", resolve)
	require.NoError(t, err)
	require.True(t, ok)

	n, err := r.RollupBulkOrders(ctx, "c9")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	orders := storage.ReadList[models.BulkOrder](ctx, s, storage.BulkOrders)
	assert.Equal(t, models.StatusResolved, orders[0].Status)
	assert.NotNil(t, orders[0].ResolvedAt)
	assert.Len(t, pub.topics, 2)
}

func TestRollupBulkOrders_StampsResolverClock(t *testing.T) {
	ctx := context.Background()
	r, s, _ := setup(t, `[{"id":"c1","status":"resolved"}]`,
		`[{"id":"bo_1","status":"assigned","complaints":[{"id":"c1","status":"in-progress"}]}]`,
	)
	stamp := time.Date(2026, 3, 10, 12, 0, 0, 0, time.FixedZone("EET", 2*60*60))
	r.Now = func() time.Time { return stamp }

	n, err := r.RollupBulkOrders(ctx, "c1")
	require.NoError(t, err)
	require.Equal(t, 1, n)

	orders := storage.ReadList[models.BulkOrder](ctx, s, storage.BulkOrders)
	require.NotNil(t, orders[0].ResolvedAt)
	assert.True(t, stamp.Equal(*orders[0].ResolvedAt))
	assert.Equal(t, time.UTC, orders[0].ResolvedAt.Location())
}

func TestRollupBulkOrders_LeavesOrderOpenWhileWorkRemains(t *testing.T) {
	ctx := context.Background()
	r, s, _ := setup(t, `[]`,
		`[{"id":"bo_1","status":"assigned","complaints":[{"id":"c1","status":"resolved"},{"id":"c2","status":"in-progress"}]}]`,
	)

	n, err := r.RollupBulkOrders(ctx, "c1")

	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 0, s.Writes(storage.BulkOrders))
}

func TestRollupBulkOrders_StandaloneStatusIsAuthoritative(t *testing.T) {
	ctx := context.Background()
	r, s, _ := setup(t,
		`[{"id":"c2","status":"resolved"}]`,
		`[{"id":"bo_1","status":"assigned","complaints":[{"id":"c1","status":"resolved"},{"id":"c2","status":"open"}]}]`,
	)

	n, err := r.RollupBulkOrders(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	orders := storage.ReadList[models.BulkOrder](ctx, s, storage.BulkOrders)
	assert.Equal(t, models.StatusResolved, orders[0].Status)
}

func TestAssignVendorMatches(t *testing.T) {
	ref := func(raw string) *models.VendorRef { return models.RawVendorRef(json.RawMessage(raw)) }

	tests := []struct {
		name      string
		candidate *models.VendorRef
		identity  models.Identity
		want      bool
	}{
		{"object by vendor id", ref(`{"vendorId":"v1"}`), models.Identity{VendorID: "v1"}, true},
		{"name does not match email", ref(`{"name":"Bob"}`), models.Identity{Email: "bob@x.com"}, false},
		{"email case-insensitive", ref(`{"email":"Bob@X.com"}`), models.Identity{Email: "bob@x.com"}, true},
		{"name case-insensitive", ref(`{"name":"QUICK fix"}`), models.Identity{Name: "quick FIX"}, true},
		{"bare string matches email", ref(`"bob@x.com"`), models.Identity{Email: "BOB@x.com"}, true},
		{"bare number matches vendor id", ref(`17`), models.Identity{VendorID: "17"}, true},
		{"array with one hit", ref(`["nope",{"vendor_id":"v2"}]`), models.Identity{VendorID: "v2"}, true},
		{"legacy identity id as vendor id", ref(`{"id":"v3"}`), models.Identity{ID: "v3"}, true},
		{"nil reference", nil, models.Identity{VendorID: "v1"}, false},
		{"empty fields never match", ref(`{"vendorId":""}`), models.Identity{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resolver.AssignVendorMatches(tt.candidate, tt.identity))
		})
	}
}

func TestVendorOwns(t *testing.T) {
	me := models.Identity{ID: "u1", Role: models.RoleVendor, VendorID: "v1", Name: "Quick", Email: "q@x.com"}

	assert.True(t, resolver.VendorOwns(models.Complaint{BulkVendorID: "V1"}, me))
	assert.True(t, resolver.VendorOwns(models.Complaint{AssignedVendor: models.NewVendorRef("", "", "q@x.com")}, me))
	assert.True(t, resolver.VendorOwns(models.Complaint{VendorName: "quick"}, me))
	assert.True(t, resolver.VendorOwns(models.Complaint{VendorID: "v1"}, me))
	assert.False(t, resolver.VendorOwns(models.Complaint{BulkVendorID: "v2", VendorName: "Other"}, me))
}
