package complaint_test

import (
	"context"
	"errors"

	"github.com/stretchr/testify/mock"

	"servicepulse/backend/internal/models"
	"servicepulse/backend/internal/storage"
)

// failingStore refuses every save of one collection.
type failingStore struct {
	*storage.MemoryStore
	fail storage.Collection
}

func (f *failingStore) Save(ctx context.Context, c storage.Collection, raw []byte) error {
	if c == f.fail {
		return errors.New("disk full")
	}
	return f.MemoryStore.Save(ctx, c, raw)
}

type recordingPublisher struct {
	topics []string
}

func (p *recordingPublisher) Publish(_ context.Context, topic string) {
	p.topics = append(p.topics, topic)
}

type MockPredictor struct {
	mock.Mock
}

func (m *MockPredictor) Predict(ctx context.Context, title, description string) *models.Prediction {
	args := m.Called(ctx, title, description)
	p, _ := args.Get(0).(*models.Prediction)
	return p
}

type MockUpstream struct {
	mock.Mock
}

func (m *MockUpstream) Enabled() bool { return true }

func (m *MockUpstream) CreateComplaint(ctx context.Context, c models.Complaint) (models.Complaint, error) {
	args := m.Called(ctx, c)
	return args.Get(0).(models.Complaint), args.Error(1)
}

func (m *MockUpstream) UpdateComplaint(ctx context.Context, id models.FlexID, patch map[string]any) (models.Complaint, error) {
	args := m.Called(ctx, id, patch)
	return args.Get(0).(models.Complaint), args.Error(1)
}

func (m *MockUpstream) ListComplaints(ctx context.Context) ([]models.Complaint, error) {
	args := m.Called(ctx)
	list, _ := args.Get(0).([]models.Complaint)
	return list, args.Error(1)
}

func (m *MockUpstream) CreateVendor(ctx context.Context, v models.Vendor) (models.Vendor, error) {
	args := m.Called(ctx, v)
	return args.Get(0).(models.Vendor), args.Error(1)
}

type MockAnnouncer struct {
	mock.Mock
}

func (m *MockAnnouncer) AnnounceAssignment(ctx context.Context, vendor models.Vendor, jobs []models.Complaint) error {
	args := m.Called(ctx, vendor, jobs)
	return args.Error(0)
}
