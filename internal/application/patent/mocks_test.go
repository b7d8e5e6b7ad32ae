package patent

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/ipfolio/ipfolio/internal/domain/catalog"
	"github.com/ipfolio/ipfolio/internal/domain/party"
	domain "github.com/ipfolio/ipfolio/internal/domain/patent"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) Create(ctx context.Context, p *domain.Patent) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockRepo) Update(ctx context.Context, p *domain.Patent) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockRepo) GetByID(ctx context.Context, id int64) (*domain.Patent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Patent), args.Error(1)
}

func (m *mockRepo) List(ctx context.Context, filter domain.ListFilter) ([]*domain.Patent, int64, error) {
	args := m.Called(ctx, filter)
	var patents []*domain.Patent
	if args.Get(0) != nil {
		patents = args.Get(0).([]*domain.Patent)
	}
	return patents, args.Get(1).(int64), args.Error(2)
}

func (m *mockRepo) ClientIDs(ctx context.Context, id int64) ([]int64, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *mockRepo) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

type mockDirectory struct {
	mock.Mock
}

func (m *mockDirectory) Missing(ctx context.Context, kind party.Kind, ids []int64) ([]int64, error) {
	args := m.Called(ctx, kind, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *mockDirectory) ForeignContacts(ctx context.Context, cabinetID int64, contactIDs []int64) ([]int64, error) {
	args := m.Called(ctx, cabinetID, contactIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

// permissiveDirectory answers "everything exists, nothing foreign".
func permissiveDirectory() *mockDirectory {
	d := &mockDirectory{}
	d.On("Missing", mock.Anything, mock.Anything, mock.Anything).Return([]int64{}, nil)
	d.On("ForeignContacts", mock.Anything, mock.Anything, mock.Anything).Return([]int64{}, nil)
	return d
}

type mockCountryRepo struct {
	mock.Mock
}

func (m *mockCountryRepo) List(ctx context.Context) ([]catalog.Country, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Country), args.Error(1)
}

func (m *mockCountryRepo) GetByID(ctx context.Context, id int64) (*catalog.Country, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Country), args.Error(1)
}

func (m *mockCountryRepo) GetByAlpha2(ctx context.Context, alpha2 string) (*catalog.Country, error) {
	args := m.Called(ctx, alpha2)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Country), args.Error(1)
}

func (m *mockCountryRepo) ExistAll(ctx context.Context, ids []int64) ([]int64, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

type mockStatusRepo struct {
	mock.Mock
}

func (m *mockStatusRepo) List(ctx context.Context) ([]catalog.Status, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Status), args.Error(1)
}

func (m *mockStatusRepo) GetByID(ctx context.Context, id int64) (*catalog.Status, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Status), args.Error(1)
}

func (m *mockStatusRepo) ExistAll(ctx context.Context, ids []int64) ([]int64, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

// permissiveCatalogs answers "every id exists".
func permissiveCatalogs() (*mockCountryRepo, *mockStatusRepo) {
	c := &mockCountryRepo{}
	c.On("ExistAll", mock.Anything, mock.Anything).Return([]int64{}, nil)
	s := &mockStatusRepo{}
	s.On("ExistAll", mock.Anything, mock.Anything).Return([]int64{}, nil)
	return c, s
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, ev domain.Event) error {
	return m.Called(ctx, ev).Error(0)
}
