package importer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	patentapp "github.com/ipfolio/ipfolio/internal/application/patent"
	"github.com/ipfolio/ipfolio/internal/domain/catalog"
	domain "github.com/ipfolio/ipfolio/internal/domain/patent"
	"github.com/ipfolio/ipfolio/internal/domain/user"
	"github.com/ipfolio/ipfolio/internal/infrastructure/monitoring/logging"
	"github.com/ipfolio/ipfolio/internal/infrastructure/monitoring/prometheus"
	"github.com/ipfolio/ipfolio/pkg/errors"
)

type stubCountries struct{ catalog.CountryRepository }

func (stubCountries) List(context.Context) ([]catalog.Country, error) { return testCountries(), nil }

type stubStatuses struct{ catalog.StatusRepository }

func (stubStatuses) List(context.Context) ([]catalog.Status, error) { return testStatuses(), nil }

type mockPatents struct {
	mock.Mock
	patentapp.Service
}

func (m *mockPatents) Create(ctx context.Context, p user.Principal, spec domain.CreateSpec) (*domain.Patent, error) {
	args := m.Called(ctx, p, spec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Patent), args.Error(1)
}

type mockArchiver struct {
	mock.Mock
}

func (m *mockArchiver) Archive(ctx context.Context, filename string, data []byte) (string, error) {
	args := m.Called(ctx, filename, data)
	return args.String(0), args.Error(1)
}

func admin() user.Principal {
	return user.Principal{UserID: "admin-1", Role: user.RoleAdmin}.Normalize()
}

func newImportService(patents *mockPatents, archiver Archiver, maxRows int) Service {
	return NewService(patents, stubCountries{}, stubStatuses{}, archiver, maxRows, nil, logging.NewNopLogger())
}

func TestImportFamiliesAttachesClientAndReports(t *testing.T) {
	t.Parallel()

	patents := &mockPatents{}
	patents.On("Create", mock.Anything, mock.Anything, mock.MatchedBy(func(spec domain.CreateSpec) bool {
		return len(spec.ClientIDs) == 1 && spec.ClientIDs[0] == 7
	})).Return(&domain.Patent{ID: 101}, nil).Once()

	svc := newImportService(patents, nil, 0)
	families := []RawFamily{{
		Reference: "FAM-001",
		Title:     "Sensor",
		Rows:      []RawRow{{CountryText: "FR", Status: "Délivré"}},
	}}

	report, err := svc.ImportFamilies(context.Background(), admin(), 7, nil, families)
	require.NoError(t, err)
	require.Len(t, report.Families, 1)
	assert.True(t, report.Families[0].Created)
	assert.Equal(t, int64(101), report.Families[0].PatentID)
	assert.Equal(t, 1, report.Created)
	assert.Zero(t, report.Failed)
	patents.AssertExpectations(t)
}

func TestImportFamiliesFailIndependently(t *testing.T) {
	t.Parallel()

	patents := &mockPatents{}
	patents.On("Create", mock.Anything, mock.Anything, mock.MatchedBy(func(spec domain.CreateSpec) bool {
		return spec.FamilyReference == "FAM-BAD"
	})).Return(nil, errors.Validation("patent aggregate invalid")).Once()
	patents.On("Create", mock.Anything, mock.Anything, mock.Anything).
		Return(&domain.Patent{ID: 102}, nil).Once()

	svc := newImportService(patents, nil, 0)
	families := []RawFamily{
		{Reference: "FAM-BAD", Title: "Broken", Rows: []RawRow{{CountryText: "FR"}}},
		{Reference: "FAM-OK", Title: "Fine", Rows: []RawRow{{CountryText: "US"}}},
	}

	report, err := svc.ImportFamilies(context.Background(), admin(), 0, nil, families)
	require.NoError(t, err)
	require.Len(t, report.Families, 2)
	assert.False(t, report.Families[0].Created)
	assert.NotEmpty(t, report.Families[0].Error)
	assert.True(t, report.Families[1].Created)
	assert.Equal(t, 1, report.Created)
	assert.Equal(t, 1, report.Failed)
}

func TestImportFamiliesDenialStopsBatch(t *testing.T) {
	t.Parallel()

	patents := &mockPatents{}
	patents.On("Create", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New(errors.ErrCodeWriteDenied, "write access denied")).Once()

	svc := newImportService(patents, nil, 0)
	families := []RawFamily{
		{Reference: "A", Rows: []RawRow{{CountryText: "FR"}}},
		{Reference: "B", Rows: []RawRow{{CountryText: "US"}}},
	}

	_, err := svc.ImportFamilies(context.Background(), admin(), 0, nil, families)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeWriteDenied, errors.GetCode(err))
	patents.AssertNumberOfCalls(t, "Create", 1)
}

func TestImportFamiliesRowLimit(t *testing.T) {
	t.Parallel()

	svc := newImportService(&mockPatents{}, nil, 1)
	families := []RawFamily{{Rows: []RawRow{{}, {}}}}

	_, err := svc.ImportFamilies(context.Background(), admin(), 0, nil, families)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeImportPayloadTooLarge, errors.GetCode(err))
}

func TestImportFamiliesArchivesUpload(t *testing.T) {
	t.Parallel()

	patents := &mockPatents{}
	patents.On("Create", mock.Anything, mock.Anything, mock.Anything).
		Return(&domain.Patent{ID: 103}, nil)

	archiver := &mockArchiver{}
	archiver.On("Archive", mock.Anything, "families.xlsx", []byte("bytes")).
		Return("imports/2026/families.xlsx", nil).Once()

	svc := newImportService(patents, archiver, 0)
	upload := &Upload{Filename: "families.xlsx", Data: []byte("bytes")}

	report, err := svc.ImportFamilies(context.Background(), admin(), 0, upload,
		[]RawFamily{{Reference: "A", Title: "T", Rows: []RawRow{{CountryText: "FR"}}}})
	require.NoError(t, err)
	assert.Equal(t, "imports/2026/families.xlsx", report.ArchiveRef)
	archiver.AssertExpectations(t)
}

func TestImportFamiliesArchiveFailureIsNotFatal(t *testing.T) {
	t.Parallel()

	patents := &mockPatents{}
	patents.On("Create", mock.Anything, mock.Anything, mock.Anything).
		Return(&domain.Patent{ID: 104}, nil)

	archiver := &mockArchiver{}
	archiver.On("Archive", mock.Anything, mock.Anything, mock.Anything).
		Return("", errors.New(errors.ErrCodeImportArchiveFailed, "bucket unreachable"))

	svc := newImportService(patents, archiver, 0)
	upload := &Upload{Filename: "families.xlsx", Data: []byte("bytes")}

	report, err := svc.ImportFamilies(context.Background(), admin(), 0, upload,
		[]RawFamily{{Reference: "A", Title: "T", Rows: []RawRow{{CountryText: "FR"}}}})
	require.NoError(t, err)
	assert.Empty(t, report.ArchiveRef)
	assert.Equal(t, 1, report.Created)
}

func TestReconcileFamilyOperation(t *testing.T) {
	t.Parallel()

	svc := newImportService(&mockPatents{}, nil, 0)
	spec, unresolved, err := svc.ReconcileFamily(context.Background(), RawFamily{
		Reference: "FAM-D",
		Title:     "Heuristic",
		Rows:      []RawRow{{CountryText: "United States\nUS20231234"}},
	})
	require.NoError(t, err)
	require.Len(t, spec.Deposits, 1)
	require.NotNil(t, spec.Deposits[0].CountryID)
	assert.Equal(t, int64(2), *spec.Deposits[0].CountryID)
	assert.Empty(t, unresolved)
}

func TestImportFamiliesRecordsBatchMetrics(t *testing.T) {
	t.Parallel()

	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace: "importsvc",
		Subsystem: "test",
	}, logging.NewNopLogger())
	require.NoError(t, err)
	m := prometheus.NewAppMetrics(collector)

	patents := &mockPatents{}
	patents.On("Create", mock.Anything, mock.Anything, mock.Anything).
		Return(&domain.Patent{ID: 101}, nil).Once()

	svc := NewService(patents, stubCountries{}, stubStatuses{}, nil, 0, m, logging.NewNopLogger())
	families := []RawFamily{{
		Reference: "FAM-001",
		Title:     "Sensor",
		Rows:      []RawRow{{CountryText: "Atlantis", Status: "Délivré"}},
	}}

	_, err = svc.ImportFamilies(context.Background(), admin(), 7, nil, families)
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rr.Body.String()

	assert.Contains(t, body, `importsvc_test_import_batches_total{result="ok"} 1`)
	assert.Contains(t, body, `importsvc_test_import_families_total{result="created"} 1`)
	assert.Contains(t, body, `importsvc_test_import_unresolved_total{field="country"} 1`)
}
