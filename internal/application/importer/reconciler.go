package importer

import (
	"context"
	"fmt"
	"strings"
	"time"

	patentapp "github.com/ipfolio/ipfolio/internal/application/patent"
	"github.com/ipfolio/ipfolio/internal/domain/catalog"
	domain "github.com/ipfolio/ipfolio/internal/domain/patent"
	"github.com/ipfolio/ipfolio/internal/domain/user"
	"github.com/ipfolio/ipfolio/internal/infrastructure/monitoring/logging"
	"github.com/ipfolio/ipfolio/internal/infrastructure/monitoring/prometheus"
	"github.com/ipfolio/ipfolio/pkg/errors"
)

// RawRow is one semi-structured spreadsheet row as handed over by the
// external parser. All cells are free text; dates keep their source spelling.
type RawRow struct {
	FamilyReference   string `json:"family_reference"`
	Title             string `json:"title"`
	CountryText       string `json:"country_text"`
	DepositNumber     string `json:"deposit_number"`
	PublicationNumber string `json:"publication_number"`
	GrantNumber       string `json:"grant_number"`
	DepositDate       string `json:"deposit_date"`
	PublicationDate   string `json:"publication_date"`
	GrantDate         string `json:"grant_date"`
	Status            string `json:"status"`
	Comment           string `json:"comment"`
}

// RawFamily groups the rows of one patent family.
type RawFamily struct {
	Reference string   `json:"reference"`
	Title     string   `json:"title"`
	Rows      []RawRow `json:"rows"`
}

// Unresolved names one cell the reconciliation could not map to a catalog id.
// The field stays unset on the produced spec; nothing is rejected.
type Unresolved struct {
	Row   int    `json:"row"`
	Field string `json:"field"`
	Value string `json:"value"`
}

// FamilyReport is the per-family outcome of a batch import.
type FamilyReport struct {
	Reference  string       `json:"reference"`
	PatentID   int64        `json:"patent_id,omitempty"`
	Created    bool         `json:"created"`
	Unresolved []Unresolved `json:"unresolved,omitempty"`
	Error      string       `json:"error,omitempty"`
}

// BatchReport summarizes one import run. Families fail independently; the
// batch itself only fails on authorization or catalog load errors.
type BatchReport struct {
	Families   []FamilyReport `json:"families"`
	Created    int            `json:"created"`
	Failed     int            `json:"failed"`
	ArchiveRef string         `json:"archive_ref,omitempty"`
}

// Upload carries the original spreadsheet bytes for archiving.
type Upload struct {
	Filename string
	Data     []byte
}

// Archiver stores the original upload and returns a storage reference.
// Archiving is best-effort; failures never block the import.
type Archiver interface {
	Archive(ctx context.Context, filename string, data []byte) (string, error)
}

// Service reconciles raw spreadsheet families and feeds them to the patent
// service. Every reconciled family becomes a new aggregate; there is no
// deduplication against existing patents.
type Service interface {
	ReconcileFamily(ctx context.Context, family RawFamily) (domain.CreateSpec, []Unresolved, error)
	ImportFamilies(ctx context.Context, p user.Principal, clientID int64, upload *Upload, families []RawFamily) (*BatchReport, error)
}

type service struct {
	patents   patentapp.Service
	countries catalog.CountryRepository
	statuses  catalog.StatusRepository
	archiver  Archiver
	maxRows   int
	metrics   *prometheus.AppMetrics
	logger    logging.Logger
}

// NewService wires the reconciliation service. archiver may be nil when
// upload archiving is disabled, metrics may be nil; maxRows bounds one batch.
func NewService(
	patents patentapp.Service,
	countries catalog.CountryRepository,
	statuses catalog.StatusRepository,
	archiver Archiver,
	maxRows int,
	metrics *prometheus.AppMetrics,
	logger logging.Logger,
) Service {
	return &service{
		patents:   patents,
		countries: countries,
		statuses:  statuses,
		archiver:  archiver,
		maxRows:   maxRows,
		metrics:   metrics,
		logger:    logger.Named("importer"),
	}
}

func (s *service) ReconcileFamily(ctx context.Context, family RawFamily) (domain.CreateSpec, []Unresolved, error) {
	resolver, matcher, err := s.loadCatalogs(ctx)
	if err != nil {
		return domain.CreateSpec{}, nil, err
	}
	spec, unresolved := reconcile(resolver, matcher, family)
	return spec, unresolved, nil
}

func (s *service) ImportFamilies(ctx context.Context, p user.Principal, clientID int64, upload *Upload, families []RawFamily) (*BatchReport, error) {
	total := 0
	for _, f := range families {
		total += len(f.Rows)
	}
	if s.maxRows > 0 && total > s.maxRows {
		return nil, errors.New(errors.ErrCodeImportPayloadTooLarge,
			fmt.Sprintf("import of %d rows exceeds the %d row limit", total, s.maxRows))
	}

	resolver, matcher, err := s.loadCatalogs(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	report := &BatchReport{Families: make([]FamilyReport, 0, len(families))}
	if s.archiver != nil && upload != nil {
		ref, err := s.archiver.Archive(ctx, upload.Filename, upload.Data)
		if err != nil {
			s.logger.Warn("upload archive failed",
				logging.String("filename", upload.Filename),
				logging.Err(err),
			)
		} else {
			report.ArchiveRef = ref
		}
	}

	for _, family := range families {
		spec, unresolved := reconcile(resolver, matcher, family)
		if clientID > 0 {
			spec.ClientIDs = []int64{clientID}
		}
		for _, u := range unresolved {
			prometheus.RecordImportUnresolved(s.metrics, u.Field)
		}

		fr := FamilyReport{Reference: family.Reference, Unresolved: unresolved}
		created, err := s.patents.Create(ctx, p, spec)
		switch {
		case err == nil:
			fr.Created = true
			fr.PatentID = created.ID
			report.Created++
		case isDenial(err):
			// A denied principal is denied for every family; stop the batch
			// before touching the store again.
			return nil, err
		default:
			fr.Error = err.Error()
			report.Failed++
		}
		report.Families = append(report.Families, fr)
	}

	prometheus.RecordImportBatch(s.metrics, report.Created, report.Failed, time.Since(start))
	s.logger.Info("import batch finished",
		logging.Int("families", len(families)),
		logging.Int("created", report.Created),
		logging.Int("failed", report.Failed),
	)
	return report, nil
}

func (s *service) loadCatalogs(ctx context.Context) (*CountryResolver, *StatusMatcher, error) {
	countries, err := s.countries.List(ctx)
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.ErrCodeCatalogLoadFailed, "loading country catalog")
	}
	statuses, err := s.statuses.List(ctx)
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.ErrCodeCatalogLoadFailed, "loading status catalog")
	}
	return NewCountryResolver(countries), NewStatusMatcher(statuses), nil
}

// reconcile builds the create spec for one family. Country and status cells
// that cannot be resolved stay unset and are listed on the returned slice.
func reconcile(resolver *CountryResolver, matcher *StatusMatcher, family RawFamily) (domain.CreateSpec, []Unresolved) {
	spec := domain.CreateSpec{
		FamilyReference: strings.TrimSpace(family.Reference),
		Title:           strings.TrimSpace(family.Title),
	}
	var unresolved []Unresolved

	for i, row := range family.Rows {
		if spec.Title == "" {
			spec.Title = strings.TrimSpace(row.Title)
		}
		if spec.FamilyReference == "" {
			spec.FamilyReference = strings.TrimSpace(row.FamilyReference)
		}

		record := domain.DepositRecord{
			DepositNumber:     collapseSpaces(NormalizeNumber(row.DepositNumber)),
			PublicationNumber: NormalizeNumber(row.PublicationNumber),
			GrantNumber:       NormalizeNumber(row.GrantNumber),
			DepositDate:       ParseDate(row.DepositDate),
			PublicationDate:   ParseDate(row.PublicationDate),
			GrantDate:         ParseDate(row.GrantDate),
			Comment:           strings.TrimSpace(row.Comment),
		}
		if record.DepositNumber == "" {
			record.DepositNumber = DepositNumber(row.CountryText)
		}

		if strings.TrimSpace(row.CountryText) != "" {
			if id, ok := resolver.Resolve(row.CountryText); ok {
				record.CountryID = &id
			} else {
				unresolved = append(unresolved, Unresolved{Row: i, Field: "country", Value: row.CountryText})
			}
		}
		if strings.TrimSpace(row.Status) != "" {
			if id, ok := matcher.Match(row.Status); ok {
				record.StatusID = &id
			} else {
				unresolved = append(unresolved, Unresolved{Row: i, Field: "status", Value: row.Status})
			}
		}

		spec.Deposits = append(spec.Deposits, record)
	}
	return spec, unresolved
}

func isDenial(err error) bool {
	switch errors.GetCode(err) {
	case errors.ErrCodeAccessDenied, errors.ErrCodeWriteDenied, errors.ErrCodeReadDenied:
		return true
	default:
		return false
	}
}
