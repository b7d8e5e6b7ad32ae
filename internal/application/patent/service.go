// Package patent provides the application-level service for the patent
// aggregate: it authorizes every operation, validates aggregates before
// persistence, maintains the country-right derivation, and publishes domain
// events after successful writes.
package patent

import (
	"context"
	"fmt"

	"github.com/ipfolio/ipfolio/internal/application/authz"
	"github.com/ipfolio/ipfolio/internal/domain/catalog"
	"github.com/ipfolio/ipfolio/internal/domain/party"
	domain "github.com/ipfolio/ipfolio/internal/domain/patent"
	"github.com/ipfolio/ipfolio/internal/domain/user"
	"github.com/ipfolio/ipfolio/internal/infrastructure/monitoring/logging"
	"github.com/ipfolio/ipfolio/internal/infrastructure/monitoring/prometheus"
	"github.com/ipfolio/ipfolio/pkg/errors"
	"github.com/ipfolio/ipfolio/pkg/types/common"
)

// EntityPatent is the intent entity name used for authorization.
const EntityPatent = "patent"

// EventPublisher delivers domain events to the message bus. Publishing is
// best-effort; implementations must not block writes indefinitely.
type EventPublisher interface {
	Publish(ctx context.Context, ev domain.Event) error
}

// NopPublisher discards events. Used when messaging is disabled and in tests.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, domain.Event) error { return nil }

// ListInput carries the caller-controlled listing parameters.
type ListInput struct {
	Query string
	Page  common.Pagination
}

// ListResult is one page of patents.
type ListResult = common.PageResponse[*domain.Patent]

// Service is the public contract of the relationship graph manager.
type Service interface {
	Create(ctx context.Context, p user.Principal, spec domain.CreateSpec) (*domain.Patent, error)
	Update(ctx context.Context, p user.Principal, id int64, spec domain.UpdateSpec) (*domain.Patent, error)
	Get(ctx context.Context, p user.Principal, id int64) (*domain.Patent, error)
	List(ctx context.Context, p user.Principal, input ListInput) (*ListResult, error)
	UserCanAccess(ctx context.Context, p user.Principal, id int64) (bool, error)
	Delete(ctx context.Context, p user.Principal, id int64) error
}

type service struct {
	repo      domain.Repository
	directory party.Directory
	countries catalog.CountryRepository
	statuses  catalog.StatusRepository
	publisher EventPublisher
	metrics   *prometheus.AppMetrics
	logger    logging.Logger
}

// NewService wires the patent service. publisher may be a NopPublisher and
// metrics may be nil.
func NewService(
	repo domain.Repository,
	directory party.Directory,
	countries catalog.CountryRepository,
	statuses catalog.StatusRepository,
	publisher EventPublisher,
	metrics *prometheus.AppMetrics,
	logger logging.Logger,
) Service {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	return &service{
		repo:      repo,
		directory: directory,
		countries: countries,
		statuses:  statuses,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger.Named("patent"),
	}
}

// authorize evaluates the rule table and counts the decision.
func (s *service) authorize(p user.Principal, intent authz.Intent) authz.Decision {
	d := authz.Authorize(p, intent)
	prometheus.RecordAuthzDecision(s.metrics, string(p.Role), string(intent.Operation), d.Allowed)
	return d
}

func (s *service) Create(ctx context.Context, p user.Principal, spec domain.CreateSpec) (*domain.Patent, error) {
	intent := authz.Intent{Entity: EntityPatent, Operation: authz.OpCreate}
	if d := s.authorize(p, intent); !d.Allowed {
		return nil, authz.DenialError(p, intent, d)
	}

	violations := spec.Validate()

	agg := &domain.Patent{
		FamilyReference:      spec.FamilyReference,
		Title:                spec.Title,
		Comment:              spec.Comment,
		ClientIDs:            dedupe(spec.ClientIDs),
		InventorIDs:          dedupe(spec.InventorIDs),
		DepositorIDs:         dedupe(spec.DepositorIDs),
		TitleHolderIDs:       dedupe(spec.TitleHolderIDs),
		Deposits:             spec.Deposits,
		InventorCountries:    spec.InventorCountries,
		DepositorCountries:   spec.DepositorCountries,
		TitleHolderCountries: spec.TitleHolderCountries,
	}
	agg.ApplyCountryRights()
	normalizeAssignments(agg.Deposits)

	refViolations, err := s.referentialViolations(ctx, agg)
	if err != nil {
		return nil, err
	}
	violations = append(violations, refViolations...)
	if len(violations) > 0 {
		s.recordInvalid("create", violations)
		return nil, errors.Validation("patent aggregate invalid", violations...)
	}

	if err := s.repo.Create(ctx, agg); err != nil {
		return nil, err
	}
	prometheus.RecordPatentWrite(s.metrics, "create", "ok")

	s.publish(ctx, domain.NewEvent(domain.EventTypeCreated, agg, p.UserID))
	s.logger.Info("patent created",
		logging.Int64("patent_id", agg.ID),
		logging.String("actor", p.UserID),
		logging.Int("deposits", len(agg.Deposits)),
	)
	return agg, nil
}

func (s *service) Update(ctx context.Context, p user.Principal, id int64, spec domain.UpdateSpec) (*domain.Patent, error) {
	intent := authz.Intent{Entity: EntityPatent, Operation: authz.OpUpdate}
	if d := s.authorize(p, intent); !d.Allowed {
		return nil, authz.DenialError(p, intent, d)
	}

	violations := spec.Validate()

	agg, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if spec.FamilyReference != nil {
		agg.FamilyReference = *spec.FamilyReference
	}
	if spec.Title != nil {
		agg.Title = *spec.Title
	}
	if spec.Comment != nil {
		agg.Comment = *spec.Comment
	}
	if spec.ClientIDs != nil {
		agg.ClientIDs = dedupe(spec.ClientIDs)
	}
	if spec.InventorIDs != nil {
		agg.InventorIDs = dedupe(spec.InventorIDs)
	}
	if spec.DepositorIDs != nil {
		agg.DepositorIDs = dedupe(spec.DepositorIDs)
	}
	if spec.TitleHolderIDs != nil {
		agg.TitleHolderIDs = dedupe(spec.TitleHolderIDs)
	}
	if records, replace := spec.Deposits.Records(); replace {
		agg.Deposits = records
	}
	if spec.InventorCountries != nil {
		agg.InventorCountries = spec.InventorCountries
	}
	if spec.DepositorCountries != nil {
		agg.DepositorCountries = spec.DepositorCountries
	}
	if spec.TitleHolderCountries != nil {
		agg.TitleHolderCountries = spec.TitleHolderCountries
	}

	// Deposits are the source of truth for country rights; every structural
	// mutation re-derives the intersection.
	agg.ApplyCountryRights()
	normalizeAssignments(agg.Deposits)

	refViolations, err := s.referentialViolations(ctx, agg)
	if err != nil {
		return nil, err
	}
	violations = append(violations, refViolations...)
	if len(violations) > 0 {
		s.recordInvalid("update", violations)
		return nil, errors.Validation("patent aggregate invalid", violations...)
	}

	if err := s.repo.Update(ctx, agg); err != nil {
		return nil, err
	}
	prometheus.RecordPatentWrite(s.metrics, "update", "ok")

	s.publish(ctx, domain.NewEvent(domain.EventTypeUpdated, agg, p.UserID))
	s.logger.Info("patent updated",
		logging.Int64("patent_id", agg.ID),
		logging.String("actor", p.UserID),
	)
	return agg, nil
}

func (s *service) Get(ctx context.Context, p user.Principal, id int64) (*domain.Patent, error) {
	intent := authz.Intent{Entity: EntityPatent, Operation: authz.OpRead}
	d, err := s.readDecision(ctx, p, &intent, id)
	if err != nil {
		return nil, err
	}
	if !d.Allowed {
		return nil, authz.DenialError(p, intent, d)
	}
	agg, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	prometheus.RecordPatentRead(s.metrics, "get")
	return agg, nil
}

func (s *service) List(ctx context.Context, p user.Principal, input ListInput) (*ListResult, error) {
	intent := authz.Intent{Entity: EntityPatent, Operation: authz.OpRead}
	if p.Role != user.RoleClient {
		if d := s.authorize(p, intent); !d.Allowed {
			return nil, authz.DenialError(p, intent, d)
		}
	}

	filter := domain.ListFilter{
		Query: input.Query,
		Page:  input.Page.Normalize(),
	}
	// Client listings filter by ownership instead of erroring; the predicate
	// is pushed into the query so counts reflect only visible rows.
	if p.Role == user.RoleClient {
		if p.ClientID == nil {
			empty := common.NewPageResponse([]*domain.Patent{}, 0, filter.Page.Page, filter.Page.PageSize)
			return &empty, nil
		}
		filter.ClientID = p.ClientID
	}

	patents, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	prometheus.RecordPatentRead(s.metrics, "list")
	result := common.NewPageResponse(patents, total, filter.Page.Page, filter.Page.PageSize)
	return &result, nil
}

func (s *service) UserCanAccess(ctx context.Context, p user.Principal, id int64) (bool, error) {
	intent := authz.Intent{Entity: EntityPatent, Operation: authz.OpRead}
	d, err := s.readDecision(ctx, p, &intent, id)
	if err != nil {
		return false, err
	}
	return d.Allowed, nil
}

// readDecision evaluates single-resource read access. Client principals need
// the ownership key loaded first; a missing patent denies as non-ownership so
// the boundary's not-found translation applies.
func (s *service) readDecision(ctx context.Context, p user.Principal, intent *authz.Intent, id int64) (authz.Decision, error) {
	if p.Role == user.RoleClient {
		ownerIDs, err := s.repo.ClientIDs(ctx, id)
		if err != nil {
			if errors.IsNotFound(err) {
				return authz.Decision{Reason: authz.DenyNotOwner}, nil
			}
			return authz.Decision{}, err
		}
		intent.OwnerClientIDs = ownerIDs
	}
	return s.authorize(p, *intent), nil
}

// Delete removes an aggregate. The operation is reserved for administrators;
// employees and clients receive the usual denial translation.
func (s *service) Delete(ctx context.Context, p user.Principal, id int64) error {
	intent := authz.Intent{Entity: EntityPatent, Operation: authz.OpDelete}
	d := s.authorize(p, intent)
	if !d.Allowed {
		return authz.DenialError(p, intent, d)
	}
	if !p.IsAdmin() {
		return authz.DenialError(p, intent, authz.Decision{Reason: authz.DenyWrite})
	}

	agg, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	prometheus.RecordPatentWrite(s.metrics, "delete", "ok")

	s.publish(ctx, domain.NewEvent(domain.EventTypeDeleted, agg, p.UserID))
	s.logger.Info("patent deleted",
		logging.Int64("patent_id", id),
		logging.String("actor", p.UserID),
	)
	return nil
}

func (s *service) publish(ctx context.Context, ev domain.Event) {
	err := s.publisher.Publish(ctx, ev)
	prometheus.RecordEventPublished(s.metrics, ev.Type, err == nil)
	if err != nil {
		// Events are best-effort; the write has already committed.
		s.logger.Warn("event publish failed",
			logging.String("event_type", ev.Type),
			logging.Int64("patent_id", ev.PatentID),
			logging.Err(err),
		)
	}
}

// recordInvalid counts a rejected write and each violated rule.
func (s *service) recordInvalid(operation string, violations []errors.FieldViolation) {
	prometheus.RecordPatentWrite(s.metrics, operation, "invalid")
	for _, v := range violations {
		prometheus.RecordValidationFailure(s.metrics, v.Rule)
	}
}

// referentialViolations verifies every id the aggregate references against
// committed store state: parties, cabinets, cabinet-scoped contacts,
// countries and statuses. Violations abort the write; nothing is persisted.
func (s *service) referentialViolations(ctx context.Context, agg *domain.Patent) ([]errors.FieldViolation, error) {
	var out []errors.FieldViolation

	partyChecks := []struct {
		kind  party.Kind
		field string
		ids   []int64
	}{
		{party.KindClient, "client_ids", agg.ClientIDs},
		{party.KindInventor, "inventor_ids", agg.InventorIDs},
		{party.KindDepositor, "depositor_ids", agg.DepositorIDs},
		{party.KindTitleHolder, "title_holder_ids", agg.TitleHolderIDs},
	}
	for _, check := range partyChecks {
		if len(check.ids) == 0 {
			continue
		}
		missing, err := s.directory.Missing(ctx, check.kind, check.ids)
		if err != nil {
			return nil, err
		}
		for _, id := range missing {
			out = append(out, notFoundViolation(check.field, string(check.kind), id))
		}
	}

	var countryIDs, statusIDs, cabinetIDs []int64
	for _, r := range agg.Deposits {
		if r.CountryID != nil {
			countryIDs = append(countryIDs, *r.CountryID)
		}
		if r.StatusID != nil {
			statusIDs = append(statusIDs, *r.StatusID)
		}
		for _, a := range r.AnnuityCabinets {
			cabinetIDs = append(cabinetIDs, a.CabinetID)
		}
		for _, a := range r.ProcedureCabinets {
			cabinetIDs = append(cabinetIDs, a.CabinetID)
		}
	}

	if len(cabinetIDs) > 0 {
		missing, err := s.directory.Missing(ctx, party.KindCabinet, dedupe(cabinetIDs))
		if err != nil {
			return nil, err
		}
		for _, id := range missing {
			out = append(out, notFoundViolation("deposits.cabinets", "cabinet", id))
		}
	}

	for i, r := range agg.Deposits {
		for _, cat := range []struct {
			category    domain.CabinetCategory
			assignments []domain.CabinetAssignment
		}{
			{domain.CategoryAnnuity, r.AnnuityCabinets},
			{domain.CategoryProcedure, r.ProcedureCabinets},
		} {
			for j, a := range cat.assignments {
				if a.CabinetID == 0 || len(a.ContactIDs) == 0 {
					continue
				}
				foreign, err := s.directory.ForeignContacts(ctx, a.CabinetID, a.ContactIDs)
				if err != nil {
					return nil, err
				}
				for _, contactID := range foreign {
					out = append(out, errors.FieldViolation{
						Field:   fmt.Sprintf("deposits[%d].%s_cabinets[%d].contact_ids", i, cat.category, j),
						Rule:    "scoped",
						Message: fmt.Sprintf("contact %d does not belong to cabinet %d", contactID, a.CabinetID),
					})
				}
			}
		}
	}

	if len(countryIDs) > 0 {
		missing, err := s.countries.ExistAll(ctx, dedupe(countryIDs))
		if err != nil {
			return nil, err
		}
		for _, id := range missing {
			out = append(out, notFoundViolation("deposits.country_id", "country", id))
		}
	}
	if len(statusIDs) > 0 {
		missing, err := s.statuses.ExistAll(ctx, dedupe(statusIDs))
		if err != nil {
			return nil, err
		}
		for _, id := range missing {
			out = append(out, notFoundViolation("deposits.status_id", "status", id))
		}
	}

	return out, nil
}

func notFoundViolation(field, kind string, id int64) errors.FieldViolation {
	return errors.FieldViolation{
		Field:   field,
		Rule:    "exists",
		Message: fmt.Sprintf("%s %d does not exist", kind, id),
	}
}

// dedupe returns ids with duplicates removed, preserving first-seen order.
func dedupe(ids []int64) []int64 {
	if ids == nil {
		return nil
	}
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// normalizeAssignments trims duplicate contact ids within each assignment.
func normalizeAssignments(records []domain.DepositRecord) {
	for i := range records {
		for j := range records[i].AnnuityCabinets {
			records[i].AnnuityCabinets[j].ContactIDs = dedupe(records[i].AnnuityCabinets[j].ContactIDs)
		}
		for j := range records[i].ProcedureCabinets {
			records[i].ProcedureCabinets[j].ContactIDs = dedupe(records[i].ProcedureCabinets[j].ContactIDs)
		}
	}
}
