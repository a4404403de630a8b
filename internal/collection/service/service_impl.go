package service

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/dunning/internal/clock"
	"github.com/smallbiznis/dunning/internal/collection/aggregate"
	"github.com/smallbiznis/dunning/internal/collection/domain"
	"github.com/smallbiznis/dunning/internal/collection/normalize"
	"github.com/smallbiznis/dunning/internal/collection/reconcile"
	"github.com/smallbiznis/dunning/internal/config"
	"github.com/smallbiznis/dunning/internal/export"
	obscontext "github.com/smallbiznis/dunning/internal/observability/context"
	"github.com/smallbiznis/dunning/internal/observability/metrics"
	"github.com/smallbiznis/dunning/pkg/log/ctxlogger"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	outcomeSuccess = "success"
	outcomeSchema  = "schema_error"
	outcomeFailure = "failure"
)

type Params struct {
	fx.In

	Log     *zap.Logger
	Metrics *metrics.Metrics `optional:"true"`
	GenID   *snowflake.Node
	Clock   clock.Clock
	Config  *config.CollectionConfigHolder
}

type Service struct {
	log     *zap.Logger
	metrics *metrics.Metrics
	genID   *snowflake.Node
	clock   clock.Clock
	config  *config.CollectionConfigHolder
}

func NewService(p Params) domain.Service {
	return &Service{
		log:     p.Log.Named("collection.service"),
		metrics: p.Metrics,
		genID:   p.GenID,
		clock:   p.Clock,
		config:  p.Config,
	}
}

// normalizer is rebuilt per call so reloaded header aliases apply immediately.
func (s *Service) normalizer() *normalize.Normalizer {
	aliases := s.config.Get().HeaderAliases
	if len(aliases) == 0 {
		return normalize.New()
	}
	extra := make(map[domain.Field][]string, len(aliases))
	for field, headers := range aliases {
		extra[domain.Field(field)] = headers
	}
	return normalize.New(normalize.WithAliases(extra))
}

func (s *Service) LoadDebtBase(ctx context.Context, session domain.Session, raw domain.Table) (domain.DebtBaseSummary, error) {
	ctx = ctxlogger.ContextWithOperation(ctx, "load_debt_base")
	log := ctxlogger.WithContext(ctx, s.log)

	debts, err := s.normalizer().Debts(raw)
	if err != nil {
		s.recordUploadError(ctx, domain.TableKindDebts, err)
		log.Warn("debt base rejected", zap.Error(err))
		return domain.DebtBaseSummary{}, err
	}
	session.LoadDebts(debts)
	s.metrics.RecordUpload(ctx, string(domain.TableKindDebts), outcomeSuccess)

	summary := summarizeDebts(debts)
	s.recordWarnings(ctx, summary.Warnings)
	log.Info("debt base loaded",
		zap.Int("records", summary.Records),
		zap.Int("periods", summary.Periods),
		zap.Int("warnings", len(debts.Warnings)),
	)
	return summary, nil
}

func (s *Service) DebtBase(ctx context.Context, session domain.Session) (domain.DebtBaseSummary, error) {
	debts, ok := session.Debts()
	if !ok {
		return domain.DebtBaseSummary{}, domain.ErrDebtBaseMissing
	}
	return summarizeDebts(debts), nil
}

func (s *Service) ReplaceDebtBase(ctx context.Context, session domain.Session) {
	session.Clear()
	ctxlogger.WithContext(ctx, s.log).Info("debt base cleared")
}

func (s *Service) CrossCheck(ctx context.Context, session domain.Session, raw domain.Table) (domain.CrossCheckReport, error) {
	ctx = ctxlogger.ContextWithOperation(ctx, "crosscheck")

	debts, ok := session.Debts()
	if !ok {
		return domain.CrossCheckReport{}, domain.ErrDebtBaseMissing
	}

	payments, err := s.normalizer().Payments(raw, domain.PaymentModePeriod)
	if err != nil {
		s.recordUploadError(ctx, domain.TableKindPayments, err)
		s.metrics.RecordReconciliation(ctx, outcomeFailure, 0)
		return domain.CrossCheckReport{}, err
	}
	s.metrics.RecordUpload(ctx, string(domain.TableKindPayments), outcomeSuccess)

	result, err := reconcile.CrossCheck(debts, payments)
	if err != nil {
		s.metrics.RecordReconciliation(ctx, outcomeFailure, 0)
		return domain.CrossCheckReport{}, fmt.Errorf("crosscheck: %w", err)
	}

	result.RunID = s.genID.Generate().String()
	ctx = obscontext.WithRunID(ctx, result.RunID)
	if err := session.StoreResult(debts.Generation, result); err != nil {
		s.metrics.RecordReconciliation(ctx, outcomeFailure, 0)
		ctxlogger.WithContext(ctx, s.log).Warn("crosscheck discarded, debt base changed", zap.Error(err))
		return domain.CrossCheckReport{}, err
	}

	warnings := domain.SummarizeWarnings(payments.Warnings)
	s.recordWarnings(ctx, warnings)
	s.metrics.RecordReconciliation(ctx, outcomeSuccess, len(result.Cases))

	ctxlogger.WithContext(ctx, s.log).Info("crosscheck finished",
		zap.String("run_id", result.RunID),
		zap.Int("cases", result.Totals.Cases),
		zap.Int("payments", len(payments.Records)),
		zap.String("effectiveness", result.Totals.Effectiveness.String()),
	)

	return domain.CrossCheckReport{
		RunID:      result.RunID,
		Payments:   len(payments.Records),
		Totals:     result.Totals,
		Warnings:   warnings,
		FinishedAt: s.clock.Now(),
	}, nil
}

func (s *Service) Report(ctx context.Context, session domain.Session, req domain.ReportRequest) (domain.DashboardReport, error) {
	result, ok := session.Result()
	if !ok {
		return domain.DashboardReport{}, domain.ErrNoResult
	}
	if req.Filter.Status != "" && !req.Filter.Status.Valid() {
		return domain.DashboardReport{}, domain.ErrInvalidStatus
	}

	limits := s.config.Get().TopN
	topN := req.TopN
	switch {
	case topN == 0:
		topN = limits.Dashboard
	case topN < 0:
		return domain.DashboardReport{}, domain.ErrInvalidTopN
	}

	filtered := aggregate.Apply(result.Cases, req.Filter)
	top := aggregate.TopPending(filtered, topN)
	highlights := aggregate.TopPending(filtered, limits.Summary)

	return domain.DashboardReport{
		RunID:           result.RunID,
		Totals:          result.Totals,
		Filtered:        aggregate.Totals(filtered),
		Filter:          req.Filter,
		Facets:          aggregate.FacetsOf(result.Cases),
		ByPeriod:        aggregate.ByPeriod(filtered),
		ByType:          aggregate.ByType(filtered),
		Top:             top,
		TopTotal:        pendingTotal(top),
		Highlights:      highlights,
		HighlightsTotal: pendingTotal(highlights),
		Detail:          filtered,
		EmptyTop:        len(top) == 0,
		Generated:       s.clock.Now(),
	}, nil
}

func pendingTotal(cases []domain.ReconciledCase) decimal.Decimal {
	total := decimal.Zero
	for _, c := range cases {
		total = total.Add(c.PendingBalance)
	}
	return total
}

func (s *Service) ReportDocument(ctx context.Context, session domain.Session, req domain.ReportRequest, format domain.ReportFormat) (domain.ExportFile, error) {
	report, err := s.Report(ctx, session, req)
	if err != nil {
		return domain.ExportFile{}, err
	}

	var data []byte
	switch format {
	case domain.ReportFormatXLSX:
		data, err = export.Workbook(report)
	case domain.ReportFormatPDF:
		data, err = export.SummaryPDF(report)
	default:
		return domain.ExportFile{}, domain.ErrUnsupportedReportFormat
	}
	if err != nil {
		return domain.ExportFile{}, fmt.Errorf("render %s report: %w", format, err)
	}

	s.metrics.RecordExport(ctx, string(format))
	return domain.ExportFile{
		Name: fmt.Sprintf("reporte_cobranza_%s.%s", report.RunID, format),
		Rows: len(report.Detail),
		Data: data,
	}, nil
}

func (s *Service) Contacts(ctx context.Context, req domain.ContactRequest) (domain.ContactReport, error) {
	ctx = ctxlogger.ContextWithOperation(ctx, "contacts")
	n := s.normalizer()

	subscribers, err := n.Subscribers(req.Subscribers)
	if err != nil {
		s.recordUploadError(ctx, domain.TableKindSubscribers, err)
		return domain.ContactReport{}, err
	}
	payments, err := n.Payments(req.Payments, domain.PaymentModeAccount)
	if err != nil {
		s.recordUploadError(ctx, domain.TableKindPayments, err)
		return domain.ContactReport{}, err
	}

	var debts domain.DebtTable
	if req.Debts != nil {
		debts, err = n.Debts(*req.Debts)
		if err != nil {
			s.recordUploadError(ctx, domain.TableKindDebts, err)
			return domain.ContactReport{}, err
		}
	}

	profiles := reconcile.Classify(debts, payments, subscribers)
	rows := reconcile.ContactList(profiles, req.Filter)

	all := make([]domain.Warning, 0, len(subscribers.Warnings)+len(payments.Warnings)+len(debts.Warnings))
	all = append(all, subscribers.Warnings...)
	all = append(all, payments.Warnings...)
	all = append(all, debts.Warnings...)
	warnings := domain.SummarizeWarnings(all)
	s.recordWarnings(ctx, warnings)

	counts := make(map[domain.Classification]int)
	for _, row := range rows {
		counts[row.Classification]++
	}
	for c, count := range counts {
		s.metrics.RecordContactRows(ctx, string(c), count)
	}

	ctxlogger.WithContext(ctx, s.log).Info("contact list built",
		zap.Int("subscribers", len(subscribers.Records)),
		zap.Int("rows", len(rows)),
		zap.Bool("with_debts", req.Debts != nil),
	)

	return domain.ContactReport{
		Rows:            rows,
		Subscribers:     len(subscribers.Records),
		Classifications: aggregate.ByClassification(profiles),
		Warnings:        warnings,
	}, nil
}

func (s *Service) ExportContacts(ctx context.Context, req domain.ContactRequest, exp domain.ExportRequest) (domain.ExportBundle, error) {
	cfg := s.config.Get().Export
	if exp.Parts == 0 {
		exp.Parts = 1
	}
	if exp.Parts < 1 || exp.Parts > cfg.MaxParts {
		return domain.ExportBundle{}, domain.ErrInvalidChunkCount
	}
	if exp.Prefix == "" {
		exp.Prefix = cfg.DefaultPrefix
	}

	report, err := s.Contacts(ctx, req)
	if err != nil {
		return domain.ExportBundle{}, err
	}

	files, err := export.ContactFiles(report.Rows, exp, cfg.SeparatorRune())
	if err != nil {
		return domain.ExportBundle{}, err
	}

	s.metrics.RecordExport(ctx, "csv")
	ctxlogger.WithContext(ctx, s.log).Info("contact export built",
		zap.Int("files", len(files)),
		zap.Int("rows", len(report.Rows)),
		zap.String("split_by", string(exp.SplitBy)),
	)
	return domain.ExportBundle{Files: files, Rows: len(report.Rows)}, nil
}

func (s *Service) recordUploadError(ctx context.Context, kind domain.TableKind, err error) {
	outcome := outcomeFailure
	if _, ok := domain.AsSchemaError(err); ok {
		outcome = outcomeSchema
	}
	s.metrics.RecordUpload(ctx, string(kind), outcome)
}

func (s *Service) recordWarnings(ctx context.Context, warnings []domain.WarningSummary) {
	for _, w := range warnings {
		s.metrics.RecordWarnings(ctx, string(w.Kind), string(w.Code), w.Count)
	}
}

func summarizeDebts(debts domain.DebtTable) domain.DebtBaseSummary {
	total := decimal.Zero
	periods := make(map[string]struct{})
	accounts := make(map[string]struct{})
	for _, d := range debts.Records {
		total = total.Add(d.DebtAmount)
		periods[d.Period] = struct{}{}
		accounts[d.AccountID] = struct{}{}
	}
	return domain.DebtBaseSummary{
		Records:  len(debts.Records),
		Total:    total,
		Periods:  len(periods),
		Accounts: len(accounts),
		Warnings: domain.SummarizeWarnings(debts.Warnings),
	}
}
