// Package reports renders finished audits for people: a Markdown executive
// summary converted to HTML, and the PDF export stub.
package reports

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"math"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"auditpro/internal/domain"
	"auditpro/internal/ports"
)

// AuditReader is the slice of the audits service a report needs.
type AuditReader interface {
	Get(ctx context.Context, id string) (ports.AuditDetail, error)
}

type Service struct {
	audits AuditReader
	md     goldmark.Markdown
	log    zerolog.Logger
}

var _ ports.Reports = (*Service)(nil)

func New(audits AuditReader, log zerolog.Logger) *Service {
	return &Service{
		audits: audits,
		md:     goldmark.New(goldmark.WithExtensions(extension.GFM)),
		log:    log.With().Str("component", "reports").Logger(),
	}
}

// HTML renders the executive summary of a session as a standalone page.
func (s *Service) HTML(ctx context.Context, sessionID string) ([]byte, error) {
	d, err := s.audits.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	var body bytes.Buffer
	if err := s.md.Convert([]byte(Markdown(d)), &body); err != nil {
		return nil, fmt.Errorf("markdown convert: %w", err)
	}

	var out bytes.Buffer
	out.WriteString("<!doctype html><html><head><meta charset='utf-8'><title>")
	out.WriteString(html.EscapeString("CRM Audit: " + d.Session.OrgName))
	out.WriteString("</title><style>")
	out.WriteString(reportCSS)
	out.WriteString("</style></head><body><main class='report'>")
	out.Write(body.Bytes())
	out.WriteString("</main></body></html>")
	s.log.Debug().Str("session_id", sessionID).Int("bytes", out.Len()).Msg("report rendered")
	return out.Bytes(), nil
}

// PDF does not render anything yet; it hands back the path a generated
// report would be served from.
func (s *Service) PDF(ctx context.Context, sessionID string) (ports.PDFLink, error) {
	if _, err := s.audits.Get(ctx, sessionID); err != nil {
		return ports.PDFLink{}, err
	}
	return ports.PDFLink{
		DownloadURL: fmt.Sprintf("/api/downloads/audit-report-%s.pdf", sessionID),
		Message:     "PDF report generated successfully",
	}, nil
}

const reportCSS = "body{font-family:system-ui,sans-serif;margin:0;padding:1.5rem;color:#1c1917;} " +
	".report{max-width:960px;margin:0 auto;} " +
	"table{width:100%;border-collapse:collapse;font-size:0.9rem;} " +
	"th,td{border:1px solid #a8a29e;padding:0.35rem 0.5rem;text-align:left;vertical-align:top;} " +
	"thead th{background:#f1f5f9;}"

// Markdown builds the executive summary. Findings are listed in the order
// given, which for AuditDetail is priority order.
func Markdown(d ports.AuditDetail) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# CRM Audit: %s\n\n", inline(d.Session.OrgName))
	fmt.Fprintf(&b, "Status: **%s**  \nCreated: %s\n\n", d.Session.Status, d.Session.CreatedAt.UTC().Format("2006-01-02 15:04 MST"))

	if d.Stage != nil {
		fmt.Fprintf(&b, "## Business stage %d: %s\n\n", d.Stage.Stage, d.Stage.Name)
		fmt.Fprintf(&b, "%s Revenue %s, headcount %s.\n\n", d.Stage.BottomLine, d.Stage.RevenueRange, d.Stage.HeadcountRange)
		for _, a := range d.Stage.ConstraintsAndActions {
			fmt.Fprintf(&b, "- %s\n", a)
		}
		b.WriteString("\n")
	}

	sum := d.Summary
	b.WriteString("## Summary\n\n")
	b.WriteString("| Findings | High | Medium | Low | Hours saved / month | Annual ROI |\n")
	b.WriteString("|---:|---:|---:|---:|---:|---:|\n")
	fmt.Fprintf(&b, "| %d | %d | %d | %d | %s | %s |\n\n",
		sum.TotalFindings, sum.HighImpactCount, sum.MediumImpactCount, sum.LowImpactCount,
		hours(sum.TotalTimeSavingsHours), dollars(sum.TotalAnnualROI))

	if len(sum.CategoryBreakdown) > 0 {
		b.WriteString("| Category | Findings | Hours / month | Annual ROI |\n")
		b.WriteString("|---|---:|---:|---:|\n")
		for _, cat := range categoryOrder(sum.CategoryBreakdown) {
			c := sum.CategoryBreakdown[cat]
			fmt.Fprintf(&b, "| %s | %d | %s | %s |\n", cell(cat), c.Count, hours(c.Savings), dollars(c.ROI))
		}
		b.WriteString("\n")
	}

	if len(d.Findings) == 0 {
		b.WriteString("No findings.\n")
		return b.String()
	}
	b.WriteString("## Findings by priority\n\n")
	b.WriteString("| # | Finding | Domain | Impact | Priority | Annual ROI |\n")
	b.WriteString("|---:|---|---|---|---:|---:|\n")
	for i, f := range d.Findings {
		fmt.Fprintf(&b, "| %d | %s | %s | %s | %d | %s |\n",
			i+1, cell(f.Title), f.Domain, f.Impact, f.PriorityScore, dollars(roiOf(f)))
	}
	b.WriteString("\n")
	for i, f := range d.Findings {
		fmt.Fprintf(&b, "### %d. %s\n\n%s\n\n", i+1, inline(f.Title), inline(f.Description))
		if f.Recommendation != "" {
			fmt.Fprintf(&b, "**Recommendation:** %s\n\n", inline(f.Recommendation))
		}
		if f.HasTaskROI() {
			fmt.Fprintf(&b, "One-time cost %s, saves %s per month (%s confidence).\n\n",
				dollars(f.TotalOneTimeCost), dollars(f.TotalMonthlySavings), strings.ToLower(f.Confidence))
		}
	}
	return b.String()
}

func roiOf(f domain.Finding) float64 {
	if f.HasTaskROI() {
		return f.TotalAnnualROI
	}
	return f.ROIEstimate
}

// categoryOrder lists the known categories first, then any others sorted.
func categoryOrder(m map[string]domain.CategoryTotals) []string {
	known := []string{domain.CategoryRevenueLeak, domain.CategoryTimeSavings, domain.CategoryAutomation}
	out := make([]string, 0, len(m))
	for _, k := range known {
		if _, ok := m[k]; ok {
			out = append(out, k)
		}
	}
	var rest []string
	for k := range m {
		if !slices.Contains(known, k) {
			rest = append(rest, k)
		}
	}
	slices.Sort(rest)
	return append(out, rest...)
}

func dollars(v float64) string {
	whole := int64(math.Round(v))
	if whole < 0 {
		return "-$" + humanize.Comma(-whole)
	}
	return "$" + humanize.Comma(whole)
}

func hours(v float64) string { return fmt.Sprintf("%.1f h", v) }

var (
	inlineEscaper = strings.NewReplacer("\\", "\\\\", "*", "\\*", "_", "\\_", "`", "\\`", "<", "&lt;", ">", "&gt;", "[", "\\[", "]", "\\]")
	cellEscaper   = strings.NewReplacer("|", "\\|", "\n", " ")
)

// inline escapes user-controlled text so it renders literally.
func inline(s string) string { return inlineEscaper.Replace(strings.TrimSpace(s)) }

func cell(s string) string { return cellEscaper.Replace(inline(s)) }
