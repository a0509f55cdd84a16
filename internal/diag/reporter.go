package diag

// Reporter receives diagnostics from the code generator.
type Reporter interface {
	Report(d Diagnostic)
}

// ReportBuilder lets a producer attach notes before emitting.
type ReportBuilder struct {
	reporter Reporter
	diag     Diagnostic
	emitted  bool
}

func report(r Reporter, sev Severity, code Code, d Diagnostic) *ReportBuilder {
	d.Severity = sev
	d.Code = code
	return &ReportBuilder{reporter: r, diag: d}
}

func ReportError(r Reporter, code Code, d Diagnostic) *ReportBuilder {
	return report(r, SevError, code, d)
}

func ReportWarning(r Reporter, code Code, d Diagnostic) *ReportBuilder {
	return report(r, SevWarning, code, d)
}

// ReportFatal is used by the session right before it unwinds.
func ReportFatal(r Reporter, code Code, d Diagnostic) *ReportBuilder {
	return report(r, SevFatal, code, d)
}

func (b *ReportBuilder) WithNote(n Note) *ReportBuilder {
	b.diag.Notes = append(b.diag.Notes, n)
	return b
}

// Emit hands the diagnostic to the reporter; later calls do nothing.
func (b *ReportBuilder) Emit() {
	if b.emitted {
		return
	}
	b.emitted = true
	if b.reporter != nil {
		b.reporter.Report(b.diag)
	}
}

// BagReporter adds to Bag.
type BagReporter struct{ Bag *Bag }

func (r BagReporter) Report(d Diagnostic) {
	if r.Bag != nil {
		r.Bag.Add(d)
	}
}

// NopReporter drops every diagnostic.
type NopReporter struct{}

func (NopReporter) Report(Diagnostic) {}
