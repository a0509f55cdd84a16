package codegen

import (
	"cgbridge/internal/diag"
	"cgbridge/internal/langitem"
	"cgbridge/internal/session"
	"cgbridge/internal/source"
)

// LangItems resolves lang items. *langitem.Registry implements it.
type LangItems interface {
	Require(it langitem.Item) (langitem.DefID, error)
}

// FatalReporter reports an unrecoverable diagnostic and does not return.
// *session.Session implements it.
type FatalReporter interface {
	SpanFatal(code diag.Code, sp source.Span, msg string)
	Fatal(code diag.Code, msg string)
}

// TyCtx bundles the compiler services code generation consults.
type TyCtx struct {
	Types TypeQuerier
	Items LangItems
	Sess  FatalReporter
}

// LangCall resolves item or aborts the unit. The fatal diagnostic is
// attached to span when one is given, otherwise to the whole session.
func LangCall(tcx *TyCtx, span *source.Span, msg string, item langitem.Item) langitem.DefID {
	def, err := tcx.Items.Require(item)
	if err == nil {
		return def
	}
	full := msg + " " + err.Error()
	if span != nil {
		tcx.Sess.SpanFatal(diag.CgMissingLangItem, *span, full)
	} else {
		tcx.Sess.Fatal(diag.CgMissingLangItem, full)
	}
	session.Bug("fatal reporter returned after %q", full)
	return langitem.NoDefID
}
