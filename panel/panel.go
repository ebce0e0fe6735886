// Package panel renders the session's extraction results in an editable
// Fyne window: one row per document field with its confidence score, a
// multi-line legal-description editor, and the session action buttons.
//
// All methods that touch widgets must run on the Fyne UI thread; callers
// on other goroutines wrap them in fyne.Do.
package panel

import (
	"fmt"
	"strconv"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/sowrhoop/Ascendant-AI-Vision-Platform/clipboard"
	"github.com/sowrhoop/Ascendant-AI-Vision-Platform/config"
	"github.com/sowrhoop/Ascendant-AI-Vision-Platform/document"
	"github.com/sowrhoop/Ascendant-AI-Vision-Platform/normalize"
)

// windowTitle doubles as the Win32 lookup key for docking the window to the
// right edge of the work area, so it must stay unique on the desktop.
const windowTitle = "Ascendant Vision AI Platform"

const (
	fieldBorrowers = "Borrower"
	fieldRiders    = "RidersPresent"
)

// Actions are the callbacks the panel buttons trigger. The panel never runs
// captures or touches settings storage itself; the event loop and config
// store own those.
type Actions struct {
	// NewCapture requests a fresh capture round.
	NewCapture func()
	// NewSession clears the session history. Refused upstream while a
	// capture is in flight.
	NewSession func()
	// Settings returns the current persisted settings for the dialog.
	Settings func() config.Settings
	// SaveSettings persists edited settings.
	SaveSettings func(config.Settings) error
}

// fieldRow is one editable line: field label, value entry, confidence
// label and a copy button. Rows are built once and updated in place.
// shown is the last rendered value, kept so Save Edits can tell edited
// rows from untouched ones.
type fieldRow struct {
	field string
	shown string
	value *widget.Entry
	confL *widget.Label
	box   fyne.CanvasObject
}

// Panel is the resident result window.
type Panel struct {
	win       fyne.Window
	store     *document.Store
	actions   Actions
	threshold float64

	doc     *widget.Label
	summary *widget.Label
	status  *widget.Label

	rows     []*fieldRow
	rowIndex map[string]*fieldRow

	legal         *widget.Entry
	legalShown    string
	legalConf     *widget.Label
	legalPresence *widget.Label
}

// New builds the panel window against the session store. threshold is the
// confidence floor below which values are flagged for review.
func New(a fyne.App, store *document.Store, threshold float64, actions Actions) *Panel {
	p := &Panel{
		win:       a.NewWindow(windowTitle),
		store:     store,
		actions:   actions,
		threshold: threshold,
		rowIndex:  make(map[string]*fieldRow),
	}
	p.win.SetContent(p.build())
	p.win.Resize(fyne.NewSize(640, 760))
	// The window hides instead of closing; the tray owns process exit.
	p.win.SetCloseIntercept(p.win.Hide)
	p.Clear()
	return p
}

// Window exposes the underlying Fyne window for app wiring.
func (p *Panel) Window() fyne.Window { return p.win }

// Show makes the panel visible and docks it to the right half of the work
// area on platforms that support window placement.
func (p *Panel) Show() {
	p.win.Show()
	dockRight(p.win)
}

// SetStatus replaces the status line at the bottom of the panel.
func (p *Panel) SetStatus(text string) {
	p.status.SetText(text)
}

// SetThreshold changes the confidence floor and re-renders the combined
// view against it.
func (p *Panel) SetThreshold(v float64) {
	p.threshold = v
	p.Refresh()
}

// Refresh re-renders the panel from the session store: header and summary
// from the latest record, field values from the threshold-gated combined
// view.
func (p *Panel) Refresh() {
	latest, ok := p.store.Latest()
	if !ok {
		p.Clear()
		return
	}
	p.doc.SetText(latest.DisplayID)
	if latest.Failed() {
		p.summary.SetText("Analysis failed: " + latest.Err)
	} else {
		p.summary.SetText(latest.Summary)
	}
	p.apply(p.store.Combined(p.threshold), false)
}

// Clear resets the panel to its empty-session state.
func (p *Panel) Clear() {
	p.doc.SetText("No captures yet this session.")
	p.summary.SetText("")
	p.apply(document.NewEntities(), true)
}

func (p *Panel) build() fyne.CanvasObject {
	p.doc = widget.NewLabel("")
	p.doc.TextStyle = fyne.TextStyle{Bold: true}
	p.summary = widget.NewLabel("")
	p.summary.Wrapping = fyne.TextWrapWord
	p.status = widget.NewLabel("Ready.")
	p.status.Wrapping = fyne.TextWrapWord

	fields := make([]string, 0, len(document.ScalarFields)+2)
	fields = append(fields, document.ScalarFields[0], fieldBorrowers)
	fields = append(fields, document.ScalarFields[1:]...)
	fields = append(fields, fieldRiders)

	rowBoxes := make([]fyne.CanvasObject, 0, len(fields)+1)
	for _, field := range fields {
		row := p.newRow(field)
		p.rows = append(p.rows, row)
		p.rowIndex[field] = row
		rowBoxes = append(rowBoxes, row.box)
	}
	rowBoxes = append(rowBoxes, p.buildLegalCard())

	body := container.NewVScroll(container.NewVBox(rowBoxes...))
	body.SetMinSize(fyne.NewSize(0, 420))

	header := container.NewVBox(
		p.doc,
		widget.NewCard("", "Summary", p.summary),
	)
	footer := container.NewVBox(
		widget.NewSeparator(),
		p.buildButtons(),
		p.status,
	)
	return container.NewBorder(header, footer, nil, nil, body)
}

func (p *Panel) newRow(field string) *fieldRow {
	row := &fieldRow{field: field}
	row.value = widget.NewEntry()
	row.confL = widget.NewLabel("-")
	name := widget.NewLabel(document.DisplayName(field))
	copyBtn := widget.NewButton("Copy", func() {
		clipboard.Write(row.value.Text)
		p.SetStatus(document.DisplayName(field) + " copied to clipboard.")
	})
	row.box = container.NewBorder(nil, nil, name, container.NewHBox(row.confL, copyBtn), row.value)
	return row
}

func (p *Panel) buildLegalCard() fyne.CanvasObject {
	p.legal = widget.NewMultiLineEntry()
	p.legal.Wrapping = fyne.TextWrapWord
	p.legal.SetMinRowsVisible(4)
	p.legalConf = widget.NewLabel("-")
	p.legalPresence = widget.NewLabel("Present: No")
	copyBtn := widget.NewButton("Copy", func() {
		clipboard.Write(p.legal.Text)
		p.SetStatus(document.DisplayName("LegalDescriptionDetail") + " copied to clipboard.")
	})
	footer := container.NewHBox(p.legalPresence, p.legalConf, copyBtn)
	return widget.NewCard("", document.DisplayName("LegalDescriptionDetail"),
		container.NewBorder(nil, footer, nil, nil, p.legal))
}

func (p *Panel) buildButtons() fyne.CanvasObject {
	save := widget.NewButton("Save Edits", p.saveEdits)
	save.Importance = widget.HighImportance
	capture := widget.NewButton("New Capture", func() {
		if p.actions.NewCapture != nil {
			p.actions.NewCapture()
		}
	})
	session := widget.NewButton("New Session", func() {
		dialog.ShowConfirm("New Session",
			"Discard all captured documents and start a new session?",
			func(ok bool) {
				if ok && p.actions.NewSession != nil {
					p.actions.NewSession()
				}
			}, p.win)
	})
	settings := widget.NewButton("Settings", p.showSettings)
	return container.NewHBox(save, capture, session, settings)
}

// apply writes e into the rows. neutral suppresses confidence rendering for
// the empty-session state.
func (p *Panel) apply(e document.Entities, neutral bool) {
	for _, row := range p.rows {
		switch row.field {
		case fieldBorrowers:
			p.setRow(row, joinBorrowers(e.Borrower), e.BorrowerConfidence, neutral)
		case fieldRiders:
			p.setRow(row, p.riderLine(e, neutral), e.RidersConfidence, neutral)
		default:
			cv := e.Scalar(row.field)
			if cv == nil {
				continue
			}
			p.setRow(row, cv.Value, cv.Confidence, neutral)
		}
	}
	if document.ValidValue(e.LegalDescriptionDetail.Value) {
		p.legal.SetText(e.LegalDescriptionDetail.Value)
	} else {
		p.legal.SetText("")
	}
	p.legalShown = p.legal.Text
	text, importance := p.confText(e.LegalDescriptionDetail.Confidence, neutral)
	p.legalConf.SetText(text)
	p.legalConf.Importance = importance
	p.legalConf.Refresh()
	p.legalPresence.SetText("Present: " + e.LegalDescriptionPresent.Value)
}

func (p *Panel) setRow(row *fieldRow, value string, conf float64, neutral bool) {
	row.shown = value
	row.value.SetText(value)
	text, importance := p.confText(conf, neutral)
	row.confL.SetText(text)
	row.confL.Importance = importance
	row.confL.Refresh()
}

// confText renders a confidence score, flagging values below the review
// threshold.
func (p *Panel) confText(conf float64, neutral bool) (string, widget.Importance) {
	if neutral {
		return "-", widget.MediumImportance
	}
	if conf < p.threshold {
		return fmt.Sprintf("⚠ %.2f", conf), widget.WarningImportance
	}
	return fmt.Sprintf("%.2f", conf), widget.MediumImportance
}

// saveEdits writes edited rows back onto the latest record. Rows whose text
// still matches what was rendered are left alone, so saving never stomps a
// low-confidence raw value the user did not touch. Edited values are
// user-verified and score confidence 1, which carries them past the
// combined view's threshold gate.
func (p *Panel) saveEdits() {
	latest, ok := p.store.Latest()
	if !ok || latest.Pending() || latest.Failed() {
		p.SetStatus("No completed analysis to edit.")
		return
	}
	p.store.UpdateLatest(func(rec *document.Record) {
		for _, row := range p.rows {
			text := strings.TrimSpace(row.value.Text)
			if text == strings.TrimSpace(row.shown) {
				continue
			}
			switch row.field {
			case fieldBorrowers:
				rec.Entities.Borrower = applyBorrowerNames(rec.Entities.Borrower, splitNameList(text))
			case fieldRiders:
				rec.Entities.RidersPresent = applyRiderNames(rec.Entities.RidersPresent, splitNameList(text))
			default:
				cv := rec.Entities.Scalar(row.field)
				if cv == nil {
					continue
				}
				if text == "" {
					text = "N/A"
				}
				if document.MoneyFields[row.field] {
					text = normalize.Currency(text)
				}
				*cv = document.ConfidenceValue{Value: text, Confidence: 1}
			}
		}
		detail := strings.TrimSpace(p.legal.Text)
		if detail != strings.TrimSpace(p.legalShown) {
			if detail == "" {
				rec.Entities.LegalDescriptionDetail = document.ConfidenceValue{Value: "N/A"}
				rec.Entities.LegalDescriptionPresent = document.ConfidenceValue{Value: "No", Confidence: 1}
			} else {
				rec.Entities.LegalDescriptionDetail = document.ConfidenceValue{Value: detail, Confidence: 1}
				rec.Entities.LegalDescriptionPresent = document.ConfidenceValue{Value: "Yes", Confidence: 1}
			}
		}
	})
	p.Refresh()
	p.SetStatus("Edits saved.")
}

func (p *Panel) showSettings() {
	var cur config.Settings
	if p.actions.Settings != nil {
		cur = p.actions.Settings()
	}
	key := widget.NewPasswordEntry()
	key.SetText(cur.APIKey)
	model := widget.NewEntry()
	model.SetText(cur.Model)
	threshold := widget.NewEntry()
	threshold.SetText(strconv.FormatFloat(p.threshold, 'f', 2, 64))
	threshold.Validator = validThreshold

	items := []*widget.FormItem{
		widget.NewFormItem("API key", key),
		widget.NewFormItem("Model", model),
		widget.NewFormItem("Confidence threshold", threshold),
	}
	dialog.ShowForm("Settings", "Save", "Cancel", items, func(ok bool) {
		if !ok {
			return
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(threshold.Text), 64)
		if err != nil {
			p.SetStatus("Settings not saved: " + err.Error())
			return
		}
		next := cur
		next.APIKey = strings.TrimSpace(key.Text)
		next.Model = strings.TrimSpace(model.Text)
		next.ConfidenceMin = v
		if p.actions.SaveSettings != nil {
			if err := p.actions.SaveSettings(next); err != nil {
				p.SetStatus("Failed to save settings: " + err.Error())
				return
			}
		}
		p.SetThreshold(v)
		p.SetStatus("Settings saved.")
	}, p.win)
}

// validThreshold accepts a decimal in [0, 1].
func validThreshold(s string) error {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return fmt.Errorf("threshold must be a number")
	}
	if v < 0 || v > 1 {
		return fmt.Errorf("threshold must be between 0 and 1")
	}
	return nil
}

// splitNameList splits a semicolon-separated edit value into trimmed names.
func splitNameList(s string) []string {
	parts := strings.Split(s, ";")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		name := strings.TrimSpace(part)
		if name == "" || strings.EqualFold(name, "N/A") {
			continue
		}
		out = append(out, name)
	}
	return out
}

// joinBorrowers renders borrower names as one editable line.
func joinBorrowers(entries []document.BorrowerEntry) string {
	if len(entries) == 0 {
		return "N/A"
	}
	names := make([]string, 0, len(entries))
	for _, b := range entries {
		names = append(names, b.Name.Value)
	}
	return strings.Join(names, "; ")
}

// joinRiders renders checked rider names as one editable line.
func joinRiders(riders []document.Rider) string {
	if len(riders) == 0 {
		return "N/A"
	}
	names := make([]string, 0, len(riders))
	for _, r := range riders {
		names = append(names, r.Name.Value)
	}
	return strings.Join(names, "; ")
}

// riderLine joins the combined view's canonical riders with any signed
// riders that did not canonicalize, shown verbatim so an unusual rider
// still reaches the reviewer.
func (p *Panel) riderLine(e document.Entities, neutral bool) string {
	line := joinRiders(e.RidersPresent)
	if neutral {
		return line
	}
	extra := document.UnclassifiedSignedRiders(p.store.Records(), p.threshold)
	if len(extra) == 0 {
		return line
	}
	if line == "N/A" {
		return strings.Join(extra, "; ")
	}
	return line + "; " + strings.Join(extra, "; ")
}

// applyBorrowerNames maps an edited name list back onto existing entries by
// position. Unchanged names keep their extraction confidence and subfields;
// changed or added names are user-verified.
func applyBorrowerNames(existing []document.BorrowerEntry, names []string) []document.BorrowerEntry {
	out := make([]document.BorrowerEntry, 0, len(names))
	for i, name := range names {
		if i < len(existing) {
			entry := existing[i]
			if entry.Name.Value != name {
				entry.Name = document.ConfidenceValue{Value: name, Confidence: 1}
			}
			out = append(out, entry)
			continue
		}
		out = append(out, document.BorrowerEntry{
			Name:              document.ConfidenceValue{Value: name, Confidence: 1},
			Relationship:      document.ConfidenceValue{Value: "N/A"},
			TenantInformation: document.ConfidenceValue{Value: "N/A"},
		})
	}
	return out
}

// applyRiderNames maps an edited rider list back onto existing riders by
// position. Added riders are marked signed and attached, since only such
// riders belong on the checked list.
func applyRiderNames(existing []document.Rider, names []string) []document.Rider {
	out := make([]document.Rider, 0, len(names))
	for i, name := range names {
		if i < len(existing) {
			rider := existing[i]
			if rider.Name.Value != name {
				rider.Name = document.ConfidenceValue{Value: name, Confidence: 1}
			}
			out = append(out, rider)
			continue
		}
		out = append(out, document.Rider{
			Name:           document.ConfidenceValue{Value: name, Confidence: 1},
			Present:        document.ConfidenceValue{Value: "Yes", Confidence: 1},
			SignedAttached: document.ConfidenceValue{Value: "Yes", Confidence: 1},
		})
	}
	return out
}
