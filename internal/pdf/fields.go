package pdf

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

type Kind string

const (
	KindText      Kind = "text"
	KindCheckbox  Kind = "checkbox"
	KindRadio     Kind = "radio"
	KindCombo     Kind = "combo"
	KindList      Kind = "list"
	KindSignature Kind = "signature"
	KindButton    Kind = "button"
	KindUnknown   Kind = "unknown"
)

// Field flag bits, PDF 32000-1 tables 221, 226, 228 and 230.
const (
	flagReadOnly   = 1 << 0
	flagRequired   = 1 << 1
	flagMultiline  = 1 << 12
	flagRadio      = 1 << 15
	flagPushbutton = 1 << 16
	flagCombo      = 1 << 17
	flagMultiSel   = 1 << 21
)

// Field describes one terminal AcroForm field. Name is the fully qualified
// field name, which is what CSV headers refer to.
type Field struct {
	Name      string   `json:"name"`
	ID        string   `json:"id"`
	Kind      Kind     `json:"type"`
	FT        string   `json:"/FT,omitempty"`
	Flags     int      `json:"flags"`
	Value     string   `json:"value,omitempty"`
	Default   string   `json:"default,omitempty"`
	Options   []string `json:"options,omitempty"`
	ReadOnly  bool     `json:"readOnly"`
	Required  bool     `json:"required"`
	Multiline bool     `json:"multiline,omitempty"`
	MaxLen    int      `json:"maxLen,omitempty"`
	Pages     []int    `json:"pages,omitempty"`
}

// Fillable reports whether a CSV value can be applied to the field.
func (f Field) Fillable() bool {
	switch f.Kind {
	case KindText, KindCheckbox, KindRadio, KindCombo, KindList:
		return true
	}
	return false
}

// Fields lists the terminal fields of the document's AcroForm in document
// order. A PDF without a form yields an empty slice.
func Fields(rs io.ReadSeeker) ([]Field, error) {
	ctx, err := pdfapi.ReadContext(rs, newConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF context: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("failed to ensure page count: %w", err)
	}

	w := &walker{ctx: ctx, seen: map[int]bool{}, fields: []Field{}}

	rootDict, err := ctx.Catalog()
	if err != nil {
		return nil, fmt.Errorf("failed to get catalog: %w", err)
	}
	acroFormObj, found := rootDict.Find("AcroForm")
	if !found {
		return w.fields, nil
	}
	acroFormDict, err := ctx.DereferenceDict(acroFormObj)
	if err != nil {
		return nil, fmt.Errorf("failed to dereference AcroForm: %w", err)
	}
	if acroFormDict == nil {
		return w.fields, nil
	}
	fieldsObj, found := acroFormDict.Find("Fields")
	if !found {
		return w.fields, nil
	}
	fieldsArray, err := ctx.DereferenceArray(fieldsObj)
	if err != nil {
		return nil, fmt.Errorf("failed to dereference Fields array: %w", err)
	}

	if err := w.indexPages(); err != nil {
		return nil, err
	}
	for _, obj := range fieldsArray {
		if err := w.walk(obj, "", inherited{}); err != nil {
			return nil, err
		}
	}
	return w.fields, nil
}

type inherited struct {
	ft    string
	ff    int
	value types.Object
	dv    types.Object
}

type walker struct {
	ctx    *model.Context
	pages  map[int][]int // widget object number -> page numbers
	seen   map[int]bool
	fields []Field
}

func objNr(obj types.Object) (int, bool) {
	if ir, ok := obj.(types.IndirectRef); ok {
		return ir.ObjectNumber.Value(), true
	}
	return 0, false
}

func (w *walker) indexPages() error {
	w.pages = map[int][]int{}
	for i := 1; i <= w.ctx.PageCount; i++ {
		d, _, _, err := w.ctx.PageDict(i, false)
		if err != nil {
			return fmt.Errorf("failed to read page %d: %w", i, err)
		}
		if d == nil {
			continue
		}
		annotsObj, found := d.Find("Annots")
		if !found {
			continue
		}
		annots, err := w.ctx.DereferenceArray(annotsObj)
		if err != nil {
			continue
		}
		for _, a := range annots {
			if nr, ok := objNr(a); ok {
				w.pages[nr] = append(w.pages[nr], i)
			}
		}
	}
	return nil
}

func (w *walker) walk(obj types.Object, parent string, inh inherited) error {
	nr, isRef := objNr(obj)
	if isRef {
		if w.seen[nr] {
			return nil
		}
		w.seen[nr] = true
	}

	d, err := w.ctx.DereferenceDict(obj)
	if err != nil {
		return fmt.Errorf("failed to dereference field: %w", err)
	}
	if d == nil {
		return nil
	}

	name := parent
	if partial := w.text(d, "T"); partial != "" {
		if name != "" {
			name += "."
		}
		name += partial
	}

	if o, found := d.Find("FT"); found {
		if ft, err := w.ctx.DereferenceName(o, model.V10, nil); err == nil {
			inh.ft = string(ft)
		}
	}
	if o, found := d.Find("Ff"); found {
		if ff, err := w.ctx.DereferenceInteger(o); err == nil && ff != nil {
			inh.ff = int(*ff)
		}
	}
	if o, found := d.Find("V"); found {
		inh.value = o
	}
	if o, found := d.Find("DV"); found {
		inh.dv = o
	}

	var kids types.Array
	if o, found := d.Find("Kids"); found {
		if arr, err := w.ctx.DereferenceArray(o); err == nil {
			kids = arr
		}
	}

	// Kids carrying a partial name are child fields; kids without one are the
	// widget annotations of this field.
	var children, widgets []types.Object
	for _, kid := range kids {
		kd, err := w.ctx.DereferenceDict(kid)
		if err != nil || kd == nil {
			continue
		}
		if _, found := kd.Find("T"); found {
			children = append(children, kid)
		} else {
			widgets = append(widgets, kid)
		}
	}
	for _, child := range children {
		if err := w.walk(child, name, inh); err != nil {
			return err
		}
	}
	if len(children) > 0 && len(widgets) == 0 {
		return nil
	}
	if name == "" {
		return nil
	}
	if len(kids) == 0 {
		widgets = []types.Object{obj}
	}

	f := Field{
		Name:      name,
		FT:        "/" + inh.ft,
		Flags:     inh.ff,
		Kind:      kindOf(inh.ft, inh.ff),
		ReadOnly:  inh.ff&flagReadOnly != 0,
		Required:  inh.ff&flagRequired != 0,
		Value:     w.value(inh.value),
		Default:   w.value(inh.dv),
		Multiline: inh.ft == "Tx" && inh.ff&flagMultiline != 0,
	}
	if inh.ft == "" {
		f.FT = ""
	}
	if isRef {
		f.ID = strconv.Itoa(nr)
	}
	if o, found := d.Find("MaxLen"); found {
		if ml, err := w.ctx.DereferenceInteger(o); err == nil && ml != nil {
			f.MaxLen = int(*ml)
		}
	}

	switch f.Kind {
	case KindCombo, KindList:
		f.Options = w.choiceOptions(d)
	case KindCheckbox, KindRadio:
		f.Options = w.exportValues(widgets)
	}
	f.Pages = w.pagesOf(widgets)

	w.fields = append(w.fields, f)
	return nil
}

func kindOf(ft string, ff int) Kind {
	switch ft {
	case "Tx":
		return KindText
	case "Btn":
		switch {
		case ff&flagPushbutton != 0:
			return KindButton
		case ff&flagRadio != 0:
			return KindRadio
		}
		return KindCheckbox
	case "Ch":
		if ff&flagCombo != 0 {
			return KindCombo
		}
		return KindList
	case "Sig":
		return KindSignature
	}
	return KindUnknown
}

func (w *walker) text(d types.Dict, key string) string {
	o, found := d.Find(key)
	if !found {
		return ""
	}
	s, err := w.ctx.DereferenceStringOrHexLiteral(o, model.V10, nil)
	if err != nil {
		return ""
	}
	return s
}

// value renders a /V or /DV entry: strings as is, names without the slash,
// arrays (multi-select lists) joined with "|".
func (w *walker) value(o types.Object) string {
	if o == nil {
		return ""
	}
	if s, err := w.ctx.DereferenceStringOrHexLiteral(o, model.V10, nil); err == nil {
		return s
	}
	if n, err := w.ctx.DereferenceName(o, model.V10, nil); err == nil {
		return string(n)
	}
	if arr, err := w.ctx.DereferenceArray(o); err == nil {
		var parts []string
		for _, item := range arr {
			if s := w.value(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "|")
	}
	return ""
}

func (w *walker) choiceOptions(d types.Dict) []string {
	o, found := d.Find("Opt")
	if !found {
		return nil
	}
	arr, err := w.ctx.DereferenceArray(o)
	if err != nil {
		return nil
	}
	var options []string
	for _, opt := range arr {
		// Options are either strings or [export display] pairs.
		if s, err := w.ctx.DereferenceStringOrHexLiteral(opt, model.V10, nil); err == nil {
			options = append(options, s)
		} else if pair, err := w.ctx.DereferenceArray(opt); err == nil && len(pair) >= 1 {
			if s, err := w.ctx.DereferenceStringOrHexLiteral(pair[0], model.V10, nil); err == nil {
				options = append(options, s)
			}
		}
	}
	return options
}

// exportValues collects the "on" appearance names of checkbox and radio
// widgets.
func (w *walker) exportValues(widgets []types.Object) []string {
	seen := map[string]bool{}
	var values []string
	for _, widget := range widgets {
		wd, err := w.ctx.DereferenceDict(widget)
		if err != nil || wd == nil {
			continue
		}
		apObj, found := wd.Find("AP")
		if !found {
			continue
		}
		ap, err := w.ctx.DereferenceDict(apObj)
		if err != nil || ap == nil {
			continue
		}
		nObj, found := ap.Find("N")
		if !found {
			continue
		}
		n, err := w.ctx.DereferenceDict(nObj)
		if err != nil || n == nil {
			continue
		}
		var keys []string
		for k := range n {
			if k != "Off" && !seen[k] {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		for _, k := range keys {
			seen[k] = true
			values = append(values, k)
		}
	}
	return values
}

func (w *walker) pagesOf(widgets []types.Object) []int {
	seen := map[int]bool{}
	var pages []int
	for _, widget := range widgets {
		nr, ok := objNr(widget)
		if !ok {
			continue
		}
		for _, p := range w.pages[nr] {
			if !seen[p] {
				seen[p] = true
				pages = append(pages, p)
			}
		}
	}
	sort.Ints(pages)
	return pages
}

// Names returns the field names in order.
func Names(fields []Field) []string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return names
}
