package pdf

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
)

// The JSON layout below is pdfcpu's form import format. Fields are matched
// by object id first and fully qualified name second.

type formGroup struct {
	Header formHeader `json:"header"`
	Forms  []formData `json:"forms"`
}

type formHeader struct {
	Source   string `json:"source"`
	Version  string `json:"version"`
	Creation string `json:"creation"`
}

type formData struct {
	TextFields        []textField  `json:"textfield,omitempty"`
	DateFields        []textField  `json:"datefield,omitempty"`
	CheckBoxes        []checkBox   `json:"checkbox,omitempty"`
	RadioButtonGroups []choice     `json:"radiobuttongroup,omitempty"`
	ComboBoxes        []choice     `json:"combobox,omitempty"`
	ListBoxes         []listChoice `json:"listbox,omitempty"`
}

type textField struct {
	Pages  []int  `json:"pages"`
	ID     string `json:"id"`
	Name   string `json:"name,omitempty"`
	Value  string `json:"value"`
	Locked bool   `json:"locked"`
}

type checkBox struct {
	Pages  []int  `json:"pages"`
	ID     string `json:"id"`
	Name   string `json:"name,omitempty"`
	Value  bool   `json:"value"`
	Locked bool   `json:"locked"`
}

type choice struct {
	Pages  []int  `json:"pages"`
	ID     string `json:"id"`
	Name   string `json:"name,omitempty"`
	Value  string `json:"value"`
	Locked bool   `json:"locked"`
}

type listChoice struct {
	Pages  []int    `json:"pages"`
	ID     string   `json:"id"`
	Name   string   `json:"name,omitempty"`
	Values []string `json:"values,omitempty"`
	Locked bool     `json:"locked"`
}

// Checked interprets a CSV cell as a checkbox state. Empty cells, numeric
// zero and the words false, off and no (any case) leave the box unchecked.
func Checked(value string) bool {
	v := strings.TrimSpace(value)
	switch strings.ToLower(v) {
	case "", "false", "off", "no":
		return false
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil && f == 0 {
		return false
	}
	return true
}

func buildForm(fields []Field, values map[string]string) formGroup {
	var form formData
	for _, f := range fields {
		if !f.Fillable() {
			continue
		}
		// Checkboxes without a value are cleared; other kinds keep the template's value.
		v, ok := values[f.Name]
		if !ok && f.Kind != KindCheckbox {
			continue
		}
		switch f.Kind {
		case KindText:
			tf := textField{Pages: f.Pages, ID: f.ID, Name: f.Name, Value: v}
			form.TextFields = append(form.TextFields, tf)
			// pdfcpu treats text fields with a date format as date fields.
			form.DateFields = append(form.DateFields, tf)
		case KindCheckbox:
			form.CheckBoxes = append(form.CheckBoxes, checkBox{Pages: f.Pages, ID: f.ID, Name: f.Name, Value: Checked(v)})
		case KindRadio:
			if strings.TrimSpace(v) == "" {
				continue
			}
			form.RadioButtonGroups = append(form.RadioButtonGroups, choice{Pages: f.Pages, ID: f.ID, Name: f.Name, Value: strings.TrimSpace(v)})
		case KindCombo:
			form.ComboBoxes = append(form.ComboBoxes, choice{Pages: f.Pages, ID: f.ID, Name: f.Name, Value: v})
		case KindList:
			var selected []string
			for _, s := range strings.Split(v, "|") {
				if s = strings.TrimSpace(s); s != "" {
					selected = append(selected, s)
				}
			}
			form.ListBoxes = append(form.ListBoxes, listChoice{Pages: f.Pages, ID: f.ID, Name: f.Name, Values: selected})
		}
	}
	return formGroup{
		Header: formHeader{
			Source:   "go-formfill",
			Version:  "pdfcpu",
			Creation: time.Now().UTC().Format(time.RFC3339),
		},
		Forms: []formData{form},
	}
}

// Fill writes the template read from rs to w with values applied. fields must
// be the result of Fields for the same template; values are keyed by field
// name and entries without a matching fillable field are ignored. Checkboxes
// missing from values are unchecked.
func Fill(rs io.ReadSeeker, fields []Field, values map[string]string, w io.Writer) error {
	data, err := json.Marshal(buildForm(fields, values))
	if err != nil {
		return fmt.Errorf("encode form data: %w", err)
	}
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if err := pdfapi.FillForm(rs, bytes.NewReader(data), w, newConfig()); err != nil {
		return fmt.Errorf("fill form: %w", err)
	}
	return nil
}
