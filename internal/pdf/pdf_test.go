package pdf

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-formfill/internal/pdf/pdftest"
)

func TestHasMagic(t *testing.T) {
	ok, err := HasMagic(bytes.NewReader(pdftest.PlainPDF()))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = HasMagic(strings.NewReader("name,city\n"))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = HasMagic(strings.NewReader("%PD"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(bytes.NewReader(pdftest.FormPDF())))
	assert.ErrorIs(t, Validate(strings.NewReader("not a pdf at all")), ErrNotPDF)
}

func TestFields(t *testing.T) {
	fields, err := Fields(bytes.NewReader(pdftest.FormPDF()))
	require.NoError(t, err)

	assert.Equal(t, []string{"name", "city", "agree", "color", "address.street"}, Names(fields))

	byName := map[string]Field{}
	for _, f := range fields {
		byName[f.Name] = f
	}

	name := byName["name"]
	assert.Equal(t, KindText, name.Kind)
	assert.Equal(t, "/Tx", name.FT)
	assert.Equal(t, "5", name.ID)
	assert.Equal(t, []int{1}, name.Pages)

	agree := byName["agree"]
	assert.Equal(t, KindCheckbox, agree.Kind)
	assert.Equal(t, []string{"Yes"}, agree.Options)

	color := byName["color"]
	assert.Equal(t, KindRadio, color.Kind)
	assert.Equal(t, []string{"Red", "Blue"}, color.Options)
	assert.Equal(t, "8", color.ID)
	assert.Equal(t, []int{1}, color.Pages)

	street := byName["address.street"]
	assert.Equal(t, KindText, street.Kind)
	assert.Equal(t, "15", street.ID)
}

func TestFieldsWithoutForm(t *testing.T) {
	fields, err := Fields(bytes.NewReader(pdftest.PlainPDF()))
	require.NoError(t, err)
	assert.NotNil(t, fields)
	assert.Empty(t, fields)
}

func TestFieldJSONKeepsFTKey(t *testing.T) {
	data, err := json.Marshal(Field{Name: "name", Kind: KindText, FT: "/Tx"})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"/FT":"/Tx"`)
	assert.Contains(t, string(data), `"type":"text"`)
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		ft   string
		ff   int
		want Kind
	}{
		{"Tx", 0, KindText},
		{"Btn", 0, KindCheckbox},
		{"Btn", flagRadio, KindRadio},
		{"Btn", flagPushbutton, KindButton},
		{"Ch", flagCombo, KindCombo},
		{"Ch", 0, KindList},
		{"Sig", 0, KindSignature},
		{"", 0, KindUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, kindOf(tt.ft, tt.ff), "%s/%d", tt.ft, tt.ff)
	}
}

func TestChecked(t *testing.T) {
	for _, v := range []string{"", " ", "0", "0.0", "false", "FALSE", "Off", "no", "No"} {
		assert.False(t, Checked(v), "%q should be unchecked", v)
	}
	for _, v := range []string{"1", "yes", "Yes", "true", "x", "On", "checked"} {
		assert.True(t, Checked(v), "%q should be checked", v)
	}
}

func TestBuildForm(t *testing.T) {
	fields := []Field{
		{Name: "name", ID: "5", Kind: KindText, Pages: []int{1}},
		{Name: "agree", ID: "7", Kind: KindCheckbox},
		{Name: "color", ID: "8", Kind: KindRadio},
		{Name: "state", ID: "20", Kind: KindCombo},
		{Name: "langs", ID: "21", Kind: KindList},
		{Name: "sig", ID: "22", Kind: KindSignature},
		{Name: "untouched", ID: "23", Kind: KindText},
	}
	values := map[string]string{
		"name":  "Ada",
		"agree": "0",
		"color": " Blue ",
		"state": "CA",
		"langs": "go| c |",
		"sig":   "ignored",
	}

	group := buildForm(fields, values)
	require.Len(t, group.Forms, 1)
	form := group.Forms[0]

	require.Len(t, form.TextFields, 1)
	assert.Equal(t, textField{Pages: []int{1}, ID: "5", Name: "name", Value: "Ada"}, form.TextFields[0])
	require.Len(t, form.DateFields, 1)

	require.Len(t, form.CheckBoxes, 1)
	assert.False(t, form.CheckBoxes[0].Value)

	require.Len(t, form.RadioButtonGroups, 1)
	assert.Equal(t, "Blue", form.RadioButtonGroups[0].Value)

	require.Len(t, form.ComboBoxes, 1)
	assert.Equal(t, "CA", form.ComboBoxes[0].Value)

	require.Len(t, form.ListBoxes, 1)
	assert.Equal(t, []string{"go", "c"}, form.ListBoxes[0].Values)
}

func TestBuildFormSkipsEmptyRadio(t *testing.T) {
	group := buildForm([]Field{{Name: "color", Kind: KindRadio}}, map[string]string{"color": ""})
	assert.Empty(t, group.Forms[0].RadioButtonGroups)
}

func TestBuildFormClearsMissingCheckbox(t *testing.T) {
	fields := []Field{
		{Name: "name", ID: "5", Kind: KindText},
		{Name: "agree", ID: "7", Kind: KindCheckbox},
		{Name: "color", ID: "8", Kind: KindRadio},
	}
	form := buildForm(fields, map[string]string{"name": "Ada"}).Forms[0]

	require.Len(t, form.CheckBoxes, 1)
	assert.Equal(t, "agree", form.CheckBoxes[0].Name)
	assert.False(t, form.CheckBoxes[0].Value)
	assert.Empty(t, form.RadioButtonGroups)
}

func valuesOf(t *testing.T, data []byte) map[string]string {
	t.Helper()
	fields, err := Fields(bytes.NewReader(data))
	require.NoError(t, err)
	values := map[string]string{}
	for _, f := range fields {
		values[f.Name] = f.Value
	}
	return values
}

func TestFillWritesValues(t *testing.T) {
	tpl := pdftest.FormPDF()
	fields, err := Fields(bytes.NewReader(tpl))
	require.NoError(t, err)

	var out bytes.Buffer
	err = Fill(bytes.NewReader(tpl), fields, map[string]string{
		"name":           "Ada",
		"agree":          "yes",
		"color":          "Red",
		"address.street": "1 Main St",
	}, &out)
	require.NoError(t, err)

	got := valuesOf(t, out.Bytes())
	assert.Equal(t, "Ada", got["name"])
	assert.Equal(t, "Yes", got["agree"])
	assert.Equal(t, "Red", got["color"])
	assert.Equal(t, "1 Main St", got["address.street"])
}

func TestFillUnchecksFalsyCheckbox(t *testing.T) {
	tpl := pdftest.FormPDF()
	fields, err := Fields(bytes.NewReader(tpl))
	require.NoError(t, err)

	var checked bytes.Buffer
	require.NoError(t, Fill(bytes.NewReader(tpl), fields, map[string]string{"agree": "1"}, &checked))
	require.Equal(t, "Yes", valuesOf(t, checked.Bytes())["agree"])
	fields, err = Fields(bytes.NewReader(checked.Bytes()))
	require.NoError(t, err)

	for _, v := range []string{"", "0", "false", "Off"} {
		var out bytes.Buffer
		require.NoError(t, Fill(bytes.NewReader(checked.Bytes()), fields, map[string]string{"agree": v}, &out))
		assert.Equal(t, "Off", valuesOf(t, out.Bytes())["agree"], "%q should uncheck", v)
	}

	var cleared bytes.Buffer
	require.NoError(t, Fill(bytes.NewReader(checked.Bytes()), fields, map[string]string{"name": "Ada"}, &cleared))
	assert.Equal(t, "Off", valuesOf(t, cleared.Bytes())["agree"], "missing checkbox value should uncheck")
}
