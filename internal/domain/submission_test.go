package domain

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmissionResult_MarshalJSONKeepsMarkup(t *testing.T) {
	r := NewSubmissionResult()
	r.Set(LabelMainCategory, "Cars")
	r.Set("Type <a&b>", "Hybrid <Sedan>")

	data, err := r.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"Main Category":"Cars","Type <a&b>":"Hybrid <Sedan>"}`, string(data))

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	require.NoError(t, enc.Encode(struct {
		Result *SubmissionResult `json:"result"`
	}{r}))
	assert.Contains(t, buf.String(), `"Hybrid <Sedan>"`)
}

func TestSubmissionResult_JSONRoundTripKeepsOrder(t *testing.T) {
	r := NewSubmissionResult()
	r.Set(LabelMainCategory, "Cars")
	r.Set(LabelSubcategory, "Toyota")
	r.Set("Model", "Camry")

	data, err := json.Marshal(r)
	require.NoError(t, err)

	var got SubmissionResult
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, r.Fields(), got.Fields())
}
