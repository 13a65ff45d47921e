package dashboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTemplate = `
<div class="grid grid-cols-2">
    <div data-query-id="101" data-widget-type="chart" data-chart-type="pie"></div>
    <div data-query-id="102" data-widget-type="table"></div>
</div>
<select data-filter data-query-id="101" data-column="role">
    <option value="ADMIN">Admin</option>
</select>
`

func TestResolveBindings_WidgetsThenControls(t *testing.T) {
	directives, err := ResolveBindings(sampleTemplate)
	require.NoError(t, err)
	require.Len(t, directives, 3)

	assert.Equal(t, BindingDirective{QueryID: 101, Kind: KindWidget, WidgetType: "chart", ChartType: "pie"}, directives[0])
	assert.Equal(t, BindingDirective{QueryID: 102, Kind: KindWidget, WidgetType: "table"}, directives[1])
	assert.Equal(t, BindingDirective{QueryID: 101, Kind: KindFilterControl, Column: "role", Operator: "eq"}, directives[2])
}

func TestResolveBindings_SpecifiedOperator(t *testing.T) {
	directives, err := ResolveBindings(`
		<div data-query-id="7" data-widget-type="table"></div>
		<input data-filter data-query-id="7" data-column="STATUS" data-operator="like">
	`)
	require.NoError(t, err)
	require.Len(t, directives, 2)
	assert.Equal(t, "like", directives[1].Operator)
}

func TestResolveBindings_EmptyTemplate(t *testing.T) {
	for _, markup := range []string{"", "   ", "\n\t"} {
		directives, err := ResolveBindings(markup)
		assert.NoError(t, err)
		assert.Empty(t, directives)
	}
}

func TestResolveBindings_NoMarkers(t *testing.T) {
	directives, err := ResolveBindings(`<div class="plain"><p>hello</p></div>`)
	require.NoError(t, err)
	assert.Empty(t, directives)
}

func TestResolveBindings_MalformedQueryIDSkipped(t *testing.T) {
	directives, err := ResolveBindings(`
		<div data-query-id="abc" data-widget-type="table"></div>
		<div data-query-id="-4" data-widget-type="table"></div>
		<div data-query-id="5" data-widget-type="table"></div>
	`)
	require.NoError(t, err)
	require.Len(t, directives, 1)
	assert.Equal(t, int64(5), directives[0].QueryID)
}

func TestResolveBindings_FilterMarkerOnNonInputIsWidget(t *testing.T) {
	// data-filter only means something on input-capable elements.
	directives, err := ResolveBindings(`<div data-filter data-query-id="9"></div>`)
	require.NoError(t, err)
	require.Len(t, directives, 1)
	assert.Equal(t, KindWidget, directives[0].Kind)
}

func TestResolveBindings_TextareaControl(t *testing.T) {
	directives, err := ResolveBindings(`
		<div data-query-id="3"></div>
		<textarea data-filter data-query-id="3" data-column="notes"></textarea>
	`)
	require.NoError(t, err)
	require.Len(t, directives, 2)
	assert.Equal(t, KindFilterControl, directives[1].Kind)
	// A widget with no explicit type defaults to a table.
	assert.Equal(t, "table", directives[0].WidgetType)
}

func TestInertControls(t *testing.T) {
	directives, err := ResolveBindings(`
		<div data-query-id="1" data-widget-type="table"></div>
		<select data-filter data-query-id="1" data-column="a"></select>
		<select data-filter data-query-id="99" data-column="b"></select>
	`)
	require.NoError(t, err)

	inert := InertControls(directives)
	require.Len(t, inert, 1)
	assert.Equal(t, int64(99), inert[0].QueryID)
	assert.Equal(t, "b", inert[0].Column)
}
