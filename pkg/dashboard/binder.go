// Package dashboard resolves stored interactive dashboard templates into
// live query bindings. A template is an HTML fragment authored by an
// administrator; it is parsed, never executed. Elements carrying a
// data-query-id marker become widget bindings, input-capable elements
// carrying data-filter become filter-control bindings that drive query
// re-execution.
package dashboard

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// Binding kinds.
const (
	KindWidget        = "widget"
	KindFilterControl = "filter-control"
)

// Template marker attributes.
const (
	attrQueryID    = "data-query-id"
	attrWidgetType = "data-widget-type"
	attrChartType  = "data-chart-type"
	attrFilter     = "data-filter"
	attrColumn     = "data-column"
	attrOperator   = "data-operator"
)

// DefaultOperator applies when a filter control omits data-operator.
const DefaultOperator = "eq"

// BindingDirective is one resolved template binding: either a widget
// (render query N here) or a filter control (changes re-execute query N
// with a filter on Column).
type BindingDirective struct {
	QueryID    int64  `json:"query_id"`
	Kind       string `json:"kind"`
	WidgetType string `json:"widget_type,omitempty"`
	ChartType  string `json:"chart_type,omitempty"`
	Column     string `json:"column,omitempty"`
	Operator   string `json:"operator,omitempty"`
}

// inputCapable marks elements whose value changes can drive filters.
var inputCapable = map[string]bool{
	"input":    true,
	"select":   true,
	"textarea": true,
}

// ResolveBindings parses a stored template fragment and returns its
// bindings: widget directives in document order followed by filter-control
// directives in document order. An empty or blank template resolves to no
// directives (the caller renders a placeholder). Elements with a malformed
// query-id marker are skipped; parsing itself is lenient and never fails on
// administrator-authored markup.
func ResolveBindings(markup string) ([]BindingDirective, error) {
	if strings.TrimSpace(markup) == "" {
		return nil, nil
	}

	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		// html.Parse recovers from almost anything; a hard error means the
		// template is unusable, which callers treat like an empty one.
		return nil, err
	}

	var widgets, controls []BindingDirective
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if d, ok := directiveFor(n); ok {
				if d.Kind == KindWidget {
					widgets = append(widgets, d)
				} else {
					controls = append(controls, d)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return append(widgets, controls...), nil
}

func directiveFor(n *html.Node) (BindingDirective, bool) {
	attrs := make(map[string]string, len(n.Attr))
	for _, a := range n.Attr {
		attrs[strings.ToLower(a.Key)] = a.Val
	}

	raw, ok := attrs[attrQueryID]
	if !ok {
		return BindingDirective{}, false
	}
	queryID, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || queryID <= 0 {
		return BindingDirective{}, false
	}

	_, isFilter := attrs[attrFilter]
	if isFilter && inputCapable[n.Data] {
		op := strings.TrimSpace(attrs[attrOperator])
		if op == "" {
			op = DefaultOperator
		}
		return BindingDirective{
			QueryID:  queryID,
			Kind:     KindFilterControl,
			Column:   strings.TrimSpace(attrs[attrColumn]),
			Operator: op,
		}, true
	}

	widgetType := strings.TrimSpace(attrs[attrWidgetType])
	if widgetType == "" {
		widgetType = "table"
	}
	return BindingDirective{
		QueryID:    queryID,
		Kind:       KindWidget,
		WidgetType: widgetType,
		ChartType:  strings.TrimSpace(attrs[attrChartType]),
	}, true
}

// InertControls returns the filter-control directives whose query has no
// widget directive in the same template. Such controls can never affect
// anything visible; callers surface them instead of silently ignoring them.
func InertControls(directives []BindingDirective) []BindingDirective {
	bound := make(map[int64]bool)
	for _, d := range directives {
		if d.Kind == KindWidget {
			bound[d.QueryID] = true
		}
	}
	var inert []BindingDirective
	for _, d := range directives {
		if d.Kind == KindFilterControl && !bound[d.QueryID] {
			inert = append(inert, d)
		}
	}
	return inert
}
