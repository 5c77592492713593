package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Energy density per gram, used for percent<->grams conversion of manual macro edits
const (
	KcalPerGramProtein = 4.0
	KcalPerGramCarbs   = 4.0
	KcalPerGramFat     = 9.0
	KcalPerGramFiber   = 2.0
)

// MacroProfile holds the five macro values for a resolved food quantity.
// A zero value means the field is absent; values are never NaN or negative.
type MacroProfile struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Fiber    float64 `json:"fiber"`
}

// IsZero reports whether no macro field is populated
func (p MacroProfile) IsZero() bool {
	return p.Calories == 0 && p.Protein == 0 && p.Carbs == 0 && p.Fat == 0 && p.Fiber == 0
}

// Measure is a named product-specific serving unit with a gram weight
type Measure struct {
	Label string  `json:"label"`
	Grams float64 `json:"grams"`
}

// Product is a canonical catalog entry. Macros are per ReferenceGrams
// (100 g unless the catalog says otherwise).
type Product struct {
	Name           string       `json:"name"`
	Aliases        []string     `json:"aliases,omitempty"`
	ReferenceGrams float64      `json:"referenceGrams"`
	Macros         MacroProfile `json:"macros"`
	Measures       []Measure    `json:"measures,omitempty"`
}

// QuantitySignal is the raw quantity input accompanying a food description:
// explicit grams, free text ("150 гр", "2 x ябълка"), a manual count with a
// unit name, or a selected measure card. Any subset may be set.
type QuantitySignal struct {
	Grams   float64  `json:"grams,omitempty"`
	Text    string   `json:"text,omitempty"`
	Count   float64  `json:"count,omitempty"`
	Unit    string   `json:"unit,omitempty"`
	Measure *Measure `json:"measure,omitempty"`
}

// Empty reports whether the signal carries no usable information
func (q QuantitySignal) Empty() bool {
	return q.Grams <= 0 && strings.TrimSpace(q.Text) == "" && q.Count <= 0 && q.Measure == nil
}

// Representation returns the canonical string form of the signal, used as the
// quantity half of override cache keys and as the quantity sent to the remote
// estimator. Identical logical inputs must map to the same representation.
func (q QuantitySignal) Representation() string {
	switch {
	case q.Grams > 0:
		return strconv.FormatFloat(q.Grams, 'f', -1, 64)
	case strings.TrimSpace(q.Text) != "":
		return strings.ToLower(strings.TrimSpace(q.Text))
	case q.Count > 0 && q.Measure != nil:
		// The measure label must survive into the key: equal counts of
		// different measures are different quantities
		return fmt.Sprintf("%s %s", strconv.FormatFloat(q.Count, 'f', -1, 64), strings.ToLower(q.Measure.Label))
	case q.Count > 0 && q.Unit != "":
		return fmt.Sprintf("%s %s", strconv.FormatFloat(q.Count, 'f', -1, 64), strings.ToLower(strings.TrimSpace(q.Unit)))
	case q.Count > 0:
		return strconv.FormatFloat(q.Count, 'f', -1, 64)
	case q.Measure != nil:
		return strings.ToLower(q.Measure.Label)
	}
	return ""
}

// QuantitySpec is the outcome of quantity resolution: either a gram amount or,
// when no local resolution is possible, a descriptive phrase for the remote
// estimator.
type QuantitySpec struct {
	Grams       float64 `json:"grams,omitempty"`
	Descriptive string  `json:"descriptive,omitempty"`
}

// Resolved reports whether a concrete gram amount was derived
func (q QuantitySpec) Resolved() bool {
	return q.Grams > 0
}

// Resolution sources, in priority order
const (
	SourceOverride = "override"
	SourceLocal    = "local"
	SourceRemote   = "remote"
	SourceNone     = "none"
)

// Resolution statuses
const (
	StatusOK           = "ok"
	StatusNeedsInput   = "needs-input"
	StatusRemoteFailed = "remote-failed"
)

// ResolveRequest is a single description + quantity resolution request
type ResolveRequest struct {
	Description string         `json:"description" binding:"required"`
	Quantity    QuantitySignal `json:"quantity"`
}

// Resolution is the pipeline's terminal outcome. Status is StatusOK on any
// hit; failures surface as StatusNeedsInput or StatusRemoteFailed with an
// empty profile, never as an error to the caller's primary workflow.
type Resolution struct {
	Profile MacroProfile `json:"profile"`
	Grams   float64      `json:"grams,omitempty"`
	Source  string       `json:"source"`
	Status  string       `json:"status"`
	Warning string       `json:"warning,omitempty"`
}
