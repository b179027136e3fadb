// Package forms builds form workflows on top of the browser client:
// form profiling, fuzzy field matching, multi-step fills and submission
// checks.
package forms

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/samber/oops"

	"github.com/basset-hound/automation/internal/logger"
	"github.com/basset-hound/automation/pkg/bassethound"
)

var log = logger.Get()

// ErrNoForm is returned when the page exposes no form to work with.
var ErrNoForm = errors.New("no form found on page")

// Automator drives form workflows over a connected client.
type Automator struct {
	client *bassethound.Client
}

// New returns an Automator driving client.
func New(client *bassethound.Client) *Automator {
	return &Automator{client: client}
}

// FieldInfo summarizes one input of an analyzed form.
type FieldInfo struct {
	Selector    string `json:"selector"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Label       string `json:"label"`
	Placeholder string `json:"placeholder"`
	Required    bool   `json:"required"`
}

// Analysis profiles a form: identity, the required/optional split and a
// field type histogram.
type Analysis struct {
	FormID     string         `json:"form_id"`
	FormName   string         `json:"form_name"`
	Action     string         `json:"action"`
	Method     string         `json:"method"`
	FieldCount int            `json:"field_count"`
	Required   []FieldInfo    `json:"required_fields"`
	Optional   []FieldInfo    `json:"optional_fields"`
	FieldTypes map[string]int `json:"field_types"`
}

// Fields returns required then optional fields as one slice.
func (a *Analysis) Fields() []FieldInfo {
	out := make([]FieldInfo, 0, len(a.Required)+len(a.Optional))
	out = append(out, a.Required...)
	out = append(out, a.Optional...)
	return out
}

// Analyze profiles the first form reported by the page.
func (a *Automator) Analyze(ctx context.Context) (*Analysis, error) {
	state, err := a.client.PageState(ctx)
	if err != nil {
		return nil, oops.Wrapf(err, "analyze form")
	}
	if len(state.Forms) == 0 {
		log.WithField("url", state.URL).Warn("no forms found on page")
		return nil, ErrNoForm
	}

	form := state.Forms[0]
	analysis := &Analysis{
		FormID:     form.ID,
		FormName:   form.Name,
		Action:     form.Action,
		Method:     form.Method,
		FieldCount: len(form.Fields),
		FieldTypes: make(map[string]int),
	}
	if analysis.Method == "" {
		analysis.Method = "GET"
	}
	for _, f := range form.Fields {
		info := FieldInfo{
			Selector:    f.Selector,
			Name:        f.Name,
			Type:        f.Type,
			Label:       f.Label,
			Placeholder: f.Placeholder,
			Required:    f.Required,
		}
		if info.Required {
			analysis.Required = append(analysis.Required, info)
		} else {
			analysis.Optional = append(analysis.Optional, info)
		}
		analysis.FieldTypes[info.Type]++
	}

	log.WithField("fields", analysis.FieldCount).
		WithField("required", len(analysis.Required)).
		Debug("form analyzed")
	return analysis, nil
}

// FillOption adjusts a FillSmart call.
type FillOption func(*fillSettings)

type fillSettings struct {
	submit bool
	settle time.Duration
}

// WithSubmit submits the form after filling it.
func WithSubmit() FillOption {
	return func(s *fillSettings) {
		s.submit = true
	}
}

// WithSettle pauses for d after the fill so the page can react before the
// next operation. No pause by default.
func WithSettle(d time.Duration) FillOption {
	return func(s *fillSettings) {
		s.settle = d
	}
}

// FillReport is the outcome of FillSmart: the fill result from the
// extension plus the caller keys that matched no field.
type FillReport struct {
	Filled    []string `json:"filled,omitempty"`
	Failed    []string `json:"failed,omitempty"`
	Submitted bool     `json:"submitted,omitempty"`
	Unmatched []string `json:"unmatched,omitempty"`
}

// FillSmart fills the page's form from data, matching each key against
// field names, labels and placeholders case-insensitively. Keys that match
// nothing are reported, not fatal.
func (a *Automator) FillSmart(ctx context.Context, data map[string]string, opts ...FillOption) (*FillReport, error) {
	var settings fillSettings
	for _, opt := range opts {
		opt(&settings)
	}

	analysis, err := a.Analyze(ctx)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(data))
	for key := range data {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	fields := analysis.Fields()
	toFill := make(map[string]string, len(data))
	var unmatched []string
	for _, key := range keys {
		field, how, ok := matchField(fields, key)
		if !ok {
			log.WithField("key", key).Warn("could not match field")
			unmatched = append(unmatched, key)
			continue
		}
		toFill[field.Selector] = data[key]
		log.WithField("key", key).
			WithField("selector", field.Selector).
			WithField("by", how).
			Debug("matched field")
	}

	log.WithField("fields", len(toFill)).Debug("filling form")
	var fillOpts []bassethound.FillOption
	if settings.submit {
		fillOpts = append(fillOpts, bassethound.WithSubmit())
	}
	result, err := a.client.FillForm(ctx, toFill, fillOpts...)
	if err != nil {
		return nil, oops.Wrapf(err, "fill form")
	}

	if err := settle(ctx, settings.settle); err != nil {
		return nil, err
	}
	return &FillReport{
		Filled:    result.Filled,
		Failed:    result.Failed,
		Submitted: result.Submitted,
		Unmatched: unmatched,
	}, nil
}

// matchField finds the first field key refers to, trying its name, label
// and placeholder in that order. The second return names which attribute
// matched.
func matchField(fields []FieldInfo, key string) (FieldInfo, string, bool) {
	k := strings.ToLower(key)
	for _, f := range fields {
		switch {
		case f.Name != "" && strings.ToLower(f.Name) == k:
			return f, "name", true
		case f.Label != "" && strings.ToLower(f.Label) == k:
			return f, "label", true
		case f.Placeholder != "" && strings.ToLower(f.Placeholder) == k:
			return f, "placeholder", true
		}
	}
	return FieldInfo{}, "", false
}

// Step is one stage of a multi-step form.
type Step struct {
	// Fields holds caller keys and values, matched like FillSmart.
	Fields map[string]string `json:"fields"`
	// NextButton, when set, is clicked after the fill to advance.
	NextButton string `json:"next_button,omitempty"`
	// WaitAfter pauses before the next step starts.
	WaitAfter time.Duration `json:"wait_after,omitempty"`
}

// StepResult records the outcome of one step.
type StepResult struct {
	Step   int         `json:"step"`
	Report *FillReport `json:"report,omitempty"`
	OK     bool        `json:"ok"`
	Error  string      `json:"error,omitempty"`
}

// RunSteps executes a multi-step form workflow. A failed next-button click
// is recorded on its step and stops the run; the results so far are always
// returned.
func (a *Automator) RunSteps(ctx context.Context, steps []Step) ([]StepResult, error) {
	log.WithField("steps", len(steps)).Debug("starting multi-step form")

	results := make([]StepResult, 0, len(steps))
	for i, step := range steps {
		idx := i + 1
		log.WithField("step", idx).WithField("of", len(steps)).Debug("filling step")

		report, err := a.FillSmart(ctx, step.Fields)
		if err != nil {
			return results, oops.Wrapf(err, "step %d", idx)
		}
		results = append(results, StepResult{Step: idx, Report: report, OK: true})

		if step.NextButton != "" {
			log.WithField("selector", step.NextButton).Debug("clicking next button")
			if err := a.client.Click(ctx, step.NextButton, bassethound.WithWaitAfter(2*time.Second)); err != nil {
				log.WithError(err).Error("failed to click next button")
				results[len(results)-1].OK = false
				results[len(results)-1].Error = err.Error()
				break
			}
		}

		if err := settle(ctx, step.WaitAfter); err != nil {
			return results, err
		}
	}

	log.WithField("completed", len(results)).Debug("multi-step form finished")
	return results, nil
}

// verifyScript probes the page for the usual post-submission indicators.
const verifyScript = `({
    url: window.location.href,
    title: document.title,
    hasSuccessMessage: !!(
        document.querySelector('.success') ||
        document.querySelector('.alert-success') ||
        document.querySelector('[role="alert"][class*="success"]') ||
        document.body.textContent.includes('Success') ||
        document.body.textContent.includes('Thank you')
    ),
    hasErrorMessage: !!(
        document.querySelector('.error') ||
        document.querySelector('.alert-error') ||
        document.querySelector('.alert-danger') ||
        document.querySelector('[role="alert"][class*="error"]')
    ),
    hasValidationErrors: document.querySelectorAll('.invalid-feedback, .error-message').length > 0,
    validationErrors: Array.from(
        document.querySelectorAll('.invalid-feedback, .error-message')
    ).map(el => el.textContent.trim())
})`

// Verdict is what the submission probe saw on the page.
type Verdict struct {
	URL                 string   `json:"url"`
	Title               string   `json:"title"`
	HasSuccessMessage   bool     `json:"hasSuccessMessage"`
	HasErrorMessage     bool     `json:"hasErrorMessage"`
	HasValidationErrors bool     `json:"hasValidationErrors"`
	ValidationErrors    []string `json:"validationErrors,omitempty"`
}

// VerifySubmission checks the page for success, error and validation
// indicators after a submit.
func (a *Automator) VerifySubmission(ctx context.Context) (*Verdict, error) {
	var verdict Verdict
	if err := a.client.ExecuteScriptInto(ctx, verifyScript, &verdict); err != nil {
		return nil, oops.Wrapf(err, "verify submission")
	}
	log.WithField("success", verdict.HasSuccessMessage).
		WithField("error", verdict.HasErrorMessage).
		WithField("validation_errors", verdict.HasValidationErrors).
		Debug("submission verified")
	return &verdict, nil
}

// ExpandDynamic clicks trigger and waits up to timeout for a dependent
// field to appear. It reports whether the field showed up.
func (a *Automator) ExpandDynamic(ctx context.Context, trigger, waitFor string, timeout time.Duration) (bool, error) {
	log.WithField("selector", waitFor).Debug("expanding dynamic field")

	if err := a.client.Click(ctx, trigger, bassethound.WithWaitAfter(500*time.Millisecond)); err != nil {
		return false, oops.Wrapf(err, "click trigger %s", trigger)
	}
	result, err := a.client.WaitForElement(ctx, waitFor, timeout)
	if err != nil {
		return false, oops.Wrapf(err, "wait for %s", waitFor)
	}
	if !result.Found {
		log.WithField("selector", waitFor).Warn("dynamic field did not appear")
	}
	return result.Found, nil
}

// SelectBy picks how SelectOption identifies the option to choose.
type SelectBy string

const (
	ByValue SelectBy = "value"
	ByText  SelectBy = "text"
	ByIndex SelectBy = "index"
)

const selectByTextScript = `const select = document.querySelector(%q);
if (select) {
    const option = Array.from(select.options).find(opt => opt.text === %q);
    if (option) {
        select.value = option.value;
        select.dispatchEvent(new Event('change', { bubbles: true }));
        return true;
    }
}
return false;`

const selectByIndexScript = `const select = document.querySelector(%q);
if (select && select.options[%d]) {
    select.selectedIndex = %d;
    select.dispatchEvent(new Event('change', { bubbles: true }));
    return true;
}
return false;`

// SelectOption chooses an option in a select element by option value,
// visible text or index. Text and index selection go through page scripts.
func (a *Automator) SelectOption(ctx context.Context, selector, value string, by SelectBy) error {
	log.WithField("selector", selector).WithField("value", value).Debug("selecting option")

	switch by {
	case ByValue:
		result, err := a.client.FillForm(ctx, map[string]string{selector: value})
		if err != nil {
			return oops.Wrapf(err, "select %s", selector)
		}
		if len(result.Failed) > 0 {
			return oops.Errorf("select %s: no matching element", selector)
		}
		return nil
	case ByText:
		return a.selectViaScript(ctx, selector, value, fmt.Sprintf(selectByTextScript, selector, value))
	case ByIndex:
		idx, err := strconv.Atoi(value)
		if err != nil {
			return oops.Errorf("select %s: index %q is not a number", selector, value)
		}
		return a.selectViaScript(ctx, selector, value, fmt.Sprintf(selectByIndexScript, selector, idx, idx))
	default:
		return oops.Errorf("unknown selection mode %q", by)
	}
}

func (a *Automator) selectViaScript(ctx context.Context, selector, value, script string) error {
	var picked bool
	if err := a.client.ExecuteScriptInto(ctx, script, &picked); err != nil {
		return oops.Wrapf(err, "select %s", selector)
	}
	if !picked {
		return oops.Errorf("select %s: no option %q", selector, value)
	}
	return nil
}

// settle sleeps for d unless the context ends first.
func settle(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
