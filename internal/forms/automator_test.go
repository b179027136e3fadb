package forms_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/basset-hound/automation/internal/fakeext"
	"github.com/basset-hound/automation/internal/forms"
	"github.com/basset-hound/automation/pkg/bassethound"
)

func newAutomator(t *testing.T) (*forms.Automator, *fakeext.Server) {
	t.Helper()
	srv := fakeext.New()
	t.Cleanup(srv.Close)

	client, err := bassethound.Dial(context.Background(), srv.URL())
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	return forms.New(client), srv
}

func registrationForm() bassethound.Form {
	return bassethound.Form{
		ID:     "signup",
		Name:   "signup",
		Action: "/register",
		Method: "post",
		Fields: []bassethound.FormField{
			{Name: "email", Type: "email", Label: "Email address", Selector: "#email", Required: true},
			{Name: "password", Type: "password", Selector: "#password", Required: true},
			{Type: "text", Label: "Company", Selector: "#company"},
			{Name: "phone", Type: "tel", Placeholder: "Phone number", Selector: "#phone"},
			{Name: "plan", Type: "select-one", Selector: "#plan"},
		},
	}
}

func TestAnalyze(t *testing.T) {
	ctx := context.Background()
	a, srv := newAutomator(t)
	srv.Page().SetForms(registrationForm())

	analysis, err := a.Analyze(ctx)
	require.NoError(t, err)

	require.Equal(t, "signup", analysis.FormID)
	require.Equal(t, "/register", analysis.Action)
	require.Equal(t, "post", analysis.Method)
	require.Equal(t, 5, analysis.FieldCount)
	require.Len(t, analysis.Required, 2)
	require.Len(t, analysis.Optional, 3)
	require.Equal(t, 1, analysis.FieldTypes["email"])
	require.Equal(t, 1, analysis.FieldTypes["select-one"])
	require.Len(t, analysis.Fields(), 5)
}

func TestAnalyzeDefaultsMethod(t *testing.T) {
	ctx := context.Background()
	a, srv := newAutomator(t)
	srv.Page().SetForms(bassethound.Form{ID: "bare"})

	analysis, err := a.Analyze(ctx)
	require.NoError(t, err)
	require.Equal(t, "GET", analysis.Method)
	require.Zero(t, analysis.FieldCount)
}

func TestAnalyzeNoForm(t *testing.T) {
	ctx := context.Background()
	a, _ := newAutomator(t)

	_, err := a.Analyze(ctx)
	require.ErrorIs(t, err, forms.ErrNoForm)
}

func TestFillSmartMatching(t *testing.T) {
	ctx := context.Background()
	a, srv := newAutomator(t)
	srv.Page().SetForms(registrationForm())

	report, err := a.FillSmart(ctx, map[string]string{
		"EMAIL":        "sam@example.com", // by name, case-insensitive
		"company":      "Acme Corp",       // by label
		"Phone Number": "555-1234",        // by placeholder
		"nonexistent":  "ignored",
	})
	require.NoError(t, err)

	require.ElementsMatch(t, []string{"#email", "#company", "#phone"}, report.Filled)
	require.Empty(t, report.Failed)
	require.Equal(t, []string{"nonexistent"}, report.Unmatched)

	v, ok := srv.Page().Value("#email")
	require.True(t, ok)
	require.Equal(t, "sam@example.com", v)
	v, ok = srv.Page().Value("#phone")
	require.True(t, ok)
	require.Equal(t, "555-1234", v)
}

func TestFillSmartSubmit(t *testing.T) {
	ctx := context.Background()
	a, srv := newAutomator(t)
	srv.Page().SetForms(registrationForm())

	report, err := a.FillSmart(ctx, map[string]string{"email": "sam@example.com"}, forms.WithSubmit())
	require.NoError(t, err)
	require.True(t, report.Submitted)
	require.True(t, srv.Page().Submitted())
}

func TestFillSmartSettle(t *testing.T) {
	ctx := context.Background()
	a, srv := newAutomator(t)
	srv.Page().SetForms(registrationForm())

	start := time.Now()
	_, err := a.FillSmart(ctx, map[string]string{"email": "sam@example.com"}, forms.WithSettle(60*time.Millisecond))
	require.NoError(t, err)
	require.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestFillSmartNoForm(t *testing.T) {
	ctx := context.Background()
	a, _ := newAutomator(t)

	_, err := a.FillSmart(ctx, map[string]string{"email": "sam@example.com"})
	require.ErrorIs(t, err, forms.ErrNoForm)
}

func TestRunSteps(t *testing.T) {
	ctx := context.Background()
	a, srv := newAutomator(t)
	srv.Page().SetForms(registrationForm())
	srv.Page().AddSelector("#next")

	results, err := a.RunSteps(ctx, []forms.Step{
		{Fields: map[string]string{"email": "sam@example.com"}, NextButton: "#next"},
		{Fields: map[string]string{"password": "hunter2"}},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		require.True(t, r.OK)
		require.Empty(t, r.Error)
	}

	require.Contains(t, srv.Page().Clicked(), "#next")
	v, _ := srv.Page().Value("#password")
	require.Equal(t, "hunter2", v)
}

func TestRunStepsClickFailureStops(t *testing.T) {
	ctx := context.Background()
	a, srv := newAutomator(t)
	srv.Page().SetForms(registrationForm())
	srv.Fail(bassethound.CmdClick, "element not found")

	results, err := a.RunSteps(ctx, []forms.Step{
		{Fields: map[string]string{"email": "sam@example.com"}, NextButton: "#next"},
		{Fields: map[string]string{"password": "hunter2"}},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.False(t, results[0].OK)
	require.Contains(t, results[0].Error, "element not found")

	_, filled := srv.Page().Value("#password")
	require.False(t, filled)
}

func TestVerifySubmission(t *testing.T) {
	ctx := context.Background()
	a, srv := newAutomator(t)
	srv.Page().StubScript("hasSuccessMessage", map[string]interface{}{
		"url":                 "https://example.com/done",
		"title":               "Thanks",
		"hasSuccessMessage":   true,
		"hasErrorMessage":     false,
		"hasValidationErrors": true,
		"validationErrors":    []string{"email is required"},
	})

	verdict, err := a.VerifySubmission(ctx)
	require.NoError(t, err)
	require.Equal(t, "https://example.com/done", verdict.URL)
	require.True(t, verdict.HasSuccessMessage)
	require.False(t, verdict.HasErrorMessage)
	require.True(t, verdict.HasValidationErrors)
	require.Equal(t, []string{"email is required"}, verdict.ValidationErrors)
}

func TestExpandDynamic(t *testing.T) {
	ctx := context.Background()
	a, srv := newAutomator(t)
	srv.Page().RevealOnClick("#accountType", "#companyName")

	found, err := a.ExpandDynamic(ctx, "#accountType", "#companyName", time.Second)
	require.NoError(t, err)
	require.True(t, found)
	require.Contains(t, srv.Page().Clicked(), "#accountType")
}

func TestExpandDynamicAbsent(t *testing.T) {
	ctx := context.Background()
	a, srv := newAutomator(t)
	srv.Page().AddSelector("#accountType")

	found, err := a.ExpandDynamic(ctx, "#accountType", "#taxId", 200*time.Millisecond)
	require.NoError(t, err)
	require.False(t, found)
}

func TestSelectOptionByValue(t *testing.T) {
	ctx := context.Background()
	a, srv := newAutomator(t)
	srv.Page().SetForms(registrationForm())

	require.NoError(t, a.SelectOption(ctx, "#plan", "pro", forms.ByValue))
	v, _ := srv.Page().Value("#plan")
	require.Equal(t, "pro", v)

	err := a.SelectOption(ctx, "#missing", "pro", forms.ByValue)
	require.Error(t, err)
}

func TestSelectOptionByText(t *testing.T) {
	ctx := context.Background()
	a, srv := newAutomator(t)
	srv.Page().StubScript("opt.text", true)

	require.NoError(t, a.SelectOption(ctx, "#plan", "Professional", forms.ByText))
}

func TestSelectOptionByTextMissing(t *testing.T) {
	ctx := context.Background()
	a, srv := newAutomator(t)
	srv.Page().StubScript("opt.text", false)

	err := a.SelectOption(ctx, "#plan", "Professional", forms.ByText)
	require.Error(t, err)
	require.Contains(t, err.Error(), "no option")
}

func TestSelectOptionByIndex(t *testing.T) {
	ctx := context.Background()
	a, srv := newAutomator(t)
	srv.Page().StubScript("selectedIndex", true)

	require.NoError(t, a.SelectOption(ctx, "#plan", "2", forms.ByIndex))

	err := a.SelectOption(ctx, "#plan", "second", forms.ByIndex)
	require.Error(t, err)
	require.Contains(t, err.Error(), "not a number")
}

func TestSelectOptionUnknownMode(t *testing.T) {
	ctx := context.Background()
	a, _ := newAutomator(t)

	err := a.SelectOption(ctx, "#plan", "x", forms.SelectBy("fuzzy"))
	require.Error(t, err)
}
