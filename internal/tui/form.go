package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"shelflife/internal/domain"
	"shelflife/internal/recognition"
	"shelflife/internal/transport"
)

// FormState tracks where the form sits in its lifecycle. Recognition is not
// a state of its own: it is a busy flag that may overlap editing, and
// optionally submission, depending on the policy.
type FormState int

const (
	FormEditing FormState = iota
	FormSubmitting
	FormSuccess
)

// Policy controls how the two long-running operations interact. With
// ExclusiveBusy set, recognition and saving never run at the same time;
// without it each only blocks its own re-trigger.
type Policy struct {
	ExclusiveBusy bool
}

const (
	fieldBrand = iota
	fieldName
	fieldExpiry
	fieldOpened
	fieldPurchase
	fieldNotes
	fieldCount
)

var fieldLabels = [fieldCount]string{
	"Brand", "Name", "Expiry date", "Opened date", "Purchase date", "Notes",
}

// FormModel is the add/edit form. All lifecycle transitions go through the
// named methods so they can be exercised without a terminal attached.
type FormModel struct {
	styles Styles
	policy Policy
	inputs [fieldCount]textinput.Model
	focus  int

	// editingID is empty while creating a new product.
	editingID string

	state       FormState
	recognizing bool

	fieldErrors map[int]string
	submitErr   string
}

func NewFormModel(policy Policy) FormModel {
	m := FormModel{
		styles:      DefaultStyles(),
		policy:      policy,
		fieldErrors: make(map[int]string),
	}

	for i := range m.inputs {
		input := textinput.New()
		input.Prompt = ""
		input.CharLimit = 200
		m.inputs[i] = input
	}
	m.inputs[fieldExpiry].Placeholder = "YYYY-MM-DD"
	m.inputs[fieldOpened].Placeholder = "YYYY-MM-DD"
	m.inputs[fieldPurchase].Placeholder = "YYYY-MM-DD"
	m.inputs[fieldBrand].Focus()

	return m
}

// LoadProduct fills the form with an existing product for editing.
func (m *FormModel) LoadProduct(p *domain.Product) {
	m.Reset()
	m.editingID = p.ID
	m.inputs[fieldBrand].SetValue(p.Brand)
	m.inputs[fieldName].SetValue(p.Name)
	m.inputs[fieldExpiry].SetValue(p.ExpiryDate)
	m.inputs[fieldOpened].SetValue(p.OpenedDate)
	m.inputs[fieldPurchase].SetValue(p.PurchaseDate)
	m.inputs[fieldNotes].SetValue(p.Notes)
}

// Reset returns the form to a blank create state.
func (m *FormModel) Reset() {
	for i := range m.inputs {
		m.inputs[i].SetValue("")
		m.inputs[i].Blur()
	}
	m.focus = fieldBrand
	m.inputs[fieldBrand].Focus()
	m.editingID = ""
	m.state = FormEditing
	m.recognizing = false
	m.fieldErrors = make(map[int]string)
	m.submitErr = ""
}

// State reports the current lifecycle state.
func (m *FormModel) State() FormState { return m.state }

// Recognizing reports whether a recognition call is in flight.
func (m *FormModel) Recognizing() bool { return m.recognizing }

// EditingID returns the product being edited, or empty for a new product.
func (m *FormModel) EditingID() string { return m.editingID }

// CanSubmit reports whether a save may start now.
func (m *FormModel) CanSubmit() bool {
	if m.state != FormEditing {
		return false
	}
	if m.policy.ExclusiveBusy && m.recognizing {
		return false
	}
	return true
}

// CanRecognize reports whether a recognition call may start now.
func (m *FormModel) CanRecognize() bool {
	if m.recognizing {
		return false
	}
	if m.policy.ExclusiveBusy && m.state == FormSubmitting {
		return false
	}
	return m.state != FormSuccess
}

// Validate checks the draft and records per-field errors. It returns true
// when the draft is submittable.
func (m *FormModel) Validate() bool {
	m.fieldErrors = make(map[int]string)

	if strings.TrimSpace(m.inputs[fieldBrand].Value()) == "" {
		m.fieldErrors[fieldBrand] = "brand is required"
	}
	if strings.TrimSpace(m.inputs[fieldName].Value()) == "" {
		m.fieldErrors[fieldName] = "name is required"
	}
	for _, field := range []int{fieldExpiry, fieldOpened, fieldPurchase} {
		value := strings.TrimSpace(m.inputs[field].Value())
		if value == "" {
			continue
		}
		if _, err := domain.CanonicalDate(value); err != nil {
			m.fieldErrors[field] = "use YYYY-MM-DD"
		}
	}

	return len(m.fieldErrors) == 0
}

// BeginSubmit validates and moves into the submitting state. It returns
// false when the draft is invalid or a conflicting operation is running.
func (m *FormModel) BeginSubmit() bool {
	if !m.CanSubmit() || !m.Validate() {
		return false
	}
	m.state = FormSubmitting
	m.submitErr = ""
	return true
}

// SubmitSucceeded marks the save as done; the caller flashes the success
// state briefly before returning to the list.
func (m *FormModel) SubmitSucceeded() {
	m.state = FormSuccess
}

// SubmitFailed returns to editing with the draft intact so nothing the user
// typed is lost.
func (m *FormModel) SubmitFailed(err error) {
	m.state = FormEditing
	if err != nil {
		m.submitErr = err.Error()
	}
}

// BeginRecognition marks a recognition call as in flight.
func (m *FormModel) BeginRecognition() bool {
	if !m.CanRecognize() {
		return false
	}
	m.recognizing = true
	return true
}

// FinishRecognition merges the result into the draft. Fields the user
// already filled in are left alone.
func (m *FormModel) FinishRecognition(result recognition.Result) {
	m.recognizing = false

	merged := recognition.MergePrefill(recognition.Result{
		Brand: m.inputs[fieldBrand].Value(),
		Name:  m.inputs[fieldName].Value(),
	}, result)
	m.inputs[fieldBrand].SetValue(merged.Brand)
	m.inputs[fieldName].SetValue(merged.Name)
}

// RecognitionFailed clears the busy flag and leaves the draft untouched.
func (m *FormModel) RecognitionFailed() {
	m.recognizing = false
}

// Draft returns the current field values for recognition merging.
func (m *FormModel) Draft() recognition.Result {
	return recognition.Result{
		Brand: m.inputs[fieldBrand].Value(),
		Name:  m.inputs[fieldName].Value(),
	}
}

// Input converts the draft into the API payload. Dates are canonicalized;
// Validate has already rejected anything unparseable.
func (m *FormModel) Input() transport.ProductRequest {
	return transport.ProductRequest{
		Brand:        strings.TrimSpace(m.inputs[fieldBrand].Value()),
		Name:         strings.TrimSpace(m.inputs[fieldName].Value()),
		ExpiryDate:   canonicalOrEmpty(m.inputs[fieldExpiry].Value()),
		OpenedDate:   canonicalOrEmpty(m.inputs[fieldOpened].Value()),
		PurchaseDate: canonicalOrEmpty(m.inputs[fieldPurchase].Value()),
		Notes:        m.inputs[fieldNotes].Value(),
	}
}

func canonicalOrEmpty(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	canonical, err := domain.CanonicalDate(value)
	if err != nil {
		return ""
	}
	return canonical
}

// Update handles key navigation and typing while editing. Submission keys
// are the app's concern; the form only manages its fields.
func (m FormModel) Update(msg tea.Msg) (FormModel, tea.Cmd) {
	if m.state != FormEditing {
		return m, nil
	}

	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "tab", "down":
			m.setFocus((m.focus + 1) % fieldCount)
			return m, nil
		case "shift+tab", "up":
			m.setFocus((m.focus + fieldCount - 1) % fieldCount)
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m *FormModel) setFocus(field int) {
	m.inputs[m.focus].Blur()
	m.focus = field
	m.inputs[m.focus].Focus()
}

// View renders the form.
func (m FormModel) View() string {
	var sb strings.Builder

	title := "Add product"
	if m.editingID != "" {
		title = "Edit product"
	}
	sb.WriteString(m.styles.Title.Render(title))
	sb.WriteString("\n")

	for i := range m.inputs {
		label := m.styles.Field.Render(fmt.Sprintf("%-14s", fieldLabels[i]))
		if i == m.focus {
			label = m.styles.Focused.Render(fmt.Sprintf("%-14s", fieldLabels[i]))
		}
		sb.WriteString(fmt.Sprintf("%s %s\n", label, m.inputs[i].View()))
		if msg, ok := m.fieldErrors[i]; ok {
			sb.WriteString(m.styles.Error.Render("  " + msg))
			sb.WriteString("\n")
		}
	}

	switch {
	case m.state == FormSubmitting:
		sb.WriteString("\n" + m.styles.Help.Render("Saving..."))
	case m.state == FormSuccess:
		sb.WriteString("\n" + m.styles.Success.Render("Saved."))
	case m.submitErr != "":
		sb.WriteString("\n" + m.styles.Error.Render(m.submitErr))
	}
	if m.recognizing {
		sb.WriteString("\n" + m.styles.Help.Render("Recognizing photo..."))
	}

	sb.WriteString("\n" + m.styles.Help.Render("enter save · ctrl+r recognize photo · esc cancel"))
	return sb.String()
}
