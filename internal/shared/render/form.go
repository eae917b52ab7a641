package render

type (
	// Form is the submitted values of an HTML form plus per-field error messages.
	Form struct {
		Values map[string]string
		Errors map[string]string
	}

	// FieldView is what the "field" template renders.
	FieldView struct {
		Name  string
		Label string
		Type  string
		Value string
		Error string
	}
)

func NewForm(values map[string]string) Form {
	if values == nil {
		values = map[string]string{}
	}
	return Form{Values: values, Errors: map[string]string{}}
}

// WithErrors returns a copy of f carrying errors.
func (f Form) WithErrors(errors map[string]string) Form {
	merged := make(map[string]string, len(f.Errors)+len(errors))
	for k, v := range f.Errors {
		merged[k] = v
	}
	for k, v := range errors {
		merged[k] = v
	}
	f.Errors = merged
	return f
}

// Field builds the view of one input. Password values are never echoed back.
func (f Form) Field(name, label, inputType string) FieldView {
	value := f.Values[name]
	if inputType == "password" {
		value = ""
	}
	return FieldView{
		Name:  name,
		Label: label,
		Type:  inputType,
		Value: value,
		Error: f.Errors[name],
	}
}
