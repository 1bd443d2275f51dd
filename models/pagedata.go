package models

// Base is embedded in every template payload so the layout can render the
// navigation and the CSRF field.
type Base struct {
	CSRFtoken  string
	IsLoggedIn bool
	Username   string
}

type IndexData struct {
	Base
	BoldMessage string
	Categories  []Category
	Pages       []Page
	Visits      int
}

type AboutData struct {
	Base
	Visits int
}

type CategoryData struct {
	Base
	Category *Category
	Pages    []Page
}

// FormErrors maps a field name to its validation messages. The "__all__"
// key carries errors not tied to one field.
type FormErrors map[string][]string

const NonFieldErrors = "__all__"

func (e FormErrors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

func (e FormErrors) Any() bool {
	return len(e) > 0
}

// NonField returns the errors that belong to the form as a whole.
func (e FormErrors) NonField() []string {
	return e[NonFieldErrors]
}

type CategoryFormData struct {
	Base
	Name   string
	Errors FormErrors
}

type PageFormData struct {
	Base
	Category *Category
	Title    string
	URL      string
	Errors   FormErrors
}

type RegisterData struct {
	Base
	Registered bool
	Username   string
	Email      string
	Website    string
	Errors     FormErrors
}

type LoginData struct {
	Base
	Username string
	Next     string
	Error    string
}
