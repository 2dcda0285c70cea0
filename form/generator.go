// Package form turns a form definition into a self-contained interactive
// HTML document. All fill/review/complete behavior runs inside the document
// itself; nothing in it calls back to a server.
package form

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"html/template"
	"regexp"
	"strings"

	"github.com/formwise/formwise/model"
	"github.com/formwise/formwise/schema"
)

//go:embed assets/document.tmpl
var documentTmpl string

//go:embed assets/styles.css
var documentCSS string

//go:embed assets/script.js
var documentScript string

var pageTemplate = template.Must(template.New("document").Parse(documentTmpl))

var reWhitespace = regexp.MustCompile(`\s+`)

type documentData struct {
	Title       string
	Description string
	CSS         template.CSS
	FieldsHTML  template.HTML
	Bootstrap   template.JS
	Script      template.JS
}

// Generate renders the interactive document for def. The caller is expected
// to have normalized the definition first, so every field is covered by the
// data schema embedded into the page.
func Generate(def model.FormDefinition) ([]byte, error) {
	links := schema.SpecifyLinks(def.Fields)
	targets := schema.TargetIDs(links)

	fieldsHTML, err := buildFieldsHTML(def.Fields, links, targets)
	if err != nil {
		return nil, err
	}

	bootstrap, err := buildBootstrap(def)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	err = pageTemplate.Execute(&buf, documentData{
		Title:       def.FormTitle,
		Description: def.FormDescription,
		CSS:         template.CSS(documentCSS),
		FieldsHTML:  template.HTML(fieldsHTML),
		Bootstrap:   template.JS(bootstrap),
		Script:      template.JS(documentScript),
	})
	if err != nil {
		return nil, fmt.Errorf("form.generate: %w", err)
	}
	return buf.Bytes(), nil
}

// buildBootstrap emits the data the embedded script runs against. Values
// are JSON-marshaled, never string-built; encoding/json escapes angle
// brackets so the payload cannot break out of the script element.
func buildBootstrap(def model.FormDefinition) (string, error) {
	fields, err := json.Marshal(def.Fields)
	if err != nil {
		return "", fmt.Errorf("form.bootstrap.fields: %w", err)
	}
	dataSchema, err := json.Marshal(def.DataSchema)
	if err != nil {
		return "", fmt.Errorf("form.bootstrap.schema: %w", err)
	}
	meta, err := json.Marshal(map[string]string{
		"formTitle":       def.FormTitle,
		"formDescription": def.FormDescription,
	})
	if err != nil {
		return "", fmt.Errorf("form.bootstrap.meta: %w", err)
	}

	return fmt.Sprintf("var formFields = %s;\nvar formSchema = %s;\nvar formMeta = %s;",
		fields, dataSchema, meta), nil
}

func buildFieldsHTML(fields []model.FormField, links []schema.SpecifyLink, targets map[string]bool) (string, error) {
	controls := map[string]map[string]string{}
	for _, l := range links {
		if controls[l.FieldID] == nil {
			controls[l.FieldID] = map[string]string{}
		}
		controls[l.FieldID][l.Option] = l.TargetID
	}

	var b strings.Builder
	for _, f := range fields {
		writeField(&b, f, controls[f.ID], targets[f.ID])
	}
	return b.String(), nil
}

func writeField(b *strings.Builder, f model.FormField, controls map[string]string, startsHidden bool) {
	esc := template.HTMLEscapeString

	containerClass := "form-field"
	if f.Required {
		containerClass += " needs-input"
	}
	if startsHidden {
		containerClass += " hidden"
	}

	fmt.Fprintf(b, `<div class="%s" id="field-container-%s">`+"\n", containerClass, esc(f.ID))

	star := ""
	if f.Required {
		star = `<span class="required-star">*</span>`
	}
	fmt.Fprintf(b, `<label for="%s">%s%s</label>`+"\n", esc(f.ID), esc(f.Label), star)

	switch f.Type {
	case "text", "date", "number":
		placeholder := "Please enter here..."
		if f.Type == "number" {
			placeholder = "Please enter a number..."
		} else if f.Type == "date" {
			placeholder = ""
		}
		fmt.Fprintf(b, `<input type="%s" %s placeholder="%s">`+"\n",
			f.Type, commonAttrs(f), esc(placeholder))

	case "textarea":
		fmt.Fprintf(b, `<textarea %s placeholder="Please enter here..." rows="3"></textarea>`+"\n", commonAttrs(f))

	case "radio":
		b.WriteString(`<div class="radio-group">` + "\n")
		for _, opt := range f.Options {
			writeChoice(b, f, opt, "radio", controls)
		}
		b.WriteString(`</div>` + "\n")

	case "checkbox":
		if f.HasOptions() {
			b.WriteString(`<div class="checkbox-group">` + "\n")
			for _, opt := range f.Options {
				writeChoice(b, f, opt, "checkbox", controls)
			}
			b.WriteString(`</div>` + "\n")
		} else {
			fmt.Fprintf(b, `<div class="single-checkbox"><input type="checkbox" %s aria-label="%s"><label for="%s">%s</label></div>`+"\n",
				commonAttrs(f), esc(f.Label), esc(f.ID), esc(f.Label))
		}

	case "select":
		fmt.Fprintf(b, `<select %s>`+"\n", commonAttrs(f))
		// an empty "unselected" choice only makes sense when the answer
		// may stay blank
		if !f.Required {
			b.WriteString(`<option value="">Select an option</option>` + "\n")
		}
		for _, opt := range f.Options {
			specify := ""
			if target, ok := controls[opt]; ok {
				specify = fmt.Sprintf(` data-controls-specify="%s"`, esc(target))
			}
			fmt.Fprintf(b, `<option value="%s"%s>%s</option>`+"\n", esc(opt), specify, esc(opt))
		}
		b.WriteString(`</select>` + "\n")

	default:
		fmt.Fprintf(b, `<input type="text" %s>`+"\n", commonAttrs(f))
	}

	fmt.Fprintf(b, `<div class="error-message" id="error-%s"></div>`+"\n", esc(f.ID))
	b.WriteString(`</div>` + "\n")
}

// writeChoice emits one option row of a radio or checkbox group. Rows whose
// option controls an other-specify field carry a data-controls-specify
// reference the embedded script toggles on.
func writeChoice(b *strings.Builder, f model.FormField, option, inputType string, controls map[string]string) {
	esc := template.HTMLEscapeString
	optionID := optionDOMID(f.ID, option)

	specify := ""
	if target, ok := controls[option]; ok {
		specify = fmt.Sprintf(` data-controls-specify="%s"`, esc(target))
	}
	required := ""
	if inputType == "radio" && f.Required {
		required = " required"
	}

	fmt.Fprintf(b,
		`<div><input type="%s" id="%s" name="%s" value="%s"%s%s aria-label="%s"><label for="%s">%s</label></div>`+"\n",
		inputType, esc(optionID), esc(f.ID), esc(option), required, specify, esc(option), esc(optionID), esc(option))
}

func commonAttrs(f model.FormField) string {
	esc := template.HTMLEscapeString
	attrs := fmt.Sprintf(`id="%s" name="%s"`, esc(f.ID), esc(f.ID))
	if f.Required {
		attrs += " required"
	}
	return fmt.Sprintf(`%s data-original-required="%t"`, attrs, f.Required)
}

func optionDOMID(fieldID, option string) string {
	return fieldID + "_" + reWhitespace.ReplaceAllString(option, "_")
}

// DownloadFilename derives the attachment name offered for a generated
// document from its title.
func DownloadFilename(title string) string {
	name := reWhitespace.ReplaceAllString(strings.TrimSpace(title), "_")
	if name == "" {
		name = "form"
	}
	return name + "_form.html"
}
