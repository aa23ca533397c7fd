// Package messages resolves and interpolates violation messages.
package messages

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// Resolver retrieves localized message templates for constraint names.
// Returning "" means the resolver has no template and the caller should fall
// back to the definition's default.
type Resolver interface {
	Template(constraint string) string
}

// dictResolver is the built-in dictionary-based Resolver.
type dictResolver struct{ lang string }

var catalogs = map[string]map[string]string{
	"en": {
		"notnil":        "must not be nil",
		"notblank":      "must not be blank",
		"size":          "size must be between {min} and {max}",
		"min":           "must be greater than or equal to {min}",
		"max":           "must be less than or equal to {max}",
		"pattern":       "must match \"{pattern}\"",
		"email":         "must be a well-formed email address",
		"url":           "must be a valid URL",
		"uuid":          "must be a valid UUID",
		"positive":      "must be greater than 0",
		"negative":      "must be less than 0",
		"future":        "must be in the future",
		"past":          "must be in the past",
		"in":            "must be one of {choices}",
		"boolean":       "must be \"true\" or \"false\"",
		"chronological": "parameters must be in chronological order",
		"invalid_target": "cannot be validated by {constraint}",
	},
	"de": {
		"notnil":        "darf nicht nil sein",
		"notblank":      "darf nicht leer sein",
		"size":          "Größe muss zwischen {min} und {max} liegen",
		"min":           "muss größer oder gleich {min} sein",
		"max":           "muss kleiner oder gleich {max} sein",
		"pattern":       "muss mit \"{pattern}\" übereinstimmen",
		"email":         "muss eine gültige E-Mail-Adresse sein",
		"url":           "muss eine gültige URL sein",
		"uuid":          "muss eine gültige UUID sein",
		"positive":      "muss größer als 0 sein",
		"negative":      "muss kleiner als 0 sein",
		"future":        "muss in der Zukunft liegen",
		"past":          "muss in der Vergangenheit liegen",
		"in":            "muss einer der Werte {choices} sein",
		"boolean":       "muss \"true\" oder \"false\" sein",
		"chronological": "Parameter müssen in chronologischer Reihenfolge sein",
	},
}

var matcher = language.NewMatcher([]language.Tag{
	language.English, // first tag is the fallback
	language.German,
})

func (r dictResolver) Template(constraint string) string {
	if c, ok := catalogs[r.lang]; ok {
		if t, ok := c[constraint]; ok {
			return t
		}
	}
	// unknown language entries fall back to English
	if t, ok := catalogs["en"][constraint]; ok {
		return t
	}
	return ""
}

// ForLocale returns the built-in Resolver best matching the BCP 47 locale,
// falling back to English for unsupported locales.
func ForLocale(locale string) Resolver {
	tag, err := language.Parse(locale)
	if err != nil {
		return dictResolver{lang: "en"}
	}
	_, idx, _ := matcher.Match(tag)
	switch idx {
	case 1:
		return dictResolver{lang: "de"}
	default:
		return dictResolver{lang: "en"}
	}
}

// Default returns the English Resolver.
func Default() Resolver { return dictResolver{lang: "en"} }

// Interpolate substitutes {name} placeholders in template from params.
// Unknown placeholders are left verbatim; "\{" escapes a literal brace.
func Interpolate(template string, params map[string]any) string {
	if template == "" || !strings.ContainsRune(template, '{') {
		return template
	}
	var b strings.Builder
	b.Grow(len(template))
	for i := 0; i < len(template); i++ {
		ch := template[i]
		if ch == '\\' && i+1 < len(template) && template[i+1] == '{' {
			b.WriteByte('{')
			i++
			continue
		}
		if ch != '{' {
			b.WriteByte(ch)
			continue
		}
		end := strings.IndexByte(template[i:], '}')
		if end < 0 {
			b.WriteString(template[i:])
			break
		}
		name := template[i+1 : i+end]
		if v, ok := params[name]; ok {
			b.WriteString(fmt.Sprint(v))
		} else {
			b.WriteString(template[i : i+end+1])
		}
		i += end
	}
	return b.String()
}
