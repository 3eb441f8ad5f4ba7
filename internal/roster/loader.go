package roster

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema.json
var documentSchema string

// FieldError is a single schema violation.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError lists every schema violation of a document.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Field, fe.Message))
	}
	return fmt.Sprintf("document does not match roster schema: %s", strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrMalformedInput
}

// Load reads a roster document from a local file or an http(s) URL, validates it
// and normalizes it.
func Load(source string, client *Client, opts Options) (*Roster, error) {
	doc, err := Read(source, client)
	if err != nil {
		return nil, err
	}
	return Parse(doc, opts)
}

// Read fetches the raw roster document without interpreting it.
func Read(source string, client *Client) (map[string]any, error) {
	if IsRemote(source) {
		if client == nil {
			return nil, fmt.Errorf("http client is required for %s", source)
		}
		return client.Fetch(source)
	}
	return LoadFile(source)
}

// Parse validates a raw document against the roster schema and normalizes it.
func Parse(doc map[string]any, opts Options) (*Roster, error) {
	doc = Canonical(doc)
	if err := Validate(doc); err != nil {
		return nil, err
	}
	return Decode(doc, opts)
}

// LoadFile reads a roster document in any format viper understands (yaml, json, toml...).
func LoadFile(path string) (map[string]any, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("roster file is not configured")
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading roster file %q: %w", path, err)
	}

	return v.AllSettings(), nil
}

// Canonical folds the top-level keys and the keys of every record, leaving values untouched.
func Canonical(doc map[string]any) map[string]any {
	if doc == nil {
		return nil
	}

	out := foldKeys(doc)
	for _, key := range []string{CandidatesKey, JobsKey} {
		list, ok := out[key].([]any)
		if !ok {
			continue
		}
		rows := make([]any, 0, len(list))
		for _, item := range list {
			if row, ok := asRecord(item); ok {
				rows = append(rows, foldKeys(row))
				continue
			}
			rows = append(rows, item)
		}
		out[key] = rows
	}

	return out
}

// Validate checks that a canonical document holds "candidates" and "jobs" lists of
// records. Field values are left to Decode, which degrades them record by record.
func Validate(doc map[string]any) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(documentSchema),
		gojsonschema.NewGoLoader(doc),
	)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrMalformedInput, err)
	}

	if result.Valid() {
		return nil
	}

	validationErr := &ValidationError{
		Errors: make([]FieldError, 0, len(result.Errors())),
	}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		validationErr.Errors = append(validationErr.Errors, FieldError{
			Field:   field,
			Message: desc.Description(),
		})
	}

	return validationErr
}
