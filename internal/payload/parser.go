// Package payload validates text pasted from the web console and turns it
// into a typed models.ParsedRoot. Parsing is pure: nothing is logged or
// retained.
package payload

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/logocruncher/logo-cruncher/internal/models"
)

// The wire types mirror only the fields we use. Unknown fields are ignored.
// Pointers distinguish a missing (or null) key from an empty value.
type wireRoot struct {
	Data *wireData `json:"data"`
}

type wireData struct {
	Items *[]wireItem `json:"data"`
	Total *float64    `json:"total"`
}

type wireItem struct {
	ID          int64            `json:"id"`
	Note        string           `json:"note"`
	Attachments []wireAttachment `json:"attachments"`
}

type wireAttachment struct {
	ID  int64  `json:"id"`
	URL string `json:"url"`
}

// Parse validates raw against the root -> data -> items -> attachments shape.
// It returns a *ParseError of KindSyntax when raw is not well-formed JSON and
// of KindSchema when it is well-formed but data.data is missing, null or of
// the wrong type. An empty data.data array is accepted.
func Parse(raw string) (*models.ParsedRoot, error) {
	data := []byte(raw)

	if err := checkSyntax(data); err != nil {
		return nil, err
	}

	var root wireRoot
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, schemaError(err)
	}
	if root.Data == nil {
		return nil, &ParseError{Kind: KindSchema, Field: "data", Err: errors.New("missing")}
	}
	if root.Data.Items == nil {
		return nil, &ParseError{Kind: KindSchema, Field: "data.data", Err: errors.New("missing")}
	}

	items := *root.Data.Items
	parsed := &models.ParsedRoot{
		Data: models.ParsedData{
			Items: make([]models.ParsedItem, 0, len(items)),
		},
	}
	if t := root.Data.Total; t != nil {
		if *t != math.Trunc(*t) {
			return nil, &ParseError{Kind: KindSchema, Field: "data.total", Err: fmt.Errorf("not an integer: %v", *t)}
		}
		// float64(math.MaxInt64) rounds up to 2^63, which int64 cannot hold.
		if *t < math.MinInt64 || *t >= math.MaxInt64 {
			return nil, &ParseError{Kind: KindSchema, Field: "data.total", Err: fmt.Errorf("out of range: %v", *t)}
		}
		parsed.Data.Total = int64(*t)
	}

	for _, item := range items {
		attachments := make([]models.ParsedAttachment, 0, len(item.Attachments))
		for _, a := range item.Attachments {
			attachments = append(attachments, models.ParsedAttachment{ID: a.ID, URL: a.URL})
		}
		parsed.Data.Items = append(parsed.Data.Items, models.ParsedItem{
			ID:          item.ID,
			Note:        item.Note,
			Attachments: attachments,
		})
	}

	return parsed, nil
}

// checkSyntax rejects anything that is not exactly one JSON value,
// including empty input and trailing garbage.
func checkSyntax(data []byte) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return &ParseError{Kind: KindSyntax, Err: errors.New("empty input")}
	}
	if json.Valid(data) {
		return nil
	}

	var v any
	err := json.Unmarshal(data, &v)
	if err == nil {
		// json.Valid and Unmarshal disagree only on exotic input; report generically.
		err = errors.New("invalid JSON")
	}
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		err = fmt.Errorf("%s at offset %d", syntaxErr.Error(), syntaxErr.Offset)
	}
	return &ParseError{Kind: KindSyntax, Err: err}
}

func schemaError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := typeErr.Field
		if field == "" {
			field = "(root)"
		}
		return &ParseError{
			Kind:  KindSchema,
			Field: field,
			Err:   fmt.Errorf("expected %s, got %s", describeType(typeErr.Type.String()), typeErr.Value),
		}
	}
	return &ParseError{Kind: KindSchema, Err: err}
}

func describeType(goType string) string {
	switch {
	case strings.HasPrefix(goType, "*[]"), strings.HasPrefix(goType, "[]"):
		return "array"
	case strings.Contains(goType, "payload.wire"):
		return "object"
	case goType == "int64", goType == "float64", goType == "*float64":
		return "number"
	case goType == "string":
		return "string"
	default:
		return goType
	}
}
