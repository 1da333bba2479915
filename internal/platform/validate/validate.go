// Package validate checks request payloads against embedded JSON Schemas.
package validate

import (
	"embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// Schema names a request payload schema.
type Schema string

const (
	Customer   Schema = "customer"
	Order      Schema = "order"
	Segment    Schema = "segment"
	Campaign   Schema = "campaign"
	Receipt    Schema = "receipt"
	VendorSend Schema = "vendor_send"
)

var all = []Schema{Customer, Order, Segment, Campaign, Receipt, VendorSend}

// Error is the first violated constraint of a payload.
type Error struct {
	// Field is the JSON pointer of the offending value without the leading slash; empty for the document root.
	Field   string
	Message string
}

func (e *Error) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

var (
	once     sync.Once
	compiled map[Schema]*jsonschema.Schema
	loadErr  error
)

func load() {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	c.AssertFormat = true
	compiled = make(map[Schema]*jsonschema.Schema, len(all))
	for _, s := range all {
		url := "schemas/" + string(s) + ".json"
		f, err := schemaFS.Open(url)
		if err != nil {
			loadErr = err
			return
		}
		err = c.AddResource(url, f)
		f.Close()
		if err != nil {
			loadErr = fmt.Errorf("validate: add %s: %w", s, err)
			return
		}
		sch, err := c.Compile(url)
		if err != nil {
			loadErr = fmt.Errorf("validate: compile %s: %w", s, err)
			return
		}
		compiled[s] = sch
	}
}

// Document validates a decoded JSON document (as produced by encoding/json into any) against s.
// A violation is returned as *Error describing the deepest first failing constraint.
func Document(s Schema, doc any) error {
	once.Do(load)
	if loadErr != nil {
		return loadErr
	}
	sch, ok := compiled[s]
	if !ok {
		return fmt.Errorf("validate: unknown schema %q", s)
	}
	err := sch.Validate(doc)
	if err == nil {
		return nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err
	}
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	return &Error{Field: strings.TrimPrefix(ve.InstanceLocation, "/"), Message: ve.Message}
}
