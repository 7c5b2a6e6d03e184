package har

import (
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// archiveSchema lists the fields an archive must carry and their ranges.
// Optional HAR fields (queryString, cookies, cache, ...) are allowed and
// ignored.
const archiveSchema = `{
  "type": "object",
  "required": ["log"],
  "properties": {
    "log": {
      "type": "object",
      "required": ["version", "creator", "entries"],
      "properties": {
        "version": {"type": "string"},
        "creator": {
          "type": "object",
          "required": ["name", "version"],
          "properties": {
            "name": {"type": "string"},
            "version": {"type": "string"}
          }
        },
        "entries": {"type": "array", "items": {"$ref": "#/$defs/entry"}}
      }
    }
  },
  "$defs": {
    "size": {"type": "integer", "minimum": 0},
    "duration": {"type": "number", "minimum": 0},
    "headers": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name", "value"],
        "properties": {
          "name": {"type": "string"},
          "value": {"type": "string"}
        }
      }
    },
    "entry": {
      "type": "object",
      "required": ["startedDateTime", "time", "request", "response", "timings"],
      "properties": {
        "startedDateTime": {"type": "string", "minLength": 1},
        "time": {"$ref": "#/$defs/duration"},
        "request": {
          "type": "object",
          "required": ["method", "url", "httpVersion", "headers", "bodySize"],
          "properties": {
            "method": {"type": "string", "minLength": 1},
            "url": {"type": "string", "minLength": 1},
            "httpVersion": {"type": "string"},
            "headers": {"$ref": "#/$defs/headers"},
            "postData": {
              "type": "object",
              "required": ["text"],
              "properties": {
                "mimeType": {"type": "string"},
                "text": {"type": "string"},
                "encoding": {"type": "string"}
              }
            },
            "bodySize": {"$ref": "#/$defs/size"}
          }
        },
        "response": {
          "type": "object",
          "required": ["status", "statusText", "httpVersion", "headers", "content", "bodySize"],
          "properties": {
            "status": {"type": "integer", "minimum": 100, "maximum": 599},
            "statusText": {"type": "string"},
            "httpVersion": {"type": "string"},
            "headers": {"$ref": "#/$defs/headers"},
            "content": {
              "type": "object",
              "required": ["size", "mimeType"],
              "properties": {
                "size": {"$ref": "#/$defs/size"},
                "mimeType": {"type": "string"},
                "text": {"type": "string"},
                "encoding": {"type": "string"}
              }
            },
            "bodySize": {"$ref": "#/$defs/size"}
          }
        },
        "timings": {
          "type": "object",
          "required": ["send", "wait", "receive"],
          "properties": {
            "send": {"$ref": "#/$defs/duration"},
            "wait": {"$ref": "#/$defs/duration"},
            "receive": {"$ref": "#/$defs/duration"}
          }
        }
      }
    }
  }
}`

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func loadSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource("archive.json", strings.NewReader(archiveSchema)); err != nil {
			schemaErr = fmt.Errorf("failed to add archive schema: %w", err)
			return
		}
		compiledSchema, schemaErr = compiler.Compile("archive.json")
	})
	return compiledSchema, schemaErr
}

// validate checks a raw decoded document against the archive schema.
func validate(doc interface{}) error {
	schema, err := loadSchema()
	if err != nil {
		return err
	}
	return schema.Validate(doc)
}

// schemaDetail flattens a validation error into "at <pointer>: <message>"
// pairs, one per failing leaf.
func schemaDetail(err error) string {
	verr, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return err.Error()
	}
	var parts []string
	collectLeaves(verr, &parts)
	if len(parts) == 0 {
		return verr.Message
	}
	return strings.Join(parts, "; ")
}

func collectLeaves(err *jsonschema.ValidationError, parts *[]string) {
	if len(err.Causes) == 0 {
		loc := err.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		*parts = append(*parts, fmt.Sprintf("at %s: %s", loc, err.Message))
		return
	}
	for _, cause := range err.Causes {
		collectLeaves(cause, parts)
	}
}
