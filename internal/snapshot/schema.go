package snapshot

// schemaJSON is the JSON Schema for the snapshot format. Kept inline so the
// binary validates its own output without external files.
const schemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "py2uml graph snapshot",
  "type": "object",
  "required": ["version", "modules", "classes"],
  "properties": {
    "version": {"type": "string"},
    "title": {"type": "string"},
    "modules": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "classes": {"type": "array", "items": {"type": "string"}},
          "functions": {"type": "array", "items": {"type": "string"}},
          "imports": {"type": "array", "items": {"$ref": "#/definitions/ref"}}
        },
        "additionalProperties": false
      }
    },
    "classes": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "name", "module"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "name": {"type": "string", "minLength": 1},
          "module": {"type": "string", "minLength": 1},
          "methods": {"type": "array", "items": {"type": "string"}},
          "attributes": {"type": "array", "items": {"type": "string"}},
          "bases": {"type": "array", "items": {"$ref": "#/definitions/ref"}}
        },
        "additionalProperties": false
      }
    }
  },
  "additionalProperties": false,
  "definitions": {
    "ref": {
      "type": "object",
      "required": ["kind", "label"],
      "properties": {
        "kind": {"enum": ["class", "module", "external"]},
        "target": {"type": "string"},
        "label": {"type": "string"}
      },
      "additionalProperties": false
    }
  }
}`
