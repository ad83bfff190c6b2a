package httpapi

import (
	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/swaggo/swag"
)

const openAPIDoc = `{
  "swagger": "2.0",
  "info": {"title": "paramexport API", "version": "1.0", "description": "Submit documents for parameter update and export."},
  "basePath": "/",
  "paths": {
    "/workitems": {
      "post": {
        "summary": "Queue a work item",
        "consumes": ["application/json"],
        "produces": ["application/json"],
        "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/WorkItemRequest"}}],
        "responses": {
          "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/WorkItemStatus"}},
          "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorResponse"}},
          "429": {"description": "Queue full", "schema": {"$ref": "#/definitions/ErrorResponse"}}
        }
      }
    },
    "/workitems/{id}": {
      "get": {
        "summary": "Work item status",
        "produces": ["application/json"],
        "parameters": [{"in": "path", "name": "id", "required": true, "type": "string"}],
        "responses": {
          "200": {"description": "OK", "schema": {"$ref": "#/definitions/WorkItemStatus"}},
          "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
        }
      }
    }
  },
  "definitions": {
    "WorkItemRequest": {"type": "object", "properties": {
      "document": {"type": "string", "example": "/work/peg/SquarePeg.ipt"},
      "arguments": {"type": "object", "additionalProperties": {"type": "string"}, "example": {"_1": "/work/params.json"}}
    }},
    "WorkItemStatus": {"type": "object", "properties": {
      "id": {"type": "string"},
      "status": {"type": "string", "example": "finished"},
      "document": {"type": "string"},
      "outputs": {"type": "array", "items": {"type": "string"}},
      "submitted_at": {"type": "integer"},
      "finished_at": {"type": "integer"}
    }},
    "ErrorResponse": {"type": "object", "properties": {
      "error": {"type": "string"},
      "code": {"type": "integer"}
    }}
  }
}`

type apiDoc struct{}

func (apiDoc) ReadDoc() string { return openAPIDoc }

func init() {
	swag.Register(swag.Name, apiDoc{})
}

// MountSwagger serves the UI and doc.json under /swagger/.
func MountSwagger(r chi.Router) {
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
}
