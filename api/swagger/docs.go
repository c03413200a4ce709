// Package swagger registers the OpenAPI document served at /swagger.
package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/audit-logs": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Lists who ran or exported which valuation, newest first",
                "produces": ["application/json"],
                "tags": ["audit"],
                "summary": "Get audit logs",
                "parameters": [
                    {"type": "integer", "description": "Page number (default 1)", "name": "page", "in": "query"},
                    {"type": "integer", "description": "Number of items per page (default 20)", "name": "limit", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}
            }
        },
        "/api/rotations/runs": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["rotations"],
                "summary": "List valuation runs",
                "parameters": [
                    {"type": "string", "description": "SUCCEEDED or REJECTED", "name": "status", "in": "query"},
                    {"type": "integer", "description": "Page number (default 1)", "name": "page", "in": "query"},
                    {"type": "integer", "description": "Number of items per page (default 20)", "name": "limit", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}
            }
        },
        "/api/rotations/runs/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["rotations"],
                "summary": "Get valuation run",
                "parameters": [{"type": "string", "description": "Run ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/api/rotations/templates": {
            "get": {
                "produces": ["application/json"],
                "tags": ["rotations"],
                "summary": "List prescription templates",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}
            }
        },
        "/api/rotations/templates/{name}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["rotations"],
                "summary": "Get prescription template",
                "parameters": [{"type": "string", "description": "Template name", "name": "name", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/api/rotations/valuate": {
            "post": {
                "description": "Runs the discounted-cash-flow engine. Engine rejections are returned as 400 (invalid_input) or 422 (no_positive_result_years, degenerate_rate).",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["rotations"],
                "summary": "Valuate a rotation",
                "parameters": [{"description": "Prescription and parameters", "name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/service.ValuationRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.Response"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/api/rotations/valuate/export": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"],
                "tags": ["rotations"],
                "summary": "Export a rotation valuation",
                "parameters": [{"description": "Prescription and parameters", "name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/service.ValuationRequest"}}],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.Response"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        }
    },
    "definitions": {
        "response.Response": {
            "type": "object",
            "properties": {
                "data": {},
                "error": {"type": "string"},
                "error_kind": {"type": "string"},
                "status": {"type": "string"},
                "status_code": {"type": "integer"}
            }
        },
        "rotation.Entry": {
            "type": "object",
            "properties": {
                "cost": {"type": "number"},
                "measure": {"type": "string"},
                "revenue": {"type": "number"},
                "t": {"type": "integer"}
            }
        },
        "service.ValuationRequest": {
            "type": "object",
            "required": ["rotation_length"],
            "properties": {
                "entries": {"type": "array", "items": {"$ref": "#/definitions/rotation.Entry"}},
                "fill_gaps": {"type": "boolean"},
                "flat_yearly_cost": {"type": "number"},
                "flat_yearly_revenue": {"type": "number"},
                "interest_rate": {"type": "number"},
                "rotation_length": {"type": "integer", "minimum": 1}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Rotation Valuation API",
	Description:      "Discounted-cash-flow valuation of forestry rotations: NPV, FPV and Land Expectation Value.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
