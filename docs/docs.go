// Package docs registers the OpenAPI description served at /swagger.
package docs

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
        "/health": {
            "get": {"tags": ["health"], "summary": "Liveness", "produces": ["application/json"], "responses": {"200": {"description": "OK"}}}
        },
        "/health/ready": {
            "get": {"tags": ["health"], "summary": "Readiness", "produces": ["application/json"], "responses": {"200": {"description": "OK"}, "503": {"description": "Service Unavailable"}}}
        },
        "/health/jobs": {
            "get": {"tags": ["health"], "summary": "Background jobs", "produces": ["application/json"], "responses": {"200": {"description": "OK"}}}
        },
        "/v1/me": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["users"], "summary": "Current user", "responses": {"200": {"description": "OK"}}}
        },
        "/v1/me/permissions": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["users"], "summary": "Permissions of the current user", "responses": {"200": {"description": "OK"}}}
        },
        "/v1/maintenance-requests": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["maintenance"],
                "summary": "List maintenance requests visible to the caller",
                "parameters": [
                    {"type": "string", "name": "status", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query"},
                    {"type": "integer", "name": "offset", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["maintenance"],
                "summary": "File a maintenance request",
                "parameters": [{"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.CreateMaintenanceRequestInput"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/models.MaintenanceRequest"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/common.ErrorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/common.ErrorResponse"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/common.ErrorResponse"}}
                }
            }
        },
        "/v1/maintenance-requests/{id}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["maintenance"], "summary": "Get a maintenance request", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.MaintenanceRequest"}}, "403": {"description": "Forbidden"}, "404": {"description": "Not Found"}}}
        },
        "/v1/maintenance-requests/{id}/history": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["maintenance"], "summary": "Maintenance request history", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}
        },
        "/v1/maintenance-requests/{id}/work-order": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["maintenance"], "summary": "Get the work order of a request", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}
        },
        "/v1/maintenance-requests/{id}/approve": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["maintenance"], "summary": "Approve a pending request", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}, "409": {"description": "Conflict"}, "422": {"description": "Unprocessable Entity"}}}
        },
        "/v1/maintenance-requests/{id}/reject": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["maintenance"], "summary": "Reject a pending request", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "422": {"description": "Unprocessable Entity"}}}
        },
        "/v1/maintenance-requests/{id}/assign": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["maintenance"], "summary": "Assign a workman", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "422": {"description": "Unprocessable Entity"}}}
        },
        "/v1/maintenance-requests/{id}/start": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["maintenance"], "summary": "Start work", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}, "422": {"description": "Unprocessable Entity"}}}
        },
        "/v1/maintenance-requests/{id}/complete": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["maintenance"], "summary": "Complete work", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}, "422": {"description": "Unprocessable Entity"}}}
        },
        "/v1/maintenance-requests/{id}/attachments": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["maintenance"], "summary": "List attachments", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["maintenance"], "summary": "Upload a photo", "consumes": ["multipart/form-data"], "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}, {"type": "file", "name": "file", "in": "formData", "required": true}], "responses": {"201": {"description": "Created"}, "503": {"description": "Service Unavailable"}}}
        },
        "/v1/notifications": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["notifications"], "summary": "List notifications", "parameters": [{"type": "boolean", "name": "unread", "in": "query"}], "responses": {"200": {"description": "OK"}}}
        },
        "/v1/notifications/{id}/read": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["notifications"], "summary": "Mark a notification read", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"204": {"description": "No Content"}}}
        }
    },
    "definitions": {
        "common.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {
                    "type": "object",
                    "properties": {
                        "code": {"type": "string"},
                        "message": {"type": "string"},
                        "details": {"type": "object", "additionalProperties": {"type": "string"}}
                    }
                }
            }
        },
        "models.CreateMaintenanceRequestInput": {
            "type": "object",
            "properties": {
                "unit_id": {"type": "integer"},
                "title": {"type": "string"},
                "description": {"type": "string"},
                "priority": {"type": "string", "enum": ["low", "medium", "high", "urgent"]},
                "category": {"type": "string"}
            }
        },
        "models.MaintenanceRequest": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "organization_id": {"type": "integer"},
                "unit_id": {"type": "integer"},
                "tenant_id": {"type": "integer"},
                "assigned_workman_id": {"type": "integer"},
                "title": {"type": "string"},
                "description": {"type": "string"},
                "category": {"type": "string"},
                "priority": {"type": "string"},
                "status": {"type": "string", "enum": ["pending", "approved", "rejected", "assigned", "in_progress", "completed"]},
                "estimated_cost": {"type": "number"},
                "actual_cost": {"type": "number"},
                "rejection_reason": {"type": "string"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
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
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "HomelyQuad Maintenance API",
	Description:      "Maintenance requests for rented units: filing, approval, assignment and completion.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
