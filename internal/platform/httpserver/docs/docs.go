// Package docs registers the OpenAPI description served under /swagger/.
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
        "/v1/businesses": {
            "post": {
                "tags": ["businesses"],
                "summary": "Create a business",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "description": "Operator id", "name": "X-User-Id", "in": "header", "required": true},
                    {"description": "Business", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateBusinessRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/BusinessDTO"}},
                    "409": {"description": "Slug already taken", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/v1/campaigns/{campaign_id}": {
            "get": {
                "tags": ["campaigns"],
                "summary": "Get a campaign",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "description": "Campaign id", "name": "campaign_id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/CampaignDTO"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/v1/campaigns/{campaign_id}/launch": {
            "post": {
                "tags": ["campaigns"],
                "summary": "Launch an approved campaign",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "description": "Operator id", "name": "X-User-Id", "in": "header", "required": true},
                    {"type": "string", "description": "Campaign id", "name": "campaign_id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/CampaignDTO"}},
                    "409": {"description": "Transition refused", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/v1/tasks": {
            "get": {
                "tags": ["tasks"],
                "summary": "List tasks in board order",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "campaign_id", "in": "query"},
                    {"type": "string", "name": "business_id", "in": "query"},
                    {"type": "string", "name": "assignee", "in": "query"},
                    {"type": "string", "name": "status", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ListTasksResponse"}}
                }
            }
        },
        "/v1/tasks/{task_id}/complete": {
            "post": {
                "tags": ["tasks"],
                "summary": "Complete a task, unblocking dependents",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "description": "Operator id", "name": "X-User-Id", "in": "header", "required": true},
                    {"type": "string", "description": "Task id", "name": "task_id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/CompleteTaskResponse"}},
                    "409": {"description": "Blocked or already completed", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/v1/escalations": {
            "get": {
                "tags": ["escalations"],
                "summary": "List escalations, most severe first",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "status", "in": "query"},
                    {"type": "string", "name": "severity", "in": "query"},
                    {"type": "string", "name": "campaign_id", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ListEscalationsResponse"}}
                }
            }
        },
        "/v1/activity": {
            "get": {
                "tags": ["activity"],
                "summary": "Read the activity log, newest first",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "business_id", "in": "query"},
                    {"type": "string", "name": "campaign_id", "in": "query"},
                    {"type": "string", "name": "entity_type", "in": "query"},
                    {"type": "string", "name": "entity_id", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ListActivityResponse"}}
                }
            }
        }
    },
    "definitions": {
        "ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "CreateBusinessRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "slug": {"type": "string"},
                "description": {"type": "string"},
                "website": {"type": "string"},
                "brand_colors": {"type": "array", "items": {"type": "string"}},
                "settings": {"type": "object"}
            }
        },
        "BusinessDTO": {
            "type": "object",
            "properties": {
                "business_id": {"type": "string"},
                "name": {"type": "string"},
                "slug": {"type": "string"},
                "created_at": {"type": "string"}
            }
        },
        "CampaignDTO": {
            "type": "object",
            "properties": {
                "campaign_id": {"type": "string"},
                "playbook_id": {"type": "string"},
                "business_id": {"type": "string"},
                "name": {"type": "string"},
                "status": {"type": "string", "enum": ["setup", "approved", "live", "paused", "completed"]},
                "content_count": {"type": "integer"},
                "launched_at": {"type": "string"},
                "completed_at": {"type": "string"}
            }
        },
        "TaskDTO": {
            "type": "object",
            "properties": {
                "task_id": {"type": "string"},
                "campaign_id": {"type": "string"},
                "title": {"type": "string"},
                "assignee": {"type": "string", "enum": ["human", "system"]},
                "status": {"type": "string", "enum": ["pending", "in_progress", "completed", "blocked"]},
                "priority": {"type": "integer"},
                "depends_on": {"type": "string"},
                "blocked": {"type": "boolean"}
            }
        },
        "ListTasksResponse": {
            "type": "object",
            "properties": {
                "items": {"type": "array", "items": {"$ref": "#/definitions/TaskDTO"}}
            }
        },
        "CompleteTaskResponse": {
            "type": "object",
            "properties": {
                "task": {"$ref": "#/definitions/TaskDTO"},
                "unblocked_tasks": {"type": "array", "items": {"type": "string"}},
                "campaign_status": {"type": "string"},
                "campaign_reset": {"type": "boolean"},
                "follow_up_error": {"type": "string"}
            }
        },
        "EscalationDTO": {
            "type": "object",
            "properties": {
                "escalation_id": {"type": "string"},
                "campaign_id": {"type": "string"},
                "title": {"type": "string"},
                "status": {"type": "string", "enum": ["open", "acknowledged", "resolved"]},
                "severity": {"type": "string", "enum": ["low", "medium", "high", "critical"]},
                "resolution": {"type": "string"}
            }
        },
        "ListEscalationsResponse": {
            "type": "object",
            "properties": {
                "items": {"type": "array", "items": {"$ref": "#/definitions/EscalationDTO"}}
            }
        },
        "ActivityEntryDTO": {
            "type": "object",
            "properties": {
                "entry_id": {"type": "string"},
                "business_id": {"type": "string"},
                "campaign_id": {"type": "string"},
                "actor": {"type": "string"},
                "action": {"type": "string"},
                "entity_type": {"type": "string"},
                "entity_id": {"type": "string"},
                "details": {"type": "object"},
                "created_at": {"type": "string"}
            }
        },
        "ListActivityResponse": {
            "type": "object",
            "properties": {
                "items": {"type": "array", "items": {"$ref": "#/definitions/ActivityEntryDTO"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Garden Campaigns API",
	Description:      "Campaign lifecycle, task board, escalations and activity log.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
