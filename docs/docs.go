// Package docs registers the gateway's OpenAPI document with swag so
// gin-swagger can serve it at /swagger/index.html. Regenerate with
// `swag init -g internal/http/router.go` after changing handler annotations.
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
        "/chats": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Chats"],
                "summary": "List chats",
                "operationId": "listChats",
                "parameters": [
                    {"type": "string", "description": "User ID", "name": "X-User-ID", "in": "header"},
                    {"type": "string", "description": "Weak ETag from a previous response", "name": "If-None-Match", "in": "header"},
                    {"minimum": 1, "type": "integer", "default": 1, "description": "Page number", "name": "page", "in": "query"},
                    {"maximum": 100, "minimum": 1, "type": "integer", "default": 20, "description": "Items per page", "name": "page_size", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.ListChatsResponse"}},
                    "304": {"description": "Not Modified"},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Chats"],
                "summary": "Create a chat",
                "operationId": "createChat",
                "parameters": [
                    {"type": "string", "description": "User ID", "name": "X-User-ID", "in": "header"},
                    {"description": "Optional title", "name": "body", "in": "body", "schema": {"$ref": "#/definitions/handlers.CreateChatRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.Chat"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/chats/{id}": {
            "delete": {
                "tags": ["Chats"],
                "summary": "Delete a chat",
                "operationId": "deleteChat",
                "parameters": [
                    {"type": "string", "description": "User ID", "name": "X-User-ID", "in": "header"},
                    {"type": "string", "format": "uuid", "description": "Chat ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/chats/{id}/title": {
            "put": {
                "consumes": ["application/json"],
                "tags": ["Chats"],
                "summary": "Rename a chat",
                "operationId": "updateChatTitle",
                "parameters": [
                    {"type": "string", "format": "uuid", "description": "Chat ID", "name": "id", "in": "path", "required": true},
                    {"description": "New title", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.UpdateChatTitleRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/chats/{id}/messages": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Messages"],
                "summary": "List messages in a chat",
                "operationId": "listMessages",
                "parameters": [
                    {"type": "string", "format": "uuid", "description": "Chat ID", "name": "id", "in": "path", "required": true},
                    {"type": "integer", "description": "Page number", "name": "page", "in": "query"},
                    {"type": "integer", "description": "Items per page", "name": "page_size", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.ListMessagesResponse"}},
                    "304": {"description": "Not Modified"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Messages"],
                "summary": "Send a message",
                "operationId": "postMessage",
                "parameters": [
                    {"type": "string", "description": "Key for safe retries", "name": "Idempotency-Key", "in": "header"},
                    {"type": "string", "format": "uuid", "description": "Chat ID", "name": "id", "in": "path", "required": true},
                    {"description": "Prompt", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.PostMessageRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.PostMessageResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/festivals": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Festivals"],
                "summary": "Upcoming festivals",
                "operationId": "listFestivals",
                "parameters": [
                    {"maximum": 366, "minimum": 0, "type": "integer", "description": "Look-ahead window in days", "name": "days_ahead", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.FestivalsResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/mail": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Mail"],
                "summary": "Start a mail",
                "operationId": "triggerMail",
                "parameters": [
                    {"description": "Recipient, subject and body", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/services.MailRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/services.MailResult"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "domain.Message": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "role": {"type": "string", "enum": ["user", "assistant"]},
                "content": {"type": "string"},
                "language": {"type": "string"},
                "score": {"type": "number"},
                "timestamp": {"type": "string", "format": "date-time"}
            }
        },
        "domain.Chat": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "title": {"type": "string"},
                "messages": {"type": "array", "items": {"$ref": "#/definitions/domain.Message"}},
                "created_at": {"type": "string", "format": "date-time"},
                "updated_at": {"type": "string", "format": "date-time"}
            }
        },
        "domain.Recommendations": {
            "type": "object",
            "properties": {
                "stock_updates": {"type": "array", "items": {"type": "string"}},
                "discount_suggestions": {"type": "array", "items": {"type": "string"}},
                "marketing_tips": {"type": "array", "items": {"type": "string"}}
            }
        },
        "domain.Festival": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "date": {"type": "string"},
                "category": {"type": "string"},
                "days_until": {"type": "integer"},
                "is_today": {"type": "boolean"},
                "notification": {"type": "string"},
                "recommendations": {"$ref": "#/definitions/domain.Recommendations"}
            }
        },
        "handlers.Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total": {"type": "integer"},
                "total_pages": {"type": "integer"},
                "has_next": {"type": "boolean"}
            }
        },
        "handlers.ErrorResponse": {
            "type": "object",
            "properties": {
                "request_id": {"type": "string"},
                "code": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "handlers.CreateChatRequest": {
            "type": "object",
            "properties": {"title": {"type": "string"}}
        },
        "handlers.UpdateChatTitleRequest": {
            "type": "object",
            "required": ["title"],
            "properties": {"title": {"type": "string", "maxLength": 255, "minLength": 1}}
        },
        "handlers.ListChatsResponse": {
            "type": "object",
            "properties": {
                "chats": {"type": "array", "items": {"$ref": "#/definitions/domain.Chat"}},
                "pagination": {"$ref": "#/definitions/handlers.Pagination"}
            }
        },
        "handlers.PostMessageRequest": {
            "type": "object",
            "required": ["content"],
            "properties": {
                "content": {"type": "string"},
                "language": {"type": "string", "enum": ["en", "ta", "hi"]}
            }
        },
        "handlers.PostMessageResponse": {
            "type": "object",
            "properties": {
                "chat": {"$ref": "#/definitions/domain.Chat"},
                "message": {"$ref": "#/definitions/domain.Message"}
            }
        },
        "handlers.ListMessagesResponse": {
            "type": "object",
            "properties": {
                "messages": {"type": "array", "items": {"$ref": "#/definitions/domain.Message"}},
                "pagination": {"$ref": "#/definitions/handlers.Pagination"}
            }
        },
        "handlers.FestivalsResponse": {
            "type": "object",
            "properties": {
                "festivals": {"type": "array", "items": {"$ref": "#/definitions/domain.Festival"}}
            }
        },
        "services.MailRequest": {
            "type": "object",
            "properties": {
                "to": {"type": "string"},
                "subject": {"type": "string"},
                "body": {"type": "string"}
            }
        },
        "services.MailResult": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "enum": ["relayed", "compose"]},
                "compose_url": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Retail Chat Gateway API",
	Description:      "Chat history, answers, festival alerts and mail relay for the retail sales dashboard.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
