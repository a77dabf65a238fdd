// Package docs holds the OpenAPI document served at /swagger/doc.json.
// Regenerate with: swag init -g cmd/sercha-pulse/main.go
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "Sercha OSS",
            "url": "https://github.com/custodia-labs/sercha-pulse/issues"
        },
        "license": {
            "name": "Apache 2.0",
            "url": "http://www.apache.org/licenses/LICENSE-2.0.html"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {
                "description": "Returns the health status of the API",
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.StatusResponse"}}
                }
            }
        },
        "/ready": {
            "get": {
                "description": "Pings PostgreSQL and, when configured, Redis",
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.ReadyResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/http.ReadyResponse"}}
                }
            }
        },
        "/version": {
            "get": {
                "description": "Returns the current API version",
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Get API version",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.VersionResponse"}}
                }
            }
        },
        "/integrations": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Returns the caller's connections, active or not",
                "produces": ["application/json"],
                "tags": ["Integrations"],
                "summary": "List connections",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.CredentialSummary"}}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/integrations/connect": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Returns the provider authorization URL and sets the flow cookie",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Integrations"],
                "summary": "Start connecting an integration",
                "parameters": [
                    {"description": "Integration to connect", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/driving.AuthorizeRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/driving.AuthorizeResponse"}},
                    "400": {"description": "Unsupported integration or configuration error", "schema": {"$ref": "#/definitions/http.UnsupportedIntegrationResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/integrations/{provider}": {
            "delete": {
                "security": [{"BearerAuth": []}],
                "description": "Deactivates the credential and clears its tokens",
                "tags": ["Integrations"],
                "summary": "Disconnect an integration",
                "parameters": [
                    {"type": "string", "description": "Provider", "name": "provider", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.UnsupportedIntegrationResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/integrations/{provider}/containers": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Lists channels or rooms of a connected integration",
                "produces": ["application/json"],
                "tags": ["Integrations"],
                "summary": "List containers",
                "parameters": [
                    {"type": "string", "description": "Provider", "name": "provider", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.Container"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/oauth/{provider}/callback": {
            "get": {
                "description": "Completes the flow and redirects to the frontend status page",
                "tags": ["Integrations"],
                "summary": "OAuth callback",
                "parameters": [
                    {"type": "string", "description": "Provider", "name": "provider", "in": "path", "required": true},
                    {"type": "string", "description": "Authorization code", "name": "code", "in": "query"},
                    {"type": "string", "description": "Signed state", "name": "state", "in": "query"},
                    {"type": "string", "description": "Provider error code", "name": "error", "in": "query"},
                    {"type": "string", "description": "Provider error description", "name": "error_description", "in": "query"}
                ],
                "responses": {
                    "302": {"description": "Found"}
                }
            }
        },
        "/providers": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Returns the supported providers and whether each is configured",
                "produces": ["application/json"],
                "tags": ["Integrations"],
                "summary": "List providers",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.ProviderInfo"}}}
                }
            }
        },
        "/unified": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Fans out to the caller's connected providers and merges the results newest first. Provider failures are reported in metadata.errors and never fail the request.",
                "produces": ["application/json"],
                "tags": ["Unified"],
                "summary": "Unified feed",
                "parameters": [
                    {"type": "string", "default": "messages", "description": "messages, meetings, activities or all", "name": "type", "in": "query"},
                    {"type": "string", "description": "Comma-separated provider subset", "name": "services", "in": "query"},
                    {"type": "string", "description": "RFC 3339 timestamp or YYYY-MM-DD", "name": "dateFrom", "in": "query"},
                    {"type": "string", "description": "RFC 3339 timestamp or YYYY-MM-DD", "name": "dateTo", "in": "query"},
                    {"type": "integer", "description": "Maximum records (default 50, max 500)", "name": "limit", "in": "query"},
                    {"type": "boolean", "description": "Include raw provider fields", "name": "includeMetadata", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.UnifiedResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "domain.Capabilities": {
            "type": "object",
            "properties": {
                "messages": {"type": "boolean"},
                "meetings": {"type": "boolean"}
            }
        },
        "domain.Container": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "type": {"type": "string"},
                "metadata": {"type": "object", "additionalProperties": {"type": "string"}}
            }
        },
        "domain.CredentialSummary": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "provider": {"type": "string"},
                "external_team_id": {"type": "string"},
                "external_team_name": {"type": "string"},
                "external_user_name": {"type": "string"},
                "scopes": {"type": "array", "items": {"type": "string"}},
                "is_active": {"type": "boolean"},
                "has_refresh_token": {"type": "boolean"},
                "expires_at": {"type": "string"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "domain.ProviderInfo": {
            "type": "object",
            "properties": {
                "type": {"type": "string", "example": "slack"},
                "name": {"type": "string", "example": "Slack"},
                "style": {"type": "string", "example": "chat"},
                "capabilities": {"$ref": "#/definitions/domain.Capabilities"},
                "configured": {"type": "boolean"}
            }
        },
        "domain.RateLimitStatus": {
            "type": "object",
            "properties": {
                "limit": {"type": "integer"},
                "remaining": {"type": "integer"},
                "resetAt": {"type": "string"},
                "retryAfterSeconds": {"type": "integer"}
            }
        },
        "driving.AuthorizeRequest": {
            "description": "Request to start OAuth authorization flow",
            "type": "object",
            "properties": {
                "integrationId": {"type": "string", "example": "slack"},
                "mode": {"type": "string", "example": "connect"}
            }
        },
        "driving.AuthorizeResponse": {
            "description": "Response containing the OAuth authorization URL",
            "type": "object",
            "properties": {
                "authUrl": {"type": "string", "example": "https://slack.com/oauth/v2/authorize?client_id=..."},
                "integrationId": {"type": "string", "example": "slack"},
                "expiresAt": {"type": "string", "example": "2024-01-15T10:10:00Z"},
                "timestamp": {"type": "string", "example": "2024-01-15T10:00:00Z"}
            }
        },
        "http.ErrorResponse": {
            "description": "API error response",
            "type": "object",
            "properties": {
                "error": {"type": "string", "example": "invalid request body"}
            }
        },
        "http.ReadyResponse": {
            "description": "Readiness status with per-dependency checks",
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "ready"},
                "checks": {"type": "object", "additionalProperties": {"type": "string"}}
            }
        },
        "http.StatusResponse": {
            "description": "Simple status response",
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "ok"}
            }
        },
        "http.UnifiedMetadata": {
            "type": "object",
            "properties": {
                "totalServices": {"type": "integer", "example": 2},
                "successfulServices": {"type": "integer", "example": 1},
                "errors": {"type": "object", "additionalProperties": {"type": "string"}},
                "rateLimits": {"type": "object", "additionalProperties": {"$ref": "#/definitions/domain.RateLimitStatus"}}
            }
        },
        "http.UnifiedPagination": {
            "type": "object",
            "properties": {
                "hasMore": {"type": "boolean"},
                "totalCount": {"type": "integer", "example": 42}
            }
        },
        "http.UnifiedResponse": {
            "description": "Merged provider data with per-provider status",
            "type": "object",
            "properties": {
                "success": {"type": "boolean", "example": true},
                "data": {},
                "metadata": {"$ref": "#/definitions/http.UnifiedMetadata"},
                "pagination": {"$ref": "#/definitions/http.UnifiedPagination"}
            }
        },
        "http.UnsupportedIntegrationResponse": {
            "description": "Returned for an unknown integration id",
            "type": "object",
            "properties": {
                "error": {"type": "string", "example": "unsupported integration"},
                "supported": {"type": "array", "items": {"type": "string"}}
            }
        },
        "http.VersionResponse": {
            "description": "API version response",
            "type": "object",
            "properties": {
                "version": {"type": "string", "example": "1.0.0"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "JWT Bearer token. Format: \"Bearer {token}\"",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{"http", "https"},
	Title:            "Sercha Pulse API",
	Description:      "Connect team communication and meeting providers over OAuth and read one merged feed of messages, meetings and activities.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
