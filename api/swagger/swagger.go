package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Campus Verse API",
        "description": "Peer-verified academic content hub",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Content", "description": "Content lifecycle and voting"},
        {"name": "Subjects", "description": "Subject catalogue and directories"},
        {"name": "Users", "description": "Profiles and karma leaderboard"},
        {"name": "Reports", "description": "Async digest exports"},
        {"name": "Extraction", "description": "AI-assisted intake"},
        {"name": "Audit", "description": "Privileged action trail"}
    ],
    "paths": {
        "/feed": {
            "get": {
                "tags": ["Content"],
                "summary": "List the content feed",
                "parameters": [
                    {"name": "subjectId", "in": "query", "type": "string"},
                    {"name": "branch", "in": "query", "type": "string"},
                    {"name": "type", "in": "query", "type": "string"},
                    {"name": "verified", "in": "query", "type": "boolean"},
                    {"name": "upcoming", "in": "query", "type": "boolean"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/content": {
            "post": {
                "tags": ["Content"],
                "summary": "Submit content",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateContentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error"}
                }
            }
        },
        "/content/{id}": {
            "get": {
                "tags": ["Content"],
                "summary": "Get a content item",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            },
            "delete": {
                "tags": ["Content"],
                "summary": "Delete owned content",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"},
                    "403": {"description": "Not the uploader"}
                }
            }
        },
        "/content/{id}/vote": {
            "post": {
                "tags": ["Content"],
                "summary": "Cast a verification vote",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/VoteRequest"}}
                ],
                "responses": {
                    "204": {"description": "Vote recorded"}
                }
            }
        },
        "/content/{id}/verify": {
            "post": {
                "tags": ["Content"],
                "summary": "Force-verify an item",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Verified"},
                    "403": {"description": "Privileged role required"}
                }
            }
        },
        "/content/{id}/reject": {
            "post": {
                "tags": ["Content"],
                "summary": "Force-reject an item",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Rejected and removed"},
                    "403": {"description": "Privileged role required"}
                }
            }
        },
        "/content/{id}/file": {
            "get": {
                "tags": ["Content"],
                "summary": "Download an item's attachment",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File"},
                    "404": {"description": "No attachment"}
                }
            }
        },
        "/content/{id}/calendar": {
            "get": {
                "tags": ["Content"],
                "summary": "External calendar link for a deadline",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Item has no deadline"}
                }
            }
        },
        "/content/stream": {
            "get": {
                "tags": ["Content"],
                "summary": "Server-sent content snapshots",
                "responses": {
                    "200": {"description": "event-stream"}
                }
            }
        },
        "/subjects": {
            "get": {
                "tags": ["Subjects"],
                "summary": "List subjects",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Subjects"],
                "summary": "Create subject",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateSubjectRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "409": {"description": "Duplicate id"}
                }
            }
        },
        "/subjects/{id}": {
            "get": {
                "tags": ["Subjects"],
                "summary": "Get subject",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not found"}
                }
            },
            "delete": {
                "tags": ["Subjects"],
                "summary": "Delete subject",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"}
                }
            }
        },
        "/subjects/{id}/directory": {
            "get": {
                "tags": ["Subjects"],
                "summary": "Chronological verified directory",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/users": {
            "get": {
                "tags": ["Users"],
                "summary": "List users",
                "parameters": [
                    {"name": "branch", "in": "query", "type": "string"},
                    {"name": "role", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/users/me": {
            "get": {
                "tags": ["Users"],
                "summary": "Caller profile",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/users/{enrollmentId}": {
            "get": {
                "tags": ["Users"],
                "summary": "User by enrollment id",
                "parameters": [
                    {"name": "enrollmentId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/users/{enrollmentId}/profile": {
            "patch": {
                "tags": ["Users"],
                "summary": "Update profile fields",
                "parameters": [
                    {"name": "enrollmentId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateProfileRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "403": {"description": "Not the owner"}
                }
            }
        },
        "/leaderboard": {
            "get": {
                "tags": ["Users"],
                "summary": "Karma leaderboard",
                "parameters": [
                    {"name": "branch", "in": "query", "type": "string"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/generate": {
            "post": {
                "tags": ["Reports"],
                "summary": "Queue a report export",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReportRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted"}
                }
            }
        },
        "/reports/{id}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Report job status",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/reports/download/{token}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Download a finished report",
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File"},
                    "403": {"description": "Invalid or expired token"}
                }
            }
        },
        "/extract": {
            "post": {
                "tags": ["Extraction"],
                "summary": "Extract assignment fields from an image",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ExtractImageRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "502": {"description": "Upstream extraction failure"}
                }
            }
        },
        "/summarize": {
            "post": {
                "tags": ["Extraction"],
                "summary": "Generate study notes from a PDF",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SummarizeRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "502": {"description": "Upstream extraction failure"}
                }
            }
        },
        "/admin/audit": {
            "get": {
                "tags": ["Audit"],
                "summary": "Recent privileged actions",
                "parameters": [
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        }
    },
    "definitions": {
        "CreateContentRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "content": {"type": "string"},
                "type": {"type": "string"},
                "subject_id": {"type": "string"},
                "deadline_date": {"type": "string"}
            },
            "required": ["title", "type", "subject_id"]
        },
        "VoteRequest": {
            "type": "object",
            "properties": {
                "direction": {"type": "string", "enum": ["up", "down"]}
            },
            "required": ["direction"]
        },
        "CreateSubjectRequest": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "code": {"type": "string"},
                "color": {"type": "string"}
            },
            "required": ["id", "name", "code"]
        },
        "UpdateProfileRequest": {
            "type": "object",
            "properties": {
                "mobile": {"type": "string"},
                "profile_pic": {"type": "string"}
            }
        },
        "ReportRequest": {
            "type": "object",
            "properties": {
                "type": {"type": "string", "enum": ["verified_digest", "deadlines", "leaderboard"]},
                "subject_id": {"type": "string"},
                "branch": {"type": "string"},
                "format": {"type": "string", "enum": ["csv", "pdf"]}
            },
            "required": ["type", "format"]
        },
        "ExtractImageRequest": {
            "type": "object",
            "properties": {
                "image": {"type": "string"},
                "mime_type": {"type": "string"}
            },
            "required": ["image"]
        },
        "SummarizeRequest": {
            "type": "object",
            "properties": {
                "document": {"type": "string"}
            },
            "required": ["document"]
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
