package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "LHU Dashboard API",
        "description": "Student schedule and exam cache for the LHU dashboard",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Students", "description": "Cached schedules and exams per student"},
        {"name": "Schedules", "description": "Realtime status and duplicate detection"},
        {"name": "Sessions", "description": "Multi-account sessions and settings"},
        {"name": "Metrics", "description": "Health, readiness and cache statistics"}
    ],
    "paths": {
        "/health": {
            "get": {
                "tags": ["Metrics"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "tags": ["Metrics"],
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "A cache store could not be opened"}
                }
            }
        },
        "/metrics": {
            "get": {
                "tags": ["Metrics"],
                "summary": "Prometheus metrics",
                "produces": ["text/plain"],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/api/v1/metrics/snapshot": {
            "get": {
                "tags": ["Metrics"],
                "summary": "Cache and upstream counters as JSON",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/students/{id}/schedule": {
            "get": {
                "tags": ["Students"],
                "summary": "Weekly schedule with realtime status and duplicate groups",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "refresh", "in": "query", "type": "boolean", "description": "Bypass a fresh cache entry"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/StudentScheduleResponse"}},
                    "400": {"description": "Invalid student id", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Upstream unavailable and nothing cached", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/students/{id}/schedule/export": {
            "get": {
                "tags": ["Students"],
                "summary": "Export the schedule as CSV or PDF",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File attachment"},
                    "400": {"description": "Unsupported format", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/students/{id}/exams": {
            "get": {
                "tags": ["Students"],
                "summary": "Exam sittings ordered by start time",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "refresh", "in": "query", "type": "boolean"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Upstream unavailable and nothing cached", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/students/{id}/refresh": {
            "post": {
                "tags": ["Students"],
                "summary": "Queue a background refresh of schedule and exams",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "Refresh queue unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/students/{id}/cache": {
            "delete": {
                "tags": ["Students"],
                "summary": "Drop the cached schedule and exams of a student",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/api/v1/schedules/analyze": {
            "post": {
                "tags": ["Schedules"],
                "summary": "Run realtime status and duplicate detection over posted entries",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AnalyzeSchedulesRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid payload", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/sessions": {
            "post": {
                "tags": ["Sessions"],
                "summary": "Register an access token as a dashboard session",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AddSessionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid or expired token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Sessions"],
                "summary": "Sign a session out",
                "parameters": [
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/RemoveSessionRequest"}},
                    {"name": "Authorization", "in": "header", "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/api/v1/users/{id}/sessions": {
            "get": {
                "tags": ["Sessions"],
                "summary": "List live sessions of a user",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/users/{id}/settings": {
            "get": {
                "tags": ["Sessions"],
                "summary": "Load dashboard settings",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Sessions"],
                "summary": "Save dashboard settings",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/Settings"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid settings", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "CacheMeta": {
            "type": "object",
            "properties": {
                "source": {"type": "string", "enum": ["cache", "stale-cache", "upstream"]},
                "stale": {"type": "boolean"},
                "fetchedAt": {"type": "string", "format": "date-time"},
                "expiresAt": {"type": "string", "format": "date-time"}
            }
        },
        "ScheduleEntry": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "subject_code": {"type": "string"},
                "subject_name": {"type": "string"},
                "room": {"type": "string"},
                "teacher": {"type": "string"},
                "day_of_week": {"type": "integer"},
                "start_time": {"type": "string"},
                "end_time": {"type": "string"},
                "status": {"type": "integer", "description": "0 normal, 1 cancelled, 2 rescheduled, 3 ended, 4 holiday, 5 makeup, 6 special"}
            }
        },
        "ScheduleItem": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "subjectName": {"type": "string"},
                "startTime": {"type": "string"},
                "endTime": {"type": "string"},
                "upstreamStatus": {"type": "integer"},
                "realtimeStatus": {"type": "string", "enum": ["NOT_STARTED", "STARTING_SOON", "ONGOING", "ENDED"]},
                "isDuplicate": {"type": "boolean"},
                "priority": {"type": "integer"}
            }
        },
        "DuplicateGroupView": {
            "type": "object",
            "properties": {
                "key": {"type": "string"},
                "primaryId": {"type": "string"},
                "scheduleIds": {"type": "array", "items": {"type": "string"}},
                "hasCancelled": {"type": "boolean"},
                "hasRescheduled": {"type": "boolean"},
                "statusText": {"type": "string"}
            }
        },
        "StudentScheduleResponse": {
            "type": "object",
            "properties": {
                "studentId": {"type": "string"},
                "schedules": {"type": "array", "items": {"$ref": "#/definitions/ScheduleItem"}},
                "duplicates": {"type": "array", "items": {"$ref": "#/definitions/DuplicateGroupView"}},
                "cache": {"$ref": "#/definitions/CacheMeta"},
                "generatedAt": {"type": "string", "format": "date-time"}
            }
        },
        "AnalyzeSchedulesRequest": {
            "type": "object",
            "required": ["entries"],
            "properties": {
                "entries": {"type": "array", "items": {"$ref": "#/definitions/ScheduleEntry"}}
            }
        },
        "AddSessionRequest": {
            "type": "object",
            "required": ["token"],
            "properties": {
                "token": {"type": "string"},
                "userId": {"type": "string"},
                "displayName": {"type": "string"},
                "email": {"type": "string"}
            }
        },
        "RemoveSessionRequest": {
            "type": "object",
            "properties": {
                "token": {"type": "string"}
            }
        },
        "Settings": {
            "type": "object",
            "properties": {
                "theme": {"type": "string", "enum": ["light", "dark", "system"]},
                "language": {"type": "string", "enum": ["vi", "en"]},
                "schedule_view": {"type": "string", "enum": ["week", "day", "list"]},
                "show_weekend": {"type": "boolean"},
                "notify_before_minutes": {"type": "integer"},
                "offline_fallback": {"type": "boolean"}
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
