package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Timetable API",
        "description": "Timetable consistency checks and weekly layouts for preparatory classes",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Timetable", "description": "Double booking checks and layouts"},
        {"name": "Attendance", "description": "Attendance string resolution"},
        {"name": "Weeks", "description": "Academic-year week calendar"}
    ],
    "paths": {
        "/timetable/validate": {
            "post": {
                "tags": ["Timetable"],
                "summary": "Check the whole timetable of a level for double bookings",
                "parameters": [
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/ValidateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/check": {
            "post": {
                "tags": ["Timetable"],
                "summary": "Test a recurring event against the stored timetable",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CheckRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid candidate", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/events/{id}/check-attendance": {
            "post": {
                "tags": ["Timetable"],
                "summary": "Test a new attendance for a stored recurring event",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CheckAttendanceRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown event", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/weeks/{number}": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Display timetable of one numbered week",
                "parameters": [
                    {"name": "number", "in": "path", "required": true, "type": "integer"},
                    {"name": "level", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown week", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/periodic": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Merged periodic grid of a level",
                "parameters": [
                    {"name": "level", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/periodic/pdf": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Periodic grid as a printable PDF",
                "produces": ["application/pdf"],
                "parameters": [
                    {"name": "level", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "PDF document", "schema": {"type": "file"}}
                }
            }
        },
        "/timetable/validate/export": {
            "post": {
                "tags": ["Timetable"],
                "summary": "Queue a validation report export",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ValidationJobRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/validate/jobs/{id}": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Validation report job status",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/export/{token}": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Download a finished validation report via signed token",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Report file", "schema": {"type": "file"}},
                    "403": {"description": "Invalid or expired token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/attendance/resolve": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Resolve attendance tokens to user ids",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ResolveAttendanceRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Unknown attendee", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/attendance/format": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Normalise an attendance string",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/FormatAttendanceRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/attendance/invalidate": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Reload the roster after a group membership change",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "204": {"description": "Invalidated"}
                }
            }
        },
        "/weeks": {
            "get": {
                "tags": ["Weeks"],
                "summary": "List stored weeks",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/weeks/current": {
            "get": {
                "tags": ["Weeks"],
                "summary": "Week containing today",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Outside the academic year", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/weeks/generate": {
            "post": {
                "tags": ["Weeks"],
                "summary": "Regenerate the week calendar between two dates",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GenerateWeeksRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/weeks/{number}/current-day": {
            "get": {
                "tags": ["Weeks"],
                "summary": "Column to highlight for a week today",
                "parameters": [
                    {"name": "number", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "ValidateRequest": {
            "type": "object",
            "properties": {
                "level": {"type": "string"}
            }
        },
        "CheckRequest": {
            "type": "object",
            "required": ["begin", "end", "periodicity", "attendance"],
            "properties": {
                "level": {"type": "string"},
                "id": {"type": "integer"},
                "day": {"type": "integer", "minimum": 0, "maximum": 6},
                "begin": {"type": "string", "example": "08:00"},
                "end": {"type": "string", "example": "10:00"},
                "begweek": {"type": "integer"},
                "endweek": {"type": "integer"},
                "periodicity": {"type": "integer", "minimum": 1},
                "label": {"type": "string"},
                "subject": {"type": "string"},
                "attendance": {"type": "string", "example": "1-4,Curie"}
            }
        },
        "CheckAttendanceRequest": {
            "type": "object",
            "required": ["attendance"],
            "properties": {
                "attendance": {"type": "string"},
                "level": {"type": "string"}
            }
        },
        "ValidationJobRequest": {
            "type": "object",
            "required": ["format"],
            "properties": {
                "level": {"type": "string"},
                "format": {"type": "string", "enum": ["csv", "pdf"]}
            }
        },
        "ResolveAttendanceRequest": {
            "type": "object",
            "required": ["tokens"],
            "properties": {
                "tokens": {"type": "array", "items": {"type": "string"}},
                "addTeachers": {"type": "boolean"},
                "level": {"type": "string"}
            }
        },
        "FormatAttendanceRequest": {
            "type": "object",
            "required": ["attendance"],
            "properties": {
                "attendance": {"type": "string"},
                "level": {"type": "string"}
            }
        },
        "GenerateWeeksRequest": {
            "type": "object",
            "required": ["start", "end"],
            "properties": {
                "start": {"type": "string", "format": "date"},
                "end": {"type": "string", "format": "date"},
                "holidaysIcs": {"type": "string"}
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
