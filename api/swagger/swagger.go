package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Escola API",
        "description": "Multi-tenant school administration API",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http",
        "https"
    ],
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "tags": [
        {"name": "Auth", "description": "Session introspection"},
        {"name": "Schools", "description": "Tenant management"},
        {"name": "Users", "description": "Account administration"},
        {"name": "Classes", "description": "Class roster"},
        {"name": "Subjects", "description": "Subject catalog"},
        {"name": "Teachers", "description": "Teacher roster"},
        {"name": "Students", "description": "Student roster"},
        {"name": "Sections", "description": "Teacher/class/subject links"},
        {"name": "Assignments", "description": "Assignments and grading"},
        {"name": "Periods", "description": "Academic periods"},
        {"name": "PEI", "description": "Individual education plans"},
        {"name": "Calendars", "description": "Timetable generation"},
        {"name": "Canteen", "description": "Canteen items, purchases and spending limits"},
        {"name": "Requests", "description": "Purchase and print request workflows"},
        {"name": "Exports", "description": "Synchronous spreadsheet exports"},
        {"name": "Reports", "description": "Asynchronous report jobs"},
        {"name": "Contact", "description": "Public contact form"}
    ],
    "paths": {
        "/auth/me": {
            "get": {
                "tags": ["Auth"],
                "summary": "Current account",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"schema": {"$ref": "#/definitions/ResponseEnvelope"}, "description": "OK"},
                    "401": {"schema": {"$ref": "#/definitions/ResponseEnvelope"}, "description": "Unauthorized"}
                }
            }
        },
        "/schools": {
            "get": {
                "tags": ["Schools"],
                "summary": "List schools",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"schema": {"$ref": "#/definitions/ResponseEnvelope"}, "description": "OK"}}
            },
            "post": {
                "tags": ["Schools"],
                "summary": "Create school",
                "security": [{"BearerAuth": []}],
                "responses": {"201": {"schema": {"$ref": "#/definitions/ResponseEnvelope"}, "description": "Created"}}
            }
        },
        "/schools/{id}": {
            "get": {
                "tags": ["Schools"],
                "summary": "Get school",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {"200": {"schema": {"$ref": "#/definitions/ResponseEnvelope"}, "description": "OK"}}
            },
            "put": {
                "tags": ["Schools"],
                "summary": "Update school",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {"200": {"schema": {"$ref": "#/definitions/ResponseEnvelope"}, "description": "OK"}}
            },
            "delete": {
                "tags": ["Schools"],
                "summary": "Delete school",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/periods/current": {
            "get": {
                "tags": ["Periods"],
                "summary": "Current academic period",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"schema": {"$ref": "#/definitions/ResponseEnvelope"}, "description": "OK"},
                    "404": {"schema": {"$ref": "#/definitions/ResponseEnvelope"}, "description": "No period covers today"}
                }
            }
        },
        "/assignments/{id}/grades": {
            "get": {
                "tags": ["Assignments"],
                "summary": "List grades of an assignment",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {"200": {"schema": {"$ref": "#/definitions/ResponseEnvelope"}, "description": "OK"}}
            },
            "post": {
                "tags": ["Assignments"],
                "summary": "Record a grade",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {"201": {"schema": {"$ref": "#/definitions/ResponseEnvelope"}, "description": "Created"}}
            }
        },
        "/calendars/generate": {
            "post": {
                "tags": ["Calendars"],
                "summary": "Generate a timetable proposal",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"schema": {"$ref": "#/definitions/ResponseEnvelope"}, "description": "Proposal with score and conflicts"},
                    "400": {"schema": {"$ref": "#/definitions/ResponseEnvelope"}, "description": "Validation error"}
                }
            }
        },
        "/calendars": {
            "post": {
                "tags": ["Calendars"],
                "summary": "Persist a proposal as a calendar version",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "201": {"schema": {"$ref": "#/definitions/ResponseEnvelope"}, "description": "Created"},
                    "409": {"schema": {"$ref": "#/definitions/ResponseEnvelope"}, "description": "Teacher conflict on publish"}
                }
            },
            "get": {
                "tags": ["Calendars"],
                "summary": "List calendar versions",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "classId", "in": "query", "type": "string", "required": true},
                    {"name": "periodId", "in": "query", "type": "string", "required": true}
                ],
                "responses": {"200": {"schema": {"$ref": "#/definitions/ResponseEnvelope"}, "description": "OK"}}
            }
        },
        "/canteen/purchases": {
            "get": {
                "tags": ["Canteen"],
                "summary": "List purchases",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "month", "in": "query", "type": "string", "description": "YYYY-MM"}],
                "responses": {"200": {"schema": {"$ref": "#/definitions/ResponseEnvelope"}, "description": "OK"}}
            },
            "post": {
                "tags": ["Canteen"],
                "summary": "Record a purchase",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "201": {"schema": {"$ref": "#/definitions/ResponseEnvelope"}, "description": "Created"},
                    "409": {"schema": {"$ref": "#/definitions/ResponseEnvelope"}, "description": "Monthly limit reached"}
                }
            }
        },
        "/canteen/standings": {
            "get": {
                "tags": ["Canteen"],
                "summary": "Students still below their monthly cap",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"schema": {"$ref": "#/definitions/ResponseEnvelope"}, "description": "OK"}}
            }
        },
        "/requests/purchases/{id}/status": {
            "patch": {
                "tags": ["Requests"],
                "summary": "Transition a purchase request",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "200": {"schema": {"$ref": "#/definitions/ResponseEnvelope"}, "description": "OK"},
                    "409": {"schema": {"$ref": "#/definitions/ResponseEnvelope"}, "description": "Invalid transition"}
                }
            }
        },
        "/reports": {
            "post": {
                "tags": ["Reports"],
                "summary": "Enqueue a report job",
                "security": [{"BearerAuth": []}],
                "responses": {"202": {"schema": {"$ref": "#/definitions/ResponseEnvelope"}, "description": "Accepted"}}
            }
        },
        "/reports/{id}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Report job status",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {"200": {"schema": {"$ref": "#/definitions/ResponseEnvelope"}, "description": "OK"}}
            }
        },
        "/reports/download/{token}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Download a finished report",
                "parameters": [{"name": "token", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "File stream"},
                    "403": {"schema": {"$ref": "#/definitions/ResponseEnvelope"}, "description": "Invalid or expired token"}
                }
            }
        },
        "/contact": {
            "post": {
                "tags": ["Contact"],
                "summary": "Submit a contact message",
                "responses": {"202": {"schema": {"$ref": "#/definitions/ResponseEnvelope"}, "description": "Accepted"}}
            }
        }
    },
    "definitions": {
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
