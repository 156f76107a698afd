package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "STARS API",
        "description": "Course registration engine with waitlists, credit ceilings and timetable clash reporting",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Login and password management"},
        {"name": "Registrations", "description": "Add, drop, change and swap course sections"},
        {"name": "Sections", "description": "Section management and vacancy queries"},
        {"name": "Students", "description": "Student records, timetables and notifications"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/password": {
            "put": {
                "tags": ["Authentication"],
                "summary": "Change own password",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ChangePasswordRequest"}}
                ],
                "responses": {
                    "204": {"description": "Updated"},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/registrations": {
            "post": {
                "tags": ["Registrations"],
                "summary": "Register for a course section",
                "description": "Enrolls immediately when a seat is free, otherwise joins the waitlist.",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CourseRequest"}}
                ],
                "responses": {
                    "201": {"description": "Enrolled or waitlisted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already registered for this course"},
                    "422": {"description": "Credit load ceiling exceeded"}
                }
            }
        },
        "/registrations/drop": {
            "post": {
                "tags": ["Registrations"],
                "summary": "Drop a course section",
                "description": "Releases a held seat, promoting the waitlist head, or withdraws a waitlist entry.",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CourseRequest"}}
                ],
                "responses": {
                    "200": {"description": "Dropped", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not registered for this section"}
                }
            }
        },
        "/registrations/change-index": {
            "post": {
                "tags": ["Registrations"],
                "summary": "Change section index within a course",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ChangeIndexRequest"}}
                ],
                "responses": {
                    "200": {"description": "Moved or waitlisted on target", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Section not found"}
                }
            }
        },
        "/registrations/swap": {
            "post": {
                "tags": ["Registrations"],
                "summary": "Swap section indexes with a peer",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SwapIndexRequest"}}
                ],
                "responses": {
                    "204": {"description": "Swapped"},
                    "401": {"description": "Peer re-authentication failed"}
                }
            }
        },
        "/sections": {
            "get": {
                "tags": ["Sections"],
                "summary": "List sections",
                "parameters": [
                    {"name": "course_code", "in": "query", "type": "string"},
                    {"name": "school", "in": "query", "type": "string"},
                    {"name": "sort_by", "in": "query", "type": "string", "enum": ["code", "index"]},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Sections"],
                "summary": "Create section (admin)",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateSectionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Section exists or schedule clashes"}
                }
            }
        },
        "/sections/{courseCode}/{index}": {
            "get": {
                "tags": ["Sections"],
                "summary": "Get one section",
                "parameters": [
                    {"name": "courseCode", "in": "path", "required": true, "type": "string"},
                    {"name": "index", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            },
            "put": {
                "tags": ["Sections"],
                "summary": "Update section (admin)",
                "parameters": [
                    {"name": "courseCode", "in": "path", "required": true, "type": "string"},
                    {"name": "index", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateSectionRequest"}}
                ],
                "responses": {
                    "200": {"description": "Updated", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Capacity below enrolled count"}
                }
            }
        },
        "/sections/{courseCode}/{index}/vacancy": {
            "get": {
                "tags": ["Sections"],
                "summary": "Check section vacancy",
                "parameters": [
                    {"name": "courseCode", "in": "path", "required": true, "type": "string"},
                    {"name": "index", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/courses/{courseCode}/vacancies": {
            "get": {
                "tags": ["Sections"],
                "summary": "Check vacancies across a course",
                "parameters": [
                    {"name": "courseCode", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sections/{courseCode}/{index}/roster": {
            "get": {
                "tags": ["Sections"],
                "summary": "List enrolled students (admin)",
                "parameters": [
                    {"name": "courseCode", "in": "path", "required": true, "type": "string"},
                    {"name": "index", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sections/{courseCode}/{index}/roster/export": {
            "get": {
                "tags": ["Sections"],
                "summary": "Download the enrolled roster as CSV (admin)",
                "produces": ["text/csv"],
                "parameters": [
                    {"name": "courseCode", "in": "path", "required": true, "type": "string"},
                    {"name": "index", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "CSV attachment", "schema": {"type": "file"}}
                }
            }
        },
        "/sections/{courseCode}/{index}/waitlist": {
            "get": {
                "tags": ["Sections"],
                "summary": "List waitlisted students in promotion order (admin)",
                "parameters": [
                    {"name": "courseCode", "in": "path", "required": true, "type": "string"},
                    {"name": "index", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students": {
            "get": {
                "tags": ["Students"],
                "summary": "List students (admin)",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "course_code", "in": "query", "type": "string"},
                    {"name": "index", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Students"],
                "summary": "Admit a student (admin)",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateStudentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Matric number or username taken"}
                }
            }
        },
        "/students/{matricNo}": {
            "get": {
                "tags": ["Students"],
                "summary": "Get one student",
                "parameters": [
                    {"name": "matricNo", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{matricNo}/contact": {
            "put": {
                "tags": ["Students"],
                "summary": "Update notification channel preference",
                "parameters": [
                    {"name": "matricNo", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateContactRequest"}}
                ],
                "responses": {
                    "204": {"description": "Updated"}
                }
            }
        },
        "/students/{matricNo}/courses": {
            "get": {
                "tags": ["Students"],
                "summary": "List a student's registrations grouped by status",
                "parameters": [
                    {"name": "matricNo", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{matricNo}/timetable": {
            "get": {
                "tags": ["Students"],
                "summary": "Get weekly timetable with clash reporting",
                "parameters": [
                    {"name": "matricNo", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{matricNo}/timetable/export": {
            "get": {
                "tags": ["Students"],
                "summary": "Download timetable as CSV or PDF",
                "produces": ["application/octet-stream"],
                "parameters": [
                    {"name": "matricNo", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File"}
                }
            }
        },
        "/students/{matricNo}/notifications": {
            "get": {
                "tags": ["Students"],
                "summary": "List recent registration notifications",
                "parameters": [
                    {"name": "matricNo", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "username": {"type": "string"},
                "password": {"type": "string"},
                "role": {"type": "string", "enum": ["student", "admin"]}
            },
            "required": ["username", "password", "role"]
        },
        "ChangePasswordRequest": {
            "type": "object",
            "properties": {
                "old_password": {"type": "string"},
                "new_password": {"type": "string"}
            },
            "required": ["old_password", "new_password"]
        },
        "CourseRequest": {
            "type": "object",
            "properties": {
                "course_code": {"type": "string"},
                "index": {"type": "integer"}
            },
            "required": ["course_code", "index"]
        },
        "ChangeIndexRequest": {
            "type": "object",
            "properties": {
                "course_code": {"type": "string"},
                "from_index": {"type": "integer"},
                "to_index": {"type": "integer"}
            },
            "required": ["course_code", "from_index", "to_index"]
        },
        "SwapIndexRequest": {
            "type": "object",
            "properties": {
                "course_code": {"type": "string"},
                "my_index": {"type": "integer"},
                "peer_matric_no": {"type": "string"},
                "peer_index": {"type": "integer"},
                "peer_password": {"type": "string"}
            },
            "required": ["course_code", "my_index", "peer_matric_no", "peer_index", "peer_password"]
        },
        "LessonInput": {
            "type": "object",
            "properties": {
                "type": {"type": "string", "enum": ["LECTURE", "TUTORIAL", "LAB"]},
                "venue": {"type": "string"},
                "day_of_week": {"type": "integer", "minimum": 1, "maximum": 7},
                "start": {"type": "string", "example": "09:00"},
                "end": {"type": "string", "example": "11:00"}
            },
            "required": ["type", "venue", "day_of_week", "start", "end"]
        },
        "CreateSectionRequest": {
            "type": "object",
            "properties": {
                "course_code": {"type": "string"},
                "index": {"type": "integer"},
                "school": {"type": "string"},
                "course_type": {"type": "string"},
                "au": {"type": "integer"},
                "capacity": {"type": "integer"},
                "lessons": {"type": "array", "items": {"$ref": "#/definitions/LessonInput"}}
            },
            "required": ["course_code", "index", "school", "course_type", "au", "capacity", "lessons"]
        },
        "UpdateSectionRequest": {
            "type": "object",
            "properties": {
                "new_index": {"type": "integer"},
                "school": {"type": "string"},
                "course_type": {"type": "string"},
                "au": {"type": "integer"},
                "capacity": {"type": "integer"},
                "lessons": {"type": "array", "items": {"$ref": "#/definitions/LessonInput"}}
            },
            "required": ["new_index", "school", "course_type", "au", "capacity", "lessons"]
        },
        "CreateStudentRequest": {
            "type": "object",
            "properties": {
                "matric_no": {"type": "string"},
                "first_name": {"type": "string"},
                "last_name": {"type": "string"},
                "username": {"type": "string"},
                "password": {"type": "string"},
                "gender": {"type": "string", "enum": ["M", "F"]},
                "nationality": {"type": "string"},
                "course_of_study": {"type": "string"},
                "email": {"type": "string"},
                "phone": {"type": "string"},
                "contact_method": {"type": "string", "enum": ["email", "sms", "both"]}
            },
            "required": ["matric_no", "first_name", "last_name", "username", "password", "gender", "nationality", "course_of_study", "email", "phone"]
        },
        "UpdateContactRequest": {
            "type": "object",
            "properties": {
                "contact_method": {"type": "string", "enum": ["email", "sms", "both"]}
            },
            "required": ["contact_method"]
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
