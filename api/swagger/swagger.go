package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Civic Portal API",
        "description": "Citizen services portal: service catalog, requests, payments and department reporting",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"},
        "SessionCookie": {"type": "apiKey", "name": "portal_session", "in": "cookie"}
    },
    "security": [
        {"BearerAuth": []},
        {"SessionCookie": []}
    ],
    "tags": [
        {"name": "Auth", "description": "Registration, login and sessions"},
        {"name": "Profile", "description": "Caller profile"},
        {"name": "Requests", "description": "Service request lifecycle"},
        {"name": "Payments", "description": "Request fee payments"},
        {"name": "Notifications", "description": "In-app notifications"},
        {"name": "Catalog", "description": "Services offered by departments"},
        {"name": "Admin", "description": "Users and departments"},
        {"name": "Officers", "description": "Department head officer management"},
        {"name": "Reports", "description": "Aggregates and exports"}
    ],
    "paths": {
        "/health": {
            "get": {"summary": "Health check", "responses": {"200": {"description": "OK"}}}
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "A dependency is unavailable"}
                }
            }
        },
        "/auth/register": {
            "post": {
                "tags": ["Auth"],
                "summary": "Register a citizen account",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RegisterRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Email already registered", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Log in and open a session",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "429": {"description": "Too many attempts", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/logout": {
            "post": {"tags": ["Auth"], "summary": "End the current session", "responses": {"200": {"description": "OK"}}}
        },
        "/auth/me": {
            "get": {"tags": ["Auth"], "summary": "Current user", "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}}
        },
        "/profile": {
            "get": {"tags": ["Profile"], "summary": "Get profile", "responses": {"200": {"description": "OK"}}},
            "put": {
                "tags": ["Profile"],
                "summary": "Update profile",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateProfileRequest"}}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Validation error"}}
            }
        },
        "/profile/password": {
            "post": {
                "tags": ["Profile"],
                "summary": "Change password",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ChangePasswordRequest"}}
                ],
                "responses": {"200": {"description": "OK"}, "401": {"description": "Old password mismatch"}}
            }
        },
        "/requests": {
            "get": {
                "tags": ["Requests"],
                "summary": "List requests visible to the caller",
                "parameters": [
                    {"name": "status", "in": "query", "type": "string", "enum": ["submitted", "under_review", "approved", "rejected"]},
                    {"name": "service_id", "in": "query", "type": "string"},
                    {"name": "department_id", "in": "query", "type": "string"},
                    {"name": "request_id", "in": "query", "type": "string"},
                    {"name": "citizen_name", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Requests"],
                "summary": "Submit a service request",
                "consumes": ["application/json", "multipart/form-data"],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateRequestInput"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Missing or unknown answers"},
                    "403": {"description": "Citizens only"}
                }
            }
        },
        "/requests/{id}": {
            "get": {
                "tags": ["Requests"],
                "summary": "Get a request",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found or outside caller scope"}}
            }
        },
        "/requests/{id}/status": {
            "put": {
                "tags": ["Requests"],
                "summary": "Move a request to a new status",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/TransitionInput"}}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not found or outside caller scope"},
                    "409": {"description": "Transition not allowed"}
                }
            }
        },
        "/requests/{id}/documents": {
            "get": {
                "tags": ["Requests"],
                "summary": "List documents attached to a request",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Requests"],
                "summary": "Attach documents",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "documents", "in": "formData", "required": true, "type": "file"}
                ],
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/requests/{id}/documents/{documentId}/download": {
            "get": {
                "tags": ["Requests"],
                "summary": "Download a document with a signed link",
                "security": [],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "documentId", "in": "path", "required": true, "type": "string"},
                    {"name": "token", "in": "query", "required": true, "type": "string"},
                    {"name": "expires", "in": "query", "required": true, "type": "integer"}
                ],
                "produces": ["application/octet-stream"],
                "responses": {"200": {"description": "File contents"}, "403": {"description": "Invalid or expired link"}}
            }
        },
        "/payments": {
            "get": {
                "tags": ["Payments"],
                "summary": "Payment context for a request",
                "parameters": [{"name": "request_id", "in": "query", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Missing request_id"}}
            }
        },
        "/payments/{requestId}": {
            "post": {
                "tags": ["Payments"],
                "summary": "Pay the fee for a submitted request",
                "parameters": [
                    {"name": "requestId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/PaymentInput"}}
                ],
                "responses": {
                    "201": {"description": "Payment recorded"},
                    "400": {"description": "Amount does not match the fee"},
                    "409": {"description": "Already paid or no longer submitted"}
                }
            }
        },
        "/notifications": {
            "get": {
                "tags": ["Notifications"],
                "summary": "Latest notifications",
                "parameters": [{"name": "limit", "in": "query", "type": "integer"}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/notifications/unread-count": {
            "get": {"tags": ["Notifications"], "summary": "Unread notification count", "responses": {"200": {"description": "OK"}}}
        },
        "/notifications/read-all": {
            "put": {"tags": ["Notifications"], "summary": "Mark every notification read", "responses": {"200": {"description": "OK"}}}
        },
        "/notifications/{id}/read": {
            "put": {
                "tags": ["Notifications"],
                "summary": "Mark one notification read",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}
            }
        },
        "/admin/services": {
            "get": {"tags": ["Catalog"], "summary": "List services", "responses": {"200": {"description": "OK"}}},
            "post": {
                "tags": ["Catalog"],
                "summary": "Create a service",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ServiceInput"}}
                ],
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/admin/services/{id}": {
            "put": {
                "tags": ["Catalog"],
                "summary": "Update a service",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ServiceInput"}}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "delete": {
                "tags": ["Catalog"],
                "summary": "Delete a service",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "409": {"description": "Service has requests"}}
            }
        },
        "/admin/departments": {
            "get": {"tags": ["Admin"], "summary": "List departments", "responses": {"200": {"description": "OK"}}},
            "post": {
                "tags": ["Admin"],
                "summary": "Create a department",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/DepartmentInput"}}
                ],
                "responses": {"201": {"description": "Created"}, "409": {"description": "Name already used"}}
            }
        },
        "/admin/users": {
            "get": {
                "tags": ["Admin"],
                "summary": "List users",
                "parameters": [
                    {"name": "role", "in": "query", "type": "string"},
                    {"name": "department_id", "in": "query", "type": "string"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Admin"],
                "summary": "Create a staff user",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateUserInput"}}
                ],
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/dept-head/officers": {
            "get": {"tags": ["Officers"], "summary": "Officers in the caller's department", "responses": {"200": {"description": "OK"}}},
            "post": {
                "tags": ["Officers"],
                "summary": "Create an officer in the caller's department",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/OfficerInput"}}
                ],
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/reports/department-requests": {
            "get": {"tags": ["Reports"], "summary": "Requests per department and status", "responses": {"200": {"description": "OK"}}}
        },
        "/reports/payment-summary": {
            "get": {"tags": ["Reports"], "summary": "Payments per department", "responses": {"200": {"description": "OK"}}}
        },
        "/reports/service-requests": {
            "get": {
                "tags": ["Reports"],
                "summary": "Requests per service",
                "parameters": [{"name": "department_id", "in": "query", "type": "string"}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/admin/reports/export": {
            "get": {
                "tags": ["Reports"],
                "summary": "Export a report",
                "parameters": [
                    {"name": "kind", "in": "query", "type": "string", "enum": ["department-requests", "payment-summary", "service-requests"]},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "produces": ["text/csv", "application/pdf"],
                "responses": {"200": {"description": "Report file"}}
            }
        }
    },
    "definitions": {
        "RegisterRequest": {
            "type": "object",
            "required": ["name", "email", "password"],
            "properties": {
                "name": {"type": "string"},
                "email": {"type": "string"},
                "password": {"type": "string", "minLength": 6},
                "national_id": {"type": "string"},
                "dob": {"type": "string", "format": "date"},
                "address": {"type": "string"},
                "phone_number": {"type": "string"}
            }
        },
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "UpdateProfileRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "job_title": {"type": "string"},
                "phone_number": {"type": "string"},
                "national_id": {"type": "string"},
                "dob": {"type": "string", "format": "date"},
                "address": {"type": "string"}
            }
        },
        "ChangePasswordRequest": {
            "type": "object",
            "required": ["old_password", "new_password"],
            "properties": {
                "old_password": {"type": "string"},
                "new_password": {"type": "string", "minLength": 6}
            }
        },
        "CreateRequestInput": {
            "type": "object",
            "required": ["service_id"],
            "properties": {
                "service_id": {"type": "string"},
                "answers": {"type": "object", "additionalProperties": {"type": "string"}}
            }
        },
        "TransitionInput": {
            "type": "object",
            "required": ["status"],
            "properties": {
                "status": {"type": "string", "enum": ["under_review", "approved", "rejected"]}
            }
        },
        "PaymentInput": {
            "type": "object",
            "properties": {
                "amount": {"type": "number"}
            }
        },
        "ServiceInput": {
            "type": "object",
            "required": ["department_id", "name", "fee"],
            "properties": {
                "department_id": {"type": "string"},
                "name": {"type": "string"},
                "description": {"type": "string"},
                "fee": {"type": "number", "minimum": 0},
                "required_fields": {"type": "array", "items": {"type": "string"}}
            }
        },
        "DepartmentInput": {
            "type": "object",
            "required": ["name"],
            "properties": {
                "name": {"type": "string"},
                "description": {"type": "string"}
            }
        },
        "CreateUserInput": {
            "type": "object",
            "required": ["name", "email", "password", "role"],
            "properties": {
                "name": {"type": "string"},
                "email": {"type": "string"},
                "password": {"type": "string"},
                "role": {"type": "string", "enum": ["officer", "department_head", "admin"]},
                "department_id": {"type": "string"},
                "job_title": {"type": "string"},
                "phone_number": {"type": "string"}
            }
        },
        "OfficerInput": {
            "type": "object",
            "required": ["name", "email"],
            "properties": {
                "name": {"type": "string"},
                "email": {"type": "string"},
                "password": {"type": "string"},
                "job_title": {"type": "string"},
                "phone_number": {"type": "string"}
            }
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
                "message": {"type": "string"},
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
