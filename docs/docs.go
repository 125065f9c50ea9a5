// Package docs holds the OpenAPI document served at /swagger/*.
// It is maintained by hand; keep it in step with the handler annotations.
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
        "/bookings": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["bookings"],
                "summary": "Create a booking",
                "parameters": [
                    {
                        "description": "Booking request",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/handler.CreateBookingRequest"}
                    }
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.BookingResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/bookings/{reference}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["bookings"],
                "summary": "Get a booking by reference",
                "parameters": [
                    {"type": "string", "description": "Booking reference", "name": "reference", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.Booking"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/properties/{id}/availability": {
            "get": {
                "produces": ["application/json"],
                "tags": ["availability"],
                "summary": "Blocked dates of a property",
                "parameters": [
                    {"type": "integer", "description": "Property ID", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "Window start (YYYY-MM-DD)", "name": "start", "in": "query"},
                    {"type": "string", "description": "Window end (YYYY-MM-DD)", "name": "end", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/service.Availability"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/payments/callback": {
            "post": {
                "consumes": ["application/json", "application/x-www-form-urlencoded"],
                "produces": ["application/json"],
                "tags": ["payments"],
                "summary": "Payment gateway callback",
                "parameters": [
                    {"type": "string", "description": "sha256hex###keyIndex over the response field", "name": "X-VERIFY", "in": "header"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.CallbackResponse"}},
                    "303": {"description": "See Other"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/operator/me": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["operator"],
                "summary": "Current operator",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.OperatorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/operator/logout": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["operator"],
                "summary": "Revoke the current token",
                "responses": {
                    "204": {"description": "No Content"},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/vendor/bookings/block": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["vendor"],
                "summary": "Block dates on a property",
                "parameters": [
                    {"description": "Block request", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.BlockDatesRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/model.Booking"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/vendor/bookings/{id}/cancel": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["vendor"],
                "summary": "Cancel a booking",
                "parameters": [
                    {"type": "integer", "description": "Booking ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.Booking"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/admin/payments/{merchantTransactionId}/reconcile": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Poll the gateway and apply the payment status",
                "parameters": [
                    {"type": "string", "description": "Merchant transaction ID", "name": "merchantTransactionId", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.PaymentResultResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/admin/payments/simulate": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Simulate a signed gateway callback",
                "parameters": [
                    {"description": "Simulation", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.SimulateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.PaymentResultResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/admin/bookings/{id}/payment-events": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Payment audit trail of a booking",
                "parameters": [
                    {"type": "integer", "description": "Booking ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/model.PaymentEvent"}}}
                }
            }
        },
        "/admin/properties/seed": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Upsert the property read model",
                "parameters": [
                    {"description": "Properties", "name": "request", "in": "body", "required": true, "schema": {"type": "array", "items": {"$ref": "#/definitions/service.PropertySeed"}}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/service.SeedResult"}}
                }
            }
        }
    },
    "definitions": {
        "errors.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "detail": {"type": "string"},
                "error": {"type": "string"}
            }
        },
        "handler.BlockDatesRequest": {"type": "object"},
        "handler.BookingResponse": {"type": "object"},
        "handler.CallbackResponse": {"type": "object"},
        "handler.CreateBookingRequest": {"type": "object"},
        "handler.OperatorResponse": {"type": "object"},
        "handler.PaymentResultResponse": {"type": "object"},
        "handler.SimulateRequest": {"type": "object"},
        "model.Booking": {"type": "object"},
        "model.PaymentEvent": {"type": "object"},
        "service.Availability": {"type": "object"},
        "service.PropertySeed": {"type": "object"},
        "service.SeedResult": {"type": "object"}
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and JWT token.",
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
	BasePath:         "/api",
	Schemes:          []string{"http"},
	Title:            "Booking Core API",
	Description:      "Vacation rental reservations with online payment.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
