// Package docs registers the OpenAPI description served under /swagger.
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
        "/incoming-files/{id}/ocr": {
            "post": {
                "security": [{"Bearer": []}],
                "produces": ["application/json"],
                "tags": ["ocr"],
                "summary": "Run the first OCR pass on a pending incoming file",
                "parameters": [{"type": "integer", "description": "Incoming file ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.DocumentResponse"}},
                    "404": {"description": "Not Found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "409": {"description": "Conflict", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/incoming-files/{id}/ocr/retry": {
            "post": {
                "security": [{"Bearer": []}],
                "produces": ["application/json"],
                "tags": ["ocr"],
                "summary": "Re-run OCR on an incoming file",
                "parameters": [{"type": "integer", "description": "Incoming file ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.DocumentResponse"}},
                    "404": {"description": "Not Found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/incoming-files/{id}/convert/bill": {
            "post": {
                "security": [{"Bearer": []}],
                "produces": ["application/json"],
                "tags": ["documents"],
                "summary": "Convert an incoming file to a bill",
                "parameters": [{"type": "integer", "description": "Incoming file ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/dto.DocumentResponse"}},
                    "404": {"description": "Not Found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/incoming-files/{id}/convert/receipt": {
            "post": {
                "security": [{"Bearer": []}],
                "produces": ["application/json"],
                "tags": ["documents"],
                "summary": "Convert an incoming file to a receipt",
                "parameters": [{"type": "integer", "description": "Incoming file ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/dto.DocumentResponse"}},
                    "404": {"description": "Not Found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/bills/{id}/revert": {
            "post": {
                "security": [{"Bearer": []}],
                "produces": ["application/json"],
                "tags": ["documents"],
                "summary": "Revert a bill to an incoming file",
                "parameters": [{"type": "integer", "description": "Bill ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/dto.DocumentResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/receipts/{id}/revert": {
            "post": {
                "security": [{"Bearer": []}],
                "produces": ["application/json"],
                "tags": ["documents"],
                "summary": "Revert a receipt to an incoming file",
                "parameters": [{"type": "integer", "description": "Receipt ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/dto.DocumentResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/documents/{type}/{id}/revertible": {
            "get": {
                "security": [{"Bearer": []}],
                "produces": ["application/json"],
                "tags": ["documents"],
                "summary": "Check whether a document can be reverted to an incoming file",
                "parameters": [
                    {"type": "string", "description": "bill, receipt or incoming-file", "name": "type", "in": "path", "required": true},
                    {"type": "integer", "description": "Document ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.RevertibleResponse"}}
                }
            }
        },
        "/documents/{type}/{id}/ocr-history": {
            "get": {
                "security": [{"Bearer": []}],
                "produces": ["application/json"],
                "tags": ["ocr"],
                "summary": "OCR attempts recorded for a document",
                "parameters": [
                    {"type": "string", "description": "bill, receipt or incoming-file", "name": "type", "in": "path", "required": true},
                    {"type": "integer", "description": "Document ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/dto.OCRAttemptResponse"}}}
                }
            }
        },
        "/ocr/statistics": {
            "get": {
                "security": [{"Bearer": []}],
                "produces": ["application/json"],
                "tags": ["ocr"],
                "summary": "OCR attempt statistics of the current user",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.OCRStatistics"}}
                }
            }
        },
        "/ocr/engines": {
            "get": {
                "security": [{"Bearer": []}],
                "produces": ["application/json"],
                "tags": ["ocr"],
                "summary": "Available OCR engines in priority order",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.OCREnginesResponse"}}
                }
            }
        },
        "/dispatch/statistics": {
            "get": {
                "security": [{"Bearer": []}],
                "produces": ["application/json"],
                "tags": ["dispatch"],
                "summary": "Approved incoming files of the current user by dispatch readiness",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.DispatchStatistics"}}
                }
            }
        },
        "/dispatch/run": {
            "post": {
                "security": [{"Bearer": []}],
                "produces": ["application/json"],
                "tags": ["dispatch"],
                "summary": "Dispatch the current user's ready incoming files to bills",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.DispatchRunResponse"}}
                }
            }
        }
    },
    "definitions": {
        "dto.DocumentResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "entity_type": {"type": "string"},
                "filename": {"type": "string"},
                "file_path": {"type": "string"},
                "upload_date": {"type": "string"},
                "checksum": {"type": "string"},
                "status": {"type": "string"},
                "extracted_amount": {"type": "number"},
                "extracted_date": {"type": "string"},
                "extracted_provider": {"type": "string"},
                "ocr_processed_at": {"type": "string"},
                "ocr_error_message": {"type": "string"},
                "original_incoming_file_id": {"type": "integer"},
                "bill_id": {"type": "integer"}
            }
        },
        "dto.OCRAttemptResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "entity_type": {"type": "string"},
                "entity_id": {"type": "integer"},
                "attempt_date": {"type": "string"},
                "ocr_engine": {"type": "string"},
                "processing_status": {"type": "string"},
                "extracted_data": {"type": "string"},
                "error_message": {"type": "string"}
            }
        },
        "dto.OCRStatistics": {
            "type": "object",
            "properties": {
                "total_attempts": {"type": "integer"},
                "successful_attempts": {"type": "integer"},
                "failed_attempts": {"type": "integer"},
                "in_progress_attempts": {"type": "integer"},
                "per_engine_counts": {"type": "object", "additionalProperties": {"type": "integer"}}
            }
        },
        "dto.OCREnginesResponse": {
            "type": "object",
            "properties": {
                "available": {"type": "boolean"},
                "engines": {"type": "array", "items": {"type": "string"}}
            }
        },
        "dto.RevertibleResponse": {
            "type": "object",
            "properties": {
                "entity_type": {"type": "string"},
                "entity_id": {"type": "integer"},
                "revertible": {"type": "boolean"}
            }
        },
        "dto.DispatchStatistics": {
            "type": "object",
            "properties": {
                "total_approved_files": {"type": "integer"},
                "ready_for_dispatch": {"type": "integer"},
                "needs_manual_review": {"type": "integer"}
            }
        },
        "dto.DispatchRunResponse": {
            "type": "object",
            "properties": {
                "dispatched": {"type": "integer"},
                "bills": {"type": "array", "items": {"$ref": "#/definitions/dto.DocumentResponse"}}
            }
        }
    },
    "securityDefinitions": {
        "Bearer": {
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
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "docflow API",
	Description:      "OCR processing, audit and conversion of financial documents",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
