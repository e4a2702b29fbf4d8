// Package docs registers the OpenAPI document of the Turnix API with swag
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
        "/api/v1/gestiones": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Gestiones"],
                "summary": "List gestiones",
                "parameters": [
                    {"type": "string", "description": "Pendiente, Por Llamar or Resuelto", "name": "estado", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "502": {"description": "Backing sheet unavailable", "schema": {"$ref": "#/definitions/dto.APIResponse"}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Gestiones"],
                "summary": "Create gestion",
                "parameters": [
                    {"description": "Citizen data", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.CreateGestionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Gestion created", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "409": {"description": "Could not confirm a unique id, retry", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "502": {"description": "Backing sheet unavailable, retry", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "503": {"description": "Allocation timed out, retry", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "507": {"description": "Id space exhausted, archive required", "schema": {"$ref": "#/definitions/dto.APIResponse"}}
                }
            }
        },
        "/api/v1/gestiones/historial": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Gestiones"],
                "summary": "List resolved gestiones",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.APIResponse"}}
                }
            }
        },
        "/api/v1/gestiones/{id}/estado": {
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Gestiones"],
                "summary": "Change the estado of a gestion",
                "parameters": [
                    {"type": "string", "description": "Gestion id, e.g. A001", "name": "id", "in": "path", "required": true},
                    {"description": "New estado", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.UpdateEstadoRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "404": {"description": "Gestion not found", "schema": {"$ref": "#/definitions/dto.APIResponse"}}
                }
            }
        },
        "/api/v1/archivo/backup": {
            "get": {
                "produces": ["application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"],
                "tags": ["Archivo"],
                "summary": "Download xlsx backup",
                "responses": {
                    "200": {"description": "xlsx workbook", "schema": {"type": "file"}},
                    "400": {"description": "Nothing to export", "schema": {"$ref": "#/definitions/dto.APIResponse"}}
                }
            }
        },
        "/api/v1/archivo/clear": {
            "post": {
                "produces": ["application/json"],
                "tags": ["Archivo"],
                "summary": "Clear historial",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.APIResponse"}}
                }
            }
        },
        "/api/v1/archivo/archive": {
            "post": {
                "produces": ["application/json"],
                "tags": ["Archivo"],
                "summary": "Archive and clear",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "409": {"description": "An archive is already running", "schema": {"$ref": "#/definitions/dto.APIResponse"}}
                }
            }
        },
        "/api/v1/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Liveness",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.APIResponse"}}
                }
            }
        },
        "/api/v1/health/store": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Backing store health",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "502": {"description": "Backing sheet unavailable", "schema": {"$ref": "#/definitions/dto.APIResponse"}}
                }
            }
        }
    },
    "definitions": {
        "dto.APIResponse": {
            "type": "object",
            "properties": {
                "data": {},
                "error": {},
                "message": {"type": "string"},
                "success": {"type": "boolean"}
            }
        },
        "dto.CreateGestionRequest": {
            "type": "object",
            "required": ["Nombres"],
            "properties": {
                "Nombres": {"type": "string", "maxLength": 200},
                "Apellidos": {"type": "string", "maxLength": 200},
                "Genero": {"type": "string", "maxLength": 50},
                "FechaNacimiento": {"type": "string", "maxLength": 50},
                "NombrePadre": {"type": "string", "maxLength": 200},
                "NombreMadre": {"type": "string", "maxLength": 200},
                "LugarNacimiento": {"type": "string", "maxLength": 200},
                "Comentarios": {"type": "string", "maxLength": 2000}
            }
        },
        "dto.UpdateEstadoRequest": {
            "type": "object",
            "required": ["nuevoEstado"],
            "properties": {
                "nuevoEstado": {"type": "string", "maxLength": 50}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Turnix API",
	Description:      "Queue of citizen gestiones backed by a Google Sheet",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
