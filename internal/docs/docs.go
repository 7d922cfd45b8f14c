// Package docs registra o documento OpenAPI servido em /swagger/.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "paths": {
        "/auth/register": {
            "post": {
                "tags": ["auth"],
                "summary": "Registra um novo usuário",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "registration", "required": true, "schema": {"$ref": "#/definitions/domain.UserRegistration"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.AuthResponse"}},
                    "400": {"description": "Payload inválido ou email já cadastrado", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["auth"],
                "summary": "Autentica um usuário",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "login", "required": true, "schema": {"$ref": "#/definitions/domain.LoginRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.AuthResponse"}},
                    "400": {"description": "Credenciais inválidas", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}}
                }
            }
        },
        "/sweets": {
            "get": {
                "tags": ["sweets"],
                "summary": "Lista os doces",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.Sweet"}}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["sweets"],
                "summary": "Cria um doce",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "sweet", "required": true, "schema": {"$ref": "#/definitions/domain.SweetInput"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.Sweet"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}}
                }
            }
        },
        "/sweets/search": {
            "get": {
                "tags": ["sweets"],
                "summary": "Busca doces por nome ou categoria",
                "produces": ["application/json"],
                "parameters": [{"in": "query", "name": "query", "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.Sweet"}}}
                }
            }
        },
        "/sweets/{id}": {
            "put": {
                "security": [{"BearerAuth": []}],
                "tags": ["sweets"],
                "summary": "Atualiza campos de um doce",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "path", "name": "id", "required": true, "type": "string"},
                    {"in": "body", "name": "patch", "required": true, "schema": {"$ref": "#/definitions/domain.SweetPatch"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Sweet"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["sweets"],
                "summary": "Remove um doce",
                "produces": ["application/json"],
                "parameters": [{"in": "path", "name": "id", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.DeleteConfirmation"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}}
                }
            }
        },
        "/sweets/{id}/purchase": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["inventory"],
                "summary": "Compra uma unidade",
                "produces": ["application/json"],
                "parameters": [{"in": "path", "name": "id", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Sweet"}},
                    "400": {"description": "Sem estoque", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}}
                }
            }
        },
        "/sweets/{id}/restock": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["inventory"],
                "summary": "Repõe o estoque",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "path", "name": "id", "required": true, "type": "string"},
                    {"in": "body", "name": "restock", "required": true, "schema": {"$ref": "#/definitions/domain.RestockRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Sweet"}},
                    "400": {"description": "Quantidade inválida", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "domain.AuthResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "username": {"type": "string"},
                "email": {"type": "string"},
                "isAdmin": {"type": "boolean"},
                "token": {"type": "string"}
            }
        },
        "domain.DeleteConfirmation": {
            "type": "object",
            "properties": {"message": {"type": "string"}, "id": {"type": "string"}}
        },
        "domain.ErrorResponse": {
            "type": "object",
            "properties": {"code": {"type": "integer"}, "category": {"type": "string"}, "message": {"type": "string"}}
        },
        "domain.LoginRequest": {
            "type": "object",
            "properties": {"email": {"type": "string"}, "password": {"type": "string"}}
        },
        "domain.RestockRequest": {
            "type": "object",
            "properties": {"quantity": {"type": "integer"}}
        },
        "domain.Sweet": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "category": {"type": "string"},
                "price": {"type": "number"},
                "quantity": {"type": "integer"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "domain.SweetInput": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "category": {"type": "string"},
                "price": {"type": "number"},
                "quantity": {"type": "integer"}
            }
        },
        "domain.SweetPatch": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "category": {"type": "string"},
                "price": {"type": "number"},
                "quantity": {"type": "integer"}
            }
        },
        "domain.UserRegistration": {
            "type": "object",
            "properties": {"username": {"type": "string"}, "email": {"type": "string"}, "password": {"type": "string"}}
        }
    }
}`

// SwaggerInfo contém as informações exportadas do documento.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "SweetShop API",
	Description:      "Catálogo de doces com controle de estoque e autenticação JWT.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
