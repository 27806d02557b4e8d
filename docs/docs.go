// Package docs holds the OpenAPI document served by the swagger UI.
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
        "/transfer-cb": {
            "post": {
                "description": "Runs a Token-2022 confidential transfer: derives seed signatures, reads accounts, requests the transaction bundle and submits it in order",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["transfer"],
                "summary": "Confidential transfer",
                "parameters": [
                    {
                        "description": "Transfer data",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/model.TransferCBRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.TransferCBResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/model.ErrorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/model.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/model.ErrorResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/model.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}
                }
            }
        },
        "/accounts/balance": {
            "get": {
                "description": "Gets the public balance of a token account, served from cache until a transfer invalidates it",
                "produces": ["application/json"],
                "tags": ["accounts"],
                "summary": "Get token account balance",
                "parameters": [
                    {"type": "string", "description": "Token account address", "name": "address", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.BalanceResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/model.ErrorResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}
                }
            }
        },
        "/accounts/signatures": {
            "get": {
                "description": "Gets recent transaction signatures of the connected wallet, newest first",
                "produces": ["application/json"],
                "tags": ["accounts"],
                "summary": "Get wallet signature history",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.SignaturesResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/model.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}
                }
            }
        },
        "/accounts/token-accounts": {
            "get": {
                "description": "Lists the Token-2022 accounts owned by an address",
                "produces": ["application/json"],
                "tags": ["accounts"],
                "summary": "List Token-2022 accounts",
                "parameters": [
                    {"type": "string", "description": "Owner address", "name": "address", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.TokenAccountsResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/model.ErrorResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}
                }
            }
        },
        "/accounts/visibility": {
            "get": {
                "description": "Reads the confidential balance visibility flag",
                "produces": ["application/json"],
                "tags": ["accounts"],
                "summary": "Confidential balance visibility",
                "parameters": [
                    {"type": "string", "description": "Token account address", "name": "address", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.VisibilityResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}
                }
            },
            "post": {
                "description": "Shows the confidential balance",
                "produces": ["application/json"],
                "tags": ["accounts"],
                "summary": "Show confidential balance",
                "parameters": [
                    {"type": "string", "description": "Token account address", "name": "address", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.VisibilityResponse"}}
                }
            },
            "delete": {
                "description": "Hides the confidential balance",
                "produces": ["application/json"],
                "tags": ["accounts"],
                "summary": "Hide confidential balance",
                "parameters": [
                    {"type": "string", "description": "Token account address", "name": "address", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.VisibilityResponse"}}
                }
            }
        },
        "/operations": {
            "get": {
                "description": "Lists audit log entries of finished transfers, newest first",
                "produces": ["application/json"],
                "tags": ["operations"],
                "summary": "Operation log",
                "parameters": [
                    {"type": "integer", "description": "Maximum number of entries", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/model.OperationEntry"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "model.TransferCBRequest": {
            "type": "object",
            "properties": {
                "senderTokenAccount": {"type": "string"},
                "recipientAddress": {"type": "string"},
                "mintAddress": {"type": "string"},
                "amount": {"type": "string"}
            }
        },
        "model.TransferCBResponse": {
            "type": "object",
            "properties": {
                "signatures": {"type": "array", "items": {"type": "string"}},
                "amount": {"type": "string"}
            }
        },
        "model.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "code": {"type": "string"},
                "signatures": {"type": "array", "items": {"type": "string"}}
            }
        },
        "model.BalanceResponse": {
            "type": "object",
            "properties": {
                "address": {"type": "string"},
                "amount": {"type": "string"},
                "decimals": {"type": "integer"},
                "uiAmount": {"type": "string"}
            }
        },
        "model.SignatureInfo": {
            "type": "object",
            "properties": {
                "signature": {"type": "string"},
                "slot": {"type": "integer"},
                "blockTime": {"type": "string"},
                "status": {"type": "string"},
                "memo": {"type": "string"}
            }
        },
        "model.SignaturesResponse": {
            "type": "object",
            "properties": {
                "address": {"type": "string"},
                "signatures": {"type": "array", "items": {"$ref": "#/definitions/model.SignatureInfo"}}
            }
        },
        "model.TokenAccount": {
            "type": "object",
            "properties": {
                "address": {"type": "string"},
                "lamports": {"type": "integer"},
                "dataLen": {"type": "integer"}
            }
        },
        "model.TokenAccountsResponse": {
            "type": "object",
            "properties": {
                "owner": {"type": "string"},
                "accounts": {"type": "array", "items": {"$ref": "#/definitions/model.TokenAccount"}}
            }
        },
        "model.VisibilityResponse": {
            "type": "object",
            "properties": {
                "address": {"type": "string"},
                "visible": {"type": "boolean"}
            }
        },
        "model.OperationEntry": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "content": {"type": "string"},
                "variant": {"type": "string"},
                "createdAt": {"type": "string"}
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
	Title:            "cb-transfer API",
	Description:      "Token-2022 confidential transfer service",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
