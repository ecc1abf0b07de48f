// Package docs registers the assetwatch OpenAPI document with swag so the
// swagger UI mounted by httpapi can serve it as doc.json. The document is
// maintained by hand; keep its paths in step with httpapi.NewMux.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/tracking/start": {
            "post": {
                "summary": "Open an observation window (clears the table)",
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/tracking/stop": {
            "post": {
                "summary": "Close the observation window (clears the table)",
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/expect": {
            "post": {
                "summary": "Declare expected compilations for an asset",
                "consumes": ["application/json"],
                "parameters": [{
                    "in": "body", "name": "request", "required": true,
                    "schema": {"$ref": "#/definitions/types.ExpectRequest"}
                }],
                "responses": {
                    "204": {"description": "No Content"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "415": {"description": "Unsupported Media Type", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/finished": {
            "get": {
                "summary": "Report whether every expected asset finished",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.FinishedResponse"}}}
            }
        },
        "/status": {
            "get": {
                "summary": "Dump the asset status table",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.StatusResponse"}}}
            }
        },
        "/events": {
            "post": {
                "summary": "Publish one asset compilation event",
                "consumes": ["application/json"],
                "parameters": [{
                    "in": "body", "name": "event", "required": true,
                    "schema": {"$ref": "#/definitions/types.AssetEvent"}
                }],
                "responses": {
                    "202": {"description": "Accepted"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/events/ws": {
            "get": {
                "summary": "WebSocket stream of asset events (one JSON event per text message)",
                "responses": {"101": {"description": "Switching Protocols"}}
            }
        }
    },
    "definitions": {
        "types.AssetEvent": {
            "type": "object",
            "properties": {
                "type": {"type": "string", "example": "succeeded"},
                "path": {"type": "string", "example": "Materials/Brick.material"}
            }
        },
        "types.ExpectRequest": {
            "type": "object",
            "properties": {
                "path": {"type": "string", "example": "Models/Foo.fbx"},
                "count": {"type": "integer", "example": 1}
            }
        },
        "types.FinishedResponse": {
            "type": "object",
            "properties": {
                "finished": {"type": "boolean", "example": false},
                "outstanding": {"type": "array", "items": {"type": "string"}}
            }
        },
        "types.AssetStatus": {
            "type": "object",
            "properties": {
                "key": {"type": "string", "example": "models/foo.fbx"},
                "expected": {"type": "integer", "example": 2},
                "started": {"type": "integer", "example": 2},
                "succeeded": {"type": "integer", "example": 1},
                "failed": {"type": "integer", "example": 0},
                "outstanding": {"type": "boolean", "example": true}
            }
        },
        "types.StatusResponse": {
            "type": "object",
            "properties": {
                "tracking": {"type": "boolean", "example": true},
                "assets": {"type": "array", "items": {"$ref": "#/definitions/types.AssetStatus"}}
            }
        },
        "types.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string", "example": "invalid JSON body"},
                "code": {"type": "integer", "example": 400}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "assetwatch API",
	Description:      "Automation API for tracking asset compilation readiness.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
