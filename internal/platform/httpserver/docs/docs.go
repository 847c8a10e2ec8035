// Package docs registers the OpenAPI document served under /swagger/.
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
        "/v1/contests": {
            "get": {
                "produces": ["application/json"],
                "tags": ["contests"],
                "summary": "List contests",
                "parameters": [
                    {"type": "string", "name": "status", "in": "query"},
                    {"type": "string", "name": "manager_id", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ListContestsResponse"}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["contests"],
                "summary": "Create a draft contest",
                "parameters": [
                    {"description": "contest", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateContestRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ContestResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/v1/contests/{contest_id}/cancel": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["contests"],
                "summary": "Cancel a contest",
                "parameters": [
                    {"type": "string", "name": "contest_id", "in": "path", "required": true},
                    {"description": "reason", "name": "request", "in": "body", "schema": {"$ref": "#/definitions/ChangeStatusRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ContestResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/v1/contests/{contest_id}/finalize": {
            "post": {
                "produces": ["application/json"],
                "tags": ["contests"],
                "summary": "Finalize judging and publish rankings",
                "parameters": [
                    {"type": "string", "name": "contest_id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/FinalizeResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/v1/contests/{contest_id}/results": {
            "get": {
                "produces": ["application/json"],
                "tags": ["results"],
                "summary": "Final rankings of a finalized contest",
                "parameters": [
                    {"type": "string", "name": "contest_id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResultsResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/v1/submissions/{submission_id}/scores": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["scoring"],
                "summary": "Record a judge score",
                "parameters": [
                    {"type": "string", "name": "submission_id", "in": "path", "required": true},
                    {"description": "score", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RecordScoreRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ScoreResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "CreateContestRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "category": {"type": "string"},
                "start_date": {"type": "string"},
                "end_date": {"type": "string"},
                "allowed_sub_categories": {"type": "array", "items": {"type": "string"}},
                "primary_fish_type": {"type": "string"}
            }
        },
        "ChangeStatusRequest": {
            "type": "object",
            "properties": {
                "reason": {"type": "string"}
            }
        },
        "ContestResponse": {
            "type": "object",
            "properties": {
                "contest_id": {"type": "string"},
                "name": {"type": "string"},
                "category": {"type": "string"},
                "status": {"type": "string"},
                "start_date": {"type": "string"},
                "end_date": {"type": "string"},
                "allowed_sub_categories": {"type": "array", "items": {"type": "string"}},
                "primary_fish_type": {"type": "string"},
                "judge_quota": {"type": "integer"},
                "manager_id": {"type": "string"},
                "cancel_reason": {"type": "string"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"},
                "published_at": {"type": "string"},
                "finalized_at": {"type": "string"},
                "cancelled_at": {"type": "string"}
            }
        },
        "ListContestsResponse": {
            "type": "object",
            "properties": {
                "items": {"type": "array", "items": {"$ref": "#/definitions/ContestResponse"}}
            }
        },
        "RecordScoreRequest": {
            "type": "object",
            "properties": {
                "mode": {"type": "string", "enum": ["detailed", "quick"]},
                "criteria": {"type": "object", "additionalProperties": {"type": "number"}},
                "total": {"type": "number"}
            }
        },
        "ScoreResponse": {
            "type": "object",
            "properties": {
                "score_id": {"type": "string"},
                "submission_id": {"type": "string"},
                "judge_id": {"type": "string"},
                "mode": {"type": "string"},
                "criteria": {"type": "object", "additionalProperties": {"type": "string"}},
                "total": {"type": "string"},
                "recorded_at": {"type": "string"}
            }
        },
        "RankedSubmissionResponse": {
            "type": "object",
            "properties": {
                "rank": {"type": "integer"},
                "submission_id": {"type": "string"},
                "entrant_id": {"type": "string"},
                "display_name": {"type": "string"},
                "sub_category": {"type": "string"},
                "final_score": {"type": "string"},
                "score_count": {"type": "integer"}
            }
        },
        "ResultsResponse": {
            "type": "object",
            "properties": {
                "contest_id": {"type": "string"},
                "contest_name": {"type": "string"},
                "finalized_at": {"type": "string"},
                "rankings": {"type": "array", "items": {"$ref": "#/definitions/RankedSubmissionResponse"}}
            }
        },
        "FinalizeResponse": {
            "type": "object",
            "properties": {
                "contest": {"$ref": "#/definitions/ContestResponse"},
                "rankings": {"type": "array", "items": {"$ref": "#/definitions/RankedSubmissionResponse"}},
                "unscored_submission_ids": {"type": "array", "items": {"type": "string"}}
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
	Title:            "aquajudge contest engine API",
	Description:      "Contest lifecycle, judge assignment and score aggregation.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
