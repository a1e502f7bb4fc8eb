// Package docs регистрирует OpenAPI-описание API для /swagger.
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
            "post": {"tags": ["auth"], "summary": "Регистрация пользователя",
                "parameters": [{"in": "body", "name": "input", "required": true, "schema": {"$ref": "#/definitions/services.RegisterInput"}}],
                "responses": {"201": {"description": "Created"}, "409": {"description": "email taken"}, "422": {"description": "validation_failed"}}}
        },
        "/auth/login": {
            "post": {"tags": ["auth"], "summary": "Вход и получение JWT",
                "parameters": [{"in": "body", "name": "input", "required": true, "schema": {"$ref": "#/definitions/services.LoginInput"}}],
                "responses": {"200": {"description": "OK"}, "401": {"description": "invalid credentials"}}}
        },
        "/stages": {
            "get": {"tags": ["stages"], "summary": "Список этапов по порядку", "responses": {"200": {"description": "OK"}}}
        },
        "/me/team": {
            "post": {"tags": ["teams"], "summary": "Регистрация команды", "security": [{"BearerAuth": []}],
                "parameters": [{"in": "body", "name": "input", "required": true, "schema": {"$ref": "#/definitions/services.RegisterTeamInput"}}],
                "responses": {"201": {"description": "Created"}, "409": {"description": "conflict"}}}
        },
        "/me/progress/{stageID}/submit": {
            "post": {"tags": ["progress"], "summary": "in_progress -> submitted", "security": [{"BearerAuth": []}],
                "parameters": [{"in": "path", "name": "stageID", "type": "integer", "required": true}],
                "responses": {"200": {"description": "OK"}, "403": {"description": "stage_not_reached"}, "409": {"description": "invalid_transition"}}}
        },
        "/me/assignments": {
            "get": {"tags": ["assignments"], "summary": "Задания гейтового этапа", "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK"}, "403": {"description": "access_denied"}}}
        },
        "/teams/{teamID}/progress/{stageID}": {
            "get": {"tags": ["progress"], "summary": "Запись прогресса или null", "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "path", "name": "teamID", "type": "integer", "required": true},
                    {"in": "path", "name": "stageID", "type": "integer", "required": true}],
                "responses": {"200": {"description": "OK"}, "403": {"description": "forbidden"}}}
        },
        "/teams/{teamID}/stages/{stageID}/access": {
            "get": {"tags": ["progress"], "summary": "Решение Stage Gate", "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "path", "name": "teamID", "type": "integer", "required": true},
                    {"in": "path", "name": "stageID", "type": "integer", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/services.AccessDecision"}}}}
        },
        "/assignments/{assignmentID}/submissions": {
            "post": {"tags": ["assignments"], "summary": "Сдать задание", "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "path", "name": "assignmentID", "type": "integer", "required": true},
                    {"in": "body", "name": "input", "required": true, "schema": {"$ref": "#/definitions/services.SubmitInput"}}],
                "responses": {"201": {"description": "Created"}, "403": {"description": "access_denied"}, "409": {"description": "assignment_closed | already_submitted"}}}
        },
        "/admin/progress/{progressID}/approve": {
            "post": {"tags": ["admin"], "summary": "Одобрить запись и открыть следующий этап", "security": [{"BearerAuth": []}],
                "parameters": [{"in": "path", "name": "progressID", "type": "integer", "required": true}],
                "responses": {"200": {"description": "OK"}, "409": {"description": "invalid_transition"}}}
        },
        "/admin/progress/{progressID}/reject": {
            "post": {"tags": ["admin"], "summary": "Отклонить запись", "security": [{"BearerAuth": []}],
                "parameters": [{"in": "path", "name": "progressID", "type": "integer", "required": true}],
                "responses": {"200": {"description": "OK"}, "409": {"description": "invalid_transition"}}}
        },
        "/admin/submissions/{submissionID}/grade": {
            "post": {"tags": ["admin"], "summary": "Оценить работу", "security": [{"BearerAuth": []}],
                "parameters": [{"in": "path", "name": "submissionID", "type": "integer", "required": true}],
                "responses": {"200": {"description": "OK"}, "422": {"description": "validation_failed"}}}
        },
        "/admin/submissions/grade": {
            "post": {"tags": ["admin"], "summary": "Массовая оценка", "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "per-item results"}}}
        },
        "/admin/assignments/{assignmentID}/submissions/export": {
            "get": {"tags": ["admin"], "summary": "CSV выгрузка", "produces": ["text/csv"], "security": [{"BearerAuth": []}],
                "parameters": [{"in": "path", "name": "assignmentID", "type": "integer", "required": true}],
                "responses": {"200": {"description": "CSV file"}}}
        },
        "/admin/sweeper/run": {
            "post": {"tags": ["admin"], "summary": "Seed, activate и expire за один проход", "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK"}}}
        }
    },
    "definitions": {
        "services.RegisterInput": {"type": "object", "required": ["first_name", "email", "password"],
            "properties": {"first_name": {"type": "string"}, "last_name": {"type": "string"}, "email": {"type": "string"}, "password": {"type": "string"}}},
        "services.LoginInput": {"type": "object", "required": ["email", "password"],
            "properties": {"email": {"type": "string"}, "password": {"type": "string"}}},
        "services.RegisterTeamInput": {"type": "object", "required": ["name"],
            "properties": {"name": {"type": "string"}, "members": {"type": "array", "maxItems": 3,
                "items": {"type": "object", "properties": {"name": {"type": "string"}, "email": {"type": "string"}}}}}},
        "services.SubmitInput": {"type": "object", "required": ["submission_link"],
            "properties": {"submission_link": {"type": "string"}, "notes": {"type": "string"}}},
        "services.AccessDecision": {"type": "object",
            "properties": {"allowed": {"type": "boolean"}, "reason": {"type": "string"}}}
    }
}`

var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Competition System API",
	Description:      "Этапы соревнования, прогресс команд, задания и оценки.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
