package httpapi

import (
	"net/http"

	"github.com/Guilhem-Bonnet/rmg/internal/httpjson"
)

// handleOpenAPI décrit l'API locale consommée par l'UI et le CLI.
func (s *Server) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	jsonOK := func(schemaRef string) map[string]any {
		return map[string]any{
			"description": "OK",
			"content": map[string]any{
				"application/json": map[string]any{
					"schema": map[string]any{"$ref": schemaRef},
				},
			},
		}
	}

	jsonErr := map[string]any{
		"description": "Error",
		"content": map[string]any{
			"application/json": map[string]any{
				"schema": map[string]any{"$ref": "#/components/schemas/Error"},
			},
		},
	}

	pathParam := func(name string) map[string]any {
		return map[string]any{"name": name, "in": "path", "required": true, "schema": map[string]any{"type": "string"}}
	}

	spec := map[string]any{
		"openapi": "3.0.3",
		"info": map[string]any{
			"title":   "RMG API",
			"version": "v1",
		},
		"components": map[string]any{
			"schemas": map[string]any{
				"Error": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"error": map[string]any{"type": "string"},
						"code": map[string]any{
							"type": "string",
							"enum": []any{"transport_error", "decode_error", "out_of_range", "invalid_transition", "invalid_params", "canceled", "not_found", "internal"},
						},
					},
					"required": []any{"error"},
				},
				"Character": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"id":       map[string]any{"type": "integer"},
						"name":     map[string]any{"type": "string"},
						"status":   map[string]any{"type": "string"},
						"species":  map[string]any{"type": "string"},
						"gender":   map[string]any{"type": "string"},
						"image":    map[string]any{"type": "string"},
						"origin":   map[string]any{"$ref": "#/components/schemas/Place"},
						"location": map[string]any{"$ref": "#/components/schemas/Place"},
						"episode":  map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
					},
				},
				"Place": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"name": map[string]any{"type": "string"},
						"url":  map[string]any{"type": "string"},
					},
				},
				"Episode": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"id":         map[string]any{"type": "integer"},
						"name":       map[string]any{"type": "string"},
						"air_date":   map[string]any{"type": "string"},
						"episode":    map[string]any{"type": "string"},
						"characters": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
					},
				},
				"GalleryView": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"mode":        map[string]any{"type": "string", "enum": []any{"initial", "browsing", "searching"}},
						"characters":  map[string]any{"type": "array", "items": map[string]any{"$ref": "#/components/schemas/Character"}},
						"nextPageUrl": map[string]any{"type": "string"},
						"query":       map[string]any{"type": "string"},
						"hasSnapshot": map[string]any{"type": "boolean"},
						"loading":     map[string]any{"type": "boolean"},
						"generation":  map[string]any{"type": "integer"},
					},
				},
				"GalleryAction": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"outcome": map[string]any{"type": "string"},
						"view":    map[string]any{"$ref": "#/components/schemas/GalleryView"},
					},
				},
				"SearchRequest": map[string]any{
					"type":       "object",
					"properties": map[string]any{"name": map[string]any{"type": "string"}},
				},
				"Settings": map[string]any{
					"type":       "object",
					"properties": map[string]any{"maxConcurrentImages": map[string]any{"type": "integer", "minimum": 1}},
				},
			},
		},
		"paths": map[string]any{
			"/api/v1/health":  map[string]any{"get": map[string]any{"responses": map[string]any{"200": map[string]any{"description": "OK"}}}},
			"/api/v1/version": map[string]any{"get": map[string]any{"responses": map[string]any{"200": map[string]any{"description": "OK"}}}},
			"/api/v1/gallery": map[string]any{"get": map[string]any{"responses": map[string]any{"200": jsonOK("#/components/schemas/GalleryView")}}},
			"/api/v1/gallery/next": map[string]any{"post": map[string]any{
				"responses": map[string]any{"200": jsonOK("#/components/schemas/GalleryAction"), "502": jsonErr},
			}},
			"/api/v1/gallery/search": map[string]any{
				"post": map[string]any{
					"requestBody": map[string]any{"required": true, "content": map[string]any{"application/json": map[string]any{"schema": map[string]any{"$ref": "#/components/schemas/SearchRequest"}}}},
					"responses":   map[string]any{"200": jsonOK("#/components/schemas/GalleryAction"), "400": jsonErr, "409": jsonErr, "502": jsonErr},
				},
				"delete": map[string]any{"responses": map[string]any{"200": jsonOK("#/components/schemas/GalleryAction"), "409": jsonErr}},
			},
			"/api/v1/gallery/characters/{index}": map[string]any{"get": map[string]any{
				"parameters": []any{pathParam("index")},
				"responses":  map[string]any{"200": map[string]any{"description": "OK"}, "400": jsonErr, "404": jsonErr},
			}},
			"/api/v1/episodes/{ids}": map[string]any{"get": map[string]any{
				"parameters": []any{pathParam("ids")},
				"responses":  map[string]any{"200": map[string]any{"description": "OK"}, "400": jsonErr, "502": jsonErr},
			}},
			"/api/v1/episodes/{ids}/characters": map[string]any{"get": map[string]any{
				"parameters": []any{pathParam("ids")},
				"responses":  map[string]any{"200": map[string]any{"description": "OK"}, "400": jsonErr, "502": jsonErr},
			}},
			"/api/v1/images": map[string]any{"get": map[string]any{
				"parameters": []any{map[string]any{"name": "url", "in": "query", "required": true, "schema": map[string]any{"type": "string"}}},
				"responses":  map[string]any{"200": map[string]any{"description": "Image bytes"}, "400": jsonErr, "403": jsonErr, "502": jsonErr},
			}},
			"/api/v1/settings": map[string]any{
				"get": map[string]any{"responses": map[string]any{"200": jsonOK("#/components/schemas/Settings")}},
				"put": map[string]any{"responses": map[string]any{"200": jsonOK("#/components/schemas/Settings"), "400": jsonErr}},
			},
			"/api/v1/events": map[string]any{"get": map[string]any{"responses": map[string]any{"200": map[string]any{"description": "SSE stream"}}}},
		},
	}

	httpjson.Write(w, http.StatusOK, spec)
}
