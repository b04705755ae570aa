package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dafibh/evenup/evenup-backend/docs"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/swaggo/swag"
)

// OpenAPI3Spec represents an OpenAPI 3.0 document
type OpenAPI3Spec struct {
	OpenAPI    string                 `json:"openapi"`
	Info       map[string]interface{} `json:"info"`
	Servers    []Server               `json:"servers"`
	Paths      map[string]interface{} `json:"paths"`
	Components map[string]interface{} `json:"components,omitempty"`
}

// Server represents an OpenAPI 3.0 server
type Server struct {
	URL         string `json:"url"`
	Description string `json:"description"`
}

// openAPIServers are advertised in the converted document
var openAPIServers = []Server{
	{
		URL:         "http://localhost:8080",
		Description: "Local Development",
	},
}

// rewriteRefs points Swagger 2.0 definition references at OpenAPI 3.0 component schemas
func rewriteRefs(data interface{}) interface{} {
	switch v := data.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for key, value := range v {
			if ref, ok := value.(string); ok && key == "$ref" {
				out[key] = strings.Replace(ref, "#/definitions/", "#/components/schemas/", 1)
				continue
			}
			out[key] = rewriteRefs(value)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = rewriteRefs(item)
		}
		return out
	default:
		return data
	}
}

// convertOperation turns a Swagger 2.0 operation into its OpenAPI 3.0 form.
// Body parameters become a requestBody and response schemas move under content.
func convertOperation(op map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(op))
	for key, value := range op {
		switch key {
		case "parameters", "responses", "consumes", "produces":
		default:
			out[key] = value
		}
	}

	if params, ok := op["parameters"].([]interface{}); ok {
		var converted []interface{}
		for _, raw := range params {
			param, ok := raw.(map[string]interface{})
			if !ok {
				continue
			}
			if param["in"] == "body" {
				out["requestBody"] = map[string]interface{}{
					"description": param["description"],
					"required":    param["required"],
					"content": map[string]interface{}{
						echo.MIMEApplicationJSON: map[string]interface{}{"schema": param["schema"]},
					},
				}
				continue
			}
			converted = append(converted, convertParameter(param))
		}
		if len(converted) > 0 {
			out["parameters"] = converted
		}
	}

	if responses, ok := op["responses"].(map[string]interface{}); ok {
		converted := make(map[string]interface{}, len(responses))
		for status, raw := range responses {
			resp, ok := raw.(map[string]interface{})
			if !ok {
				continue
			}
			r := map[string]interface{}{"description": resp["description"]}
			if schema, ok := resp["schema"]; ok {
				r["content"] = map[string]interface{}{
					echo.MIMEApplicationJSON: map[string]interface{}{"schema": schema},
				}
			}
			converted[status] = r
		}
		out["responses"] = converted
	}

	return out
}

// convertParameter moves the type fields of a non-body parameter into a schema
func convertParameter(param map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{})
	schema := make(map[string]interface{})
	for key, value := range param {
		switch key {
		case "name", "in", "description", "required":
			out[key] = value
		case "type", "format", "enum", "default", "minimum", "maximum", "items":
			schema[key] = value
		}
	}
	if len(schema) > 0 {
		out["schema"] = schema
	}
	return out
}

// ServeOpenAPI3Spec serves the swagger spec converted to OpenAPI 3.0
// @Summary OpenAPI 3.0 document
// @Tags system
// @Produce json
// @Success 200 {object} OpenAPI3Spec
// @Router /openapi.json [get]
func ServeOpenAPI3Spec(c echo.Context) error {
	doc, err := swag.ReadDoc(docs.SwaggerInfo.InstanceName())
	if err != nil {
		log.Error().Err(err).Msg("Failed to read swagger doc")
		return NewInternalError(c, "Failed to read swagger doc")
	}

	var swagger2 map[string]interface{}
	if err := json.Unmarshal([]byte(doc), &swagger2); err != nil {
		log.Error().Err(err).Msg("Failed to parse swagger doc")
		return NewInternalError(c, "Failed to parse swagger doc")
	}

	info, _ := swagger2["info"].(map[string]interface{})
	basePath, _ := swagger2["basePath"].(string)

	paths := make(map[string]interface{})
	if rawPaths, ok := swagger2["paths"].(map[string]interface{}); ok {
		for path, rawItem := range rawPaths {
			item, ok := rawItem.(map[string]interface{})
			if !ok {
				continue
			}
			ops := make(map[string]interface{}, len(item))
			for method, rawOp := range item {
				if op, ok := rawOp.(map[string]interface{}); ok {
					ops[method] = convertOperation(op)
				}
			}
			paths[strings.TrimSuffix(basePath, "/")+path] = rewriteRefs(ops)
		}
	}

	components := make(map[string]interface{})
	if secDefs, ok := swagger2["securityDefinitions"].(map[string]interface{}); ok {
		components["securitySchemes"] = secDefs
	}
	if definitions, ok := swagger2["definitions"].(map[string]interface{}); ok {
		components["schemas"] = rewriteRefs(definitions)
	}

	return c.JSON(http.StatusOK, OpenAPI3Spec{
		OpenAPI:    "3.0.3",
		Info:       info,
		Servers:    openAPIServers,
		Paths:      paths,
		Components: components,
	})
}
