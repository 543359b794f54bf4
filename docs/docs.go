// Package docs registers the API description served by the swagger UI at /swagger/.
package docs

import (
	_ "embed"

	"github.com/swaggo/swag"
)

//go:embed swagger.json
var swaggerJSON string

// SwaggerInfo holds the document registered under swag's default instance name.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "Weekly contest API",
	Description:      "Admin panel and public contest endpoints of the weekly contest service.",
	InfoInstanceName: swag.Name,
	SwaggerTemplate:  swaggerJSON,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
