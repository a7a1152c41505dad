package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/diagram-to-compose/composer/internal/catalog"
	"github.com/diagram-to-compose/composer/internal/compiler"
	"github.com/diagram-to-compose/composer/internal/logger"
	"github.com/diagram-to-compose/composer/internal/result"
	"github.com/diagram-to-compose/composer/internal/topology"
)

// LambdaEvent is the invocation payload (e.g. from API Gateway).
type LambdaEvent struct {
	Body      string `json:"body"` // topology snapshot JSON (raw or base64 if isBase64)
	IsBase64  bool   `json:"isBase64,omitempty"`
	Terraform *bool  `json:"terraform,omitempty"`
}

// LambdaResponse is returned to the client (API Gateway).
type LambdaResponse struct {
	StatusCode int               `json:"statusCode"`
	Success    bool              `json:"success"`
	Errors     []result.Error    `json:"errors,omitempty"`
	Warnings   []result.Warning  `json:"warnings,omitempty"`
	Files      map[string]string `json:"files,omitempty"` // path -> content (base64)
}

// APIGatewayResponse is the shape expected by API Gateway proxy integration (body = JSON string).
type APIGatewayResponse struct {
	StatusCode int               `json:"statusCode"`
	Headers    map[string]string `json:"headers,omitempty"`
	Body       string            `json:"body"`
}

type handler struct {
	catalog *catalog.Catalog
}

func (h handler) handle(ctx context.Context, event LambdaEvent) (APIGatewayResponse, error) {
	out := LambdaResponse{StatusCode: 200}

	body := event.Body
	if event.IsBase64 {
		dec, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			out.StatusCode = 400
			out.Errors = []result.Error{{Type: "invalid_input", Severity: "error", Message: "invalid base64 body: " + err.Error()}}
			return wrap(out), nil
		}
		body = string(dec)
	}

	t, err := topology.Unmarshal([]byte(body))
	if err != nil {
		out.StatusCode = 400
		msg := err.Error()
		var ie *topology.ImportError
		if errors.As(err, &ie) {
			msg = ie.Reason
		}
		out.Errors = []result.Error{{Type: result.TypeImport, Severity: "error", Message: msg,
			Suggestion: "Send a snapshot with nodes and links arrays"}}
		return wrap(out), nil
	}

	opts := compiler.DefaultOptions()
	if event.Terraform != nil {
		opts.Terraform = *event.Terraform
	}
	res, err := compiler.New(h.catalog, opts, logger.Default).Report(ctx, t)
	if err != nil {
		out.StatusCode = 500
		out.Errors = []result.Error{{Type: "compile_error", Severity: "error", Message: err.Error()}}
		return wrap(out), nil
	}

	out.Success = res.Success
	out.Errors = res.Errors
	out.Warnings = res.Warnings
	if res.Success && len(res.Files) > 0 {
		out.Files = make(map[string]string, len(res.Files))
		for name, content := range res.Files {
			out.Files[name] = base64.StdEncoding.EncodeToString(content)
		}
	}
	if !res.Success {
		out.StatusCode = 422
	}
	return wrap(out), nil
}

func wrap(out LambdaResponse) APIGatewayResponse {
	bodyBytes, _ := json.Marshal(out)
	return APIGatewayResponse{
		StatusCode: out.StatusCode,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(bodyBytes),
	}
}

// loadCatalog uses COMPOSER_CATALOG_FILE when set, else the built-in table.
func loadCatalog() (*catalog.Catalog, error) {
	if path := os.Getenv("COMPOSER_CATALOG_FILE"); path != "" {
		return catalog.LoadFile(path)
	}
	return catalog.Default(), nil
}

func main() {
	cat, err := loadCatalog()
	if err != nil {
		logger.Default.Error("failed to load catalog", "error", err)
		os.Exit(1)
	}
	lambda.Start(handler{catalog: cat}.handle)
}
