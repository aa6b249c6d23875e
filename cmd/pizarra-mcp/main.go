package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// errorResponse mirrors the API error body.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// snapshotResponse mirrors the snapshot API response.
type snapshotResponse struct {
	ID          string `json:"id"`
	URL         string `json:"url"`
	Format      string `json:"format"`
	Content     string `json:"contenido"`
	Fingerprint string `json:"huella"`
	Distance    int    `json:"distancia"`
	Engine      string `json:"motor"`
	StatusCode  int    `json:"status"`
}

// quoteTools maps tool names to API routes.
var quoteTools = []struct {
	name        string
	path        string
	description string
}{
	{"dolar_oficial", "/api/dolar-oficial", "Cotización del dólar oficial (Banco Nación): compra y venta del día."},
	{"dolar_oficial_anterior", "/api/dolar-oficial-anterior", "Cotización del dólar oficial del día hábil anterior (Banco Nación)."},
	{"dolar_blue", "/api/dolar-blue", "Cotización del dólar blue (DolarHoy): compra, venta y variación porcentual."},
	{"granos", "/api/granos", "Precios disponible y pizarra Rosario para soja, trigo, maíz, sorgo y girasol (GGSA)."},
	{"pizarra_bcr", "/api/pizarra-bcr", "Pizarra de la Bolsa de Comercio de Rosario con precios por fecha."},
	{"clima", "/api/clima", "Datos de la estación meteorológica COCADE: temperatura, humedad y lluvia."},
}

func main() {
	apiURL := os.Getenv("PIZARRA_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(apiURL, "/")).
		SetTimeout(60 * time.Second).
		SetHeader("Accept", "application/json")

	s := server.NewMCPServer(
		"pizarra",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	for _, qt := range quoteTools {
		s.AddTool(
			mcp.NewTool(qt.name, mcp.WithDescription(qt.description)),
			handleQuote(client, qt.path),
		)
	}

	s.AddTool(
		mcp.NewTool("listar_fuentes",
			mcp.WithDescription("Lista las fuentes consultadas, su URL, tipo (html/json) y motor de descarga."),
		),
		handleQuote(client, "/api/fuentes"),
	)

	snapshotTool := mcp.NewTool("snapshot_fuente",
		mcp.WithDescription("Descarga una fuente en el momento y devuelve su contenido para inspeccionar cambios de estructura."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Id de la fuente (ver listar_fuentes), p. ej. 'dolar-oficial' o 'clima'"),
		),
		mcp.WithString("format",
			mcp.Description("Formato: 'markdown' (por defecto), 'text' o 'html'"),
			mcp.Enum("markdown", "text", "html"),
		),
		mcp.WithString("selector",
			mcp.Description("Selector CSS opcional para acotar el HTML antes de convertirlo"),
		),
	)
	s.AddTool(snapshotTool, handleSnapshot(client))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

// apiGet fetches path from the API and returns the body, or an error
// carrying the API's error message for non-2xx responses.
func apiGet(ctx context.Context, client *resty.Client, path string, query url.Values) ([]byte, error) {
	resp, err := client.R().
		SetContext(ctx).
		SetQueryParamsFromValues(query).
		Get(path)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	if resp.IsError() {
		var apiErr errorResponse
		if json.Unmarshal(resp.Body(), &apiErr) == nil && apiErr.Error != "" {
			if apiErr.Code != "" {
				return nil, fmt.Errorf("[%s] %s", apiErr.Code, apiErr.Error)
			}
			return nil, fmt.Errorf("%s", apiErr.Error)
		}
		return nil, fmt.Errorf("API returned HTTP %d", resp.StatusCode())
	}
	return resp.Body(), nil
}

func handleQuote(client *resty.Client, path string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		body, err := apiGet(ctx, client, path, nil)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		var pretty bytes.Buffer
		if err := json.Indent(&pretty, body, "", "  "); err != nil {
			pretty.Write(body)
		}
		return mcp.NewToolResultText(pretty.String()), nil
	}
}

func handleSnapshot(client *resty.Client) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := request.RequireString("id")
		if err != nil {
			return mcp.NewToolResultError("id is required"), nil
		}

		query := url.Values{}
		if format := request.GetString("format", ""); format != "" {
			query.Set("format", format)
		}
		if selector := request.GetString("selector", ""); selector != "" {
			query.Set("selector", selector)
		}

		body, err := apiGet(ctx, client, "/api/fuentes/"+url.PathEscape(id)+"/snapshot", query)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		var snap snapshotResponse
		if err := json.Unmarshal(body, &snap); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "Fuente: %s\nURL: %s\nMotor: %s (HTTP %d)\n", snap.ID, snap.URL, snap.Engine, snap.StatusCode)
		if snap.Fingerprint != "" {
			fmt.Fprintf(&sb, "Huella: %s", snap.Fingerprint)
			if snap.Distance >= 0 {
				fmt.Fprintf(&sb, " (distancia %d)", snap.Distance)
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
		sb.WriteString(snap.Content)

		return mcp.NewToolResultText(sb.String()), nil
	}
}
