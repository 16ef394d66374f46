package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/prismatic-sec/prismatic-go/core"
)

// The prismatic MCP server exposes the data-protection pipeline as tools
// over stdio. Data sources and the zero-shot classifier are external
// collaborators, so the tools operate on caller-supplied text and findings.
func main() {
	cfg, err := core.LoadConfig(os.Getenv("PRISMATIC_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	logger, err := buildLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	policy := core.DefaultPolicy()
	if path := os.Getenv("PRISMATIC_POLICY"); path != "" {
		policy, err = core.LoadPolicy(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading policy: %v\n", err)
			os.Exit(1)
		}
	}

	scanner, err := core.NewScanner(cfg, policy, nil, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing scanner: %v\n", err)
		os.Exit(1)
	}

	engine, err := core.NewTransformationEngine(logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing transformation engine: %v\n", err)
		os.Exit(1)
	}

	s := server.NewMCPServer("prismatic-mcp", "1.0.0", server.WithLogging())

	s.AddTool(
		mcp.NewTool("ping",
			mcp.WithDescription("Simple ping tool for testing the MCP connection"),
			mcp.WithString("name", mcp.Required(), mcp.Description("Name to echo back")),
		),
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			name, _ := request.Params.Arguments["name"].(string)
			return mcp.NewToolResultText(fmt.Sprintf("Pong %s!", name)), nil
		},
	)

	s.AddTool(
		mcp.NewTool("scan_text",
			mcp.WithDescription("Scan a piece of text for PII/PHI and return deduplicated findings"),
			mcp.WithString("text", mcp.Required(), mcp.Description("Text to scan")),
			mcp.WithString("field_path", mcp.Description("Optional field name used by the field-name heuristic")),
		),
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			text, _ := request.Params.Arguments["text"].(string)
			fieldPath, _ := request.Params.Arguments["field_path"].(string)

			findings := scanner.ScanText(text, fieldPath)
			return jsonResult(findings)
		},
	)

	s.AddTool(
		mcp.NewTool("scan_records",
			mcp.WithDescription("Scan structured records for PII/PHI. Takes a JSON object mapping collection names to arrays of {id, fields} records"),
			mcp.WithString("records", mcp.Required(), mcp.Description("JSON payload of collections and records")),
		),
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			payload, _ := request.Params.Arguments["records"].(string)

			src, err := parseRecordSource(payload)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			findings, err := scanner.ScanRecords(ctx, src)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return jsonResult(findings)
		},
	)

	s.AddTool(
		mcp.NewTool("scan_messages",
			mcp.WithDescription("Scan inbox messages for PII/PHI and DSAR intent. Takes a JSON array of {id, thread_id, from, subject, body} messages"),
			mcp.WithString("messages", mcp.Required(), mcp.Description("JSON array of messages")),
		),
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			payload, _ := request.Params.Arguments["messages"].(string)

			src, err := parseMessageSource(payload)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			findings, err := scanner.ScanMessages(ctx, src)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return jsonResult(findings)
		},
	)

	s.AddTool(
		mcp.NewTool("transform",
			mcp.WithDescription("Apply DSAR-driven transformations to a list of findings"),
			mcp.WithString("findings", mcp.Required(), mcp.Description("JSON array of findings")),
			mcp.WithString("dsar_type", mcp.Required(), mcp.Description("DSAR intent: access, delete, rectify, restrict_processing, portability, object_to_processing")),
			mcp.WithString("compliance_laws", mcp.Description("Comma-separated law tags, e.g. GDPR,HIPAA")),
			mcp.WithString("corrected_value", mcp.Description("Replacement value for rectification requests")),
		),
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			req, err := parseTransformationRequest(request.Params.Arguments)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return jsonResult(engine.Transform(*req))
		},
	)

	s.AddTool(
		mcp.NewTool("compliance_report",
			mcp.WithDescription("Transform findings and build the full compliance report"),
			mcp.WithString("findings", mcp.Required(), mcp.Description("JSON array of findings")),
			mcp.WithString("dsar_type", mcp.Required(), mcp.Description("DSAR intent")),
			mcp.WithString("compliance_laws", mcp.Description("Comma-separated law tags")),
			mcp.WithString("corrected_value", mcp.Description("Replacement value for rectification requests")),
		),
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			req, err := parseTransformationRequest(request.Params.Arguments)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			results := engine.Transform(*req)
			return jsonResult(engine.CreateComplianceReport(results, *req))
		},
	)

	s.AddTool(
		mcp.NewTool("recommend_transformations",
			mcp.WithDescription("List the advisory transformation order for a DSAR intent and data class"),
			mcp.WithString("dsar_type", mcp.Required(), mcp.Description("DSAR intent")),
			mcp.WithString("data_class", mcp.Required(), mcp.Description("Data class: identifiers, financial, health, location, behavioral, biometric")),
			mcp.WithString("compliance_laws", mcp.Description("Comma-separated law tags")),
		),
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			dsarType, _ := request.Params.Arguments["dsar_type"].(string)
			dataClass, _ := request.Params.Arguments["data_class"].(string)
			laws := parseLaws(request.Params.Arguments["compliance_laws"])

			recommended := engine.RecommendTransformations(
				core.DSARType(dsarType), core.DataClass(dataClass), laws)
			return jsonResult(recommended)
		},
	)

	logger.Info("prismatic MCP server starting")
	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}

func buildLogger(level string) (*zap.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	parsed, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	zapCfg.Level = parsed
	return zapCfg.Build()
}

// staticRecordSource adapts a caller-supplied record payload to the
// pipeline's source interface.
type staticRecordSource struct {
	byCollection map[string][]core.Record
}

func (s *staticRecordSource) Collections(ctx context.Context) ([]string, error) {
	names := make([]string, 0, len(s.byCollection))
	for name := range s.byCollection {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *staticRecordSource) Sample(ctx context.Context, collection string, n int) ([]core.Record, error) {
	records := s.byCollection[collection]
	if len(records) > n {
		records = records[:n]
	}
	return records, nil
}

func parseRecordSource(payload string) (*staticRecordSource, error) {
	var raw map[string][]struct {
		ID     string         `json:"id"`
		Fields map[string]any `json:"fields"`
	}
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return nil, fmt.Errorf("invalid records payload: %w", err)
	}

	byCollection := make(map[string][]core.Record, len(raw))
	for collection, records := range raw {
		for _, r := range records {
			byCollection[collection] = append(byCollection[collection], core.Record{
				ID:     r.ID,
				Fields: r.Fields,
			})
		}
	}
	return &staticRecordSource{byCollection: byCollection}, nil
}

// staticMessageSource adapts a caller-supplied message payload to the
// pipeline's source interface.
type staticMessageSource struct {
	ids  []string
	byID map[string]*core.Message
}

func (s *staticMessageSource) ListRecent(ctx context.Context, n int) ([]string, error) {
	ids := s.ids
	if len(ids) > n {
		ids = ids[:n]
	}
	return ids, nil
}

func (s *staticMessageSource) Fetch(ctx context.Context, id string) (*core.Message, error) {
	msg, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("unknown message id %q", id)
	}
	return msg, nil
}

func parseMessageSource(payload string) (*staticMessageSource, error) {
	var raw []struct {
		ID       string `json:"id"`
		ThreadID string `json:"thread_id"`
		From     string `json:"from"`
		Subject  string `json:"subject"`
		Body     string `json:"body"`
	}
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return nil, fmt.Errorf("invalid messages payload: %w", err)
	}

	src := &staticMessageSource{byID: make(map[string]*core.Message, len(raw))}
	for _, m := range raw {
		src.ids = append(src.ids, m.ID)
		src.byID[m.ID] = &core.Message{
			ID:       m.ID,
			ThreadID: m.ThreadID,
			From:     m.From,
			Subject:  m.Subject,
			Body:     m.Body,
		}
	}
	return src, nil
}

func parseTransformationRequest(args map[string]interface{}) (*core.TransformationRequest, error) {
	findingsJSON, _ := args["findings"].(string)
	dsarType, _ := args["dsar_type"].(string)

	var findings []core.Finding
	if err := json.Unmarshal([]byte(findingsJSON), &findings); err != nil {
		return nil, fmt.Errorf("invalid findings payload: %w", err)
	}

	req := &core.TransformationRequest{
		Findings:       findings,
		DSARType:       core.DSARType(dsarType),
		ComplianceLaws: parseLaws(args["compliance_laws"]),
	}

	if corrected, ok := args["corrected_value"].(string); ok && corrected != "" {
		req.UserContext = map[string]string{"corrected_value": corrected}
	}

	return req, nil
}

func parseLaws(v interface{}) []core.Law {
	raw, _ := v.(string)
	if raw == "" {
		return nil
	}
	var laws []core.Law
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			laws = append(laws, core.Law(strings.ToUpper(part)))
		}
	}
	return laws
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to serialize result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
