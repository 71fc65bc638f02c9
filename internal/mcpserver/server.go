package mcpserver

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/docbert/docbert/internal/retrieval"
	"github.com/docbert/docbert/pkg/docbert"
	"github.com/docbert/docbert/pkg/version"
)

// Server is docbert's MCP server: a thin stdio adapter over a single
// docbert.Engine, the way the teacher's Server wraps a single
// search.SearchEngine/store.MetadataStore pair.
type Server struct {
	mcp    *mcp.Server
	engine *docbert.Engine
	logger *slog.Logger
}

// New builds a Server and registers every docbert_* / semantic_search
// tool against engine.
func New(engine *docbert.Engine) (*Server, error) {
	if engine == nil {
		return nil, errors.New("engine is required")
	}

	s := &Server{
		engine: engine,
		logger: slog.Default(),
	}

	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    "docbert",
			Version: version.Version,
		},
		nil,
	)

	s.registerTools()
	return s, nil
}

// Serve runs the server over the given transport (only "stdio" is
// currently implemented, matching spec.md §6).
func (s *Server) Serve(ctx context.Context, transport string) error {
	s.logger.Info("starting mcp server", slog.String("transport", transport))

	switch transport {
	case "stdio":
		err := s.mcp.Run(ctx, &mcp.StdioTransport{})
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("mcp server stopped with error", slog.String("error", err.Error()))
		} else {
			s.logger.Info("mcp server stopped gracefully")
		}
		return err
	default:
		return &ToolError{Code: ErrCodeInvalidParams, Message: "unsupported transport: " + transport}
	}
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "docbert_search",
		Description: "Hybrid lexical+neural search over indexed documents. Runs a fast text-index lookup, then reranks candidates by per-token MaxSim similarity unless bm25_only is set.",
	}, s.handleSearch)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "semantic_search",
		Description: "Pure neural search: scores every embedded document by MaxSim against the query, ignoring BM25 candidate selection entirely. Slower than docbert_search but exhaustive.",
	}, s.handleSemanticSearch)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "docbert_get",
		Description: "Fetch a single document's current title and body by its short ID, as printed in a search result.",
	}, s.handleGet)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "docbert_multi_get",
		Description: "Fetch several documents by short ID in one call. IDs that don't resolve are omitted, not errored.",
	}, s.handleMultiGet)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "docbert_status",
		Description: "Report the active model and per-collection document counts. Use before searching to confirm the index is populated.",
	}, s.handleStatus)

	s.logger.Info("mcp tools registered", slog.Int("count", 5))
}

func (s *Server) handleSearch(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (
	*mcp.CallToolResult, SearchOutput, error,
) {
	requestID := generateRequestID()
	if input.Query == "" {
		return nil, SearchOutput{}, newInvalidParamsError("query is required")
	}

	count := input.Count
	if count <= 0 {
		count = 10
	}

	start := time.Now()
	results, err := s.engine.Search(ctx, retrieval.HybridParams{
		Query:      input.Query,
		Count:      count,
		Collection: input.Collection,
		MinScore:   input.MinScore,
		BM25Only:   input.BM25Only,
		NoFuzzy:    input.NoFuzzy,
		All:        input.All,
	})
	duration := time.Since(start)
	if err != nil {
		s.logger.Error("docbert_search failed",
			slog.String("request_id", requestID), slog.String("error", err.Error()))
		return nil, SearchOutput{}, MapError(err)
	}

	s.logger.Info("docbert_search completed",
		slog.String("request_id", requestID), slog.Duration("duration", duration), slog.Int("result_count", len(results)))

	return nil, toSearchOutput(results), nil
}

func (s *Server) handleSemanticSearch(ctx context.Context, _ *mcp.CallToolRequest, input SemanticSearchInput) (
	*mcp.CallToolResult, SearchOutput, error,
) {
	requestID := generateRequestID()
	if input.Query == "" {
		return nil, SearchOutput{}, newInvalidParamsError("query is required")
	}

	count := input.Count
	if count <= 0 {
		count = 10
	}

	start := time.Now()
	results, err := s.engine.Semantic(ctx, retrieval.SemanticParams{
		Query:    input.Query,
		Count:    count,
		MinScore: input.MinScore,
		All:      input.All,
	})
	duration := time.Since(start)
	if err != nil {
		s.logger.Error("semantic_search failed",
			slog.String("request_id", requestID), slog.String("error", err.Error()))
		return nil, SearchOutput{}, MapError(err)
	}

	s.logger.Info("semantic_search completed",
		slog.String("request_id", requestID), slog.Duration("duration", duration), slog.Int("result_count", len(results)))

	return nil, toSearchOutput(results), nil
}

func (s *Server) handleGet(ctx context.Context, _ *mcp.CallToolRequest, input GetInput) (
	*mcp.CallToolResult, GetOutput, error,
) {
	if input.DocID == "" {
		return nil, GetOutput{}, newInvalidParamsError("doc_id is required")
	}

	doc, found, err := s.engine.Get(ctx, input.DocID)
	if err != nil {
		return nil, GetOutput{}, MapError(err)
	}
	if !found {
		return nil, GetOutput{Found: false}, nil
	}
	return nil, toGetOutput(doc), nil
}

func (s *Server) handleMultiGet(ctx context.Context, _ *mcp.CallToolRequest, input MultiGetInput) (
	*mcp.CallToolResult, MultiGetOutput, error,
) {
	if len(input.DocIDs) == 0 {
		return nil, MultiGetOutput{}, newInvalidParamsError("doc_ids is required and must be non-empty")
	}

	docs, err := s.engine.MultiGet(ctx, input.DocIDs)
	if err != nil {
		return nil, MultiGetOutput{}, MapError(err)
	}

	out := MultiGetOutput{Documents: make([]GetOutput, 0, len(docs))}
	for _, doc := range docs {
		out.Documents = append(out.Documents, toGetOutput(doc))
	}
	return nil, out, nil
}

func (s *Server) handleStatus(ctx context.Context, _ *mcp.CallToolRequest, _ StatusInput) (
	*mcp.CallToolResult, StatusOutput, error,
) {
	st, err := s.engine.Status()
	if err != nil {
		return nil, StatusOutput{}, MapError(err)
	}

	out := StatusOutput{ModelID: st.ModelID, DataDir: st.DataDir}
	for _, c := range st.Collections {
		out.Collections = append(out.Collections, CollectionStatusInfo{
			Name: c.Name, RootPath: c.RootPath, DocumentCount: c.DocumentCount,
		})
	}
	return nil, out, nil
}

func toSearchOutput(results []retrieval.Result) SearchOutput {
	out := SearchOutput{Results: make([]SearchResultOutput, 0, len(results))}
	for _, r := range results {
		out.Results = append(out.Results, SearchResultOutput{
			Rank: r.Rank, Score: r.Score, DocID: r.DocIDShort,
			Collection: r.Collection, Path: r.Path, Title: r.Title,
		})
	}
	return out
}

func toGetOutput(doc docbert.Document) GetOutput {
	return GetOutput{
		Found: true, DocID: doc.DocIDShort, Collection: doc.Collection,
		Path: doc.Path, Title: doc.Title, Body: doc.Body,
	}
}

func generateRequestID() string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
