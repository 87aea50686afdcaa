// Package mcp exposes a Bot as a Model Context Protocol server, so an
// assistant can talk to the bartender and browse the beer catalog.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/bartender"
	"github.com/aretw0/bartender/internal/logging"
	"github.com/aretw0/bartender/pkg/domain"
	"github.com/aretw0/bartender/pkg/ports"
	"github.com/aretw0/bartender/pkg/runner"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Bot is the part of bartender.Bot the MCP server needs.
type Bot interface {
	ProcessTurn(ctx context.Context, conversationID, userID, text string) ([]domain.Reply, error)
	Inspect(ctx context.Context, conversationID string) (*domain.Session, error)
	Catalog() ports.Catalog
}

var _ Bot = (*bartender.Bot)(nil)

// SendMessageArgs are the arguments of the send_message tool.
type SendMessageArgs struct {
	ConversationID string `json:"conversation_id"`
	UserID         string `json:"user_id"`
	Text           string `json:"text"`
}

// SendMessageResponse is the structured result of send_message.
type SendMessageResponse struct {
	ConversationID string         `json:"conversation_id" jsonschema_description:"The conversation the message was sent to"`
	Replies        []domain.Reply `json:"replies" jsonschema_description:"What the bartender answered, in order"`
	Done           bool           `json:"done" jsonschema_description:"Indicates the conversation ended"`
}

// SearchBeersArgs are the arguments of the search_beers tool.
type SearchBeersArgs struct {
	Name     string `json:"name"`
	Brewery  string `json:"brewery"`
	Category string `json:"category"`
	Country  string `json:"country"`
}

// SearchBeersResponse is the structured result of search_beers.
type SearchBeersResponse struct {
	Beers []domain.Beer `json:"beers" jsonschema_description:"Matching beers from the catalog"`
}

// Server wraps the Bot and exposes it as an MCP Server.
type Server struct {
	bot       Bot
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance.
func NewServer(bot Bot, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		bot:       bot,
		logger:    logger,
		mcpServer: server.NewMCPServer("bartender-mcp", strings.TrimSpace(bartender.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and stops it when ctx ends.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutdown signal received, shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	// TOOL: send_message
	sendTool := mcp.NewTool("send_message",
		mcp.WithDescription("Send a message to the bartender in a conversation and get its replies. Conversations are created on first use."),
		mcp.WithString("conversation_id", mcp.Required(), mcp.Description("Conversation to talk in")),
		mcp.WithString("user_id", mcp.Required(), mcp.Description("Who is talking; the bartender remembers their last order")),
		mcp.WithString("text", mcp.Required(), mcp.Description("The message")),
		mcp.WithOutputSchema[SendMessageResponse](),
	)
	s.mcpServer.AddTool(sendTool, mcp.NewStructuredToolHandler(s.handleSendMessage))

	// TOOL: search_beers
	searchTool := mcp.NewTool("search_beers",
		mcp.WithDescription("Search the beer catalog. All filters are optional and combined."),
		mcp.WithString("name", mcp.Description("Part of the beer name")),
		mcp.WithString("brewery", mcp.Description("Part of the brewery name")),
		mcp.WithString("category", mcp.Description("Part of the category name")),
		mcp.WithString("country", mcp.Description("Country of the brewery")),
		mcp.WithOutputSchema[SearchBeersResponse](),
	)
	s.mcpServer.AddTool(searchTool, mcp.NewStructuredToolHandler(s.handleSearchBeers))

	// TOOL: get_conversation
	s.mcpServer.AddTool(mcp.NewTool("get_conversation",
		mcp.WithDescription("Get the persisted state of a conversation for introspection."),
		mcp.WithString("conversation_id", mcp.Required(), mcp.Description("Conversation to inspect")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := request.RequireString("conversation_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		session, err := s.bot.Inspect(ctx, id)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("inspect failed: %v", err)), nil
		}
		jsonBytes, _ := json.Marshal(session)
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})
}

func (s *Server) handleSendMessage(ctx context.Context, request mcp.CallToolRequest, args SendMessageArgs) (SendMessageResponse, error) {
	clean, err := runner.SanitizeInput(args.Text)
	if err != nil {
		s.logger.Warn("MCP send_message: Input rejected", "err", err, "size", len(args.Text))
		return SendMessageResponse{}, fmt.Errorf("input rejected: %w", err)
	}

	replies, err := s.bot.ProcessTurn(ctx, args.ConversationID, args.UserID, clean)
	if err != nil {
		return SendMessageResponse{}, fmt.Errorf("send message failed: %w", err)
	}

	resp := SendMessageResponse{ConversationID: args.ConversationID, Replies: replies}
	if session, err := s.bot.Inspect(ctx, args.ConversationID); err == nil {
		resp.Done = session.Done()
	}
	return resp, nil
}

func (s *Server) handleSearchBeers(ctx context.Context, request mcp.CallToolRequest, args SearchBeersArgs) (SearchBeersResponse, error) {
	filter := domain.BeerFilter{
		Name:     args.Name,
		Brewery:  args.Brewery,
		Category: args.Category,
		Country:  args.Country,
	}
	if filter.IsEmpty() {
		return SearchBeersResponse{}, fmt.Errorf("at least one filter is required")
	}
	beers, err := s.bot.Catalog().BeersByFilter(ctx, filter)
	if err != nil {
		return SearchBeersResponse{}, fmt.Errorf("search failed: %w", err)
	}
	if beers == nil {
		beers = []domain.Beer{}
	}
	return SearchBeersResponse{Beers: beers}, nil
}

func (s *Server) registerResources() {
	// EXPOSE: bartender://catalog/categories
	s.mcpServer.AddResource(mcp.NewResource("bartender://catalog/categories", "Beer categories",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		categories, err := s.bot.Catalog().Categories(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list categories: %w", err)
		}
		jsonBytes, _ := json.Marshal(categories)

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "bartender://catalog/categories",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})

	// EXPOSE: bartender://catalog/countries
	s.mcpServer.AddResource(mcp.NewResource("bartender://catalog/countries", "Countries with breweries",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		countries, err := s.bot.Catalog().Countries(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list countries: %w", err)
		}
		jsonBytes, _ := json.Marshal(countries)

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "bartender://catalog/countries",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
