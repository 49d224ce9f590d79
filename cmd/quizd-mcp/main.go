package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// solveRequest mirrors the quizd API request model.
type solveRequest struct {
	Email  string `json:"email"`
	Secret string `json:"secret"`
	URL    string `json:"url"`
}

// solveResponse mirrors the quizd API response model.
type solveResponse struct {
	Correct bool    `json:"correct"`
	URL     *string `json:"url"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// healthResponse mirrors the quizd health response model.
type healthResponse struct {
	Status    string `json:"status"`
	Uptime    string `json:"uptime"`
	PoolStats struct {
		MaxPages    int `json:"max_pages"`
		ActivePages int `json:"active_pages"`
	} `json:"pool_stats"`
	Version string `json:"version"`
}

func main() {
	apiURL := os.Getenv("QUIZD_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	email := os.Getenv("QUIZD_EMAIL")
	secret := os.Getenv("QUIZD_SECRET")

	s := server.NewMCPServer(
		"quizd",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	solveQuizTool := mcp.NewTool("solve_quiz",
		mcp.WithDescription("Solve a chained quiz starting at the given URL: fetch the page, work out the answer with an LLM, submit it, and follow the chain until it ends or the time budget runs out. Returns the final correctness and last chain URL."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The URL of the first quiz page in the chain"),
		),
	)
	s.AddTool(solveQuizTool, handleSolveQuiz(apiURL, email, secret))

	serviceHealthTool := mcp.NewTool("service_health",
		mcp.WithDescription("Report the solver service's health, uptime and browser page pool usage."),
	)
	s.AddTool(serviceHealthTool, handleServiceHealth(apiURL))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func handleSolveQuiz(apiURL, email, secret string) server.ToolHandlerFunc {
	// A chain can legitimately run for minutes; give the HTTP client room
	// beyond the server-side budget.
	client := &http.Client{Timeout: 300 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		quizURL, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}

		body, err := json.Marshal(solveRequest{Email: email, Secret: secret, URL: quizURL})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to marshal request: %v", err)), nil
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL+"/quiz", bytes.NewReader(body))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to create request: %v", err)), nil
		}
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := client.Do(httpReq)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("API request failed: %v", err)), nil
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to read response: %v", err)), nil
		}

		var solveResp solveResponse
		if err := json.Unmarshal(respBody, &solveResp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}

		if solveResp.Error != nil {
			return mcp.NewToolResultError(fmt.Sprintf("[%s] %s", solveResp.Error.Code, solveResp.Error.Message)), nil
		}

		result := fmt.Sprintf("Correct: %t", solveResp.Correct)
		if solveResp.URL != nil {
			result += fmt.Sprintf("\nFinal chain URL: %s", *solveResp.URL)
		}
		return mcp.NewToolResultText(result), nil
	}
}

func handleServiceHealth(apiURL string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 10 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL+"/api/v1/health", nil)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to create request: %v", err)), nil
		}

		resp, err := client.Do(httpReq)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("health request failed: %v", err)), nil
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to read response: %v", err)), nil
		}

		var health healthResponse
		if err := json.Unmarshal(respBody, &health); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}

		return mcp.NewToolResultText(fmt.Sprintf(
			"Status: %s\nUptime: %s\nPages: %d/%d active\nVersion: %s",
			health.Status, health.Uptime,
			health.PoolStats.ActivePages, health.PoolStats.MaxPages,
			health.Version,
		)), nil
	}
}
