// Package oracle is a thin JSON/HTTP client for the three endpoints the
// map-reconstruction driver calls: /select, /explore, and /guess. It talks
// to exactly one fixed base URL sequentially from a single goroutine, so it
// is built on stdlib net/http and encoding/json rather than one of the
// pack's heavier multi-host HTTP stacks (projectdiscovery/httpx,
// go-resty), which solve a concurrency/retry problem this client does not
// have.
package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mapsmith/roommapper/internal/roomgraph/submission"
)

// Client wraps net/http calls to the oracle's JSON API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	teamID     string
}

// New builds a Client. timeout bounds every individual request.
func New(baseURL, teamID string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		teamID:     teamID,
	}
}

// SelectResponse is the /select reply.
type SelectResponse struct {
	ProblemName string `json:"problemName"`
}

// Select registers problem as the active problem for this team.
func (c *Client) Select(ctx context.Context, problem string) (SelectResponse, error) {
	req := struct {
		ID          string `json:"id"`
		ProblemName string `json:"problemName"`
	}{ID: c.teamID, ProblemName: problem}

	var resp SelectResponse
	if err := c.post(ctx, "/select", req, &resp); err != nil {
		return SelectResponse{}, fmt.Errorf("oracle: Select: %w", err)
	}
	return resp, nil
}

// ExploreResponse is the /explore reply: one observation vector per
// requested plan, plus the oracle's running query count.
type ExploreResponse struct {
	Results    [][]int `json:"results"`
	QueryCount int     `json:"queryCount"`
}

// Explore submits one or more plan strings (doors-only or the bracketed
// labelled form) and returns their observation vectors in the same order.
func (c *Client) Explore(ctx context.Context, plans []string) (ExploreResponse, error) {
	req := struct {
		ID    string   `json:"id"`
		Plans []string `json:"plans"`
	}{ID: c.teamID, Plans: plans}

	var resp ExploreResponse
	if err := c.post(ctx, "/explore", req, &resp); err != nil {
		return ExploreResponse{}, fmt.Errorf("oracle: Explore: %w", err)
	}
	return resp, nil
}

// wireRoomAndDoor and wireConnection give submission.Connection's
// roomgraph.Door-typed fields oracle-shaped JSON keys; Guess converts into
// them rather than adding json tags to roomgraph.RoomAndDoor itself, which
// is a shared internal type with no business knowing about the wire format.
type wireRoomAndDoor struct {
	Room int `json:"room"`
	Door int `json:"door"`
}

type wireConnection struct {
	From wireRoomAndDoor `json:"from"`
	To   wireRoomAndDoor `json:"to"`
}

type wireMap struct {
	Rooms       []int            `json:"rooms"`
	StartRoom   int              `json:"startingRoom"`
	Connections []wireConnection `json:"connections"`
}

// GuessResponse is the /guess reply.
type GuessResponse struct {
	Correct bool `json:"correct"`
}

// Guess submits a candidate map for verification.
func (c *Client) Guess(ctx context.Context, m submission.Map) (GuessResponse, error) {
	rooms := make([]int, len(m.Rooms))
	for i, l := range m.Rooms {
		rooms[i] = int(l)
	}
	connections := make([]wireConnection, len(m.Connections))
	for i, conn := range m.Connections {
		connections[i] = wireConnection{
			From: wireRoomAndDoor{Room: conn.From.Room, Door: int(conn.From.Door)},
			To:   wireRoomAndDoor{Room: conn.To.Room, Door: int(conn.To.Door)},
		}
	}

	req := struct {
		ID  string  `json:"id"`
		Map wireMap `json:"map"`
	}{
		ID: c.teamID,
		Map: wireMap{
			Rooms:       rooms,
			StartRoom:   m.StartRoom,
			Connections: connections,
		},
	}

	var resp GuessResponse
	if err := c.post(ctx, "/guess", req, &resp); err != nil {
		return GuessResponse{}, fmt.Errorf("oracle: Guess: %w", err)
	}
	return resp, nil
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s %s: status %d: %s", http.MethodPost, path, resp.StatusCode, respBody)
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
