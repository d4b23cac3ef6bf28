// Command chat is a terminal client for the orderbot API, handy for
// walking through an ordering conversation without the web app.
package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

type chatResponse struct {
	Reply   string `json:"reply"`
	Kind    string `json:"kind"`
	State   string `json:"state"`
	Source  string `json:"source"`
	OrderID string `json:"orderId"`
	Message string `json:"message"`
}

type client struct {
	base  string
	token string
	http  *http.Client
}

func main() {
	addr := flag.String("addr", "http://localhost:8080", "orderbot API base URL")
	token := flag.String("token", os.Getenv("ORDERBOT_TOKEN"), "bearer token; empty chats as a guest")
	speak := flag.Bool("speak", false, "ask the server to speak replies")
	flag.Parse()

	c := &client{
		base:  strings.TrimRight(*addr, "/"),
		token: *token,
		http:  &http.Client{Timeout: 60 * time.Second},
	}

	fmt.Println("Type a message. /reset clears the conversation, /quit exits.")
	in := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !in.Scan() {
			return
		}
		line := strings.TrimSpace(in.Text())
		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return
		case "/reset":
			if err := c.reset(context.Background()); err != nil {
				fmt.Fprintln(os.Stderr, "reset:", err)
				continue
			}
			fmt.Println("(conversation cleared)")
			continue
		}

		res, err := c.send(context.Background(), line, *speak)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			continue
		}
		fmt.Println(res.Reply)
		fmt.Printf("  [%s/%s state=%s", res.Source, res.Kind, res.State)
		if res.OrderID != "" {
			fmt.Printf(" order=%s", res.OrderID)
		}
		fmt.Println("]")
	}
}

func (c *client) send(ctx context.Context, message string, speak bool) (*chatResponse, error) {
	body, err := json.Marshal(map[string]any{"message": message, "speak": speak})
	if err != nil {
		return nil, err
	}
	var out chatResponse
	status, err := c.do(ctx, http.MethodPost, "/v1/chat", bytes.NewReader(body), &out)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		if out.Message != "" {
			return nil, fmt.Errorf("%d: %s", status, out.Message)
		}
		return nil, fmt.Errorf("unexpected status %d", status)
	}
	return &out, nil
}

func (c *client) reset(ctx context.Context) error {
	status, err := c.do(ctx, http.MethodDelete, "/v1/chat", nil, nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("unexpected status %d", status)
	}
	return nil
}

func (c *client) do(ctx context.Context, method, path string, body io.Reader, out any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(out); err != nil && err != io.EOF {
			return resp.StatusCode, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}
