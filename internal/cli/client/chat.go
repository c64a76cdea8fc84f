package client

import (
	"bufio"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

// ChatCmd creates the chat command.
func ChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		Long:  "Opens a WebSocket conversation with the server. Questions are answered one at a time; type 'exit' or press Ctrl+D to quit.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat()
		},
	}

	return cmd
}

func runChat() error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	wsURL, err := chatEndpoint(api.BaseURL())
	if err != nil {
		return err
	}

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", wsURL, err)
	}
	defer conn.Close()

	fmt.Println("Connected. Ask a question, or type 'exit' to quit.")

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 64*1024), 64*1024)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}

		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		if question == "exit" || question == "quit" {
			return nil
		}

		if err := conn.WriteMessage(websocket.TextMessage, []byte(question)); err != nil {
			return fmt.Errorf("failed to send question: %w", err)
		}

		_, answer, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("connection closed: %w", err)
		}

		fmt.Printf("\n%s\n\n", answer)
	}
}

// chatEndpoint converts the HTTP base URL into the WebSocket chat URL.
func chatEndpoint(baseURL string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid server URL %q: %w", baseURL, err)
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q in server URL", u.Scheme)
	}

	u.Path = strings.TrimRight(u.Path, "/") + "/ws/chat"
	return u.String(), nil
}
