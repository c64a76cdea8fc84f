package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// AskRequest represents the ask API request.
type AskRequest struct {
	Message     string  `json:"message"`
	Model       string  `json:"model,omitempty"`
	Temperature float32 `json:"temperature,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
}

// AskResponse represents the ask API response.
type AskResponse struct {
	Answer string `json:"answer"`
}

// AskCmd creates the ask command.
func AskCmd() *cobra.Command {
	var (
		model       string
		temperature float32
		maxTokens   int
	)

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a question about ingested documentation",
		Long:  "Sends one question to the server and prints the grounded answer.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			question := args[0]
			for _, arg := range args[1:] {
				question += " " + arg
			}
			return runAsk(AskRequest{
				Message:     question,
				Model:       model,
				Temperature: temperature,
				MaxTokens:   maxTokens,
			}, outputJSON)
		},
	}

	cmd.Flags().StringVar(&model, "model", "", "Override the completion model")
	cmd.Flags().Float32Var(&temperature, "temperature", 0, "Override the sampling temperature")
	cmd.Flags().IntVar(&maxTokens, "max-tokens", 0, "Override the completion token limit")

	return cmd
}

func runAsk(req AskRequest, outputJSON bool) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	resp, err := api.Post("/ask", req)
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	var askResp AskResponse
	if err := json.Unmarshal(resp.Data, &askResp); err != nil {
		return fmt.Errorf("failed to parse answer: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(askResp, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Println(askResp.Answer)
	return nil
}
