package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/raysh454/webscrape/internal/llm"
)

func newConverseCmd(rt *cliEnv) *cobra.Command {
	var (
		model       string
		maxTokens   int64
		temperature float64
		topP        float64
	)

	cmd := &cobra.Command{
		Use:   "converse PROMPT",
		Short: "Send one prompt to the configured model and print the reply",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := llm.New(rt.cfg.LLM, rt.logger)
			if err != nil {
				return eris.Wrap(err, "inference client")
			}

			req := llm.UserPrompt(args[0])
			req.ModelID = model
			req.InferenceConfig.MaxTokens = maxTokens
			if cmd.Flags().Changed("temperature") {
				req.InferenceConfig.Temperature = &temperature
			}
			if cmd.Flags().Changed("top-p") {
				req.InferenceConfig.TopP = &topP
			}

			resp, err := client.Converse(cmd.Context(), req)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), resp.Text())
			return err
		},
	}

	cmd.Flags().StringVar(&model, "model", "", "model id (default llm.model)")
	cmd.Flags().Int64Var(&maxTokens, "max-tokens", 0, "max output tokens (default llm.max_tokens)")
	cmd.Flags().Float64Var(&temperature, "temperature", 0, "sampling temperature in [0,1]")
	cmd.Flags().Float64Var(&topP, "top-p", 0, "nucleus sampling in [0,1]")
	return cmd
}
