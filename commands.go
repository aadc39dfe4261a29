package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"content_repurposer/generator"
	"content_repurposer/publisher"
	"content_repurposer/server"
	"content_repurposer/style"
	"content_repurposer/workflow"
)

func newRunCommand(a *app) *cobra.Command {
	var (
		title       string
		description string
		asJSON      bool
	)
	cmd := &cobra.Command{
		Use:   "run <transcript-file|->",
		Short: "Run the pipeline once on a transcript and print the results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			transcript, err := readTranscript(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			engine, closeStore, err := a.buildEngine(cmd)
			if err != nil {
				return err
			}
			defer closeStore()

			metadata := map[string]any{}
			if title != "" {
				metadata["title"] = title
			}
			if description != "" {
				metadata["description"] = description
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.RunTimeout())
			defer cancel()
			bundle, err := engine.Run(ctx, transcript, metadata)
			if err != nil {
				if workflow.Retryable(err) {
					return fmt.Errorf("%w (retry in %s)", err, workflow.RetryDelay(0))
				}
				return err
			}
			payloads, err := publisher.New(a.log).Render(bundle)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, struct {
					Bundle   workflow.Bundle     `json:"bundle"`
					Payloads []publisher.Payload `json:"payloads"`
				}{bundle, payloads})
			}
			printBundle(cmd.OutOrStdout(), bundle)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "source video title")
	cmd.Flags().StringVar(&description, "description", "", "source video description")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the bundle and payloads as JSON")
	return cmd
}

func newServeCommand(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP run trigger",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, closeStore, err := a.buildEngine(cmd)
			if err != nil {
				return err
			}
			defer closeStore()

			srv, err := server.New(engine, publisher.New(a.log), a.cfg.RunTimeout(), a.log)
			if err != nil {
				return err
			}
			listen := a.cfg.ServerAddr
			if addr != "" {
				listen = addr
			}
			a.log.Info("starting_web_server", "addr", listen)
			httpSrv := &http.Server{Addr: listen, Handler: srv.Routes()}
			go func() {
				<-cmd.Context().Done()
				_ = httpSrv.Close()
			}()
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "http listen address (overrides config server_addr)")
	return cmd
}

func newStylesCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "styles",
		Short: "Manage style guides",
	}

	importCmd := &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Import style guides from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStyles(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer store.Close()
			n, err := store.LoadSeedFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d style guide(s)\n", n)
			return nil
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List stored style guides",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStyles(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer store.Close()
			guides, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(guides) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No style guides stored; the built-in default is used.")
				return nil
			}
			rows := make([][]string, 0, len(guides))
			for _, g := range guides {
				platform := g.Platform
				if platform == "" {
					platform = "(all)"
				}
				rows = append(rows, []string{
					g.Name,
					platform,
					strconv.FormatBool(g.Active),
					g.Tone,
					strconv.Itoa(len(g.Examples)),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Name", "Platform", "Active", "Tone", "Examples"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
			))
			return nil
		},
	}

	cmd.AddCommand(importCmd, listCmd)
	return cmd
}

// buildEngine wires backends, style resolution and platforms into an Engine.
func (a *app) buildEngine(cmd *cobra.Command) (*workflow.Engine, func(), error) {
	agent, err := a.buildAgent()
	if err != nil {
		return nil, nil, err
	}
	platforms, err := a.cfg.Platforms()
	if err != nil {
		return nil, nil, err
	}

	var store style.Store
	closeStore := func() {}
	gs, err := a.openStyles(cmd.Context(), false)
	if err != nil {
		return nil, nil, err
	}
	if gs != nil {
		store = gs
		closeStore = func() { _ = gs.Close() }
	}

	engine, err := workflow.NewEngine(agent, style.NewProvider(store, a.log), a.log, workflow.WithPlatforms(platforms...))
	if err != nil {
		closeStore()
		return nil, nil, err
	}
	return engine, closeStore, nil
}

func readTranscript(stdin io.Reader, arg string) (string, error) {
	var (
		data []byte
		err  error
	)
	if arg == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(arg)
	}
	if err != nil {
		return "", err
	}
	transcript := strings.TrimSpace(string(data))
	if transcript == "" {
		return "", errors.New("transcript is empty")
	}
	return transcript, nil
}

func printBundle(w io.Writer, bundle workflow.Bundle) {
	fmt.Fprintf(w, "Run %s (style: %s)\n\n", bundle.RunID, bundle.StyleSource)

	rows := make([][]string, 0, len(bundle.Results))
	for _, p := range generator.Platforms() {
		res, ok := bundle.Get(p)
		if !ok {
			continue
		}
		if res.Status == workflow.StatusFailed {
			rows = append(rows, []string{p.Label(), string(res.Status), "-", "-", res.Error})
			continue
		}
		detail := string(res.Refinement.Outcome)
		if len(res.Refinement.Issues) > 0 {
			detail = strings.Join(res.Refinement.Issues, "; ")
		}
		rows = append(rows, []string{
			p.Label(),
			string(res.Status),
			string(res.Refinement.Verdict),
			strconv.Itoa(res.Final.CharCount),
			detail,
		})
	}
	fmt.Fprintln(w, renderTable(
		[]string{"Platform", "Status", "Verdict", "Chars", "Detail"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
	))

	for _, p := range generator.Platforms() {
		res, ok := bundle.Get(p)
		if !ok || res.Status != workflow.StatusRefined {
			continue
		}
		fmt.Fprintf(w, "\n=== %s ===\n", p.Label())
		if res.Final.Subject != "" {
			fmt.Fprintf(w, "Subject: %s\n\n", res.Final.Subject)
		}
		fmt.Fprintln(w, res.Content())
	}
}

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
