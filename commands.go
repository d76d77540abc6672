package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"osce_webxr_api/animation"
	"osce_webxr_api/config"
	"osce_webxr_api/generator"
	"osce_webxr_api/pkg/logger"
)

type rootOptions struct {
	configPath string
	verbose    bool
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "osce-webxr-api",
		Short:         "Backend for the OSCE WebXR virtual patient",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			level := cfg.Log.Level
			if opts.verbose {
				level = "debug"
			}
			if err := logger.Init(level, cfg.Log.Format); err != nil {
				return err
			}
			opts.cfg = cfg
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Sync()
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to config.yaml (default "+config.DefaultPath+" when present)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logs")

	root.AddCommand(
		newServeCmd(opts),
		newGenerateCmd(opts),
		newStatusCmd(opts),
		newAnimateCmd(opts),
	)
	return root
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.cfg
			if addr != "" {
				cfg.Server.Addr = addr
			}
			a, err := buildApp(cfg)
			if err != nil {
				return err
			}
			srv, err := buildServer(cfg, a)
			if err != nil {
				return err
			}
			if !opts.verbose {
				gin.SetMode(gin.ReleaseMode)
			}
			return serve(cmd.Context(), cfg.Server, srv.Routes())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}

func serve(parent context.Context, cfg config.ServerConfig, h http.Handler) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpSrv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
	}
	log := logger.Default()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("http server listening", zap.String("addr", cfg.Addr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down http server")
		return httpSrv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func newGenerateCmd(opts *rootOptions) *cobra.Command {
	var (
		prompt   string
		current  string
		feedback string
		typ      string
		wait     bool
		maxWait  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Refine a prompt and submit it for 3D generation",
		RunE: func(cmd *cobra.Command, args []string) error {
			gt, err := generator.ParseGenerationType(typ)
			if err != nil {
				return err
			}
			a, err := buildApp(opts.cfg)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			resp, session, err := a.workflow.Process(ctx, generator.GenerationRequest{
				OriginalPrompt: prompt,
				CurrentPrompt:  current,
				Feedback:       feedback,
				Type:           gt,
			})
			if err != nil {
				return err
			}
			if err := printJSON(cmd, resp); err != nil {
				return err
			}
			if !wait || resp.TaskID == "" {
				return nil
			}
			if maxWait <= 0 {
				maxWait = opts.cfg.Meshy.MaxWait
			}
			done, err := a.workflow.Orchestrator().AwaitCompletion(ctx, resp.TaskID, maxWait)
			var failure *generator.GenerationFailure
			switch {
			case errors.As(err, &failure):
				if aerr := session.Advance(generator.StatusFailed, ""); aerr != nil {
					return aerr
				}
				_ = printJSON(cmd, session)
				return err
			case err != nil:
				return err
			case done.Outcome == generator.OutcomeTimeout:
				return printJSON(cmd, done)
			default:
				if err := session.Advance(generator.StatusSucceeded, done.ModelURL); err != nil {
					return err
				}
			}
			return printJSON(cmd, session)
		},
	}
	cmd.Flags().StringVar(&prompt, "prompt", "", "original prompt (required)")
	cmd.Flags().StringVar(&current, "current", "", "current refined prompt from a previous round")
	cmd.Flags().StringVar(&feedback, "feedback", "", "feedback to fold into the prompt")
	cmd.Flags().StringVar(&typ, "type", string(generator.Character), "CHARACTER or SCENE")
	cmd.Flags().BoolVar(&wait, "wait", false, "wait for the model to finish")
	cmd.Flags().DurationVar(&maxWait, "max-wait", 0, "wait limit (default meshy.max_wait)")
	_ = cmd.MarkFlagRequired("prompt")
	return cmd
}

func newStatusCmd(opts *rootOptions) *cobra.Command {
	var (
		follow   bool
		interval time.Duration
	)
	cmd := &cobra.Command{
		Use:   "status <task_id>",
		Short: "Show the status of a generation task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(opts.cfg)
			if err != nil {
				return err
			}
			orch := a.workflow.Orchestrator()
			if !follow {
				res, err := orch.Poll(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd, res)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			for u := range orch.Watch(ctx, args[0], interval) {
				if u.Err != nil {
					return u.Err
				}
				if err := printJSON(cmd, u.Result); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "keep polling until the task finishes")
	cmd.Flags().DurationVar(&interval, "interval", 0, "poll interval when following (default meshy.poll_interval)")
	return cmd
}

func newAnimateCmd(opts *rootOptions) *cobra.Command {
	var (
		bonesPath string
		prompt    string
	)
	cmd := &cobra.Command{
		Use:   "animate",
		Short: "Generate Three.js animation code for a skeleton",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(bonesPath)
			if err != nil {
				return err
			}
			var bones []animation.Bone
			if err := json.Unmarshal(raw, &bones); err != nil {
				return fmt.Errorf("parse %s: %w", bonesPath, err)
			}
			a, err := buildApp(opts.cfg)
			if err != nil {
				return err
			}
			res, err := a.animation.Generate(cmd.Context(), bones, prompt)
			if err != nil {
				return err
			}
			return printJSON(cmd, struct {
				animation.Result
				Validation animation.Validation `json:"validation"`
			}{res, animation.Validate(res.Code)})
		},
	}
	cmd.Flags().StringVar(&bonesPath, "bones", "", "JSON file with the bone list (required)")
	cmd.Flags().StringVar(&prompt, "prompt", "", "animation description (required)")
	_ = cmd.MarkFlagRequired("bones")
	_ = cmd.MarkFlagRequired("prompt")
	return cmd
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
