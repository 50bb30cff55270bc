package main

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/cobra"

	"github.com/platformlab/sagerun/client/sagemaker"
	"github.com/platformlab/sagerun/config"
	"github.com/platformlab/sagerun/dataset"
	"github.com/platformlab/sagerun/log"
	"github.com/platformlab/sagerun/server"
	"github.com/platformlab/sagerun/storage"
	"github.com/platformlab/sagerun/workflow"
)

func main() {
	rootCmd := &cobra.Command{Use: "sagerun"}
	rootCmd.AddCommand(stageCmd())
	rootCmd.AddCommand(trainCmd())
	rootCmd.AddCommand(automlCmd())
	rootCmd.AddCommand(deployCmd())
	rootCmd.AddCommand(predictCmd())
	rootCmd.AddCommand(transformCmd())
	rootCmd.AddCommand(evaluateCmd())
	rootCmd.AddCommand(teardownCmd())
	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("%s", err)
	}
}

func loadConfig() *config.Config {
	cfg := &config.Config{}
	if err := envconfig.Process("sagerun", cfg); err != nil {
		log.Fatalf("error while parsing config: %s", err)
	}
	return cfg
}

func newRunner(cfg *config.Config) *workflow.Runner {
	client, err := sagemaker.NewClient(sagemaker.Config{
		Region:       cfg.Region,
		RoleArn:      cfg.RoleArn,
		Endpoint:     cfg.Endpoint,
		PollInterval: cfg.PollInterval,
	})
	if err != nil {
		log.Fatalf("error while creating client: %s", err)
	}
	awsCfg := aws.NewConfig().WithRegion(cfg.Region)
	if cfg.Endpoint != "" {
		awsCfg = awsCfg.WithEndpoint(cfg.Endpoint).WithS3ForcePathStyle(true)
	}
	sess, err := session.NewSession(awsCfg)
	if err != nil {
		log.Fatalf("error while creating session: %s", err)
	}
	return &workflow.Runner{
		Client: client,
		Stager: storage.NewStager(sess, cfg.Bucket, cfg.Prefix),
	}
}

func withTimeout(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

func stageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stage LOCAL_FILE",
		Short: "upload a local dataset file into the staging bucket",
		Args:  cobra.ExactArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			cfg := loadConfig()
			runner := newRunner(cfg)
			ctx, cancel := withTimeout(cfg.TransformTimeout)
			defer cancel()
			uri, err := runner.Stage(ctx, args[0])
			if err != nil {
				log.Fatalf("error while staging %q: %s", args[0], err)
			}
			fmt.Println(uri)
		},
	}
}

func trainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "train SPEC_FILE",
		Short: "submit a training job and wait for the model artifact",
		Args:  cobra.ExactArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			req := &workflow.TrainRequest{}
			if err := workflow.LoadFile(args[0], req); err != nil {
				log.Fatalf("invalid spec %q: %s", args[0], err)
			}
			cfg := loadConfig()
			runner := newRunner(cfg)
			ctx, cancel := withTimeout(cfg.TrainTimeout)
			defer cancel()
			artifact, err := runner.Train(ctx, req)
			if err != nil {
				log.Fatalf("error while training: %s", err)
			}
			fmt.Println(artifact)
		},
	}
}

func automlCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "automl SPEC_FILE",
		Short: "submit an automated model search and wait for the best candidate",
		Args:  cobra.ExactArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			req := &workflow.AutoMLRequest{}
			if err := workflow.LoadFile(args[0], req); err != nil {
				log.Fatalf("invalid spec %q: %s", args[0], err)
			}
			cfg := loadConfig()
			runner := newRunner(cfg)
			ctx, cancel := withTimeout(cfg.AutoMLTimeout)
			defer cancel()
			best, err := runner.AutoML(ctx, req)
			if err != nil {
				log.Fatalf("error while searching: %s", err)
			}
			payload, err := json.Marshal(best)
			if err != nil {
				log.Fatalf("error while encoding candidate: %s", err)
			}
			fmt.Println(string(payload))
		},
	}
}

func deployCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deploy SPEC_FILE",
		Short: "deploy a trained artifact behind a hosted endpoint",
		Args:  cobra.ExactArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			req := &workflow.DeployRequest{}
			if err := workflow.LoadFile(args[0], req); err != nil {
				log.Fatalf("invalid spec %q: %s", args[0], err)
			}
			cfg := loadConfig()
			runner := newRunner(cfg)
			ctx, cancel := withTimeout(cfg.DeployTimeout)
			defer cancel()
			endpoint, err := runner.Deploy(ctx, req)
			if err != nil {
				log.Fatalf("error while deploying: %s", err)
			}
			fmt.Println(endpoint.GetID())
		},
	}
}

func predictCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "predict ENDPOINT_ID DATASET_FILE",
		Short: "send a labeled dataset to an endpoint and report per-row agreement",
		Args:  cobra.ExactArgs(2),
		Run: func(_ *cobra.Command, args []string) {
			rows, err := dataset.Load(args[1])
			if err != nil {
				log.Fatalf("error while loading %q: %s", args[1], err)
			}
			labels, features := dataset.Split(rows)

			cfg := loadConfig()
			runner := newRunner(cfg)
			ctx, cancel := withTimeout(cfg.DeployTimeout)
			defer cancel()
			predicted, err := runner.Predict(ctx, args[0], features)
			if err != nil {
				log.Fatalf("error while predicting: %s", err)
			}
			var matches int
			for i := range predicted {
				if predicted[i] == labels[i] {
					matches++
				}
			}
			fmt.Printf("%d/%d rows match (%.2f%%)\n",
				matches, len(labels), float64(matches)/float64(len(labels))*100)
		},
	}
}

func transformCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "transform SPEC_FILE",
		Short: "submit a bulk inference job and wait for the output directory",
		Args:  cobra.ExactArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			req := &workflow.TransformRequest{}
			if err := workflow.LoadFile(args[0], req); err != nil {
				log.Fatalf("invalid spec %q: %s", args[0], err)
			}
			cfg := loadConfig()
			runner := newRunner(cfg)
			ctx, cancel := withTimeout(cfg.TransformTimeout)
			defer cancel()
			outputURI, err := runner.Transform(ctx, req)
			if err != nil {
				log.Fatalf("error while transforming: %s", err)
			}
			fmt.Println(outputURI)
		},
	}
}

func evaluateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "evaluate OUTPUT_URI INPUT_FILE LABEL_FILE",
		Short: "compare a bulk inference output against a held-out label file",
		Args:  cobra.ExactArgs(3),
		Run: func(_ *cobra.Command, args []string) {
			outputURI, err := storage.ParseURI(args[0])
			if err != nil {
				log.Fatalf("invalid output uri %q: %s", args[0], err)
			}
			cfg := loadConfig()
			runner := newRunner(cfg)
			ctx, cancel := withTimeout(cfg.TransformTimeout)
			defer cancel()
			eval, err := runner.Evaluate(ctx, outputURI, filepath.Base(args[1]), args[2])
			if err != nil {
				log.Fatalf("error while evaluating: %s", err)
			}
			fmt.Printf("%d/%d rows match (%.2f%%)\n",
				eval.Matches, eval.Rows, eval.Accuracy()*100)
		},
	}
}

func teardownCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "teardown ENDPOINT_ID",
		Short: "delete a deployed endpoint together with its config and model",
		Args:  cobra.ExactArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			cfg := loadConfig()
			runner := newRunner(cfg)
			ctx, cancel := withTimeout(cfg.DeployTimeout)
			defer cancel()
			if err := runner.Teardown(ctx, args[0]); err != nil {
				log.Fatalf("error while deleting endpoint %q: %s", args[0], err)
			}
			log.Infof("endpoint %q deleted", args[0])
		},
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "serve a read-only HTTP listing of jobs and endpoints",
		Args:  cobra.ExactArgs(0),
		Run: func(_ *cobra.Command, _ []string) {
			cfg := loadConfig()
			runner := newRunner(cfg)
			ctx, cancel := withTimeout(time.Second * 10)
			defer cancel()
			if err := runner.Client.Ping(ctx); err != nil {
				log.Fatalf("error while establishing connection: %s", err)
			}
			log.Fatalf("HTTP server error on %s: %s",
				cfg.ListenAddr, server.Serve(cfg, runner.Client))
		},
	}
}
