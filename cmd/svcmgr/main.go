// cmd/svcmgr/main.go
package main

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/gisops/svcmgr/internal/arcgis"
	"github.com/gisops/svcmgr/internal/config"
	"github.com/gisops/svcmgr/internal/fleet"
	"github.com/gisops/svcmgr/internal/logger"
)

const (
	envUsername = "ARCGIS_USERNAME"
	envPassword = "ARCGIS_PASSWORD"
)

var (
	cfgPath  string
	server   string
	username string
	password string
	timeout  time.Duration
	insecure bool

	outputPath  string
	keepService string
	inputPath   string
)

var rootCmd = &cobra.Command{
	Use:           "svcmgr",
	Short:         "Manage ArcGIS Server service fleet state",
	SilenceUsage:  true,
	SilenceErrors: true,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

var saveCmd = &cobra.Command{
	Use:   "save",
	Short: "Save current service states to a snapshot file",
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := buildFleet()
		if err != nil {
			return err
		}

		out, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("create %s: %w", outputPath, err)
		}

		sum, err := f.Save(out)
		report("save", sum)
		if err != nil {
			out.Close()
			return err
		}
		if err := out.Close(); err != nil {
			return fmt.Errorf("close %s: %w", outputPath, err)
		}

		logger.Infof("service states saved to %s", outputPath)
		return nil
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop all services except one designated keeper",
	Long: `The stop command stops every non-excluded service, keeps the named
service running, and pins the keeper to 1/1 instances per node.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := buildFleet()
		if err != nil {
			return err
		}

		sum, err := f.StopAllExcept(keepService)
		report("stop", sum)
		if err != nil {
			return err
		}

		logger.Info("service shutdown complete")
		return nil
	},
}

var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Restore service states from a snapshot file",
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := buildFleet()
		if err != nil {
			return err
		}

		in, err := os.Open(inputPath)
		if err != nil {
			return fmt.Errorf("open %s: %w", inputPath, err)
		}
		defer in.Close()

		sum, err := f.Restore(in)
		report("restore", sum)
		return err
	},
}

func main() {
	rootCmd.AddCommand(saveCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(restoreCmd)

	if err := rootCmd.Execute(); err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
}

// buildFleet loads configuration, authenticates once, and wires the
// workflows. An authentication failure aborts before any workflow runs.
func buildFleet() (*fleet.Fleet, error) {
	// Run id ties together the per-service messages of one partial run.
	logger.Infof("run id %s", uuid.NewString())

	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	httpc := &http.Client{}
	if cfg.Server.Insecure {
		httpc.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	client, err := arcgis.NewClient(arcgis.Config{
		ServerURL:  cfg.Server.URL,
		HTTPClient: httpc,
		Timeout:    time.Duration(cfg.Server.TimeoutSec) * time.Second,
	})
	if err != nil {
		return nil, err
	}

	if err := client.Authenticate(cfg.Server.Username, cfg.Server.Password); err != nil {
		return nil, err
	}
	logger.Info("authentication successful")

	return fleet.New(client, cfg.ExcludedFolders), nil
}

// loadConfig merges the optional YAML file with flag and environment
// overrides. Precedence: flags, then file, then environment for the
// credentials.
func loadConfig() (*config.Config, error) {
	cfg := &config.Config{}
	if cfgPath != "" {
		loaded, err := config.Load(cfgPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if server != "" {
		cfg.Server.URL = server
	}
	if username != "" {
		cfg.Server.Username = username
	} else if cfg.Server.Username == "" {
		cfg.Server.Username = os.Getenv(envUsername)
	}
	if password != "" {
		cfg.Server.Password = password
	} else if cfg.Server.Password == "" {
		cfg.Server.Password = os.Getenv(envPassword)
	}
	if timeout > 0 {
		cfg.Server.TimeoutSec = int(timeout / time.Second)
	}
	if insecure {
		cfg.Server.Insecure = true
	}

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	config.Normalize(cfg)

	return cfg, nil
}

func report(workflow string, sum fleet.Summary) {
	logger.Infof("%s complete: %d processed, %d skipped, %d failed, %d bad rows",
		workflow, sum.Processed, sum.Skipped, sum.Failed, sum.BadRows)
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgPath, "config", "", "Path to YAML config file")
	pf.StringVar(&server, "server", "", "ArcGIS Server URL (e.g. https://server:6443)")
	pf.StringVar(&username, "username", "", "Primary Site Administrator username (or "+envUsername+")")
	pf.StringVar(&password, "password", "", "Primary Site Administrator password (or "+envPassword+")")
	pf.DurationVarP(&timeout, "timeout", "t", 0, "HTTP timeout per request")
	pf.BoolVar(&insecure, "insecure", false, "Skip TLS certificate verification")

	saveCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Snapshot file to write")
	saveCmd.MarkFlagRequired("output")

	stopCmd.Flags().StringVarP(&keepService, "keep-service", "k", "", "Name of the service to keep running")
	stopCmd.MarkFlagRequired("keep-service")

	restoreCmd.Flags().StringVarP(&inputPath, "input", "i", "", "Snapshot file to read")
	restoreCmd.MarkFlagRequired("input")
}
