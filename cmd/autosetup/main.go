package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/filecoin-project/go-clock"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/benmeehan/device-autosetup/internal/models"
	"github.com/benmeehan/device-autosetup/internal/services"
	"github.com/benmeehan/device-autosetup/internal/utils"
	"github.com/benmeehan/device-autosetup/pkg/backend"
	"github.com/benmeehan/device-autosetup/pkg/credential"
	"github.com/benmeehan/device-autosetup/pkg/encryption"
	"github.com/benmeehan/device-autosetup/pkg/file"
	"github.com/benmeehan/device-autosetup/pkg/identity"
	"github.com/benmeehan/device-autosetup/pkg/integrity"
	"github.com/benmeehan/device-autosetup/pkg/launchstate"
	"github.com/benmeehan/device-autosetup/pkg/netstatus"
)

// retryPollInterval is how often the CLI checks whether a background retry has finished.
const retryPollInterval = time.Second

var configFile string

func main() {
	rootCmd := &cobra.Command{
		Use:           "autosetup",
		Short:         "Register this device with the setup backend and fetch its configuration",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}
	rootCmd.Flags().StringVarP(&configFile, "config", "c", "configs/config.yaml", "path to the configuration file")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	fileClient := file.NewFileService()

	config, err := utils.LoadConfig(configFile, fileClient)
	if err != nil {
		return err
	}

	// Set up structured logging with JSON output
	level, err := zerolog.ParseLevel(config.Logging.Level)
	if err != nil {
		return fmt.Errorf("invalid logging.level %q: %w", config.Logging.Level, err)
	}
	logger := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()

	encryptionManager := encryption.NewEncryptionManager(fileClient)
	if err := encryptionManager.Initialize(config.Storage.KeyFile); err != nil {
		logger.Error().Err(err).Msg("Failed to initialize credential encryption")
		return err
	}

	credentials := credential.NewFileStore(config.Storage.CredentialFile, fileClient, encryptionManager,
		logger.With().Str("component", "credentials").Logger())
	launchState := launchstate.NewFileStore(config.Storage.LaunchStateFile, fileClient, logger)
	profiles := identity.NewHostProfileSource(config.Identity.DeviceFile,
		models.ParseDeviceType(config.Identity.DeviceType), fileClient, logger)

	var checker integrity.Checker
	if config.Setup.RequireIntegrity {
		checker = integrity.NewRuntimeChecker(fileClient, config.Integrity.SuspiciousPaths,
			logger.With().Str("component", "integrity").Logger())
	}

	var network netstatus.Provider
	if config.Setup.RequireNetwork {
		network = netstatus.NewMonitor(logger.With().Str("component", "netstatus").Logger())
	}

	backendClient := backend.NewClient(config.Backend.BaseURL, config.Backend.Timeout,
		logger.With().Str("component", "backend").Logger())

	setupService := services.NewSetupService(
		backendClient,
		profiles,
		credentials,
		launchState,
		checker,
		network,
		clock.New(),
		services.SetupOptions{
			RetryInterval:    config.Setup.RetryInterval,
			RequireIntegrity: config.Setup.RequireIntegrity,
			RequireNetwork:   config.Setup.RequireNetwork,
		},
		logger.With().Str("component", "setup").Logger(),
	)
	defer setupService.Shutdown()

	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result := <-setupService.Setup(ctx)
	if result.Success {
		return printConfig(cmd, result.Config)
	}

	if !setupService.Retry().Active() {
		return result.Err
	}

	logger.Info().Dur("interval", config.Setup.RetryInterval).Msg("Registration pending, retrying in background")
	if !waitForRetry(ctx, setupService.Retry()) {
		logger.Info().Msg("Shutting down gracefully...")
		return result.Err
	}

	registered, err := launchState.HasCompletedRegistration()
	if err != nil || !registered {
		logger.Error().Err(err).Msg("Registration retries ended without success")
		return result.Err
	}

	// The retry path stores the credential only, so fetch the configuration with it.
	result = <-setupService.Setup(ctx)
	if !result.Success {
		return result.Err
	}
	return printConfig(cmd, result.Config)
}

// waitForRetry blocks until the retry cycle ends. It returns false if ctx is cancelled first.
func waitForRetry(ctx context.Context, retry *services.RetryScheduler) bool {
	ticker := time.NewTicker(retryPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
			if !retry.Active() {
				return true
			}
		}
	}
}

func printConfig(cmd *cobra.Command, config []byte) error {
	if len(config) == 0 {
		config = []byte("{}")
	}
	_, err := fmt.Fprintln(cmd.OutOrStdout(), string(config))
	return err
}
