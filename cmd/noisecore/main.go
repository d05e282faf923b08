// Noise client core - linked-device demo harness.
//
// This binary wires the client core together the way an embedding
// application would: configuration, structured logging, a durable data
// store, and two device controllers that walk the full linking handshake
// in process. It exists to exercise the wiring; real deployments embed the
// internal packages behind their own transport and UI.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/princeton-sns/noise-go/internal/audit"
	"github.com/princeton-sns/noise-go/internal/datastore"
	"github.com/princeton-sns/noise-go/internal/device"
	"github.com/princeton-sns/noise-go/internal/infrastructure/config"
	"github.com/princeton-sns/noise-go/internal/infrastructure/database"
	"github.com/princeton-sns/noise-go/internal/infrastructure/logging"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for
// testability. Returning an error allows main to handle exit codes
// consistently.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting Noise client core demo", "version", version)

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}

	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	data, trail, err := openDatastore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("opening datastore: %w", err)
	}
	defer func() {
		if closeErr := data.Close(); closeErr != nil {
			log.Error("error closing datastore", "error", closeErr)
		}
	}()
	log.Info("datastore ready", "driver", cfg.Datastore.Driver)

	return simulateLink(ctx, data, trail, log)
}

// loadConfig loads the YAML configuration, falling back to built-in
// defaults when no config file is present.
func loadConfig(log *logging.Logger) (*config.Config, error) {
	path := getConfigPath()
	cfg, err := config.Load(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Info("no config file, using defaults", "path", path)
			return config.Default(), nil
		}
		return nil, fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", path)
	return cfg, nil
}

// getConfigPath returns the configuration file path.
// Uses NOISE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("NOISE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// openDatastore builds the configured datastore implementation and, when a
// durable database is available, an audit trail sharing its handle. The
// memory driver gets a no-op trail.
func openDatastore(ctx context.Context, cfg *config.Config) (datastore.Store, audit.Trail, error) {
	if cfg.Datastore.Driver != "sqlite" {
		return datastore.NewMemoryStore(), audit.NopTrail{}, nil
	}

	store, err := datastore.OpenSQLite(ctx, database.Config{
		Path:        cfg.Datastore.Path,
		WALMode:     cfg.Datastore.WALMode,
		BusyTimeout: cfg.Datastore.BusyTimeout,
	})
	if err != nil {
		return nil, nil, err
	}

	trail, err := audit.NewSQLiteTrail(ctx, store.DB())
	if err != nil {
		store.Close() //nolint:errcheck // best effort cleanup on error path
		return nil, nil, err
	}
	return store, trail, nil
}

// simulateLink walks two in-process devices through the full linking
// handshake and a device removal, logging the state after each phase and
// recording each phase on the audit trail. Message "delivery" between the
// two controllers is direct method invocation; a real deployment puts a
// transport between them.
func simulateLink(ctx context.Context, data datastore.Store, trail audit.Trail, log *logging.Logger) error {
	// Device A: standalone, first device of its user.
	deviceA := device.New(uuid.New().String(), device.Options{Data: data})
	deviceA.SetLogger(log.With("device", "A"))
	log.Info("device A created",
		"idkey", deviceA.Idkey(),
		"linked_name", deviceA.LinkedName(),
	)

	// Device B: created to join A's linked set.
	deviceB := device.New(uuid.New().String(), device.Options{
		PendingLinkIdkey: deviceA.Idkey(),
	})
	deviceB.SetLogger(log.With("device", "B"))
	log.Info("device B created",
		"idkey", deviceB.Idkey(),
		"link_state", deviceB.LinkState().String(),
	)

	// Phase 1: B exports its hierarchy and proposes the link to A.
	exported, err := deviceB.Groups().AllSubgroups(deviceB.LinkedName())
	if err != nil {
		return fmt.Errorf("exporting device B hierarchy: %w", err)
	}
	if err := deviceA.UpdateLinkedGroup(deviceB.Idkey(), deviceB.LinkedName(), exported); err != nil {
		return fmt.Errorf("device A merge: %w", err)
	}
	if err := trail.Record(ctx, &audit.Event{
		Action:   audit.ActionLinkMerged,
		DeviceID: deviceA.Idkey(),
		PeerID:   deviceB.Idkey(),
		Details:  map[string]any{"merged_groups": len(exported) - 1},
	}); err != nil {
		return fmt.Errorf("recording merge event: %w", err)
	}

	// Phase 2: A reports its post-merge state back; B adopts it.
	if err := deviceB.ConfirmUpdateLinkedGroup(deviceA.LinkedName(), deviceA.Groups().AllGroups()); err != nil {
		return fmt.Errorf("device B confirm: %w", err)
	}
	if err := trail.Record(ctx, &audit.Event{
		Action:   audit.ActionLinkConfirmed,
		DeviceID: deviceB.Idkey(),
		PeerID:   deviceA.Idkey(),
	}); err != nil {
		return fmt.Errorf("recording confirm event: %w", err)
	}

	linkedA, err := deviceA.LinkedDevices()
	if err != nil {
		return fmt.Errorf("resolving device A linked set: %w", err)
	}
	linkedB, err := deviceB.LinkedDevices()
	if err != nil {
		return fmt.Errorf("resolving device B linked set: %w", err)
	}
	log.Info("handshake complete",
		"root", deviceA.LinkedName(),
		"linked_devices_a", len(linkedA),
		"linked_devices_b", len(linkedB),
		"link_state_b", deviceB.LinkState().String(),
	)

	// Record the outcome in the application data store.
	if err := data.Set(ctx, "last_linked_root", deviceA.LinkedName()); err != nil {
		return fmt.Errorf("recording linked root: %w", err)
	}

	// Removal: A drops B from the shared hierarchy.
	if err := deviceA.DeleteDevice(deviceB.Idkey()); err != nil {
		return fmt.Errorf("deleting device B: %w", err)
	}
	if err := trail.Record(ctx, &audit.Event{
		Action:   audit.ActionDeviceDeleted,
		DeviceID: deviceA.Idkey(),
		PeerID:   deviceB.Idkey(),
	}); err != nil {
		return fmt.Errorf("recording delete event: %w", err)
	}
	remaining, err := deviceA.LinkedDevicesExcludingSelf()
	if err != nil {
		return fmt.Errorf("resolving remaining devices: %w", err)
	}
	log.Info("device B removed", "remaining_peers", len(remaining))

	history, err := trail.List(ctx, audit.Filter{})
	if err != nil {
		return fmt.Errorf("listing audit trail: %w", err)
	}
	log.Info("demo complete", "audit_events", history.Total)

	return nil
}
