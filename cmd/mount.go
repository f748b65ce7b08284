package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/jacobsa/fuse"
	"github.com/jacobsa/timeutil"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/relfs/notefs/internal/attrs"
	"github.com/relfs/notefs/internal/cfg"
	"github.com/relfs/notefs/internal/fsadapter"
	"github.com/relfs/notefs/internal/logger"
	"github.com/relfs/notefs/internal/metrics"
	"github.com/relfs/notefs/internal/perms"
	"github.com/relfs/notefs/internal/store"
)

// runMount opens the store, wires the Store Gateway, Attribute
// Builder and Operation Dispatcher together, and mounts the result at
// config.MountPoint, blocking until the kernel reports the mount has
// gone away or SIGINT requests an unmount.
func runMount(ctx context.Context, config *cfg.Config) error {
	if err := logger.Init(logger.Config{
		FilePath: config.Logging.FilePath,
		Format:   config.Logging.Format,
		Severity: config.Logging.Severity,
	}); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	dsn := config.Database
	if dsn == "" {
		dsn = ":memory:"
		logger.Infof("No database path given; using an ephemeral in-memory store.")
	}

	clock := timeutil.RealClock()
	gw, err := store.Open(dsn, clock)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer gw.Close()

	if config.InitDB || dsn == ":memory:" {
		if err := gw.InitSchema(ctx); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}

	uid, gid, err := perms.MyUserAndGroup()
	if err != nil {
		return fmt.Errorf("perms.MyUserAndGroup: %w", err)
	}

	builder := attrs.NewBuilder(uid, gid, config.Location(), clock)
	dispatcher := fsadapter.New(gw, builder, config.UserID)
	metricsHandle := metrics.New(prometheus.DefaultRegisterer)
	server := fsadapter.NewServer(dispatcher, metricsHandle)

	fsName := "notefs-" + config.UserID
	logger.Infof("Mounting %q at %q...", fsName, config.MountPoint)
	mfs, err := fuse.Mount(config.MountPoint, server, &fuse.MountConfig{
		FSName:     fsName,
		Subtype:    "notefs",
		VolumeName: "notefs",
		Options:    parseMountOptions(config.MountOptions),
	})
	if err != nil {
		return fmt.Errorf("mount: %w", err)
	}

	registerSIGINTHandler(config.MountPoint)

	if err := mfs.Join(ctx); err != nil {
		return fmt.Errorf("serving file system: %w", err)
	}
	logger.Infof("File system has been successfully unmounted.")
	return nil
}

// parseMountOptions turns repeated "-o key=value" (or bare "-o key")
// flags into the map fuse.MountConfig expects, the same shape
// gcsfuse's internal/mount.ParseOptions produces.
func parseMountOptions(opts []string) map[string]string {
	parsed := make(map[string]string, len(opts))
	for _, o := range opts {
		key, value, _ := strings.Cut(o, "=")
		parsed[key] = value
	}
	return parsed
}

// registerSIGINTHandler unmounts mountPoint in response to an
// interrupt, the same pattern the teacher uses for ctrl-C shutdown.
func registerSIGINTHandler(mountPoint string) {
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt)

	go func() {
		for range signalChan {
			logger.Infof("Received SIGINT, attempting to unmount...")
			if err := fuse.Unmount(mountPoint); err != nil {
				logger.Errorf("Failed to unmount in response to SIGINT: %v", err)
				continue
			}
			logger.Infof("Successfully unmounted in response to SIGINT.")
			return
		}
	}()
}
