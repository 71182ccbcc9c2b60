package main

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/joshp123/hive-heat/internal/config"
	"github.com/joshp123/hive-heat/internal/logger"
	"github.com/joshp123/hive-heat/internal/metrics"
	"github.com/joshp123/hive-heat/internal/rate"
	"github.com/joshp123/hive-heat/internal/session"
	"github.com/joshp123/hive-heat/plugins/hive"
)

func run(ctx context.Context, opts *options, args []string, stdout io.Writer, httpClient *http.Client) error {
	var target *float64
	if len(args) == 1 {
		value, err := parseTarget(args[0])
		if err != nil {
			return err
		}
		target = &value
	}

	dir := opts.configDir
	if dir == "" {
		var err error
		if dir, err = config.DefaultDir(); err != nil {
			return &config.Error{Path: "~/" + config.DirName, Err: err}
		}
	}
	cfg, err := config.Load(config.Path(dir))
	if err != nil {
		return err
	}

	level := cfg.LogLevel
	if opts.verbose {
		level = logger.DebugLevel
	}
	log := logger.New(level)
	defer func() { _ = log.Sync() }()

	if cfg.MetricsTextfile != "" {
		registry := metrics.Registry(session.MetricsCollectors(), hive.MetricsCollectors(), rate.MetricsCollectors())
		defer func() {
			if err := metrics.WriteTextfile(cfg.MetricsTextfile, registry); err != nil {
				log.Warnw("metrics textfile not written", "path", cfg.MetricsTextfile, "err", err)
			}
		}()
	}

	client := hive.NewClient(hive.ConfigFromFile(cfg), httpClient)
	sess, err := session.NewManager(
		session.Credentials{Username: cfg.Username, Password: cfg.Password},
		client,
		newStore(cfg, dir, log),
		log,
	)
	if err != nil {
		return err
	}

	var devices []hive.Device
	err = sess.WithToken(ctx, func(ctx context.Context, token string) error {
		list, err := client.Products(ctx, token)
		if err != nil {
			return err
		}
		devices = list
		return nil
	})
	if err != nil {
		return err
	}

	device, err := hive.FindHeating(devices)
	if err != nil {
		return err
	}
	status := hive.ReadStatus(device)
	out := outputMode{json: opts.json, w: stdout}

	if target == nil {
		if err := out.status(status); err != nil {
			return err
		}
	} else {
		token, err := sess.Token(ctx)
		if err != nil {
			return err
		}
		if err := client.SetTarget(ctx, token, device, *target); err != nil {
			return fmt.Errorf("set target: %w", err)
		}
		log.Infow("target set", "device", device.ID, "target", *target)
		status.Target = *target
		if out.json {
			if err := out.printJSON(map[string]any{"target": *target, "status": "ok"}); err != nil {
				return err
			}
		}
	}
	hive.RecordStatus(status)

	if cfg.MQTT.Enabled() {
		publishStatus(cfg.MQTT, device, status, log)
	}

	if cfg.Logout || opts.logout {
		if err := sess.Logout(ctx); err != nil {
			return &LogoutError{Err: err}
		}
	}
	return nil
}

func newStore(cfg *config.Config, dir string, log *logger.Logger) session.Store {
	local := session.NewFileStore(config.TokenPath(dir))
	if !cfg.Blob.Enabled() {
		return local
	}
	blob, err := session.NewS3Store(cfg.Blob)
	if err != nil {
		log.Warnw("token mirror disabled", "err", err)
		return local
	}
	return session.NewMirroredStore(local, blob, log)
}

func publishStatus(cfg config.MQTTConfig, device hive.Device, status hive.Status, log *logger.Logger) {
	pub, err := hive.NewPublisher(cfg)
	if err != nil {
		log.Warnw("mqtt unavailable", "broker", cfg.Broker, "err", err)
		return
	}
	defer pub.Close()
	if err := pub.Publish(device, status); err != nil {
		log.Warnw("mqtt publish failed", "topic", cfg.Topic, "err", err)
	}
}
