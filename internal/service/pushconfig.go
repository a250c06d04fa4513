package service

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/scalefx/hubsync/internal/codec"
	"github.com/scalefx/hubsync/internal/domain"
	"github.com/scalefx/hubsync/internal/logger"
)

// ConfigPusher uploads a device config file and makes it take effect:
// push, verify the stored size, reload, then read the config back.
type ConfigPusher struct {
	uploader Uploader
	c        *codec.Codec
	log      logger.Logger
}

// NewConfigPusher creates a config pusher over an uploader and a codec
func NewConfigPusher(uploader Uploader, c *codec.Codec) *ConfigPusher {
	return &ConfigPusher{
		uploader: uploader,
		c:        c,
		log:      logger.Get().With("component", "pushconfig"),
	}
}

// Push uploads localPath to remotePath and activates it. The returned
// error wraps ErrStatusUnclear when the file landed but reload or
// validation could not be confirmed.
func (p *ConfigPusher) Push(localPath, remotePath string) error {
	info, err := os.Stat(localPath)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPlanningError, err)
	}

	spec := domain.TransferSpec{
		Direction:  domain.DirUpload,
		LocalPath:  localPath,
		RemotePath: remotePath,
		SizeBytes:  info.Size(),
	}
	if _, err := p.uploader.Upload(spec); err != nil && !errors.Is(err, domain.ErrStatusUnclear) {
		return err
	}
	p.log.Info("config uploaded", "path", remotePath, "bytes", info.Size())

	if err := p.verifySize(remotePath, info.Size()); err != nil {
		return err
	}

	if err := p.reload(); err != nil {
		return err
	}

	return p.validate()
}

// verifySize reads the stored file's size back via sd info.
func (p *ConfigPusher) verifySize(remotePath string, expected int64) error {
	cmd := "sd info " + remotePath

	obj, err := p.c.SendJSON(cmd, codec.DefaultWait)
	if err == nil && codec.String(obj, "status") == "ok" {
		actual := int64(codec.Int(obj, "size"))
		if actual != expected {
			return fmt.Errorf("%w: stored size %d, expected %d",
				domain.ErrVerificationMismatch, actual, expected)
		}
		return nil
	}

	resp, err := p.c.Send(cmd, codec.DefaultWait)
	if err != nil {
		return err
	}
	if strings.Contains(resp.Text(), strconv.FormatInt(expected, 10)) {
		return nil
	}
	return fmt.Errorf("%w: could not confirm stored size of %s", domain.ErrStatusUnclear, remotePath)
}

// reload asks the device to re-read its config. A silent device is
// taken as accepted; the validation step catches a broken config.
func (p *ConfigPusher) reload() error {
	resp, err := p.c.Send("config reload", codec.ListWait)
	if err != nil {
		return err
	}

	text := strings.ToLower(resp.Text())
	switch {
	case strings.Contains(text, "success"), strings.Contains(text, "loaded"):
		return nil
	case strings.Contains(text, "error"):
		return fmt.Errorf("%w: config reload: %s", domain.ErrDeviceError, resp.Text())
	default:
		return nil
	}
}

// validate reads the active config back and checks it parsed.
func (p *ConfigPusher) validate() error {
	obj, err := p.c.SendJSON("config display", codec.DefaultWait)
	if err == nil && codec.String(obj, "status") == "ok" {
		if _, hasConfig := obj["config"]; !hasConfig {
			return fmt.Errorf("%w: device reports ok but no config payload", domain.ErrStatusUnclear)
		}
		p.log.Info("config validated")
		return nil
	}

	resp, err := p.c.Send("config display", codec.DefaultWait)
	if err != nil {
		return err
	}
	if strings.Contains(resp.Text(), ":") {
		p.log.Info("config appears valid (text mode)")
		return nil
	}
	return fmt.Errorf("%w: could not validate active config", domain.ErrStatusUnclear)
}
